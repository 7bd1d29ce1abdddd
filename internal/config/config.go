package config

import (
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ResolveHomeDir returns the home directory of the real (non-root) user.
// When running under sudo, os.UserHomeDir() returns /root, which won't
// contain the user's config. This function checks SUDO_USER and resolves
// the invoking user's home directory instead.
func ResolveHomeDir() (string, error) {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
		u, err := user.Lookup(sudoUser)
		if err != nil {
			slog.Debug("SUDO_USER lookup failed, falling back", "sudo_user", sudoUser, "error", err)
		} else {
			slog.Debug("resolved home via SUDO_USER", "user", sudoUser, "home", u.HomeDir)
			return u.HomeDir, nil
		}
	}
	return os.UserHomeDir()
}

// Config is the top-level configuration for curudroid.
type Config struct {
	LogLevel    string           `yaml:"log_level" mapstructure:"log_level"`
	LogDir      string           `yaml:"log_dir" mapstructure:"log_dir"`
	DataDir     string           `yaml:"data_dir" mapstructure:"data_dir"`
	Policy      PolicyConfig     `yaml:"policy" mapstructure:"policy"`
	Ledger      LedgerConfig     `yaml:"ledger" mapstructure:"ledger"`
	Executor    ExecutorConfig   `yaml:"executor" mapstructure:"executor"`
	Supervisor  SupervisorConfig `yaml:"supervisor" mapstructure:"supervisor"`
	Curupira    CurupiraConfig   `yaml:"curupira" mapstructure:"curupira"`
	Advisor     AdvisorConfig    `yaml:"advisor" mapstructure:"advisor"`
	Autonomy    AutonomyConfig   `yaml:"autonomy" mapstructure:"autonomy"`
	Telegram    TelegramConfig   `yaml:"telegram" mapstructure:"telegram"`
	PlanGen     PlanGenConfig    `yaml:"plangen" mapstructure:"plangen"`
	MetricsAddr string           `yaml:"metrics_addr" mapstructure:"metrics_addr"`
}

// PlanGenConfig holds Plan Generator's intent-intake directories.
type PlanGenConfig struct {
	ApprovedDir string `yaml:"approved_dir" mapstructure:"approved_dir"`
	RejectedDir string `yaml:"rejected_dir" mapstructure:"rejected_dir"`
}

// PolicyConfig holds Command Policy and Policy Lock settings.
type PolicyConfig struct {
	Path          string `yaml:"path" mapstructure:"path"`                       // allowlist file
	LockPath      string `yaml:"lock_path" mapstructure:"lock_path"`             // policy_lock.json
	Maintenance   bool   `yaml:"-" mapstructure:"-"`                             // set only from --policy-maintenance, never persisted
	OPAOverlayDir string `yaml:"opa_overlay_dir" mapstructure:"opa_overlay_dir"` // optional supplementary .rego rules
	// VerifySigPublicKeyHex, when set, makes preflight additionally check the
	// policy lock's detached ed25519 signature against this hex-encoded
	// public key. Empty means signature checking
	// is skipped entirely; the lock hash/version check always runs.
	VerifySigPublicKeyHex string `yaml:"verify_sig_public_key" mapstructure:"verify_sig_public_key"`
}

// LedgerConfig holds Ledger file location.
type LedgerConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // execution_history.log
}

// ExecutorConfig holds Executor-layer settings.
type ExecutorConfig struct {
	RiskThreshold    float64 `yaml:"risk_threshold" mapstructure:"risk_threshold"` // EXECUTOR_RISK_THRESHOLD, normalized [0,1]
	EnableAutonomy   bool    `yaml:"-" mapstructure:"-"`                          // --enable-autonomy, not persisted
	PlansDir         string  `yaml:"plans_dir" mapstructure:"plans_dir"`
	ApprovalsDir     string  `yaml:"approvals_dir" mapstructure:"approvals_dir"`
	ResultsDir       string  `yaml:"results_dir" mapstructure:"results_dir"`
}

// SupervisorConfig holds the Supervisor Evaluator's threshold.
type SupervisorConfig struct {
	Enabled   bool    `yaml:"enabled" mapstructure:"enabled"`
	Threshold float64 `yaml:"threshold" mapstructure:"threshold"` // normalized [0,1]
}

// CurupiraConfig holds the Curupira Evaluator's threshold and backend transport.
type CurupiraConfig struct {
	Enabled        bool    `yaml:"enabled" mapstructure:"enabled"`
	Threshold      float64 `yaml:"threshold" mapstructure:"threshold"` // configured_threshold; effective = x0.8
	Transport      string  `yaml:"transport" mapstructure:"transport"` // auto, http, subprocess
	BackendURL     string  `yaml:"backend_url" mapstructure:"backend_url"`
	BackendTimeout float64 `yaml:"backend_timeout" mapstructure:"backend_timeout"` // seconds
	SubprocessPath string  `yaml:"subprocess_path" mapstructure:"subprocess_path"`
}

// AdvisorConfig holds AI Advisor provider settings.
type AdvisorConfig struct {
	Provider       string  `yaml:"provider" mapstructure:"provider"` // none, openai, openclaw
	APIKey         string  `yaml:"-" mapstructure:"-"`               // AI_API_KEY, never persisted to disk
	Model          string  `yaml:"model" mapstructure:"model"`
	TimeoutSeconds float64 `yaml:"timeout_seconds" mapstructure:"timeout_seconds"` // clamped [0.5, 30], default 5
	OpenclawURL    string  `yaml:"openclaw_url" mapstructure:"openclaw_url"`
}

// AutonomyConfig holds Reactive Autonomy settings.
type AutonomyConfig struct {
	ReactiveEnabled bool   `yaml:"reactive_enabled" mapstructure:"reactive_enabled"`
	QueuePath       string `yaml:"queue_path" mapstructure:"queue_path"`
	MetricsPath     string `yaml:"metrics_path" mapstructure:"metrics_path"`
}

// TelegramConfig holds the opaque Telegram transport token (out of scope
// collaborator, carried only as configuration surface per the spec's
// external-interfaces section).
type TelegramConfig struct {
	Token string `yaml:"-" mapstructure:"-"`
}

// setDefaults registers sensible default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_dir", "logs")
	v.SetDefault("data_dir", "data")
	v.SetDefault("policy.path", "ai/policy.yaml")
	v.SetDefault("policy.lock_path", "data/policy_lock.json")
	v.SetDefault("policy.opa_overlay_dir", "")
	v.SetDefault("ledger.path", "ai/history/execution_history.log")
	v.SetDefault("executor.risk_threshold", 0.5)
	v.SetDefault("executor.plans_dir", "ai/plans")
	v.SetDefault("executor.approvals_dir", "ai/approvals")
	v.SetDefault("executor.results_dir", "ai/results")
	v.SetDefault("plangen.approved_dir", "ai/approved")
	v.SetDefault("plangen.rejected_dir", "ai/rejected")
	v.SetDefault("supervisor.enabled", true)
	v.SetDefault("supervisor.threshold", 0.5)
	v.SetDefault("curupira.enabled", true)
	v.SetDefault("curupira.threshold", 0.5)
	v.SetDefault("curupira.transport", "auto")
	v.SetDefault("curupira.backend_url", "http://127.0.0.1:8765")
	v.SetDefault("curupira.backend_timeout", 5.0)
	v.SetDefault("curupira.subprocess_path", "")
	v.SetDefault("advisor.provider", "none")
	v.SetDefault("advisor.model", "")
	v.SetDefault("advisor.timeout_seconds", 5.0)
	v.SetDefault("advisor.openclaw_url", "")
	v.SetDefault("autonomy.reactive_enabled", false)
	v.SetDefault("autonomy.queue_path", "data/intents_queue.json")
	v.SetDefault("autonomy.metrics_path", "data/autonomy_metrics.json")
	v.SetDefault("metrics_addr", "")
}

// bindEnvVars binds the bare environment variable names from the external
// interfaces surface -- no common prefix, matching the names the spec
// documents directly (LOG_LEVEL, AI_PROVIDER, CURUPIRA_RISK_THRESHOLD, ...).
func bindEnvVars(v *viper.Viper) {
	bindings := map[string]string{
		"log_level":                 "LOG_LEVEL",
		"log_dir":                   "LOG_DIR",
		"data_dir":                  "DATA_DIR",
		"executor.risk_threshold":   "EXECUTOR_RISK_THRESHOLD",
		"supervisor.enabled":        "SUPERVISOR_ENABLED",
		"curupira.enabled":          "CURUPIRA_ENABLED",
		"curupira.threshold":        "CURUPIRA_RISK_THRESHOLD",
		"curupira.transport":        "CURUPIRA_TRANSPORT",
		"curupira.backend_url":      "CURUPIRA_BACKEND_URL",
		"curupira.backend_timeout":  "CURUPIRA_BACKEND_TIMEOUT",
		"advisor.provider":          "AI_PROVIDER",
		"advisor.model":             "AI_MODEL",
		"advisor.timeout_seconds":   "AI_TIMEOUT_SECONDS",
		"autonomy.reactive_enabled": "AUTONOMY_REACTIVE_ENABLED",
	}
	for key, env := range bindings {
		_ = v.BindEnv(key, env)
	}
}

// DefaultConfigDir returns the default configuration directory path.
func DefaultConfigDir() (string, error) {
	home, err := ResolveHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "curudroid"), nil
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the curudroid configuration from disk, env vars, and defaults.
// If configPath is empty, it looks in ~/.config/curudroid/config.yaml.
// Credentials (AI_API_KEY, TELEGRAM_TOKEN) are read directly from the
// environment and never bound through viper's config-file path, so they
// can never be accidentally persisted by WriteDefault.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	bindEnvVars(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := ResolveHomeDir()
		if err != nil {
			slog.Warn("could not determine home directory", "error", err)
		} else {
			cfgDir := filepath.Join(home, ".config", "curudroid")
			v.AddConfigPath(cfgDir)
			v.SetConfigName("config")
			v.SetConfigType("yaml")
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if configPath != "" {
				return nil, err
			}
			slog.Debug("no config file found, using defaults", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Advisor.APIKey = os.Getenv("AI_API_KEY")
	cfg.Telegram.Token = os.Getenv("TELEGRAM_TOKEN")

	result := Validate(&cfg)
	if result.HasWarnings() {
		for _, w := range result.Warnings {
			slog.Warn("config warning", "field", w.Field, "message", w.Message, "value", w.Value)
		}
	}
	if result.HasErrors() {
		return nil, fmt.Errorf("config validation failed:\n%s", result.String())
	}

	return &cfg, nil
}

// WriteDefault creates a default config file at the given path (or the
// default location if path is empty). It does not overwrite an existing file.
func WriteDefault(path string) (string, error) {
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return "", err
		}
	}

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	content, err := GetTemplate("default")
	if err != nil {
		return "", fmt.Errorf("reading default template: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", err
	}

	return path, nil
}
