package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValues(t *testing.T) {
	// Isolate from host config: point HOME at an empty temp dir so
	// Load("") cannot pick up ~/.config/curudroid/config.yaml.
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() with no config file: %v", err)
	}

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"log_level", cfg.LogLevel, "info"},
		{"policy.path", cfg.Policy.Path, "ai/policy.yaml"},
		{"ledger.path", cfg.Ledger.Path, "ai/history/execution_history.log"},
		{"executor.risk_threshold", cfg.Executor.RiskThreshold, 0.5},
		{"supervisor.enabled", cfg.Supervisor.Enabled, true},
		{"curupira.threshold", cfg.Curupira.Threshold, 0.5},
		{"curupira.transport", cfg.Curupira.Transport, "auto"},
		{"advisor.provider", cfg.Advisor.Provider, "none"},
		{"autonomy.reactive_enabled", cfg.Autonomy.ReactiveEnabled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("default %s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	content := `log_level: debug
policy:
  path: custom/policy.yaml
executor:
  risk_threshold: 0.3
curupira:
  threshold: 0.6
  transport: http
advisor:
  provider: openai
  model: gpt-4o-mini
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load(%s): %v", cfgPath, err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.Policy.Path != "custom/policy.yaml" {
		t.Errorf("policy.path = %q, want %q", cfg.Policy.Path, "custom/policy.yaml")
	}
	if cfg.Executor.RiskThreshold != 0.3 {
		t.Errorf("executor.risk_threshold = %v, want 0.3", cfg.Executor.RiskThreshold)
	}
	if cfg.Curupira.Threshold != 0.6 {
		t.Errorf("curupira.threshold = %v, want 0.6", cfg.Curupira.Threshold)
	}
	if cfg.Curupira.Transport != "http" {
		t.Errorf("curupira.transport = %q, want %q", cfg.Curupira.Transport, "http")
	}
	if cfg.Advisor.Provider != "openai" {
		t.Errorf("advisor.provider = %q, want %q", cfg.Advisor.Provider, "openai")
	}
}

func TestEnvVarOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("AI_PROVIDER", "openclaw")
	t.Setenv("CURUPIRA_RISK_THRESHOLD", "0.7")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("log_level = %q, want %q (from LOG_LEVEL)", cfg.LogLevel, "warn")
	}
	if cfg.Advisor.Provider != "openclaw" {
		t.Errorf("advisor.provider = %q, want %q (from AI_PROVIDER)", cfg.Advisor.Provider, "openclaw")
	}
	if cfg.Curupira.Threshold != 0.7 {
		t.Errorf("curupira.threshold = %v, want 0.7 (from CURUPIRA_RISK_THRESHOLD)", cfg.Curupira.Threshold)
	}
}

func TestEnvVarCredentialsNeverFromFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("AI_API_KEY", "secret-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	if cfg.Advisor.APIKey != "secret-key" {
		t.Errorf("advisor.api_key = %q, want %q", cfg.Advisor.APIKey, "secret-key")
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() with missing explicit path should return error")
	}
}

func TestWriteDefault(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	path, err := WriteDefault(cfgPath)
	if err != nil {
		t.Fatalf("WriteDefault(): %v", err)
	}

	if path != cfgPath {
		t.Errorf("WriteDefault returned %q, want %q", path, cfgPath)
	}

	if _, err := os.Stat(cfgPath); err != nil {
		t.Errorf("config file not created: %v", err)
	}

	if err := os.WriteFile(cfgPath, []byte("custom content"), 0o644); err != nil {
		t.Fatalf("writing custom content: %v", err)
	}

	path2, err := WriteDefault(cfgPath)
	if err != nil {
		t.Fatalf("WriteDefault() on existing file: %v", err)
	}
	if path2 != cfgPath {
		t.Errorf("WriteDefault returned %q, want %q", path2, cfgPath)
	}

	data, _ := os.ReadFile(cfgPath)
	if string(data) != "custom content" {
		t.Error("WriteDefault should not overwrite existing file")
	}
}
