package config

import (
	"fmt"
	"strings"
)

// ValidationIssue describes a single validation problem.
type ValidationIssue struct {
	Field   string // dotted config path, e.g. "curupira.threshold"
	Value   string // the invalid value as a string
	Message string // human-readable description
}

func (i ValidationIssue) String() string {
	if i.Value != "" {
		return fmt.Sprintf("%s: %s (got %q)", i.Field, i.Message, i.Value)
	}
	return fmt.Sprintf("%s: %s", i.Field, i.Message)
}

// ValidationResult collects errors and warnings from config validation.
type ValidationResult struct {
	Errors   []ValidationIssue
	Warnings []ValidationIssue
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// String returns a formatted summary of all errors and warnings.
func (r *ValidationResult) String() string {
	if !r.HasErrors() && !r.HasWarnings() {
		return "config validation passed"
	}

	var b strings.Builder
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "ERROR  %s\n", e.String())
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "WARN   %s\n", w.String())
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *ValidationResult) addError(field, value, message string) {
	r.Errors = append(r.Errors, ValidationIssue{Field: field, Value: value, Message: message})
}

func (r *ValidationResult) addWarning(field, value, message string) {
	r.Warnings = append(r.Warnings, ValidationIssue{Field: field, Value: value, Message: message})
}

// Validate checks cfg against all known rules and returns a ValidationResult.
func Validate(cfg *Config) *ValidationResult {
	r := &ValidationResult{}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		r.addError("log_level", cfg.LogLevel, "must be \"debug\", \"info\", \"warn\", or \"error\"")
	}

	if cfg.Policy.Path == "" {
		r.addError("policy.path", "", "must not be empty")
	}
	if cfg.Policy.LockPath == "" {
		r.addError("policy.lock_path", "", "must not be empty")
	}
	if cfg.Ledger.Path == "" {
		r.addError("ledger.path", "", "must not be empty")
	}

	if cfg.Executor.RiskThreshold < 0 || cfg.Executor.RiskThreshold > 1 {
		r.addError("executor.risk_threshold", fmt.Sprintf("%v", cfg.Executor.RiskThreshold), "must be between 0.0 and 1.0")
	}
	if cfg.Supervisor.Threshold < 0 || cfg.Supervisor.Threshold > 1 {
		r.addError("supervisor.threshold", fmt.Sprintf("%v", cfg.Supervisor.Threshold), "must be between 0.0 and 1.0")
	}
	if cfg.Curupira.Threshold < 0 || cfg.Curupira.Threshold > 1 {
		r.addError("curupira.threshold", fmt.Sprintf("%v", cfg.Curupira.Threshold), "must be between 0.0 and 1.0")
	}

	switch cfg.Curupira.Transport {
	case "auto", "http", "subprocess":
	default:
		r.addError("curupira.transport", cfg.Curupira.Transport, "must be \"auto\", \"http\", or \"subprocess\"")
	}

	switch cfg.Advisor.Provider {
	case "none", "openai", "openclaw":
	default:
		r.addError("advisor.provider", cfg.Advisor.Provider, "must be \"none\", \"openai\", or \"openclaw\"")
	}
	if cfg.Advisor.TimeoutSeconds < 0.5 || cfg.Advisor.TimeoutSeconds > 30 {
		r.addWarning("advisor.timeout_seconds", fmt.Sprintf("%v", cfg.Advisor.TimeoutSeconds), "outside the 0.5-30s clamp range; will be clamped at call time")
	}

	if cfg.Advisor.Provider == "openai" && cfg.Advisor.APIKey == "" {
		r.addWarning("advisor", "", "provider is \"openai\" but AI_API_KEY is not set; advisor will degrade to no-opinion")
	}
	if cfg.Advisor.Provider == "openclaw" && cfg.Advisor.OpenclawURL == "" {
		r.addWarning("advisor.openclaw_url", "", "should be set when advisor.provider is \"openclaw\"")
	}

	if cfg.Curupira.Enabled && cfg.Curupira.Transport != "subprocess" && cfg.Curupira.BackendURL == "" {
		r.addWarning("curupira.backend_url", "", "should be set when curupira.transport is \"auto\" or \"http\"")
	}

	return r
}
