// Package plan parses and validates plan files: the bounded list of
// shell-like commands the Plan Generator emits and the Executor consumes.
package plan

const (
	SchemaVersion = "0.1"

	// ExecutionRiskThreshold is the maximum risk_score a plan may carry and
	// still be eligible for execution. The Plan Validator rejects anything
	// higher; it does not clamp.
	ExecutionRiskThreshold = 5

	// MaxTimeoutSeconds bounds any single command's timeout_seconds.
	MaxTimeoutSeconds = 30

	CommandTypeShell  = "shell"
	CommandTypePython = "python"
)

// Command is one step of a Plan.
type Command struct {
	Type           string `json:"type"`
	Command        string `json:"command"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// Plan is the normalized, on-disk artifact the Plan Generator writes and the
// Executor reads. Fields mirror the canonical plan schema verbatim; once
// persisted, a Plan is immutable and read-only for the Executor.
type Plan struct {
	SchemaVersion string    `json:"schema_version"`
	ID            string    `json:"id"`
	CreatedAt     string    `json:"created_at"`
	RiskScore     int       `json:"risk_score"`
	Source        string    `json:"source"`
	Commands      []Command `json:"commands"`
}
