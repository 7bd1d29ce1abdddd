package plan

import (
	"encoding/json"
	"os"
	"strconv"
	"time"
)

// Load reads and JSON-decodes the plan file at path. It does not validate
// semantic constraints; call Validate on the result.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &MissingError{Path: path}
		}
		return nil, err
	}

	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, &MalformedError{Path: path, Reason: err.Error()}
	}
	return &p, nil
}

// Validate enforces schema_version, the execution risk ceiling, an ISO-8601
// created_at, non-empty commands, and per-command constraints. Success
// returns nil and leaves plan untouched -- the plan is returned verbatim to
// the caller, never mutated.
func Validate(p *Plan) error {
	if p.SchemaVersion != SchemaVersion {
		return &ValidationError{Field: "schema_version", Reason: "unsupported schema_version"}
	}
	if p.ID == "" {
		return &ValidationError{Field: "id", Reason: "missing required field"}
	}
	if p.CreatedAt == "" {
		return &ValidationError{Field: "created_at", Reason: "missing required field"}
	}
	if !validTimestamp(p.CreatedAt) {
		return &ValidationError{Field: "created_at", Reason: "must be valid ISO 8601 timestamp"}
	}
	if p.Source == "" {
		return &ValidationError{Field: "source", Reason: "missing required field"}
	}
	if p.RiskScore > ExecutionRiskThreshold {
		return &ValidationError{Field: "risk_score", Reason: "risk_score exceeds execution threshold"}
	}
	if len(p.Commands) == 0 {
		return &ValidationError{Field: "commands", Reason: "commands must be non-empty list"}
	}

	for i, cmd := range p.Commands {
		if err := validateCommand(cmd); err != nil {
			ve := err.(*ValidationError)
			ve.Field = commandField(i, ve.Field)
			return ve
		}
	}
	return nil
}

func validateCommand(c Command) error {
	if c.Type != CommandTypeShell && c.Type != CommandTypePython {
		return &ValidationError{Field: "type", Reason: "unsupported command type"}
	}
	if c.TimeoutSeconds > MaxTimeoutSeconds {
		return &ValidationError{Field: "timeout_seconds", Reason: "timeout_seconds exceeds maximum allowed"}
	}
	if c.TimeoutSeconds <= 0 {
		return &ValidationError{Field: "timeout_seconds", Reason: "timeout_seconds must be positive"}
	}
	if c.Command == "" {
		return &ValidationError{Field: "command", Reason: "missing required field"}
	}
	if pattern := checkForbidden(c.Command); pattern != "" {
		return &ValidationError{Field: "command", Reason: "forbidden pattern detected: " + pattern}
	}
	return nil
}

func commandField(index int, field string) string {
	return "commands[" + strconv.Itoa(index) + "]." + field
}

func validTimestamp(s string) bool {
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano} {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// ValidateFile loads the plan at path and validates it, returning the parsed
// plan verbatim on success -- matching the original runtime's validate_plan
// entry point that combines load and structural validation.
func ValidateFile(path string) (*Plan, error) {
	p, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}
