// Package plangen implements the Plan Generator: it turns the most recently
// approved intent into a normalized, two-file plan artifact (a human
// readable ".plan" and a structured ".json"), consulting Curupira when the
// plugin's own risk estimate warrants it.
package plangen

// Intent is a single approved request, one per file in the approved
// directory.
type Intent struct {
	Intent     string  `json:"intent"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
	CreatedAt  string  `json:"created_at"`
}

// Command is a normalized, argv-shaped command proposed by a plugin.
type Command struct {
	Argv        []string `json:"argv"`
	Description string   `json:"description"`
}

// GeneratedPlan is the structured ".json" artifact the Plan Generator
// writes. It carries a float risk_estimate, distinct from the canonical
// Plan's integer risk_score used downstream by the Plan Validator and
// Executor; ToPlan converts between the two.
type GeneratedPlan struct {
	PlanID       string    `json:"plan_id"`
	Version      int       `json:"version"`
	IntentPath   string    `json:"intent_path"`
	RiskEstimate float64   `json:"risk_estimate"`
	Commands     []Command `json:"commands"`
	Assumptions  []string  `json:"assumptions"`
	Status       string    `json:"status,omitempty"` // "REJECTED" when no plugin is registered
}
