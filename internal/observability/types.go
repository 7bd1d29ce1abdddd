package observability

import "time"

// DecisionEvent is a single record in the decision log. Every evaluator
// (Supervisor, Curupira, the Executor, Command Policy, the AI Advisor, and
// Reactive Autonomy) writes exactly one of these per decision.
type DecisionEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	Type      string         `json:"type"` // "supervisor", "curupira", "executor", "policy", "advisor", "autonomy", "anomaly"
	Allowed   bool           `json:"allowed"`
	Reason    string         `json:"reason"`
	PlanID    string         `json:"plan_id,omitempty"`
	Command   string         `json:"command,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

const (
	DecisionSupervisor = "supervisor"
	DecisionCurupira   = "curupira"
	DecisionExecutor   = "executor"
	DecisionPolicy     = "policy"
	DecisionAdvisor    = "advisor"
	DecisionAutonomy   = "autonomy"
	DecisionAnomaly    = "anomaly"
)
