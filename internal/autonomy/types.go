// Package autonomy implements Reactive Autonomy: a JSON-backed priority
// queue of pending intents, drained one at a time under both the
// Supervisor and Curupira gates, producing dry-run-only outcomes.
package autonomy

const (
	StatusPending           = "pending"
	StatusProcessing        = "processing"
	StatusApproved          = "approved"
	StatusRejected          = "rejected"
	StatusBlocked           = "blocked"
	StatusApprovedForDryRun = "approved_for_dry_run"
	StatusError             = "error"
)

// Intent is one entry of the reactive intent queue.
type Intent struct {
	ID       string `json:"id"`
	IntentID string `json:"intent_id,omitempty"`
	PlanPath string `json:"plan_path"`
	Priority int    `json:"priority"`
	Status   string `json:"status"`
}

// Result is what ProcessNext returns to its caller.
type Result struct {
	Status   string
	Reason   string
	PlanPath string
	PlanID   string
}
