package evaluator

import "github.com/curudroid/curudroid/internal/observability"

// Supervisor is the first-layer risk gate: it allows dry-run execution of
// plans whose normalized risk falls at or below a configured threshold.
type Supervisor struct {
	Threshold float64
	Store     *observability.Store
}

// NewSupervisor constructs a Supervisor evaluating against threshold
// (0..1) and logging through store.
func NewSupervisor(threshold float64, store *observability.Store) *Supervisor {
	return &Supervisor{Threshold: threshold, Store: store}
}

// Evaluate decides whether planID, carrying riskScore (an int, float64,
// json.Number, or nil/non-numeric), clears the Supervisor's threshold.
// Exactly one decision log entry and one metric increment are emitted.
func (s *Supervisor) Evaluate(planID string, riskScore interface{}) Decision {
	var decision Decision

	fraction, ok := riskFraction(riskScore)
	switch {
	case riskScore == nil:
		decision = Decision{Allowed: false, Reason: "missing risk_score field", MaxMode: MaxModeNone}
	case !ok:
		decision = Decision{Allowed: false, Reason: "invalid risk_score format", MaxMode: MaxModeNone}
	case fraction > s.Threshold:
		decision = Decision{Allowed: false, Reason: "risk above autonomy threshold", MaxMode: MaxModeNone}
	default:
		decision = Decision{Allowed: true, Reason: "risk within autonomy threshold", MaxMode: MaxModeDryRun}
	}

	metric := "supervisor_blocked"
	if decision.Allowed {
		metric = "supervisor_allowed"
	}
	if s.Store != nil {
		s.Store.IncrementMetric(metric, 1)
		s.Store.LogDecision(observability.DecisionEvent{
			Type:    observability.DecisionSupervisor,
			Allowed: decision.Allowed,
			Reason:  decision.Reason,
			PlanID:  planID,
		})
	}
	return decision
}
