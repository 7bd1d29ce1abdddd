package evaluator

import "github.com/curudroid/curudroid/internal/observability"

// Curupira is the second, independent risk gate. It tightens the configured
// threshold by a fixed factor and never reads or mutates Supervisor state.
type Curupira struct {
	Threshold float64
	Store     *observability.Store
}

// curupiraTighten is the factor applied to the configured threshold to
// derive Curupira's effective, stricter threshold.
const curupiraTighten = 0.8

// NewCurupira constructs a Curupira evaluating against threshold (0..1,
// before tightening) and logging through store.
func NewCurupira(threshold float64, store *observability.Store) *Curupira {
	return &Curupira{Threshold: threshold, Store: store}
}

// Evaluate decides whether planID, carrying riskScore, clears Curupira's
// effective (tightened) threshold. Same numeric and logging contract as
// Supervisor.Evaluate, but entirely independent of it.
func (c *Curupira) Evaluate(planID string, riskScore interface{}) Decision {
	var decision Decision
	effectiveThreshold := c.Threshold * curupiraTighten

	fraction, ok := riskFraction(riskScore)
	switch {
	case riskScore == nil:
		decision = Decision{Allowed: false, Reason: "missing risk_score field", MaxMode: MaxModeNone}
	case !ok:
		decision = Decision{Allowed: false, Reason: "invalid risk_score format", MaxMode: MaxModeNone}
	case fraction > effectiveThreshold:
		decision = Decision{Allowed: false, Reason: "curupira flagged elevated risk", MaxMode: MaxModeNone}
	default:
		decision = Decision{Allowed: true, Reason: "curupira cleared plan", MaxMode: MaxModeDryRun}
	}

	metric := "curupira_blocked"
	if decision.Allowed {
		metric = "curupira_allowed"
	}
	if c.Store != nil {
		c.Store.IncrementMetric(metric, 1)
		c.Store.LogDecision(observability.DecisionEvent{
			Type:    observability.DecisionCurupira,
			Allowed: decision.Allowed,
			Reason:  decision.Reason,
			PlanID:  planID,
		})
	}
	return decision
}
