package autonomy

import (
	"context"
	"fmt"

	"github.com/curudroid/curudroid/internal/advisor"
	"github.com/curudroid/curudroid/internal/evaluator"
	"github.com/curudroid/curudroid/internal/observability"
	"github.com/curudroid/curudroid/internal/plan"
)

// anomalyRiskCeiling is the risk_score above which an allowed plan is
// flagged as anomalous, independent of whatever threshold actually gated
// it.
const anomalyRiskCeiling = 90

// Autonomy drains the reactive intent queue, one intent per ProcessNext
// call, under both the Supervisor and Curupira gates. Supervisor and
// Curupira are both optional: a nil evaluator is treated as disabled and
// never blocks.
type Autonomy struct {
	Queue      *Queue
	Supervisor *evaluator.Supervisor
	Curupira   *evaluator.Curupira
	Advisor    *advisor.Advisor
	Store      *observability.Store
}

// New constructs an Autonomy orchestrator.
func New(queue *Queue, supervisor *evaluator.Supervisor, curupira *evaluator.Curupira, adv *advisor.Advisor, store *observability.Store) *Autonomy {
	return &Autonomy{Queue: queue, Supervisor: supervisor, Curupira: curupira, Advisor: adv, Store: store}
}

type gateVote struct {
	component string
	allowed   bool
}

// ProcessNext drains one pending intent in priority order, advancing its
// state through processing -> {blocked, approved_for_dry_run, error}. Any
// single gate block wins; both gates allowing marks the intent
// approved_for_dry_run, leaving actual dry-run execution to the caller.
func (a *Autonomy) ProcessNext(ctx context.Context) (Result, error) {
	intent, ok, err := a.Queue.Dequeue()
	if err != nil {
		return Result{}, err
	}
	if !ok {
		a.increment("reactive_empty")
		a.log(observability.DecisionEvent{Type: observability.DecisionAutonomy, Allowed: false, Reason: "queue_empty"})
		return Result{Status: "empty"}, nil
	}

	if intent.PlanPath == "" {
		_ = a.Queue.SetStatus(intent.ID, StatusError)
		a.increment("reactive_invalid_intent")
		a.log(observability.DecisionEvent{Type: observability.DecisionAutonomy, Allowed: false, Reason: "Missing plan_path"})
		return Result{Status: "invalid_intent"}, nil
	}

	p, err := plan.ValidateFile(intent.PlanPath)
	if err != nil {
		_ = a.Queue.SetStatus(intent.ID, StatusError)
		a.increment("reactive_invalid_plan")
		a.log(observability.DecisionEvent{
			Type: observability.DecisionAutonomy, Allowed: false,
			Reason: fmt.Sprintf("Invalid plan: %v", err),
			Metadata: map[string]any{"plan_path": intent.PlanPath},
		})
		return Result{Status: "error", Reason: fmt.Sprintf("Invalid plan: %v", err)}, nil
	}
	a.increment("intents_processed")

	if a.Advisor != nil {
		ctxMap := advisor.BuildContext(p, a.Store, map[string]interface{}{
			"entrypoint": "autonomy_reactive",
			"intent_id":  intent.IntentID,
			"plan_path":  intent.PlanPath,
		})
		a.Advisor.Analyze(ctx, p, ctxMap)
	}

	var votes []gateVote

	if a.Supervisor != nil {
		decision := a.Supervisor.Evaluate(p.ID, p.RiskScore)
		votes = append(votes, gateVote{component: "supervisor", allowed: decision.Allowed})
		if !decision.Allowed {
			return a.block(intent, p, votes, "Supervisor: "+decision.Reason)
		}
	}

	if a.Curupira != nil {
		decision := a.Curupira.Evaluate(p.ID, p.RiskScore)
		votes = append(votes, gateVote{component: "curupira", allowed: decision.Allowed})
		if !decision.Allowed {
			return a.block(intent, p, votes, "Curupira: "+decision.Reason)
		}
	}

	_ = a.Queue.SetStatus(intent.ID, StatusApprovedForDryRun)
	a.increment("intents_dry_run")
	a.increment("reactive_approved")
	a.log(observability.DecisionEvent{
		Type: observability.DecisionAutonomy, Allowed: true, Reason: "Approved for dry-run", PlanID: p.ID,
		Metadata: map[string]any{"event": "approved_for_dry_run", "plan_path": intent.PlanPath, "risk_score": p.RiskScore},
	})
	a.detectAnomaly(p, votes)

	return Result{Status: "ready_for_dry_run", PlanPath: intent.PlanPath, PlanID: p.ID}, nil
}

func (a *Autonomy) block(intent Intent, p *plan.Plan, votes []gateVote, reason string) (Result, error) {
	_ = a.Queue.SetStatus(intent.ID, StatusBlocked)
	a.increment("intents_blocked")
	a.increment("reactive_blocked")
	a.log(observability.DecisionEvent{
		Type: observability.DecisionAutonomy, Allowed: false, Reason: reason, PlanID: p.ID,
		Metadata: map[string]any{"event": "blocked", "plan_path": intent.PlanPath, "risk_score": p.RiskScore},
	})
	a.detectAnomaly(p, votes)
	return Result{Status: "blocked", Reason: reason}, nil
}

// detectAnomaly flags plans whose risk_score exceeds the anomaly ceiling
// but were nonetheless allowed by at least one gate. It never alters the
// decision that already happened; it only emits an additional metric and
// log entry.
func (a *Autonomy) detectAnomaly(p *plan.Plan, votes []gateVote) {
	if p.RiskScore <= anomalyRiskCeiling {
		return
	}
	allowed := false
	for _, v := range votes {
		if v.allowed {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}
	a.log(observability.DecisionEvent{
		Type: observability.DecisionAnomaly, Allowed: true, PlanID: p.ID,
		Metadata: map[string]any{"type": "high_risk_allowed"},
	})
	a.increment("anomaly_detected")
}

func (a *Autonomy) increment(metric string) {
	if a.Store != nil {
		a.Store.IncrementMetric(metric, 1)
	}
}

func (a *Autonomy) log(event observability.DecisionEvent) {
	if a.Store != nil {
		a.Store.LogDecision(event)
	}
}
