package executor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/curudroid/curudroid/internal/ledger"
	"github.com/curudroid/curudroid/internal/observability"
	"github.com/curudroid/curudroid/internal/plan"
	"github.com/curudroid/curudroid/internal/policy"
	"github.com/curudroid/curudroid/internal/runner"
)

// Executor orchestrates the validate -> fingerprint -> gate -> run ->
// report -> ledger sequence for a single plan file.
type Executor struct {
	PolicyPath   string
	ApprovalsDir string
	ResultsDir   string
	Ledger       *ledger.Ledger
	Store        *observability.Store
}

// New constructs an Executor.
func New(policyPath, approvalsDir, resultsDir string, led *ledger.Ledger, store *observability.Store) *Executor {
	return &Executor{
		PolicyPath:   policyPath,
		ApprovalsDir: approvalsDir,
		ResultsDir:   resultsDir,
		Ledger:       led,
		Store:        store,
	}
}

// Execute validates and runs planPath. apply selects apply mode over
// dry-run. State is explicit: the sequence aborts at the first failure and
// every abort is both logged and counted.
func (e *Executor) Execute(ctx context.Context, planPath string, apply bool) (*ledger.ExecutionReport, error) {
	p, err := plan.ValidateFile(planPath)
	if err != nil {
		e.blocked("", fmt.Sprintf("Validation failed: %v", err), "executor_validation_failed")
		return nil, &PlanExecutionError{Reason: fmt.Sprintf("Validation failed: %v", err)}
	}

	planHash, err := fileSHA256(planPath)
	if err != nil {
		e.blocked(p.ID, fmt.Sprintf("hashing plan: %v", err), "executor_failed")
		return nil, &PlanExecutionError{Reason: fmt.Sprintf("hashing plan: %v", err)}
	}

	policyHash, err := policy.SHA256(e.PolicyPath)
	if err != nil {
		e.blocked(p.ID, fmt.Sprintf("hashing policy: %v", err), "executor_failed")
		return nil, &PlanExecutionError{Reason: fmt.Sprintf("hashing policy: %v", err)}
	}
	pol, err := policy.Load(e.PolicyPath)
	if err != nil {
		e.blocked(p.ID, fmt.Sprintf("loading policy: %v", err), "executor_failed")
		return nil, &PlanExecutionError{Reason: fmt.Sprintf("loading policy: %v", err)}
	}
	policyVersion := strconv.Itoa(pol.Version)

	previous, err := loadPreviousReport(e.ResultsDir, p.ID)
	if err != nil {
		e.blocked(p.ID, fmt.Sprintf("loading previous report: %v", err), "executor_failed")
		return nil, &PlanExecutionError{Reason: fmt.Sprintf("loading previous report: %v", err)}
	}

	if apply {
		if err := e.gateApply(p.ID, previous, policyHash, policyVersion); err != nil {
			return nil, err
		}
	}

	results := make([]ledger.CommandResult, 0, len(p.Commands))
	for _, cmd := range p.Commands {
		if !pol.IsAllowed(cmd.Command) {
			reason := fmt.Sprintf("Command not allowed: %s", cmd.Command)
			e.blocked(p.ID, reason, "executor_blocked")
			return nil, &PlanExecutionError{Reason: fmt.Sprintf("Command not allowed by policy: %s", cmd.Command)}
		}

		if !apply {
			results = append(results, ledger.CommandResult{
				Command:        cmd.Command,
				DryRun:         true,
				TimeoutSeconds: cmd.TimeoutSeconds,
			})
			continue
		}

		res, err := runner.Run(ctx, cmd.Command, time.Duration(cmd.TimeoutSeconds)*time.Second)
		if err != nil {
			reason := fmt.Sprintf("Command execution error: %v", err)
			e.blocked(p.ID, reason, "executor_failed")
			return nil, &PlanExecutionError{Reason: fmt.Sprintf("Execution error: %v", err)}
		}
		started, finished := res.StartedAt, res.FinishedAt
		results = append(results, ledger.CommandResult{
			Command:        res.Command,
			DryRun:         false,
			TimeoutSeconds: cmd.TimeoutSeconds,
			StartedAt:      &started,
			FinishedAt:     &finished,
			ReturnCode:     res.ReturnCode,
			Stdout:         res.Stdout,
			Stderr:         res.Stderr,
			Timeout:        res.Timeout,
		})
	}

	mode := ledger.ModeDryRun
	if apply {
		mode = ledger.ModeApply
	}
	report := ledger.ExecutionReport{
		PlanID:        p.ID,
		SchemaVersion: p.SchemaVersion,
		PlanSHA256:    planHash,
		PolicySHA256:  policyHash,
		PolicyVersion: policyVersion,
		ExecutedAt:    time.Now().UTC(),
		RiskScore:     p.RiskScore,
		Source:        p.Source,
		Mode:          mode,
		Results:       results,
	}

	if err := saveReport(e.ResultsDir, report); err != nil {
		e.blocked(p.ID, fmt.Sprintf("saving execution report: %v", err), "executor_failed")
		return nil, &PlanExecutionError{Reason: fmt.Sprintf("saving execution report: %v", err)}
	}
	if e.Ledger != nil {
		if _, err := e.Ledger.Append(report); err != nil {
			e.blocked(p.ID, fmt.Sprintf("appending ledger: %v", err), "executor_failed")
			return nil, &PlanExecutionError{Reason: fmt.Sprintf("appending ledger: %v", err)}
		}
	}

	if e.Store != nil {
		e.Store.LogDecision(observability.DecisionEvent{
			Type:    observability.DecisionExecutor,
			Allowed: true,
			Reason:  "Execution completed",
			PlanID:  p.ID,
			Metadata: map[string]any{
				"mode":       mode,
				"risk_score": p.RiskScore,
			},
		})
		e.Store.IncrementMetric("executor_executed", 1)
	}

	return &report, nil
}

// gateApply enforces the apply-mode preconditions: a prior dry-run report,
// an unchanged (or properly version-bumped) policy, and an approval
// sentinel file.
func (e *Executor) gateApply(planID string, previous *ledger.ExecutionReport, policyHash, policyVersion string) error {
	if previous == nil {
		reason := "Apply blocked: no prior dry-run report found."
		e.blocked(planID, reason, "executor_blocked")
		return &PlanExecutionError{Reason: reason}
	}

	if previous.PolicySHA256 != policyHash {
		var reason string
		if previous.PolicyVersion == policyVersion {
			reason = "Apply blocked: policy changed without version bump."
		} else {
			reason = "Apply blocked: allowlist policy changed since last dry-run bump."
		}
		e.blocked(planID, reason, "executor_blocked")
		return &PlanExecutionError{Reason: reason}
	}

	if !isApproved(e.ApprovalsDir, planID) {
		reason := "No approval file found."
		e.blocked(planID, reason, "executor_blocked")
		return &PlanExecutionError{Reason: reason}
	}

	return nil
}

func (e *Executor) blocked(planID, reason, metric string) {
	if e.Store == nil {
		return
	}
	e.Store.LogDecision(observability.DecisionEvent{
		Type:    observability.DecisionExecutor,
		Allowed: false,
		Reason:  reason,
		PlanID:  planID,
	})
	e.Store.IncrementMetric(metric, 1)
}
