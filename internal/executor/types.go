// Package executor orchestrates plan execution: validate, fingerprint,
// apply-mode gating, per-command policy recheck, dry-run-or-apply, and
// ledger append. It is the only package that invokes the Safe Runner on a
// validated plan.
package executor

import "fmt"

// PlanExecutionError is the single error type Execute ever returns; it
// wraps whatever step failed first.
type PlanExecutionError struct {
	Reason string
}

func (e *PlanExecutionError) Error() string {
	return fmt.Sprintf("plan execution failed: %s", e.Reason)
}
