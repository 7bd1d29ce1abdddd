package ledger

import "time"

// CommandResult is the outcome of running (or dry-running) a single command
// within a plan.
type CommandResult struct {
	Command        string     `json:"command"`
	DryRun         bool       `json:"dry_run"`
	TimeoutSeconds int        `json:"timeout_seconds"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	ReturnCode     *int       `json:"return_code"`
	Stdout         string     `json:"stdout,omitempty"`
	Stderr         string     `json:"stderr,omitempty"`
	Timeout        bool       `json:"timeout"`
}

// ExecutionReport is produced by the Executor after running (or dry-running)
// every command of a validated plan, and is the unit appended to the Ledger.
type ExecutionReport struct {
	PlanID        string          `json:"plan_id"`
	SchemaVersion string          `json:"schema_version"`
	PlanSHA256    string          `json:"plan_sha256"`
	PolicySHA256  string          `json:"policy_sha256"`
	PolicyVersion string          `json:"policy_version"`
	ExecutedAt    time.Time       `json:"executed_at"`
	RiskScore     int             `json:"risk_score"`
	Source        string          `json:"source"`
	Mode          string          `json:"mode"` // "dry-run" or "apply"
	Results       []CommandResult `json:"results"`
}

const (
	ModeDryRun = "dry-run"
	ModeApply  = "apply"
)

// entryCore is the hashed core of a normal ledger entry: the fields that
// participate in entry_hash. entry_hash is computed over the canonical
// (sorted-key) JSON encoding of this set of fields, not over Go's
// declaration-order struct encoding -- see canonicalJSON.
type entryCore struct {
	Timestamp     time.Time `json:"timestamp"`
	PlanID        string    `json:"plan_id"`
	Mode          string    `json:"mode"`
	PlanSHA256    string    `json:"plan_sha256"`
	PolicySHA256  string    `json:"policy_sha256"`
	PolicyVersion string    `json:"policy_version"`
	RiskScore     int       `json:"risk_score"`
	PreviousHash  *string   `json:"previous_hash"`
}

// Entry is a single normal line of the ledger: the hashed core plus its own
// entry_hash. previous_hash is nil only for the very first entry in a chain.
type Entry struct {
	entryCore
	EntryHash string `json:"entry_hash"`
}

// newEntryCore builds the unhashed core of a ledger entry from an execution
// report and the hash of the entry that precedes it (nil for the first
// entry in a chain).
func newEntryCore(report ExecutionReport, previousHash *string, timestamp time.Time) entryCore {
	return entryCore{
		Timestamp:     timestamp,
		PlanID:        report.PlanID,
		Mode:          report.Mode,
		PlanSHA256:    report.PlanSHA256,
		PolicySHA256:  report.PolicySHA256,
		PolicyVersion: report.PolicyVersion,
		RiskScore:     report.RiskScore,
		PreviousHash:  previousHash,
	}
}
