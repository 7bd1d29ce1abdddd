package executor

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/curudroid/curudroid/internal/ledger"
)

func resultPath(resultsDir, planID string) string {
	return filepath.Join(resultsDir, planID+"_result.json")
}

// loadPreviousReport returns the prior execution report for planID, or nil
// if none was ever recorded.
func loadPreviousReport(resultsDir, planID string) (*ledger.ExecutionReport, error) {
	data, err := os.ReadFile(resultPath(resultsDir, planID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var report ledger.ExecutionReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// saveReport persists report to its canonical results path.
func saveReport(resultsDir string, report ledger.ExecutionReport) error {
	if err := os.MkdirAll(resultsDir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(resultPath(resultsDir, report.PlanID), data, 0o644)
}

func approvalPath(approvalsDir, planID string) string {
	return filepath.Join(approvalsDir, planID+".approved")
}

func isApproved(approvalsDir, planID string) bool {
	_, err := os.Stat(approvalPath(approvalsDir, planID))
	return err == nil
}
