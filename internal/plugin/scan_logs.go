package plugin

// ScanLogs tails and greps the runtime log. Read-only, low risk.
type ScanLogs struct{}

func (ScanLogs) ID() string                { return "scan_logs" }
func (ScanLogs) Version() string           { return "1.1.0" }
func (ScanLogs) RequiredEnvVars() []string { return nil }

func (ScanLogs) Run(intent map[string]interface{}) (RunResult, error) {
	return RunResult{
		Success: true,
		Commands: []Command{
			{Argv: []string{"tail", "-n", "50", "logs/curudroid.log"}, Description: "Read the last 50 lines of the main log"},
			{Argv: []string{"grep", "ERROR", "logs/curudroid.log"}, Description: "Filter logged errors"},
			{Argv: []string{"grep", "WARN", "logs/curudroid.log"}, Description: "Filter logged warnings"},
		},
		RiskEstimate: 0.2,
		Assumptions: []string{
			"logs/curudroid.log exists",
			"Read-only execution",
		},
	}, nil
}
