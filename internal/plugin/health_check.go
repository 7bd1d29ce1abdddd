package plugin

// HealthCheck runs a fixed, read-only diagnostic command set.
type HealthCheck struct{}

func (HealthCheck) ID() string                { return "health_check" }
func (HealthCheck) Version() string           { return "1.1.0" }
func (HealthCheck) RequiredEnvVars() []string { return nil }

func (HealthCheck) Run(intent map[string]interface{}) (RunResult, error) {
	return RunResult{
		Success: true,
		Commands: []Command{
			{Argv: []string{"tail", "-n", "10", "logs/boot.log"}, Description: "Inspect recent boot events"},
			{Argv: []string{"grep", "Heartbeat", "logs/curudroid.log"}, Description: "Check process heartbeats"},
			{Argv: []string{"grep", "-E", "ERROR|WARN", "logs/curudroid.log"}, Description: "Inspect critical errors and warnings"},
		},
		RiskEstimate: 0.3,
		Assumptions: []string{
			"Local logs are available",
			"No command is executed automatically",
		},
	}, nil
}
