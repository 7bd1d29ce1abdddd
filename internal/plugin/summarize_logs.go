package plugin

// SummarizeLogs collects recent log context and proposes an AI-assisted
// summary. Its second command invokes a subprocess directly; it is expected
// to be rejected by the Policy allowlist since "python" is never enrolled
// there, which keeps summarization fully advisory until reviewed.
type SummarizeLogs struct{}

func (SummarizeLogs) ID() string                { return "summarize_logs" }
func (SummarizeLogs) Version() string           { return "1.1.0" }
func (SummarizeLogs) RequiredEnvVars() []string { return []string{"AI_PROVIDER", "AI_API_KEY"} }

func (SummarizeLogs) Run(intent map[string]interface{}) (RunResult, error) {
	return RunResult{
		Success: true,
		Commands: []Command{
			{Argv: []string{"tail", "-n", "100", "logs/curudroid.log"}, Description: "Collect recent context for summarization"},
			{Argv: []string{"python", "-m", "curudroid.curupira_adapter"}, Description: "Generate an assisted summary (dry-run)"},
		},
		RiskEstimate: 0.45,
		Assumptions: []string{
			"AI provider and API key are configured",
			"The summary will be reviewed manually before any action",
		},
	}, nil
}
