package plangen

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/curudroid/curudroid/internal/curupira"
	"github.com/curudroid/curudroid/internal/plugin"
)

func writeIntent(t *testing.T, dir, name string, intent Intent) {
	t.Helper()
	data, err := json.Marshal(intent)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestLoadLatestIntentPicksLexicographicallyLast(t *testing.T) {
	dir := t.TempDir()
	writeIntent(t, dir, "20260101T000000_scan_logs.json", Intent{Intent: "scan_logs"})
	writeIntent(t, dir, "20260201T000000_health_check.json", Intent{Intent: "health_check"})

	intent, name, err := LoadLatestIntent(dir)
	if err != nil {
		t.Fatalf("LoadLatestIntent: %v", err)
	}
	if name != "20260201T000000_health_check.json" || intent.Intent != "health_check" {
		t.Errorf("got (%+v, %q)", intent, name)
	}
}

func TestLoadLatestIntentErrorsOnEmptyDir(t *testing.T) {
	if _, _, err := LoadLatestIntent(t.TempDir()); err == nil {
		t.Error("expected error for empty approved dir")
	}
}

func TestGenerateDeniesUnregisteredIntent(t *testing.T) {
	approvedDir := t.TempDir()
	plansDir := t.TempDir()
	writeIntent(t, approvedDir, "20260101T000000_unknown_intent.json", Intent{Intent: "unknown_intent"})

	registry := plugin.NewRegistry(plugin.ScanLogs{})
	cfg := Config{ApprovedDir: approvedDir, PlansDir: plansDir, CurupiraThreshold: 0.5}
	res, err := Generate(context.Background(), cfg, registry, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Plan.Status != "REJECTED" || len(res.Plan.Commands) != 0 {
		t.Errorf("Plan = %+v, want REJECTED with no commands", res.Plan)
	}
	if _, err := os.Stat(res.PlanPath); err != nil {
		t.Errorf(".plan file missing: %v", err)
	}
	if _, err := os.Stat(res.JSONPath); err != nil {
		t.Errorf(".json file missing: %v", err)
	}
}

func TestGenerateNormalizesScanLogs(t *testing.T) {
	approvedDir := t.TempDir()
	plansDir := t.TempDir()
	writeIntent(t, approvedDir, "20260101T000000_scan_logs.json", Intent{Intent: "scan_logs"})

	registry := plugin.NewRegistry(plugin.ScanLogs{})
	cfg := Config{ApprovedDir: approvedDir, PlansDir: plansDir, CurupiraThreshold: 0.5}
	res, err := Generate(context.Background(), cfg, registry, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Plan.Status == "REJECTED" {
		t.Fatal("scan_logs should not be rejected")
	}
	if len(res.Plan.Commands) != 3 {
		t.Errorf("Commands = %d, want 3", len(res.Plan.Commands))
	}
	if res.Plan.RiskEstimate != 0.2 {
		t.Errorf("RiskEstimate = %v, want 0.2", res.Plan.RiskEstimate)
	}
}

func TestGenerateConsultsCurupiraAboveThreshold(t *testing.T) {
	approvedDir := t.TempDir()
	plansDir := t.TempDir()
	writeIntent(t, approvedDir, "20260101T000000_summarize_logs.json", Intent{Intent: "summarize_logs"})
	os.Setenv("AI_PROVIDER", "none")
	os.Setenv("AI_API_KEY", "x")
	defer os.Unsetenv("AI_PROVIDER")
	defer os.Unsetenv("AI_API_KEY")

	registry := plugin.NewRegistry(plugin.SummarizeLogs{})
	cfg := Config{
		ApprovedDir:       approvedDir,
		PlansDir:          plansDir,
		CurupiraThreshold: 0.3,
		Curupira:          curupira.Config{Transport: curupira.TransportSubprocess, SubprocessPath: ""},
	}
	res, err := Generate(context.Background(), cfg, registry, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Plan.RiskEstimate < cfg.CurupiraThreshold {
		t.Fatalf("test setup invalid: risk_estimate %v below threshold", res.Plan.RiskEstimate)
	}
	planText, err := os.ReadFile(res.PlanPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(planText), "Curupira opinion") {
		t.Error(".plan file should record a Curupira consultation")
	}
}

func TestGenerateDropsUnsafeCommandAsWarning(t *testing.T) {
	approvedDir := t.TempDir()
	plansDir := t.TempDir()
	writeIntent(t, approvedDir, "20260101T000000_danger.json", Intent{Intent: "danger"})

	registry := plugin.NewRegistry(dangerPlugin{})
	cfg := Config{ApprovedDir: approvedDir, PlansDir: plansDir, CurupiraThreshold: 0.9}
	res, err := Generate(context.Background(), cfg, registry, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(res.Plan.Commands) != 1 {
		t.Errorf("Commands = %d, want 1 (unsafe command dropped)", len(res.Plan.Commands))
	}
	found := false
	for _, a := range res.Plan.Assumptions {
		if a == "command 1 ignored: invalid format or shell metacharacter" {
			found = true
		}
	}
	if !found {
		t.Errorf("Assumptions = %v, missing drop warning", res.Plan.Assumptions)
	}
}

func TestToPlanConvertsRiskEstimateToRiskScore(t *testing.T) {
	gp := &GeneratedPlan{
		PlanID:       "20260101T000000_scan_logs.json",
		RiskEstimate: 0.45,
		Commands:     []Command{{Argv: []string{"tail", "-n", "50", "logs/curudroid.log"}, Description: "tail"}},
	}
	p := ToPlan(gp, "scan_logs", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if p.RiskScore != 5 {
		t.Errorf("RiskScore = %d, want 5 (round(0.45*10))", p.RiskScore)
	}
	if p.Commands[0].Command != "tail -n 50 logs/curudroid.log" {
		t.Errorf("Command = %q", p.Commands[0].Command)
	}
	if p.ID != "20260101T000000_scan_logs" {
		t.Errorf("ID = %q", p.ID)
	}
}

type dangerPlugin struct{}

func (dangerPlugin) ID() string                { return "danger" }
func (dangerPlugin) Version() string           { return "1.0.0" }
func (dangerPlugin) RequiredEnvVars() []string { return nil }
func (dangerPlugin) Run(map[string]interface{}) (plugin.RunResult, error) {
	return plugin.RunResult{
		Success: true,
		Commands: []plugin.Command{
			{Argv: []string{"tail", "-n", "10", "logs/curudroid.log"}, Description: "safe"},
			{Argv: []string{"rm", "-rf", "$(something)"}, Description: "unsafe"},
		},
		RiskEstimate: 0.1,
		Assumptions:  []string{"none"},
	}, nil
}
