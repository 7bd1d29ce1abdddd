package plangen

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/curudroid/curudroid/internal/curupira"
	"github.com/curudroid/curudroid/internal/plugin"
)

// Config parameterizes one Generate call.
type Config struct {
	ApprovedDir string
	PlansDir    string

	// CurupiraThreshold gates whether Curupira is consulted: only when the
	// plugin's risk_estimate is at or above this value.
	CurupiraThreshold float64
	Curupira          curupira.Config
}

// Result is everything one Generate call produced: the artifact and the
// paths it wrote.
type Result struct {
	Plan     GeneratedPlan
	PlanPath string
	JSONPath string
}

// Generate selects the latest approved intent, resolves its plugin, and
// writes the two-file plan artifact. now is passed in rather than read from
// time.Now to keep the function deterministic for callers that need it.
func Generate(ctx context.Context, cfg Config, registry *plugin.Registry, now time.Time) (*Result, error) {
	intent, intentFile, err := LoadLatestIntent(cfg.ApprovedDir)
	if err != nil {
		return nil, err
	}

	baseName := fmt.Sprintf("%s_%s", now.UTC().Format("20060102T150405"), intent.Intent)
	intentPath := filepath.ToSlash(filepath.Join(cfg.ApprovedDir, intentFile))

	p, ok := registry.Lookup(intent.Intent)
	if !ok {
		return writeRejected(cfg.PlansDir, baseName, intentPath, now, intentFile, intent.Intent)
	}

	raw, err := p.Run(map[string]interface{}{"intent": intent.Intent})
	if err != nil {
		return writeRejected(cfg.PlansDir, baseName, intentPath, now, intentFile, intent.Intent)
	}

	normalized, warnings := normalizeCommands(raw.Commands)
	assumptions := append(append([]string(nil), raw.Assumptions...), warnings...)
	success := raw.Success && len(warnings) == 0
	useCurupira := raw.RiskEstimate >= cfg.CurupiraThreshold

	lines := []string{
		"# Suggested plan (DRY-RUN)",
		fmt.Sprintf("# Generated at: %s", now.UTC().Format(time.RFC3339)),
		fmt.Sprintf("# Intent file: %s", intentFile),
		fmt.Sprintf("# Intent: %s", intent.Intent),
		"",
		fmt.Sprintf("# SUCCESS: %t", success),
		fmt.Sprintf("# ESTIMATED RISK: %v", raw.RiskEstimate),
		fmt.Sprintf("# CURUPIRA THRESHOLD: %v", cfg.CurupiraThreshold),
		fmt.Sprintf("# Curupira consulted: %t", useCurupira),
		"",
		"# Assumptions:",
	}
	for _, a := range assumptions {
		lines = append(lines, "# - "+a)
	}
	lines = append(lines, "", "# Suggested commands (argv):")
	for _, cmd := range normalized {
		lines = append(lines, "# "+cmd.Description)
		argv, _ := json.Marshal(cmd.Argv)
		lines = append(lines, string(argv))
	}

	if useCurupira {
		lines = append(lines, "", "# --- Curupira opinion ---")
		opinion := curupira.Consult(ctx, cfg.Curupira, map[string]interface{}{
			"intent":      intent.Intent,
			"risk":        raw.RiskEstimate,
			"commands":    normalized,
			"assumptions": assumptions,
		})
		opinionJSON, _ := json.MarshalIndent(opinion, "", "  ")
		lines = append(lines, string(opinionJSON))
	} else {
		lines = append(lines, "", "# Curupira not consulted (risk below threshold)")
	}

	generated := GeneratedPlan{
		PlanID:       baseName + ".json",
		Version:      1,
		IntentPath:   intentPath,
		RiskEstimate: raw.RiskEstimate,
		Commands:     normalized,
		Assumptions:  assumptions,
	}
	return writeArtifact(cfg.PlansDir, baseName, lines, generated)
}

func writeRejected(plansDir, baseName, intentPath string, now time.Time, intentFile, intentName string) (*Result, error) {
	lines := []string{
		"# Suggested plan (DRY-RUN)",
		fmt.Sprintf("# Generated at: %s", now.UTC().Format(time.RFC3339)),
		fmt.Sprintf("# Intent file: %s", intentFile),
		fmt.Sprintf("# Intent: %s", intentName),
		"# STATUS: REJECTED",
		"# Reason: No authorized plugin for this intent",
	}
	generated := GeneratedPlan{
		PlanID:      baseName + ".json",
		Version:     1,
		IntentPath:  intentPath,
		Commands:    []Command{},
		Assumptions: []string{"No authorized plugin for this intent"},
		Status:      "REJECTED",
	}
	return writeArtifact(plansDir, baseName, lines, generated)
}

func writeArtifact(plansDir, baseName string, lines []string, generated GeneratedPlan) (*Result, error) {
	if err := os.MkdirAll(plansDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating plans dir: %w", err)
	}

	planPath := filepath.Join(plansDir, baseName+".plan")
	if err := os.WriteFile(planPath, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", planPath, err)
	}

	jsonPath := filepath.Join(plansDir, baseName+".json")
	data, err := json.MarshalIndent(generated, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling plan artifact: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", jsonPath, err)
	}

	return &Result{Plan: generated, PlanPath: planPath, JSONPath: jsonPath}, nil
}
