// Package doctor implements Curudroid's preflight checks: policy
// parseability, lock agreement, ledger integrity, writable working
// directories, and AI Advisor credential presence.
package doctor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/curudroid/curudroid/internal/config"
	"github.com/curudroid/curudroid/internal/ledger"
	"github.com/curudroid/curudroid/internal/policy"
)

// CheckResult represents the outcome of a single diagnostic check.
type CheckResult struct {
	Name        string `json:"name"`
	Status      string `json:"status"` // pass, warn, fail
	Message     string `json:"message"`
	Remediation string `json:"remediation,omitempty"`
}

// Report is a collection of check results.
type Report struct {
	Results []CheckResult `json:"results"`
}

// HasFailures returns true if any check failed.
func (r *Report) HasFailures() bool {
	for _, c := range r.Results {
		if c.Status == "fail" {
			return true
		}
	}
	return false
}

// JSON returns the report as formatted JSON.
func (r *Report) JSON() (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// RunAll executes every preflight check and returns a report. It never
// returns an error itself -- a failed check is recorded as a "fail" result,
// not a Go error, so the caller always gets a complete report.
func RunAll(cfg *config.Config) *Report {
	report := &Report{}
	checks := []func(*config.Config) CheckResult{
		CheckPolicyParseable,
		CheckPolicyLock,
		CheckLedgerIntegrity,
		CheckDirectoriesWritable,
		CheckAdvisorCredential,
	}
	for _, check := range checks {
		report.Results = append(report.Results, check(cfg))
	}
	return report
}

// CheckPolicyParseable verifies that the command policy allowlist exists
// and parses as valid YAML with the required fields.
func CheckPolicyParseable(cfg *config.Config) CheckResult {
	result := CheckResult{Name: "Policy Allowlist"}

	pol, err := policy.Load(cfg.Policy.Path)
	if err != nil {
		result.Status = "fail"
		result.Message = fmt.Sprintf("policy %s: %v", cfg.Policy.Path, err)
		result.Remediation = "Create a valid policy allowlist at " + cfg.Policy.Path +
			" with a version and allowed_commands list"
		return result
	}

	result.Status = "pass"
	result.Message = fmt.Sprintf("policy %s: version %d, %d allowed commands", cfg.Policy.Path, pol.Version, len(pol.AllowedCommands))
	return result
}

// CheckPolicyLock verifies that the policy lock file exists and matches
// the current policy hash, unless maintenance mode is active.
func CheckPolicyLock(cfg *config.Config) CheckResult {
	result := CheckResult{Name: "Policy Lock"}

	if cfg.Policy.Maintenance {
		result.Status = "warn"
		result.Message = "policy maintenance mode active, lock verification skipped"
		return result
	}

	if _, err := os.Stat(cfg.Policy.LockPath); err != nil {
		result.Status = "fail"
		result.Message = fmt.Sprintf("policy lock %s not found", cfg.Policy.LockPath)
		result.Remediation = "Run with --policy-lock-init to create the initial lock"
		return result
	}

	if err := policy.Verify(cfg.Policy.Path, cfg.Policy.LockPath); err != nil {
		result.Status = "fail"
		result.Message = fmt.Sprintf("policy lock verification failed: %v", err)
		result.Remediation = "If this change is intentional, re-run with --policy-maintenance " +
			"and then --policy-lock-init to re-lock the new policy"
		return result
	}

	if cfg.Policy.VerifySigPublicKeyHex != "" {
		if err := policy.VerifySignature(cfg.Policy.LockPath, cfg.Policy.VerifySigPublicKeyHex); err != nil {
			result.Status = "fail"
			result.Message = fmt.Sprintf("policy lock signature verification failed: %v", err)
			result.Remediation = "Re-sign the lock with 'policy lock-init --sign-key <hex>' using the key matching verify_sig_public_key"
			return result
		}
	}

	result.Status = "pass"
	result.Message = fmt.Sprintf("policy lock %s matches current policy", cfg.Policy.LockPath)
	return result
}

// CheckLedgerIntegrity verifies the execution ledger's hash chain, if a
// ledger file exists.
func CheckLedgerIntegrity(cfg *config.Config) CheckResult {
	result := CheckResult{Name: "Ledger Integrity"}

	if _, err := os.Stat(cfg.Ledger.Path); err != nil {
		result.Status = "pass"
		result.Message = fmt.Sprintf("ledger %s does not exist yet", cfg.Ledger.Path)
		return result
	}

	if err := ledger.Verify(cfg.Ledger.Path); err != nil {
		result.Status = "fail"
		result.Message = fmt.Sprintf("ledger %s failed verification: %v", cfg.Ledger.Path, err)
		result.Remediation = "Run with --ledger-recover --force-recover to quarantine the " +
			"corrupted ledger and start a fresh hash chain"
		return result
	}

	result.Status = "pass"
	result.Message = fmt.Sprintf("ledger %s verified", cfg.Ledger.Path)
	return result
}

// CheckDirectoriesWritable verifies that the directories Curudroid writes
// to during normal operation exist (creating them if needed) and accept a
// test write.
func CheckDirectoriesWritable(cfg *config.Config) CheckResult {
	result := CheckResult{Name: "Working Directories"}

	dirs := map[string]string{
		"logs":        cfg.LogDir,
		"data":        cfg.DataDir,
		"plans":       cfg.Executor.PlansDir,
		"approvals":   cfg.Executor.ApprovalsDir,
		"results":     cfg.Executor.ResultsDir,
		"approved":    cfg.PlanGen.ApprovedDir,
		"rejected":    cfg.PlanGen.RejectedDir,
		"ledger":      filepath.Dir(cfg.Ledger.Path),
		"policy_lock": filepath.Dir(cfg.Policy.LockPath),
	}

	var unwritable []string
	var ok []string
	for name, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := checkWritable(dir); err != nil {
			unwritable = append(unwritable, fmt.Sprintf("%s (%s): %v", name, dir, err))
			continue
		}
		ok = append(ok, name)
	}

	if len(unwritable) > 0 {
		result.Status = "fail"
		result.Message = "not writable: " + joinSemicolon(unwritable)
		result.Remediation = "Ensure curudroid has permission to create and write to its working directories"
		return result
	}

	result.Status = "pass"
	result.Message = fmt.Sprintf("%d working directories writable", len(ok))
	return result
}

func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	probe := filepath.Join(dir, ".preflight_write_test")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return err
	}
	return os.Remove(probe)
}

func joinSemicolon(items []string) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += "; "
		}
		out += item
	}
	return out
}

// CheckAdvisorCredential verifies that the AI Advisor has the credential
// it needs for its configured provider. The "none" provider never needs
// one, so it always passes.
func CheckAdvisorCredential(cfg *config.Config) CheckResult {
	result := CheckResult{Name: "AI Advisor Credential"}

	switch cfg.Advisor.Provider {
	case "", "none":
		result.Status = "pass"
		result.Message = "advisor provider: none (no credential required)"
		return result
	case "openai":
		if cfg.Advisor.APIKey == "" {
			result.Status = "warn"
			result.Message = "advisor provider: openai, but AI_API_KEY is not set -- advisor will fall back to the null provider"
			result.Remediation = "Set the AI_API_KEY environment variable"
			return result
		}
		result.Status = "pass"
		result.Message = "advisor provider: openai, AI_API_KEY present"
		return result
	case "openclaw":
		if cfg.Advisor.OpenclawURL == "" {
			result.Status = "warn"
			result.Message = "advisor provider: openclaw, but openclaw_url is not configured"
			result.Remediation = "Set advisor.openclaw_url in config"
			return result
		}
		result.Status = "pass"
		result.Message = fmt.Sprintf("advisor provider: openclaw (%s)", cfg.Advisor.OpenclawURL)
		return result
	default:
		result.Status = "warn"
		result.Message = fmt.Sprintf("unknown advisor provider: %s", cfg.Advisor.Provider)
		return result
	}
}
