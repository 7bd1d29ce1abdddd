package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/curudroid/curudroid/internal/observability"
	"github.com/curudroid/curudroid/internal/policy"
	"github.com/spf13/cobra"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Manage and inspect the command allowlist policy",
	Long:  `Policy provides subcommands for (re)locking the command allowlist and explaining logged decisions.`,
}

var policyLockInitCmd = &cobra.Command{
	Use:   "lock-init",
	Short: "Initialize or reinitialize the policy lock from the current policy file",
	Long: `Lock-init computes the current policy file's hash and writes it, along
with the policy version, to the lock file. Future runs fail preflight if the
policy file no longer matches this lock, unless --policy-maintenance is set.`,
	RunE: runPolicyLockInitCmd,
}

var policyLockSignKeyHex string

var (
	policyExplainLine int
	policyExplainFile string
)

var policyExplainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Explain a decision log entry",
	Long: `Explain reads a single line from the decision log by its 0-based line
number and renders a human-readable summary of what gate produced it, the
plan it concerned, and why it allowed or blocked.`,
	RunE: runPolicyExplainCmd,
}

func init() {
	policyLockInitCmd.Flags().StringVar(&policyLockSignKeyHex, "sign-key", "", "hex-encoded ed25519 private key to sign the new lock with (optional)")

	policyExplainCmd.Flags().IntVar(&policyExplainLine, "line", -1, "0-based line number in the decision log to explain")
	policyExplainCmd.Flags().StringVar(&policyExplainFile, "log-file", "", "path to decisions.log (default: <log_dir>/decisions.log)")
	_ = policyExplainCmd.MarkFlagRequired("line")

	policyCmd.AddCommand(policyLockInitCmd)
	policyCmd.AddCommand(policyExplainCmd)
	rootCmd.AddCommand(policyCmd)
}

func runPolicyLockInitCmd(cmd *cobra.Command, args []string) error {
	if !Cfg.Policy.Maintenance {
		return fmt.Errorf("policy lock-init requires --policy-maintenance")
	}
	if err := policy.Initialize(Cfg.Policy.Path, Cfg.Policy.LockPath); err != nil {
		return fmt.Errorf("initializing policy lock: %w", err)
	}

	pol, err := policy.Load(Cfg.Policy.Path)
	if err != nil {
		return fmt.Errorf("reloading policy: %w", err)
	}
	fmt.Printf("policy lock written: %s (version %d, %d allowed commands)\n",
		Cfg.Policy.LockPath, pol.Version, len(pol.AllowedCommands))

	if policyLockSignKeyHex != "" {
		if err := policy.SignLock(Cfg.Policy.LockPath, policyLockSignKeyHex); err != nil {
			return fmt.Errorf("signing policy lock: %w", err)
		}
		fmt.Println("policy lock signed")
	}
	return nil
}

func runPolicyExplainCmd(cmd *cobra.Command, args []string) error {
	logPath := policyExplainFile
	if logPath == "" {
		logPath = Cfg.LogDir + "/decisions.log"
	}

	event, err := readDecisionLine(logPath, policyExplainLine)
	if err != nil {
		return err
	}

	fmt.Printf("Decision #%d at %s\n\n", policyExplainLine, event.Timestamp.Format("2006-01-02T15:04:05Z"))
	fmt.Printf("Gate:      %s\n", event.Type)
	if event.PlanID != "" {
		fmt.Printf("Plan:      %s\n", event.PlanID)
	}
	if event.Command != "" {
		fmt.Printf("Command:   %s\n", event.Command)
	}
	if event.Allowed {
		fmt.Println("Decision:  ALLOW")
	} else {
		fmt.Println("Decision:  BLOCK")
	}
	if event.Reason != "" {
		fmt.Printf("Reason:    %s\n", event.Reason)
	}
	for k, v := range event.Metadata {
		fmt.Printf("  %s: %v\n", k, v)
	}

	return nil
}

// readDecisionLine reads a single JSONL entry at the given 0-based line number.
func readDecisionLine(path string, lineNum int) (*observability.DecisionEvent, error) {
	if lineNum < 0 {
		return nil, fmt.Errorf("--line must be a non-negative line number, got %d", lineNum)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening decision log %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 256*1024), 256*1024)
	cur := 0
	for scanner.Scan() {
		if cur == lineNum {
			var event observability.DecisionEvent
			if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
				return nil, fmt.Errorf("parsing entry at line %d: %w", lineNum, err)
			}
			return &event, nil
		}
		cur++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning decision log: %w", err)
	}

	return nil, fmt.Errorf("line %d not found (file has %d lines)", lineNum, cur)
}
