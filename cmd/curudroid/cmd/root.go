package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/curudroid/curudroid/internal/advisor"
	"github.com/curudroid/curudroid/internal/autonomy"
	"github.com/curudroid/curudroid/internal/config"
	"github.com/curudroid/curudroid/internal/doctor"
	"github.com/curudroid/curudroid/internal/evaluator"
	"github.com/curudroid/curudroid/internal/executor"
	"github.com/curudroid/curudroid/internal/ledger"
	"github.com/curudroid/curudroid/internal/logging"
	"github.com/curudroid/curudroid/internal/observability"
	"github.com/curudroid/curudroid/internal/plan"
	"github.com/curudroid/curudroid/internal/policy"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// Global flag values.
var (
	cfgFile   string
	verbose   bool
	logFormat string

	noPreflight       bool
	executePath       string
	applyMode         bool
	verifyLedger      bool
	ledgerRecover     bool
	forceRecover      bool
	policyMaintenance bool
	policyLockInit    bool
	enableAutonomy    bool
	processIntents    bool
	observabilityRpt  bool
	metricsAddr       string
)

// Cfg holds the loaded configuration, available to all subcommands.
var Cfg *config.Config

// SetVersionInfo is called from main to inject build-time version info.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	buildDate = d
	rootCmd.Version = v
	rootCmd.SetVersionTemplate(fmt.Sprintf("curudroid version {{.Version}} (commit: %s, built: %s)\n", c, d))
}

var rootCmd = &cobra.Command{
	Use:   "curudroid",
	Short: "Curudroid: policy-gated autonomous command execution",
	Long: `Curudroid generates, evaluates, and executes bounded command plans
under a command allowlist, a hash-chained audit ledger, and two independent
risk gates (Supervisor and Curupira). Every run is either a dry-run or an
explicitly approved apply.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Setup(logFormat, verbose)

		var err error
		Cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		Cfg.Policy.Maintenance = policyMaintenance
		Cfg.Executor.EnableAutonomy = enableAutonomy

		return nil
	},
	RunE:         runPipeline,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.config/curudroid/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose (debug) output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log output format (text or json)")

	rootCmd.Flags().BoolVar(&noPreflight, "no-preflight", false, "skip startup preflight checks")
	rootCmd.Flags().StringVar(&executePath, "execute", "", "execute the plan at PATH")
	rootCmd.Flags().BoolVar(&applyMode, "apply", false, "request real execution (pairs with --execute); otherwise dry-run")
	rootCmd.Flags().BoolVar(&verifyLedger, "verify-ledger", false, "verify the execution ledger's hash chain and exit")
	rootCmd.Flags().BoolVar(&ledgerRecover, "ledger-recover", false, "quarantine a corrupted ledger and start a fresh chain (requires --force-recover)")
	rootCmd.Flags().BoolVar(&forceRecover, "force-recover", false, "confirm --ledger-recover")
	rootCmd.Flags().BoolVar(&policyMaintenance, "policy-maintenance", false, "permit policy lock mutation and skip lock verification")
	rootCmd.Flags().BoolVar(&policyLockInit, "policy-lock-init", false, "initialize or reinitialize the policy lock (requires --policy-maintenance)")
	rootCmd.Flags().BoolVar(&enableAutonomy, "enable-autonomy", false, "allow the Supervisor to downgrade a requested apply to dry-run instead of blocking it outright")
	rootCmd.Flags().BoolVar(&processIntents, "process-intents", false, "consume one pending intent from the reactive queue")
	rootCmd.Flags().BoolVar(&observabilityRpt, "observability-report", false, "print metrics, the last 5 decisions, ledger status, and policy version")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address (e.g. :9090) for the duration of this command; overrides metrics_addr in config")

	rootCmd.SetVersionTemplate(fmt.Sprintf("curudroid version {{.Version}} (commit: %s, built: %s)\n", commit, buildDate))
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// runPipeline dispatches the root command's mode flags. Flags are mutually
// exclusive in intent (the first matching one wins); at most one applies to
// a single invocation.
func runPipeline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	addr := metricsAddr
	if addr == "" {
		addr = Cfg.MetricsAddr
	}
	if addr != "" {
		exporter := observability.NewMetricsExporter(buildStore())
		go func() {
			if err := observability.ServeMetrics(addr, exporter); err != nil {
				slog.Error("metrics listener stopped", "addr", addr, "error", err)
			}
		}()
	}

	if !noPreflight && !(policyLockInit || verifyLedger || ledgerRecover) {
		report := doctor.RunAll(Cfg)
		for _, r := range report.Results {
			switch r.Status {
			case "fail":
				slog.Error("preflight check failed", "check", r.Name, "message", r.Message)
			case "warn":
				slog.Warn("preflight check warning", "check", r.Name, "message", r.Message)
			default:
				slog.Info("preflight check passed", "check", r.Name, "message", r.Message)
			}
		}
		if report.HasFailures() {
			return fmt.Errorf("preflight checks failed, see above")
		}
	}

	switch {
	case policyLockInit:
		return runPolicyLockInit()
	case verifyLedger:
		return runVerifyLedger()
	case ledgerRecover:
		return runLedgerRecover()
	case processIntents:
		return runProcessIntents(ctx)
	case observabilityRpt:
		return runObservabilityReport()
	case executePath != "":
		return runExecute(ctx)
	default:
		return cmd.Help()
	}
}

func runPolicyLockInit() error {
	if !Cfg.Policy.Maintenance {
		return fmt.Errorf("--policy-lock-init requires --policy-maintenance")
	}
	if err := policy.Initialize(Cfg.Policy.Path, Cfg.Policy.LockPath); err != nil {
		return fmt.Errorf("initializing policy lock: %w", err)
	}
	fmt.Printf("policy lock initialized: %s\n", Cfg.Policy.LockPath)
	return nil
}

func runVerifyLedger() error {
	if err := ledger.Verify(Cfg.Ledger.Path); err != nil {
		fmt.Printf("ledger verification FAILED: %v\n", err)
		return fmt.Errorf("ledger verification failed")
	}
	fmt.Println("ledger verification OK")
	return nil
}

func runLedgerRecover() error {
	if err := ledger.Recover(Cfg.Ledger.Path, forceRecover); err != nil {
		return fmt.Errorf("recovering ledger: %w", err)
	}
	fmt.Printf("ledger recovered: %s\n", Cfg.Ledger.Path)
	return nil
}

func buildStore() *observability.Store {
	decisionPath := filepath.Join(Cfg.LogDir, "decisions.log")
	return observability.NewStore(decisionPath, Cfg.Autonomy.MetricsPath)
}

// runExecute validates and runs the plan at --execute, optionally
// downgrading a requested apply to dry-run when --enable-autonomy is set
// and the Supervisor would otherwise block it.
func runExecute(ctx context.Context) error {
	store := buildStore()

	apply := applyMode
	if apply && Cfg.Executor.EnableAutonomy && Cfg.Supervisor.Enabled {
		p, err := plan.ValidateFile(executePath)
		if err != nil {
			return fmt.Errorf("validating plan: %w", err)
		}
		supervisor := evaluator.NewSupervisor(Cfg.Supervisor.Threshold, store)
		decision := supervisor.Evaluate(p.ID, p.RiskScore)
		if !decision.Allowed {
			slog.Warn("supervisor downgraded apply to dry-run", "plan_id", p.ID, "reason", decision.Reason)
			apply = false
		}
	}

	led, err := ledger.Open(Cfg.Ledger.Path)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer led.Close()

	exec := executor.New(Cfg.Policy.Path, Cfg.Executor.ApprovalsDir, Cfg.Executor.ResultsDir, led, store)
	report, err := exec.Execute(ctx, executePath, apply)
	if err != nil {
		return fmt.Errorf("executing plan: %w", err)
	}

	fmt.Printf("plan %s executed (mode=%s, %d command(s))\n", report.PlanID, report.Mode, len(report.Results))
	return nil
}

// runProcessIntents drains exactly one pending intent from the reactive
// queue under the Supervisor and Curupira gates.
func runProcessIntents(ctx context.Context) error {
	if !Cfg.Autonomy.ReactiveEnabled {
		return fmt.Errorf("--process-intents requires autonomy.reactive_enabled")
	}

	store := buildStore()
	queue := autonomy.NewQueue(Cfg.Autonomy.QueuePath)

	var supervisor *evaluator.Supervisor
	if Cfg.Supervisor.Enabled {
		supervisor = evaluator.NewSupervisor(Cfg.Supervisor.Threshold, store)
	}
	var curupiraEval *evaluator.Curupira
	if Cfg.Curupira.Enabled {
		curupiraEval = evaluator.NewCurupira(Cfg.Curupira.Threshold, store)
	}

	adv, err := advisor.FromConfig(Cfg.Advisor, Cfg.Advisor.APIKey, store)
	if err != nil {
		return fmt.Errorf("constructing advisor: %w", err)
	}

	auto := autonomy.New(queue, supervisor, curupiraEval, adv, store)
	result, err := auto.ProcessNext(ctx)
	if err != nil {
		return fmt.Errorf("processing intent: %w", err)
	}

	fmt.Printf("intent processed: status=%s", result.Status)
	if result.Reason != "" {
		fmt.Printf(" reason=%q", result.Reason)
	}
	fmt.Println()
	return nil
}

func runObservabilityReport() error {
	store := buildStore()

	metrics, err := store.LoadMetrics()
	if err != nil {
		return fmt.Errorf("loading metrics: %w", err)
	}
	fmt.Println("Metrics:")
	for name, v := range metrics {
		fmt.Printf("  %s = %d\n", name, v)
	}

	decisions, err := store.LoadLastDecisions(5)
	if err != nil {
		return fmt.Errorf("loading decision log: %w", err)
	}
	fmt.Println("\nLast decisions:")
	for _, d := range decisions {
		fmt.Printf("  [%s] %s allowed=%v plan=%s reason=%s\n",
			d.Timestamp.Format("2006-01-02T15:04:05Z"), d.Type, d.Allowed, d.PlanID, d.Reason)
	}

	fmt.Println("\nLedger:")
	if err := ledger.Verify(Cfg.Ledger.Path); err != nil {
		fmt.Printf("  status: FAILED (%v)\n", err)
	} else {
		fmt.Println("  status: OK")
	}

	pol, err := policy.Load(Cfg.Policy.Path)
	if err != nil {
		fmt.Printf("\nPolicy: error loading %s: %v\n", Cfg.Policy.Path, err)
	} else {
		fmt.Printf("\nPolicy version: %d\n", pol.Version)
	}

	return nil
}
