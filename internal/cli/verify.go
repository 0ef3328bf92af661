package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/eqverify/internal/model"
	"github.com/ppiankov/eqverify/internal/pipeline"
)

var (
	outJSON   string
	outYAML   string
	outMD     string
	noCache   bool
	noFooter  bool
	noNumeric bool
	strict    bool
)

// ErrIncomplete is returned when a run was canceled before every statement finished
var ErrIncomplete = errors.New("run incomplete")

// ErrStrict is returned in strict mode when a catalog has disproved or error statements
var ErrStrict = errors.New("catalog has disproved or failing statements")

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <catalog>",
	Short: "Verify one equation catalog and generate a report",
	Long: `Verify loads a catalog (.yaml, .yml, .json, .cue or .star) and:
- Proves each identity by exact symbolic simplification of left - right
- Records axioms, definitions and regime claims as assertions
- Tags undecided identities with a numeric sampling check
- Aggregates per-family and overall tallies with diagnostic signals

Example:
  eqverify verify catalog.yaml
  eqverify verify catalog.yaml --json report.json --md report.md
  eqverify verify catalog.star --timeout 2s --run-timeout 1m`,
	Args:    cobra.ExactArgs(1),
	PreRunE: bindProverFlags,
	RunE:    runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	// Output flags
	verifyCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path (empty to skip)")
	verifyCmd.Flags().StringVar(&outYAML, "yaml", "", "output YAML path (optional)")
	verifyCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	verifyCmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any statement is disproved or fails")

	addProverFlags(verifyCmd)
}

// addProverFlags registers the flags shared by verify and batch
func addProverFlags(cmd *cobra.Command) {
	d := model.DefaultConfig()
	cmd.Flags().Duration("timeout", d.Prover.Timeout, "per-statement proof timeout")
	cmd.Flags().Duration("run-timeout", d.Run.Timeout, "overall run timeout")
	cmd.Flags().Int("workers", d.Concurrency.Workers, "statements proved in parallel")
	cmd.Flags().Int("max-terms", d.Prover.MaxTerms, "largest intermediate expression in terms (0 = unbounded)")
	cmd.Flags().String("domain", string(d.Prover.DefaultDomain), "domain of undeclared symbols (complex, real, positive)")
	cmd.Flags().String("metrics-file", "", "write Prometheus textfile metrics to this path")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the in-process result cache")
	cmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	cmd.Flags().BoolVar(&noNumeric, "no-numeric", false, "disable numeric sampling of inconclusive statements")
}

func bindProverFlags(cmd *cobra.Command, args []string) error {
	return bindFlags(cmd, map[string]string{
		"prover.timeout":        "timeout",
		"run.timeout":           "run-timeout",
		"concurrency.workers":   "workers",
		"prover.max_terms":      "max-terms",
		"prover.default_domain": "domain",
		"metrics.file":          "metrics-file",
	})
}

// runConfig loads the configuration and applies the switch flags
func runConfig() (*model.Config, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	if noNumeric {
		cfg.Prover.NumericFallback = false
	}
	return cfg, nil
}

// runContext applies the run timeout and cancels on SIGINT or SIGTERM
func runContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func runVerify(cmd *cobra.Command, args []string) error {
	path := args[0]
	cfg, err := runConfig()
	if err != nil {
		return err
	}
	ctx, cancel := runContext(cfg.Run.Timeout)
	defer cancel()

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Verifying: %s\n", path)
		fmt.Fprintf(os.Stderr, "Proof timeout: %v\n", cfg.Prover.Timeout)
		fmt.Fprintf(os.Stderr, "Workers: %d\n", cfg.Concurrency.Workers)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	p := pipeline.NewPipeline(cfg, logger)

	report, err := p.VerifyFile(ctx, path)
	if err != nil {
		_ = p.WriteMetrics()
		return fmt.Errorf("verify failed: %w", err)
	}

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "✓ Verified %d statements\n", report.Overall.Total)
		fmt.Fprintf(os.Stderr, "✓ Proved %d, disproved %d\n", report.Overall.Proved, report.Overall.Disproved)
		fmt.Fprintln(os.Stderr)
	}

	// Render outputs
	out := pipeline.Outputs{JSON: outJSON, YAML: outYAML, Markdown: outMD}
	if err := p.RenderReport(report, out, cfg.Output.Verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	if err := p.WriteMetrics(); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}

	return exitStatus(report, strict)
}

// exitStatus maps a rendered report to the command result
func exitStatus(report *model.Report, strict bool) error {
	if !report.Complete {
		return fmt.Errorf("%w: %s was canceled before every statement finished", ErrIncomplete, report.Catalog)
	}
	if strict && (report.Overall.Disproved > 0 || report.Overall.Error > 0) {
		return fmt.Errorf("%w: %d disproved, %d errors", ErrStrict, report.Overall.Disproved, report.Overall.Error)
	}
	return nil
}
