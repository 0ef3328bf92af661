package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/ppiankov/eqverify/internal/cache"
	"github.com/ppiankov/eqverify/internal/catalog"
	"github.com/ppiankov/eqverify/internal/metrics"
	"github.com/ppiankov/eqverify/internal/model"
	"github.com/ppiankov/eqverify/internal/prove"
	"github.com/ppiankov/eqverify/internal/report"
	"github.com/ppiankov/eqverify/internal/worker"
)

// Pipeline orchestrates loading, proving, aggregation and rendering
type Pipeline struct {
	prover     *prove.Prover
	cache      *cache.MemoryCache // nil when caching is disabled
	aggregator *report.Aggregator
	renderer   *report.Renderer
	metrics    *metrics.Run
	config     *model.Config
	logger     *slog.Logger
	stdout     io.Writer
	stderr     io.Writer
}

// NewPipeline creates a new pipeline with the given configuration. The
// result cache is shared by every catalog the pipeline verifies.
func NewPipeline(cfg *model.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	opts := []prove.Option{prove.WithLogger(logger)}
	var memCache *cache.MemoryCache
	if cfg.Cache.Enabled {
		memCache = cache.NewMemoryCache(cfg.Cache.TTL, 10*time.Minute)
		opts = append(opts, prove.WithCache(memCache))
	}

	return &Pipeline{
		prover:     prove.NewProver(cfg.Prover, opts...),
		cache:      memCache,
		aggregator: report.NewAggregator(),
		renderer:   report.NewRenderer(cfg.Output.IncludeFooter),
		metrics:    metrics.NewRun(),
		config:     cfg,
		logger:     logger,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
	}
}

// Prover returns the pipeline's prover
func (p *Pipeline) Prover() *prove.Prover {
	return p.prover
}

// StatementJob proves one statement
type StatementJob struct {
	Statement model.Statement
	Prover    *prove.Prover
}

// Execute executes the statement job
func (j *StatementJob) Execute(ctx context.Context) worker.Result {
	start := time.Now()
	res := j.Prover.Prove(ctx, j.Statement)
	return &StatementResult{Result: res, Elapsed: time.Since(start)}
}

// StatementResult represents the result of a statement job
type StatementResult struct {
	Result  model.VerificationResult
	Elapsed time.Duration
}

// GetError returns nil: prover failures are part of the verdict
func (r *StatementResult) GetError() error {
	return nil
}

// Verify proves every statement of the catalog in parallel and aggregates
// the report. Results keep catalog order. When ctx is canceled the
// statements that did not finish are reported canceled and the report is
// marked incomplete.
func (p *Pipeline) Verify(ctx context.Context, cat *model.Catalog) *model.Report {
	statements := cat.Statements
	p.logger.Info("verifying catalog", "catalog", cat.Name, "statements", len(statements))

	progress := worker.NewProgress(len(statements), 2*time.Second, func(done, total int) {
		p.logger.Info("statements verified", "catalog", cat.Name, "done", done, "total", total)
	})

	pool := worker.NewPool(ctx, p.config.Concurrency.Workers)
	pool.OnResult(func(_ int, r worker.Result) {
		sr := r.(*StatementResult)
		p.metrics.ObserveResult(cat.Name, sr.Result, sr.Elapsed)
		p.logger.Debug("statement verified",
			"catalog", cat.Name,
			"id", sr.Result.ID,
			"outcome", sr.Result.Outcome,
			"cached", sr.Result.Cached,
			"elapsed", sr.Elapsed,
		)
		progress.Step()
	})
	pool.Start()

	for _, st := range statements {
		pool.Submit(&StatementJob{Statement: st, Prover: p.prover})
	}
	done := pool.Wait()

	results := make([]model.VerificationResult, len(statements))
	complete := true
	for i, st := range statements {
		if i < len(done) && done[i] != nil {
			results[i] = done[i].(*StatementResult).Result
		} else {
			results[i] = canceled(st)
		}
		if results[i].Canceled {
			complete = false
		}
	}

	rep := p.aggregator.Aggregate(*cat, results, complete)
	p.metrics.ObserveReport(&rep)
	if p.cache != nil {
		p.metrics.SetCacheStats(p.cache.Stats())
	}
	return &rep
}

func canceled(st model.Statement) model.VerificationResult {
	return model.VerificationResult{
		ID:       st.ID,
		Family:   st.Family,
		Relation: st.Relation,
		Outcome:  model.OutcomeInconclusive,
		Canceled: true,
		Reasons:  []string{"run canceled before the proof started"},
	}
}

// VerifyFile loads a catalog file and verifies it
func (p *Pipeline) VerifyFile(ctx context.Context, path string) (*model.Report, error) {
	cat, err := catalog.Load(ctx, path)
	if err != nil {
		p.metrics.ObserveFailure()
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return p.Verify(ctx, cat), nil
}

// Outputs names the report files to write; empty paths are skipped
type Outputs struct {
	JSON     string
	YAML     string
	Markdown string
}

// RenderReport renders the report to the specified outputs
func (p *Pipeline) RenderReport(rep *model.Report, out Outputs, verbose bool) error {
	// Render JSON
	if out.JSON != "" {
		if err := p.renderer.RenderJSON(rep, out.JSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			_, _ = fmt.Fprintf(p.stderr, "✓ Wrote JSON: %s\n", out.JSON)
		}
	}

	// Render YAML
	if out.YAML != "" {
		if err := p.renderer.RenderYAML(rep, out.YAML); err != nil {
			return fmt.Errorf("render YAML: %w", err)
		}
		if verbose {
			_, _ = fmt.Fprintf(p.stderr, "✓ Wrote YAML: %s\n", out.YAML)
		}
	}

	// Render Markdown
	if out.Markdown != "" {
		if err := p.renderer.RenderMarkdown(rep, out.Markdown); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			_, _ = fmt.Fprintf(p.stderr, "✓ Wrote Markdown: %s\n", out.Markdown)
		}
	}

	// Print summary to stdout
	p.renderer.RenderSummary(p.stdout, rep)

	return nil
}

// Renderer returns the pipeline's renderer
func (p *Pipeline) Renderer() *report.Renderer {
	return p.renderer
}

// WriteMetrics writes the run metrics to the configured textfile, if any
func (p *Pipeline) WriteMetrics() error {
	if p.config.Metrics.File == "" {
		return nil
	}
	if p.cache != nil {
		p.metrics.SetCacheStats(p.cache.Stats())
	}
	return p.metrics.WriteTextfile(p.config.Metrics.File)
}
