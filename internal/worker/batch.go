package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/eqverify/internal/catalog"
	"github.com/ppiankov/eqverify/internal/model"
)

// Verifier verifies one catalog file
type Verifier interface {
	VerifyFile(ctx context.Context, path string) (*model.Report, error)
}

// CatalogJob represents a catalog verification job
type CatalogJob struct {
	Path     string
	Verifier Verifier
}

// Execute executes the catalog job
func (j *CatalogJob) Execute(ctx context.Context) Result {
	report, err := j.Verifier.VerifyFile(ctx, j.Path)
	return &CatalogResult{
		Path:   j.Path,
		Report: report,
		Error:  err,
	}
}

// CatalogResult represents the result of a catalog job
type CatalogResult struct {
	Path   string
	Report *model.Report
	Error  error
}

// GetError returns the error from the catalog result
func (r *CatalogResult) GetError() error {
	return r.Error
}

// BatchProcessor verifies multiple catalogs concurrently
type BatchProcessor struct {
	verifier    Verifier
	concurrency int
	logger      *slog.Logger
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(verifier Verifier, concurrency int, logger *slog.Logger) *BatchProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchProcessor{
		verifier:    verifier,
		concurrency: concurrency,
		logger:      logger,
	}
}

// ProcessPaths verifies the catalogs concurrently and returns one result per
// path, in input order
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*CatalogResult {
	if len(paths) == 0 {
		return []*CatalogResult{}
	}

	progress := NewProgress(len(paths), 2*time.Second, func(done, total int) {
		b.logger.Info("catalogs verified", "done", done, "total", total)
	})

	pool := NewPool(ctx, b.concurrency)
	pool.OnResult(func(int, Result) { progress.Step() })
	pool.Start()

	for _, path := range paths {
		pool.Submit(&CatalogJob{
			Path:     path,
			Verifier: b.verifier,
		})
	}

	results := pool.Wait()

	out := make([]*CatalogResult, len(paths))
	for i, path := range paths {
		if i < len(results) && results[i] != nil {
			out[i] = results[i].(*CatalogResult)
			continue
		}
		out[i] = &CatalogResult{Path: path, Error: errors.New("catalog was not verified")}
	}

	return out
}

// ProcessFile reads catalog paths from a list file and verifies them
func (b *BatchProcessor) ProcessFile(ctx context.Context, listPath string) ([]*CatalogResult, error) {
	paths, err := catalog.ReadCatalogList(listPath)
	if err != nil {
		return nil, fmt.Errorf("read catalog list: %w", err)
	}

	return b.ProcessPaths(ctx, paths), nil
}
