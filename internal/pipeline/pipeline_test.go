package pipeline

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/eqverify/internal/model"
)

func testPipeline(t *testing.T, mutate func(cfg *model.Config)) *Pipeline {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Concurrency.Workers = 4
	if mutate != nil {
		mutate(cfg)
	}
	p := NewPipeline(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	p.stdout = io.Discard
	p.stderr = io.Discard
	return p
}

func demoCatalog() *model.Catalog {
	return &model.Catalog{
		Name: "demo",
		Path: "demo.yaml",
		Statements: []model.Statement{
			{ID: "euler", Family: "complex", Left: "exp(i*theta)", Right: "cos(theta) + i*sin(theta)", Relation: model.RelationIdentity},
			{ID: "square", Family: "algebra", Left: "(x + 1)^2", Right: "x^2 + 2*x + 1", Relation: model.RelationIdentity},
			{ID: "wrong", Family: "algebra", Left: "(x + 1)^2", Right: "x^2 + 1", Relation: model.RelationIdentity},
			{ID: "first-law", Family: "thermo", Left: "dU", Right: "dQ - dW", Relation: model.RelationAxiom},
			{ID: "typo", Family: "algebra", Left: "2x", Right: "x", Relation: model.RelationIdentity},
		},
	}
}

func TestVerify_OneResultPerStatementInOrder(t *testing.T) {
	p := testPipeline(t, nil)
	cat := demoCatalog()

	report := p.Verify(context.Background(), cat)

	if !report.Complete {
		t.Error("Expected a complete report")
	}
	if len(report.Results) != len(cat.Statements) {
		t.Fatalf("Expected %d results, got %d", len(cat.Statements), len(report.Results))
	}
	for i, st := range cat.Statements {
		if report.Results[i].ID != st.ID {
			t.Errorf("Result %d: expected id %s, got %s", i, st.ID, report.Results[i].ID)
		}
	}

	want := []model.Outcome{
		model.OutcomeProved,
		model.OutcomeProved,
		model.OutcomeDisproved,
		model.OutcomeAssertion,
		model.OutcomeError,
	}
	for i, outcome := range want {
		if report.Results[i].Outcome != outcome {
			t.Errorf("%s: expected %s, got %s", report.Results[i].ID, outcome, report.Results[i].Outcome)
		}
	}

	if report.Overall.Total != 5 || !report.Overall.Balanced() {
		t.Errorf("Unexpected overall tally: %+v", report.Overall)
	}
}

func TestVerify_Idempotent(t *testing.T) {
	p := testPipeline(t, nil)

	first, err := p.Renderer().JSON(p.Verify(context.Background(), demoCatalog()))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// Second run is served from the cache
	second, err := p.Renderer().JSON(p.Verify(context.Background(), demoCatalog()))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("Reports differ between runs:\n%s\n---\n%s", first, second)
	}

	fresh := testPipeline(t, func(cfg *model.Config) { cfg.Cache.Enabled = false })
	third, err := fresh.Renderer().JSON(fresh.Verify(context.Background(), demoCatalog()))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !bytes.Equal(first, third) {
		t.Error("Cached and uncached reports differ")
	}
}

func TestVerify_TimeoutIsolated(t *testing.T) {
	p := testPipeline(t, func(cfg *model.Config) {
		cfg.Prover.Timeout = 50 * time.Millisecond
		cfg.Prover.MaxTerms = 0
	})
	cat := &model.Catalog{
		Name: "slow",
		Statements: []model.Statement{
			{ID: "fast-1", Left: "x + x", Right: "2*x", Relation: model.RelationIdentity},
			{ID: "blowup", Left: "(a + b + c + d + f + g + h + k)^30", Right: "0", Relation: model.RelationIdentity},
			{ID: "fast-2", Left: "sin(x)^2 + cos(x)^2", Right: "1", Relation: model.RelationIdentity},
		},
	}

	start := time.Now()
	report := p.Verify(context.Background(), cat)
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Run took %v, expected the timeout to bound it", elapsed)
	}

	slow := report.Results[1]
	if slow.Outcome != model.OutcomeInconclusive || !slow.TimedOut {
		t.Errorf("Expected blowup to time out, got %s (timed_out=%v)", slow.Outcome, slow.TimedOut)
	}
	for _, i := range []int{0, 2} {
		if report.Results[i].Outcome != model.OutcomeProved {
			t.Errorf("%s: expected proved, got %s", report.Results[i].ID, report.Results[i].Outcome)
		}
	}
	if !report.Complete {
		t.Error("A statement timeout should not make the run incomplete")
	}
	if report.Overall.TimedOut != 1 {
		t.Errorf("Expected 1 timed out statement, got %d", report.Overall.TimedOut)
	}
}

func TestVerify_CanceledRunIsPartial(t *testing.T) {
	p := testPipeline(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cat := demoCatalog()
	cat.Statements = cat.Statements[:3]
	report := p.Verify(ctx, cat)

	if report.Complete {
		t.Error("Expected an incomplete report")
	}
	if len(report.Results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(report.Results))
	}
	for _, res := range report.Results {
		if !res.Canceled || res.Outcome != model.OutcomeInconclusive {
			t.Errorf("%s: expected canceled inconclusive, got %s (canceled=%v)", res.ID, res.Outcome, res.Canceled)
		}
	}

	found := false
	for _, s := range report.Signals {
		if s.Type == model.SignalPartialRun {
			found = true
		}
	}
	if !found {
		t.Error("Expected a partial_run signal")
	}
}

func TestVerifyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "identities.yaml")
	content := `name: identities
defaults:
  family: algebra
statements:
  - id: square
    left: (x + 1)^2
    right: x^2 + 2*x + 1
  - id: cube
    left: (x + 1)^3
    right: x^3 + 1
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write catalog: %v", err)
	}

	p := testPipeline(t, nil)
	report, err := p.VerifyFile(context.Background(), path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if report.Catalog != "identities" || report.Source != path {
		t.Errorf("Unexpected catalog header: %s %s", report.Catalog, report.Source)
	}
	if report.Overall.Proved != 1 || report.Overall.Disproved != 1 {
		t.Errorf("Unexpected tally: %+v", report.Overall)
	}

	if _, err := p.VerifyFile(context.Background(), filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Expected error for missing catalog")
	}
}

func TestRenderReport(t *testing.T) {
	dir := t.TempDir()
	p := testPipeline(t, nil)
	var stdout bytes.Buffer
	p.stdout = &stdout

	report := p.Verify(context.Background(), demoCatalog())
	out := Outputs{
		JSON:     filepath.Join(dir, "out", "report.json"),
		YAML:     filepath.Join(dir, "out", "report.yaml"),
		Markdown: filepath.Join(dir, "out", "report.md"),
	}
	if err := p.RenderReport(report, out, false); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for _, path := range []string{out.JSON, out.YAML, out.Markdown} {
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("Expected %s to exist: %v", path, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("Expected %s to be non-empty", path)
		}
	}
	if !strings.Contains(stdout.String(), "demo: 5 statements") {
		t.Errorf("Expected summary on stdout, got %q", stdout.String())
	}
}

func TestWriteMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eqverify.prom")
	p := testPipeline(t, func(cfg *model.Config) { cfg.Metrics.File = path })

	p.Verify(context.Background(), demoCatalog())
	if err := p.WriteMetrics(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read metrics: %v", err)
	}
	if !strings.Contains(string(data), `eqverify_statements_total{catalog="demo",outcome="proved"} 2`) {
		t.Errorf("Unexpected metrics:\n%s", data)
	}
}
