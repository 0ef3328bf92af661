package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/eqverify/internal/model"
)

// Renderer writes reports as JSON, YAML and Markdown
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a new renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// JSON encodes the report. Equal reports encode to equal bytes.
func (r *Renderer) JSON(report *model.Report) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

// RenderJSON writes the report as JSON to path
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := r.JSON(report)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// RenderYAML writes the report as YAML to path
func (r *Renderer) RenderYAML(report *model.Report, path string) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, data)
}

// RenderMarkdown writes the report as Markdown to path
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return writeFile(path, []byte(r.Markdown(report)))
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Markdown renders the report as a Markdown document
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Verification report: %s\n\n", report.Catalog)
	if report.Source != "" {
		fmt.Fprintf(&b, "Source: `%s`\n\n", report.Source)
	}
	if !report.Complete {
		b.WriteString("**Incomplete: the run was canceled before every statement finished.**\n\n")
	}

	b.WriteString("## Summary\n\n")
	b.WriteString("| Outcome | Count |\n|---|---:|\n")
	o := report.Overall
	for _, row := range []struct {
		name  model.Outcome
		count int
	}{
		{model.OutcomeProved, o.Proved},
		{model.OutcomeDisproved, o.Disproved},
		{model.OutcomeInconclusive, o.Inconclusive},
		{model.OutcomeAssertion, o.Assertion},
		{model.OutcomeError, o.Error},
	} {
		fmt.Fprintf(&b, "| %s | %d |\n", row.name, row.count)
	}
	fmt.Fprintf(&b, "| **total** | %d |\n\n", o.Total)
	if o.Inconclusive > 0 {
		fmt.Fprintf(&b, "Of the inconclusive statements, %d timed out and %d are numerically plausible (not a proof).\n\n",
			o.TimedOut, o.NumericallyPlausible)
	}

	if len(report.Families) > 0 {
		b.WriteString("## Families\n\n")
		b.WriteString("| Family | Total | Proved | Disproved | Inconclusive | Assertion | Error |\n")
		b.WriteString("|---|---:|---:|---:|---:|---:|---:|\n")
		for _, f := range report.Families {
			fmt.Fprintf(&b, "| %s | %d | %d | %d | %d | %d | %d |\n",
				escapeCell(f.Family), f.Total, f.Proved, f.Disproved, f.Inconclusive, f.Assertion, f.Error)
		}
		b.WriteString("\n")
	}

	if len(report.Signals) > 0 {
		b.WriteString("## Signals\n\n")
		for _, s := range report.Signals {
			fmt.Fprintf(&b, "- **%s** `%s`: %s\n", s.Severity, s.Type, s.Description)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Results\n\n")
	for _, res := range report.Results {
		writeResult(&b, res)
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString("Proofs use exact rational arithmetic. Numerical sampling only tags inconclusive statements and never counts as a proof. ")
		b.WriteString("Assertions are recorded as stated and are not verified.\n")
	}

	return b.String()
}

func writeResult(b *strings.Builder, res model.VerificationResult) {
	fmt.Fprintf(b, "### %s: %s\n\n", res.ID, res.Outcome)
	fmt.Fprintf(b, "- Family: %s\n", res.Family)
	fmt.Fprintf(b, "- Relation: %s\n", res.Relation)
	if res.AssertionKind != "" {
		fmt.Fprintf(b, "- Assertion: %s\n", res.AssertionKind)
	}
	if res.Difference != "" {
		fmt.Fprintf(b, "- Difference: `%s`\n", res.Difference)
	}
	if res.Residual != "" {
		fmt.Fprintf(b, "- Residual: `%s`\n", res.Residual)
	}
	if res.TimedOut {
		b.WriteString("- Timed out\n")
	}
	if res.Canceled {
		b.WriteString("- Canceled\n")
	}
	if len(res.Reasons) > 0 {
		fmt.Fprintf(b, "- Reasons: %s\n", strings.Join(res.Reasons, "; "))
	}
	if res.Numeric != "" {
		fmt.Fprintf(b, "- Numeric check: %s (not a proof)\n", res.Numeric)
	}
	if res.Error != "" {
		fmt.Fprintf(b, "- Error (%s): %s\n", res.ErrorKind, res.Error)
	}
	b.WriteString("\n")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

// RenderSummary prints a short terminal summary
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	o := report.Overall
	_, _ = fmt.Fprintf(w, "\n%s: %d statements\n", report.Catalog, o.Total)
	_, _ = fmt.Fprintf(w, "  proved        %d\n", o.Proved)
	_, _ = fmt.Fprintf(w, "  disproved     %d\n", o.Disproved)
	_, _ = fmt.Fprintf(w, "  inconclusive  %d (%d timed out, %d numerically plausible)\n", o.Inconclusive, o.TimedOut, o.NumericallyPlausible)
	_, _ = fmt.Fprintf(w, "  assertion     %d\n", o.Assertion)
	_, _ = fmt.Fprintf(w, "  error         %d\n", o.Error)
	for _, s := range report.Signals {
		if s.Severity == model.SeverityInfo {
			continue
		}
		_, _ = fmt.Fprintf(w, "  [%s] %s\n", s.Severity, s.Description)
	}
	if !report.Complete {
		_, _ = fmt.Fprintln(w, "  report is incomplete")
	}
}
