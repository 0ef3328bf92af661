package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/eqverify/internal/pipeline"
	"github.com/ppiankov/eqverify/internal/worker"
)

var (
	outputDir   string
	yamlReports bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify multiple catalogs from a list file in parallel",
	Long: `Batch verifies multiple catalogs concurrently:
- Read catalog paths from the input file (one per line, # comments)
- Verify catalogs in parallel, each with its own statement worker pool
- Share one result cache so repeated statements are proved once
- Generate individual reports for each catalog

Example:
  eqverify batch catalogs.txt
  eqverify batch catalogs.txt --concurrency 4 --output-dir ./reports
  eqverify batch catalogs.txt --run-timeout 30m --metrics-file eqverify.prom`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindProverFlags(cmd, args); err != nil {
			return err
		}
		return bindFlags(cmd, map[string]string{"concurrency.catalogs": "concurrency"})
	},
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().Int("concurrency", 2, "number of catalogs verified in parallel")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./eqverify-reports", "output directory for reports")
	batchCmd.Flags().BoolVar(&yamlReports, "yaml", false, "also write YAML reports")

	addProverFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	cfg, err := runConfig()
	if err != nil {
		return err
	}
	ctx, cancel := runContext(cfg.Run.Timeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  eqverify Batch Verification\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Catalogs:     %d in parallel\n", cfg.Concurrency.Catalogs)
	fmt.Fprintf(os.Stderr, "  Workers:      %d per catalog\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", cfg.Run.Timeout)
	fmt.Fprintf(os.Stderr, "\n")

	// Create output directory
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	// One pipeline so every catalog shares the result cache and the run metrics
	p := pipeline.NewPipeline(cfg, logger)
	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Catalogs, logger)

	fmt.Fprintf(os.Stderr, "⚙️  Reading catalogs from file...\n")
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Verified %d catalogs\n", len(results))
	fmt.Fprintf(os.Stderr, "\n")

	successCount := 0
	failureCount := 0
	incomplete := 0
	used := map[string]int{}

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, result.Error)
			continue
		}

		successCount++
		if !result.Report.Complete {
			incomplete++
		}

		// Generate output file names
		slug := uniqueSlug(used, sanitizeFilename(result.Report.Catalog))
		out := pipeline.Outputs{
			JSON:     filepath.Join(outputDir, slug+".json"),
			Markdown: filepath.Join(outputDir, slug+".md"),
		}
		if yamlReports {
			out.YAML = filepath.Join(outputDir, slug+".yaml")
		}

		renderer := p.Renderer()
		if err := renderer.RenderJSON(result.Report, out.JSON); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Path, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Report, out.Markdown); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Path, err)
			continue
		}
		if out.YAML != "" {
			if err := renderer.RenderYAML(result.Report, out.YAML); err != nil {
				fmt.Fprintf(os.Stderr, "✗ %s: failed to write YAML: %v\n", result.Path, err)
				continue
			}
		}

		o := result.Report.Overall
		fmt.Fprintf(os.Stderr, "✓ %s (proved %d/%d, disproved %d, inconclusive %d)\n",
			result.Report.Catalog, o.Proved, o.Total, o.Disproved, o.Inconclusive)
	}

	if err := p.WriteMetrics(); err != nil {
		fmt.Fprintf(os.Stderr, "✗ failed to write metrics: %v\n", err)
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:       %d catalogs\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:     %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:    %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Incomplete:  %d\n", incomplete)
	fmt.Fprintf(os.Stderr, "  Output:      %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if incomplete > 0 {
		return fmt.Errorf("%w: %d catalogs were canceled", ErrIncomplete, incomplete)
	}
	if failureCount > 0 {
		return fmt.Errorf("%d of %d catalogs failed", failureCount, len(results))
	}
	return nil
}

// sanitizeFilename sanitizes a string for use as a filename
func sanitizeFilename(s string) string {
	s = filepath.Base(s)
	s = filepath.Clean(s)

	// Replace problematic characters
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	s = replacer.Replace(s)

	if s == "" || s == "." || s == ".." {
		s = "catalog"
	}
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// uniqueSlug suffixes repeated slugs so two catalogs with the same name do
// not overwrite each other's reports
func uniqueSlug(used map[string]int, slug string) string {
	used[slug]++
	if n := used[slug]; n > 1 {
		return fmt.Sprintf("%s-%d", slug, n)
	}
	return slug
}
