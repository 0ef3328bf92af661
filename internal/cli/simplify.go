package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ppiankov/eqverify/internal/model"
	"github.com/ppiankov/eqverify/internal/prove"
)

var symbolFlags map[string]string

// simplifyCmd represents the simplify command
var simplifyCmd = &cobra.Command{
	Use:   "simplify <expr>",
	Short: "Print the normal form of one expression",
	Long: `Simplify parses an expression and prints its exact normal form, the same
form the prover compares against zero. Undecidable atoms are listed.

Example:
  eqverify simplify "(1 + sqrt(5))^2"
  eqverify simplify "sqrt(x^2)" --symbol x=real`,
	Args:    cobra.ExactArgs(1),
	PreRunE: bindProverFlags,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := runConfig()
		if err != nil {
			return err
		}
		symbols, err := parseSymbols(symbolFlags)
		if err != nil {
			return err
		}
		prover := prove.NewProver(cfg.Prover, prove.WithLogger(logger))
		return runSimplify(cmd.Context(), cmd.OutOrStdout(), prover, args[0], symbols)
	},
}

func init() {
	rootCmd.AddCommand(simplifyCmd)

	simplifyCmd.Flags().StringToStringVar(&symbolFlags, "symbol", nil, "symbol domain, e.g. --symbol x=real (repeatable)")
	addProverFlags(simplifyCmd)
}

func runSimplify(ctx context.Context, w io.Writer, prover *prove.Prover, expr string, symbols map[string]model.Domain) error {
	if ctx == nil {
		ctx = context.Background()
	}
	form, err := prover.Simplify(ctx, expr, symbols)
	if err != nil {
		return fmt.Errorf("simplify: %w", err)
	}
	_, _ = fmt.Fprintln(w, form.String())
	for _, reason := range form.Undecided() {
		_, _ = fmt.Fprintf(w, "  undecided: %s\n", reason)
	}
	return nil
}

// parseSymbols converts --symbol flags into declared domains
func parseSymbols(flags map[string]string) (map[string]model.Domain, error) {
	names := make([]string, 0, len(flags))
	for name := range flags {
		names = append(names, name)
	}
	sort.Strings(names)

	symbols := make(map[string]model.Domain, len(flags))
	for _, name := range names {
		if model.IsReservedConstant(name) {
			return nil, fmt.Errorf("symbol %q: cannot redeclare a constant", name)
		}
		d, err := model.ParseDomain(flags[name])
		if err != nil {
			return nil, fmt.Errorf("symbol %q: %w", name, err)
		}
		symbols[name] = d
	}
	return symbols, nil
}
