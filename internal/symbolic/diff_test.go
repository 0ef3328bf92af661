package symbolic_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/eqverify/internal/symbolic"
)

func TestDerivativePrinting(t *testing.T) {
	cases := map[string]string{
		"x^3":     "3*x^2",
		"sin(x)":  "cos(x)",
		"f(x)":    "f'(x)",
		"g(x, y)": "D1[g](x, y)",
		"exp(x)":  "exp(x)",
		"y":       "0",
		"ln(x)":   "1/x",
		"a*x":     "a",
		"f(x^2)":  "f'(x^2)*2*x",
	}
	for src, want := range cases {
		d := symbolic.Derivative(symbolic.MustParse(src), "x")
		assert.Equal(t, want, d.String(), src)
	}
}

func TestResolveHigherOrder(t *testing.T) {
	requireIdentity(t, "diff(x^3, x, 2)", "6*x", nil)
	requireIdentity(t, "diff(x^2, x, 0)", "x^2", nil)
	requireIdentity(t, "diff(sin(x), x, 4)", "sin(x)", nil)
	requireIdentity(t, "diff(diff(x^2*y^2, x), y)", "4*x*y", nil)
	requireIdentity(t, "diff(2^x, x)", "2^x*ln(2)", nil)
	requireIdentity(t, "diff(tan(x), x)", "sec(x)^2", nil)
}

func TestResolveRejectsBadArguments(t *testing.T) {
	for _, src := range []string{"diff(x^2, 2)", "diff(x, x, 1/2)", "diff(x, x, 17)", "diff(x, x, -1)"} {
		_, err := symbolic.Resolve(symbolic.MustParse(src))
		require.ErrorIs(t, err, symbolic.ErrMalformed, src)

		_, err = symbolic.Simplify(context.Background(), src, symbolic.Env{}, symbolic.Limits{})
		require.ErrorIs(t, err, symbolic.ErrMalformed, src)
	}
}
