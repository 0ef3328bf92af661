package symbolic_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ppiankov/eqverify/internal/model"
	"github.com/ppiankov/eqverify/internal/symbolic"
)

var (
	realAT    = map[string]model.Domain{"a": model.DomainReal, "theta": model.DomainReal}
	positives = map[string]model.Domain{"x": model.DomainPositive, "y": model.DomainPositive}
	reals     = map[string]model.Domain{"x": model.DomainReal}
)

func residual(t *testing.T, left, right string, domains map[string]model.Domain) *symbolic.Form {
	t.Helper()
	l, err := symbolic.Parse(left)
	require.NoError(t, err)
	r, err := symbolic.Parse(right)
	require.NoError(t, err)
	f, err := symbolic.Normalize(context.Background(), symbolic.Sub(l, r), symbolic.Env{Domains: domains}, symbolic.Limits{MaxTerms: 20000})
	require.NoError(t, err)
	return f
}

func requireIdentity(t *testing.T, left, right string, domains map[string]model.Domain) {
	t.Helper()
	f := residual(t, left, right, domains)
	require.True(t, f.IsZero(), "%s = %s left residual %s", left, right, f)
}

func TestEulerFormula(t *testing.T) {
	requireIdentity(t, "exp(i*theta)", "cos(theta) + i*sin(theta)", nil)
	requireIdentity(t, "e^(i*pi)", "-1", nil)
	requireIdentity(t, "exp(i*π) + 1", "0", nil)
	requireIdentity(t, "exp(i*pi/2)", "i", nil)
	requireIdentity(t, "exp(i*pi/3)^3", "-1", nil)
}

func TestGoldenRatio(t *testing.T) {
	requireIdentity(t, "((1 + sqrt(5))/2)^2", "(1 + sqrt(5))/2 + 1", nil)
	requireIdentity(t, "1/((1 + sqrt(5))/2)", "(1 + sqrt(5))/2 - 1", nil)
}

func TestExponentialProducts(t *testing.T) {
	requireIdentity(t, "exp((a + i)*theta)", "exp(a*theta)*exp(i*theta)", nil)
	requireIdentity(t, "exp(a*theta)*exp(a*theta)", "exp(2*a*theta)", nil)
	requireIdentity(t, "abs(exp((a + i)*theta))^2", "exp(2*a*theta)", realAT)
	requireIdentity(t, "abs(exp((a + i)*theta))", "exp(a*theta)", realAT)
}

func TestLyapunovDerivative(t *testing.T) {
	requireIdentity(t, "diff(x0^2*exp(2*a*t), t)", "2*a*x0^2*exp(2*a*t)", nil)
}

func TestDisprovedResidualIsDecidable(t *testing.T) {
	f := residual(t, "exp(a*theta)*exp(i*theta)", "exp(i*theta)", nil)
	require.False(t, f.IsZero())
	require.Empty(t, f.Undecided())
	require.Equal(t, "exp(a*theta + i*theta) - exp(i*theta)", f.String())
}

func TestTrigonometricIdentities(t *testing.T) {
	requireIdentity(t, "sin(x)^2 + cos(x)^2", "1", nil)
	requireIdentity(t, "tan(x)", "sin(x)/cos(x)", nil)
	requireIdentity(t, "sin(2*x)", "2*sin(x)*cos(x)", nil)
	requireIdentity(t, "cosh(x)^2 - sinh(x)^2", "1", nil)
	requireIdentity(t, "sec(x)^2", "1 + tan(x)^2", nil)
}

func TestRadicals(t *testing.T) {
	requireIdentity(t, "sqrt(2)*sqrt(6)", "2*sqrt(3)", nil)
	requireIdentity(t, "sqrt(8)", "2*sqrt(2)", nil)
	requireIdentity(t, "sqrt(-4)", "2*i", nil)
	requireIdentity(t, "sqrt(1/2)", "sqrt(2)/2", nil)
	requireIdentity(t, "abs(3 + 4*i)", "5", nil)
}

func TestDomainsSelectRewrites(t *testing.T) {
	requireIdentity(t, "sqrt(x^2)", "x", positives)
	requireIdentity(t, "sqrt(x^2)", "abs(x)", reals)
	requireIdentity(t, "abs(x)^2", "x^2", reals)
	requireIdentity(t, "abs(z)^2", "z*conj(z)", nil)
	requireIdentity(t, "conj(x)", "x", reals)
	requireIdentity(t, "conj(conj(z))", "z", nil)
	requireIdentity(t, "re(z) + i*im(z)", "z", nil)
	requireIdentity(t, "x^(1/2)*x^(1/2)", "x", positives)

	f := residual(t, "sqrt(x^2)", "x", reals)
	require.False(t, f.IsZero())
	require.Empty(t, f.Undecided(), "abs(x) - x is a nonzero function")
}

func TestLogarithms(t *testing.T) {
	requireIdentity(t, "ln(x*y)", "ln(x) + ln(y)", positives)
	requireIdentity(t, "ln(8)", "3*ln(2)", nil)
	requireIdentity(t, "log(2, 8)", "3", nil)
	requireIdentity(t, "exp(ln(z))", "z", nil)
	requireIdentity(t, "ln(-1)", "i*pi", nil)
	requireIdentity(t, "2^x*2^x", "4^x", nil)
	requireIdentity(t, "ln(exp(x))", "x", reals)

	f := residual(t, "ln(x^2)", "2*ln(x)", reals)
	require.False(t, f.IsZero())
	require.NotEmpty(t, f.Undecided())
}

func TestUninterpretedFunctions(t *testing.T) {
	requireIdentity(t, "f(x + x) + f(2*x)", "2*f(2*x)", nil)

	f := residual(t, "f(x)", "g(x)", nil)
	require.False(t, f.IsZero())
	require.Equal(t, []string{"uninterpreted function f", "uninterpreted function g"}, f.Undecided())
}

func TestUndecidableConstants(t *testing.T) {
	f := residual(t, "pi", "e", nil)
	require.Contains(t, f.Undecided(), "mixed transcendental constants")

	f = residual(t, "exp(i*pi/3)", "1", nil)
	require.Contains(t, f.Undecided(), "unreduced root of unity")

	f = residual(t, "2^(1/3)*2^(1/3)", "4^(1/3)", nil)
	require.Contains(t, f.Undecided(), "unresolved root")

	f = residual(t, "pi", "3", nil)
	require.Empty(t, f.Undecided())
}

func TestPrintingIsCanonical(t *testing.T) {
	a, err := symbolic.Simplify(context.Background(), "b*a + c", symbolic.Env{}, symbolic.Limits{})
	require.NoError(t, err)
	b, err := symbolic.Simplify(context.Background(), "c + a*b", symbolic.Env{}, symbolic.Limits{})
	require.NoError(t, err)
	require.Equal(t, a.String(), b.String())

	g, err := symbolic.Simplify(context.Background(), "(1 + sqrt(5))^2", symbolic.Env{}, symbolic.Limits{})
	require.NoError(t, err)
	require.Equal(t, "6 + 2*sqrt(5)", g.String())
}

func TestTooLarge(t *testing.T) {
	_, err := symbolic.Simplify(context.Background(), "(a + b + c + d)^40", symbolic.Env{}, symbolic.Limits{MaxTerms: 100})
	require.Error(t, err)
	require.True(t, errors.Is(err, symbolic.ErrTooLarge))
}

func TestDeadlineStopsExpansion(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := symbolic.Simplify(ctx, "(a + b + c + d + f + g + h + k)^30", symbolic.Env{}, symbolic.Limits{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := symbolic.Simplify(ctx, "x + 1", symbolic.Env{}, symbolic.Limits{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestDivisionByZero(t *testing.T) {
	_, err := symbolic.Simplify(context.Background(), "1/(x - x)", symbolic.Env{}, symbolic.Limits{})
	require.ErrorIs(t, err, symbolic.ErrDivisionByZero)
}
