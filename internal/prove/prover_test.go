package prove

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/eqverify/internal/cache"
	"github.com/ppiankov/eqverify/internal/model"
	"github.com/ppiankov/eqverify/internal/symbolic"
)

func testConfig() model.ProverConfig {
	cfg := model.DefaultConfig().Prover
	cfg.Timeout = 2 * time.Second
	return cfg
}

func identity(id, left, right string) model.Statement {
	return model.Statement{ID: id, Family: "test", Left: left, Right: right, Relation: model.RelationIdentity}
}

func TestProveEuler(t *testing.T) {
	p := NewProver(testConfig())
	r := p.Prove(context.Background(), identity("euler", "exp(i*theta)", "cos(theta) + i*sin(theta)"))

	require.Equal(t, model.OutcomeProved, r.Outcome)
	assert.Equal(t, "0", r.Residual)
	assert.Equal(t, "exp(i*theta) - (cos(theta) + i*sin(theta))", r.Difference)
	assert.Equal(t, "euler", r.ID)
	assert.Equal(t, "test", r.Family)
	assert.NotEmpty(t, r.Steps)
}

func TestProveDisproved(t *testing.T) {
	p := NewProver(testConfig())
	r := p.Prove(context.Background(), identity("wrong", "exp(a*theta)*exp(i*theta)", "exp(i*theta)"))

	require.Equal(t, model.OutcomeDisproved, r.Outcome)
	assert.NotEqual(t, "0", r.Residual)
	assert.NotEmpty(t, r.Residual)
	assert.Empty(t, r.Reasons)
}

func TestProveInconclusiveCarriesNumericTag(t *testing.T) {
	p := NewProver(testConfig())
	r := p.Prove(context.Background(), identity("cbrt", "2^(1/3)*2^(1/3)", "4^(1/3)"))
	require.Equal(t, model.OutcomeInconclusive, r.Outcome)
	assert.Contains(t, r.Reasons, "unresolved root")
	assert.Equal(t, model.NumericPlausible, r.Numeric)

	st := identity("log", "ln(x^2)", "2*ln(x)")
	st.Symbols = map[string]model.Domain{"x": model.DomainReal}
	r = p.Prove(context.Background(), st)
	require.Equal(t, model.OutcomeInconclusive, r.Outcome)
	assert.Equal(t, model.NumericImplausible, r.Numeric)
}

func TestProveNumericFallbackDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.NumericFallback = false
	r := NewProver(cfg).Prove(context.Background(), identity("cbrt", "2^(1/3)*2^(1/3)", "4^(1/3)"))
	require.Equal(t, model.OutcomeInconclusive, r.Outcome)
	assert.Empty(t, r.Numeric)
}

func TestProveAssertions(t *testing.T) {
	p := NewProver(testConfig())

	st := model.Statement{ID: "regime", Left: "S", Right: "0", Relation: model.RelationGreater}
	r := p.Prove(context.Background(), st)
	assert.Equal(t, model.OutcomeAssertion, r.Outcome)
	assert.Equal(t, model.AssertionRegime, r.AssertionKind)

	st = model.Statement{ID: "ax", Left: "dS", Right: "0", Relation: model.RelationAxiom}
	r = p.Prove(context.Background(), st)
	assert.Equal(t, model.OutcomeAssertion, r.Outcome)
	assert.Equal(t, model.AssertionAxiom, r.AssertionKind)

	st = model.Statement{ID: "def", Left: "phi", Right: "(1 + sqrt(5))/2", Relation: model.RelationDefinition}
	r = p.Prove(context.Background(), st)
	assert.Equal(t, model.AssertionDefinition, r.AssertionKind)
	assert.False(t, r.Counts())

	st = model.Statement{ID: "prose", Left: "2x", Right: "0", Relation: model.RelationGreater}
	r = p.Prove(context.Background(), st)
	assert.Equal(t, model.OutcomeAssertion, r.Outcome, "assertions are recorded even when a side is not an expression")
	assert.Empty(t, r.Error)
	assert.Empty(t, r.Difference)
	require.Len(t, r.Steps, 2)
	assert.Equal(t, "recorded without proof: 2x > 0", r.Steps[0])
	assert.Contains(t, r.Steps[1], "left kept as text")
}

func TestProveRegimeClaimWrittenAsProse(t *testing.T) {
	p := NewProver(testConfig())
	for _, left := range []string{"β≫1", "β >> 1"} {
		st := model.Statement{ID: "beta", Family: "quantum", Left: left, Right: "quantum regime", Relation: model.RelationImplies}
		r := p.Prove(context.Background(), st)

		require.Equal(t, model.OutcomeAssertion, r.Outcome, left)
		assert.Equal(t, model.AssertionRegime, r.AssertionKind, left)
		assert.Empty(t, r.ErrorKind, left)
		assert.False(t, r.Counts(), left)
		assert.Equal(t, "recorded without proof: "+left+" implies quantum regime", r.Steps[0], left)
	}
}

func TestProveAntiderivative(t *testing.T) {
	p := NewProver(testConfig())

	r := p.Prove(context.Background(), identity("poly", "integral(x^2, x)", "x^3/3"))
	require.Equal(t, model.OutcomeProved, r.Outcome, r.Steps)
	assert.Contains(t, r.Steps, "method: antiderivative")

	r = p.Prove(context.Background(), identity("const", "sin(x) + C", "integral(cos(x), x)"))
	require.Equal(t, model.OutcomeProved, r.Outcome, "a constant of integration is allowed")

	r = p.Prove(context.Background(), identity("exp", "integral(x*exp(x), x)", "(x - 1)*exp(x)"))
	require.Equal(t, model.OutcomeProved, r.Outcome, r.Steps)

	r = p.Prove(context.Background(), identity("wrong", "integral(x, x)", "x^2"))
	require.Equal(t, model.OutcomeDisproved, r.Outcome)
	assert.Equal(t, "x", r.Residual)

	r = p.Prove(context.Background(), identity("bad-var", "integral(x, 2)", "x^2/2"))
	assert.Equal(t, model.OutcomeError, r.Outcome)
	assert.Equal(t, model.ErrorKindMalformedExpression, r.ErrorKind)
}

func TestProveSumByInduction(t *testing.T) {
	p := NewProver(testConfig())

	r := p.Prove(context.Background(), identity("gauss", "sum(k, k, 1, n)", "n*(n + 1)/2"))
	require.Equal(t, model.OutcomeProved, r.Outcome, r.Steps)
	assert.Contains(t, r.Steps, "method: induction")
	assert.Contains(t, r.Steps, "base case n = 1: 0")
	assert.Contains(t, r.Steps, "step n -> n + 1: 0")

	r = p.Prove(context.Background(), identity("squares", "n*(n + 1)*(2*n + 1)/6", "sum(k^2, k, 1, n)"))
	require.Equal(t, model.OutcomeProved, r.Outcome, r.Steps)

	r = p.Prove(context.Background(), identity("odd", "sum(2*k - 1, k, 1, n)", "n^2"))
	require.Equal(t, model.OutcomeProved, r.Outcome, r.Steps)
}

func TestProveSumCounterexample(t *testing.T) {
	p := NewProver(testConfig())

	// base case holds at n = 1, the step fails and n = 2 is a counterexample
	r := p.Prove(context.Background(), identity("wrong", "sum(k, k, 1, n)", "n^2"))
	require.Equal(t, model.OutcomeDisproved, r.Outcome, r.Steps)
	assert.Equal(t, "1", r.Residual)
	assert.Contains(t, r.Steps, "counterexample at n = 2: 1")

	r = p.Prove(context.Background(), identity("base", "sum(k, k, 0, n)", "n*(n + 1)/2 + 1"))
	require.Equal(t, model.OutcomeDisproved, r.Outcome, "a failed base case is a counterexample")
	assert.Equal(t, "1", r.Residual)
}

func TestProveSumMalformed(t *testing.T) {
	p := NewProver(testConfig())
	for _, st := range []model.Statement{
		identity("index", "sum(k, 2, 1, n)", "n"),
		identity("bound", "sum(k, k, 1, 5)", "15"),
		identity("same", "sum(k, k, 1, k)", "k"),
		identity("leak", "sum(k, k, 1, n)", "k*n"),
	} {
		r := p.Prove(context.Background(), st)
		assert.Equal(t, model.OutcomeError, r.Outcome, st.ID)
		assert.Equal(t, model.ErrorKindMalformedExpression, r.ErrorKind, st.ID)
	}
}

func TestProveUnsupportedCalculus(t *testing.T) {
	p := NewProver(testConfig())
	cases := map[string]model.Statement{
		"limits are not evaluated":             identity("lim", "limit(sin(x)/x, x, 0)", "1"),
		"definite integrals are not evaluated": identity("def", "integral(x, x, 0, 1)", "1/2"),
		"integral inside a larger expression":  identity("nested", "2*integral(x, x)", "x^2"),
		"summand depends on the upper bound":   identity("upper", "sum(n*k, k, 1, n)", "n^2*(n + 1)/2"),
	}
	for reason, st := range cases {
		r := p.Prove(context.Background(), st)
		require.Equal(t, model.OutcomeInconclusive, r.Outcome, st.ID)
		assert.Equal(t, []string{reason}, r.Reasons, st.ID)
		assert.Empty(t, r.Numeric, st.ID)
	}
}

func TestProveMalformed(t *testing.T) {
	p := NewProver(testConfig())
	for _, st := range []model.Statement{
		identity("a", "2x", "1"),
		identity("b", "x", "sin()"),
		identity("c", "diff(x^2, 2)", "x"),
	} {
		r := p.Prove(context.Background(), st)
		assert.Equal(t, model.OutcomeError, r.Outcome, st.ID)
		assert.Equal(t, model.ErrorKindMalformedExpression, r.ErrorKind, st.ID)
		assert.NotEmpty(t, r.Error, st.ID)
	}
}

func TestProveTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 20 * time.Millisecond
	cfg.MaxTerms = 0
	p := NewProver(cfg)

	start := time.Now()
	r := p.Prove(context.Background(), identity("slow", "(a + b + c + d + f + g + h + k)^30", "0"))
	require.Equal(t, model.OutcomeInconclusive, r.Outcome)
	assert.True(t, r.TimedOut)
	assert.False(t, r.Canceled)
	assert.Empty(t, r.Numeric)
	assert.Less(t, time.Since(start), 2*time.Second)
	require.Len(t, r.Reasons, 1)
	assert.Contains(t, r.Reasons[0], ErrProofTimeout.Error())
}

func TestProveCanceledRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewProver(testConfig()).Prove(ctx, identity("euler", "exp(i*pi)", "-1"))
	assert.Equal(t, model.OutcomeInconclusive, r.Outcome)
	assert.True(t, r.Canceled)
	assert.False(t, r.TimedOut)
}

func TestProveTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxTerms = 50
	r := NewProver(cfg).Prove(context.Background(), identity("big", "(a + b + c)^20", "0"))
	require.Equal(t, model.OutcomeInconclusive, r.Outcome)
	require.Len(t, r.Reasons, 1)
	assert.Contains(t, r.Reasons[0], symbolic.ErrTooLarge.Error())
}

func TestProveRecoversPanics(t *testing.T) {
	p := NewProver(testConfig())
	p.normalize = func(context.Context, symbolic.Node, symbolic.Env, symbolic.Limits) (*symbolic.Form, error) {
		panic("kernel bug")
	}

	r := p.Prove(context.Background(), identity("boom", "x", "x"))
	assert.Equal(t, model.OutcomeError, r.Outcome)
	assert.Equal(t, model.ErrorKindInternal, r.ErrorKind)
	assert.Contains(t, r.Error, "kernel bug")
	assert.Contains(t, r.Error, "boom")
}

func TestProveUsesCache(t *testing.T) {
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	p := NewProver(testConfig(), WithCache(c))

	calls := 0
	p.normalize = func(ctx context.Context, x symbolic.Node, env symbolic.Env, lim symbolic.Limits) (*symbolic.Form, error) {
		calls++
		return symbolic.Normalize(ctx, x, env, lim)
	}

	first := p.Prove(context.Background(), identity("one", "sin(x)^2 + cos(x)^2", "1"))
	second := p.Prove(context.Background(), identity("two", "sin(x)^2 + cos(x)^2", "1"))

	assert.Equal(t, 1, calls)
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, "two", second.ID)
	assert.Equal(t, first.Outcome, second.Outcome)

	other := identity("three", "sin(x)^2 + cos(x)^2", "1")
	other.Symbols = map[string]model.Domain{"x": model.DomainReal}
	p.Prove(context.Background(), other)
	assert.Equal(t, 2, calls, "domains are part of the key")
}

func TestSimplify(t *testing.T) {
	p := NewProver(testConfig())
	f, err := p.Simplify(context.Background(), "(x + 1)^2 - x^2", nil)
	require.NoError(t, err)
	assert.Equal(t, "1 + 2*x", f.String())

	_, err = p.Simplify(context.Background(), "2x", nil)
	assert.True(t, errors.Is(err, symbolic.ErrMalformed))
}
