package prove

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/sourcegraph/conc/panics"

	"github.com/ppiankov/eqverify/internal/cache"
	"github.com/ppiankov/eqverify/internal/model"
	"github.com/ppiankov/eqverify/internal/symbolic"
)

// Prover classifies statements by exact symbolic simplification. A Prover is
// safe for concurrent use; it holds no per-statement state.
type Prover struct {
	cfg       model.ProverConfig
	cache     cache.Cache
	logger    *slog.Logger
	normalize func(context.Context, symbolic.Node, symbolic.Env, symbolic.Limits) (*symbolic.Form, error)
}

// Option configures a Prover
type Option func(*Prover)

// WithCache reuses verdicts for statements with identical content
func WithCache(c cache.Cache) Option {
	return func(p *Prover) { p.cache = c }
}

// WithLogger sets the logger used for debug traces
func WithLogger(l *slog.Logger) Option {
	return func(p *Prover) { p.logger = l }
}

// NewProver creates a prover with the given configuration
func NewProver(cfg model.ProverConfig, opts ...Option) *Prover {
	p := &Prover{cfg: cfg, logger: slog.Default(), normalize: symbolic.Normalize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Prover) env(symbols map[string]model.Domain) symbolic.Env {
	return symbolic.Env{Domains: symbols, Default: p.cfg.DefaultDomain}
}

func (p *Prover) limits() symbolic.Limits {
	return symbolic.Limits{MaxTerms: p.cfg.MaxTerms}
}

// Prove classifies one statement. It never returns an error: every failure is
// captured in the result so the other statements of a run are unaffected.
func (p *Prover) Prove(ctx context.Context, st model.Statement) model.VerificationResult {
	var key string
	if p.cache != nil {
		key = p.cacheKey(st)
		if r, ok := p.cache.Get(key); ok {
			r.ID, r.Family = st.ID, st.Family
			p.logger.Debug("verdict from cache", "id", st.ID, "outcome", r.Outcome)
			return r
		}
	}

	res := p.prove(ctx, st)

	if p.cache != nil {
		p.cache.Set(key, res)
	}
	return res
}

// cacheKey covers everything the verdict depends on except the id.
func (p *Prover) cacheKey(st model.Statement) string {
	names := make([]string, 0, len(st.Symbols))
	for name := range st.Symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	decl := make([]string, len(names))
	for i, name := range names {
		decl[i] = name + ":" + string(st.Symbols[name])
	}
	return cache.CacheKey(
		st.Left, st.Right, string(st.Relation), strings.Join(decl, ","),
		string(p.cfg.DefaultDomain),
		strconv.Itoa(p.cfg.MaxTerms),
		strconv.FormatBool(p.cfg.NumericFallback),
		strconv.Itoa(p.cfg.NumericSamples),
	)
}

func (p *Prover) prove(ctx context.Context, st model.Statement) model.VerificationResult {
	res := model.VerificationResult{ID: st.ID, Family: st.Family, Relation: st.Relation}

	if st.Relation.Kind() != model.KindIdentity {
		return record(res, st)
	}

	left, err := symbolic.Parse(st.Left)
	if err != nil {
		return malformed(res, "left", err)
	}
	right, err := symbolic.Parse(st.Right)
	if err != nil {
		return malformed(res, "right", err)
	}
	difference := symbolic.Sub(left, right)
	res.Difference = difference.String()

	pl, err := planFor(left, right)
	if err != nil {
		return malformed(res, "statement", err)
	}
	res.Steps = []string{"difference: " + res.Difference, "method: " + pl.method}
	if reasons := pl.unsupported(); len(reasons) > 0 {
		res.Outcome = model.OutcomeInconclusive
		res.Reasons = reasons
		return res
	}

	env := p.env(st.Symbols)
	sctx, cancel := ctx, context.CancelFunc(func() {})
	if p.cfg.Timeout > 0 {
		sctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
	}
	defer cancel()

	forms := make([]*symbolic.Form, len(pl.obligations))
	rec := panics.Try(func() {
		for i, ob := range pl.obligations {
			forms[i], err = p.normalize(sctx, ob.residual, env, p.limits())
			if err != nil {
				return
			}
		}
	})
	if rec != nil {
		perr := &InternalProverError{ID: st.ID, Value: rec.Value, Stack: rec.Stack}
		p.logger.Debug("prover panic", "id", st.ID, "stack", string(rec.Stack))
		res.Outcome = model.OutcomeError
		res.ErrorKind = model.ErrorKindInternal
		res.Error = perr.Error()
		return res
	}

	switch {
	case err == nil:
	case errors.Is(err, symbolic.ErrMalformed):
		return malformed(res, "statement", err)
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		res.Outcome = model.OutcomeInconclusive
		if ctx.Err() != nil {
			res.Canceled = true
			res.Reasons = []string{"run canceled before the proof finished"}
			return res
		}
		res.TimedOut = true
		res.Reasons = []string{fmt.Errorf("%w after %s", ErrProofTimeout, p.cfg.Timeout).Error()}
		p.logger.Debug("proof timed out", "id", st.ID, "timeout", p.cfg.Timeout)
		return res
	default:
		// ErrTooLarge, ErrDivisionByZero
		res.Outcome = model.OutcomeInconclusive
		res.Reasons = []string{err.Error()}
		l, r := pl.sides(0, left, right)
		res.Numeric = p.sample(st, l, r, env)
		return res
	}

	return p.classify(sctx, res, st, pl, forms, left, right, env)
}

// classify turns the normal forms of a plan's obligations into a verdict
func (p *Prover) classify(ctx context.Context, res model.VerificationResult, st model.Statement, pl *plan, forms []*symbolic.Form, left, right symbolic.Node, env symbolic.Env) model.VerificationResult {
	var undecided []string
	var residual string
	sampled := -1
	for i, form := range forms {
		ob := pl.obligations[i]
		if form.IsZero() {
			if pl.method != methodSimplification {
				res.Steps = append(res.Steps, ob.label+": 0")
			}
			continue
		}
		text := form.String()
		res.Steps = append(res.Steps, ob.label+": "+text)
		if residual == "" {
			residual = text
		}
		reasons := form.Undecided()
		if sampled < 0 {
			sampled = i
		}
		if len(reasons) > 0 {
			undecided = append(undecided, reasons...)
			continue
		}
		if pl.method != methodInduction || ob.base {
			res.Outcome = model.OutcomeDisproved
			res.Residual = text
			res.Steps = append(res.Steps, "residual is a nonzero expression in independent atoms")
			return res
		}
		// a failed step may still hold at every integer; look for a counterexample
		if cx, text, ok := p.counterexample(ctx, pl, env); ok {
			res.Outcome = model.OutcomeDisproved
			res.Residual = text
			res.Steps = append(res.Steps, "counterexample at "+cx+": "+text)
			return res
		}
		undecided = append(undecided, "inductive step does not close")
	}

	if len(undecided) == 0 {
		res.Outcome = model.OutcomeProved
		res.Residual = "0"
		switch pl.method {
		case methodAntiderivative:
			res.Steps = append(res.Steps, "derivative of the antiderivative matches the integrand, up to a constant")
		case methodInduction:
			res.Steps = append(res.Steps, "base case and inductive step hold")
		default:
			res.Steps = append(res.Steps, "residual is identically zero")
		}
		return res
	}

	sort.Strings(undecided)
	res.Outcome = model.OutcomeInconclusive
	res.Residual = residual
	res.Reasons = dedupe(undecided)
	res.Steps = append(res.Steps, fmt.Errorf("%w: %s", ErrInconclusive, strings.Join(res.Reasons, "; ")).Error())
	l, r := pl.sides(sampled, left, right)
	res.Numeric = p.sample(st, l, r, env)
	return res
}

// counterexample evaluates a sum at the first few concrete upper bounds
func (p *Prover) counterexample(ctx context.Context, pl *plan, env symbolic.Env) (string, string, bool) {
	for _, ob := range pl.sum.instances(pl.closed) {
		form, err := p.normalize(ctx, ob.residual, env, p.limits())
		if err != nil {
			return "", "", false
		}
		if !form.IsZero() && len(form.Undecided()) == 0 {
			return ob.label, form.String(), true
		}
	}
	return "", "", false
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}

// record handles axioms, definitions and regime claims. They are never
// proved, and a side written as prose is kept as text.
func record(res model.VerificationResult, st model.Statement) model.VerificationResult {
	res.Outcome = model.OutcomeAssertion
	switch st.Relation {
	case model.RelationAxiom:
		res.AssertionKind = model.AssertionAxiom
	case model.RelationDefinition:
		res.AssertionKind = model.AssertionDefinition
	default:
		res.AssertionKind = model.AssertionRegime
	}

	leftText, rightText := st.Left, st.Right
	var notes []string
	left, lerr := symbolic.Parse(st.Left)
	if lerr == nil {
		leftText = left.String()
	} else {
		notes = append(notes, fmt.Sprintf("left kept as text: %v", lerr))
	}
	right, rerr := symbolic.Parse(st.Right)
	if rerr == nil {
		rightText = right.String()
	} else {
		notes = append(notes, fmt.Sprintf("right kept as text: %v", rerr))
	}
	if lerr == nil && rerr == nil {
		res.Difference = symbolic.Sub(left, right).String()
	}

	res.Steps = append([]string{fmt.Sprintf("recorded without proof: %s %s %s", leftText, st.Relation, rightText)}, notes...)
	return res
}

func malformed(res model.VerificationResult, side string, err error) model.VerificationResult {
	res.Outcome = model.OutcomeError
	res.ErrorKind = model.ErrorKindMalformedExpression
	res.Error = fmt.Sprintf("%s: %v", side, err)
	res.Residual = ""
	res.Steps = nil
	return res
}

// sample tags an undecided statement by floating-point evaluation. The tag
// never changes the outcome.
func (p *Prover) sample(st model.Statement, left, right symbolic.Node, env symbolic.Env) model.NumericCheck {
	if !p.cfg.NumericFallback || p.cfg.NumericSamples <= 0 {
		return ""
	}
	l, err := symbolic.Resolve(left)
	if err != nil {
		return ""
	}
	r, err := symbolic.Resolve(right)
	if err != nil {
		return ""
	}
	switch symbolic.Sample(l, r, env, p.cfg.NumericSamples, seed(st)) {
	case symbolic.AgreementPlausible:
		return model.NumericPlausible
	case symbolic.AgreementImplausible:
		return model.NumericImplausible
	}
	return ""
}

// sides returns what sampling compares: the statement sides for a plain
// identity, otherwise the given obligation against zero.
func (pl *plan) sides(i int, left, right symbolic.Node) (symbolic.Node, symbolic.Node) {
	if pl.method == methodSimplification {
		return left, right
	}
	return pl.obligations[i].residual, &symbolic.Number{Value: new(big.Rat)}
}

// seed derives the sampling seed from the statement content, so reruns and
// cache hits agree.
func seed(st model.Statement) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(st.Left))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(st.Right))
	return h.Sum64()
}

// Simplify normalizes one expression under the prover's budget
func (p *Prover) Simplify(ctx context.Context, expr string, symbols map[string]model.Domain) (*symbolic.Form, error) {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}
	f, err := symbolic.Simplify(ctx, expr, p.env(symbols), p.limits())
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w after %s", ErrProofTimeout, p.cfg.Timeout)
	}
	return f, err
}
