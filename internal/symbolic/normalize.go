package symbolic

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ppiankov/eqverify/internal/model"
)

var (
	// ErrTooLarge is returned when an intermediate result exceeds Limits.MaxTerms.
	ErrTooLarge = errors.New("expression too large")

	// ErrDivisionByZero is returned for a division by an identically zero expression.
	ErrDivisionByZero = errors.New("division by zero")
)

// Env binds symbols to domains.
type Env struct {
	Domains map[string]model.Domain
	Default model.Domain // used for undeclared symbols; complex when empty
}

// Domain returns the domain of the named symbol.
func (e Env) Domain(name string) model.Domain {
	if d, ok := e.Domains[name]; ok {
		return d
	}
	if e.Default != "" {
		return e.Default
	}
	return model.DomainComplex
}

// Limits bounds the work of one normalization.
type Limits struct {
	MaxTerms int // zero means unbounded
}

type normalizer struct {
	ctx      context.Context
	env      Env
	maxTerms int
	steps    int
}

// abort unwinds a normalization from deep inside the arithmetic.
type abort struct{ err error }

func (n *normalizer) fail(err error) { panic(abort{err: err}) }

func (n *normalizer) tick() {
	n.steps++
	if n.steps&63 == 0 {
		if err := n.ctx.Err(); err != nil {
			n.fail(err)
		}
	}
}

func (n *normalizer) checkSize(k int) {
	if n.maxTerms > 0 && k > n.maxTerms {
		n.fail(fmt.Errorf("%w: more than %d terms", ErrTooLarge, n.maxTerms))
	}
}

// Normalize rewrites x into its exact normal form. The returned error is the
// context error on cancellation or deadline, or wraps ErrTooLarge,
// ErrDivisionByZero or ErrMalformed.
func Normalize(ctx context.Context, x Node, env Env, lim Limits) (f *Form, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resolved, err := Resolve(x)
	if err != nil {
		return nil, err
	}
	n := &normalizer{ctx: ctx, env: env, maxTerms: lim.MaxTerms}
	defer func() {
		if r := recover(); r != nil {
			a, ok := r.(abort)
			if !ok {
				panic(r)
			}
			f, err = nil, a.err
		}
	}()
	return n.eval(resolved), nil
}

// Simplify parses and normalizes src.
func Simplify(ctx context.Context, src string, env Env, lim Limits) (*Form, error) {
	x, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return Normalize(ctx, x, env, lim)
}

func (n *normalizer) eval(x Node) *Form {
	n.tick()
	switch t := x.(type) {
	case *Number:
		return constForm(gaussRat(t.Value))
	case *Symbol:
		return atomForm(symbolAtom(t.Name, n.env.Domain(t.Name)))
	case *Constant:
		switch t.Name {
		case ConstI:
			return constForm(gaussImag(ratOne))
		case ConstPi:
			return atomForm(piAtom)
		}
		return n.exp(constForm(gaussInt(1)))
	case *Neg:
		return n.neg(n.eval(t.X))
	case *Binary:
		switch t.Op {
		case '+':
			return n.add(n.eval(t.Left), n.eval(t.Right))
		case '-':
			return n.sub(n.eval(t.Left), n.eval(t.Right))
		case '*':
			return n.mul(n.eval(t.Left), n.eval(t.Right))
		case '/':
			return n.div(n.eval(t.Left), n.eval(t.Right))
		}
		return n.power(t)
	case *Call:
		return n.call(t)
	}
	n.fail(fmt.Errorf("%w: unknown node %T", ErrMalformed, x))
	return nil
}

func (n *normalizer) power(b *Binary) *Form {
	// |u|^(2k) = (u conj(u))^k holds for sums as well
	if c, ok := b.Left.(*Call); ok && c.Name == "abs" {
		if k, ok := integerValue(b.Right); ok && k != 0 && k%2 == 0 {
			u := n.eval(c.Args[0])
			return n.powInt(n.mul(u, n.conj(u)), k/2)
		}
	}
	if c, ok := b.Left.(*Constant); ok && c.Name == ConstE {
		return n.exp(n.eval(b.Right))
	}
	e := n.eval(b.Right)
	base := n.eval(b.Left)
	if r, ok := e.rational(); ok {
		return n.powRat(base, r)
	}
	if base.IsZero() {
		return atomForm(opaqueAtom("0^("+e.String()+")", "power of zero", false, false))
	}
	// principal power: b^u = exp(u ln b)
	return n.exp(n.mul(e, n.log(base)))
}

func (n *normalizer) call(c *Call) *Form {
	if !IsBuiltin(c.Name) {
		return n.uninterpreted(c)
	}
	u := n.eval(c.Args[0])
	one := constForm(gaussInt(1))
	switch c.Name {
	case "exp":
		return n.exp(u)
	case "ln":
		return n.log(u)
	case "log":
		if len(c.Args) == 2 {
			return n.div(n.log(n.eval(c.Args[1])), n.log(u))
		}
		return n.log(u)
	case "sqrt":
		return n.powRat(u, ratHalf)
	case "sin":
		return n.sin(u)
	case "cos":
		return n.cos(u)
	case "tan":
		return n.div(n.sin(u), n.cos(u))
	case "cot":
		return n.div(n.cos(u), n.sin(u))
	case "sec":
		return n.div(one, n.cos(u))
	case "csc":
		return n.div(one, n.sin(u))
	case "sinh":
		return n.sinh(u)
	case "cosh":
		return n.cosh(u)
	case "tanh":
		return n.div(n.sinh(u), n.cosh(u))
	case "conj":
		return n.conj(u)
	case "abs":
		return n.abs(u)
	case "re":
		return n.scale(n.add(u, n.conj(u)), gaussRat(ratHalf))
	case "im":
		// (u - conj(u)) / 2i
		return n.scale(n.sub(u, n.conj(u)), gaussImag(big.NewRat(-1, 2)))
	}
	n.fail(fmt.Errorf("%w: unresolved %s", ErrMalformed, c.Name))
	return nil
}

// sin(u) = (exp(iu) - exp(-iu)) / 2i
func (n *normalizer) sin(u *Form) *Form {
	iu := n.scale(u, gaussImag(ratOne))
	d := n.sub(n.exp(iu), n.exp(n.neg(iu)))
	return n.scale(d, gaussImag(big.NewRat(-1, 2)))
}

// cos(u) = (exp(iu) + exp(-iu)) / 2
func (n *normalizer) cos(u *Form) *Form {
	iu := n.scale(u, gaussImag(ratOne))
	s := n.add(n.exp(iu), n.exp(n.neg(iu)))
	return n.scale(s, gaussRat(ratHalf))
}

func (n *normalizer) sinh(u *Form) *Form {
	return n.scale(n.sub(n.exp(u), n.exp(n.neg(u))), gaussRat(ratHalf))
}

func (n *normalizer) cosh(u *Form) *Form {
	return n.scale(n.add(n.exp(u), n.exp(n.neg(u))), gaussRat(ratHalf))
}

func (n *normalizer) uninterpreted(c *Call) *Form {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = n.eval(a).String()
	}
	text := c.Name + "(" + strings.Join(args, ", ") + ")"
	return atomForm(opaqueAtom(text, "uninterpreted function "+c.Name, false, false))
}

func (a *atom) isConstant() bool {
	switch a.kind {
	case kindPi, kindLogConst:
		return true
	case kindRoot:
		return a.base.isAlgebraic()
	}
	return false
}

func constantTerm(t *term) bool {
	if len(t.exp) > 0 {
		return false
	}
	for _, f := range t.facs {
		if !f.a.isConstant() {
			return false
		}
	}
	return true
}

// Undecided lists why a nonzero form cannot be called manifestly nonzero.
// An empty list means every atom of the numerator is algebraically
// independent of the others, so a nonzero numerator is a nonzero function.
func (f *Form) Undecided() []string {
	reasons := map[string]bool{}
	var hasPi, hasExpConst, hasLogConst, logPowers bool
	logConsts := map[string]bool{}
	var walk func(p poly, inExp bool)
	walk = func(p poly, inExp bool) {
		for _, t := range p {
			logs := 0
			for _, fa := range t.facs {
				switch fa.a.kind {
				case kindOpaque:
					reasons[fa.a.reason] = true
				case kindRoot:
					reasons["unresolved root"] = true
				case kindPi:
					if !inExp {
						hasPi = true
					}
				case kindLogConst:
					if inExp {
						continue
					}
					hasLogConst = true
					logConsts[fa.a.key] = true
					logs++
					if fa.e.Cmp(ratOne) != 0 {
						logPowers = true
					}
				}
			}
			if logs > 1 {
				reasons["product of logarithm constants"] = true
			}
			if len(t.exp) == 0 {
				continue
			}
			if inExp {
				reasons["nested exponential"] = true
			}
			for _, u := range t.exp {
				switch {
				case isIPiTerm(u):
					reasons["unreduced root of unity"] = true
				case constantTerm(u) && len(u.facs) > 0:
					reasons["transcendental constant in exponent"] = true
				case constantTerm(u) && !inExp:
					hasExpConst = true
				case len(u.facs) == 1 && u.facs[0].a.kind == kindLog:
					reasons["logarithm in exponent"] = true
				}
			}
			walk(t.exp, true)
		}
	}
	walk(f.num, false)
	kinds := 0
	for _, b := range []bool{hasPi, hasExpConst, hasLogConst} {
		if b {
			kinds++
		}
	}
	if kinds > 1 {
		reasons["mixed transcendental constants"] = true
	}
	if len(logConsts) > 1 && logPowers {
		reasons["product of logarithm constants"] = true
	}
	out := make([]string, 0, len(reasons))
	for r := range reasons {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
