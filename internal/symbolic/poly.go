package symbolic

import (
	"fmt"
	"math/big"
	"strings"
)

// maxExponent bounds integer powers so coefficients stay tractable.
const maxExponent = 4096

func (n *normalizer) addPoly(a, b poly) poly {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := make(poly, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		n.tick()
		switch c := strings.Compare(a[i].key, b[j].key); {
		case c < 0:
			out = append(out, a[i])
			i++
		case c > 0:
			out = append(out, b[j])
			j++
		default:
			if s := a[i].coef.add(b[j].coef); !s.isZero() {
				out = append(out, a[i].withCoef(s))
			}
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	n.checkSize(len(out))
	return out
}

func (n *normalizer) mulTerms(a, b *term) *term {
	m := monoOf(a)
	m.mulTerm(n, b, 1)
	return m.finish(n)
}

func (n *normalizer) powTerm(t *term, k int64) *term {
	m := newMono(gaussInt(1))
	m.mulTerm(n, t, k)
	return m.finish(n)
}

func (n *normalizer) mulPoly(a, b poly) poly {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	acc := make(map[string]*term, len(a)*len(b))
	for _, x := range a {
		for _, y := range b {
			n.tick()
			t := n.mulTerms(x, y)
			if t == nil {
				continue
			}
			if prev, ok := acc[t.key]; ok {
				acc[t.key] = prev.withCoef(prev.coef.add(t.coef))
				continue
			}
			acc[t.key] = t
			n.checkSize(len(acc))
		}
	}
	return collect(acc)
}

func (n *normalizer) powPoly(p poly, k int64) poly {
	if len(p) == 1 {
		if t := n.powTerm(p[0], k); t != nil {
			return poly{t}
		}
		return nil
	}
	result := poly{constTerm(gaussInt(1))}
	base := p
	for k > 0 {
		if k&1 == 1 {
			result = n.mulPoly(result, base)
		}
		k >>= 1
		if k > 0 {
			base = n.mulPoly(base, base)
		}
	}
	return result
}

// Form is a normalized expression num/den. den is nil when the expression is
// a Laurent polynomial; a single-term denominator is always folded into num.
type Form struct {
	num, den poly
}

func constForm(g gauss) *Form {
	if g.isZero() {
		return &Form{}
	}
	return &Form{num: poly{constTerm(g)}}
}

func termForm(t *term) *Form {
	if t == nil {
		return &Form{}
	}
	return &Form{num: poly{t}}
}

func atomForm(a *atom) *Form {
	return termForm(newTerm(gaussInt(1), big.NewInt(1), []factor{{a: a, e: big.NewRat(1, 1)}}, nil))
}

// IsZero reports whether the form is identically zero.
func (f *Form) IsZero() bool { return len(f.num) == 0 }

func (f *Form) String() string {
	num := f.num.String()
	if f.den == nil {
		return num
	}
	if len(f.num) > 1 {
		num = "(" + num + ")"
	}
	return num + "/(" + f.den.String() + ")"
}

// monomial returns the form as a single nonzero term.
func (f *Form) monomial() (*term, bool) {
	if f.den != nil || len(f.num) != 1 {
		return nil, false
	}
	return f.num[0], true
}

// rational returns the form as a real rational constant.
func (f *Form) rational() (*big.Rat, bool) {
	if f.den != nil {
		return nil, false
	}
	if len(f.num) == 0 {
		return new(big.Rat), true
	}
	t := f.num[0]
	if len(f.num) != 1 || !t.isConst() || !t.coef.isReal() {
		return nil, false
	}
	return t.coef.re, true
}

func (f *Form) isReal() bool {
	return f.num.isReal() && f.den.isReal()
}

func (n *normalizer) fold(f *Form) *Form {
	if f.den != nil && len(f.den) == 1 {
		inv := n.powTerm(f.den[0], -1)
		return &Form{num: n.mulPoly(f.num, poly{inv})}
	}
	return f
}

func (n *normalizer) add(a, b *Form) *Form {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	case a.den == nil && b.den == nil:
		return &Form{num: n.addPoly(a.num, b.num)}
	case a.den != nil && b.den != nil && a.den.equal(b.den):
		return n.fold(&Form{num: n.addPoly(a.num, b.num), den: a.den})
	}
	num := n.addPoly(n.mulPoly(a.num, denOf(b)), n.mulPoly(b.num, denOf(a)))
	return n.fold(&Form{num: num, den: n.mulPoly(denOf(a), denOf(b))})
}

func (n *normalizer) neg(a *Form) *Form {
	return &Form{num: scalePoly(a.num, gaussInt(-1)), den: a.den}
}

func (n *normalizer) sub(a, b *Form) *Form {
	return n.add(a, n.neg(b))
}

func (n *normalizer) mul(a, b *Form) *Form {
	if a.IsZero() || b.IsZero() {
		return &Form{}
	}
	f := &Form{num: n.mulPoly(a.num, b.num)}
	switch {
	case a.den == nil:
		f.den = b.den
	case b.den == nil:
		f.den = a.den
	default:
		f.den = n.mulPoly(a.den, b.den)
	}
	return n.fold(f)
}

func (n *normalizer) div(a, b *Form) *Form {
	if b.IsZero() {
		n.fail(ErrDivisionByZero)
	}
	if a.IsZero() {
		return &Form{}
	}
	return n.fold(&Form{num: n.mulPoly(a.num, denOf(b)), den: n.mulPoly(denOf(a), b.num)})
}

func (n *normalizer) scale(a *Form, g gauss) *Form {
	return &Form{num: scalePoly(a.num, g), den: a.den}
}

func (n *normalizer) powInt(f *Form, k int64) *Form {
	if k > maxExponent || k < -maxExponent {
		n.fail(fmt.Errorf("%w: exponent %d", ErrTooLarge, k))
	}
	if k == 0 {
		return constForm(gaussInt(1))
	}
	if k < 0 {
		f = n.div(constForm(gaussInt(1)), f)
		k = -k
	}
	if f.IsZero() {
		return f
	}
	out := &Form{num: n.powPoly(f.num, k)}
	if f.den != nil {
		out.den = n.powPoly(f.den, k)
	}
	return n.fold(out)
}

func denOf(f *Form) poly {
	if f.den == nil {
		return poly{constTerm(gaussInt(1))}
	}
	return f.den
}
