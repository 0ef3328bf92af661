package symbolic

import (
	"math/big"

	"github.com/ppiankov/eqverify/internal/model"
)

// isIPiTerm matches q*i*pi.
func isIPiTerm(t *term) bool {
	return len(t.facs) == 1 && t.facs[0].a.kind == kindPi && t.facs[0].e.Cmp(ratOne) == 0 &&
		t.rad.Cmp(bigOne) == 0 && len(t.exp) == 0 && t.coef.re.Sign() == 0
}

// singleAtomTerm matches c*a for a real rational c and an atom of kind k.
func singleAtomTerm(t *term, k atomKind) bool {
	return len(t.facs) == 1 && t.facs[0].a.kind == k && t.facs[0].e.Cmp(ratOne) == 0 &&
		t.rad.Cmp(bigOne) == 0 && len(t.exp) == 0 && t.coef.isReal()
}

// reduceExp pulls the algebraic parts out of exp(L):
// exp(i*pi*q) for half-integer q, exp(c*ln p) and exp(k*ln x).
func (n *normalizer) reduceExp(m *mono) {
	var keep []*term
	q := new(big.Rat)
	changed := false
	for _, t := range m.exp {
		switch {
		case isIPiTerm(t):
			q.Add(q, t.coef.im)
			changed = true
		case singleAtomTerm(t, kindLogConst):
			c := t.coef.re
			two := new(big.Rat).Mul(c, big.NewRat(2, 1))
			if !two.IsInt() || two.Num().CmpAbs(big.NewInt(2*maxExponent)) > 0 {
				keep = append(keep, t)
				continue
			}
			// p^c with 2c integral
			m.mulConstPow(ratRoot(new(big.Rat).SetInt(t.facs[0].a.prime), two.Num().Int64(), 2))
			changed = true
		case singleAtomTerm(t, kindLog):
			a := t.facs[0].a
			c := t.coef.re
			if (!c.IsInt() && a.domain != model.DomainPositive) || c.Num().BitLen() > 16 || c.Denom().BitLen() > 16 {
				keep = append(keep, t)
				continue
			}
			m.mulFactor(symbolAtom(a.name, a.domain), c)
			changed = true
		default:
			keep = append(keep, t)
		}
	}
	if !changed {
		return
	}
	if q.Sign() != 0 {
		two := new(big.Rat).Mul(q, big.NewRat(2, 1))
		if two.IsInt() {
			// exp(i*pi*k/2) = i^k
			k := new(big.Int).Mod(two.Num(), big.NewInt(4)).Int64()
			m.mulCoef(gaussImag(ratOne).pow(k))
		} else {
			// keep q in (-1, 1]
			shift := floorRat(new(big.Rat).Quo(new(big.Rat).Add(q, ratOne), big.NewRat(2, 1)))
			q.Sub(q, new(big.Rat).SetInt(shift.Mul(shift, big.NewInt(2))))
			ipi := newTerm(gaussImag(q), big.NewInt(1), []factor{{a: piAtom, e: big.NewRat(1, 1)}}, nil)
			keep = append(keep, ipi)
		}
	}
	m.exp = polyOf(keep...)
}

// exp returns exp(f).
func (n *normalizer) exp(f *Form) *Form {
	if f.IsZero() {
		return constForm(gaussInt(1))
	}
	if f.den != nil {
		return atomForm(opaqueAtom("exp("+f.String()+")", "exponential of a rational function", f.isReal(), false))
	}
	m := newMono(gaussInt(1))
	m.exp = f.num
	return termForm(m.finish(n))
}

// log returns the principal logarithm of f. Positive factors split off; what
// is left must be a unit, a lone symbol or it stays an opaque atom.
func (n *normalizer) log(f *Form) *Form {
	if f.IsZero() {
		n.fail(ErrDivisionByZero)
	}
	t, ok := f.monomial()
	if !ok {
		return atomForm(opaqueAtom("ln("+f.String()+")", "logarithm of a sum", false, false))
	}
	out := &Form{}
	rest := newMono(gaussInt(1))
	var unit int64 // i^unit left over from the coefficient
	c := t.coef
	switch {
	case c.isReal() && c.re.Sign() > 0:
		out = n.add(out, n.logRat(c.re))
	case c.isReal():
		out = n.add(out, n.logRat(new(big.Rat).Neg(c.re)))
		unit = 2
	case c.re.Sign() == 0:
		out = n.add(out, n.logRat(new(big.Rat).Abs(c.im)))
		unit = 1
		if c.im.Sign() < 0 {
			unit = 3
		}
	default:
		rest.coef = c
	}
	if t.rad.Cmp(bigOne) != 0 {
		out = n.add(out, n.scale(n.logRat(new(big.Rat).SetInt(t.rad)), gaussRat(ratHalf)))
	}
	for _, fa := range t.facs {
		a := fa.a
		switch {
		case a.kind == kindSymbol && a.domain == model.DomainPositive:
			out = n.add(out, n.scale(atomForm(logAtom(a.name, a.domain)), gaussRat(fa.e)))
		case a.isPositive():
			la := opaqueAtom("ln("+a.text+")", "logarithm of a transcendental constant", false, false)
			out = n.add(out, n.scale(atomForm(la), gaussRat(fa.e)))
		default:
			rest.mulFactor(a, fa.e)
		}
	}
	if len(t.exp) > 0 {
		if t.exp.isReal() {
			out = n.add(out, &Form{num: t.exp})
		} else {
			rest.exp = t.exp
		}
	}
	if len(rest.facs) == 0 && len(rest.exp) == 0 {
		if !rest.coef.isOne() {
			return n.add(out, atomForm(opaqueAtom("ln("+rest.coef.String()+")", "logarithm of a complex constant", false, false)))
		}
		// ln(i^k) = i*pi*k/2 for k in {-1, 0, 1, 2}
		k := unit
		if k == 3 {
			k = -1
		}
		ipi := newTerm(gaussImag(big.NewRat(k, 2)), big.NewInt(1), []factor{{a: piAtom, e: big.NewRat(1, 1)}}, nil)
		if k == 0 {
			return out
		}
		return n.add(out, termForm(ipi))
	}
	if unit == 0 && rest.coef.isOne() && len(rest.exp) == 0 && len(rest.facs) == 1 {
		for _, fa := range rest.facs {
			if fa.a.kind == kindSymbol && fa.e.Cmp(ratOne) == 0 {
				return n.add(out, atomForm(logAtom(fa.a.name, fa.a.domain)))
			}
		}
	}
	rest.mulCoef(gaussImag(ratOne).pow(unit))
	inner := rest.finish(n)
	return n.add(out, atomForm(opaqueAtom("ln("+inner.String()+")", "logarithm of a composite", false, false)))
}

// logRat splits ln of a positive rational into logarithms of primes.
func (n *normalizer) logRat(r *big.Rat) *Form {
	if r.Cmp(ratOne) == 0 {
		return &Form{}
	}
	num, ok1 := factorize(r.Num())
	den, ok2 := factorize(r.Denom())
	if !ok1 || !ok2 {
		return atomForm(opaqueAtom("ln("+r.RatString()+")", "logarithm of an unfactored integer", false, false))
	}
	var ts []*term
	for _, pp := range num {
		ts = append(ts, newTerm(gaussInt(pp.e), big.NewInt(1), []factor{{a: logConstAtom(pp.p), e: big.NewRat(1, 1)}}, nil))
	}
	for _, pp := range den {
		ts = append(ts, newTerm(gaussInt(-pp.e), big.NewInt(1), []factor{{a: logConstAtom(pp.p), e: big.NewRat(1, 1)}}, nil))
	}
	return &Form{num: polyOf(ts...)}
}

// powRat returns f^r. Integer powers expand; other powers split off every
// positive factor and keep the rest as a root or opaque atom.
func (n *normalizer) powRat(f *Form, r *big.Rat) *Form {
	if r.IsInt() {
		if !r.Num().IsInt64() {
			n.fail(ErrTooLarge)
		}
		return n.powInt(f, r.Num().Int64())
	}
	if f.IsZero() {
		if r.Sign() < 0 {
			n.fail(ErrDivisionByZero)
		}
		return f
	}
	whole := floorRat(r)
	if !whole.IsInt64() {
		n.fail(ErrTooLarge)
	}
	frac := new(big.Rat).Sub(r, new(big.Rat).SetInt(whole))
	t, ok := f.monomial()
	if !ok {
		// (B)^(k + frac) = B^k * B^frac
		a := opaqueAtom("("+f.String()+")^"+ratString(frac), "power of a sum", f.isPositive(), true)
		return n.mul(n.powInt(f, whole.Int64()), atomForm(a))
	}
	return termForm(n.powTermRat(t, r))
}

func (f *Form) isPositive() bool {
	if f.den != nil || len(f.num) == 0 {
		return false
	}
	for _, t := range f.num {
		if !t.isPositive() {
			return false
		}
	}
	return true
}

func (n *normalizer) powTermRat(t *term, r *big.Rat) *term {
	if r.Num().BitLen() > 16 || r.Denom().BitLen() > 16 {
		n.fail(ErrTooLarge)
	}
	p, q := r.Num().Int64(), r.Denom().Int64()
	out := newMono(gaussInt(1))
	rest := newMono(gaussInt(1))
	var unit int64 // i^unit
	c := t.coef
	switch {
	case c.isReal() && c.re.Sign() > 0:
		out.mulConstPow(ratRoot(c.re, p, q))
	case c.isReal():
		out.mulConstPow(ratRoot(new(big.Rat).Neg(c.re), p, q))
		unit = 2
	case c.re.Sign() == 0:
		out.mulConstPow(ratRoot(new(big.Rat).Abs(c.im), p, q))
		unit = 1
		if c.im.Sign() < 0 {
			unit = -1
		}
	default:
		rest.coef = c
	}
	if t.rad.Cmp(bigOne) != 0 {
		out.mulConstPow(ratRoot(new(big.Rat).SetInt(t.rad), p, 2*q))
	}
	for _, fa := range t.facs {
		a := fa.a
		switch {
		case a.isPositive():
			out.mulFactor(a, new(big.Rat).Mul(fa.e, r))
		case a.kind == kindSymbol && a.domain == model.DomainReal && fa.e.IsInt() && fa.e.Num().Bit(0) == 0:
			// x^(2k) = |x|^(2k) for real x
			out.mulFactor(absAtom(a.name, a.domain), new(big.Rat).Mul(fa.e, r))
		default:
			rest.mulFactor(a, fa.e)
		}
	}
	if len(t.exp) > 0 {
		if t.exp.isReal() {
			out.exp = scalePoly(t.exp, gaussRat(r))
		} else {
			rest.exp = t.exp
		}
	}
	if len(rest.facs) == 0 && len(rest.exp) == 0 && rest.coef.isOne() {
		// (i^unit)^r = exp(i*pi*unit*r/2)
		if unit != 0 {
			q := new(big.Rat).Mul(r, big.NewRat(unit, 2))
			ipi := newTerm(gaussImag(q), big.NewInt(1), []factor{{a: piAtom, e: big.NewRat(1, 1)}}, nil)
			out.exp = n.addPoly(out.exp, poly{ipi})
		}
		return out.finish(n)
	}
	rest.mulCoef(gaussImag(ratOne).pow(unit))
	hasRoot := false
	for _, fa := range rest.facs {
		if fa.a.kind == kindRoot {
			hasRoot = true
		}
	}
	whole := floorRat(r)
	frac := new(big.Rat).Sub(r, new(big.Rat).SetInt(whole))
	if len(rest.exp) == 0 && !hasRoot {
		base := rest.finish(n)
		out.mulTerm(n, base, whole.Int64())
		// B^frac = (B^(1/q))^(frac*q)
		k := new(big.Rat).Mul(frac, big.NewRat(q, 1))
		out.mulFactor(rootAtom(base, q), k)
		return out.finish(n)
	}
	base := rest.finish(n)
	out.mulTerm(n, base, whole.Int64())
	out.mulFactor(opaqueAtom("("+base.String()+")^"+ratString(frac), "power of a complex exponential", false, true), ratOne)
	return out.finish(n)
}

// conj returns the complex conjugate of f.
func (n *normalizer) conj(f *Form) *Form {
	out := &Form{num: n.conjPoly(f.num)}
	if f.den != nil {
		out.den = n.conjPoly(f.den)
	}
	return out
}

func (n *normalizer) conjPoly(p poly) poly {
	ts := make([]*term, 0, len(p))
	for _, t := range p {
		n.tick()
		ts = append(ts, n.conjTerm(t))
	}
	return polyOf(ts...)
}

func (n *normalizer) conjTerm(t *term) *term {
	m := newMono(t.coef.conj())
	m.rad = t.rad
	for _, fa := range t.facs {
		m.mulFactor(conjOfAtom(fa.a), fa.e)
	}
	if len(t.exp) > 0 {
		m.exp = n.conjPoly(t.exp)
	}
	return m.finish(n)
}

func conjOfAtom(a *atom) *atom {
	if a.isReal() {
		return a
	}
	switch a.kind {
	case kindSymbol:
		return conjAtom(a.name)
	case kindConj:
		return symbolAtom(a.name, model.DomainComplex)
	}
	return opaqueAtom("conj("+a.text+")", "conjugate of an uninterpreted value", false, false)
}

// abs returns |f| for a monomial f; sums stay opaque.
func (n *normalizer) abs(f *Form) *Form {
	t, ok := f.monomial()
	if !ok {
		if f.IsZero() {
			return f
		}
		if f.isPositive() {
			return f
		}
		return atomForm(opaqueAtom("abs("+f.String()+")", "absolute value of a sum", true, false))
	}
	m := newMono(gaussInt(1))
	if t.coef.isReal() {
		m.mulRat(new(big.Rat).Abs(t.coef.re))
	} else {
		m.mulConstPow(ratRoot(t.coef.normSq(), 1, 2))
	}
	m.mulRad(t.rad)
	for _, fa := range t.facs {
		m.mulFactor(absOfAtom(fa.a), fa.e)
	}
	if len(t.exp) > 0 {
		// |exp(L)| = exp((L + conj(L))/2)
		re := n.addPoly(t.exp, n.conjPoly(t.exp))
		m.exp = scalePoly(re, gaussRat(ratHalf))
	}
	return termForm(m.finish(n))
}

func absOfAtom(a *atom) *atom {
	if a.isPositive() {
		return a
	}
	switch a.kind {
	case kindSymbol, kindConj:
		return absAtom(a.name, a.domain)
	}
	return opaqueAtom("abs("+a.text+")", "absolute value of an uninterpreted value", true, false)
}
