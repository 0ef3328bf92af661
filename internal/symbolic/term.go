package symbolic

import (
	"math/big"
	"sort"
	"strings"

	"github.com/ppiankov/eqverify/internal/model"
)

type atomKind int

const (
	kindPi atomKind = iota
	kindSymbol
	kindConj     // conj(z) for a complex symbol z
	kindAbs      // |x| for a real or complex symbol x
	kindLog      // ln(x) for a symbol x
	kindLogConst // ln(p) for a prime p
	kindRoot     // B^(1/q) for a monomial B
	kindOpaque   // anything the kernel does not interpret
)

// atom is an indivisible factor of a monomial. Atoms with equal keys are the
// same value.
type atom struct {
	kind     atomKind
	name     string
	domain   model.Domain
	prime    *big.Int
	base     *term
	q        int64
	positive bool
	compound bool // text needs parentheses when raised to a power
	reason   string
	key      string
	text     string
}

var piAtom = &atom{kind: kindPi, key: "0pi", text: "pi", positive: true}

func symbolAtom(name string, d model.Domain) *atom {
	return &atom{kind: kindSymbol, name: name, domain: d, key: "1" + name + "\x00", text: name}
}

func conjAtom(name string) *atom {
	return &atom{kind: kindConj, name: name, domain: model.DomainComplex, key: "1" + name + "\x01", text: "conj(" + name + ")"}
}

func absAtom(name string, d model.Domain) *atom {
	return &atom{kind: kindAbs, name: name, domain: d, key: "1" + name + "\x02", text: "abs(" + name + ")", positive: true}
}

func logAtom(name string, d model.Domain) *atom {
	return &atom{kind: kindLog, name: name, domain: d, key: "2" + name, text: "ln(" + name + ")"}
}

func logConstAtom(p *big.Int) *atom {
	s := p.String()
	return &atom{kind: kindLogConst, prime: p, key: "3" + s, text: "ln(" + s + ")", positive: true}
}

// rootAtom is the principal q-th root of the monomial b. b never carries an
// exponential or another root.
func rootAtom(b *term, q int64) *atom {
	bs := b.String()
	if !b.simple() {
		bs = "(" + bs + ")"
	}
	text := bs + "^(1/" + big.NewInt(q).String() + ")"
	positive := b.isPositive()
	return &atom{kind: kindRoot, base: b, q: q, positive: positive, compound: true, key: "4" + text, text: text}
}

func opaqueAtom(text, reason string, positive, compound bool) *atom {
	return &atom{kind: kindOpaque, text: text, reason: reason, positive: positive, compound: compound, key: "5" + text}
}

func (a *atom) isPositive() bool {
	switch a.kind {
	case kindPi, kindAbs, kindLogConst:
		return true
	case kindSymbol:
		return a.domain == model.DomainPositive
	case kindRoot, kindOpaque:
		return a.positive
	}
	return false
}

func (a *atom) isReal() bool {
	switch a.kind {
	case kindSymbol:
		return a.domain != model.DomainComplex
	case kindLog:
		return a.domain == model.DomainPositive
	}
	return a.isPositive()
}

type factor struct {
	a *atom
	e *big.Rat
}

func (f factor) String() string {
	s := f.a.text
	if f.e.Cmp(ratOne) == 0 {
		return s
	}
	if f.a.compound {
		s = "(" + s + ")"
	}
	return s + "^" + ratString(f.e)
}

// term is a monomial coef * sqrt(rad) * prod(atom^e) * exp(exp).
type term struct {
	coef gauss
	rad  *big.Int
	facs []factor
	exp  poly
	key  string // identifies the monomial up to its coefficient
}

func newTerm(c gauss, rad *big.Int, facs []factor, exp poly) *term {
	t := &term{coef: c, rad: rad, facs: facs, exp: exp}
	var b strings.Builder
	for _, f := range facs {
		b.WriteString(f.a.key)
		b.WriteByte('^')
		b.WriteString(f.e.RatString())
		b.WriteByte(';')
	}
	b.WriteByte(0)
	if rad.Cmp(bigOne) != 0 {
		b.WriteString(rad.String())
	}
	b.WriteByte(0)
	if len(exp) > 0 {
		b.WriteString("E{")
		b.WriteString(exp.key())
		b.WriteByte('}')
	}
	t.key = b.String()
	return t
}

func constTerm(c gauss) *term {
	return newTerm(c, big.NewInt(1), nil, nil)
}

func (t *term) withCoef(c gauss) *term {
	return &term{coef: c, rad: t.rad, facs: t.facs, exp: t.exp, key: t.key}
}

// isConst reports whether t is a plain Gaussian rational.
func (t *term) isConst() bool {
	return t.rad.Cmp(bigOne) == 0 && len(t.facs) == 0 && len(t.exp) == 0
}

// isAlgebraic reports whether t has no atoms and no exponential.
func (t *term) isAlgebraic() bool {
	return len(t.facs) == 0 && len(t.exp) == 0
}

func (t *term) isPositive() bool {
	if !t.coef.isReal() || t.coef.re.Sign() <= 0 {
		return false
	}
	for _, f := range t.facs {
		if !f.a.isPositive() {
			return false
		}
	}
	return len(t.exp) == 0 || t.exp.isReal()
}

func (t *term) isReal() bool {
	if !t.coef.isReal() {
		return false
	}
	for _, f := range t.facs {
		if !f.a.isReal() {
			return false
		}
	}
	return len(t.exp) == 0 || t.exp.isReal()
}

// simple reports whether the printed term is a single token.
func (t *term) simple() bool {
	parts := 0
	if t.rad.Cmp(bigOne) != 0 {
		parts++
	}
	parts += len(t.facs)
	if len(t.exp) > 0 {
		parts++
	}
	if parts == 0 {
		return t.coef.isReal() && t.coef.re.IsInt() && t.coef.re.Sign() >= 0
	}
	return parts == 1 && t.coef.isOne() && (len(t.facs) == 0 || t.facs[0].e.Cmp(ratOne) == 0)
}

func (t *term) String() string {
	var parts []string
	if t.rad.Cmp(bigOne) != 0 {
		parts = append(parts, "sqrt("+t.rad.String()+")")
	}
	for _, f := range t.facs {
		parts = append(parts, f.String())
	}
	if len(t.exp) > 0 {
		parts = append(parts, "exp("+t.exp.String()+")")
	}
	if len(parts) == 0 {
		return t.coef.String()
	}
	body := strings.Join(parts, "*")
	switch {
	case t.coef.isOne():
		return body
	case t.coef.isMinusOne():
		return "-" + body
	}
	return t.coef.String() + "*" + body
}

// poly is a sum of terms sorted by key with no zero coefficients and no
// repeated keys.
type poly []*term

func (p poly) key() string {
	var b strings.Builder
	for _, t := range p {
		b.WriteString(t.coef.String())
		b.WriteByte('*')
		b.WriteString(t.key)
		b.WriteByte(';')
	}
	return b.String()
}

func (p poly) String() string {
	if len(p) == 0 {
		return "0"
	}
	var b strings.Builder
	for i, t := range p {
		s := t.String()
		switch {
		case i == 0:
			b.WriteString(s)
		case strings.HasPrefix(s, "-"):
			b.WriteString(" - ")
			b.WriteString(s[1:])
		default:
			b.WriteString(" + ")
			b.WriteString(s)
		}
	}
	return b.String()
}

func (p poly) equal(q poly) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i].key != q[i].key || !p[i].coef.equal(q[i].coef) {
			return false
		}
	}
	return true
}

func (p poly) isReal() bool {
	for _, t := range p {
		if !t.isReal() {
			return false
		}
	}
	return true
}

func collect(acc map[string]*term) poly {
	out := make(poly, 0, len(acc))
	for _, t := range acc {
		if !t.coef.isZero() {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

// polyOf sums arbitrary terms into a canonical poly.
func polyOf(ts ...*term) poly {
	acc := make(map[string]*term, len(ts))
	for _, t := range ts {
		if t == nil {
			continue
		}
		if prev, ok := acc[t.key]; ok {
			acc[t.key] = prev.withCoef(prev.coef.add(t.coef))
			continue
		}
		acc[t.key] = t
	}
	return collect(acc)
}

func scalePoly(p poly, g gauss) poly {
	if g.isZero() {
		return nil
	}
	out := make(poly, len(p))
	for i, t := range p {
		out[i] = t.withCoef(t.coef.mul(g))
	}
	return out
}

// mono accumulates a product before it is sealed into a term.
type mono struct {
	coef gauss
	rad  *big.Int
	facs map[string]factor
	exp  poly
}

func newMono(c gauss) *mono {
	return &mono{coef: c, rad: big.NewInt(1), facs: map[string]factor{}}
}

func monoOf(t *term) *mono {
	m := newMono(t.coef)
	m.rad = t.rad
	for _, f := range t.facs {
		m.facs[f.a.key] = f
	}
	m.exp = t.exp
	return m
}

func (m *mono) mulCoef(g gauss) { m.coef = m.coef.mul(g) }

func (m *mono) mulRat(r *big.Rat) { m.coef = m.coef.scale(r) }

func (m *mono) mulRad(r *big.Int) {
	if r.Cmp(bigOne) == 0 {
		return
	}
	g, nr := radMul(m.rad, r)
	m.coef = m.coef.scale(new(big.Rat).SetInt(g))
	m.rad = nr
}

func (m *mono) mulFactor(a *atom, e *big.Rat) {
	if e.Sign() == 0 {
		return
	}
	if f, ok := m.facs[a.key]; ok {
		s := new(big.Rat).Add(f.e, e)
		if s.Sign() == 0 {
			delete(m.facs, a.key)
			return
		}
		m.facs[a.key] = factor{a: f.a, e: s}
		return
	}
	m.facs[a.key] = factor{a: a, e: new(big.Rat).Set(e)}
}

func (m *mono) mulConstPow(cp constPow) {
	m.mulRat(cp.coef)
	m.mulRad(cp.rad)
	if cp.root != nil {
		m.mulFactor(rootAtom(constTerm(gaussRat(cp.root)), cp.q), ratOne)
	}
}

// mulTerm multiplies t^k into m.
func (m *mono) mulTerm(n *normalizer, t *term, k int64) {
	m.mulCoef(t.coef.pow(k))
	if t.rad.Cmp(bigOne) != 0 {
		half := floorRat(big.NewRat(k, 2)).Int64()
		m.mulRat(ratPowInt(new(big.Rat).SetInt(t.rad), half))
		if k-2*half == 1 {
			m.mulRad(t.rad)
		}
	}
	bk := big.NewRat(k, 1)
	for _, f := range t.facs {
		m.mulFactor(f.a, new(big.Rat).Mul(f.e, bk))
	}
	if len(t.exp) > 0 {
		m.exp = n.addPoly(m.exp, scalePoly(t.exp, gaussInt(k)))
	}
}

func (m *mono) sorted() []factor {
	out := make([]factor, 0, len(m.facs))
	for _, f := range m.facs {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].a.key < out[j].a.key })
	return out
}

// finish reduces the exponential, roots and absolute values and seals the
// product. It returns nil for zero.
func (m *mono) finish(n *normalizer) *term {
	if m.coef.isZero() {
		return nil
	}
	if len(m.exp) > 0 {
		n.reduceExp(m)
	}
	for _, f := range m.sorted() {
		if f.a.kind != kindRoot {
			continue
		}
		// (B^(1/q))^e = B^k * (B^(1/q))^(e - kq)
		k := floorRat(new(big.Rat).Quo(f.e, big.NewRat(f.a.q, 1)))
		if k.Sign() == 0 {
			continue
		}
		m.mulFactor(f.a, new(big.Rat).SetInt(new(big.Int).Mul(k, big.NewInt(-f.a.q))))
		m.mulTerm(n, f.a.base, k.Int64())
	}
	for _, f := range m.sorted() {
		if f.a.kind != kindAbs {
			continue
		}
		// |x|^e = |x|^(e-2k) * (x conj(x))^k, keeping e-2k in [0, 2)
		k := floorRat(new(big.Rat).Quo(f.e, big.NewRat(2, 1)))
		if k.Sign() == 0 {
			continue
		}
		rk := new(big.Rat).SetInt(k)
		m.mulFactor(f.a, new(big.Rat).Mul(rk, big.NewRat(-2, 1)))
		if f.a.domain == model.DomainReal {
			m.mulFactor(symbolAtom(f.a.name, f.a.domain), new(big.Rat).Mul(rk, big.NewRat(2, 1)))
			continue
		}
		m.mulFactor(symbolAtom(f.a.name, f.a.domain), rk)
		m.mulFactor(conjAtom(f.a.name), rk)
	}
	if m.coef.isZero() {
		return nil
	}
	return newTerm(m.coef, m.rad, m.sorted(), m.exp)
}
