package symbolic

import (
	"math/big"
	"strings"
)

// gauss is an exact Gaussian rational re + im*i. Values are never mutated
// after construction.
type gauss struct{ re, im *big.Rat }

func gaussRat(r *big.Rat) gauss {
	return gauss{re: new(big.Rat).Set(r), im: new(big.Rat)}
}

func gaussInt(n int64) gauss {
	return gauss{re: big.NewRat(n, 1), im: new(big.Rat)}
}

func gaussImag(r *big.Rat) gauss {
	return gauss{re: new(big.Rat), im: new(big.Rat).Set(r)}
}

func (g gauss) isZero() bool { return g.re.Sign() == 0 && g.im.Sign() == 0 }
func (g gauss) isReal() bool { return g.im.Sign() == 0 }

func (g gauss) isOne() bool {
	return g.im.Sign() == 0 && g.re.Cmp(ratOne) == 0
}

func (g gauss) isMinusOne() bool {
	return g.im.Sign() == 0 && g.re.Cmp(ratMinusOne) == 0
}

func (g gauss) add(h gauss) gauss {
	return gauss{re: new(big.Rat).Add(g.re, h.re), im: new(big.Rat).Add(g.im, h.im)}
}

func (g gauss) neg() gauss {
	return gauss{re: new(big.Rat).Neg(g.re), im: new(big.Rat).Neg(g.im)}
}

func (g gauss) conj() gauss {
	return gauss{re: new(big.Rat).Set(g.re), im: new(big.Rat).Neg(g.im)}
}

func (g gauss) mul(h gauss) gauss {
	re := new(big.Rat).Mul(g.re, h.re)
	re.Sub(re, new(big.Rat).Mul(g.im, h.im))
	im := new(big.Rat).Mul(g.re, h.im)
	im.Add(im, new(big.Rat).Mul(g.im, h.re))
	return gauss{re: re, im: im}
}

func (g gauss) scale(r *big.Rat) gauss {
	return gauss{re: new(big.Rat).Mul(g.re, r), im: new(big.Rat).Mul(g.im, r)}
}

// normSq returns re^2 + im^2.
func (g gauss) normSq() *big.Rat {
	n := new(big.Rat).Mul(g.re, g.re)
	return n.Add(n, new(big.Rat).Mul(g.im, g.im))
}

// inv panics on zero; callers check first.
func (g gauss) inv() gauss {
	d := g.normSq()
	return gauss{re: new(big.Rat).Quo(g.re, d), im: new(big.Rat).Neg(new(big.Rat).Quo(g.im, d))}
}

func (g gauss) pow(k int64) gauss {
	if k < 0 {
		return g.inv().pow(-k)
	}
	result := gaussInt(1)
	base := g
	for k > 0 {
		if k&1 == 1 {
			result = result.mul(base)
		}
		base = base.mul(base)
		k >>= 1
	}
	return result
}

func (g gauss) equal(h gauss) bool {
	return g.re.Cmp(h.re) == 0 && g.im.Cmp(h.im) == 0
}

func (g gauss) String() string {
	switch {
	case g.im.Sign() == 0:
		return g.re.RatString()
	case g.re.Sign() == 0:
		return imagString(g.im)
	}
	im := imagString(new(big.Rat).Abs(g.im))
	if g.im.Sign() < 0 {
		return "(" + g.re.RatString() + " - " + im + ")"
	}
	return "(" + g.re.RatString() + " + " + im + ")"
}

func imagString(r *big.Rat) string {
	switch {
	case r.Cmp(ratOne) == 0:
		return "i"
	case r.Cmp(ratMinusOne) == 0:
		return "-i"
	}
	return r.RatString() + "*i"
}

var (
	ratOne      = big.NewRat(1, 1)
	ratMinusOne = big.NewRat(-1, 1)
	ratHalf     = big.NewRat(1, 2)
	bigOne      = big.NewInt(1)
)

// trialLimit bounds trial division. Cofactors left above it are only accepted
// when their size proves them prime or squarefree.
const trialLimit = 10000

type primePower struct {
	p *big.Int
	e int64
}

// factorize returns the prime factorization of n >= 1. It reports false when
// a cofactor cannot be classified by trial division.
func factorize(n *big.Int) ([]primePower, bool) {
	m := new(big.Int).Set(n)
	var out []primePower
	d := new(big.Int)
	rem := new(big.Int)
	for p := int64(2); p <= trialLimit && m.Cmp(bigOne) > 0; p++ {
		d.SetInt64(p)
		if new(big.Int).Mul(d, d).Cmp(m) > 0 {
			out = append(out, primePower{p: new(big.Int).Set(m), e: 1})
			m.SetInt64(1)
			break
		}
		var e int64
		for {
			q, r := new(big.Int).QuoRem(m, d, rem)
			if r.Sign() != 0 {
				break
			}
			m = q
			e++
		}
		if e > 0 {
			out = append(out, primePower{p: big.NewInt(p), e: e})
		}
	}
	if m.Cmp(bigOne) == 0 {
		return out, true
	}
	limitSq := big.NewInt(trialLimit * trialLimit)
	if m.Cmp(limitSq) < 0 {
		return append(out, primePower{p: m, e: 1}), true
	}
	return nil, false
}

// sqrtSplit writes n >= 1 as s^2 * f with f squarefree.
func sqrtSplit(n *big.Int) (s, f *big.Int, ok bool) {
	s, f = big.NewInt(1), big.NewInt(1)
	m := new(big.Int).Set(n)
	d := new(big.Int)
	rem := new(big.Int)
	for p := int64(2); p <= trialLimit && m.Cmp(bigOne) > 0; p++ {
		d.SetInt64(p)
		if new(big.Int).Mul(d, d).Cmp(m) > 0 {
			break
		}
		var e int64
		for {
			q, r := new(big.Int).QuoRem(m, d, rem)
			if r.Sign() != 0 {
				break
			}
			m = q
			e++
		}
		if e/2 > 0 {
			s.Mul(s, new(big.Int).Exp(d, big.NewInt(e/2), nil))
		}
		if e%2 == 1 {
			f.Mul(f, d)
		}
	}
	if m.Cmp(bigOne) == 0 {
		return s, f, true
	}
	if r := new(big.Int).Sqrt(m); new(big.Int).Mul(r, r).Cmp(m) == 0 {
		return s.Mul(s, r), f, true
	}
	// No prime factor of m is below trialLimit, so below trialLimit^3 it has
	// at most two, and they are distinct since m is not a square.
	limitCube := new(big.Int).Exp(big.NewInt(trialLimit), big.NewInt(3), nil)
	if m.Cmp(limitCube) < 0 {
		return s, f.Mul(f, m), true
	}
	return nil, nil, false
}

// iroot returns the q-th root of n >= 0 when n is a perfect q-th power.
func iroot(n *big.Int, q int64) (*big.Int, bool) {
	if q == 1 || n.Sign() == 0 || n.Cmp(bigOne) == 0 {
		return new(big.Int).Set(n), true
	}
	if q == 2 {
		r := new(big.Int).Sqrt(n)
		return r, new(big.Int).Mul(r, r).Cmp(n) == 0
	}
	bq := big.NewInt(q)
	lo := big.NewInt(1)
	hi := new(big.Int).Lsh(bigOne, uint(n.BitLen()/int(q)+1))
	for lo.Cmp(hi) <= 0 {
		mid := new(big.Int).Add(lo, hi)
		mid.Rsh(mid, 1)
		c := new(big.Int).Exp(mid, bq, nil).Cmp(n)
		switch {
		case c == 0:
			return mid, true
		case c < 0:
			lo = mid.Add(mid, bigOne)
		default:
			hi = mid.Sub(mid, bigOne)
		}
	}
	return nil, false
}

// ratPowInt raises r to an integer power.
func ratPowInt(r *big.Rat, k int64) *big.Rat {
	if k < 0 {
		return ratPowInt(new(big.Rat).Inv(r), -k)
	}
	e := big.NewInt(k)
	num := new(big.Int).Exp(r.Num(), e, nil)
	den := new(big.Int).Exp(r.Denom(), e, nil)
	return new(big.Rat).SetFrac(num, den)
}

// constPow is c^(p/q) for a positive rational c, written as coef*sqrt(rad)
// when that is exact, or as coef * root^(1/q) otherwise.
type constPow struct {
	coef *big.Rat
	rad  *big.Int
	root *big.Rat
	q    int64
}

func ratRoot(c *big.Rat, p, q int64) constPow {
	base := ratPowInt(c, p)
	if q == 1 {
		return constPow{coef: base, rad: big.NewInt(1)}
	}
	rn, okn := iroot(base.Num(), q)
	rd, okd := iroot(base.Denom(), q)
	if okn && okd {
		return constPow{coef: new(big.Rat).SetFrac(rn, rd), rad: big.NewInt(1)}
	}
	if q == 2 {
		// sqrt(n/d) = sqrt(n*d)/d
		nd := new(big.Int).Mul(base.Num(), base.Denom())
		if s, f, ok := sqrtSplit(nd); ok {
			return constPow{coef: new(big.Rat).SetFrac(s, base.Denom()), rad: f}
		}
	}
	return constPow{coef: big.NewRat(1, 1), rad: big.NewInt(1), root: base, q: q}
}

// radMul multiplies sqrt(a)*sqrt(b) for squarefree a, b into g*sqrt(r).
func radMul(a, b *big.Int) (g, r *big.Int) {
	g = new(big.Int).GCD(nil, nil, a, b)
	r = new(big.Int).Quo(a, g)
	r.Mul(r, new(big.Int).Quo(b, g))
	return g, r
}

// floorRat returns floor(r).
func floorRat(r *big.Rat) *big.Int {
	q := new(big.Int)
	m := new(big.Int)
	q.DivMod(r.Num(), r.Denom(), m)
	return q
}

func ratString(r *big.Rat) string {
	s := r.RatString()
	if strings.Contains(s, "/") || r.Sign() < 0 {
		return "(" + s + ")"
	}
	return s
}
