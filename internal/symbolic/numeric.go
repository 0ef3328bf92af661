package symbolic

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"math/rand/v2"
	"sort"

	"github.com/ppiankov/eqverify/internal/model"
)

// ErrNotNumeric is returned when an expression contains a function that has
// no numeric meaning, such as an uninterpreted f(x).
var ErrNotNumeric = errors.New("expression cannot be evaluated numerically")

// Evaluate computes n at the given point in complex128 arithmetic. Derivatives
// must be resolved first.
func Evaluate(n Node, at map[string]complex128) (complex128, error) {
	var e evaluator
	return e.eval(n, at)
}

// evaluator remembers the largest magnitude of any subterm, which bounds the
// rounding error of the result.
type evaluator struct {
	peak float64
}

func (e *evaluator) eval(n Node, at map[string]complex128) (complex128, error) {
	v, err := e.node(n, at)
	if err == nil && finite(v) {
		e.peak = math.Max(e.peak, cmplx.Abs(v))
	}
	return v, err
}

func (e *evaluator) node(n Node, at map[string]complex128) (complex128, error) {
	switch t := n.(type) {
	case *Number:
		f, _ := t.Value.Float64()
		return complex(f, 0), nil
	case *Symbol:
		v, ok := at[t.Name]
		if !ok {
			return 0, fmt.Errorf("%w: no value for %s", ErrNotNumeric, t.Name)
		}
		return v, nil
	case *Constant:
		switch t.Name {
		case ConstI:
			return 1i, nil
		case ConstPi:
			return complex(math.Pi, 0), nil
		}
		return complex(math.E, 0), nil
	case *Neg:
		v, err := e.eval(t.X, at)
		return -v, err
	case *Binary:
		if c, ok := t.Left.(*Constant); ok && c.Name == ConstE && t.Op == '^' {
			v, err := e.eval(t.Right, at)
			return cmplx.Exp(v), err
		}
		l, err := e.eval(t.Left, at)
		if err != nil {
			return 0, err
		}
		r, err := e.eval(t.Right, at)
		if err != nil {
			return 0, err
		}
		switch t.Op {
		case '+':
			return l + r, nil
		case '-':
			return l - r, nil
		case '*':
			return l * r, nil
		case '/':
			return l / r, nil
		}
		if imag(r) == 0 && real(r) == math.Trunc(real(r)) && math.Abs(real(r)) <= 64 {
			return powInt(l, int(real(r))), nil
		}
		return cmplx.Pow(l, r), nil
	case *Call:
		return e.call(t, at)
	}
	return 0, fmt.Errorf("%w: unknown node %T", ErrNotNumeric, n)
}

func powInt(z complex128, k int) complex128 {
	if k < 0 {
		return 1 / powInt(z, -k)
	}
	out := complex(1, 0)
	for ; k > 0; k-- {
		out *= z
	}
	return out
}

func (e *evaluator) call(c *Call, at map[string]complex128) (complex128, error) {
	if !IsBuiltin(c.Name) || c.Name == "diff" {
		return 0, fmt.Errorf("%w: function %s", ErrNotNumeric, c.Name)
	}
	args := make([]complex128, len(c.Args))
	for i, a := range c.Args {
		v, err := e.eval(a, at)
		if err != nil {
			return 0, err
		}
		args[i] = v
	}
	u := args[0]
	switch c.Name {
	case "exp":
		return cmplx.Exp(u), nil
	case "ln":
		return cmplx.Log(u), nil
	case "log":
		if len(args) == 2 {
			return cmplx.Log(args[1]) / cmplx.Log(u), nil
		}
		return cmplx.Log(u), nil
	case "sqrt":
		return cmplx.Sqrt(u), nil
	case "sin":
		return cmplx.Sin(u), nil
	case "cos":
		return cmplx.Cos(u), nil
	case "tan":
		return cmplx.Tan(u), nil
	case "cot":
		return 1 / cmplx.Tan(u), nil
	case "sec":
		return 1 / cmplx.Cos(u), nil
	case "csc":
		return 1 / cmplx.Sin(u), nil
	case "sinh":
		return cmplx.Sinh(u), nil
	case "cosh":
		return cmplx.Cosh(u), nil
	case "tanh":
		return cmplx.Tanh(u), nil
	case "conj":
		return cmplx.Conj(u), nil
	case "abs":
		return complex(cmplx.Abs(u), 0), nil
	case "re":
		return complex(real(u), 0), nil
	case "im":
		return complex(imag(u), 0), nil
	}
	return 0, fmt.Errorf("%w: function %s", ErrNotNumeric, c.Name)
}

// Agreement is the outcome of sampling both sides of an equation.
type Agreement int

const (
	AgreementUnknown Agreement = iota // no sample could be evaluated
	AgreementPlausible
	AgreementImplausible
)

// relTol is the relative tolerance for two samples to count as equal. It is
// taken relative to the largest subterm, so cancellation does not read as
// disagreement.
const relTol = 1e-9

// Sample magnitudes alternate between a small and a large band, the large one
// reaching past pi so branch cuts of ln and periodic functions are crossed.
var sampleBands = [2][2]float64{{0.3, 3}, {3.5, 10}}

// Sample evaluates left and right at samples deterministic points drawn from
// seed. Positive symbols take magnitudes from both bands. Each real symbol
// gets its own sign pattern, a random phase on the bits of the sample index,
// so across samples the signs of up to three symbols run through every
// combination; further real symbols draw their sign at random. Complex
// symbols get a real part in [-2, 2] and an imaginary part in [-4, 4].
// Derivatives must be resolved first.
func Sample(left, right Node, env Env, samples int, seed uint64) Agreement {
	names := uniqueSorted(append(Symbols(left), Symbols(right)...))
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	phase := make([]int, len(names))
	for j := range names {
		phase[j] = rng.IntN(2)
	}
	valid := 0
	for k := 0; k < samples; k++ {
		at := make(map[string]complex128, len(names))
		for j, name := range names {
			at[name] = samplePoint(rng, env.Domain(name), k, j, phase[j])
		}
		var ev evaluator
		l, errL := ev.eval(left, at)
		r, errR := ev.eval(right, at)
		if errors.Is(errL, ErrNotNumeric) || errors.Is(errR, ErrNotNumeric) {
			return AgreementUnknown
		}
		if !finite(l) || !finite(r) {
			continue
		}
		valid++
		scale := math.Max(1, ev.peak)
		if cmplx.Abs(l-r) > relTol*scale {
			return AgreementImplausible
		}
	}
	if valid == 0 {
		return AgreementUnknown
	}
	return AgreementPlausible
}

func uniqueSorted(names []string) []string {
	sort.Strings(names)
	out := names[:0]
	for i, name := range names {
		if i == 0 || name != names[i-1] {
			out = append(out, name)
		}
	}
	return out
}

// samplePoint draws the value of symbol j at sample k
func samplePoint(rng *rand.Rand, d model.Domain, k, j, phase int) complex128 {
	band := sampleBands[(k+j)%2]
	mag := band[0] + (band[1]-band[0])*rng.Float64()
	switch d {
	case model.DomainPositive:
		return complex(mag, 0)
	case model.DomainReal:
		negative := rng.IntN(2) == 1
		if j < 3 {
			negative = ((k>>j)&1)^phase == 1
		}
		if negative {
			mag = -mag
		}
		return complex(mag, 0)
	}
	return complex(4*rng.Float64()-2, 8*rng.Float64()-4)
}

func finite(z complex128) bool {
	return !cmplx.IsNaN(z) && !cmplx.IsInf(z)
}
