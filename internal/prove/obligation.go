package prove

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/ppiankov/eqverify/internal/symbolic"
)

// Proof methods recorded in the proof trace
const (
	methodSimplification = "simplification"
	methodAntiderivative = "antiderivative"
	methodInduction      = "induction"
)

// counterexampleSearch is how many concrete upper bounds are tried when an
// inductive step does not close.
const counterexampleSearch = 4

// obligation is one residual that must normalize to zero
type obligation struct {
	label    string
	residual symbolic.Node
	base     bool // induction base case: a nonzero residual is a counterexample
}

// plan is how one identity statement is proved. A plain identity has the
// single obligation left - right. integral(f, x) = F holds when
// diff(F, x) - f is zero, so antiderivatives agree up to a constant.
// sum(f, k, a, n) = F is proved by induction on n.
type plan struct {
	method      string
	obligations []obligation
	sum         *summation
	closed      symbolic.Node
}

// summation is a sum(term, index, lower, upper) side
type summation struct {
	term  symbolic.Node
	index string
	lower symbolic.Node
	upper string
}

func topCall(n symbolic.Node, name string) (*symbolic.Call, bool) {
	c, ok := n.(*symbolic.Call)
	if !ok || c.Name != name {
		return nil, false
	}
	return c, true
}

// planFor picks the proof method from the shape of the two sides
func planFor(left, right symbolic.Node) (*plan, error) {
	if c, ok := topCall(left, "integral"); ok && len(c.Args) == 2 {
		return antiderivative(c, right)
	}
	if c, ok := topCall(right, "integral"); ok && len(c.Args) == 2 {
		return antiderivative(c, left)
	}
	if c, ok := topCall(left, "sum"); ok && len(c.Args) == 4 {
		return induction(c, right)
	}
	if c, ok := topCall(right, "sum"); ok && len(c.Args) == 4 {
		return induction(c, left)
	}
	return &plan{
		method:      methodSimplification,
		obligations: []obligation{{label: "left - right", residual: symbolic.Sub(left, right)}},
	}, nil
}

func antiderivative(c *symbolic.Call, closed symbolic.Node) (*plan, error) {
	x, ok := c.Args[1].(*symbolic.Symbol)
	if !ok {
		return nil, fmt.Errorf("%w: integral variable must be a symbol, got %s", symbolic.ErrMalformed, c.Args[1])
	}
	derivative := &symbolic.Call{Name: "diff", Args: []symbolic.Node{closed, x}}
	residual := symbolic.Sub(derivative, c.Args[0])
	return &plan{
		method:      methodAntiderivative,
		obligations: []obligation{{label: residual.String(), residual: residual}},
		closed:      closed,
	}, nil
}

func induction(c *symbolic.Call, closed symbolic.Node) (*plan, error) {
	k, ok := c.Args[1].(*symbolic.Symbol)
	if !ok {
		return nil, fmt.Errorf("%w: sum index must be a symbol, got %s", symbolic.ErrMalformed, c.Args[1])
	}
	n, ok := c.Args[3].(*symbolic.Symbol)
	if !ok {
		return nil, fmt.Errorf("%w: sum upper bound must be a symbol, got %s", symbolic.ErrMalformed, c.Args[3])
	}
	if k.Name == n.Name {
		return nil, fmt.Errorf("%w: sum index and upper bound are both %s", symbolic.ErrMalformed, k.Name)
	}
	lower := c.Args[2]
	if symbolic.Contains(lower, k.Name) || symbolic.Contains(lower, n.Name) {
		return nil, fmt.Errorf("%w: sum lower bound %s depends on %s or %s", symbolic.ErrMalformed, lower, k.Name, n.Name)
	}
	if symbolic.Contains(closed, k.Name) {
		return nil, fmt.Errorf("%w: summation index %s appears outside the sum", symbolic.ErrMalformed, k.Name)
	}

	s := &summation{term: c.Args[0], index: k.Name, lower: lower, upper: n.Name}
	pl := &plan{method: methodInduction, sum: s, closed: closed}
	if symbolic.Contains(s.term, n.Name) {
		// the summand changes with n, so the step P(n) -> P(n+1) is not a single term
		pl.obligations = []obligation{{label: "sum", residual: symbolic.Sub(c, closed)}}
		return pl, nil
	}

	next := &symbolic.Binary{Op: '+', Left: n, Right: &symbolic.Number{Value: big.NewRat(1, 1)}}
	base := symbolic.Sub(symbolic.Substitute(closed, n.Name, lower), symbolic.Substitute(s.term, k.Name, lower))
	step := symbolic.Sub(
		symbolic.Sub(symbolic.Substitute(closed, n.Name, next), closed),
		symbolic.Substitute(s.term, k.Name, next),
	)
	pl.obligations = []obligation{
		{label: fmt.Sprintf("base case %s = %s", n.Name, lower), residual: base, base: true},
		{label: fmt.Sprintf("step %s -> %s + 1", n.Name, n.Name), residual: step},
	}
	return pl, nil
}

// unsupported lists constructs left in the obligations that the kernel
// cannot decide.
func (pl *plan) unsupported() []string {
	reasons := map[string]bool{}
	var walk func(symbolic.Node)
	walk = func(n symbolic.Node) {
		switch x := n.(type) {
		case *symbolic.Neg:
			walk(x.X)
		case *symbolic.Binary:
			walk(x.Left)
			walk(x.Right)
		case *symbolic.Call:
			switch x.Name {
			case "limit":
				reasons["limits are not evaluated"] = true
			case "integral":
				if len(x.Args) == 4 {
					reasons["definite integrals are not evaluated"] = true
				} else {
					reasons["integral inside a larger expression"] = true
				}
			case "sum":
				if pl.method == methodInduction && len(pl.obligations) == 1 {
					reasons["summand depends on the upper bound"] = true
				} else {
					reasons["sum inside a larger expression"] = true
				}
			}
			for _, a := range x.Args {
				walk(a)
			}
		}
	}
	for _, ob := range pl.obligations {
		walk(ob.residual)
	}
	out := make([]string, 0, len(reasons))
	for r := range reasons {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// instances yields closed - sum for concrete upper bounds starting at the
// lower bound. It returns nothing unless the lower bound is an integer.
func (s *summation) instances(closed symbolic.Node) []obligation {
	lo, ok := integerLiteral(s.lower)
	if !ok {
		return nil
	}
	var out []obligation
	var partial symbolic.Node
	for m := lo; m < lo+counterexampleSearch; m++ {
		at := intNode(m)
		term := symbolic.Substitute(s.term, s.index, at)
		if partial == nil {
			partial = term
		} else {
			partial = &symbolic.Binary{Op: '+', Left: partial, Right: term}
		}
		out = append(out, obligation{
			label:    fmt.Sprintf("%s = %d", s.upper, m),
			residual: symbolic.Sub(symbolic.Substitute(closed, s.upper, at), partial),
			base:     true,
		})
	}
	return out
}

func integerLiteral(n symbolic.Node) (int64, bool) {
	switch x := n.(type) {
	case *symbolic.Number:
		if x.Value.IsInt() && x.Value.Num().IsInt64() {
			return x.Value.Num().Int64(), true
		}
	case *symbolic.Neg:
		if v, ok := integerLiteral(x.X); ok {
			return -v, true
		}
	}
	return 0, false
}

func intNode(v int64) symbolic.Node {
	return &symbolic.Number{Value: big.NewRat(v, 1)}
}
