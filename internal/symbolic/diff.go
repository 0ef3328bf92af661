package symbolic

import "fmt"

// maxDiffOrder bounds diff(expr, x, n).
const maxDiffOrder = 16

// Resolve replaces every diff(expr, x[, n]) call with the symbolic derivative.
// Inner calls are resolved first.
func Resolve(n Node) (Node, error) {
	switch x := n.(type) {
	case *Neg:
		inner, err := Resolve(x.X)
		if err != nil {
			return nil, err
		}
		return &Neg{X: inner}, nil
	case *Binary:
		l, err := Resolve(x.Left)
		if err != nil {
			return nil, err
		}
		r, err := Resolve(x.Right)
		if err != nil {
			return nil, err
		}
		return &Binary{Op: x.Op, Left: l, Right: r}, nil
	case *Call:
		args := make([]Node, len(x.Args))
		for i, a := range x.Args {
			r, err := Resolve(a)
			if err != nil {
				return nil, err
			}
			args[i] = r
		}
		if x.Name != "diff" {
			return &Call{Name: x.Name, Args: args}, nil
		}
		return resolveDiff(args)
	}
	return n, nil
}

func resolveDiff(args []Node) (Node, error) {
	v, ok := args[1].(*Symbol)
	if !ok {
		return nil, fmt.Errorf("%w: diff variable must be a symbol, got %s", ErrMalformed, args[1])
	}
	order := int64(1)
	if len(args) == 3 {
		k, ok := integerValue(args[2])
		if !ok || k < 0 || k > maxDiffOrder {
			return nil, fmt.Errorf("%w: diff order must be an integer from 0 to %d, got %s", ErrMalformed, maxDiffOrder, args[2])
		}
		order = k
	}
	d := args[0]
	for k := int64(0); k < order; k++ {
		d = Derivative(d, v.Name)
	}
	return d, nil
}

// Derivative returns d n / d x. The variable is treated as real, so
// conj, re and im commute with differentiation. Unknown functions f
// differentiate to f'(u)*u'.
func Derivative(n Node, x string) Node {
	switch t := n.(type) {
	case *Number, *Constant:
		return num(0)
	case *Symbol:
		if t.Name == x {
			return num(1)
		}
		return num(0)
	case *Neg:
		return mkNeg(Derivative(t.X, x))
	case *Binary:
		return diffBinary(t, x)
	case *Call:
		return diffCall(t, x)
	}
	return num(0)
}

func diffBinary(b *Binary, x string) Node {
	u, v := b.Left, b.Right
	switch b.Op {
	case '+':
		return mkAdd(Derivative(u, x), Derivative(v, x))
	case '-':
		return mkSub(Derivative(u, x), Derivative(v, x))
	case '*':
		return mkAdd(mkMul(Derivative(u, x), v), mkMul(u, Derivative(v, x)))
	case '/':
		top := mkSub(mkMul(Derivative(u, x), v), mkMul(u, Derivative(v, x)))
		return mkDiv(top, mkPow(v, num(2)))
	}
	// u^v
	if !contains(v, x) {
		if !contains(u, x) {
			return num(0)
		}
		return mkMul(mkMul(v, mkPow(u, mkSub(v, num(1)))), Derivative(u, x))
	}
	if !contains(u, x) {
		if c, ok := u.(*Constant); ok && c.Name == ConstE {
			return mkMul(b, Derivative(v, x))
		}
		return mkMul(mkMul(b, mkCall("ln", u)), Derivative(v, x))
	}
	inner := mkAdd(mkMul(Derivative(v, x), mkCall("ln", u)), mkDiv(mkMul(v, Derivative(u, x)), u))
	return mkMul(b, inner)
}

func diffCall(c *Call, x string) Node {
	if len(c.Args) == 0 {
		return num(0)
	}
	if c.Name == "log" && len(c.Args) == 2 {
		return Derivative(mkDiv(mkCall("ln", c.Args[1]), mkCall("ln", c.Args[0])), x)
	}
	if len(c.Args) > 1 {
		return diffMulti(c, x)
	}
	u := c.Args[0]
	du := Derivative(u, x)
	if isNum(du, 0) {
		return num(0)
	}
	var outer Node
	switch c.Name {
	case "exp":
		outer = c
	case "ln", "log":
		return mkDiv(du, u)
	case "sqrt":
		return mkDiv(du, mkMul(num(2), c))
	case "sin":
		outer = mkCall("cos", u)
	case "cos":
		outer = mkNeg(mkCall("sin", u))
	case "tan":
		return mkDiv(du, mkPow(mkCall("cos", u), num(2)))
	case "cot":
		return mkNeg(mkDiv(du, mkPow(mkCall("sin", u), num(2))))
	case "sec":
		outer = mkMul(c, mkCall("tan", u))
	case "csc":
		outer = mkNeg(mkMul(c, mkCall("cot", u)))
	case "sinh":
		outer = mkCall("cosh", u)
	case "cosh":
		outer = mkCall("sinh", u)
	case "tanh":
		return mkDiv(du, mkPow(mkCall("cosh", u), num(2)))
	case "conj", "re", "im":
		return mkCall(c.Name, du)
	case "abs":
		// d|u| = re(conj(u) u') / |u|
		return mkDiv(mkCall("re", mkMul(mkCall("conj", u), du)), c)
	default:
		outer = mkCall(c.Name+"'", u)
	}
	return mkMul(outer, du)
}

// diffMulti applies the chain rule to an uninterpreted function of several
// arguments using partial-derivative functions D1[f], D2[f], ...
func diffMulti(c *Call, x string) Node {
	var out Node = num(0)
	for k, a := range c.Args {
		da := Derivative(a, x)
		if isNum(da, 0) {
			continue
		}
		partial := &Call{Name: fmt.Sprintf("D%d[%s]", k+1, c.Name), Args: c.Args}
		out = mkAdd(out, mkMul(partial, da))
	}
	return out
}

// integerValue reports n as an int64 when it is an integer literal.
func integerValue(n Node) (int64, bool) {
	r, ok := numberOf(n)
	if !ok || !r.IsInt() || !r.Num().IsInt64() {
		return 0, false
	}
	return r.Num().Int64(), true
}
