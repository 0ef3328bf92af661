package symbolic

import (
	"math/big"
	"strings"
)

// Node is a parsed expression tree. Trees are immutable.
type Node interface {
	String() string
	precedence() int
}

const (
	precSum = iota + 1
	precProduct
	precUnary
	precPower
	precAtom
)

// Number is an exact rational literal.
type Number struct {
	Value *big.Rat
	Text  string // literal as written, empty for computed numbers
}

// Symbol is a free variable.
type Symbol struct {
	Name string
}

// Constant is one of the reserved constants i, pi and e.
type Constant struct {
	Name string
}

// Neg is unary minus.
type Neg struct {
	X Node
}

// Binary is an infix operation: one of + - * / ^.
type Binary struct {
	Op          byte
	Left, Right Node
}

// Call is a function application.
type Call struct {
	Name string
	Args []Node
}

const (
	ConstI  = "i"
	ConstPi = "pi"
	ConstE  = "e"
)

func (n *Number) String() string {
	if n.Text != "" {
		return n.Text
	}
	return n.Value.RatString()
}

func (n *Number) precedence() int {
	switch {
	case n.Text != "":
		return precAtom
	case !n.Value.IsInt():
		return precProduct
	case n.Value.Sign() < 0:
		return precUnary
	}
	return precAtom
}

func (s *Symbol) String() string   { return s.Name }
func (s *Symbol) precedence() int  { return precAtom }
func (c *Constant) String() string { return c.Name }
func (c *Constant) precedence() int {
	return precAtom
}

func (n *Neg) String() string  { return "-" + wrap(n.X, precUnary) }
func (n *Neg) precedence() int { return precUnary }

func (b *Binary) precedence() int {
	switch b.Op {
	case '+', '-':
		return precSum
	case '*', '/':
		return precProduct
	}
	return precPower
}

func (b *Binary) String() string {
	p := b.precedence()
	var left, right string
	switch b.Op {
	case '^':
		left = wrap(b.Left, p+1)
		right = wrap(b.Right, p)
		return left + "^" + right
	case '+', '*':
		left = wrap(b.Left, p)
		right = wrap(b.Right, p)
	default:
		left = wrap(b.Left, p)
		right = wrap(b.Right, p+1)
	}
	switch b.Op {
	case '+', '-':
		return left + " " + string(b.Op) + " " + right
	}
	return left + string(b.Op) + right
}

func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return c.Name + "(" + strings.Join(args, ", ") + ")"
}

func (c *Call) precedence() int { return precAtom }

func wrap(n Node, min int) string {
	if n.precedence() < min {
		return "(" + n.String() + ")"
	}
	return n.String()
}

// Sub returns the tree for left - right.
func Sub(left, right Node) Node {
	return &Binary{Op: '-', Left: left, Right: right}
}

// Symbols returns the free symbol names of n in first-seen order.
func Symbols(n Node) []string {
	seen := map[string]bool{}
	var out []string
	var walk func(Node)
	walk = func(n Node) {
		switch x := n.(type) {
		case *Symbol:
			if !seen[x.Name] {
				seen[x.Name] = true
				out = append(out, x.Name)
			}
		case *Neg:
			walk(x.X)
		case *Binary:
			walk(x.Left)
			walk(x.Right)
		case *Call:
			for _, a := range x.Args {
				walk(a)
			}
		}
	}
	walk(n)
	return out
}

// Substitute replaces every occurrence of the named symbol with value.
func Substitute(n Node, name string, value Node) Node {
	switch x := n.(type) {
	case *Symbol:
		if x.Name == name {
			return value
		}
	case *Neg:
		return &Neg{X: Substitute(x.X, name, value)}
	case *Binary:
		return &Binary{Op: x.Op, Left: Substitute(x.Left, name, value), Right: Substitute(x.Right, name, value)}
	case *Call:
		args := make([]Node, len(x.Args))
		for i, a := range x.Args {
			args[i] = Substitute(a, name, value)
		}
		return &Call{Name: x.Name, Args: args}
	}
	return n
}

// Contains reports whether the named symbol occurs in n.
func Contains(n Node, name string) bool {
	return contains(n, name)
}

func contains(n Node, name string) bool {
	for _, s := range Symbols(n) {
		if s == name {
			return true
		}
	}
	return false
}

// Tree constructors used by differentiation. They fold the trivial cases so
// derivatives stay readable.

func num(n int64) *Number { return &Number{Value: big.NewRat(n, 1)} }

func numberOf(n Node) (*big.Rat, bool) {
	if x, ok := n.(*Number); ok {
		return x.Value, true
	}
	return nil, false
}

func isNum(n Node, v int64) bool {
	r, ok := numberOf(n)
	return ok && r.Cmp(big.NewRat(v, 1)) == 0
}

func mkNeg(a Node) Node {
	switch x := a.(type) {
	case *Number:
		return &Number{Value: new(big.Rat).Neg(x.Value)}
	case *Neg:
		return x.X
	}
	return &Neg{X: a}
}

func mkAdd(a, b Node) Node {
	if isNum(a, 0) {
		return b
	}
	if isNum(b, 0) {
		return a
	}
	if x, ok := numberOf(a); ok {
		if y, ok := numberOf(b); ok {
			return &Number{Value: new(big.Rat).Add(x, y)}
		}
	}
	if n, ok := b.(*Neg); ok {
		return &Binary{Op: '-', Left: a, Right: n.X}
	}
	return &Binary{Op: '+', Left: a, Right: b}
}

func mkSub(a, b Node) Node {
	if isNum(b, 0) {
		return a
	}
	if isNum(a, 0) {
		return mkNeg(b)
	}
	if x, ok := numberOf(a); ok {
		if y, ok := numberOf(b); ok {
			return &Number{Value: new(big.Rat).Sub(x, y)}
		}
	}
	return &Binary{Op: '-', Left: a, Right: b}
}

func mkMul(a, b Node) Node {
	if isNum(a, 0) || isNum(b, 0) {
		return num(0)
	}
	if isNum(a, 1) {
		return b
	}
	if isNum(b, 1) {
		return a
	}
	if isNum(a, -1) {
		return mkNeg(b)
	}
	if isNum(b, -1) {
		return mkNeg(a)
	}
	if x, ok := numberOf(a); ok {
		if y, ok := numberOf(b); ok {
			return &Number{Value: new(big.Rat).Mul(x, y)}
		}
	}
	return &Binary{Op: '*', Left: a, Right: b}
}

func mkDiv(a, b Node) Node {
	if isNum(a, 0) {
		return num(0)
	}
	if isNum(b, 1) {
		return a
	}
	return &Binary{Op: '/', Left: a, Right: b}
}

func mkPow(a, b Node) Node {
	if isNum(b, 0) {
		return num(1)
	}
	if isNum(b, 1) {
		return a
	}
	return &Binary{Op: '^', Left: a, Right: b}
}

func mkCall(name string, args ...Node) Node {
	return &Call{Name: name, Args: args}
}
