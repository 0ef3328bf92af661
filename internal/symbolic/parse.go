package symbolic

import (
	"errors"
	"fmt"
	"math/big"
	"unicode"
)

// ErrMalformed is wrapped by every error caused by bad expression text.
var ErrMalformed = errors.New("malformed expression")

// SyntaxError reports a parse failure at a 1-based rune column.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at column %d: %s", e.Pos, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return ErrMalformed }

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
	pos  int
	num  *big.Rat
}

func (t token) describe() string {
	if t.kind == tokEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.text)
}

// arity of the built-in functions: min and max argument counts.
var builtins = map[string][2]int{
	"exp":  {1, 1},
	"ln":   {1, 1},
	"log":  {1, 2},
	"sqrt": {1, 1},
	"sin":  {1, 1},
	"cos":  {1, 1},
	"tan":  {1, 1},
	"cot":  {1, 1},
	"sec":  {1, 1},
	"csc":  {1, 1},
	"sinh": {1, 1},
	"cosh": {1, 1},
	"tanh": {1, 1},
	"conj": {1, 1},
	"abs":  {1, 1},
	"re":   {1, 1},
	"im":   {1, 1},
	"diff": {2, 3},
}

// IsBuiltin reports whether name is an interpreted function.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

// reservedConstant maps constant spellings to their canonical name.
func reservedConstant(name string) (string, bool) {
	switch name {
	case "i":
		return ConstI, true
	case "pi", "π":
		return ConstPi, true
	case "e":
		return ConstE, true
	}
	return "", false
}

func lex(src string) ([]token, error) {
	runes := []rune(src)
	var toks []token
	for i := 0; i < len(runes); {
		r := runes[i]
		pos := i + 1
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || (r == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			j := i
			for j < len(runes) && unicode.IsDigit(runes[j]) {
				j++
			}
			if j < len(runes) && runes[j] == '.' {
				j++
				for j < len(runes) && unicode.IsDigit(runes[j]) {
					j++
				}
			}
			if j < len(runes) && (runes[j] == 'e' || runes[j] == 'E') {
				k := j + 1
				if k < len(runes) && (runes[k] == '+' || runes[k] == '-') {
					k++
				}
				if k < len(runes) && unicode.IsDigit(runes[k]) {
					for k < len(runes) && unicode.IsDigit(runes[k]) {
						k++
					}
					j = k
				}
			}
			text := string(runes[i:j])
			v, ok := new(big.Rat).SetString(text)
			if !ok {
				return nil, &SyntaxError{Pos: pos, Msg: fmt.Sprintf("bad number %q", text)}
			}
			toks = append(toks, token{kind: tokNumber, text: text, pos: pos, num: v})
			i = j
		case unicode.IsLetter(r) || r == '_':
			j := i
			for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '_') {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: string(runes[i:j]), pos: pos})
			i = j
		case r == '*' && i+1 < len(runes) && runes[i+1] == '*':
			toks = append(toks, token{kind: tokOp, text: "^", pos: pos})
			i += 2
		case r == '+' || r == '-' || r == '*' || r == '/' || r == '^':
			toks = append(toks, token{kind: tokOp, text: string(r), pos: pos})
			i++
		case r == '−':
			toks = append(toks, token{kind: tokOp, text: "-", pos: pos})
			i++
		case r == '·' || r == '×':
			toks = append(toks, token{kind: tokOp, text: "*", pos: pos})
			i++
		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: pos})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: pos})
			i++
		case r == ',':
			toks = append(toks, token{kind: tokComma, text: ",", pos: pos})
			i++
		default:
			return nil, &SyntaxError{Pos: pos, Msg: fmt.Sprintf("unexpected character %q", r)}
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(runes) + 1})
	return toks, nil
}

// Binding powers. Unary minus binds tighter than * and looser than ^, so
// -x^2 is -(x^2).
const (
	bpSum     = 10
	bpProduct = 20
	bpUnary   = 25
	bpPower   = 30
)

func infixPower(op string) int {
	switch op {
	case "+", "-":
		return bpSum
	case "*", "/":
		return bpProduct
	case "^":
		return bpPower
	}
	return 0
}

type parser struct {
	toks []token
	pos  int
}

// Parse parses expression text. Implicit multiplication is not accepted:
// "2x" is an error, "2*x" is not.
func Parse(src string) (Node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	if p.peek().kind == tokEOF {
		return nil, &SyntaxError{Pos: 1, Msg: "empty expression"}
	}
	n, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		msg := fmt.Sprintf("unexpected %s", t.describe())
		if t.kind == tokIdent || t.kind == tokNumber || t.kind == tokLParen {
			msg += " (use * for multiplication)"
		}
		return nil, &SyntaxError{Pos: t.pos, Msg: msg}
	}
	return n, nil
}

// MustParse is Parse for trusted input; it panics on error.
func MustParse(src string) Node {
	n, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return n
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expr(rbp int) (Node, error) {
	left, err := p.prefix()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp {
			return left, nil
		}
		lbp := infixPower(t.text)
		if lbp <= rbp {
			return left, nil
		}
		p.next()
		next := lbp
		if t.text == "^" {
			next = lbp - 1
		}
		right, err := p.expr(next)
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: t.text[0], Left: left, Right: right}
	}
}

func (p *parser) prefix() (Node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return &Number{Value: t.num, Text: t.text}, nil
	case tokOp:
		switch t.text {
		case "-":
			x, err := p.expr(bpUnary)
			if err != nil {
				return nil, err
			}
			return &Neg{X: x}, nil
		case "+":
			return p.expr(bpUnary)
		}
	case tokLParen:
		x, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		if c := p.next(); c.kind != tokRParen {
			return nil, &SyntaxError{Pos: c.pos, Msg: fmt.Sprintf("expected \")\", got %s", c.describe())}
		}
		return x, nil
	case tokIdent:
		if p.peek().kind == tokLParen {
			return p.call(t)
		}
		if c, ok := reservedConstant(t.text); ok {
			return &Constant{Name: c}, nil
		}
		if IsBuiltin(t.text) {
			return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("function %s needs arguments", t.text)}
		}
		return &Symbol{Name: t.text}, nil
	}
	return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %s", t.describe())}
}

func (p *parser) call(name token) (Node, error) {
	if _, ok := reservedConstant(name.text); ok {
		return nil, &SyntaxError{Pos: name.pos, Msg: fmt.Sprintf("constant %s is not a function", name.text)}
	}
	p.next() // (
	var args []Node
	if p.peek().kind == tokRParen {
		return nil, &SyntaxError{Pos: p.peek().pos, Msg: fmt.Sprintf("function %s needs arguments", name.text)}
	}
	for {
		a, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		t := p.next()
		if t.kind == tokRParen {
			break
		}
		if t.kind != tokComma {
			return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("expected \",\" or \")\", got %s", t.describe())}
		}
	}
	if ar, ok := builtins[name.text]; ok && (len(args) < ar[0] || len(args) > ar[1]) {
		want := fmt.Sprintf("%d", ar[0])
		if ar[1] != ar[0] {
			want = fmt.Sprintf("%d to %d", ar[0], ar[1])
		}
		return nil, &SyntaxError{Pos: name.pos, Msg: fmt.Sprintf("%s takes %s arguments, got %d", name.text, want, len(args))}
	}
	return &Call{Name: name.text, Args: args}, nil
}
