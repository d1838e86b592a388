package calculator

import (
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/zephyrtronium/bigfloat"
)

// Context holds the settings for evaluating expressions: the working
// precision and the operations available. A Context is immutable once
// created, so it is safe to evaluate expressions with it concurrently.
type Context struct {
	prec uint
	ops  *Registry
	pi   *big.Float
	e    *big.Float
}

// ContextOption is an option used when creating a context.
type ContextOption interface {
	ctxOption()
}

type (
	precopt uint
	opsopt  struct{ r *Registry }
)

func (precopt) ctxOption() {}
func (opsopt) ctxOption()  {}

// Prec sets the precision of calculations in bits. Panics if prec is zero or
// larger than big.MaxPrec.
func Prec(prec uint) ContextOption {
	if prec == 0 || prec > big.MaxPrec {
		panic("calculator: invalid precision " + strconv.FormatUint(uint64(prec), 10))
	}
	return precopt(prec)
}

// Ops sets the registry of operations available to expressions.
func Ops(r *Registry) ContextOption {
	return opsopt{r}
}

// NewContext creates a new evaluation context. If no precision is given, the
// default is 64. If no registry is given, the default is DefaultRegistry().
func NewContext(opts ...ContextOption) *Context {
	ctx := Context{prec: 64, ops: DefaultRegistry()}
	return ctx.Clone(opts...)
}

// Clone creates a copy of a context and applies options to it.
func (ctx *Context) Clone(opts ...ContextOption) *Context {
	n := *ctx
	for _, opt := range opts {
		switch opt := opt.(type) {
		case nil:
			// do nothing
		case precopt:
			n.prec = uint(opt)
		case opsopt:
			n.ops = opt.r
		default:
			panic("calculator: unknown option type")
		}
	}
	if n.pi == nil || n.prec != ctx.prec {
		n.pi = bigfloat.Pi(new(big.Float).SetPrec(n.prec))
		one := new(big.Float).SetPrec(n.prec).SetInt64(1)
		n.e = bigfloat.Exp(new(big.Float).SetPrec(n.prec), one)
	}
	return &n
}

// Prec returns the precision to which values are computed in the context.
func (ctx *Context) Prec() uint {
	return ctx.prec
}

// Ops returns the registry of operations used by the context.
func (ctx *Context) Ops() *Registry {
	return ctx.ops
}

// Pi returns a copy of π at the context's precision.
func (ctx *Context) Pi() *big.Float {
	return new(big.Float).Copy(ctx.pi)
}

// constant returns the value of a constant name, or nil if name is not a
// constant. pi is recognized in any case, e only as e or E.
func (ctx *Context) constant(name string) *big.Float {
	switch {
	case strings.EqualFold(name, "pi"), name == "π":
		return ctx.pi
	case name == "e", name == "E":
		return ctx.e
	default:
		return nil
	}
}

// num parses a number token.
func (ctx *Context) num(tok Token) (*big.Float, error) {
	r, _, err := new(big.Float).SetPrec(ctx.prec).Parse(tok.Text, 10)
	if err != nil || r.IsInf() {
		return nil, &SyntaxError{Col: tok.Pos, Msg: "malformed number " + strconv.Quote(tok.Text)}
	}
	return r, nil
}

// Evaluate computes the value of a tokenized expression. toks should be the
// result of Tokenize, including the brackets around the whole expression.
func (ctx *Context) Evaluate(toks []Token) (*big.Float, error) {
	m := machine{ctx: ctx}
	var prev Token
	for _, tok := range toks {
		if err := m.step(prev, tok); err != nil {
			return nil, err
		}
		prev = tok
	}
	return m.result(prev.Pos)
}

// EvalString tokenizes and evaluates an expression.
func (ctx *Context) EvalString(src string) (*big.Float, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	return ctx.Evaluate(toks)
}

// Eval is a shortcut to read an expression to EOF and return its result using
// a new context.
func Eval(src io.RuneScanner, opts ...ContextOption) (*big.Float, error) {
	toks, err := TokenizeReader(src)
	if err != nil {
		return nil, err
	}
	return NewContext(opts...).Evaluate(toks)
}

// EvalString is a shortcut to evaluate a string expression.
func EvalString(src string, opts ...ContextOption) (*big.Float, error) {
	return Eval(strings.NewReader(src), opts...)
}

// machine is the state of one evaluation.
type machine struct {
	ctx *Context
	// vals is the value stack.
	vals []*big.Float
	// ops is the operator stack. It holds operation names and open brackets.
	ops []Token
	// args holds the argument count of each function on ops, innermost last.
	args []int
}

// step shifts one token, reducing pending operations as it requires. prev is
// the token before tok, or the zero Token at the start.
func (m *machine) step(prev, tok Token) error {
	if len(m.ops) == 0 && prev.Kind != tokenNone {
		// Only the final bracket may close the whole expression.
		return &SyntaxError{Col: prev.Pos, Msg: "close bracket with no open bracket"}
	}
	switch tok.Kind {
	case TokenOpen:
		m.ops = append(m.ops, tok)
	case TokenSep:
		if prev.Kind == TokenOpen || prev.Kind == TokenSep {
			return &SyntaxError{Col: tok.Pos, Msg: "missing argument before " + strconv.Quote(tok.Text)}
		}
		if err := m.unwind(tok); err != nil {
			return err
		}
		if !m.call() {
			return &SyntaxError{Col: tok.Pos, Msg: "separator outside function call"}
		}
		m.args[len(m.args)-1]++
	case TokenClose:
		if prev.Kind == TokenSep {
			return &SyntaxError{Col: tok.Pos, Msg: "missing argument before " + strconv.Quote(tok.Text)}
		}
		empty := prev.Kind == TokenOpen
		if err := m.unwind(tok); err != nil {
			return err
		}
		call := m.call()
		m.ops = m.ops[:len(m.ops)-1]
		switch {
		case call:
			if empty {
				m.args[len(m.args)-1] = 0
			}
			return m.reduce()
		case empty && len(m.ops) > 0:
			return &SyntaxError{Col: tok.Pos, Msg: "empty brackets"}
		}
	case TokenIdent:
		if c := m.ctx.constant(tok.Text); c != nil {
			m.vals = append(m.vals, new(big.Float).SetPrec(m.ctx.prec).Set(c))
			return nil
		}
		op, ok := m.ctx.ops.Lookup(tok.Text)
		if !ok {
			return &UnknownOperationError{Col: tok.Pos, Name: tok.Text}
		}
		// A unary multiplication binds to the operand that follows it, so
		// nothing to its left may be reduced yet.
		for !tok.Unary && len(m.ops) > 0 {
			top := m.ops[len(m.ops)-1]
			p, err := m.ctx.ops.Priority(top.Text)
			if err != nil {
				return setcol(err, top.Pos)
			}
			if p < op.Prec || p == op.Prec && op.Right {
				break
			}
			if err := m.reduce(); err != nil {
				return err
			}
		}
		m.ops = append(m.ops, tok)
		if op.Kind == Function {
			m.args = append(m.args, 1)
		}
	default:
		x, err := m.ctx.num(tok)
		if err != nil {
			return err
		}
		m.vals = append(m.vals, x)
	}
	return nil
}

// unwind reduces operations until the top of the operator stack is an open
// bracket.
func (m *machine) unwind(at Token) error {
	for {
		if len(m.ops) == 0 {
			if at.Kind == TokenSep {
				return &SyntaxError{Col: at.Pos, Msg: "separator outside function call"}
			}
			return &SyntaxError{Col: at.Pos, Msg: "close bracket with no open bracket"}
		}
		if m.ops[len(m.ops)-1].Kind == TokenOpen {
			return nil
		}
		if err := m.reduce(); err != nil {
			return err
		}
	}
}

// call reports whether the open bracket on top of the operator stack begins
// the argument list of a function.
func (m *machine) call() bool {
	if len(m.ops) < 2 {
		return false
	}
	below := m.ops[len(m.ops)-2]
	if below.Kind != TokenIdent {
		return false
	}
	op, ok := m.ctx.ops.Lookup(below.Text)
	return ok && op.Kind == Function
}

// reduce pops the top operation, applies it to its operands, and pushes the
// result.
func (m *machine) reduce() error {
	tok := m.ops[len(m.ops)-1]
	m.ops = m.ops[:len(m.ops)-1]
	op, ok := m.ctx.ops.Lookup(tok.Text)
	if !ok {
		return &UnknownOperationError{Col: tok.Pos, Name: tok.Text}
	}
	n := 2
	if op.Kind == Function {
		n = m.args[len(m.args)-1]
		m.args = m.args[:len(m.args)-1]
	}
	if !op.CanCall(n) {
		return &ArityError{Col: tok.Pos, Name: op.Name, Want: op.Arity, Got: n}
	}
	if len(m.vals) < n {
		return &EmptyStackError{Col: tok.Pos, Name: op.Name}
	}
	// The top n values are the arguments in the order they were written.
	k := len(m.vals) - n
	args := m.vals[k:len(m.vals):len(m.vals)]
	r := new(big.Float).SetPrec(m.ctx.prec)
	if err := op.Apply(m.ctx, args, r); err != nil {
		return setcol(err, tok.Pos)
	}
	if r.IsInf() {
		return &DomainError{Func: op.Name, Col: tok.Pos}
	}
	m.vals = append(m.vals[:k], r)
	return nil
}

// result checks that the evaluation finished cleanly and returns its value.
// end is the position of the last token.
func (m *machine) result(end int) (*big.Float, error) {
	if len(m.ops) > 0 {
		return nil, &SyntaxError{Col: end, Msg: "open bracket with no close bracket"}
	}
	switch len(m.vals) {
	case 0:
		return nil, &EmptyStackError{Col: end}
	case 1:
		return m.vals[0], nil
	default:
		return nil, &SyntaxError{Col: end, Msg: strconv.Itoa(len(m.vals)) + " values with no operation between them"}
	}
}
