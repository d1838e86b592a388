package calculator

import (
	"errors"
	"math/big"
	"strconv"
)

// LexError indicates a rune that cannot begin any token. It implements
// InputError.
type LexError struct {
	// Text is the invalid rune.
	Text string
	// Col is the position of the invalid rune.
	Col int
}

func (err *LexError) Error() string {
	return errpos(err.Col, "invalid character "+strconv.Quote(err.Text))
}

func (err *LexError) Pos() int {
	return err.Col
}

// SyntaxError indicates a malformed expression: mismatched brackets, a
// malformed number, a misplaced separator, or leftover operands. It implements
// InputError.
type SyntaxError struct {
	// Col is the position of the token where the problem was detected.
	Col int
	// Msg describes the problem.
	Msg string
}

func (err *SyntaxError) Error() string {
	return errpos(err.Col, err.Msg)
}

func (err *SyntaxError) Pos() int {
	return err.Col
}

// ArityError is an error indicating a function call with the wrong number of
// arguments. It implements InputError.
type ArityError struct {
	// Col is the position of the operation.
	Col int
	// Name is the operation that was called.
	Name string
	// Want is the arity of the operation, -1 meaning at least one.
	Want int
	// Got is the number of arguments supplied.
	Got int
}

func (err *ArityError) Error() string {
	want := strconv.Itoa(err.Want)
	if err.Want < 0 {
		want = "at least 1"
	}
	return errpos(err.Col, "cannot call "+err.Name+" with "+strconv.Itoa(err.Got)+" arguments (want "+want+")")
}

func (err *ArityError) Pos() int {
	return err.Col
}

// DomainError is an error returned when an operation is applied to arguments
// outside its domain. DomainError unwraps to big.ErrNaN.
type DomainError struct {
	// X is the out-of-domain argument.
	X *big.Float
	// Arg is the 1-based index of the argument.
	Arg int
	// Func is a name identifying the operation.
	Func string
	// Col is the position of the operation.
	Col int
}

func (err *DomainError) Error() string {
	if err.X == nil {
		// Overflow of an intermediate result rather than a bad argument.
		return errpos(err.Col, "result of "+err.Func+" out of range")
	}
	r := err.X.Text('g', 10) + " outside domain"
	if err.Func != "" {
		r += " of " + err.Func
	}
	if err.Arg > 0 {
		r += " (argument " + strconv.Itoa(err.Arg) + ")"
	}
	return errpos(err.Col, r)
}

func (err *DomainError) Pos() int {
	return err.Col
}

func (err *DomainError) Unwrap() error {
	return big.ErrNaN{}
}

// DivisionByZeroError indicates a division by zero, including raising zero to
// a negative power. It implements InputError.
type DivisionByZeroError struct {
	// Col is the position of the operation.
	Col int
	// Func is the operation that divided.
	Func string
}

func (err *DivisionByZeroError) Error() string {
	return errpos(err.Col, "division by zero in "+err.Func)
}

func (err *DivisionByZeroError) Pos() int {
	return err.Col
}

// UnknownOperationError is an error indicating an identifier that names no
// operation or constant. It implements InputError.
type UnknownOperationError struct {
	// Col is the position of the identifier.
	Col int
	// Name is the identifier.
	Name string
}

func (err *UnknownOperationError) Error() string {
	return errpos(err.Col, "unknown operation "+strconv.Quote(err.Name))
}

func (err *UnknownOperationError) Pos() int {
	return err.Col
}

// EmptyStackError indicates an operation that needed more operands than the
// expression supplied. It implements InputError.
type EmptyStackError struct {
	// Col is the position of the operation, or of the end of the expression.
	Col int
	// Name is the operation that was missing operands, if any.
	Name string
}

func (err *EmptyStackError) Error() string {
	if err.Name == "" {
		return errpos(err.Col, "no value")
	}
	return errpos(err.Col, "missing operand for "+err.Name)
}

func (err *EmptyStackError) Pos() int {
	return err.Col
}

// errpos is a shortcut to create an error message with a position.
func errpos(pos int, msg string) string {
	return strconv.Itoa(pos) + ": " + msg
}

// InputError is an error with position information. Every error resulting from
// invalid input implements InputError.
type InputError interface {
	error
	// Pos returns the position of the error as the number of runes up to and
	// including the start of the token that caused the error.
	Pos() int
}

var (
	_ InputError = (*LexError)(nil)
	_ InputError = (*SyntaxError)(nil)
	_ InputError = (*ArityError)(nil)
	_ InputError = (*DomainError)(nil)
	_ InputError = (*DivisionByZeroError)(nil)
	_ InputError = (*UnknownOperationError)(nil)
	_ InputError = (*EmptyStackError)(nil)
)

// ErrorKind classifies an error from tokenizing or evaluating. The result is
// one of "lex", "syntax", "arity", "domain", "division_by_zero",
// "unknown_operation", "empty_stack", or "" if err is nil or none of those.
func ErrorKind(err error) string {
	var (
		lex   *LexError
		syn   *SyntaxError
		arity *ArityError
		dom   *DomainError
		div   *DivisionByZeroError
		unk   *UnknownOperationError
		empty *EmptyStackError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &lex):
		return "lex"
	case errors.As(err, &syn):
		return "syntax"
	case errors.As(err, &arity):
		return "arity"
	case errors.As(err, &dom):
		return "domain"
	case errors.As(err, &div):
		return "division_by_zero"
	case errors.As(err, &unk):
		return "unknown_operation"
	case errors.As(err, &empty):
		return "empty_stack"
	default:
		return ""
	}
}

// setcol fills in the position of an error from an operation or registry
// lookup, which does not know where in the expression it was invoked.
func setcol(err error, col int) error {
	var (
		dom *DomainError
		div *DivisionByZeroError
		unk *UnknownOperationError
	)
	switch {
	case errors.As(err, &dom):
		if dom.Col == 0 {
			dom.Col = col
		}
	case errors.As(err, &div):
		if div.Col == 0 {
			div.Col = col
		}
	case errors.As(err, &unk):
		if unk.Col == 0 {
			unk.Col = col
		}
	}
	return err
}
