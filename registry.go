package calculator

import (
	"math/big"
	"strconv"
	"sync"
)

// OpKind distinguishes infix operators from named functions.
type OpKind int8

const (
	// Operator is a binary infix operator.
	Operator OpKind = iota
	// Function is a named function called with a bracketed argument list.
	Function
)

func (k OpKind) String() string {
	switch k {
	case Operator:
		return "operator"
	case Function:
		return "function"
	default:
		return "OpKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Precedences of the builtin operations. Higher binds tighter.
const (
	PrecAdditive       = 0
	PrecMultiplicative = 1
	PrecPower          = 2
	PrecFunction       = 3
)

// ApplyFunc evaluates an operation. args holds the arguments in the order
// they appear in the expression; its length is one for which the operation's
// CanCall returned true. The function must set r, which has the context's
// precision, to its result and should not use the value of r otherwise. It
// may modify the elements of args.
type ApplyFunc func(ctx *Context, args []*big.Float, r *big.Float) error

// Operation describes one operator or function.
type Operation struct {
	// Name is the symbol or identifier that invokes the operation.
	Name string
	// Arity is the number of arguments the operation takes, or -1 for one or
	// more. Operators always have arity 2.
	Arity int
	// Kind is whether the operation is an operator or a function.
	Kind OpKind
	// Prec is the precedence of the operation.
	Prec int
	// Right indicates right-associativity.
	Right bool
	// Apply evaluates the operation.
	Apply ApplyFunc
}

// CanCall returns whether the operation accepts n arguments.
func (op *Operation) CanCall(n int) bool {
	if op.Arity < 0 {
		return n >= 1
	}
	return n == op.Arity
}

// Registry is an immutable set of operations.
type Registry struct {
	ops map[string]*Operation
}

// NewRegistry creates a registry from a list of operations. Panics if two
// operations share a name, if any operation is missing a name or an Apply
// function, or if an operator is not binary.
func NewRegistry(ops ...*Operation) *Registry {
	r := Registry{ops: make(map[string]*Operation, len(ops))}
	for _, op := range ops {
		switch {
		case op.Name == "", op.Apply == nil:
			panic("calculator: incomplete operation " + strconv.Quote(op.Name))
		case op.Kind == Operator && op.Arity != 2:
			panic("calculator: operator " + op.Name + " must be binary")
		case op.Arity < -1:
			panic("calculator: invalid arity for " + op.Name)
		}
		if _, ok := r.ops[op.Name]; ok {
			panic("calculator: duplicate operation " + op.Name)
		}
		r.ops[op.Name] = op
	}
	return &r
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the registry of builtin operations.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry(Builtins()...)
	})
	return defaultRegistry
}

// Lookup returns the operation with the given name.
func (r *Registry) Lookup(name string) (*Operation, bool) {
	op, ok := r.ops[name]
	return op, ok
}

// Priority returns the precedence of a name on the operator stack. An open
// bracket has priority -1, lower than any operation.
func (r *Registry) Priority(name string) (int, error) {
	if name == "(" {
		return -1, nil
	}
	op, ok := r.ops[name]
	if !ok {
		return 0, &UnknownOperationError{Name: name}
	}
	return op.Prec, nil
}

// Names returns the names of all operations in the registry in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ops))
	for k := range r.ops {
		names = append(names, k)
	}
	sortstrs(names)
	return names
}

// sortstrs sorts a string slice without using package sort because that has
// reflection and allocation problems.
func sortstrs(names []string) {
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
}
