package calculator_test

import (
	"fmt"
	"math/big"

	"github.com/zephyrtronium/calculator"
)

func ExampleNewRegistry() {
	nargin := &calculator.Operation{
		Name:  "nargin",
		Arity: -1,
		Kind:  calculator.Function,
		Prec:  calculator.PrecFunction,
		Apply: func(ctx *calculator.Context, args []*big.Float, r *big.Float) error {
			r.SetInt64(int64(len(args)))
			return nil
		},
	}
	ops := calculator.NewRegistry(append(calculator.Builtins(), nargin)...)
	ctx := calculator.NewContext(calculator.Prec(32), calculator.Ops(ops))

	for _, src := range []string{"nargin(100)", "nargin(3, 2, 1)", "nargin(1, nargin(2, 3))^2", "nargin()"} {
		r, err := ctx.EvalString(src)
		if err != nil {
			fmt.Println(err)
			continue
		}
		fmt.Println(src, "=", r)
	}

	// Output:
	// nargin(100) = 1
	// nargin(3, 2, 1) = 3
	// nargin(1, nargin(2, 3))^2 = 4
	// 1: cannot call nargin with 0 arguments (want at least 1)
}
