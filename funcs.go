package calculator

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
	"github.com/zephyrtronium/bigfloat"
)

// Builtins returns a new list of the builtin operations, suitable for
// combining with other operations in NewRegistry.
func Builtins() []*Operation {
	return []*Operation{
		{Name: "+", Arity: 2, Kind: Operator, Prec: PrecAdditive, Apply: add},
		{Name: "-", Arity: 2, Kind: Operator, Prec: PrecAdditive, Apply: sub},
		{Name: "*", Arity: 2, Kind: Operator, Prec: PrecMultiplicative, Apply: mul},
		{Name: "/", Arity: 2, Kind: Operator, Prec: PrecMultiplicative, Apply: quo},
		{Name: "^", Arity: 2, Kind: Operator, Prec: PrecPower, Right: true, Apply: pow},

		fn("sqrt", 1, Guarded("sqrt", nonnegative, (*big.Float).Sqrt)),
		fn("exp", 1, Monadic("exp", bigfloat.Exp)),
		fn("ln", 1, Guarded("ln", positive, bigfloat.Log)),
		fn("log", 2, logb),
		fn("abs", 1, Monadic("abs", (*big.Float).Abs)),
		fn("max", -1, extremum(1)),
		fn("min", -1, extremum(-1)),

		// trig
		fn("sin", 1, trig("sin", decimal.Decimal.Sin)),
		fn("cos", 1, trig("cos", decimal.Decimal.Cos)),
		fn("tan", 1, trig("tan", decimal.Decimal.Tan)),
		fn("asin", 1, asin),
		fn("acos", 1, acos),
		fn("atan", 1, Monadic("atan", atan)),

		// hyperbolic
		fn("sinh", 1, Monadic("sinh", sinh)),
		fn("cosh", 1, Monadic("cosh", cosh)),
		fn("tanh", 1, Monadic("tanh", tanh)),
		fn("asinh", 1, Monadic("asinh", asinh)),
		fn("acosh", 1, Guarded("acosh", atLeastOne, acosh)),
		fn("atanh", 1, Guarded("atanh", insideUnit, atanh)),
	}
}

func fn(name string, arity int, f ApplyFunc) *Operation {
	return &Operation{Name: name, Arity: arity, Kind: Function, Prec: PrecFunction, Apply: f}
}

// Monadic wraps a function of one variable into an ApplyFunc. f must set out
// to its result, to the precision of out; its return value is always ignored.
// If f is called on an argument outside its domain, it should panic with an
// error of type big.ErrNaN, which becomes a DomainError.
func Monadic(name string, f func(out, in *big.Float) *big.Float) ApplyFunc {
	return func(ctx *Context, args []*big.Float, r *big.Float) (err error) {
		in := args[0]
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			if _, ok := p.(big.ErrNaN); !ok {
				panic(p)
			}
			err = &DomainError{X: in, Arg: 1, Func: name}
		}()
		f(r, in)
		return nil
	}
}

// Guarded is like Monadic, but it reports a DomainError without calling f
// when ok returns false for the argument.
func Guarded(name string, ok func(x *big.Float) bool, f func(out, in *big.Float) *big.Float) ApplyFunc {
	m := Monadic(name, f)
	return func(ctx *Context, args []*big.Float, r *big.Float) error {
		if !ok(args[0]) {
			return &DomainError{X: args[0], Arg: 1, Func: name}
		}
		return m(ctx, args, r)
	}
}

func nonnegative(x *big.Float) bool { return x.Sign() >= 0 }
func positive(x *big.Float) bool    { return x.Sign() > 0 }

func atLeastOne(x *big.Float) bool {
	return x.Cmp(big.NewFloat(1)) >= 0
}

func insideUnit(x *big.Float) bool {
	var a big.Float
	return a.Abs(x).Cmp(big.NewFloat(1)) < 0
}

func add(ctx *Context, args []*big.Float, r *big.Float) error {
	r.Add(args[0], args[1])
	return nil
}

func sub(ctx *Context, args []*big.Float, r *big.Float) error {
	r.Sub(args[0], args[1])
	return nil
}

func mul(ctx *Context, args []*big.Float, r *big.Float) error {
	r.Mul(args[0], args[1])
	return nil
}

func quo(ctx *Context, args []*big.Float, r *big.Float) error {
	if args[1].Sign() == 0 {
		return &DivisionByZeroError{Func: "/"}
	}
	r.Quo(args[0], args[1])
	return nil
}

func pow(ctx *Context, args []*big.Float, r *big.Float) error {
	x, y := args[0], args[1]
	switch {
	case y.Sign() == 0:
		r.SetInt64(1)
		return nil
	case x.Sign() == 0:
		if y.Sign() < 0 {
			return &DivisionByZeroError{Func: "^"}
		}
		r.SetInt64(0)
		return nil
	}
	if y.IsInt() {
		if n, acc := y.Int64(); acc == big.Exact {
			powint(r, x, n)
			return nil
		}
		// y = m * 2^(e-p) with m odd, so y is odd only when e == p.
		odd := y.MantExp(nil) == int(y.MinPrec())
		if err := powreal(r, new(big.Float).Abs(x), y); err != nil {
			return err
		}
		if x.Signbit() && odd {
			r.Neg(r)
		}
		return nil
	}
	if x.Signbit() {
		return &DomainError{X: x, Arg: 1, Func: "^"}
	}
	return powreal(r, x, y)
}

// powreal sets r = a^y for a > 0. Results whose binary exponent is out of
// range overflow to a DomainError or underflow to zero without calling
// bigfloat.Pow.
func powreal(r, a, y *big.Float) error {
	if a.Cmp(big.NewFloat(1)) == 0 {
		r.SetInt64(1)
		return nil
	}
	var mant big.Float
	e := a.MantExp(&mant)
	m, _ := mant.Float64()
	yf, _ := y.Float64()
	// log2 of the result
	t := yf * (float64(e) + math.Log2(m))
	switch {
	case t > big.MaxExp:
		return &DomainError{Func: "^"}
	case t < big.MinExp:
		r.SetInt64(0)
		return nil
	}
	bigfloat.Pow(r, a, y)
	return nil
}

// powint sets z to x^n by binary exponentiation.
func powint(z, x *big.Float, n int64) {
	u := uint64(n)
	if n < 0 {
		u = uint64(-(n + 1)) + 1
	}
	b := new(big.Float).SetPrec(z.Prec()).Set(x)
	z.SetInt64(1)
	for u > 0 {
		if u&1 == 1 {
			z.Mul(z, b)
		}
		u >>= 1
		if u > 0 {
			b.Mul(b, b)
		}
	}
	if n < 0 {
		z.Quo(new(big.Float).SetInt64(1), z)
	}
}

// logb computes log(value, base).
func logb(ctx *Context, args []*big.Float, r *big.Float) error {
	x, b := args[0], args[1]
	if x.Sign() <= 0 {
		return &DomainError{X: x, Arg: 1, Func: "log"}
	}
	if b.Sign() <= 0 || b.Cmp(big.NewFloat(1)) == 0 {
		return &DomainError{X: b, Arg: 2, Func: "log"}
	}
	bigfloat.Log(r, x)
	d := bigfloat.Log(new(big.Float).SetPrec(r.Prec()), b)
	r.Quo(r, d)
	return nil
}

// extremum returns an ApplyFunc selecting the argument x for which
// x.Cmp(others) == sign for all others.
func extremum(sign int) ApplyFunc {
	return func(ctx *Context, args []*big.Float, r *big.Float) error {
		m := args[0]
		for _, x := range args[1:] {
			if x.Cmp(m) == sign {
				m = x
			}
		}
		r.Set(m)
		return nil
	}
}

// viaDecimal adapts a decimal function to big.Float. The decimal package
// computes these to roughly double precision regardless of the context.
func viaDecimal(f func(decimal.Decimal) decimal.Decimal) func(out, in *big.Float) *big.Float {
	return func(out, in *big.Float) *big.Float {
		d := decimal.RequireFromString(in.Text('g', -1))
		if _, _, err := out.Parse(f(d).String(), 10); err != nil {
			panic("calculator: decimal produced unparsable result: " + err.Error())
		}
		return out
	}
}

// maxTrigExp bounds the binary exponent of trigonometric arguments. Reducing
// larger arguments exactly needs π to more bits than is practical.
const maxTrigExp = 1 << 14

// trig creates a periodic function from a decimal one. The argument is
// reduced modulo 2π before the decimal package sees it. A division by zero
// inside f, as for tan at a pole, is a DomainError.
func trig(name string, f func(decimal.Decimal) decimal.Decimal) ApplyFunc {
	g := viaDecimal(f)
	return func(ctx *Context, args []*big.Float, r *big.Float) (err error) {
		x := args[0]
		if x.MantExp(nil) > maxTrigExp {
			return &DomainError{X: x, Arg: 1, Func: name}
		}
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			if _, ok := p.(string); !ok {
				panic(p)
			}
			err = &DomainError{X: x, Arg: 1, Func: name}
		}()
		g(r, reduce(x, r.Prec()))
		return nil
	}
}

// reduce returns x modulo 2π, with the sign of x, at precision prec. π is
// computed to enough bits beyond the integer part of x/2π that the remainder
// is accurate to prec bits.
func reduce(x *big.Float, prec uint) *big.Float {
	exp := x.MantExp(nil)
	if exp < 3 {
		// |x| < 4 < 2π
		return x
	}
	w := prec + uint(exp) + 64
	tau := bigfloat.Pi(new(big.Float).SetPrec(w))
	tau.Mul(tau, big.NewFloat(2))
	y := new(big.Float).SetPrec(w).Set(x)
	q := new(big.Float).SetPrec(w).Quo(y, tau)
	n, _ := q.Int(nil)
	q.SetInt(n)
	q.Mul(q, tau)
	y.Sub(y, q)
	return new(big.Float).SetPrec(prec).Set(y)
}

var atan = viaDecimal(decimal.Decimal.Atan)

func asin(ctx *Context, args []*big.Float, r *big.Float) error {
	x := args[0]
	var a big.Float
	switch a.Abs(x).Cmp(big.NewFloat(1)) {
	case 1:
		return &DomainError{X: x, Arg: 1, Func: "asin"}
	case 0:
		// ±pi/2; the tangent form divides by zero here.
		r.Quo(ctx.pi, big.NewFloat(2))
		if x.Signbit() {
			r.Neg(r)
		}
		return nil
	}
	// asin x = atan(x / sqrt(1 - x^2))
	t := new(big.Float).SetPrec(r.Prec())
	t.Mul(x, x)
	t.Sub(big.NewFloat(1), t)
	s := new(big.Float).SetPrec(r.Prec()).Sqrt(t)
	t.Quo(x, s)
	atan(r, t)
	return nil
}

func acos(ctx *Context, args []*big.Float, r *big.Float) error {
	if err := asin(ctx, args, r); err != nil {
		if d, ok := err.(*DomainError); ok {
			d.Func = "acos"
		}
		return err
	}
	h := new(big.Float).SetPrec(r.Prec()).Quo(ctx.pi, big.NewFloat(2))
	r.Sub(h, r)
	return nil
}

// exps sets p = e^x and n = e^-x at the precision of out.
func exps(out, x *big.Float) (p, n *big.Float) {
	p = bigfloat.Exp(new(big.Float).SetPrec(out.Prec()), x)
	n = new(big.Float).SetPrec(out.Prec()).Quo(big.NewFloat(1), p)
	return p, n
}

func sinh(out, in *big.Float) *big.Float {
	p, n := exps(out, in)
	out.Sub(p, n)
	return out.Quo(out, big.NewFloat(2))
}

func cosh(out, in *big.Float) *big.Float {
	p, n := exps(out, in)
	out.Add(p, n)
	return out.Quo(out, big.NewFloat(2))
}

// tanh |x| = (1 - e^-2|x|) / (1 + e^-2|x|), which is ±1 to the precision of
// out once e^-2|x| < 2^-(prec+2).
func tanh(out, in *big.Float) *big.Float {
	a := new(big.Float).Abs(in)
	if f, _ := a.Float64(); f > float64(out.Prec()+2)*math.Ln2/2 {
		out.SetInt64(1)
	} else {
		m := new(big.Float).SetPrec(out.Prec()).Mul(a, big.NewFloat(-2))
		q := bigfloat.Exp(new(big.Float).SetPrec(out.Prec()), m)
		n := new(big.Float).SetPrec(out.Prec()).Sub(big.NewFloat(1), q)
		d := new(big.Float).SetPrec(out.Prec()).Add(big.NewFloat(1), q)
		out.Quo(n, d)
	}
	if in.Signbit() {
		out.Neg(out)
	}
	return out
}

// asinh x = sign(x) ln(|x| + sqrt(x^2 + 1)), taking the sign out to avoid
// cancellation for negative x.
func asinh(out, in *big.Float) *big.Float {
	a := new(big.Float).SetPrec(out.Prec()).Abs(in)
	t := new(big.Float).SetPrec(out.Prec()).Mul(a, a)
	t.Add(t, big.NewFloat(1))
	s := new(big.Float).SetPrec(out.Prec()).Sqrt(t)
	s.Add(s, a)
	bigfloat.Log(out, s)
	if in.Signbit() {
		out.Neg(out)
	}
	return out
}

func acosh(out, in *big.Float) *big.Float {
	t := new(big.Float).SetPrec(out.Prec()).Mul(in, in)
	t.Sub(t, big.NewFloat(1))
	s := new(big.Float).SetPrec(out.Prec()).Sqrt(t)
	s.Add(s, in)
	return bigfloat.Log(out, s)
}

func atanh(out, in *big.Float) *big.Float {
	n := new(big.Float).SetPrec(out.Prec()).Add(big.NewFloat(1), in)
	d := new(big.Float).SetPrec(out.Prec()).Sub(big.NewFloat(1), in)
	n.Quo(n, d)
	bigfloat.Log(out, n)
	return out.Quo(out, big.NewFloat(2))
}
