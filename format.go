package calculator

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Format renders x as a plain decimal literal, without an exponent, so that
// the result is itself a valid expression. digits is the number of
// significant digits to keep; if it is negative, Format uses the fewest
// digits that identify x uniquely at its precision, and evaluating the result
// at that precision gives back exactly x.
func Format(x *big.Float, digits int) string {
	if x.IsInf() {
		return x.String()
	}
	if digits == 0 {
		digits = 1
	}
	return decimal.RequireFromString(x.Text('g', digits)).String()
}
