package calculator_test

import (
	"testing"

	"github.com/zephyrtronium/calculator"
)

func FuzzEval(f *testing.F) {
	f.Add("1+2*3")
	f.Add("-2^-2")
	f.Add("max(1,,2)")
	f.Add("1×2")
	f.Fuzz(func(t *testing.T, s string) {
		r, err := calculator.EvalString(s)
		if (r == nil) == (err == nil) {
			t.Errorf("%q gave result %v and error %v", s, r, err)
		}
		if err != nil && calculator.ErrorKind(err) == "" {
			t.Errorf("%q gave unclassified error %#v", s, err)
		}
	})
}
