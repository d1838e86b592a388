// Package calculator implements an arbitrary-precision calculator.
//
// Expressions use the binary operators + - * / and ^, negation, brackets, and
// named functions such as sqrt, ln, log(value, base), sin, and max(a, b, ...).
// "pi" and "e" are constants. "^" is right associative, so "2^3^2" is 512,
// and negation applies to the operand that follows it, so "-2^2" is -4 and
// "2^-1" is 0.5. Every operator must be written out: "2 x" is not a product.
//
// Evaluation is a single pass over the tokens of an expression with a value
// stack and an operator stack. A Context carries the working precision, so
// separate contexts never interfere with each other.
package calculator
