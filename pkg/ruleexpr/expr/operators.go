package expr

import (
	"cmp"
	"math"
	"sort"
	"strings"
)

// Precedence levels. An open parenthesis only acts as a barrier on the
// operator stack and is never emitted.
const (
	precParen = 1
	precLow   = 2
	precHigh  = 3
)

// Operator describes one entry of the fixed operator table.
type Operator struct {
	// Symbol is the operator as written.
	Symbol string

	// Apply computes the result from operands in push order.
	Apply func(operands ...any) (any, error)

	// Arity is the number of operands popped, 1 or 2.
	Arity int

	// Precedence is 2 for connectives and additive operators, 3 for
	// comparisons and multiplicative operators.
	Precedence int
}

// operators is built once and never mutated.
var operators = map[string]Operator{
	"=":         binary("=", precHigh, opEqual),
	"!=":        binary("!=", precHigh, opNotEqual),
	"<":         binary("<", precHigh, ordered("<", func(c int) bool { return c < 0 })),
	">":         binary(">", precHigh, ordered(">", func(c int) bool { return c > 0 })),
	"<=":        binary("<=", precHigh, ordered("<=", func(c int) bool { return c <= 0 })),
	">=":        binary(">=", precHigh, ordered(">=", func(c int) bool { return c >= 0 })),
	"contains":  binary("contains", precHigh, opContains),
	"icontains": binary("icontains", precHigh, opIContains),
	"*":         binary("*", precHigh, opMul),
	"/":         binary("/", precHigh, opDiv),
	"and":       binary("and", precLow, opAnd),
	"or":        binary("or", precLow, opOr),
	"+":         binary("+", precLow, opAdd),
	"-":         binary("-", precLow, opSub),
	"not": {
		Symbol:     "not",
		Arity:      1,
		Precedence: precLow,
		Apply: func(operands ...any) (any, error) {
			return !IsTruthy(operands[0]), nil
		},
	},
}

func binary(symbol string, prec int, fn func(left, right any) (any, error)) Operator {
	return Operator{
		Symbol:     symbol,
		Arity:      2,
		Precedence: prec,
		Apply: func(operands ...any) (any, error) {
			return fn(operands[0], operands[1])
		},
	}
}

// LookupOperator returns the table entry for symbol.
func LookupOperator(symbol string) (Operator, bool) {
	op, ok := operators[symbol]
	return op, ok
}

// Operators returns all operator symbols, sorted.
func Operators() []string {
	symbols := make([]string, 0, len(operators))
	for s := range operators {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

func isOperator(s string) bool {
	_, ok := operators[s]
	return ok
}

// precedence returns the stack precedence of an operator or open paren.
func precedence(tok Token) int {
	if tok.Kind == KindParen {
		return precParen
	}
	return operators[tok.Text].Precedence
}

// equal compares numbers by value and everything else by type and value.
// Values of different kinds are never equal.
func equal(left, right any) bool {
	if l, ok := left.(int64); ok {
		if r, ok := right.(int64); ok {
			return l == r
		}
	}
	if l, ok := asNumber(left); ok {
		if r, ok := asNumber(right); ok {
			return l == r
		}
		return false
	}
	return left == right
}

func opEqual(left, right any) (any, error) {
	return equal(left, right), nil
}

func opNotEqual(left, right any) (any, error) {
	return !equal(left, right), nil
}

// ordered builds an ordering comparison over numbers or over strings.
func ordered(symbol string, test func(c int) bool) func(left, right any) (any, error) {
	return func(left, right any) (any, error) {
		if l, ok := left.(int64); ok {
			if r, ok := right.(int64); ok {
				return test(cmp.Compare(l, r)), nil
			}
		}
		if l, ok := asNumber(left); ok {
			if r, ok := asNumber(right); ok {
				return test(cmp.Compare(l, r)), nil
			}
		}
		if l, ok := left.(string); ok {
			if r, ok := right.(string); ok {
				return test(strings.Compare(l, r)), nil
			}
		}
		return nil, &OperandError{Op: symbol, Left: left, Right: right}
	}
}

// opContains checks if left contains right as a substring.
func opContains(left, right any) (any, error) {
	return strings.Contains(Format(left), Format(right)), nil
}

// opIContains is opContains ignoring case. The needle is the right operand.
func opIContains(left, right any) (any, error) {
	return strings.Contains(strings.ToLower(Format(left)), strings.ToLower(Format(right))), nil
}

func opAnd(left, right any) (any, error) {
	return IsTruthy(left) && IsTruthy(right), nil
}

func opOr(left, right any) (any, error) {
	return IsTruthy(left) || IsTruthy(right), nil
}

// opAdd adds numbers or concatenates strings.
func opAdd(left, right any) (any, error) {
	if l, ok := left.(string); ok {
		if r, ok := right.(string); ok {
			return l + r, nil
		}
	}
	return arith("+", left, right,
		func(l, r int64) (int64, bool) {
			s := l + r
			return s, (s > l) == (r > 0)
		},
		func(l, r float64) float64 { return l + r })
}

func opSub(left, right any) (any, error) {
	return arith("-", left, right,
		func(l, r int64) (int64, bool) {
			d := l - r
			return d, (d < l) == (r > 0)
		},
		func(l, r float64) float64 { return l - r })
}

func opMul(left, right any) (any, error) {
	return arith("*", left, right,
		func(l, r int64) (int64, bool) {
			if l == 0 || r == 0 {
				return 0, true
			}
			p := l * r
			return p, p/r == l && !(r == -1 && l == math.MinInt64)
		},
		func(l, r float64) float64 { return l * r })
}

// opDiv always produces a float64.
func opDiv(left, right any) (any, error) {
	l, lok := asNumber(left)
	r, rok := asNumber(right)
	if !lok || !rok {
		return nil, &OperandError{Op: "/", Left: left, Right: right}
	}
	if r == 0 {
		return nil, ErrDivisionByZero
	}
	return l / r, nil
}

// arith applies ints when both operands are int64, floats otherwise.
// ints reports false when the result overflowed.
func arith(symbol string, left, right any, ints func(l, r int64) (int64, bool), floats func(l, r float64) float64) (any, error) {
	if l, ok := left.(int64); ok {
		if r, ok := right.(int64); ok {
			v, ok := ints(l, r)
			if !ok {
				return nil, &OperandError{Op: symbol, Left: l, Right: r, Err: ErrIntegerOverflow}
			}
			return v, nil
		}
	}
	l, lok := asNumber(left)
	r, rok := asNumber(right)
	if !lok || !rok {
		return nil, &OperandError{Op: symbol, Left: left, Right: right}
	}
	return floats(l, r), nil
}
