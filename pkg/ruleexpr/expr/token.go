package expr

import "strings"

// Kind classifies a token produced by the lexer.
type Kind int

const (
	// KindParen is an opening or closing parenthesis.
	KindParen Kind = iota

	// KindOperator is a member of the operator table.
	KindOperator

	// KindAttribute is a variable name or an extracted string literal,
	// resolved at evaluation time.
	KindAttribute

	// KindValue is an integer or boolean literal.
	KindValue

	// KindFunction is a whole call fragment such as length[a].
	KindFunction
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindParen:
		return "paren"
	case KindOperator:
		return "operator"
	case KindAttribute:
		return "attribute"
	case KindValue:
		return "value"
	case KindFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Token is the smallest classified unit of an expression.
type Token struct {
	// Kind is the token classification.
	Kind Kind

	// Text is the token as written. Extracted literals are shown re-quoted.
	Text string

	// Value holds the int64 or bool of a KindValue token.
	Value any

	// Literal is the index into the literal table for attributes that came
	// from a quoted string, or -1.
	Literal int

	// Call holds the parsed call of a KindFunction token.
	Call *Call
}

// String returns the token text.
func (t Token) String() string {
	return t.Text
}

// Call is a function-call fragment split into its name and raw arguments.
type Call struct {
	// Name is the function name before the bracket.
	Name string

	// Args are the comma-separated arguments in source order.
	Args []Arg
}

// Arg is one raw function argument.
type Arg struct {
	// Text is the argument as written. Extracted literals are shown re-quoted.
	Text string

	// Literal is the literal table index when the argument was a quoted
	// string, or -1.
	Literal int
}

// joinTokens renders tokens separated by single spaces.
func joinTokens(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = tok.Text
	}
	return strings.Join(parts, " ")
}
