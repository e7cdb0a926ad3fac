package expr

import (
	"errors"
	"fmt"
)

// Sentinel errors for lexing.
var (
	// ErrUnterminatedLiteral indicates a double quote with no closing partner.
	ErrUnterminatedLiteral = errors.New("unterminated string literal")

	// ErrUnbalancedBracket indicates a function-call bracket with no partner.
	ErrUnbalancedBracket = errors.New("unbalanced function-call bracket")

	// ErrMalformedCall indicates a function-call fragment such as "f[a]b" or "[a]".
	ErrMalformedCall = errors.New("malformed function call")

	// ErrMisplacedLiteral indicates a quoted string glued to other text, e.g. abc"def".
	ErrMisplacedLiteral = errors.New("string literal adjacent to other text")

	// ErrReservedCharacter indicates the source contains the byte used to
	// mark extracted literals.
	ErrReservedCharacter = errors.New("reserved character in expression")
)

// Sentinel errors for evaluation.
var (
	// ErrUnresolvedReference indicates an identifier found in neither the
	// bindings nor the literal table.
	ErrUnresolvedReference = errors.New("unresolved reference")

	// ErrIllFormed indicates the postfix form did not reduce to exactly one value.
	ErrIllFormed = errors.New("ill-formed expression")

	// ErrFunctionNotFound indicates no registered package provides a function.
	ErrFunctionNotFound = errors.New("function not found")

	// ErrValidation indicates a function rejected its arguments.
	ErrValidation = errors.New("function validation failed")

	// ErrTypeMismatch indicates an operator received operands it cannot combine.
	ErrTypeMismatch = errors.New("operand type mismatch")

	// ErrDivisionByZero indicates a '/' with a zero right-hand operand.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrIntegerOverflow indicates integer arithmetic whose result does not
	// fit in an int64.
	ErrIntegerOverflow = errors.New("integer overflow")

	// ErrUnsupportedValue indicates a binding or function result outside
	// bool, integer, float and string.
	ErrUnsupportedValue = errors.New("unsupported value type")
)

// ErrNotProvided is returned by a Func to signal that its package does not
// provide the function after all. Lookup continues with the next package.
// Any other error aborts the evaluation.
var ErrNotProvided = errors.New("function not provided by package")

// SyntaxError wraps a lexing failure with the offending source.
type SyntaxError struct {
	// Source is the expression text that failed to lex.
	Source string
	// Offset is the byte offset of the problem, or -1 when unknown.
	Offset int
	// Err is the underlying sentinel.
	Err error
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("syntax error at offset %d in %q: %v", e.Offset, e.Source, e.Err)
	}
	return fmt.Sprintf("syntax error in %q: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// ReferenceError reports an identifier that could not be resolved.
type ReferenceError struct {
	// Name is the identifier as written in the expression.
	Name string
}

// Error implements the error interface.
func (e *ReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference: %s", e.Name)
}

// Unwrap returns ErrUnresolvedReference for errors.Is support.
func (e *ReferenceError) Unwrap() error {
	return ErrUnresolvedReference
}

// IllFormedError reports a stack imbalance during evaluation.
type IllFormedError struct {
	// Token is the operator that underflowed the stack, or empty when the
	// imbalance was detected at the end of evaluation.
	Token string
	// Depth is the operand stack size at the point of failure.
	Depth int
	// Unmatched is set when Token is a "(" with no closing parenthesis.
	Unmatched bool
}

// Error implements the error interface.
func (e *IllFormedError) Error() string {
	if e.Unmatched {
		return fmt.Sprintf("ill-formed expression: unmatched parenthesis %q", e.Token)
	}
	if e.Token != "" {
		return fmt.Sprintf("ill-formed expression: operator %q needs more operands than the %d available", e.Token, e.Depth)
	}
	return fmt.Sprintf("ill-formed expression: evaluation left %d values on the stack", e.Depth)
}

// Unwrap returns ErrIllFormed for errors.Is support.
func (e *IllFormedError) Unwrap() error {
	return ErrIllFormed
}

// ValidationError is returned by a Func that rejects its arguments.
// It aborts evaluation instead of falling through to the next package.
type ValidationError struct {
	// Message describes why the arguments were rejected.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments: %s", e.Message)
}

// Unwrap returns ErrValidation for errors.Is support.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Reject builds a ValidationError from a format string.
//
// Example:
//
//	if len(args) != 1 {
//	    return nil, expr.Reject("length takes 1 argument, got %d", len(args))
//	}
func Reject(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// CallError wraps a failure from a function-call token.
type CallError struct {
	// Func is the function name as written in the expression.
	Func string
	// Package is the package that produced the error, empty if none matched.
	Package string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *CallError) Error() string {
	if e.Package == "" {
		return fmt.Sprintf("call %s: %v", e.Func, e.Err)
	}
	return fmt.Sprintf("call %s.%s: %v", e.Package, e.Func, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *CallError) Unwrap() error {
	return e.Err
}

// OperandError reports operands an operator cannot combine.
type OperandError struct {
	// Op is the operator symbol.
	Op string
	// Left and Right are the offending operands. Right is nil for unary operators.
	Left, Right any
	// Err is the cause. Nil means ErrTypeMismatch.
	Err error
}

// Error implements the error interface.
func (e *OperandError) Error() string {
	if errors.Is(e.Err, ErrIntegerOverflow) {
		return fmt.Sprintf("operator %s: %v %s %v overflows int64", e.Op, e.Left, e.Op, e.Right)
	}
	return fmt.Sprintf("operator %s: cannot apply to %T and %T", e.Op, e.Left, e.Right)
}

// Unwrap returns the cause for errors.Is support.
func (e *OperandError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrTypeMismatch
}
