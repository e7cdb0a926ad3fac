package ruleexpr

import (
	"errors"
	"fmt"
)

// Sentinel errors for rule set building and compilation.
var (
	// ErrNoRules indicates Compile() was called on a rule set with no rules.
	ErrNoRules = errors.New("rule set has no rules")

	// ErrInvalidRuleName indicates a rule name is empty or contains whitespace.
	ErrInvalidRuleName = errors.New("invalid rule name")

	// ErrDuplicateRule indicates two rules share a name.
	ErrDuplicateRule = errors.New("duplicate rule name")

	// ErrEmptyExpression indicates a rule has no expression.
	ErrEmptyExpression = errors.New("rule expression is empty")

	// ErrUnknownAction indicates a rule references an action that was never added.
	ErrUnknownAction = errors.New("unknown action")
)

// Sentinel errors for checks.
var (
	// ErrNilContext indicates Check() was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrRuleNotFound indicates CheckRule() named a rule not in the set.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrRuleTimeout indicates an evaluation did not finish within its timeout.
	ErrRuleTimeout = errors.New("rule evaluation timed out")
)

// RuleError wraps an error with rule context.
// It provides information about which rule failed and what operation was attempted.
type RuleError struct {
	// Rule is the name of the rule that failed.
	Rule string
	// Op is the operation that failed ("compile", "evaluate").
	Op string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %s: %s: %v", e.Rule, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *RuleError) Unwrap() error {
	return e.Err
}

// PanicError captures a panic raised while evaluating a rule, usually by a
// registered function. It includes the stack trace for debugging.
type PanicError struct {
	// Rule is the name of the rule being evaluated.
	Rule string
	// Value is the value passed to panic().
	Value any
	// Stack is the full stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("rule %s panicked: %v", e.Rule, e.Value)
}

// ActionError wraps an error returned by an action.
type ActionError struct {
	Rule   string
	Action string
	Err    error
	// Attempts is how many times the action ran.
	Attempts int
}

// Error implements the error interface.
func (e *ActionError) Error() string {
	return fmt.Sprintf("rule %s: action %s: %v", e.Rule, e.Action, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ActionError) Unwrap() error {
	return e.Err
}

// HistoryError wraps errors from history operations.
type HistoryError struct {
	// Rule is the rule whose outcome was being read or saved.
	Rule string
	// Op is the operation that failed ("load", "save").
	Op string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *HistoryError) Error() string {
	return fmt.Sprintf("history %s for rule %s: %v", e.Op, e.Rule, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *HistoryError) Unwrap() error {
	return e.Err
}

// CancellationError reports a rule that was not evaluated, or was abandoned,
// because the check's context ended.
type CancellationError struct {
	Rule string
	// Cause is context.Canceled or context.DeadlineExceeded.
	Cause error
	// WasEvaluating is true if cancellation occurred during evaluation.
	WasEvaluating bool
}

// Error implements the error interface.
func (e *CancellationError) Error() string {
	if e.WasEvaluating {
		return fmt.Sprintf("cancelled during rule %s: %v", e.Rule, e.Cause)
	}
	return fmt.Sprintf("cancelled before rule %s: %v", e.Rule, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CancellationError) Unwrap() error {
	return e.Cause
}
