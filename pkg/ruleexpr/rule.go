package ruleexpr

import (
	"time"

	"github.com/randalmurphal/ruleexpr/pkg/ruleexpr/config"
)

// Rule binds a name to an expression and to what happens with its outcome.
type Rule struct {
	// Name identifies the rule. It must be unique within a rule set and
	// contain no whitespace.
	Name string

	// Expression is evaluated against the check's bindings. A truthy
	// result passes the rule.
	Expression string

	// Message is expanded with the bindings plus "rule", "outcome" and
	// "value" after evaluation. Optional.
	Message string

	// OnPass and OnFail name actions to run for each outcome.
	// Indeterminate outcomes run neither.
	OnPass []string
	OnFail []string

	// Timeout overrides the check's timeout for this rule. Zero means use
	// the check's.
	Timeout time.Duration

	// Labels are expanded like Message and copied to the result.
	Labels map[string]string
}

// RuleFromSpec converts a decoded rule file entry to a Rule.
func RuleFromSpec(spec config.RuleSpec) Rule {
	return Rule{
		Name:       spec.Name,
		Expression: spec.Expression,
		Message:    spec.Message,
		OnPass:     spec.OnPass,
		OnFail:     spec.OnFail,
		Timeout:    spec.Timeout,
		Labels:     spec.Labels,
	}
}

// ActionFunc is the signature for actions dispatched after an outcome.
// Actions receive the rule's context and its result. An action error is
// reported but never changes the outcome.
//
// Example:
//
//	func page(ctx ruleexpr.Context, r ruleexpr.Result) error {
//	    return pager.Send(ctx, r.Rule, r.Message)
//	}
type ActionFunc func(ctx Context, result Result) error

// Outcome is the verdict of one rule evaluation.
type Outcome int

const (
	// OutcomeIndeterminate means the rule could not be evaluated.
	OutcomeIndeterminate Outcome = iota
	// OutcomePass means the expression returned a truthy value.
	OutcomePass
	// OutcomeFail means the expression returned a falsy value.
	OutcomeFail
)

// String returns the outcome name used in logs, metrics and history.
func (o Outcome) String() string {
	switch o {
	case OutcomePass:
		return "pass"
	case OutcomeFail:
		return "fail"
	default:
		return "indeterminate"
	}
}

// ParseOutcome is the inverse of Outcome.String. Unknown names parse as
// OutcomeIndeterminate.
func ParseOutcome(s string) Outcome {
	switch s {
	case "pass":
		return OutcomePass
	case "fail":
		return OutcomeFail
	default:
		return OutcomeIndeterminate
	}
}

// Result is the outcome of one rule in one check.
type Result struct {
	// ID uniquely identifies this result. It is also the history record ID.
	ID    string
	RunID string
	Rule  string

	Outcome Outcome

	// Value is the expression result, nil if indeterminate.
	Value any

	// Err is the evaluation error of an indeterminate rule.
	Err error

	Message string
	Labels  map[string]string

	// Actions lists the actions that were run, in order.
	Actions []string

	// Previous is the outcome recorded by the last check, valid when
	// HasPrevious is true. Only set when history is enabled.
	Previous    Outcome
	HasPrevious bool

	// Changed is true when a previous outcome exists and differs.
	Changed bool

	Duration time.Duration
}

// Passed reports whether the rule passed.
func (r Result) Passed() bool {
	return r.Outcome == OutcomePass
}
