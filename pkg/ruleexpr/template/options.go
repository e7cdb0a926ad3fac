package template

// MissingAction specifies how to handle missing variables.
type MissingAction int

const (
	// MissingKeep keeps the placeholder as-is when the variable is not found.
	// This is the default behavior.
	MissingKeep MissingAction = iota

	// MissingEmpty replaces the placeholder with an empty string when
	// the variable is not found.
	MissingEmpty

	// MissingError returns an error when a variable is not found.
	MissingError
)

// Option configures an Expander.
type Option func(*Expander)

// WithMissingAction sets how missing variables are handled.
//
// Default: MissingKeep (keep placeholder as-is)
//
// Example:
//
//	exp := NewExpander(WithMissingAction(MissingError))
//	_, err := exp.Expand("${usage} over limit", nil)
//	// err: "undefined variable: usage"
func WithMissingAction(action MissingAction) Option {
	return func(e *Expander) {
		e.missingAction = action
	}
}

// WithBraceStyle enables or disables ${var} pattern expansion.
//
// Default: true (enabled)
//
// Example:
//
//	exp := NewExpander(WithBraceStyle(false))
//	msg, _ := exp.Expand("${host}", map[string]any{"host": "db1"})
//	// msg: "${host}" (not expanded)
func WithBraceStyle(enabled bool) Option {
	return func(e *Expander) {
		e.braceStyle = enabled
	}
}

// WithDollarStyle enables or disables $var pattern expansion.
//
// Default: true (enabled)
//
// Example:
//
//	exp := NewExpander(WithDollarStyle(false))
//	msg, _ := exp.Expand("costs $5", map[string]any{})
//	// msg: "costs $5" (a bare dollar is never a placeholder)
func WithDollarStyle(enabled bool) Option {
	return func(e *Expander) {
		e.dollarStyle = enabled
	}
}

// WithFormatter sets how substituted values are rendered.
//
// Default: fmt's %v. Rule messages use expr.Format so values render the
// way expressions compare them as text.
//
// Example:
//
//	exp := NewExpander(WithFormatter(expr.Format))
func WithFormatter(format func(any) string) Option {
	return func(e *Expander) {
		if format != nil {
			e.format = format
		}
	}
}
