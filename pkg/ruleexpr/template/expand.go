package template

import (
	"fmt"
	"regexp"
	"strings"
)

// Regular expressions for variable patterns.
var (
	// bracePattern matches ${varname} - varname can contain alphanumeric and underscore.
	bracePattern = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

	// dollarPattern matches $varname where varname is followed by a non-word character
	// or end of string. This prevents $port from matching inside $portNumber.
	dollarPattern = regexp.MustCompile(`\$([a-zA-Z_][a-zA-Z0-9_]*)(?:\b|$)`)
)

// Expander expands variable patterns in rule messages and labels.
//
// Create with NewExpander() and configure with Option functions.
// Expander is safe for concurrent use after construction.
type Expander struct {
	missingAction MissingAction
	braceStyle    bool
	dollarStyle   bool
	format        func(any) string
}

// NewExpander creates a new Expander with the given options.
//
// Default configuration:
//   - MissingAction: MissingKeep (keep placeholders as-is)
//   - BraceStyle: enabled (${var})
//   - DollarStyle: enabled ($var)
//   - Formatter: fmt's %v
//
// Example:
//
//	exp := NewExpander(
//	    WithMissingAction(MissingError),
//	    WithDollarStyle(false),
//	)
func NewExpander(opts ...Option) *Expander {
	e := &Expander{
		missingAction: MissingKeep,
		braceStyle:    true,
		dollarStyle:   true,
		format:        func(v any) string { return fmt.Sprintf("%v", v) },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand expands variable patterns in s using the provided vars.
//
// Returns the expanded string and any error encountered.
// Errors are only returned when MissingAction is MissingError and
// a variable is not found; the partially expanded string is still returned.
//
// Example:
//
//	exp := NewExpander()
//	msg, err := exp.Expand("disk at ${usage}%", map[string]any{"usage": 93})
//	// msg: "disk at 93%"
func (e *Expander) Expand(s string, vars map[string]any) (string, error) {
	if s == "" {
		return "", nil
	}

	var missing []string
	result := s

	// ${var} first: it is the more specific form.
	if e.braceStyle {
		result = bracePattern.ReplaceAllStringFunc(result, func(match string) string {
			return e.substitute(match, match[2:len(match)-1], vars, &missing)
		})
	}
	if e.dollarStyle {
		result = dollarPattern.ReplaceAllStringFunc(result, func(match string) string {
			return e.substitute(match, match[1:], vars, &missing)
		})
	}

	if len(missing) > 0 {
		return result, &UndefinedVariableError{Names: missing}
	}
	return result, nil
}

// substitute returns the replacement for one placeholder.
func (e *Expander) substitute(match, name string, vars map[string]any, missing *[]string) string {
	if val, ok := vars[name]; ok {
		return e.format(val)
	}
	switch e.missingAction {
	case MissingEmpty:
		return ""
	case MissingError:
		*missing = append(*missing, name)
		return match
	default:
		return match
	}
}

// MustExpand expands variable patterns in s and panics on error.
//
// Use this when you're certain all variables are present or when using
// MissingKeep/MissingEmpty which never return errors.
func (e *Expander) MustExpand(s string, vars map[string]any) string {
	result, err := e.Expand(s, vars)
	if err != nil {
		panic(fmt.Sprintf("template: %v", err))
	}
	return result
}

// ExpandAll expands variable patterns in all strings.
//
// Returns a new slice with expanded strings.
// On error (with MissingError), returns nil and the first error.
func (e *Expander) ExpandAll(ss []string, vars map[string]any) ([]string, error) {
	if ss == nil {
		return nil, nil
	}

	results := make([]string, len(ss))
	for i, s := range ss {
		expanded, err := e.Expand(s, vars)
		if err != nil {
			return nil, err
		}
		results[i] = expanded
	}
	return results, nil
}

// ExpandLabels expands variable patterns in every label value.
//
// Returns a new map; keys are never expanded.
// On error (with MissingError), returns nil and the first error.
//
// Example:
//
//	labels, _ := exp.ExpandLabels(map[string]string{
//	    "host": "${hostname}",
//	    "team": "storage",
//	}, vars)
func (e *Expander) ExpandLabels(labels map[string]string, vars map[string]any) (map[string]string, error) {
	if labels == nil {
		return nil, nil
	}

	result := make(map[string]string, len(labels))
	for k, v := range labels {
		expanded, err := e.Expand(v, vars)
		if err != nil {
			return nil, fmt.Errorf("label %s: %w", k, err)
		}
		result[k] = expanded
	}
	return result, nil
}

// UndefinedVariableError is returned when MissingError is set and
// one or more variables are not found.
type UndefinedVariableError struct {
	// Names is the list of undefined variable names.
	Names []string
}

// Error implements the error interface.
func (e *UndefinedVariableError) Error() string {
	if len(e.Names) == 1 {
		return fmt.Sprintf("undefined variable: %s", e.Names[0])
	}
	return fmt.Sprintf("undefined variables: %s", strings.Join(e.Names, ", "))
}

// defaultExpander is the package-level expander with default settings.
var defaultExpander = NewExpander()

// Expand expands variable patterns in s using the default expander.
//
// Uses MissingKeep behavior (missing variables stay as-is).
//
// Example:
//
//	msg := template.Expand("${rule} failed", map[string]any{"rule": "disk_full"})
//	// msg: "disk_full failed"
func Expand(s string, vars map[string]any) string {
	// Default expander never returns errors (MissingKeep).
	result, _ := defaultExpander.Expand(s, vars)
	return result
}
