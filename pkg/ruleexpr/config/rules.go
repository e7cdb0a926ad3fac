package config

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for rule file decoding.
var (
	// ErrNoRules indicates the configuration has no "rules" list.
	ErrNoRules = errors.New("no rules list in configuration")

	// ErrRuleField indicates a rule entry is missing a required field.
	ErrRuleField = errors.New("missing required rule field")
)

// RuleSpec is one entry of a rule file's "rules" list.
//
//	rules:
//	  - name: disk_full
//	    expression: usage["/"] > 90
//	    message: "disk at ${value}%"
//	    on_fail: [page]
//	    timeout: 500ms
//	    labels: {team: storage}
type RuleSpec struct {
	Name       string
	Expression string
	Message    string
	OnPass     []string
	OnFail     []string
	Timeout    time.Duration
	Labels     map[string]string
	Disabled   bool
}

// Settings holds the top-level check settings of a rule file.
type Settings struct {
	// Timeout is the default per-rule evaluation timeout. Zero means none.
	Timeout time.Duration

	// History is the SQLite path for outcome history. Empty disables it,
	// ":memory:" keeps it in process.
	History string

	// Metrics enables OpenTelemetry metrics.
	Metrics bool

	// Tracing enables OpenTelemetry tracing.
	Tracing bool

	// MaxConcurrency limits concurrent rule evaluations. Zero means no limit.
	MaxConcurrency int

	// ActionRetries is the number of attempts for actions returning
	// transient errors. Zero or one means no retries.
	ActionRetries int

	// Bindings are constant bindings merged under every check's bindings.
	Bindings map[string]any
}

// ReadSettings extracts the top-level check settings.
func ReadSettings(c Config) Settings {
	bindings, _ := c.Map("bindings")
	return Settings{
		Timeout:  c.Duration("timeout", 0),
		History:  c.String("history", ""),
		Metrics:  c.Bool("metrics", false),
		Tracing:  c.Bool("tracing", false),
		Bindings: bindings,

		MaxConcurrency: c.Int("max_concurrency", 0),
		ActionRetries:  c.Int("action_retries", 0),
	}
}

// Rules decodes the "rules" list. Disabled rules are skipped. All entry
// errors are reported together.
func Rules(c Config) ([]RuleSpec, error) {
	entries, ok := c.List("rules")
	if !ok {
		return nil, ErrNoRules
	}

	var (
		specs []RuleSpec
		errs  []error
	)
	for i, entry := range entries {
		spec := RuleSpec{
			Name:       entry.String("name", ""),
			Expression: entry.String("expression", ""),
			Message:    entry.String("message", ""),
			OnPass:     entry.StringSlice("on_pass", nil),
			OnFail:     entry.StringSlice("on_fail", nil),
			Timeout:    entry.Duration("timeout", 0),
			Labels:     entry.StringMap("labels", nil),
			Disabled:   entry.Bool("disabled", false),
		}
		if spec.Name == "" {
			errs = append(errs, fmt.Errorf("%w: rules[%d]: name", ErrRuleField, i))
			continue
		}
		if spec.Expression == "" {
			errs = append(errs, fmt.Errorf("%w: rule %s: expression", ErrRuleField, spec.Name))
			continue
		}
		if spec.Disabled {
			continue
		}
		specs = append(specs, spec)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return specs, nil
}

// LoadRules reads a rule file and decodes its settings and rules.
func LoadRules(path string) (Settings, []RuleSpec, error) {
	c, err := FromFile(path)
	if err != nil {
		return Settings{}, nil, err
	}
	specs, err := Rules(c)
	if err != nil {
		return Settings{}, nil, fmt.Errorf("%s: %w", path, err)
	}
	return ReadSettings(c), specs, nil
}
