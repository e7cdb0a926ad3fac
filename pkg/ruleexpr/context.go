package ruleexpr

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/randalmurphal/ruleexpr/pkg/ruleexpr/observability"
)

// Context provides check context to actions and registered functions.
// It extends context.Context with check metadata.
//
// Every rule is evaluated under a derived Context that carries the rule
// name, an enriched logger and the rule's timeout. That Context is also
// the additional context handed to registered functions, so a function
// can honor cancellation. Actions get the same Context without the rule
// timeout:
//
//	func lookup(args []any, extra any) (any, error) {
//	    ctx, _ := extra.(ruleexpr.Context)
//	    ...
//	}
type Context interface {
	context.Context

	// Logger returns the configured logger, enriched with run and rule context.
	// Never returns nil - defaults to slog.Default() if not configured.
	Logger() *slog.Logger

	// RunID returns the unique identifier for this check run.
	// Auto-generated if not configured.
	RunID() string

	// Rule returns the rule being evaluated.
	// Empty string outside a rule evaluation.
	Rule() string
}

// checkContext is the internal implementation of Context.
type checkContext struct {
	context.Context

	logger *slog.Logger
	runID  string
	rule   string
}

// Logger returns the configured logger.
func (c *checkContext) Logger() *slog.Logger {
	return c.logger
}

// RunID returns the run identifier.
func (c *checkContext) RunID() string {
	return c.runID
}

// Rule returns the current rule name.
func (c *checkContext) Rule() string {
	return c.rule
}

// ContextOption configures a Context.
type ContextOption func(*checkContext)

// WithLogger sets the logger for the context.
// The logger will be enriched with run_id and rule during a check.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *checkContext) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRunID sets the run identifier for the context.
// If not set, a UUID will be auto-generated.
func WithRunID(id string) ContextOption {
	return func(c *checkContext) {
		if id != "" {
			c.runID = id
		}
	}
}

// NewContext creates a check context from a standard context.
//
// Example:
//
//	ctx := ruleexpr.NewContext(context.Background(),
//	    ruleexpr.WithLogger(myLogger),
//	    ruleexpr.WithRunID("nightly-42"))
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	cc := &checkContext{
		Context: ctx,
		logger:  slog.Default(),
		runID:   uuid.New().String(),
	}

	for _, opt := range opts {
		opt(cc)
	}

	return cc
}

// withRule returns a derived context for one rule evaluation. parent
// replaces the embedded context so spans and deadlines flow through.
func withRule(c Context, parent context.Context, rule string) *checkContext {
	logger := c.Logger()
	if logger == nil {
		logger = slog.Default()
	}
	return &checkContext{
		Context: parent,
		logger:  observability.EnrichLogger(logger, c.RunID(), rule),
		runID:   c.RunID(),
		rule:    rule,
	}
}

// withParent returns a copy of c embedding parent instead.
func (c *checkContext) withParent(parent context.Context) *checkContext {
	cp := *c
	cp.Context = parent
	return &cp
}
