package ruleexpr

import (
	"log/slog"
	"time"

	"github.com/randalmurphal/ruleexpr/pkg/ruleexpr/event"
	"github.com/randalmurphal/ruleexpr/pkg/ruleexpr/history"
	"github.com/randalmurphal/ruleexpr/pkg/ruleexpr/observability"
	"github.com/randalmurphal/ruleexpr/pkg/ruleexpr/retry"
)

// checkConfig holds configuration for one check.
type checkConfig struct {
	timeout        time.Duration
	maxConcurrency int
	bindings       map[string]any

	logger         *slog.Logger
	metricsEnabled bool
	metrics        observability.MetricsRecorder
	tracingEnabled bool
	spans          observability.SpanManager

	history             history.Store
	historyFailureFatal bool

	actionRetry retry.Config

	events event.Bus
}

// defaultCheckConfig returns the default check configuration.
func defaultCheckConfig() checkConfig {
	return checkConfig{
		metrics:     observability.NoopMetrics{},
		spans:       observability.NoopSpanManager{},
		actionRetry: retry.None,
	}
}

// CheckOption configures check behavior.
type CheckOption func(*checkConfig)

// WithTimeout sets the evaluation timeout for rules without their own.
// Default: no timeout.
//
// A rule that exceeds its timeout is indeterminate with ErrRuleTimeout.
// The evaluation goroutine is abandoned, not stopped; functions that block
// should watch the Context they receive.
func WithTimeout(d time.Duration) CheckOption {
	return func(c *checkConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxConcurrency limits how many rules are evaluated at once.
// Default: 0 (all rules at once).
func WithMaxConcurrency(n int) CheckOption {
	return func(c *checkConfig) {
		if n > 0 {
			c.maxConcurrency = n
		}
	}
}

// WithBindings sets base bindings. Bindings passed to Check take
// precedence over these on name collisions.
func WithBindings(bindings map[string]any) CheckOption {
	return func(c *checkConfig) {
		c.bindings = bindings
	}
}

// WithObservabilityLogger sets the logger for check-level logging.
// When nil, check-level logging is disabled. Rule-level loggers come from
// the Context.
func WithObservabilityLogger(logger *slog.Logger) CheckOption {
	return func(c *checkConfig) {
		c.logger = logger
	}
}

// WithMetrics enables OpenTelemetry metrics for the check.
// Uses the global MeterProvider.
func WithMetrics(enabled bool) CheckOption {
	return func(c *checkConfig) {
		c.metricsEnabled = enabled
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithTracing enables OpenTelemetry tracing for the check.
// Uses the global TracerProvider.
func WithTracing(enabled bool) CheckOption {
	return func(c *checkConfig) {
		c.tracingEnabled = enabled
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithHistory records every result in store and sets Result.Changed
// against the previous record of the same rule.
func WithHistory(store history.Store) CheckOption {
	return func(c *checkConfig) {
		c.history = store
	}
}

// WithHistoryFailureFatal controls whether history errors are returned
// from Check. Default: false (logged only).
func WithHistoryFailureFatal(fatal bool) CheckOption {
	return func(c *checkConfig) {
		c.historyFailureFatal = fatal
	}
}

// WithActionRetry retries actions whose errors are retryable, as decided
// by cfg.Retryable or retry.IsRetryable. Default: retry.None.
//
// Example:
//
//	compiled.Check(ctx, bindings, ruleexpr.WithActionRetry(retry.NewConfig(
//	    retry.WithMaxAttempts(5),
//	    retry.WithInitialBackoff(100*time.Millisecond),
//	)))
//
// Actions opt in by returning retry.Transient(err).
func WithActionRetry(cfg retry.Config) CheckOption {
	return func(c *checkConfig) {
		c.actionRetry = cfg
	}
}

// WithEvents publishes an event for every rule result to bus, plus an
// event.TypeChanged event when history shows the outcome changed.
// Publish errors are logged and otherwise ignored.
func WithEvents(bus event.Bus) CheckOption {
	return func(c *checkConfig) {
		c.events = bus
	}
}
