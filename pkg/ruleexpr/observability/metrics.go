package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records ruleexpr metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordEvaluation records one rule evaluation with its outcome and duration.
	// err is the evaluation error of an indeterminate rule, or nil.
	RecordEvaluation(ctx context.Context, rule, outcome string, duration time.Duration, err error)

	// RecordCheck records a completed check over a rule set.
	RecordCheck(ctx context.Context, rules int, success bool, duration time.Duration)

	// RecordAction records an action dispatched after a rule outcome.
	RecordAction(ctx context.Context, action string, err error)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	evaluations  metric.Int64Counter
	ruleLatency  metric.Float64Histogram
	ruleErrors   metric.Int64Counter
	checks       metric.Int64Counter
	checkLatency metric.Float64Histogram
	checkRules   metric.Int64Histogram
	actions      metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("ruleexpr")

	evaluations, err := meter.Int64Counter("ruleexpr.rule.evaluations",
		metric.WithDescription("Number of rule evaluations"),
	)
	if err != nil {
		return nil, err
	}

	ruleLatency, err := meter.Float64Histogram("ruleexpr.rule.latency_ms",
		metric.WithDescription("Rule evaluation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	ruleErrors, err := meter.Int64Counter("ruleexpr.rule.errors",
		metric.WithDescription("Number of rule evaluations that failed"),
	)
	if err != nil {
		return nil, err
	}

	checks, err := meter.Int64Counter("ruleexpr.check.runs",
		metric.WithDescription("Number of rule set checks"),
	)
	if err != nil {
		return nil, err
	}

	checkLatency, err := meter.Float64Histogram("ruleexpr.check.latency_ms",
		metric.WithDescription("Rule set check latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	checkRules, err := meter.Int64Histogram("ruleexpr.check.rules",
		metric.WithDescription("Number of rules evaluated per check"),
	)
	if err != nil {
		return nil, err
	}

	actions, err := meter.Int64Counter("ruleexpr.action.runs",
		metric.WithDescription("Number of actions dispatched"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		evaluations:  evaluations,
		ruleLatency:  ruleLatency,
		ruleErrors:   ruleErrors,
		checks:       checks,
		checkLatency: checkLatency,
		checkRules:   checkRules,
		actions:      actions,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordEvaluation records a rule evaluation.
func (m *otelMetrics) RecordEvaluation(ctx context.Context, rule, outcome string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("rule", rule),
		attribute.String("outcome", outcome),
	)

	m.evaluations.Add(ctx, 1, attrs)
	m.ruleLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)

	if err != nil {
		m.ruleErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("rule", rule)))
	}
}

// RecordCheck records a rule set check.
func (m *otelMetrics) RecordCheck(ctx context.Context, rules int, success bool, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.Bool("success", success),
	)
	m.checks.Add(ctx, 1, attrs)
	m.checkLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	m.checkRules.Record(ctx, int64(rules))
}

// RecordAction records an action dispatch.
func (m *otelMetrics) RecordAction(ctx context.Context, action string, err error) {
	m.actions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.Bool("success", err == nil),
	))
}
