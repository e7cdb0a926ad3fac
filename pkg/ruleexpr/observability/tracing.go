package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the ruleexpr tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("ruleexpr")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartCheckSpan starts a span for a check over a rule set.
	// Returns the context with span and the span itself.
	StartCheckSpan(ctx context.Context, runID string, rules int) (context.Context, trace.Span)

	// StartRuleSpan starts a span for one rule evaluation.
	// The rule span should be a child of the check span.
	StartRuleSpan(ctx context.Context, rule, expression string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartCheckSpan starts a span for a check.
func (m *otelSpanManager) StartCheckSpan(ctx context.Context, runID string, rules int) (context.Context, trace.Span) {
	return StartCheckSpan(ctx, runID, rules)
}

// StartRuleSpan starts a span for a rule evaluation.
func (m *otelSpanManager) StartRuleSpan(ctx context.Context, rule, expression string) (context.Context, trace.Span) {
	return StartRuleSpan(ctx, rule, expression)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

// Convenience functions that operate on the global tracer.
// These are useful for simple cases where you don't need the interface.

// StartCheckSpan starts a span for a check over a rule set.
// Uses the global OTel tracer.
func StartCheckSpan(ctx context.Context, runID string, rules int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "ruleexpr.check",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("check.rules", rules),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartRuleSpan starts a span for one rule evaluation.
// Uses the global OTel tracer.
func StartRuleSpan(ctx context.Context, rule, expression string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "ruleexpr.rule."+rule,
		trace.WithAttributes(
			attribute.String("rule.name", rule),
			attribute.String("rule.expression", expression),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span in context.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
