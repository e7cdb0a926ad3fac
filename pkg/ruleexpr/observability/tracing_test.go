package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTracingTest creates a test tracer provider with an in-memory span recorder.
func setupTracingTest(t *testing.T) (*tracetest.InMemoryExporter, func()) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)

	// Save the original provider
	originalProvider := otel.GetTracerProvider()

	// Set test provider
	otel.SetTracerProvider(tp)

	// Update the package-level tracer
	tracer = otel.Tracer("ruleexpr")

	cleanup := func() {
		otel.SetTracerProvider(originalProvider)
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down tracer provider: %v", err)
		}
	}

	return exporter, cleanup
}

// spanAttr returns the string form of a span attribute, or "" if absent.
func spanAttr(attrs []attribute.KeyValue, key string) string {
	for _, attr := range attrs {
		if string(attr.Key) == key {
			return attr.Value.Emit()
		}
	}
	return ""
}

func TestStartCheckSpan(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	t.Run("creates span with correct name and attributes", func(t *testing.T) {
		_, span := StartCheckSpan(context.Background(), "run-123", 4)
		require.NotNil(t, span)
		span.End()

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)

		s := spans[0]
		assert.Equal(t, "ruleexpr.check", s.Name)
		assert.Equal(t, "run-123", spanAttr(s.Attributes, "run.id"))
		assert.Equal(t, "4", spanAttr(s.Attributes, "check.rules"))
	})

	t.Run("returns context with span", func(t *testing.T) {
		exporter.Reset()

		ctx := context.Background()
		newCtx, span := StartCheckSpan(ctx, "run-456", 1)
		assert.NotEqual(t, ctx, newCtx)
		span.End()

		require.Len(t, exporter.GetSpans(), 1)
	})
}

func TestStartRuleSpan(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	t.Run("names the span after the rule", func(t *testing.T) {
		_, span := StartRuleSpan(context.Background(), "disk_full", "usage > 90")
		span.End()

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)

		s := spans[0]
		assert.Equal(t, "ruleexpr.rule.disk_full", s.Name)
		assert.Equal(t, "disk_full", spanAttr(s.Attributes, "rule.name"))
		assert.Equal(t, "usage > 90", spanAttr(s.Attributes, "rule.expression"))
	})

	t.Run("rule span is a child of the check span", func(t *testing.T) {
		exporter.Reset()

		ctx, checkSpan := StartCheckSpan(context.Background(), "run-1", 1)
		_, ruleSpan := StartRuleSpan(ctx, "disk_full", "usage > 90")
		ruleSpan.End()
		checkSpan.End()

		spans := exporter.GetSpans()
		require.Len(t, spans, 2)

		ruleData, checkData := spans[0], spans[1]
		assert.Equal(t, checkData.SpanContext.TraceID(), ruleData.SpanContext.TraceID())
		assert.Equal(t, checkData.SpanContext.SpanID(), ruleData.Parent.SpanID())
	})
}

func TestEndSpanWithError(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	t.Run("sets OK status for nil error", func(t *testing.T) {
		_, span := StartRuleSpan(context.Background(), "r", "a")

		EndSpanWithError(span, nil)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Ok, spans[0].Status.Code)
		assert.Equal(t, "", spans[0].Status.Description)
	})

	t.Run("sets Error status and records error", func(t *testing.T) {
		exporter.Reset()

		_, span := StartRuleSpan(context.Background(), "r", "a")
		EndSpanWithError(span, errors.New("unresolved reference: a"))

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)

		s := spans[0]
		assert.Equal(t, codes.Error, s.Status.Code)
		assert.Equal(t, "unresolved reference: a", s.Status.Description)

		found := false
		for _, event := range s.Events {
			if event.Name == "exception" {
				found = true
			}
		}
		assert.True(t, found, "Expected exception event")
	})

	t.Run("nil span does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			EndSpanWithError(nil, nil)
			EndSpanWithError(nil, errors.New("test"))
		})
	})
}

func TestAddSpanEvent(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	t.Run("adds event to current span", func(t *testing.T) {
		ctx, span := StartCheckSpan(context.Background(), "run-1", 1)

		AddSpanEvent(ctx, "outcome_changed",
			attribute.String("rule", "disk_full"),
			attribute.String("outcome", "fail"),
		)
		span.End()

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)

		var found bool
		for _, event := range spans[0].Events {
			if event.Name == "outcome_changed" {
				found = true
				assert.Equal(t, "disk_full", spanAttr(event.Attributes, "rule"))
				assert.Equal(t, "fail", spanAttr(event.Attributes, "outcome"))
			}
		}
		assert.True(t, found, "Expected to find outcome_changed event")
	})

	t.Run("no panic with no current span", func(t *testing.T) {
		assert.NotPanics(t, func() {
			AddSpanEvent(context.Background(), "test_event")
		})
	})
}

func TestSpanManager_Interface(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	sm := NewSpanManager()
	require.NotNil(t, sm)

	ctx, checkSpan := sm.StartCheckSpan(context.Background(), "run-if", 1)
	ruleCtx, ruleSpan := sm.StartRuleSpan(ctx, "interface-rule", "a")
	sm.AddSpanEvent(ruleCtx, "custom_event", attribute.String("key", "value"))
	sm.EndSpanWithError(ruleSpan, errors.New("wrapped: inner error"))
	sm.EndSpanWithError(checkSpan, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	assert.Equal(t, "ruleexpr.rule.interface-rule", spans[0].Name)
	assert.Contains(t, spans[0].Status.Description, "wrapped: inner error")
	assert.NotEmpty(t, spans[0].Events)
	assert.Equal(t, "ruleexpr.check", spans[1].Name)
	assert.Equal(t, codes.Ok, spans[1].Status.Code)
}
