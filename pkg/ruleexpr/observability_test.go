package ruleexpr

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/randalmurphal/ruleexpr/pkg/ruleexpr/history"
	"github.com/randalmurphal/ruleexpr/pkg/ruleexpr/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestCheck_Logging(t *testing.T) {
	handler := newTestLogHandler()
	logger := slog.New(handler)

	compiled := mustCompile(t, NewRuleSet().
		AddRule(Rule{Name: "hot", Expression: "temp > 30"}).
		AddRule(Rule{Name: "broken", Expression: "missing > 1"}))

	ctx := NewContext(context.Background(), WithLogger(logger), WithRunID("run-7"))
	_, err := compiled.Check(ctx, map[string]any{"temp": 35}, WithObservabilityLogger(logger))
	require.NoError(t, err)

	records := handler.getRecords()

	start := withMessage(records, "check starting")
	require.Len(t, start, 1)
	assert.Equal(t, "run-7", start[0]["run_id"])

	done := withMessage(records, "check completed")
	require.Len(t, done, 1)
	assert.Equal(t, "run-7", done[0]["run_id"])
	assert.EqualValues(t, 1, done[0]["passed"])
	assert.EqualValues(t, 1, done[0]["indeterminate"])

	evaluated := withMessage(records, "rule evaluated")
	require.Len(t, evaluated, 1)
	assert.Equal(t, "hot", evaluated[0]["rule"])
	assert.Equal(t, "run-7", evaluated[0]["run_id"])

	indeterminate := withMessage(records, "rule indeterminate")
	require.Len(t, indeterminate, 1)
	assert.Equal(t, "broken", indeterminate[0]["rule"])
	assert.Contains(t, indeterminate[0]["error"], "missing")
}

func TestCheck_LoggingDisabled(t *testing.T) {
	handler := newTestLogHandler()

	compiled := mustCompile(t, NewRuleSet().AddRule(Rule{Name: "a", Expression: "true"}))
	_, err := compiled.Check(testCtx(), nil, WithObservabilityLogger(nil))
	require.NoError(t, err)

	assert.Empty(t, handler.getRecords())
}

// TestCheck_Telemetry is the only test in this package that installs
// global providers. Instruments bind to the first provider set.
func TestCheck_Telemetry(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	origTP := otel.GetTracerProvider()
	origMP := otel.GetMeterProvider()
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	t.Cleanup(func() {
		otel.SetTracerProvider(origTP)
		otel.SetMeterProvider(origMP)
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	rec := &actionRecorder{}
	compiled := mustCompile(t, NewRuleSet().
		AddRule(Rule{Name: "hot", Expression: "temp > 30", OnPass: []string{"alert"}}).
		AddRule(Rule{Name: "broken", Expression: "missing > 1"}).
		AddAction("alert", rec.action("alert", nil)))

	_, err := compiled.Check(testCtx(), map[string]any{"temp": 35},
		WithMetrics(true), WithTracing(true))
	require.NoError(t, err)

	t.Run("spans", func(t *testing.T) {
		spans := exporter.GetSpans()
		byName := make(map[string]tracetest.SpanStub)
		for _, s := range spans {
			byName[s.Name] = s
		}

		check, ok := byName["ruleexpr.check"]
		require.True(t, ok, "missing check span")

		hot, ok := byName["ruleexpr.rule.hot"]
		require.True(t, ok, "missing rule span")
		assert.Equal(t, check.SpanContext.SpanID(), hot.Parent.SpanID())
		assert.Equal(t, codes.Ok, hot.Status.Code)
		require.NotEmpty(t, hot.Events)
		assert.Equal(t, "outcome", hot.Events[0].Name)

		broken, ok := byName["ruleexpr.rule.broken"]
		require.True(t, ok, "missing rule span")
		assert.Equal(t, codes.Error, broken.Status.Code)
	})

	t.Run("metrics", func(t *testing.T) {
		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(context.Background(), &rm))

		sums := make(map[string]int64)
		for _, sm := range rm.ScopeMetrics {
			for _, m := range sm.Metrics {
				if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
					for _, dp := range sum.DataPoints {
						sums[m.Name] += dp.Value
					}
				}
			}
		}

		assert.Equal(t, int64(2), sums["ruleexpr.rule.evaluations"])
		assert.Equal(t, int64(1), sums["ruleexpr.rule.errors"])
		assert.Equal(t, int64(1), sums["ruleexpr.check.runs"])
		assert.Equal(t, int64(1), sums["ruleexpr.action.runs"])
	})
}

func TestCheckOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := defaultCheckConfig()
		assert.Zero(t, cfg.timeout)
		assert.Zero(t, cfg.maxConcurrency)
		assert.Nil(t, cfg.logger)
		assert.False(t, cfg.metricsEnabled)
		assert.IsType(t, observability.NoopMetrics{}, cfg.metrics)
		assert.False(t, cfg.tracingEnabled)
		assert.IsType(t, observability.NoopSpanManager{}, cfg.spans)
		assert.Nil(t, cfg.history)
	})

	t.Run("applied", func(t *testing.T) {
		store := history.NewMemoryStore()
		logger := slog.New(newTestLogHandler())

		cfg := defaultCheckConfig()
		for _, opt := range []CheckOption{
			WithTimeout(time.Second),
			WithMaxConcurrency(3),
			WithBindings(map[string]any{"a": 1}),
			WithObservabilityLogger(logger),
			WithTracing(true),
			WithHistory(store),
			WithHistoryFailureFatal(true),
		} {
			opt(&cfg)
		}

		assert.Equal(t, time.Second, cfg.timeout)
		assert.Equal(t, 3, cfg.maxConcurrency)
		assert.Equal(t, map[string]any{"a": 1}, cfg.bindings)
		assert.Same(t, logger, cfg.logger)
		assert.True(t, cfg.tracingEnabled)
		assert.NotNil(t, cfg.spans)
		assert.Same(t, store, cfg.history)
		assert.True(t, cfg.historyFailureFatal)
	})

	t.Run("non-positive values ignored", func(t *testing.T) {
		cfg := defaultCheckConfig()
		WithTimeout(-time.Second)(&cfg)
		WithMaxConcurrency(0)(&cfg)
		assert.Zero(t, cfg.timeout)
		assert.Zero(t, cfg.maxConcurrency)
	})

	t.Run("disable resets to noop", func(t *testing.T) {
		cfg := defaultCheckConfig()
		WithTracing(true)(&cfg)
		WithTracing(false)(&cfg)
		assert.False(t, cfg.tracingEnabled)
		assert.IsType(t, observability.NoopSpanManager{}, cfg.spans)

		WithMetrics(false)(&cfg)
		assert.IsType(t, observability.NoopMetrics{}, cfg.metrics)
	})
}
