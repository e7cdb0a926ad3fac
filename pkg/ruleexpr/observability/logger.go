// Package observability provides production-grade observability features
// for ruleexpr: structured logging, metrics, and distributed tracing.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds check context to a logger.
// Returns a new logger with run_id and rule fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "run-123", "disk_full")
//	enriched.Info("probing") // includes run_id, rule
func EnrichLogger(logger *slog.Logger, runID, rule string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
	)
}

// LogCheckStart logs the start of a rule set check.
func LogCheckStart(logger *slog.Logger, runID string, rules int) {
	if logger == nil {
		return
	}
	logger.Info("check starting",
		slog.String("run_id", runID),
		slog.Int("rules", rules),
	)
}

// LogCheckComplete logs a finished check with its outcome counts.
func LogCheckComplete(logger *slog.Logger, runID string, durationMs float64, passed, failed, indeterminate int) {
	if logger == nil {
		return
	}
	logger.Info("check completed",
		slog.String("run_id", runID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("passed", passed),
		slog.Int("failed", failed),
		slog.Int("indeterminate", indeterminate),
	)
}

// LogCheckError logs a check that could not run to completion.
func LogCheckError(logger *slog.Logger, runID string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("check failed",
		slog.String("run_id", runID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// The rule helpers below expect a logger from EnrichLogger, which already
// carries run_id and rule.

// LogRuleStart logs the start of a rule evaluation.
func LogRuleStart(logger *slog.Logger) {
	if logger == nil {
		return
	}
	logger.Debug("rule evaluating")
}

// LogRuleOutcome logs a rule that produced a value.
func LogRuleOutcome(logger *slog.Logger, outcome string, value any, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("rule evaluated",
		slog.String("outcome", outcome),
		slog.Any("value", value),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogRuleError logs a rule whose evaluation failed. The rule is reported
// as indeterminate, so this is a warning rather than an error.
func LogRuleError(logger *slog.Logger, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Warn("rule indeterminate",
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogActionError logs an action that failed after a rule outcome.
func LogActionError(logger *slog.Logger, action string, attempts int, err error) {
	if logger == nil {
		return
	}
	logger.Error("action failed",
		slog.String("action", action),
		slog.Int("attempts", attempts),
		slog.String("error", err.Error()),
	)
}

// LogHistoryError logs a history store failure (non-fatal).
func LogHistoryError(logger *slog.Logger, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("history failed",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// LogPublishError logs an event that could not be published (non-fatal).
func LogPublishError(logger *slog.Logger, eventType string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("event publish failed",
		slog.String("event_type", eventType),
		slog.String("error", err.Error()),
	)
}

// LogOutcomeChanged logs a rule whose outcome differs from its last recorded one.
func LogOutcomeChanged(logger *slog.Logger, previous, current string) {
	if logger == nil {
		return
	}
	logger.Info("rule outcome changed",
		slog.String("previous", previous),
		slog.String("current", current),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
