package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types published after a rule is checked.
const (
	TypePassed        = "rule.passed"
	TypeFailed        = "rule.failed"
	TypeIndeterminate = "rule.indeterminate"

	// TypeChanged is published in addition to the outcome event when the
	// outcome differs from the rule's previous recorded outcome.
	TypeChanged = "rule.changed"
)

// TypeFor returns the event type for an outcome name ("pass", "fail",
// "indeterminate").
func TypeFor(outcome string) string {
	switch outcome {
	case "pass":
		return TypePassed
	case "fail":
		return TypeFailed
	default:
		return TypeIndeterminate
	}
}

// Event is a notification about one rule result. Events are values;
// handlers receive their own copy.
type Event struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	RunID     string            `json:"run_id"`
	Rule      string            `json:"rule"`
	Outcome   string            `json:"outcome"`
	Previous  string            `json:"previous,omitempty"`
	Value     any               `json:"value,omitempty"`
	Error     string            `json:"error,omitempty"`
	Message   string            `json:"message,omitempty"`
	Labels    map[string]string `json:"labels,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// New creates an event with a fresh ID and the current UTC time.
func New(eventType, runID, rule, outcome string) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		RunID:     runID,
		Rule:      rule,
		Outcome:   outcome,
		Timestamp: time.Now().UTC(),
	}
}

// Handler processes an event delivered by a Bus.
type Handler func(ctx context.Context, evt Event) error
