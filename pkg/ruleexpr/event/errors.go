package event

import (
	"errors"
	"fmt"
)

// Sentinel errors for bus operations.
var (
	// ErrBusClosed is returned when publishing or subscribing on a closed bus.
	ErrBusClosed = errors.New("bus is closed")

	// ErrTooManySubscribers is returned when BusConfig.MaxSubscribers is reached.
	ErrTooManySubscribers = errors.New("too many subscribers")

	// ErrNilHandler is returned when subscribing with a nil handler.
	ErrNilHandler = errors.New("handler cannot be nil")
)

// HandlerError wraps an error returned, or a panic raised, by a handler.
// It is passed to BusConfig.OnError.
type HandlerError struct {
	Event        Event
	Subscription string
	Err          error
}

// Error implements error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("event %s (%s) in subscription %s: %v", e.Event.ID, e.Event.Type, e.Subscription, e.Err)
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}
