package event

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Bus provides pub/sub event distribution with fan-out support.
type Bus interface {
	// Publish sends an event to all matching subscribers.
	Publish(ctx context.Context, evt Event) error

	// Subscribe creates a subscription for the given event types.
	// No types subscribes to all events.
	Subscribe(handler Handler, types ...string) (Subscription, error)

	// Close stops the bus after delivering buffered events.
	Close() error
}

// Subscription represents an active subscription.
type Subscription interface {
	// ID returns the subscription identifier.
	ID() string

	// Unsubscribe removes the subscription.
	Unsubscribe()

	// Pause temporarily stops delivery. Events published while paused
	// are skipped.
	Pause()

	// Resume continues delivery after pause.
	Resume()

	// IsPaused returns true if the subscription is paused.
	IsPaused() bool
}

// BusConfig configures bus behavior.
type BusConfig struct {
	// BufferSize is the channel buffer size per subscription.
	// Default: 256
	BufferSize int

	// MaxSubscribers limits total subscriptions.
	// Default: 0 (unlimited)
	MaxSubscribers int

	// NonBlocking makes Publish non-blocking (drops events if buffer full).
	// Default: false (blocking)
	NonBlocking bool

	// OnDrop is called when an event is dropped (non-blocking mode).
	OnDrop func(evt Event, subscription string)

	// OnError is called when a handler returns an error or panics.
	OnError func(err *HandlerError)
}

// DefaultBusConfig provides reasonable defaults.
var DefaultBusConfig = BusConfig{
	BufferSize: 256,
}

// LocalBus is an in-memory event bus. Each subscription has its own
// goroutine, so a slow handler only delays its own events.
type LocalBus struct {
	config BusConfig

	mu            sync.RWMutex
	subscriptions map[string]*subscription

	wg      sync.WaitGroup
	closed  atomic.Bool
	closeCh chan struct{}
}

// NewBus creates a new local event bus.
func NewBus(config BusConfig) *LocalBus {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultBusConfig.BufferSize
	}

	return &LocalBus{
		config:        config,
		subscriptions: make(map[string]*subscription),
		closeCh:       make(chan struct{}),
	}
}

// subscription is an internal subscription implementation.
type subscription struct {
	id       string
	types    map[string]bool // empty = all types
	handler  Handler
	events   chan Event
	paused   atomic.Bool
	done     chan struct{}
	stopOnce sync.Once
	bus      *LocalBus
}

// Publish sends an event to all matching subscribers.
//
// In blocking mode Publish waits for buffer space and returns early if
// ctx ends or the bus closes.
func (b *LocalBus) Publish(ctx context.Context, evt Event) error {
	if b.closed.Load() {
		return fmt.Errorf("publish %s: %w", evt.Type, ErrBusClosed)
	}

	b.mu.RLock()
	subs := b.matching(evt.Type)
	b.mu.RUnlock()

	for _, sub := range subs {
		if sub.paused.Load() {
			continue
		}

		if b.config.NonBlocking {
			select {
			case sub.events <- evt:
			default:
				if b.config.OnDrop != nil {
					b.config.OnDrop(evt, sub.id)
				}
			}
			continue
		}

		select {
		case sub.events <- evt:
		case <-sub.done:
		case <-ctx.Done():
			return ctx.Err()
		case <-b.closeCh:
			return fmt.Errorf("publish %s: %w", evt.Type, ErrBusClosed)
		}
	}

	return nil
}

// Subscribe creates a subscription for the given event types, or for all
// events when no types are given.
func (b *LocalBus) Subscribe(handler Handler, types ...string) (Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	// Close sets closed before taking the lock
	if b.closed.Load() {
		return nil, ErrBusClosed
	}

	if b.config.MaxSubscribers > 0 && len(b.subscriptions) >= b.config.MaxSubscribers {
		return nil, ErrTooManySubscribers
	}

	sub := &subscription{
		id:      uuid.New().String(),
		types:   make(map[string]bool, len(types)),
		handler: handler,
		events:  make(chan Event, b.config.BufferSize),
		done:    make(chan struct{}),
		bus:     b,
	}
	for _, t := range types {
		sub.types[t] = true
	}

	b.subscriptions[sub.id] = sub

	b.wg.Add(1)
	go sub.process()

	return sub, nil
}

// matching returns the subscriptions that accept an event type.
// Callers hold b.mu.
func (b *LocalBus) matching(eventType string) []*subscription {
	subs := make([]*subscription, 0, len(b.subscriptions))
	for _, sub := range b.subscriptions {
		if len(sub.types) == 0 || sub.types[eventType] {
			subs = append(subs, sub)
		}
	}
	return subs
}

// Close shuts down the bus. Events already buffered are delivered before
// Close returns.
func (b *LocalBus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}

	close(b.closeCh)

	b.mu.Lock()
	for _, sub := range b.subscriptions {
		sub.stop()
	}
	b.mu.Unlock()

	b.wg.Wait()
	return nil
}

// process delivers events to the handler until the subscription stops,
// then drains what is left in the buffer.
func (s *subscription) process() {
	defer s.bus.wg.Done()

	for {
		select {
		case evt := <-s.events:
			s.deliver(evt)
		case <-s.done:
			for {
				select {
				case evt := <-s.events:
					s.deliver(evt)
				default:
					return
				}
			}
		}
	}
}

// deliver calls the handler with panic recovery.
func (s *subscription) deliver(evt Event) {
	if s.paused.Load() {
		return
	}

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("handler panicked: %v", r)
			}
		}()
		return s.handler(context.Background(), evt)
	}()

	if err != nil && s.bus.config.OnError != nil {
		s.bus.config.OnError(&HandlerError{Event: evt, Subscription: s.id, Err: err})
	}
}

func (s *subscription) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// ID returns the subscription identifier.
func (s *subscription) ID() string {
	return s.id
}

// Unsubscribe removes the subscription. Buffered events are still
// delivered.
func (s *subscription) Unsubscribe() {
	s.bus.mu.Lock()
	delete(s.bus.subscriptions, s.id)
	s.bus.mu.Unlock()

	s.stop()
}

// Pause temporarily stops delivery.
func (s *subscription) Pause() {
	s.paused.Store(true)
}

// Resume continues delivery after pause.
func (s *subscription) Resume() {
	s.paused.Store(false)
}

// IsPaused returns true if the subscription is paused.
func (s *subscription) IsPaused() bool {
	return s.paused.Load()
}
