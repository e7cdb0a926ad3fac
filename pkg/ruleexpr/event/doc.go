// Package event publishes rule results to in-process subscribers.
//
// # Overview
//
// A check can publish one Event per rule result to a Bus. The event type
// names the outcome (TypePassed, TypeFailed, TypeIndeterminate), and a
// second TypeChanged event follows when history shows the outcome changed.
// Subscribers pick the types they care about:
//
//	bus := event.NewBus(event.DefaultBusConfig)
//	defer bus.Close()
//
//	bus.Subscribe(func(ctx context.Context, evt event.Event) error {
//	    return notify(evt.Rule, evt.Previous, evt.Outcome)
//	}, event.TypeChanged)
//
//	compiled.Check(ctx, bindings,
//	    ruleexpr.WithHistory(store),
//	    ruleexpr.WithEvents(bus))
//
// # Delivery
//
// LocalBus gives each subscription a buffered channel and a goroutine.
// Handlers for one subscription run in publish order; different
// subscriptions run independently. In blocking mode (the default) Publish
// waits for buffer space; with NonBlocking it drops the event and calls
// OnDrop instead.
//
// Handler errors and panics never reach the publisher. They are reported
// through BusConfig.OnError as *HandlerError.
//
// # Shutdown
//
// Close stops accepting events, delivers what is already buffered and
// waits for handlers to return. Publish and Subscribe on a closed bus
// return ErrBusClosed.
package event
