// Package event provides a type-safe, synchronous listener bus.
//
// A Bus[E] keeps an ordered list of handlers for values of type E and delivers
// every published value to each of them in the publisher's goroutine. Delivery is
// fire-and-notify: handlers cannot veto or acknowledge an event, and a failing
// handler never prevents the remaining handlers from running.
//
// # Basic Usage
//
//	type SessionEvent struct {
//		Type      string
//		SessionID uuid.UUID
//	}
//
//	bus := event.NewBus[SessionEvent](event.WithBusLogger(logger))
//
//	id, err := bus.Subscribe(event.HandlerFunc[SessionEvent](func(ctx context.Context, e SessionEvent) error {
//		return audit.Record(ctx, e.Type, e.SessionID)
//	}))
//	if err != nil {
//		return err
//	}
//	defer bus.Unsubscribe(id)
//
//	// Returns every handler failure joined with errors.Join
//	if err := bus.Publish(ctx, SessionEvent{Type: "created", SessionID: sid}); err != nil {
//		logger.Warn("listener failed", "error", err)
//	}
//
// Handlers that cannot fail can be wrapped with Listen:
//
//	bus.Subscribe(event.Listen(func(ctx context.Context, e SessionEvent) {
//		counter.Add(1)
//	}))
//
// # Concurrency
//
// The subscription list is protected by a reader-writer lock. Publish holds the
// read lock only while copying the list, so publishers run concurrently with each
// other and never observe a partially updated list. Subscribe, Unsubscribe and
// Close take the exclusive lock.
//
// Panics inside handlers are recovered and reported as ErrHandlerPanicked.
package event
