package event

import (
	"context"
	"fmt"
)

// Handler processes published values of type E.
// Implementations are subscribed to a Bus.
type Handler[E any] interface {
	// Handle is called synchronously for every published value.
	Handle(ctx context.Context, evt E) error
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc[E any] func(context.Context, E) error

// Handle calls f(ctx, evt).
func (f HandlerFunc[E]) Handle(ctx context.Context, evt E) error {
	return f(ctx, evt)
}

// Listen wraps a function that cannot fail into a Handler.
//
// Example:
//
//	bus.Subscribe(event.Listen(func(ctx context.Context, e session.Event) {
//	    metrics.Inc(e.Type.String())
//	}))
func Listen[E any](fn func(context.Context, E)) Handler[E] {
	return HandlerFunc[E](func(ctx context.Context, evt E) error {
		fn(ctx, evt)
		return nil
	})
}

// safeHandle executes a handler and converts a panic into an error.
func safeHandle[E any](ctx context.Context, h Handler[E], evt E) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanicked, r)
		}
	}()
	return h.Handle(ctx, evt)
}
