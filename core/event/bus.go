package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/dmitrymomot/repocore/core/logger"
)

// SubscriptionID identifies a subscribed handler for later removal.
type SubscriptionID uint64

type subscription[E any] struct {
	id      SubscriptionID
	handler Handler[E]
}

// Bus delivers values of type E to every subscribed handler in the caller's goroutine.
//
// Publishing takes a read lock only, so concurrent publishers never block each
// other; Subscribe, Unsubscribe and Close take the exclusive lock. Handlers see a
// snapshot of the subscription list taken when Publish started.
type Bus[E any] struct {
	mu     sync.RWMutex
	subs   []subscription[E]
	nextID SubscriptionID
	closed bool
	logger *slog.Logger
}

// BusOption configures a Bus.
type BusOption func(*busOptions)

type busOptions struct {
	logger *slog.Logger
}

// WithBusLogger sets the logger used to report handler failures.
func WithBusLogger(l *slog.Logger) BusOption {
	return func(o *busOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewBus creates an empty bus.
func NewBus[E any](opts ...BusOption) *Bus[E] {
	o := &busOptions{logger: logger.Discard()}
	for _, opt := range opts {
		opt(o)
	}
	return &Bus[E]{logger: o.logger}
}

// Subscribe registers h and returns its subscription id.
func (b *Bus[E]) Subscribe(h Handler[E]) (SubscriptionID, error) {
	if h == nil {
		return 0, errors.New("event: nil handler")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrBusClosed
	}

	b.nextID++
	b.subs = append(b.subs, subscription[E]{id: b.nextID, handler: h})
	return b.nextID, nil
}

// Unsubscribe removes the handler registered under id.
// Reports whether a handler was removed.
func (b *Bus[E]) Unsubscribe(id SubscriptionID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := slices.IndexFunc(b.subs, func(s subscription[E]) bool { return s.id == id })
	if i < 0 {
		return false
	}
	b.subs = slices.Delete(b.subs, i, i+1)
	return true
}

// Handlers returns the subscribed handlers in subscription order.
func (b *Bus[E]) Handlers() []Handler[E] {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Handler[E], len(b.subs))
	for i, s := range b.subs {
		out[i] = s.handler
	}
	return out
}

// Len returns the number of subscribed handlers.
func (b *Bus[E]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish calls every subscribed handler with evt, in subscription order.
// A failing or panicking handler does not stop the others; all failures
// are returned joined together.
func (b *Bus[E]) Publish(ctx context.Context, evt E) error {
	b.mu.RLock()
	subs := slices.Clone(b.subs)
	b.mu.RUnlock()

	var errs []error
	for _, s := range subs {
		if err := safeHandle(ctx, s.handler, evt); err != nil {
			b.logger.WarnContext(ctx, "event handler failed",
				logger.ID("subscription_id", uint64(s.id)),
				logger.Error(err))
			errs = append(errs, fmt.Errorf("handler %d failed: %w", s.id, err))
		}
	}

	return errors.Join(errs...)
}

// Close removes every handler and rejects further subscriptions.
func (b *Bus[E]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = nil
	b.closed = true
}
