package thread

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrNoThread is returned when an operation needs a unit-of-work slot
// but the context does not carry one.
var ErrNoThread = errors.New("no unit-of-work slot in context")

var lastID atomic.Uint64

// Thread is a unit-of-work slot: the state one logical thread of control
// keeps between its operations. A Thread is owned by a single goroutine at a
// time and is not safe for concurrent use.
type Thread struct {
	id     uint64
	values map[any]any
}

// ID returns the process-unique slot identifier.
func (t *Thread) ID() uint64 {
	return t.id
}

// Load returns the value stored under key.
func (t *Thread) Load(key any) (any, bool) {
	v, ok := t.values[key]
	return v, ok
}

// Store sets the value for key.
func (t *Thread) Store(key, value any) {
	if t.values == nil {
		t.values = make(map[any]any)
	}
	t.values[key] = value
}

// Delete removes the value for key.
func (t *Thread) Delete(key any) {
	delete(t.values, key)
}

// Len reports how many values the slot holds.
func (t *Thread) Len() int {
	return len(t.values)
}

// threadContextKey is an unexported key type to avoid context key collisions.
type threadContextKey struct{}

// New returns a context carrying a fresh slot.
// If ctx is nil, context.Background() is used.
func New(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	t := &Thread{id: lastID.Add(1)}
	return context.WithValue(ctx, threadContextKey{}, t)
}

// From extracts the slot previously attached with New.
func From(ctx context.Context) (*Thread, bool) {
	if ctx == nil {
		return nil, false
	}
	t, ok := ctx.Value(threadContextKey{}).(*Thread)
	return t, ok
}

// Ensure returns ctx and its slot, attaching a fresh one when ctx has none.
func Ensure(ctx context.Context) (context.Context, *Thread) {
	if t, ok := From(ctx); ok {
		return ctx, t
	}
	ctx = New(ctx)
	t, _ := From(ctx)
	return ctx, t
}

// Must extracts the slot or returns ErrNoThread.
func Must(ctx context.Context) (*Thread, error) {
	t, ok := From(ctx)
	if !ok {
		return nil, ErrNoThread
	}
	return t, nil
}

// Value returns the typed value stored under key in the slot carried by ctx.
func Value[T any](ctx context.Context, key any) (T, bool) {
	var zero T
	t, ok := From(ctx)
	if !ok {
		return zero, false
	}
	v, ok := t.Load(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}
