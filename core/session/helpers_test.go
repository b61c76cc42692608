package session_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/repocore/core/session"
	"github.com/dmitrymomot/repocore/core/thread"
)

// recorder collects lifecycle events.
type recorder struct {
	mu     sync.Mutex
	events []session.Event
}

func (r *recorder) Handle(_ context.Context, e session.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) count(typ session.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func (r *recorder) last(typ session.EventType) (session.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == typ {
			return r.events[i], true
		}
	}
	return session.Event{}, false
}

// closer is a closable session value.
type closer struct {
	closed atomic.Int32
	err    error
}

func (c *closer) Close() error {
	c.closed.Add(1)
	return c.err
}

func newManager(t *testing.T, opts ...session.Option) (*session.Manager, *recorder) {
	t.Helper()

	m := session.NewManager(opts...)
	rec := &recorder{}
	_, err := m.AddListener(rec)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close(context.Background()) })
	return m, rec
}

// bound returns a fresh slot with a new session bound to it.
func bound(t *testing.T, m *session.Manager) (context.Context, *session.Session) {
	t.Helper()

	ctx := thread.New(context.Background())
	s, err := m.NewSession(ctx)
	require.NoError(t, err)
	require.NoError(t, m.SetCurrentSession(ctx, s))
	return ctx, s
}
