package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/repocore/core/event"
	"github.com/dmitrymomot/repocore/core/logger"
	"github.com/dmitrymomot/repocore/core/thread"
	"github.com/dmitrymomot/repocore/pkg/async"
)

// Manager owns the session registry and binds sessions to thread slots.
//
// A slot starts locked: CurrentSession fails with ErrLocked until
// SetCurrentSession or Unlock is called, and ReleaseCurrentSession locks it
// again. This keeps pooled workers from silently creating sessions between
// unrelated units of work.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	closed   bool

	bus           *event.Bus[Event]
	pool          *async.Pool
	ownsPool      bool
	logger        *slog.Logger
	defaultLocale language.Tag
	superUserID   string
}

// binding is the manager's per-slot state.
type binding struct {
	session  *Session
	unlocked bool
}

type bindingKey struct{ m *Manager }

// NewManager creates a manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions:      make(map[uuid.UUID]*Session),
		logger:        logger.Discard(),
		defaultLocale: language.German,
		superUserID:   "administrator",
		ownsPool:      true,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.pool == nil {
		m.pool = async.NewPool(0, async.WithPoolLogger(m.logger))
	}
	m.bus = event.NewBus[Event](event.WithBusLogger(m.logger))
	return m
}

// DefaultLocale returns the locale of sessions that have none.
func (m *Manager) DefaultLocale() language.Tag {
	return m.defaultLocale
}

func (m *Manager) binding(ctx context.Context) *binding {
	b, _ := thread.Value[*binding](ctx, bindingKey{m})
	return b
}

func (m *Manager) acquireBinding(ctx context.Context) (*thread.Thread, *binding, error) {
	t, err := thread.Must(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrIllegalState, err)
	}
	if v, ok := t.Load(bindingKey{m}); ok {
		return t, v.(*binding), nil
	}
	b := &binding{}
	t.Store(bindingKey{m}, b)
	return t, b, nil
}

func (m *Manager) releaseBinding(t *thread.Thread, b *binding) {
	if b.session == nil && !b.unlocked {
		t.Delete(bindingKey{m})
	}
}

// NewSession creates and registers a session without binding it.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	s := newSession(m)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.logger.DebugContext(ctx, "session created", logger.SessionID(s.id))
	m.publish(ctx, Event{Type: Created, Session: s, SessionID: s.id})
	return s, nil
}

// CurrentSession returns the session bound to the caller's slot, creating,
// activating and binding a new one if the slot is unlocked and has none.
func (m *Manager) CurrentSession(ctx context.Context) (*Session, error) {
	t, b, err := m.acquireBinding(ctx)
	if err != nil {
		return nil, err
	}
	defer m.releaseBinding(t, b)

	if b.session != nil {
		return b.session, nil
	}
	if !b.unlocked {
		return nil, ErrLocked
	}

	s, err := m.NewSession(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.activate(ctx, t); err != nil {
		return nil, errors.Join(err, s.Close(ctx))
	}
	b.session = s
	return s, nil
}

// HasCurrentSession reports whether the caller's slot has a bound session.
func (m *Manager) HasCurrentSession(ctx context.Context) bool {
	b := m.binding(ctx)
	return b != nil && b.session != nil
}

// SetCurrentSession binds s to the caller's slot and activates it. A
// different session already bound is passivated and closed first.
func (m *Manager) SetCurrentSession(ctx context.Context, s *Session) error {
	if s == nil {
		return ErrNilSession
	}
	t, b, err := m.acquireBinding(ctx)
	if err != nil {
		return err
	}
	defer m.releaseBinding(t, b)

	if old := b.session; old != nil && old != s {
		m.logger.WarnContext(ctx, "replacing current session, closing the previous one",
			logger.SessionID(old.ID()),
			logger.Key("new_session_id", s.ID().String()),
			logger.ThreadID(t.ID()))
		old.passivate(ctx, t)
		b.session = nil
		if err := old.Close(ctx); err != nil {
			m.logger.WarnContext(ctx, "failed to close previous session", logger.Error(err))
		}
	}

	b.unlocked = true
	if err := s.activate(ctx, t); err != nil {
		return err
	}
	b.session = s
	return nil
}

// ReleaseCurrentSession passivates and unbinds the caller's session and
// locks the slot. It is a no-op without a bound session.
func (m *Manager) ReleaseCurrentSession(ctx context.Context) {
	t, ok := thread.From(ctx)
	if !ok {
		return
	}
	v, ok := t.Load(bindingKey{m})
	if !ok {
		return
	}
	b := v.(*binding)
	if b.session == nil {
		return
	}
	b.session.passivate(ctx, t)
	b.session = nil
	b.unlocked = false
	m.releaseBinding(t, b)
}

// Lock makes CurrentSession fail in the caller's slot until unlocked.
func (m *Manager) Lock(ctx context.Context) error {
	t, b, err := m.acquireBinding(ctx)
	if err != nil {
		return err
	}
	b.unlocked = false
	m.releaseBinding(t, b)
	return nil
}

// Unlock lets CurrentSession create sessions in the caller's slot.
func (m *Manager) Unlock(ctx context.Context) error {
	_, b, err := m.acquireBinding(ctx)
	if err != nil {
		return err
	}
	b.unlocked = true
	return nil
}

// IsLocked reports whether the caller's slot is locked. Contexts without a
// slot are always locked.
func (m *Manager) IsLocked(ctx context.Context) bool {
	b := m.binding(ctx)
	return b == nil || !b.unlocked
}

// Session looks a session up by id. An unknown id means the session expired
// or was closed; it is logged and reported with false.
func (m *Manager) Session(ctx context.Context, id uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		m.logger.WarnContext(ctx, "session not found, it may have expired", logger.SessionID(id))
	}
	return s, ok
}

// Sessions returns every live session.
func (m *Manager) Sessions() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Collect(maps.Values(m.sessions))
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) remove(ctx context.Context, s *Session, id uuid.UUID) {
	m.mu.Lock()
	if cur, ok := m.sessions[id]; ok && cur == s {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	m.logger.DebugContext(ctx, "session destroyed", logger.SessionID(id))
	m.publish(ctx, Event{Type: Destroyed, Session: s, SessionID: id, ConcurrentAccessors: s.ConcurrentAccessors()})
}

func (m *Manager) publish(ctx context.Context, evt Event) {
	// Handler failures are logged by the bus.
	_ = m.bus.Publish(ctx, evt)
}

// AddListener subscribes l to lifecycle events.
func (m *Manager) AddListener(l Listener) (event.SubscriptionID, error) {
	return m.bus.Subscribe(l)
}

// RemoveListener unsubscribes the listener registered under id.
func (m *Manager) RemoveListener(id event.SubscriptionID) bool {
	return m.bus.Unsubscribe(id)
}

// Listeners returns the subscribed listeners.
func (m *Manager) Listeners() []Listener {
	return m.bus.Handlers()
}

// SubmitOnCommitTasks runs the deferred tasks of the caller's current
// session. It matches txn.AfterCommitFunc.
func (m *Manager) SubmitOnCommitTasks(ctx context.Context) error {
	b := m.binding(ctx)
	if b == nil || b.session == nil {
		return nil
	}
	return b.session.SubmitOnCommitTasks(ctx)
}

// Close closes every live session, drops all listeners and, when the manager
// created its own executor, waits for running tasks until ctx is done.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	sessions := slices.Collect(maps.Values(m.sessions))
	m.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		id := s.ID()
		if err := s.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", id, err))
		}
	}

	m.bus.Close()

	m.mu.Lock()
	clear(m.sessions)
	m.mu.Unlock()

	if m.ownsPool {
		if err := m.pool.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
