package session

import (
	"context"
	"fmt"
	"net"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/repocore/core/logger"
	"github.com/dmitrymomot/repocore/core/thread"
)

// Session carries identity, locale, keyed state and deferred post-commit work
// for the units of work it is attached to. One session may be active in
// several thread slots at once; its store is safe for concurrent use.
//
// Accessors take the caller's context so that a scoped overlay installed by
// DoAs in that slot is honored.
type Session struct {
	manager *Manager
	store   *store

	mu             sync.RWMutex
	id             uuid.UUID
	closed         bool
	user           UserInformation
	locale         language.Tag
	ip             string
	firstURI       string
	lastURI        string
	userAgent      string
	createdAt      time.Time
	loginAt        time.Time
	lastAccessedAt time.Time
	thisAccessAt   time.Time

	accessCount atomic.Int64
	accessors   atomic.Int32
}

// Task is deferred work run after a successful commit.
type Task func(ctx context.Context) error

// slotKey keys a session's state in a thread slot.
type slotKey struct{ s *Session }

// slotState is what one thread slot knows about a session.
type slotState struct {
	active  bool
	site    string
	tasks   []Task
	overlay *overlay
}

func newSession(m *Manager) *Session {
	now := time.Now()
	return &Session{
		manager:        m,
		store:          newStore(nil),
		id:             uuid.New(),
		user:           Guest,
		createdAt:      now,
		lastAccessedAt: now,
		thisAccessAt:   now,
	}
}

func (s *Session) slot(ctx context.Context) *slotState {
	st, _ := thread.Value[*slotState](ctx, slotKey{s})
	return st
}

func (s *Session) acquireSlot(t *thread.Thread) *slotState {
	if v, ok := t.Load(slotKey{s}); ok {
		return v.(*slotState)
	}
	st := &slotState{}
	t.Store(slotKey{s}, st)
	return st
}

func (s *Session) releaseSlot(t *thread.Thread, st *slotState) {
	if !st.active && st.overlay == nil && len(st.tasks) == 0 {
		t.Delete(slotKey{s})
	}
}

func (s *Session) current(ctx context.Context) *overlay {
	if st := s.slot(ctx); st != nil {
		return st.overlay
	}
	return nil
}

func (s *Session) values(ctx context.Context) *store {
	if o := s.current(ctx); o != nil {
		return o.store
	}
	return s.store
}

// ID returns the session id, or uuid.Nil once the session is closed.
func (s *Session) ID() uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// IsClosed reports whether Close was called.
func (s *Session) IsClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Get returns the value stored under key.
func (s *Session) Get(ctx context.Context, key string) (any, bool) {
	return s.values(ctx).get(key)
}

// Put stores v under key.
func (s *Session) Put(ctx context.Context, key string, v any) {
	s.values(ctx).put(key, v)
}

// Delete removes key.
func (s *Session) Delete(ctx context.Context, key string) {
	s.values(ctx).delete(key)
}

// ComputeIfAbsent returns the value under key, storing the result of fn first
// when key is absent. Concurrent callers never run fn twice for the same key.
// fn must not access the session store.
func (s *Session) ComputeIfAbsent(ctx context.Context, key string, fn func() (any, error)) (any, error) {
	return s.values(ctx).computeIfAbsent(key, fn)
}

// Keys returns the stored keys, sorted.
func (s *Session) Keys(ctx context.Context) []string {
	return s.values(ctx).keys()
}

// Entries returns a copy of the stored values.
func (s *Session) Entries(ctx context.Context) map[string]any {
	return s.values(ctx).entries()
}

// Value returns the value under key if it has type T.
func Value[T any](ctx context.Context, s *Session, key string) (T, bool) {
	var zero T
	v, ok := s.Get(ctx, key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// UserInformation returns the identity the session acts for.
func (s *Session) UserInformation(ctx context.Context) UserInformation {
	if o := s.current(ctx); o != nil {
		return o.user
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// SetUserInformation replaces the session identity.
//
// Guest, system and superuser sessions may switch to anyone. Any other user
// may only switch to guest, system or the same user id; every other
// transition fails with ErrUserTransition. Inside DoAs it fails with ErrScoped.
func (s *Session) SetUserInformation(ctx context.Context, u UserInformation) error {
	if u == nil {
		return fmt.Errorf("%w: nil user information", ErrIllegalState)
	}
	if s.current(ctx) != nil {
		return ErrScoped
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !canTransition(s.user, u, s.manager.superUserID) {
		s.manager.logger.WarnContext(ctx, "rejected user information change",
			logger.SessionID(s.id),
			logger.Key("from_user", s.user.UserID()),
			logger.Key("to_user", u.UserID()))
		return fmt.Errorf("%w: from %q to %q", ErrUserTransition, s.user.UserID(), u.UserID())
	}
	if !IsGuest(u) && u.UserID() != s.user.UserID() {
		s.loginAt = time.Now()
	}
	s.user = u
	return nil
}

// Locale returns the session language, falling back to the configured default.
func (s *Session) Locale(ctx context.Context) language.Tag {
	if o := s.current(ctx); o != nil && o.locale != language.Und {
		return o.locale
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.locale == language.Und {
		return s.manager.defaultLocale
	}
	return s.locale
}

// SetLocale sets the session language.
func (s *Session) SetLocale(ctx context.Context, tag language.Tag) {
	if o := s.current(ctx); o != nil {
		o.locale = tag
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locale = tag
}

// CurrentIP returns the address of the client the session currently serves.
func (s *Session) CurrentIP(ctx context.Context) string {
	if o := s.current(ctx); o != nil && o.ip != "" {
		return o.ip
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ip
}

// SetCurrentIP sets the client address. It must parse as an IPv4 or IPv6 address.
func (s *Session) SetCurrentIP(ctx context.Context, ip string) error {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return fmt.Errorf("%w: %q", ErrInvalidIP, ip)
	}
	if o := s.current(ctx); o != nil {
		o.ip = parsed.String()
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ip = parsed.String()
	return nil
}

// Record notes request metadata. The first URI and the user agent are kept
// from the first call; the last URI is updated on every call.
func (s *Session) Record(uri, userAgent string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.firstURI == "" {
		s.firstURI = uri
	}
	if s.userAgent == "" {
		s.userAgent = userAgent
	}
	if uri != "" {
		s.lastURI = uri
	}
}

// FirstURI returns the first recorded request URI.
func (s *Session) FirstURI() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.firstURI
}

// LastURI returns the most recent recorded request URI.
func (s *Session) LastURI() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastURI
}

// UserAgent returns the first recorded user agent.
func (s *Session) UserAgent() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userAgent
}

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.createdAt
}

// LoginAt returns when a user other than guest was last set, or the zero time.
func (s *Session) LoginAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loginAt
}

// LastAccessedAt returns when the activation before the current one happened.
func (s *Session) LastAccessedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAccessedAt
}

// ThisAccessAt returns when the session was last activated.
func (s *Session) ThisAccessAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thisAccessAt
}

// AccessCount returns the total number of activations.
func (s *Session) AccessCount() int64 {
	return s.accessCount.Load()
}

// ConcurrentAccessors returns how many thread slots hold the session right now.
func (s *Session) ConcurrentAccessors() int {
	return int(s.accessors.Load())
}

// IsActive reports whether the session is active in the slot carried by ctx.
func (s *Session) IsActive(ctx context.Context) bool {
	st := s.slot(ctx)
	return st != nil && st.active
}

func (s *Session) activate(ctx context.Context, t *thread.Thread) error {
	now := time.Now()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.lastAccessedAt = s.thisAccessAt
	s.thisAccessAt = now
	id := s.id
	s.mu.Unlock()

	s.accessCount.Add(1)

	st := s.acquireSlot(t)
	if st.active {
		s.manager.logger.WarnContext(ctx, "session activated twice in the same thread",
			logger.SessionID(id),
			logger.ThreadID(t.ID()),
			logger.CallSite("first_activation", st.site),
			logger.CallSite("activation", callSite()))
		return nil
	}
	st.active = true
	st.site = callSite()

	if n := s.accessors.Add(1); n == 1 {
		s.manager.publish(ctx, Event{Type: Activated, Session: s, SessionID: id, ConcurrentAccessors: int(n)})
	}
	return nil
}

func (s *Session) passivate(ctx context.Context, t *thread.Thread) {
	v, ok := t.Load(slotKey{s})
	if !ok || !v.(*slotState).active {
		return
	}
	st := v.(*slotState)
	st.active = false
	st.site = ""
	st.tasks = nil
	defer s.releaseSlot(t, st)

	s.mu.Lock()
	if s.firstURI == "" {
		s.firstURI = s.lastURI
	}
	if s.lastURI == "" {
		s.lastURI = s.firstURI
	}
	id := s.id
	s.mu.Unlock()

	if n := s.accessors.Add(-1); n == 0 {
		s.manager.publish(ctx, Event{Type: Passivated, Session: s, SessionID: id, ConcurrentAccessors: 0})
	}
}

// Close deregisters the session, closes every io.Closer value in its store
// and invalidates its id. Close failures are aggregated under ErrCloseResources.
// Closing twice is a no-op.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	id := s.id
	s.mu.Unlock()

	s.manager.remove(ctx, s, id)
	err := s.store.closeAll()

	s.mu.Lock()
	s.id = uuid.Nil
	s.mu.Unlock()

	if err != nil {
		s.manager.logger.ErrorContext(ctx, "failed to close session resources",
			logger.SessionID(id),
			logger.Error(err))
	}
	return err
}

// callSite returns file:line of the first caller outside this package.
func callSite() string {
	pc := make([]uintptr, 16)
	n := runtime.Callers(2, pc)
	frames := runtime.CallersFrames(pc[:n])
	for {
		f, more := frames.Next()
		if !strings.Contains(f.Function, "/core/session.") {
			return f.File + ":" + strconv.Itoa(f.Line)
		}
		if !more {
			return ""
		}
	}
}
