package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/repocore/core/session"
	"github.com/dmitrymomot/repocore/core/thread"
)

func TestSession_Store(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t)
	ctx, s := bound(t, m)

	s.Put(ctx, "b", 2)
	s.Put(ctx, "a", "one")

	v, ok := s.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, "one", v)

	n, ok := session.Value[int](ctx, s, "b")
	require.True(t, ok)
	assert.Equal(t, 2, n)

	_, ok = session.Value[string](ctx, s, "b")
	assert.False(t, ok, "wrong type")

	assert.Equal(t, []string{"a", "b"}, s.Keys(ctx))
	assert.Equal(t, map[string]any{"a": "one", "b": 2}, s.Entries(ctx))

	s.Delete(ctx, "a")
	_, ok = s.Get(ctx, "a")
	assert.False(t, ok)
}

func TestSession_ComputeIfAbsent(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t)
	ctx, s := bound(t, m)

	var calls atomic.Int32
	var wg sync.WaitGroup
	results := make([]any, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := s.ComputeIfAbsent(ctx, "expensive", func() (any, error) {
				calls.Add(1)
				return "value", nil
			})
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, "value", v)
	}

	boom := errors.New("init failed")
	_, err := s.ComputeIfAbsent(ctx, "broken", func() (any, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	_, ok := s.Get(ctx, "broken")
	assert.False(t, ok)
}

func TestSession_UserInformation(t *testing.T) {
	t.Parallel()

	alice := session.User{ID: "alice", Roles: []string{"editor"}}
	bob := session.User{ID: "bob"}
	root := session.SuperUser("administrator")

	tests := []struct {
		name    string
		from    session.UserInformation
		to      session.UserInformation
		wantErr error
	}{
		{name: "guest to user", from: session.Guest, to: alice},
		{name: "system to user", from: session.System, to: alice},
		{name: "superuser to user", from: root, to: bob},
		{name: "user to same user", from: alice, to: session.User{ID: "alice", Roles: []string{"admin"}}},
		{name: "user to guest", from: alice, to: session.Guest},
		{name: "user to system", from: alice, to: session.System},
		{name: "user to other user", from: alice, to: bob, wantErr: session.ErrUserTransition},
		{name: "user to superuser", from: alice, to: root, wantErr: session.ErrUserTransition},
		{name: "superuser id as plain user", from: session.User{ID: "administrator"}, to: bob},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, _ := newManager(t)
			ctx, s := bound(t, m)
			require.NoError(t, s.SetUserInformation(ctx, tt.from))

			err := s.SetUserInformation(ctx, tt.to)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.from.UserID(), s.UserInformation(ctx).UserID())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to.UserID(), s.UserInformation(ctx).UserID())
		})
	}

	t.Run("defaults to guest", func(t *testing.T) {
		t.Parallel()

		m, _ := newManager(t)
		ctx, s := bound(t, m)
		assert.True(t, session.IsGuest(s.UserInformation(ctx)))
		assert.True(t, s.LoginAt().IsZero())

		require.NoError(t, s.SetUserInformation(ctx, alice))
		assert.False(t, s.LoginAt().IsZero())
		assert.True(t, s.UserInformation(ctx).IsUserInRole("editor"))
		assert.ErrorIs(t, s.SetUserInformation(ctx, nil), session.ErrIllegalState)
	})

	t.Run("superuser has every role", func(t *testing.T) {
		t.Parallel()

		assert.True(t, root.IsUserInRole("anything"))
		assert.False(t, session.Guest.IsUserInRole("anything"))
		_, ok := root.UserAttribute("mail")
		assert.False(t, ok)

		u := session.User{ID: "carol", Attributes: map[string]string{"mail": "carol@example.com"}}
		mail, ok := u.UserAttribute("mail")
		assert.True(t, ok)
		assert.Equal(t, "carol@example.com", mail)
	})
}

func TestSession_Locale(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t, session.WithDefaultLanguage(language.French))
	ctx, s := bound(t, m)

	assert.Equal(t, language.French, s.Locale(ctx))
	s.SetLocale(ctx, language.English)
	assert.Equal(t, language.English, s.Locale(ctx))

	m2, _ := newManager(t, session.WithConfig(session.Config{DefaultLanguage: "not a tag!", SuperUserID: "root"}))
	assert.Equal(t, language.German, m2.DefaultLocale())
}

func TestSession_CurrentIP(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t)
	ctx, s := bound(t, m)

	assert.Empty(t, s.CurrentIP(ctx))
	require.NoError(t, s.SetCurrentIP(ctx, " 192.168.0.10 "))
	assert.Equal(t, "192.168.0.10", s.CurrentIP(ctx))
	require.NoError(t, s.SetCurrentIP(ctx, "2001:db8::1"))
	assert.Equal(t, "2001:db8::1", s.CurrentIP(ctx))

	err := s.SetCurrentIP(ctx, "localhost")
	assert.ErrorIs(t, err, session.ErrInvalidIP)
	assert.Equal(t, "2001:db8::1", s.CurrentIP(ctx))
}

func TestSession_Record(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t)
	ctx, s := bound(t, m)

	s.Record("/first", "agent/1.0")
	s.Record("/second", "agent/2.0")
	assert.Equal(t, "/first", s.FirstURI())
	assert.Equal(t, "/second", s.LastURI())
	assert.Equal(t, "agent/1.0", s.UserAgent())

	m.ReleaseCurrentSession(ctx)
	assert.Equal(t, "/first", s.FirstURI())
}

func TestSession_Close(t *testing.T) {
	t.Parallel()

	t.Run("closes closable values", func(t *testing.T) {
		t.Parallel()

		m, rec := newManager(t)
		ctx, s := bound(t, m)
		id := s.ID()

		ok := &closer{}
		failing := &closer{err: errors.New("disk gone")}
		s.Put(ctx, "ok", ok)
		s.Put(ctx, "failing", failing)
		s.Put(ctx, "plain", 42)

		err := s.Close(ctx)
		assert.ErrorIs(t, err, session.ErrCloseResources)
		assert.Contains(t, err.Error(), "disk gone")
		assert.Equal(t, int32(1), ok.closed.Load())
		assert.Equal(t, int32(1), failing.closed.Load())

		assert.True(t, s.IsClosed())
		assert.Equal(t, uuid.Nil, s.ID())
		assert.Empty(t, s.Keys(ctx))

		_, found := m.Session(ctx, id)
		assert.False(t, found)

		evt, found := rec.last(session.Destroyed)
		require.True(t, found)
		assert.Equal(t, id, evt.SessionID)

		assert.NoError(t, s.Close(ctx), "second close is a no-op")
		assert.Equal(t, 1, rec.count(session.Destroyed))
	})

	t.Run("closed session cannot be activated", func(t *testing.T) {
		t.Parallel()

		m, _ := newManager(t)
		ctx, s := bound(t, m)
		m.ReleaseCurrentSession(ctx)
		require.NoError(t, s.Close(ctx))

		assert.ErrorIs(t, m.SetCurrentSession(ctx, s), session.ErrClosed)
		assert.False(t, m.HasCurrentSession(ctx))
	})
}

func TestSession_Timestamps(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t)
	ctx, s := bound(t, m)

	assert.False(t, s.CreatedAt().IsZero())
	first := s.ThisAccessAt()
	m.ReleaseCurrentSession(ctx)
	require.NoError(t, m.SetCurrentSession(ctx, s))

	assert.Equal(t, first, s.LastAccessedAt())
	assert.False(t, s.ThisAccessAt().Before(first))
	assert.Equal(t, int64(2), s.AccessCount())
}

func TestSession_ConcurrentStore(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t)
	_, s := bound(t, m)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx := thread.New(context.Background())
			if !assert.NoError(t, m.SetCurrentSession(ctx, s)) {
				return
			}
			defer m.ReleaseCurrentSession(ctx)
			for j := range 50 {
				key := fmt.Sprintf("k%d-%d", i, j)
				s.Put(ctx, key, j)
				_, _ = s.Get(ctx, key)
				_ = s.Keys(ctx)
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.Keys(context.Background()), 8*50)
}
