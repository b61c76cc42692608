package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/repocore/core/session"
	"github.com/dmitrymomot/repocore/core/thread"
)

func baseSession(t *testing.T) (*session.Manager, context.Context, *session.Session) {
	t.Helper()

	m, _ := newManager(t)
	ctx, s := bound(t, m)
	require.NoError(t, s.SetUserInformation(ctx, session.User{ID: "alice"}))
	s.SetLocale(ctx, language.English)
	require.NoError(t, s.SetCurrentIP(ctx, "10.0.0.1"))
	s.Put(ctx, "color", "blue")
	return m, ctx, s
}

func TestDoAs_Redirects(t *testing.T) {
	t.Parallel()

	_, ctx, s := baseSession(t)
	reviewer := session.User{ID: "reviewer"}
	scope := session.ScopedValues{
		Values: map[string]any{"color": "red"},
		User:   reviewer,
		Locale: language.French,
		IP:     "10.0.0.2",
	}

	err := s.DoAs(ctx, scope, func(ctx context.Context) error {
		assert.True(t, s.InScope(ctx))
		assert.Equal(t, "reviewer", s.UserInformation(ctx).UserID())
		assert.Equal(t, language.French, s.Locale(ctx))
		assert.Equal(t, "10.0.0.2", s.CurrentIP(ctx))

		color, _ := session.Value[string](ctx, s, "color")
		assert.Equal(t, "red", color)

		hint, ok := session.Value[session.ScopedValues](ctx, s, session.ScopedHintKey)
		assert.True(t, ok)
		assert.Equal(t, "reviewer", hint.User.UserID())

		s.Put(ctx, "scratch", 1)
		s.Delete(ctx, "color")
		assert.Equal(t, []string{session.ScopedHintKey, "scratch"}, s.Keys(ctx))

		assert.ErrorIs(t, s.SetUserInformation(ctx, session.Guest), session.ErrScoped)
		return nil
	})
	require.NoError(t, err)

	assert.False(t, s.InScope(ctx))
	assert.Equal(t, "alice", s.UserInformation(ctx).UserID())
	assert.Equal(t, language.English, s.Locale(ctx))
	assert.Equal(t, "10.0.0.1", s.CurrentIP(ctx))
	assert.Equal(t, []string{"color"}, s.Keys(ctx))
	color, _ := session.Value[string](ctx, s, "color")
	assert.Equal(t, "blue", color)
}

func TestDoAs_InheritsUnsetValues(t *testing.T) {
	t.Parallel()

	_, ctx, s := baseSession(t)
	err := s.DoAs(ctx, session.ScopedValues{}, func(ctx context.Context) error {
		assert.Equal(t, "alice", s.UserInformation(ctx).UserID())
		assert.Equal(t, language.English, s.Locale(ctx))
		assert.Equal(t, "10.0.0.1", s.CurrentIP(ctx))
		_, ok := s.Get(ctx, "color")
		assert.False(t, ok, "base values are not visible in a scope")

		s.SetLocale(ctx, language.Spanish)
		assert.NoError(t, s.SetCurrentIP(ctx, "::1"))
		assert.Equal(t, language.Spanish, s.Locale(ctx))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, language.English, s.Locale(ctx))
	assert.Equal(t, "10.0.0.1", s.CurrentIP(ctx))
}

func TestDoAs_Generic(t *testing.T) {
	t.Parallel()

	_, ctx, s := baseSession(t)
	got, err := session.DoAs(ctx, s, session.ScopedValues{User: session.User{ID: "bob"}},
		func(ctx context.Context) (string, error) {
			return s.UserInformation(ctx).UserID(), nil
		})
	require.NoError(t, err)
	assert.Equal(t, "bob", got)

	boom := errors.New("denied")
	_, err = session.DoAs(ctx, s, session.ScopedValues{}, func(context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestDoAs_Nested(t *testing.T) {
	t.Parallel()

	_, ctx, s := baseSession(t)
	err := s.DoAs(ctx, session.ScopedValues{User: session.User{ID: "outer"}}, func(ctx context.Context) error {
		inner := s.DoAs(ctx, session.ScopedValues{User: session.User{ID: "inner"}}, func(ctx context.Context) error {
			assert.Equal(t, "inner", s.UserInformation(ctx).UserID())
			return nil
		})
		assert.NoError(t, inner)
		assert.Equal(t, "outer", s.UserInformation(ctx).UserID())
		assert.True(t, s.InScope(ctx))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", s.UserInformation(ctx).UserID())
}

func TestDoAs_ClosesOverlayResources(t *testing.T) {
	t.Parallel()

	_, ctx, s := baseSession(t)
	given := &closer{}
	added := &closer{err: errors.New("flush failed")}

	err := s.DoAs(ctx, session.ScopedValues{Values: map[string]any{"given": given}}, func(ctx context.Context) error {
		s.Put(ctx, "added", added)
		return nil
	})
	assert.ErrorIs(t, err, session.ErrCloseResources)
	assert.Equal(t, int32(1), given.closed.Load())
	assert.Equal(t, int32(1), added.closed.Load())
}

func TestDoAs_RestoresOnPanic(t *testing.T) {
	t.Parallel()

	_, ctx, s := baseSession(t)
	res := &closer{}

	assert.PanicsWithValue(t, "access check exploded", func() {
		_ = s.DoAs(ctx, session.ScopedValues{User: session.User{ID: "eve"}, Values: map[string]any{"res": res}},
			func(context.Context) error {
				panic("access check exploded")
			})
	})

	assert.False(t, s.InScope(ctx))
	assert.Equal(t, "alice", s.UserInformation(ctx).UserID())
	assert.Equal(t, int32(1), res.closed.Load())
}

func TestDoAs_IsolatedFromOtherSlots(t *testing.T) {
	t.Parallel()

	m, ctx, s := baseSession(t)

	other := thread.New(context.Background())
	require.NoError(t, m.SetCurrentSession(other, s))
	t.Cleanup(func() { m.ReleaseCurrentSession(other) })

	inside := make(chan struct{})
	done := make(chan struct{})
	var leaked atomic.Bool

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-inside
		for {
			select {
			case <-done:
				return
			default:
			}
			if s.UserInformation(other).UserID() != "alice" ||
				s.Locale(other) != language.English ||
				s.InScope(other) {
				leaked.Store(true)
			}
			if v, _ := session.Value[string](other, s, "color"); v != "blue" {
				leaked.Store(true)
			}
		}
	}()

	err := s.DoAs(ctx, session.ScopedValues{
		User:   session.User{ID: "mallory"},
		Locale: language.Japanese,
		Values: map[string]any{"color": "black"},
	}, func(ctx context.Context) error {
		close(inside)
		for range 1000 {
			s.Put(ctx, "color", "black")
		}
		close(done)
		return nil
	})
	require.NoError(t, err)
	wg.Wait()

	assert.False(t, leaked.Load())
	_, ok := s.Get(other, "color")
	assert.True(t, ok)
}

func TestDoAs_Errors(t *testing.T) {
	t.Parallel()

	m, ctx, s := baseSession(t)

	err := s.DoAs(context.Background(), session.ScopedValues{}, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, thread.ErrNoThread)

	m.ReleaseCurrentSession(ctx)
	require.NoError(t, s.Close(ctx))
	err = s.DoAs(ctx, session.ScopedValues{}, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, session.ErrClosed)
}
