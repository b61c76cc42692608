package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/repocore/core/session"
	"github.com/dmitrymomot/repocore/core/thread"
	"github.com/dmitrymomot/repocore/pkg/async"
)

func TestOnCommit_DeferredUntilSubmit(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t)
	ctx, s := bound(t, m)
	slot, _ := thread.From(ctx)

	var ran atomic.Int32
	var mu sync.Mutex
	seen := map[uint64]bool{}
	for range 5 {
		require.NoError(t, s.OnCommit(ctx, func(ctx context.Context) error {
			cur, err := m.CurrentSession(ctx)
			if err != nil {
				return err
			}
			assert.Same(t, s, cur)

			tt, _ := thread.From(ctx)
			mu.Lock()
			seen[tt.ID()] = true
			mu.Unlock()

			ran.Add(1)
			return nil
		}))
	}
	assert.Equal(t, 5, s.PendingTasks(ctx))
	assert.Zero(t, ran.Load())

	require.NoError(t, m.SubmitOnCommitTasks(ctx))
	assert.Equal(t, int32(5), ran.Load())
	assert.Zero(t, s.PendingTasks(ctx))
	assert.Len(t, seen, 5)
	assert.False(t, seen[slot.ID()], "tasks run in their own slots")

	assert.Equal(t, 1, s.ConcurrentAccessors())
	assert.True(t, s.IsActive(ctx))
}

func TestOnCommit_Isolation(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t)
	ctx1, s := bound(t, m)
	ctx2 := thread.New(context.Background())
	require.NoError(t, m.SetCurrentSession(ctx2, s))

	require.NoError(t, s.OnCommit(ctx1, func(context.Context) error { return nil }))
	assert.Equal(t, 1, s.PendingTasks(ctx1))
	assert.Zero(t, s.PendingTasks(ctx2))

	assert.ErrorIs(t, s.OnCommit(context.Background(), func(context.Context) error { return nil }), thread.ErrNoThread)
	assert.ErrorIs(t, s.OnCommit(ctx1, nil), session.ErrIllegalState)
}

func TestOnCommit_DroppedOnPassivation(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t)
	ctx, s := bound(t, m)

	var ran atomic.Bool
	require.NoError(t, s.OnCommit(ctx, func(context.Context) error {
		ran.Store(true)
		return nil
	}))
	m.ReleaseCurrentSession(ctx)
	assert.Zero(t, s.PendingTasks(ctx))

	require.NoError(t, m.SetCurrentSession(ctx, s))
	require.NoError(t, m.SubmitOnCommitTasks(ctx))
	assert.False(t, ran.Load())
}

func TestOnCommit_TaskErrors(t *testing.T) {
	t.Parallel()

	pool := async.NewPool(4)
	t.Cleanup(func() { _ = pool.Close(context.Background()) })
	m, _ := newManager(t, session.WithExecutor(pool))
	ctx, s := bound(t, m)

	boom := errors.New("mail server down")
	var ran atomic.Int32
	require.NoError(t, s.OnCommit(ctx, func(context.Context) error { return boom }))
	require.NoError(t, s.OnCommit(ctx, func(context.Context) error { panic("task panicked") }))
	require.NoError(t, s.OnCommit(ctx, func(context.Context) error {
		ran.Add(1)
		return nil
	}))

	err := s.SubmitOnCommitTasks(ctx)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, async.ErrTaskPanicked)
	assert.Equal(t, int32(1), ran.Load())
}

func TestOnCommit_SynchronousFallback(t *testing.T) {
	t.Parallel()

	t.Run("saturated executor", func(t *testing.T) {
		t.Parallel()

		pool := async.NewPool(1)
		t.Cleanup(func() { _ = pool.Close(context.Background()) })
		m, _ := newManager(t, session.WithExecutor(pool))
		ctx, s := bound(t, m)

		release := make(chan struct{})
		blocker, err := pool.Submit(context.Background(), func(context.Context) error {
			<-release
			return nil
		})
		require.NoError(t, err)

		caller, _ := thread.From(ctx)
		var ranInOwnSlot atomic.Int32
		for range 3 {
			require.NoError(t, s.OnCommit(ctx, func(ctx context.Context) error {
				tt, _ := thread.From(ctx)
				if tt.ID() != caller.ID() {
					ranInOwnSlot.Add(1)
				}
				return nil
			}))
		}
		require.NoError(t, s.OnCommit(ctx, func(context.Context) error {
			return errors.New("abandoned after fallback")
		}))

		assert.NoError(t, s.SubmitOnCommitTasks(ctx), "fallback failures are only logged")
		assert.Equal(t, int32(3), ranInOwnSlot.Load())

		close(release)
		require.NoError(t, blocker.Await())
	})

	t.Run("closed executor", func(t *testing.T) {
		t.Parallel()

		pool := async.NewPool(2)
		require.NoError(t, pool.Close(context.Background()))
		m, _ := newManager(t, session.WithExecutor(pool))
		ctx, s := bound(t, m)

		var ran atomic.Bool
		require.NoError(t, s.OnCommit(ctx, func(context.Context) error {
			ran.Store(true)
			return nil
		}))
		require.NoError(t, s.SubmitOnCommitTasks(ctx))
		assert.True(t, ran.Load())
	})
}
