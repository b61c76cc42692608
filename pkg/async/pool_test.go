package async_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/repocore/pkg/async"
)

func TestPoolSubmit(t *testing.T) {
	t.Parallel()

	p := async.NewPool(2)
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	assert.Equal(t, 2, p.Size())

	want := errors.New("task failed")
	ok, err := p.Submit(t.Context(), func(context.Context) error { return nil })
	require.NoError(t, err)
	bad, err := p.Submit(t.Context(), func(context.Context) error { return want })
	require.NoError(t, err)

	assert.NoError(t, ok.Await())
	assert.ErrorIs(t, bad.Await(), want)
	assert.ErrorIs(t, async.AwaitAll(ok, bad), want)
}

func TestPoolSaturation(t *testing.T) {
	t.Parallel()

	p := async.NewPool(1)
	t.Cleanup(func() { _ = p.Close(context.Background()) })

	release := make(chan struct{})
	blocker, err := p.Submit(t.Context(), func(context.Context) error {
		<-release
		return nil
	})
	require.NoError(t, err)

	_, err = p.Submit(t.Context(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, async.ErrPoolSaturated)

	close(release)
	require.NoError(t, blocker.Await())

	f, err := p.Submit(t.Context(), func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.NoError(t, f.Await())
}

func TestPoolRecoversPanic(t *testing.T) {
	t.Parallel()

	p := async.NewPool(1)
	t.Cleanup(func() { _ = p.Close(context.Background()) })

	f, err := p.Submit(t.Context(), func(context.Context) error { panic("boom") })
	require.NoError(t, err)
	assert.ErrorIs(t, f.Await(), async.ErrTaskPanicked)
}

func TestPoolClose(t *testing.T) {
	t.Parallel()

	p := async.NewPool(1)
	release := make(chan struct{})
	_, err := p.Submit(t.Context(), func(context.Context) error {
		<-release
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Close(ctx), context.DeadlineExceeded)

	_, err = p.Submit(t.Context(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, async.ErrPoolClosed)

	close(release)
	assert.NoError(t, p.Close(t.Context()))
}

func TestPoolCloseWaitsForRunningTasks(t *testing.T) {
	t.Parallel()

	p := async.NewPool(2)
	var done atomic.Bool
	_, err := p.Submit(t.Context(), func(context.Context) error {
		time.Sleep(20 * time.Millisecond)
		done.Store(true)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, p.Close(t.Context()))
	assert.True(t, done.Load(), "close must wait for running tasks")
}
