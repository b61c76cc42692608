package async

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/dmitrymomot/repocore/core/logger"
)

// Pool runs submitted functions on a bounded number of goroutines.
// Submit never blocks: when no slot is free it reports ErrPoolSaturated so the
// caller can decide what to do with the work.
type Pool struct {
	size   int64
	sem    *semaphore.Weighted
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithPoolLogger sets the logger used to report task failures.
func WithPoolLogger(logger *slog.Logger) PoolOption {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPool creates a pool with size concurrent slots.
// A size <= 0 defaults to runtime.GOMAXPROCS(0).
func NewPool(size int, opts ...PoolOption) *Pool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		size:   int64(size),
		sem:    semaphore.NewWeighted(int64(size)),
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Size returns the number of concurrent slots.
func (p *Pool) Size() int {
	return int(p.size)
}

// Submit dispatches fn onto a free slot and returns its future.
// It returns ErrPoolClosed after Close and ErrPoolSaturated when all slots are busy;
// in both cases fn has not been started.
func (p *Pool) Submit(ctx context.Context, fn func(context.Context) error) (*ExecFuture, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if !p.sem.TryAcquire(1) {
		p.mu.Unlock()
		return nil, ErrPoolSaturated
	}
	p.wg.Add(1)
	p.mu.Unlock()

	f := newExecFuture()
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)

		err := safeRun(ctx, fn)
		if err != nil {
			p.logger.DebugContext(ctx, "pool task failed", logger.Error(err))
		}
		f.complete(err)
	}()

	return f, nil
}

// Close stops accepting work and waits for running tasks until ctx is done.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("pool shutdown: %w", ctx.Err())
	}
}
