package async

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ExecFuture represents the result of an asynchronous computation that only returns an error.
type ExecFuture struct {
	err  error
	once sync.Once
	done chan struct{}
}

func newExecFuture() *ExecFuture {
	return &ExecFuture{done: make(chan struct{})}
}

// complete records err and releases every waiter. Only the first call has effect.
func (f *ExecFuture) complete(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Await waits for the asynchronous function to complete and returns its error.
func (f *ExecFuture) Await() error {
	<-f.done
	return f.err
}

// AwaitWithTimeout waits for the asynchronous function to complete with a timeout.
// If the timeout occurs before completion, returns ErrTimeout.
func (f *ExecFuture) AwaitWithTimeout(timeout time.Duration) error {
	select {
	case <-f.done:
		return f.err
	case <-time.After(timeout):
		return ErrTimeout
	}
}

// IsComplete checks if the asynchronous function is complete without blocking.
func (f *ExecFuture) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Exec executes a function asynchronously that only returns an error.
// The function accepts a context.Context and a parameter of any type T.
func Exec[T any](ctx context.Context, param T, fn func(context.Context, T) error) *ExecFuture {
	f := newExecFuture()

	go func() {
		// Early exit prevents running work for an already canceled caller
		select {
		case <-ctx.Done():
			f.complete(ctx.Err())
			return
		default:
		}

		f.complete(safeRun(ctx, func(ctx context.Context) error { return fn(ctx, param) }))
	}()

	return f
}

// ExecAll waits for all futures in order and returns the first error encountered.
// Futures after a failed one are not awaited.
func ExecAll(futures ...*ExecFuture) error {
	for _, future := range futures {
		if err := future.Await(); err != nil {
			return err
		}
	}
	return nil
}

// AwaitAll waits for every future to complete, regardless of failures,
// and returns all their errors joined together.
func AwaitAll(futures ...*ExecFuture) error {
	var errs []error
	for _, future := range futures {
		if future == nil {
			continue
		}
		if err := future.Await(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// safeRun executes fn and converts a panic into ErrTaskPanicked.
func safeRun(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
		}
	}()
	return fn(ctx)
}

// Run executes fn in the caller's goroutine, converting a panic into ErrTaskPanicked.
func Run(ctx context.Context, fn func(context.Context) error) error {
	return safeRun(ctx, fn)
}
