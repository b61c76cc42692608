package async

import "errors"

var (
	// ErrTimeout is returned by AwaitWithTimeout when the future did not complete in time.
	ErrTimeout = errors.New("async operation timed out")

	// ErrTaskPanicked wraps a panic recovered from a submitted function.
	ErrTaskPanicked = errors.New("async task panicked")

	// ErrPoolClosed is returned by Submit after the pool has been closed.
	ErrPoolClosed = errors.New("pool is closed")

	// ErrPoolSaturated is returned by Submit when every worker slot is busy.
	ErrPoolSaturated = errors.New("pool is saturated")
)
