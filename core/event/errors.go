package event

import "errors"

var (
	// ErrHandlerPanicked wraps a panic recovered from a handler.
	ErrHandlerPanicked = errors.New("event handler panicked")

	// ErrBusClosed is returned by Subscribe after the bus has been closed.
	ErrBusClosed = errors.New("event bus is closed")
)
