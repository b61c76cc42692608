package repocore

import "errors"

var (
	ErrClosed      = errors.New("runtime is closed")
	ErrNilFunc     = errors.New("nil unit of work function")
	ErrNilSession  = errors.New("nil session")
	ErrInvalidKind = errors.New("invalid backend kind")
)
