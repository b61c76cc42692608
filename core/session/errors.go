package session

import "errors"

var (
	// ErrIllegalState is returned when an operation is called in a state that
	// violates its precondition.
	ErrIllegalState = errors.New("illegal session state")
	// ErrLocked is returned by CurrentSession when the slot is locked and has no bound session.
	ErrLocked = errors.New("session creation is locked for this thread")
	// ErrScoped is returned when changing the user information inside a scoped overlay.
	ErrScoped = errors.New("user information is fixed inside a scoped session")
	// ErrUserTransition is returned when switching to a different ordinary user.
	ErrUserTransition = errors.New("illegal user information transition")
	// ErrClosed is returned when using a closed session or manager.
	ErrClosed = errors.New("session closed")
	// ErrInvalidIP is returned when setting an address that is not an IP.
	ErrInvalidIP = errors.New("invalid IP address")
	// ErrCloseResources is returned when closable session values fail to close.
	ErrCloseResources = errors.New("failed to close session resources")
	// ErrNilSession is returned when binding a nil session.
	ErrNilSession = errors.New("session is nil")
)
