package txn

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrIllegalState is the usage error returned when an operation is called in a
	// state that violates its precondition, e.g. beginning while already active.
	ErrIllegalState = errors.New("illegal transaction state")

	// ErrUnknownKind is returned when a named kind is not registered or not ready.
	ErrUnknownKind = errors.New("transaction kind is not available")

	// ErrDuplicateKind is returned when registering a kind twice.
	ErrDuplicateKind = errors.New("transaction kind already registered")

	// ErrRollbackOnly is the cause of a commit aborted because a participant was
	// marked rollback-only.
	ErrRollbackOnly = errors.New("transaction is marked rollback-only")

	// ErrRollbackFailed is the cause of a rollback in which participants failed.
	ErrRollbackFailed = errors.New("transaction rollback failed")

	// ErrAlreadyActive is returned by backends when Begin is called twice.
	ErrAlreadyActive = errors.New("transaction already active")

	// ErrNotActive is returned by backends when Commit or Rollback is called without Begin.
	ErrNotActive = errors.New("transaction not active")
)

// Op names the manager operation that failed.
type Op string

const (
	OpBegin    Op = "begin"
	OpRequire  Op = "require"
	OpCommit   Op = "commit"
	OpRollback Op = "rollback"
)

// Error is returned by the Manager whenever begin, require, commit or rollback
// fails. Err is the primary cause; Suppressed holds every rollback failure hit
// while unwinding the unit of work. Both are visible to errors.Is and errors.As.
type Error struct {
	Op         Op
	Kind       Kind
	Err        error
	Suppressed []error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("txn: ")
	b.WriteString(string(e.Op))
	if e.Kind != "" {
		b.WriteString(" ")
		b.WriteString(string(e.Kind))
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	if n := len(e.Suppressed); n > 0 {
		fmt.Fprintf(&b, " (%d suppressed: ", n)
		for i, s := range e.Suppressed {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(s.Error())
		}
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap exposes the cause and suppressed errors.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, len(e.Suppressed)+1)
	out = append(out, e.Err)
	return append(out, e.Suppressed...)
}

// usageError wraps ErrIllegalState with a description.
func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIllegalState, fmt.Sprintf(format, args...))
}
