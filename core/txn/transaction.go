package txn

import "context"

// Transaction is the capability every pluggable persistence backend exposes to
// take part in a unit of work.
//
// Begin must only be called while the transaction is inactive, Commit and
// Rollback only while it is active; implementations report violations with
// ErrAlreadyActive and ErrNotActive. The Manager never calls one instance from
// two unit-of-work slots, so implementations only need to be safe for
// sequential use.
type Transaction interface {
	// IsReady reports whether the backend is configured and available.
	IsReady() bool
	// Begin starts the backend transaction.
	Begin(ctx context.Context) error
	// Commit makes the backend's changes durable.
	Commit(ctx context.Context) error
	// Rollback discards the backend's changes.
	Rollback(ctx context.Context) error
	// CommitPriority orders commits: higher values commit first.
	CommitPriority() int
}

// Kind names a backend type, e.g. "pg" or "opensearch".
type Kind string

// String implements fmt.Stringer.
func (k Kind) String() string {
	return string(k)
}

// Participant is one backend transaction instance taking part in a unit of work.
type Participant struct {
	Kind Kind
	Transaction
}

// kinds returns the kinds of ps in order.
func kinds(ps []Participant) []Kind {
	out := make([]Kind, len(ps))
	for i, p := range ps {
		out[i] = p.Kind
	}
	return out
}
