package pg

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/repocore/core/txn"
)

// txContextKey is an unexported key type to avoid context key collisions.
type txContextKey struct{}

// WithTx returns a new context carrying the provided pgx.Tx.
// If ctx is nil, context.Background() is used. If tx is nil, the original
// context is returned unchanged.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txContextKey{}, tx)
}

// TxFromContext extracts a pgx.Tx previously stored with WithTx.
// The second return value indicates whether a transaction was present.
func TxFromContext(ctx context.Context) (pgx.Tx, bool) {
	if ctx == nil {
		return nil, false
	}
	tx, ok := ctx.Value(txContextKey{}).(pgx.Tx)
	return tx, ok
}

// ActiveTx returns the pgx.Tx of the unit of work in ctx's slot. A tx
// attached with WithTx takes precedence.
func ActiveTx(ctx context.Context, m *txn.Manager) (pgx.Tx, bool) {
	if tx, ok := TxFromContext(ctx); ok {
		return tx, true
	}
	t, ok := txn.Active[*Transaction](ctx, m, Kind)
	if !ok || t.Tx() == nil {
		return nil, false
	}
	return t.Tx(), true
}
