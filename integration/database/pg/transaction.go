package pg

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/repocore/core/txn"
)

// Kind is the registry name of the PostgreSQL backend.
const Kind txn.Kind = "pg"

// CommitPriority makes PostgreSQL commit before every other built-in backend.
const CommitPriority = 100

// Beginner is satisfied by *pgxpool.Pool and pgx.Conn.
type Beginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// Transaction runs the unit of work's PostgreSQL statements in one pgx.Tx.
type Transaction struct {
	db   Beginner
	opts pgx.TxOptions
	tx   pgx.Tx
}

// NewTransaction creates an inactive transaction over db.
func NewTransaction(db Beginner, opts pgx.TxOptions) *Transaction {
	return &Transaction{db: db, opts: opts}
}

// Factory returns a registry factory producing transactions over db.
func Factory(db Beginner, cfg Config) txn.Factory {
	opts := TxOptions(cfg)
	return func() txn.Transaction {
		return NewTransaction(db, opts)
	}
}

// TxOptions maps the configured isolation level to pgx options.
func TxOptions(cfg Config) pgx.TxOptions {
	switch strings.ToLower(strings.TrimSpace(cfg.IsolationLevel)) {
	case "serializable":
		return pgx.TxOptions{IsoLevel: pgx.Serializable}
	case "repeatable read":
		return pgx.TxOptions{IsoLevel: pgx.RepeatableRead}
	case "read uncommitted":
		return pgx.TxOptions{IsoLevel: pgx.ReadUncommitted}
	default:
		return pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	}
}

func (t *Transaction) IsReady() bool {
	return t.db != nil
}

func (t *Transaction) CommitPriority() int {
	return CommitPriority
}

func (t *Transaction) Begin(ctx context.Context) error {
	if t.tx != nil {
		return txn.ErrAlreadyActive
	}
	tx, err := t.db.BeginTx(ctx, t.opts)
	if err != nil {
		return errors.Join(ErrBeginFailed, err)
	}
	t.tx = tx
	return nil
}

func (t *Transaction) Commit(ctx context.Context) error {
	if t.tx == nil {
		return txn.ErrNotActive
	}
	tx := t.tx
	t.tx = nil
	if err := tx.Commit(ctx); err != nil {
		return errors.Join(ErrCommitFailed, err)
	}
	return nil
}

func (t *Transaction) Rollback(ctx context.Context) error {
	if t.tx == nil {
		return txn.ErrNotActive
	}
	tx := t.tx
	t.tx = nil
	if err := tx.Rollback(ctx); err != nil && !IsTxClosedError(err) {
		return errors.Join(ErrRollbackFailed, err)
	}
	return nil
}

// Tx returns the open pgx transaction, or nil when inactive.
func (t *Transaction) Tx() pgx.Tx {
	return t.tx
}
