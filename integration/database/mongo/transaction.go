package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/repocore/core/txn"
)

// Kind is the registry name of the MongoDB backend.
const Kind txn.Kind = "mongo"

// CommitPriority places MongoDB right after PostgreSQL.
const CommitPriority = 90

// Session is the part of *mongo.Session a transaction needs.
type Session interface {
	StartTransaction(opts ...options.Lister[options.TransactionOptions]) error
	CommitTransaction(ctx context.Context) error
	AbortTransaction(ctx context.Context) error
	EndSession(ctx context.Context)
}

// Starter opens a new client session.
type Starter func() (Session, error)

// ClientStarter starts sessions on client. A nil client yields a nil Starter.
func ClientStarter(client *mongo.Client) Starter {
	if client == nil {
		return nil
	}
	return func() (Session, error) {
		s, err := client.StartSession()
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Transaction runs the unit of work's MongoDB writes in one multi-document
// transaction on a dedicated session.
type Transaction struct {
	start Starter
	sess  Session
}

// NewTransaction creates an inactive transaction.
func NewTransaction(start Starter) *Transaction {
	return &Transaction{start: start}
}

// Factory returns a registry factory producing transactions on client.
func Factory(client *mongo.Client) txn.Factory {
	start := ClientStarter(client)
	return func() txn.Transaction {
		return NewTransaction(start)
	}
}

func (t *Transaction) IsReady() bool {
	return t.start != nil
}

func (t *Transaction) CommitPriority() int {
	return CommitPriority
}

func (t *Transaction) Begin(ctx context.Context) error {
	if t.sess != nil {
		return txn.ErrAlreadyActive
	}
	sess, err := t.start()
	if err != nil {
		return errors.Join(ErrStartSessionFailed, err)
	}
	if err := sess.StartTransaction(); err != nil {
		sess.EndSession(ctx)
		return errors.Join(ErrBeginFailed, err)
	}
	t.sess = sess
	return nil
}

func (t *Transaction) Commit(ctx context.Context) error {
	if t.sess == nil {
		return txn.ErrNotActive
	}
	sess := t.sess
	t.sess = nil
	defer sess.EndSession(ctx)

	if err := sess.CommitTransaction(ctx); err != nil {
		return errors.Join(ErrCommitFailed, err)
	}
	return nil
}

func (t *Transaction) Rollback(ctx context.Context) error {
	if t.sess == nil {
		return txn.ErrNotActive
	}
	sess := t.sess
	t.sess = nil
	defer sess.EndSession(ctx)

	if err := sess.AbortTransaction(ctx); err != nil {
		return errors.Join(ErrAbortFailed, err)
	}
	return nil
}

// Session returns the open session, or nil when inactive.
func (t *Transaction) Session() Session {
	return t.sess
}

// Context binds the open session to ctx so driver calls made with the
// returned context join the transaction. It returns ctx unchanged when
// inactive or when the session is not a driver session.
func (t *Transaction) Context(ctx context.Context) context.Context {
	if s, ok := t.sess.(*mongo.Session); ok && s != nil {
		return mongo.NewSessionContext(ctx, s)
	}
	return ctx
}

// SessionContext returns ctx bound to the MongoDB transaction of the unit of
// work in ctx's slot. The second result is false when none is active.
func SessionContext(ctx context.Context, m *txn.Manager) (context.Context, bool) {
	t, ok := txn.Active[*Transaction](ctx, m, Kind)
	if !ok || t.Session() == nil {
		return ctx, false
	}
	return t.Context(ctx), true
}
