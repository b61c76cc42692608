package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/repocore/core/txn"
)

// Kind is the registry name of the Redis backend.
const Kind txn.Kind = "redis"

// CommitPriority runs Redis after the document stores.
const CommitPriority = 50

// TxPipeliner is satisfied by *redis.Client and *redis.ClusterClient.
type TxPipeliner interface {
	TxPipeline() redis.Pipeliner
}

// Transaction queues the unit of work's commands in a MULTI/EXEC pipeline.
// Nothing reaches the server before Commit.
type Transaction struct {
	client TxPipeliner
	pipe   redis.Pipeliner
}

// NewTransaction creates an inactive transaction over client.
func NewTransaction(client TxPipeliner) *Transaction {
	return &Transaction{client: client}
}

// Factory returns a registry factory producing transactions over client.
func Factory(client TxPipeliner) txn.Factory {
	return func() txn.Transaction {
		return NewTransaction(client)
	}
}

func (t *Transaction) IsReady() bool {
	return t.client != nil
}

func (t *Transaction) CommitPriority() int {
	return CommitPriority
}

func (t *Transaction) Begin(context.Context) error {
	if t.pipe != nil {
		return txn.ErrAlreadyActive
	}
	t.pipe = t.client.TxPipeline()
	return nil
}

func (t *Transaction) Commit(ctx context.Context) error {
	if t.pipe == nil {
		return txn.ErrNotActive
	}
	pipe := t.pipe
	t.pipe = nil
	if pipe.Len() == 0 {
		return nil
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return errors.Join(ErrExecFailed, err)
	}
	return nil
}

func (t *Transaction) Rollback(context.Context) error {
	if t.pipe == nil {
		return txn.ErrNotActive
	}
	t.pipe.Discard()
	t.pipe = nil
	return nil
}

// Pipeline returns the queued pipeline, or nil when inactive.
func (t *Transaction) Pipeline() redis.Pipeliner {
	return t.pipe
}

// ActivePipeline returns the pipeline of the unit of work in ctx's slot.
func ActivePipeline(ctx context.Context, m *txn.Manager) (redis.Pipeliner, bool) {
	t, ok := txn.Active[*Transaction](ctx, m, Kind)
	if !ok || t.Pipeline() == nil {
		return nil, false
	}
	return t.Pipeline(), true
}
