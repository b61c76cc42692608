// Package txn coordinates one logical unit of work across several pluggable
// persistence backends.
//
// Backends implement Transaction and register a Factory per Kind in a
// Registry. A Loader hands out fresh, ready instances; PooledLoader bounds
// concurrent discovery with a fixed pool of Discoverers and falls back when
// the caller's context is done.
//
// The Manager keeps the active transactions of each unit of work in the
// thread slot carried by the context (see package thread):
//
//	reg := txn.NewRegistry()
//	reg.MustRegister(pg.Kind, pg.Factory(pool))
//	reg.MustRegister(opensearch.Kind, opensearch.Factory(client))
//
//	m := txn.NewManager(txn.NewLoader(reg), txn.WithLogger(log))
//
//	ctx = thread.New(ctx)
//	if err := m.Begin(ctx); err != nil {
//		return err
//	}
//	if err := work(ctx); err != nil {
//		return errors.Join(err, m.Rollback(ctx))
//	}
//	return m.Commit(ctx)
//
// Commit runs in descending CommitPriority. A failure during begin or commit
// rolls back every transaction still active in the slot and returns an *Error
// whose Suppressed field carries the rollback failures:
//
//	var txErr *txn.Error
//	if errors.As(err, &txErr) {
//		log.Error("unit of work failed", "kind", txErr.Kind, "suppressed", len(txErr.Suppressed))
//	}
//
// Calling an operation in the wrong state, e.g. Begin while transactions are
// active, returns an error wrapping ErrIllegalState.
package txn
