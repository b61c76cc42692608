// Package pg provides PostgreSQL connection management and a unit-of-work
// participant built on pgx.
//
// # Key Features
//
//   - Connect: Creates a pgxpool.Pool with retry logic and connection verification
//   - Healthcheck: Returns a readiness check that pings the pool
//   - Transaction: A txn.Transaction that owns one pgx.Tx per unit of work
//   - ActiveTx: Resolves the pgx.Tx bound to the caller's thread slot
//   - Error classification functions for common PostgreSQL error patterns
//
// # Configuration
//
//	type Config struct {
//		ConnectionString  string        `env:"PG_CONN_URL,required"`
//		MaxOpenConns      int32         `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
//		MaxIdleConns      int32         `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`
//		HealthCheckPeriod time.Duration `env:"PG_HEALTHCHECK_PERIOD" envDefault:"1m"`
//		MaxConnIdleTime   time.Duration `env:"PG_MAX_CONN_IDLE_TIME" envDefault:"10m"`
//		MaxConnLifetime   time.Duration `env:"PG_MAX_CONN_LIFETIME" envDefault:"30m"`
//		RetryAttempts     int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval     time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"5s"`
//		IsolationLevel    string        `env:"PG_ISOLATION_LEVEL" envDefault:"read committed"`
//	}
//
// # Usage Example
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	reg := txn.NewRegistry()
//	reg.MustRegister(pg.Kind, pg.Factory(pool, cfg))
//
// Repositories fetch the active transaction instead of taking it as a parameter:
//
//	func (r *Repo) Save(ctx context.Context, u User) error {
//		tx, ok := pg.ActiveTx(ctx, r.txm)
//		if !ok {
//			return ErrNoUnitOfWork
//		}
//		_, err := tx.Exec(ctx, "INSERT INTO users (id, name) VALUES ($1, $2)", u.ID, u.Name)
//		return err
//	}
//
// WithTx and TxFromContext remain available for code that manages a pgx.Tx
// by hand; a tx attached with WithTx wins over the thread slot.
//
// # Commit Order
//
// The participant reports CommitPriority 100, so the relational store is
// committed first and a failure there rolls back every other backend.
//
// # Error Handling
//
//	if pg.IsNotFoundError(err) { ... }
//	if pg.IsDuplicateKeyError(err) { ... }
//	if pg.IsForeignKeyViolationError(err) { ... }
//	if pg.IsTxClosedError(err) { ... }
//
// Rollback of an already closed pgx.Tx is treated as success.
package pg
