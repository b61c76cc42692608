// Package repocore provides the transaction-and-session concurrency core of a
// multi-backend application: units of work spanning several persistence
// backends with best-effort ordered commit, and sessions shared safely between
// concurrent units of work.
//
// # Package Organization
//
// The module is organized into three categories:
//
//   - Core: the unit-of-work slot, the transaction manager and the session subsystem
//   - Utilities: standalone helpers the core builds on
//   - Integrations: persistence backends that take part in units of work
//
// # Core Packages
//
//	github.com/dmitrymomot/repocore/core/thread   - Per-unit-of-work slot carried in context.Context
//	github.com/dmitrymomot/repocore/core/txn      - Transaction registry, loaders and the ordered-commit manager
//	github.com/dmitrymomot/repocore/core/session  - Sessions, session manager, scoped identity and on-commit tasks
//	github.com/dmitrymomot/repocore/core/event    - Typed listener bus with panic-safe dispatch
//	github.com/dmitrymomot/repocore/core/config   - Type-safe environment variable loading
//	github.com/dmitrymomot/repocore/core/logger   - Structured logging built on slog
//	github.com/dmitrymomot/repocore/core/health   - Concurrent readiness checks
//
// # Utility Packages
//
//	github.com/dmitrymomot/repocore/pkg/async     - Futures and a bounded, non-blocking task pool
//
// # Integration Packages
//
//	github.com/dmitrymomot/repocore/integration/database/pg         - PostgreSQL participant (pgx), priority 100
//	github.com/dmitrymomot/repocore/integration/database/mongo      - MongoDB participant, priority 90
//	github.com/dmitrymomot/repocore/integration/database/redis      - Redis MULTI/EXEC participant, priority 50
//	github.com/dmitrymomot/repocore/integration/storage/s3          - S3 staged-upload participant, priority 20
//	github.com/dmitrymomot/repocore/integration/database/opensearch - OpenSearch bulk participant, priority 10
//
// # Quick Start
//
//	rt, err := repocore.New(
//		repocore.WithLogger(log),
//		repocore.WithBackend(pg.Kind, pg.Factory(pool, pgCfg), repocore.Check(pg.Healthcheck(pool))),
//		repocore.WithBackend(redis.Kind, redis.Factory(client), repocore.Check(redis.Healthcheck(client))),
//	)
//	if err != nil {
//		return err
//	}
//	defer rt.Close(ctx)
//
//	err = rt.Do(ctx, func(ctx context.Context, s *session.Session) error {
//		tx, _ := pg.ActiveTx(ctx, rt.Transactions())
//		if _, err := tx.Exec(ctx, "UPDATE accounts SET balance = balance - $1 WHERE id = $2", amount, id); err != nil {
//			return err
//		}
//		return s.OnCommit(ctx, func(ctx context.Context) error {
//			return notify(ctx, id)
//		})
//	})
//
// Do runs fn in a fresh slot with a new session, begins every ready backend,
// commits when fn returns nil and rolls back otherwise. DoIn does the same
// with an existing session, which may be used by several units of work at once.
package repocore
