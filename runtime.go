package repocore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrymomot/repocore/core/config"
	"github.com/dmitrymomot/repocore/core/health"
	"github.com/dmitrymomot/repocore/core/logger"
	"github.com/dmitrymomot/repocore/core/session"
	"github.com/dmitrymomot/repocore/core/thread"
	"github.com/dmitrymomot/repocore/core/txn"
	"github.com/dmitrymomot/repocore/pkg/async"
)

// Runtime wires the transaction manager, the session manager and the
// on-commit executor together.
type Runtime struct {
	cfg      Config
	registry *txn.Registry
	loader   *txn.PooledLoader
	pool     *async.Pool
	sessions *session.Manager
	txm      *txn.Manager
	ready    health.Func

	mu     sync.RWMutex
	closed bool
}

// DefaultConfig returns the settings used when none are given.
func DefaultConfig() Config {
	return Config{DefaultLanguage: "de", SuperUserID: "administrator"}
}

// LoadConfig reads Config from the environment and .env.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewFromEnv is New with the settings read by LoadConfig. Options can still
// override them.
func NewFromEnv(opts ...Option) (*Runtime, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return New(append([]Option{WithConfig(cfg)}, opts...)...)
}

// New builds a Runtime. The session manager's on-commit task submission is
// installed as the first after-commit hook of the transaction manager.
func New(opts ...Option) (*Runtime, error) {
	o := &options{cfg: DefaultConfig(), log: logger.Discard()}
	for _, opt := range opts {
		opt(o)
	}
	if o.registry == nil {
		o.registry = txn.NewRegistry()
	}
	for _, b := range o.backends {
		if b.kind == "" || b.factory == nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidKind, b.kind)
		}
		if err := o.registry.Register(b.kind, b.factory); err != nil {
			return nil, err
		}
		for _, bo := range b.checks {
			bo(b.kind, o)
		}
	}

	pool := async.NewPool(o.cfg.ExecutorWorkers, async.WithPoolLogger(o.log))
	sessions := session.NewManager(
		session.WithConfig(session.Config{
			DefaultLanguage: o.cfg.DefaultLanguage,
			SuperUserID:     o.cfg.SuperUserID,
		}),
		session.WithExecutor(pool),
		session.WithLogger(o.log),
	)
	for _, l := range o.listeners {
		if _, err := sessions.AddListener(l); err != nil {
			return nil, errors.Join(err, sessions.Close(context.Background()), pool.Close(context.Background()))
		}
	}

	registry := o.registry
	loader := txn.NewPooledLoader(
		func() txn.Discoverer { return registry },
		txn.WithPoolSize(o.cfg.LoaderPoolSize),
		txn.WithLoaderLogger(o.log),
	)
	hooks := append([]txn.AfterCommitFunc{sessions.SubmitOnCommitTasks}, o.hooks...)
	txm := txn.NewManager(loader,
		txn.WithLogger(o.log),
		txn.WithAfterCommit(hooks...),
	)

	return &Runtime{
		cfg:      o.cfg,
		registry: registry,
		loader:   loader,
		pool:     pool,
		sessions: sessions,
		txm:      txm,
		ready:    health.Readiness(o.log, o.checks...),
	}, nil
}

// Config returns the settings the runtime was built with.
func (r *Runtime) Config() Config { return r.cfg }

// Registry returns the backend registry.
func (r *Runtime) Registry() *txn.Registry { return r.registry }

// Transactions returns the transaction manager.
func (r *Runtime) Transactions() *txn.Manager { return r.txm }

// Sessions returns the session manager.
func (r *Runtime) Sessions() *session.Manager { return r.sessions }

// Executor returns the pool on-commit tasks run on.
func (r *Runtime) Executor() *async.Pool { return r.pool }

// Ready runs every registered readiness check.
func (r *Runtime) Ready(ctx context.Context) error {
	return r.ready(ctx)
}

// Do runs fn as one unit of work with a new session that is closed afterwards.
// Without kinds every ready backend takes part.
func (r *Runtime) Do(ctx context.Context, fn func(ctx context.Context, s *session.Session) error, kinds ...txn.Kind) (err error) {
	if err := r.check(fn); err != nil {
		return err
	}
	s, err := r.sessions.NewSession(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(ctx); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()
	return r.run(ctx, s, fn, kinds)
}

// DoIn runs fn as one unit of work bound to s. s stays open, so several
// units of work may share it, concurrently or one after another.
func (r *Runtime) DoIn(ctx context.Context, s *session.Session, fn func(ctx context.Context, s *session.Session) error, kinds ...txn.Kind) error {
	if s == nil {
		return ErrNilSession
	}
	if err := r.check(fn); err != nil {
		return err
	}
	return r.run(ctx, s, fn, kinds)
}

func (r *Runtime) check(fn func(context.Context, *session.Session) error) error {
	if fn == nil {
		return ErrNilFunc
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrClosed
	}
	return nil
}

// run owns a fresh slot for the whole unit of work. A panic in fn rolls back
// before it propagates.
func (r *Runtime) run(ctx context.Context, s *session.Session, fn func(context.Context, *session.Session) error, kinds []txn.Kind) (err error) {
	ctx = thread.New(ctx)
	if err := r.sessions.SetCurrentSession(ctx, s); err != nil {
		return err
	}
	defer r.sessions.ReleaseCurrentSession(ctx)

	if err := r.txm.Begin(ctx, kinds...); err != nil {
		return err
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rerr := r.txm.Rollback(ctx, kinds...); rerr != nil {
			err = errors.Join(err, rerr)
		}
	}()

	if err := fn(ctx, s); err != nil {
		return err
	}
	committed = true
	return r.txm.CommitKinds(ctx, kinds)
}

// Close closes every session and waits for running on-commit tasks until
// ctx is done. Do and DoIn fail with ErrClosed afterwards.
func (r *Runtime) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	return errors.Join(r.sessions.Close(ctx), r.pool.Close(ctx))
}
