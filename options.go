package repocore

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/repocore/core/health"
	"github.com/dmitrymomot/repocore/core/session"
	"github.com/dmitrymomot/repocore/core/txn"
)

// Config holds the environment-driven runtime settings.
type Config struct {
	DefaultLanguage string `env:"REPOCORE_DEFAULT_LANGUAGE" envDefault:"de"`
	SuperUserID     string `env:"REPOCORE_SUPERUSER_ID" envDefault:"administrator"`
	// ExecutorWorkers bounds concurrently running on-commit tasks. Zero means GOMAXPROCS.
	ExecutorWorkers int `env:"REPOCORE_EXECUTOR_WORKERS" envDefault:"0"`
	// LoaderPoolSize is the number of pooled transaction discoverers. Zero means GOMAXPROCS.
	LoaderPoolSize int `env:"REPOCORE_LOADER_POOL_SIZE" envDefault:"0"`
}

// Option configures a Runtime.
type Option func(*options)

type backend struct {
	kind    txn.Kind
	factory txn.Factory
	checks  []BackendOption
}

type options struct {
	cfg       Config
	log       *slog.Logger
	registry  *txn.Registry
	backends  []backend
	listeners []session.Listener
	checks    []health.Check
	hooks     []txn.AfterCommitFunc
}

// WithConfig replaces the runtime settings.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithRegistry uses r instead of a fresh registry. Backends added with
// WithBackend are registered into it.
func WithRegistry(r *txn.Registry) Option {
	return func(o *options) {
		if r != nil {
			o.registry = r
		}
	}
}

// BackendOption configures a backend registered with WithBackend.
type BackendOption func(kind txn.Kind, o *options)

// Check adds fn to the runtime readiness checks under the backend kind.
func Check(fn func(context.Context) error) BackendOption {
	return func(kind txn.Kind, o *options) {
		o.checks = append(o.checks, health.Named(kind.String(), fn))
	}
}

// WithBackend registers a persistence backend.
func WithBackend(kind txn.Kind, f txn.Factory, opts ...BackendOption) Option {
	return func(o *options) {
		o.backends = append(o.backends, backend{kind: kind, factory: f, checks: opts})
	}
}

// WithHealthcheck adds a readiness check that is not tied to a backend.
func WithHealthcheck(name string, fn func(context.Context) error) Option {
	return func(o *options) {
		o.checks = append(o.checks, health.Named(name, fn))
	}
}

// WithListener subscribes l to session lifecycle events.
func WithListener(l session.Listener) Option {
	return func(o *options) {
		if l != nil {
			o.listeners = append(o.listeners, l)
		}
	}
}

// WithAfterCommit adds hooks that run after each successful commit, after the
// session's on-commit tasks.
func WithAfterCommit(fns ...txn.AfterCommitFunc) Option {
	return func(o *options) {
		o.hooks = append(o.hooks, fns...)
	}
}
