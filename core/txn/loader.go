package txn

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/dmitrymomot/repocore/core/logger"
)

// Loader provides the backend transactions available to a unit of work.
type Loader interface {
	// Load returns fresh instances of every ready backend, in discovery order.
	Load(ctx context.Context) []Participant
	// IsReady reports whether kind is available.
	IsReady(ctx context.Context, kind Kind) bool
}

// Discoverer finds backend transaction instances, ready or not.
// A Discoverer is used by one caller at a time.
type Discoverer interface {
	Discover(ctx context.Context) []Participant
}

// filterReady keeps the participants whose backend reports ready.
func filterReady(ps []Participant) []Participant {
	out := ps[:0:0]
	for _, p := range ps {
		if p.Transaction != nil && p.IsReady() {
			out = append(out, p)
		}
	}
	return out
}

// RegistryLoader loads transactions straight from a Registry.
type RegistryLoader struct {
	registry *Registry
}

// NewLoader creates a loader over r.
func NewLoader(r *Registry) *RegistryLoader {
	return &RegistryLoader{registry: r}
}

// Load returns ready instances of every registered kind.
func (l *RegistryLoader) Load(ctx context.Context) []Participant {
	return filterReady(l.registry.Discover(ctx))
}

// IsReady reports whether kind is registered and its backend is ready.
func (l *RegistryLoader) IsReady(_ context.Context, kind Kind) bool {
	p, ok := l.registry.New(kind)
	return ok && p.IsReady()
}

// PooledLoader amortizes expensive discovery by keeping a fixed pool of
// reusable Discoverer instances. Load blocks until a Discoverer is free; when
// ctx is done first it returns the fallback instead of failing.
type PooledLoader struct {
	pool     chan Discoverer
	fallback func() []Participant
	logger   *slog.Logger
}

// PooledLoaderOption configures a PooledLoader.
type PooledLoaderOption func(*pooledLoaderOptions)

type pooledLoaderOptions struct {
	size     int
	fallback func() []Participant
	logger   *slog.Logger
}

// WithPoolSize sets the number of pooled discoverers.
// Defaults to runtime.GOMAXPROCS(0).
func WithPoolSize(n int) PooledLoaderOption {
	return func(o *pooledLoaderOptions) {
		if n > 0 {
			o.size = n
		}
	}
}

// WithFallback sets what Load returns when acquiring a discoverer is interrupted.
// Defaults to an empty list.
func WithFallback(fn func() []Participant) PooledLoaderOption {
	return func(o *pooledLoaderOptions) {
		if fn != nil {
			o.fallback = fn
		}
	}
}

// WithLoaderLogger sets the loader logger.
func WithLoaderLogger(l *slog.Logger) PooledLoaderOption {
	return func(o *pooledLoaderOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewPooledLoader creates the pool, calling newDiscoverer once per slot.
func NewPooledLoader(newDiscoverer func() Discoverer, opts ...PooledLoaderOption) *PooledLoader {
	o := &pooledLoaderOptions{
		size:     runtime.GOMAXPROCS(0),
		fallback: func() []Participant { return nil },
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(o)
	}

	pool := make(chan Discoverer, o.size)
	for range o.size {
		pool <- newDiscoverer()
	}

	return &PooledLoader{
		pool:     pool,
		fallback: o.fallback,
		logger:   o.logger,
	}
}

// Size returns the number of pooled discoverers.
func (l *PooledLoader) Size() int {
	return cap(l.pool)
}

// Load borrows a discoverer, runs discovery and returns the ready instances.
func (l *PooledLoader) Load(ctx context.Context) []Participant {
	var d Discoverer
	select {
	case d = <-l.pool:
	case <-ctx.Done():
		l.logger.WarnContext(ctx, "interrupted while waiting for a transaction discoverer, using fallback",
			logger.Component("txn"),
			logger.Error(ctx.Err()))
		return l.fallback()
	}
	defer func() { l.pool <- d }()

	return filterReady(d.Discover(ctx))
}

// IsReady reports whether a ready instance of kind is discovered.
func (l *PooledLoader) IsReady(ctx context.Context, kind Kind) bool {
	for _, p := range l.Load(ctx) {
		if p.Kind == kind {
			return true
		}
	}
	return false
}
