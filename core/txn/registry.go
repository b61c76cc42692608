package txn

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Factory creates a fresh backend transaction instance.
// Each unit of work receives its own instances.
type Factory func() Transaction

// Registry is the plugin table backends are registered in at startup.
// Kinds keep their registration order, which is the discovery order.
type Registry struct {
	mu        sync.RWMutex
	order     []Kind
	factories map[Kind]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[Kind]Factory)}
}

// Register adds a backend kind.
func (r *Registry) Register(kind Kind, f Factory) error {
	if kind == "" || f == nil {
		return fmt.Errorf("txn: invalid registration for kind %q", kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.factories[kind]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKind, kind)
	}
	r.order = append(r.order, kind)
	r.factories[kind] = f
	return nil
}

// MustRegister is like Register but panics on failure.
func (r *Registry) MustRegister(kind Kind, f Factory) {
	if err := r.Register(kind, f); err != nil {
		panic(err)
	}
}

// Kinds returns every registered kind in registration order.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// New instantiates kind. The second result is false when kind is not registered.
func (r *Registry) New(kind Kind) (Participant, bool) {
	r.mu.RLock()
	f, ok := r.factories[kind]
	r.mu.RUnlock()
	if !ok {
		return Participant{}, false
	}
	return Participant{Kind: kind, Transaction: f()}, true
}

// Discover instantiates every registered kind, ready or not, in registration order.
func (r *Registry) Discover(_ context.Context) []Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Participant, 0, len(r.order))
	for _, kind := range r.order {
		out = append(out, Participant{Kind: kind, Transaction: r.factories[kind]()})
	}
	return out
}
