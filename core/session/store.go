package session

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// store is the concurrent key-value map behind a session or scoped overlay.
type store struct {
	mu     sync.RWMutex
	values map[string]any
}

func newStore(initial map[string]any) *store {
	values := make(map[string]any, len(initial))
	maps.Copy(values, initial)
	return &store{values: values}
}

func (s *store) get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *store) put(key string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = v
}

func (s *store) delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// computeIfAbsent holds the write lock while fn runs; fn must not touch the store.
func (s *store) computeIfAbsent(key string, fn func() (any, error)) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[key]; ok {
		return v, nil
	}
	v, err := fn()
	if err != nil {
		return nil, err
	}
	s.values[key] = v
	return v, nil
}

func (s *store) keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.values))
}

func (s *store) entries() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values)
}

// closeAll empties the store and closes every io.Closer it held, attempting all of them.
func (s *store) closeAll() error {
	s.mu.Lock()
	values := s.values
	s.values = make(map[string]any)
	s.mu.Unlock()

	var merr *multierror.Error
	for _, key := range slices.Sorted(maps.Keys(values)) {
		c, ok := values[key].(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("close %q: %w", key, err))
		}
	}
	if err := merr.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrCloseResources, err)
	}
	return nil
}
