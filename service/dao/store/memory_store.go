package store

import (
	"context"
	"sync"

	"github.com/viant/kproc/service/dao"
)

// MemoryStore is a generic in-memory implementation of dao.Service.
// It keeps entities of type *T mapped by a comparable key K obtained with keySelector.
// List returns records in first-save order.
type MemoryStore[K comparable, T any] struct {
	mu          sync.RWMutex
	records     map[K]*T
	keys        []K
	keySelector func(*T) K
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore[K comparable, T any](keySelector func(*T) K) *MemoryStore[K, T] {
	return &MemoryStore[K, T]{
		records:     make(map[K]*T),
		keySelector: keySelector,
	}
}

// Save stores or overwrites a record.
func (s *MemoryStore[K, T]) Save(_ context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	key := s.keySelector(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.records[key] = v
	return nil
}

// Load returns a record by key or dao.ErrNotFound.
func (s *MemoryStore[K, T]) Load(_ context.Context, key K) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[key]
	if !ok {
		return nil, dao.ErrNotFound
	}
	return v, nil
}

// Delete removes a record.
func (s *MemoryStore[K, T]) Delete(_ context.Context, key K) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		return nil
	}
	delete(s.records, key)
	for i, candidate := range s.keys {
		if candidate == key {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
	return nil
}

// List returns stored records, a "limit" parameter keeps only the most recent ones.
func (s *MemoryStore[K, T]) List(_ context.Context, parameters ...*dao.Parameter) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.keys
	for _, parameter := range parameters {
		if parameter == nil || parameter.Name != dao.ParameterLimit {
			continue
		}
		if limit, ok := parameter.Value.(int); ok && limit >= 0 && limit < len(keys) {
			keys = keys[len(keys)-limit:]
		}
	}
	out := make([]*T, 0, len(keys))
	for _, key := range keys {
		out = append(out, s.records[key])
	}
	return out, nil
}

var _ dao.Service[string, struct{}] = (*MemoryStore[string, struct{}])(nil)
