// Package cache keeps the last result fetched for each key.
package cache

import "sync"

// Store holds one value per key. Set replaces the previous value wholesale;
// entries never expire.
type Store[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

// NewStore creates an empty store
func NewStore[T any]() *Store[T] {
	return &Store[T]{items: make(map[string]T)}
}

// Get retrieves a value from the store
func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.items[key]
	return v, ok
}

// Set stores a value, replacing any previous one
func (s *Store[T]) Set(key string, v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = v
}
