package paramstore

import (
	"context"
	"sync"
)

// MemoryStore keeps parameters in process memory. Used by tests and local runs.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
	secure map[string]bool
	puts   int
}

// NewMemoryStore seeds a store with the given values.
func NewMemoryStore(seed map[string]string) *MemoryStore {
	s := &MemoryStore{
		values: make(map[string]string, len(seed)),
		secure: make(map[string]bool),
	}
	for k, v := range seed {
		s.values[k] = v
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[name]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *MemoryStore) Put(_ context.Context, name, value string, secure bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
	s.secure[name] = secure
	s.puts++
	return nil
}

// IsSecure reports whether name was last written as a secure value.
func (s *MemoryStore) IsSecure(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.secure[name]
}

// Puts counts writes since construction.
func (s *MemoryStore) Puts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puts
}
