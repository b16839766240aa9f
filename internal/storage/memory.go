package storage

import (
	"context"
	"sync"
)

func init() {
	RegisterFactory("memory", func(string) (Store, error) {
		return NewMemoryStore(), nil
	})
}

// MemoryStore keeps cursors in process memory. Nothing survives a restart, so
// it is only suitable for tests and throwaway runs; it still honors the
// staged-write contract so flush behavior can be exercised without a database.
type MemoryStore struct {
	mu        sync.RWMutex
	committed map[string]string
	pending   map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		committed: make(map[string]string),
		pending:   make(map[string]string),
	}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if value, ok := m.pending[key]; ok {
		return value, true, nil
	}

	value, ok := m.committed[key]
	return value, ok, nil
}

func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending[key] = value
	return nil
}

func (m *MemoryStore) Flush(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, value := range m.pending {
		m.committed[key] = value
	}
	m.pending = make(map[string]string)
	return nil
}

func (m *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// Committed reports whether a key has been durably flushed, ignoring staged
// writes. Used by tests to observe flush boundaries.
func (m *MemoryStore) Committed(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.committed[key]
	return value, ok
}
