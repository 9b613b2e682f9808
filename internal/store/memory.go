// ABOUTME: In-memory Store implementation
// ABOUTME: Used for the memory driver, for degraded identity, and in tests

package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store implementation. Nothing survives the
// process.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string][]byte),
	}
}

// Get returns a copy of the value stored under key, or ErrNotFound.
func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

// Set stores a copy of value under key.
func (m *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Make a copy to avoid external modification
	m.entries[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes key.
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
