package repository

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is a single-slot in-memory document store used for unit tests.
// It honors the same conditional-write contract as the real backends.
type MemoryStore struct {
	mu      sync.Mutex
	data    []byte
	version string
}

// NewMemoryStore seeds the store with an initial document.
func NewMemoryStore(seed []byte) *MemoryStore {
	return &MemoryStore{
		data:    append([]byte(nil), seed...),
		version: contentVersion(seed),
	}
}

func (m *MemoryStore) Fetch(ctx context.Context) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, "", fmt.Errorf("%w: no document", ErrRemoteUnavailable)
	}
	return append([]byte(nil), m.data...), m.version, nil
}

func (m *MemoryStore) Write(ctx context.Context, data []byte, version string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if version != m.version {
		return "", fmt.Errorf("%w: stale version token", ErrVersionConflict)
	}
	m.data = append([]byte(nil), data...)
	m.version = contentVersion(data)
	return m.version, nil
}
