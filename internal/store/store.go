package store

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var ErrClosed = errors.New("store is closed")

// Store is a small string key-value persistence layer. Get reports whether
// the key exists.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Open picks a backend from the path: a ".json" suffix selects the file
// store, anything else is treated as a SQLite database.
func Open(path string) (Store, error) {
	if path == "" {
		return nil, errors.New("store path is empty")
	}
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return OpenFile(path)
	}
	return OpenSQLite(path)
}

// MemoryStore keeps values in process memory only.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.values == nil {
		return "", false, ErrClosed
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		return ErrClosed
	}
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = nil
	return nil
}
