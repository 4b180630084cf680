package cart

import "sync"

// Storage is the key-value capability the cart store persists through.
// Implementations must treat Write as a full replacement of the value
// under key.
type Storage interface {
	// Read returns the stored value and whether one exists.
	Read(key string) (string, bool, error)
	// Write stores value under key, replacing any previous value.
	Write(key, value string) error
}

// MemoryStorage is an in-process Storage, used in tests and by the CLI.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Read(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) Write(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
