package credstore

import (
	"context"
	"sync"
)

type MemoryBackend struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{items: map[string][]byte{}}
}

func memoryKey(namespace, account string) string {
	return namespace + "\x00" + account
}

func (m *MemoryBackend) Add(_ context.Context, namespace, account string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := memoryKey(namespace, account)
	if _, ok := m.items[key]; ok {
		return ErrDuplicate
	}
	m.items[key] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryBackend) Get(_ context.Context, namespace, account string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.items[memoryKey(namespace, account)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

func (m *MemoryBackend) Delete(_ context.Context, namespace, account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, memoryKey(namespace, account))
	return nil
}

// Len is the number of stored items.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
