package cache

import (
	"context"
	"sync"
)

// MemoryBackend keeps entries in process memory.
type MemoryBackend struct {
	entries map[string]Entry
	mu      sync.RWMutex
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]Entry)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key]
	if !ok {
		return Entry{}, false, nil
	}
	entry.Data = append([]byte(nil), entry.Data...)
	return entry, true, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry.Data = append([]byte(nil), entry.Data...)
	m.entries[key] = entry
	return nil
}

func (m *MemoryBackend) Invalidate(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.entries[key]; ok {
		entry.Stale = true
		m.entries[key] = entry
	}
	return nil
}

func (m *MemoryBackend) Close() error {
	return nil
}
