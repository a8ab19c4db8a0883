package cache

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/fleetops/vesselwatch/internal/vessel"
)

// Memory is an in-process Store. It backs the fast tier and stands in for
// the durable tier when Redis is not configured.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]vessel.CacheEntry
	sizes   map[string]int64
	bytes   int64
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]vessel.CacheEntry),
		sizes:   make(map[string]int64),
	}
}

// Get returns the entry for key or ErrNotFound.
func (m *Memory) Get(_ context.Context, key string) (vessel.CacheEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[key]
	if !ok {
		return vessel.CacheEntry{}, ErrNotFound
	}
	return entry, nil
}

// Set stores the entry, replacing any previous one for the key.
func (m *Memory) Set(_ context.Context, key string, entry vessel.CacheEntry) error {
	size := int64(0)
	if payload, err := json.Marshal(entry); err == nil {
		size = int64(len(payload))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bytes += size - m.sizes[key]
	m.sizes[key] = size
	m.entries[key] = entry
	return nil
}

// Delete removes the entry for key, if present.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bytes -= m.sizes[key]
	delete(m.sizes, key)
	delete(m.entries, key)
	return nil
}

// Clear removes all entries.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]vessel.CacheEntry)
	m.sizes = make(map[string]int64)
	m.bytes = 0
	return nil
}

// Keys returns a snapshot of all keys.
func (m *Memory) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	return keys, nil
}

// Len returns the number of stored entries.
func (m *Memory) Len(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

// Bytes returns the approximate serialized footprint of the store.
func (m *Memory) Bytes() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bytes
}
