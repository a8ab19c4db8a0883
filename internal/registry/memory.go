// Package registry provides the ship-registry collaborator. The tracking
// subsystem only reads from it; record management lives elsewhere.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/fleetops/vesselwatch/internal/vessel"
)

// ErrNotFound indicates the vessel ID is unknown to the registry.
var ErrNotFound = errors.New("registry: vessel not found")

// Memory is an in-process vessel.Registry.
type Memory struct {
	mu      sync.RWMutex
	vessels map[string]vessel.Vessel
}

// NewMemory creates a registry seeded with the given vessels.
func NewMemory(seed ...vessel.Vessel) *Memory {
	m := &Memory{vessels: make(map[string]vessel.Vessel, len(seed))}
	for _, v := range seed {
		m.vessels[v.ID] = v
	}
	return m
}

// Get returns the vessel for id or ErrNotFound.
func (m *Memory) Get(_ context.Context, id string) (vessel.Vessel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vessels[id]
	if !ok {
		return vessel.Vessel{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return v, nil
}

// List returns all vessels ordered by ID.
func (m *Memory) List(_ context.Context) ([]vessel.Vessel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]vessel.Vessel, 0, len(m.vessels))
	for _, v := range m.vessels {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Put inserts or replaces a vessel.
func (m *Memory) Put(_ context.Context, v vessel.Vessel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vessels[v.ID] = v
}

// Delete removes a vessel, if present.
func (m *Memory) Delete(_ context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vessels, id)
}
