package searchstate

import (
	"context"
	"sync"
)

// Memory is an in-process search-state store for single-instance
// deployments and tests. No TTL: entries live as long as the process.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func memKey(sessionID, endpointID string) string {
	return endpointID + ":" + sessionID
}

// Get returns the remembered raw query, or "" when none is stored.
func (m *Memory) Get(_ context.Context, sessionID, endpointID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[memKey(sessionID, endpointID)], nil
}

// Set stores the raw query.
func (m *Memory) Set(_ context.Context, sessionID, endpointID, raw string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[memKey(sessionID, endpointID)] = raw
	return nil
}

// Clear drops the remembered query.
func (m *Memory) Clear(_ context.Context, sessionID, endpointID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, memKey(sessionID, endpointID))
	return nil
}
