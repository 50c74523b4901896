package store

import (
	"context"
	"sync"
)

// Memory implements Store in process memory. State is lost on restart.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory returns an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// GetParameter implements Store.
func (m *Memory) GetParameter(ctx context.Context, name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[name]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// PutParameter implements Store.
func (m *Memory) PutParameter(ctx context.Context, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = value
	return nil
}

// Ping implements Store.
func (m *Memory) Ping(ctx context.Context) error {
	return nil
}
