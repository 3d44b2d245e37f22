package users

import (
	"context"
	"fmt"
	"sync"

	"github.com/odyssey-erp/useradmin/internal/shared"
)

// MemoryBackend keeps the collection in process memory. It backs local demos
// and tests; records are lost on restart.
type MemoryBackend struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]User
}

// NewMemoryBackend seeds the backend with users in the given order.
func NewMemoryBackend(seed ...User) *MemoryBackend {
	m := &MemoryBackend{byID: make(map[string]User, len(seed))}
	for _, u := range seed {
		if _, exists := m.byID[u.ID]; exists {
			continue
		}
		m.order = append(m.order, u.ID)
		m.byID[u.ID] = u.clone()
	}
	return m
}

// ListUsers returns copies of all users in insertion order.
func (m *MemoryBackend) ListUsers(_ context.Context) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]User, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.byID[id].clone())
	}
	return out, nil
}

// GetUser returns user id.
func (m *MemoryBackend) GetUser(_ context.Context, id string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byID[id]
	if !ok {
		return User{}, fmt.Errorf("user %s: %w", id, shared.ErrNotFound)
	}
	return u.clone(), nil
}

// CreateUser stores u. The id must be set and unused.
func (m *MemoryBackend) CreateUser(_ context.Context, u User) (User, error) {
	if u.ID == "" {
		return User{}, fmt.Errorf("create user: missing id: %w", shared.ErrValidation)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byID[u.ID]; exists {
		return User{}, fmt.Errorf("user %s: %w", u.ID, shared.ErrDuplicate)
	}
	m.order = append(m.order, u.ID)
	m.byID[u.ID] = u.clone()
	return u.clone(), nil
}

// UpdateUser applies p to user id.
func (m *MemoryBackend) UpdateUser(_ context.Context, id string, p Patch) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.byID[id]
	if !ok {
		return User{}, fmt.Errorf("user %s: %w", id, shared.ErrNotFound)
	}
	updated := p.Apply(current)
	updated.ID = id
	m.byID[id] = updated
	return updated.clone(), nil
}

// DeleteUser removes user id.
func (m *MemoryBackend) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return fmt.Errorf("user %s: %w", id, shared.ErrNotFound)
	}
	delete(m.byID, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

var _ Backend = (*MemoryBackend)(nil)
