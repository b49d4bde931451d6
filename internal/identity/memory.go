package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"jobboard/internal/apperr"
)

// MemoryStore is a mutex-guarded account store for dev and testing.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]Account
	byName map[string]string // lowercase name -> id
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]Account),
		byName: make(map[string]string),
	}
}

// Insert adds an account; the name uniqueness check and the write happen
// under one lock so concurrent registrations cannot both succeed.
func (m *MemoryStore) Insert(ctx context.Context, acct Account) error {
	key := strings.ToLower(acct.Name)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byName[key]; exists {
		return fmt.Errorf("%w: %s", apperr.ErrDuplicateIdentity, acct.Name)
	}
	m.byName[key] = acct.ID
	m.byID[acct.ID] = acct
	return nil
}

// GetByName looks up an account case-insensitively.
func (m *MemoryStore) GetByName(ctx context.Context, name string) (Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byName[strings.ToLower(name)]
	if !ok {
		return Account{}, apperr.ErrNotFound
	}
	return m.byID[id], nil
}

// GetByID looks up an account by id.
func (m *MemoryStore) GetByID(ctx context.Context, id string) (Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acct, ok := m.byID[id]
	if !ok {
		return Account{}, apperr.ErrNotFound
	}
	return acct, nil
}
