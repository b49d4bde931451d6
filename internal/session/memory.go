package session

import (
	"context"
	"sync"

	"jobboard/internal/apperr"
)

// MemoryStore keeps sessions in a mutex-guarded map.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

// Create stores a session keyed by token hash.
func (m *MemoryStore) Create(ctx context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.TokenHash] = s
	return nil
}

// Get returns the session for a token hash.
func (m *MemoryStore) Get(ctx context.Context, tokenHash string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[tokenHash]
	if !ok {
		return Session{}, apperr.ErrUnauthenticated
	}
	return s, nil
}

// Delete removes a session.
func (m *MemoryStore) Delete(ctx context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, tokenHash)
	return nil
}
