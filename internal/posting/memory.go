package posting

import (
	"context"
	"sort"
	"sync"

	"jobboard/internal/apperr"
)

// MemoryStore is a mutex-guarded posting store for dev and testing.
type MemoryStore struct {
	mu       sync.RWMutex
	postings map[string]Posting
	nextSeq  int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{postings: make(map[string]Posting)}
}

// Insert stores a posting and assigns its insertion sequence.
func (m *MemoryStore) Insert(ctx context.Context, p Posting) (Posting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSeq++
	p.Seq = m.nextSeq
	m.postings[p.ID] = p
	return p, nil
}

// Get returns a posting by id.
func (m *MemoryStore) Get(ctx context.Context, id string) (Posting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.postings[id]
	if !ok {
		return Posting{}, apperr.ErrNotFound
	}
	return p, nil
}

// Toggle flips OPEN and CLOSED under the store lock, so concurrent toggles
// serialize per record.
func (m *MemoryStore) Toggle(ctx context.Context, id string) (Posting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.postings[id]
	if !ok {
		return Posting{}, apperr.ErrNotFound
	}
	if p.Status == StatusOpen {
		p.Status = StatusClosed
	} else {
		p.Status = StatusOpen
	}
	m.postings[id] = p
	return p, nil
}

// Delete removes a posting.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.postings[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(m.postings, id)
	return nil
}

// List returns all postings in insertion order.
func (m *MemoryStore) List(ctx context.Context) ([]Posting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Posting, 0, len(m.postings))
	for _, p := range m.postings {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}
