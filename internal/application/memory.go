package application

import (
	"context"
	"sort"
	"sync"

	"jobboard/internal/apperr"
)

// MemoryStore is a mutex-guarded application store for dev and testing.
type MemoryStore struct {
	mu      sync.RWMutex
	apps    map[string]Application
	nextSeq int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{apps: make(map[string]Application)}
}

// Insert stores an application and assigns its submission sequence.
func (m *MemoryStore) Insert(ctx context.Context, a Application) (Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSeq++
	a.Seq = m.nextSeq
	m.apps[a.ID] = a
	return a, nil
}

// ListByPosting returns a posting's applications in submission order.
func (m *MemoryStore) ListByPosting(ctx context.Context, postingID string) ([]Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Application
	for _, a := range m.apps {
		if a.PostingID == postingID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

// GetByDocumentRef finds the application holding a document ref.
func (m *MemoryStore) GetByDocumentRef(ctx context.Context, ref string) (Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.apps {
		if a.DocumentRef == ref {
			return a, nil
		}
	}
	return Application{}, apperr.ErrNotFound
}

// DeleteByPosting removes a posting's applications and returns their
// document refs.
func (m *MemoryStore) DeleteByPosting(ctx context.Context, postingID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var refs []string
	for id, a := range m.apps {
		if a.PostingID == postingID {
			refs = append(refs, a.DocumentRef)
			delete(m.apps, id)
		}
	}
	return refs, nil
}
