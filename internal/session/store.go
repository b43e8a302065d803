package session

import (
	"context"
	"sync"
	"time"

	"github.com/sakif/booker/internal/model"
)

// Store maps session ids to the user bound to them.
//
// Get reports ok=false for an unknown or expired id; err is reserved for
// infrastructure failures.
type Store interface {
	Get(ctx context.Context, id string) (user *model.SessionUser, ok bool, err error)
	Set(ctx context.Context, id string, user *model.SessionUser, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	user      model.SessionUser
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Sessions are lost on restart.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore returns an empty MemoryStore using the wall clock.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns a copy of the user stored under id. Expired entries are
// removed as they are found.
func (m *MemoryStore) Get(_ context.Context, id string) (*model.SessionUser, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, id)
		return nil, false, nil
	}
	u := e.user
	return &u, true, nil
}

// Set stores a copy of user under id until ttl elapses.
func (m *MemoryStore) Set(_ context.Context, id string, user *model.SessionUser, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[id] = memoryEntry{user: *user, expiresAt: m.now().Add(ttl)}
	return nil
}

// Delete forgets id. Unknown ids are not an error.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, id)
	return nil
}

// Len returns the number of entries, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
