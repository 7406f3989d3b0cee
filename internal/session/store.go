package session

import (
	"context"
	"sync"
	"time"
)

// Store keeps sessions between requests.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, sess *Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

type memoryEntry struct {
	sess      Session
	expiresAt time.Time
}

// MemoryStore is an in-process Store. Sessions are lost on restart.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns a copy of the stored session. Expired entries are evicted.
func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !entry.expiresAt.After(m.now()) {
		delete(m.entries, id)
		return nil, ErrNotFound
	}

	sess := entry.sess
	return &sess, nil
}

func (m *MemoryStore) Save(_ context.Context, sess *Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[sess.ID] = memoryEntry{sess: *sess, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, id)
	return nil
}

func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}
