// Package geocache remembers which country a client address was last
// located in, so the phone form can pre-select it. Entries are
// last-write-wins; callers decide staleness with Entry.Fresh.
package geocache

import (
	"context"
	"sync"
	"time"
)

// Entry is a cached country for one client key.
type Entry struct {
	Country  string    `json:"country"`
	StoredAt time.Time `json:"stored_at"`
}

// Fresh reports whether the entry is younger than maxAge at now.
func (e Entry) Fresh(maxAge time.Duration, now time.Time) bool {
	if e.Country == "" || e.StoredAt.IsZero() {
		return false
	}
	return now.Sub(e.StoredAt) < maxAge
}

// Store persists entries keyed by client address.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, key string, e Entry) error
}

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = e
	return nil
}
