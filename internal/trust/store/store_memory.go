package store

import (
	"context"
	"sync"
	"time"
)

type cachedSnapshot struct {
	snap     Snapshot
	storedAt time.Time
}

// InMemoryStore keeps snapshots in process with TTL expiration.
type InMemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]cachedSnapshot
	ttl       time.Duration
	now       func() time.Time
}

// NewInMemoryStore creates an in-memory snapshot store with the given TTL.
func NewInMemoryStore(ttl time.Duration) *InMemoryStore {
	return &InMemoryStore{
		snapshots: make(map[string]cachedSnapshot),
		ttl:       ttl,
		now:       time.Now,
	}
}

func (s *InMemoryStore) Save(_ context.Context, account string, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[accountKey(account)] = cachedSnapshot{snap: snap, storedAt: s.now()}
	return nil
}

// Find returns ErrNotFound if the snapshot does not exist or has expired.
func (s *InMemoryStore) Find(_ context.Context, account string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cached, ok := s.snapshots[accountKey(account)]; ok {
		if s.now().Sub(cached.storedAt) < s.ttl {
			snap := cached.snap
			return &snap, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) Delete(_ context.Context, account string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, accountKey(account))
	return nil
}
