package cache

import (
	"context"
	"sync"

	"github.com/diegoaa53-dot/bsale-api/internal/domain/sales"
)

// InMemorySnapshotStore implements SnapshotStore using an in-memory map
// This is suitable for tests and for servers that do not need snapshots to
// survive a restart
type InMemorySnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

// NewInMemorySnapshotStore creates an empty store
func NewInMemorySnapshotStore() *InMemorySnapshotStore {
	return &InMemorySnapshotStore{
		snapshots: make(map[string][]byte),
	}
}

// Load returns a copy of the snapshot for key
func (s *InMemorySnapshotStore) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.snapshots[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

// Save stores a copy of data under key
func (s *InMemorySnapshotStore) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[key] = append([]byte(nil), data...)
	return nil
}

// Delete removes the snapshot for key
func (s *InMemorySnapshotStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.snapshots, key)
	return nil
}

// Size returns the number of stored snapshots (for testing/monitoring)
func (s *InMemorySnapshotStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}

// Ensure InMemorySnapshotStore implements SnapshotStore
var _ sales.SnapshotStore = (*InMemorySnapshotStore)(nil)
