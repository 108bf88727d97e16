package cache

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// MemoryStore keeps entries in process memory. It has no native expiry,
// so stale entries stay until overwritten or removed.
type MemoryStore struct {
	entries *xsync.MapOf[string, []byte]
}

// NewMemoryStore creates an empty in-process store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: xsync.NewMapOf[string, []byte]()}
}

// Name implements Store
func (s *MemoryStore) Name() string { return string(StoreMemory) }

// Open implements Store
func (s *MemoryStore) Open(ctx context.Context) error { return nil }

// Close implements Store
func (s *MemoryStore) Close() error { return nil }

// Prepare implements Store
func (s *MemoryStore) Prepare(ctx context.Context) error { return nil }

// Get implements Store
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, ok := s.entries.Load(key)
	return value, ok, nil
}

// Set implements Store; ttl is ignored
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	s.entries.Store(key, stored)
	return nil
}

// Delete implements Store
func (s *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		s.entries.Delete(key)
	}
	return nil
}

// Flush implements Store
func (s *MemoryStore) Flush(ctx context.Context) error {
	s.entries.Clear()
	return nil
}

// Len returns the number of stored entries
func (s *MemoryStore) Len() int {
	return s.entries.Size()
}
