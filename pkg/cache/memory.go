package cache

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is an in-process Store used when Redis is disabled and in
// tests. Expired entries are dropped lazily on read; PurgeExpired exists for
// a periodic sweep so long-idle keys do not pile up.
type MemoryStore struct {
	entries *xsync.Map[string, memoryEntry]
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: xsync.NewMap[string, memoryEntry](),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	e, ok := s.entries.Load(key)
	if !ok {
		return "", false, nil
	}
	if s.now().After(e.expiresAt) {
		s.entries.Delete(key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	s.entries.Store(key, memoryEntry{value: value, expiresAt: s.now().Add(ttl)})
	return nil
}

// PurgeExpired removes every expired entry and returns how many were dropped.
func (s *MemoryStore) PurgeExpired() int {
	now := s.now()
	dropped := 0
	s.entries.Range(func(key string, e memoryEntry) bool {
		if now.After(e.expiresAt) {
			s.entries.Delete(key)
			dropped++
		}
		return true
	})
	return dropped
}
