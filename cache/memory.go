package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryEntry struct {
	value  []byte
	stored time.Time
}

// MemoryStore is a thread-safe in-process Store. Nothing survives a restart;
// it backs tests and the "memory" store option.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
	ttl  time.Duration
	now  func() time.Time
}

// NewMemoryStore creates a MemoryStore. A ttl <= 0 keeps values forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl < 0 {
		ttl = 0
	}
	return &MemoryStore{
		data: make(map[string]memoryEntry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	entry, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	if s.expired(entry) {
		s.mu.Lock()
		delete(s.data, key)
		s.mu.Unlock()
		return nil, ErrNotFound
	}

	return append([]byte(nil), entry.value...), nil
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = memoryEntry{
		value:  append([]byte(nil), value...),
		stored: s.now(),
	}
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Keys returns the live keys in sorted order.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k, entry := range s.data {
		if !s.expired(entry) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of stored keys, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Clear removes every key.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]memoryEntry)
}

// Close implements io.Closer so every store can be closed the same way.
func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) expired(entry memoryEntry) bool {
	return s.ttl > 0 && s.now().Sub(entry.stored) > s.ttl
}

var _ Store = (*MemoryStore)(nil)
