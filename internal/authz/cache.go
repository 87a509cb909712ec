package authz

import (
	"context"
	"sync"
	"time"
)

// Store is the cache contract the resolver depends on. Entries self-expire;
// concurrent writes for the same key are last-write-wins, which is
// acceptable because the cached value is a pure function of database state.
type Store interface {
	Get(ctx context.Context, key string) (*AuthData, bool)
	Set(ctx context.Context, key string, data *AuthData, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

type memoryEntry struct {
	data      *AuthData
	expiresAt time.Time
}

// MemoryStore is the in-process default: a TTL map with a passive expiry
// check on read and an eviction ticker sweeping stale entries.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

type MemoryStoreOption func(*MemoryStore)

// WithClock substitutes the time source, so tests can expire entries
// deterministically.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

func NewMemoryStore(sweepInterval time.Duration, opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if sweepInterval > 0 {
		go s.sweep(sweepInterval)
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) (*AuthData, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if s.now().After(entry.expiresAt) {
		s.Delete(context.Background(), key)
		return nil, false
	}
	return entry.data, true
}

func (s *MemoryStore) Set(_ context.Context, key string, data *AuthData, ttl time.Duration) {
	s.mu.Lock()
	s.entries[key] = memoryEntry{
		data:      data,
		expiresAt: s.now().Add(ttl),
	}
	s.mu.Unlock()
}

func (s *MemoryStore) Delete(_ context.Context, key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Close stops the eviction ticker.
func (s *MemoryStore) Close() {
	s.once.Do(func() {
		close(s.done)
	})
}

func (s *MemoryStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			cutoff := s.now()
			s.mu.Lock()
			for key, entry := range s.entries {
				if cutoff.After(entry.expiresAt) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}
