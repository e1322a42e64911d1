package matchcache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/carebridge/care-backend/internal/domain/match"
)

type cachedList struct {
	providers []match.Provider
	expiresAt time.Time
}

// MemoryStore is an in-memory candidate cache for tests/dev.
type MemoryStore struct {
	mu    sync.RWMutex
	lists map[string]cachedList
}

// NewMemoryStore constructs a cache backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{lists: make(map[string]cachedList)}
}

// GetProviders implements match.CandidateCache.
func (s *MemoryStore) GetProviders(_ context.Context, service string) ([]match.Provider, bool, error) {
	key := strings.ToLower(service)
	s.mu.RLock()
	cached, ok := s.lists[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !cached.expiresAt.IsZero() && time.Now().After(cached.expiresAt) {
		s.mu.Lock()
		delete(s.lists, key)
		s.mu.Unlock()
		return nil, false, nil
	}
	return cached.providers, true, nil
}

// SaveProviders implements match.CandidateCache.
func (s *MemoryStore) SaveProviders(_ context.Context, service string, providers []match.Provider, ttl time.Duration) error {
	exp := time.Time{}
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[strings.ToLower(service)] = cachedList{
		providers: append([]match.Provider(nil), providers...),
		expiresAt: exp,
	}
	return nil
}

var _ match.CandidateCache = (*MemoryStore)(nil)
