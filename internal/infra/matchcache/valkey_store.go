package matchcache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/carebridge/care-backend/internal/domain/match"
)

// ValkeyStore caches per-service provider candidate lists in a
// Valkey-compatible database.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new candidate cache backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "match"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

// GetProviders implements match.CandidateCache.
func (s *ValkeyStore) GetProviders(ctx context.Context, service string) ([]match.Provider, bool, error) {
	cmd := s.client.B().Get().Key(s.key(service)).Build()
	payload, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var providers []match.Provider
	if err := json.Unmarshal([]byte(payload), &providers); err != nil {
		return nil, false, err
	}
	return providers, true, nil
}

// SaveProviders implements match.CandidateCache.
func (s *ValkeyStore) SaveProviders(ctx context.Context, service string, providers []match.Provider, ttl time.Duration) error {
	payload, err := json.Marshal(providers)
	if err != nil {
		return err
	}
	builder := s.client.B().Set().Key(s.key(service)).Value(string(payload))
	if ttl > 0 {
		return s.client.Do(ctx, builder.Px(ttl).Build()).Error()
	}
	return s.client.Do(ctx, builder.Build()).Error()
}

func (s *ValkeyStore) key(service string) string {
	return s.prefix + ":providers:" + strings.ToLower(service)
}

var _ match.CandidateCache = (*ValkeyStore)(nil)
