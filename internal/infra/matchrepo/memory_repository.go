package matchrepo

import (
	"context"
	"strings"
	"sync"

	"github.com/carebridge/care-backend/internal/domain/match"
)

// MemoryRepository is an in-memory match.CandidateSource used for tests/dev.
type MemoryRepository struct {
	mu        sync.RWMutex
	providers []match.Provider
	requests  []match.CareRequest
}

// NewMemoryRepository constructs a repo backed by memory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// SeedProviders replaces the provider fixture set.
func (r *MemoryRepository) SeedProviders(providers []match.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = append([]match.Provider(nil), providers...)
}

// SeedRequests replaces the care request fixture set.
func (r *MemoryRepository) SeedRequests(requests []match.CareRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append([]match.CareRequest(nil), requests...)
}

// ProvidersByService implements match.CandidateSource.
func (r *MemoryRepository) ProvidersByService(_ context.Context, service string) ([]match.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []match.Provider
	for _, p := range r.providers {
		for _, svc := range p.Services {
			if strings.EqualFold(svc, service) {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

// OpenRequestsByService implements match.CandidateSource.
func (r *MemoryRepository) OpenRequestsByService(_ context.Context, service string) ([]match.CareRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []match.CareRequest
	for _, req := range r.requests {
		if req.Status == match.RequestStatusOpen && strings.EqualFold(req.Service, service) {
			out = append(out, req)
		}
	}
	return out, nil
}

var _ match.CandidateSource = (*MemoryRepository)(nil)
