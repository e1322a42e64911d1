package identityrepo

import (
	"context"
	"sync"

	"github.com/carebridge/care-backend/internal/domain/identity"
)

// MemoryRepository is an in-memory identity.Directory used for tests/dev.
type MemoryRepository struct {
	mu    sync.RWMutex
	roles map[string]identity.Roles
}

// NewMemoryRepository constructs a directory backed by memory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{roles: make(map[string]identity.Roles)}
}

// SetRoles registers the roles for a user id.
func (r *MemoryRepository) SetRoles(userID string, roles identity.Roles) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles[userID] = roles
}

// RolesForUser implements identity.Directory.
func (r *MemoryRepository) RolesForUser(_ context.Context, userID string) (identity.Roles, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.roles[userID], nil
}

var _ identity.Directory = (*MemoryRepository)(nil)
