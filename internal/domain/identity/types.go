package identity

import "context"

// Identity describes an authenticated user. A user has zero or one of each
// of the patient and provider roles; empty means the role is absent.
type Identity struct {
	UserID     string
	Email      string
	PatientID  string
	ProviderID string
}

// Resolver turns a bearer credential into an identity. A missing or
// unresolvable credential yields ok=false rather than an error; resolution
// is read-only and idempotent. The error path is reserved for directory
// backend failures.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (Identity, bool, error)
}

// Roles holds the per-user role ids served by the external directory.
type Roles struct {
	PatientID  string
	ProviderID string
}

// Directory maps a user id to its optional patient/provider roles. An
// unknown user returns zero Roles and no error.
type Directory interface {
	RolesForUser(ctx context.Context, userID string) (Roles, error)
}
