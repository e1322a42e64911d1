package identityrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carebridge/care-backend/internal/domain/identity"
)

// PostgresRepository implements identity.Directory against the shared
// relational store's patient/provider tables.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// RolesForUser implements identity.Directory. Unknown users resolve to zero
// roles without an error.
func (r *PostgresRepository) RolesForUser(ctx context.Context, userID string) (identity.Roles, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT id FROM patients WHERE user_id = $1 LIMIT 1),
			(SELECT id FROM providers WHERE user_id = $1 LIMIT 1)
	`, userID)

	var patientID, providerID sql.NullString
	if err := row.Scan(&patientID, &providerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return identity.Roles{}, nil
		}
		return identity.Roles{}, err
	}
	return identity.Roles{
		PatientID:  patientID.String,
		ProviderID: providerID.String,
	}, nil
}

var _ identity.Directory = (*PostgresRepository)(nil)
