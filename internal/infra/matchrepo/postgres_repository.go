package matchrepo

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carebridge/care-backend/internal/domain/match"
)

// PostgresRepository implements match.CandidateSource using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// ProvidersByService fetches every provider offering the service. Geometry is
// returned raw; the matching engine owns distance and radius filtering.
func (r *PostgresRepository) ProvidersByService(ctx context.Context, service string) ([]match.Provider, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, role, services, specialties, rating, visit_count, price, next_available, lat, lng
		FROM providers
		WHERE $1 = ANY(services)
	`, service)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var providers []match.Provider
	for rows.Next() {
		var (
			p             match.Provider
			nextAvailable sql.NullTime
		)
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Role, &p.Services, &p.Specialties,
			&p.Rating, &p.VisitCount, &p.Price, &nextAvailable,
			&p.Location.Lat, &p.Location.Lng,
		); err != nil {
			return nil, err
		}
		if nextAvailable.Valid {
			ts := nextAvailable.Time
			p.NextAvailable = &ts
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}

// OpenRequestsByService fetches open care requests for the service.
func (r *PostgresRepository) OpenRequestsByService(ctx context.Context, service string) ([]match.CareRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, COALESCE(patient_id, ''), service, COALESCE(description, ''), requested_at, status, lat, lng
		FROM care_requests
		WHERE service = $1 AND status = $2
	`, service, match.RequestStatusOpen)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []match.CareRequest
	for rows.Next() {
		var req match.CareRequest
		if err := rows.Scan(
			&req.ID, &req.PatientID, &req.Service, &req.Description,
			&req.RequestedAt, &req.Status, &req.Location.Lat, &req.Location.Lng,
		); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

var _ match.CandidateSource = (*PostgresRepository)(nil)
