package postgres

import (
	"context"
	"database/sql"
	"errors"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

const riderColumns = `id, name, home_lat, home_lng, workplace_name, workplace_lat, workplace_lng, ride_id, direct_duration_seconds, direct_distance_km, created_at`

// RiderRepository is a PostgreSQL implementation of repository.RiderRepository.
type RiderRepository struct {
	q Querier
}

// NewRiderRepository creates a new PostgreSQL rider repository.
func NewRiderRepository(db *sql.DB) *RiderRepository {
	return &RiderRepository{q: db}
}

// NewRiderRepositoryWithTx creates a rider repository using a transaction.
func NewRiderRepositoryWithTx(tx *sql.Tx) *RiderRepository {
	return &RiderRepository{q: tx}
}

// Create adds a new rider.
func (r *RiderRepository) Create(ctx context.Context, rider *domain.Rider) error {
	query := `INSERT INTO riders (` + riderColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.ExecContext(ctx, query,
		rider.ID,
		rider.Name,
		rider.Home.Lat,
		rider.Home.Lng,
		rider.Workplace.Name,
		rider.Workplace.Location.Lat,
		rider.Workplace.Location.Lng,
		toNullString(rider.RideID),
		toSeconds(rider.DirectDuration),
		rider.DirectDistanceKm,
		rider.CreatedAt,
	)
	return err
}

// GetByID retrieves a rider by ID.
func (r *RiderRepository) GetByID(ctx context.Context, id string) (*domain.Rider, error) {
	query := `SELECT ` + riderColumns + ` FROM riders WHERE id = $1`

	rider, err := scanRider(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return rider, nil
}

// GetAll retrieves all riders.
func (r *RiderRepository) GetAll(ctx context.Context) ([]*domain.Rider, error) {
	query := `SELECT ` + riderColumns + ` FROM riders ORDER BY name, id`
	return r.query(ctx, query)
}

// GetByWorkplace retrieves the riders commuting to a workplace.
func (r *RiderRepository) GetByWorkplace(ctx context.Context, workplace string) ([]*domain.Rider, error) {
	query := `SELECT ` + riderColumns + ` FROM riders WHERE workplace_name = $1 ORDER BY name, id`
	return r.query(ctx, query, workplace)
}

// AssignRide sets the rider's ride unless the rider already belongs to another one.
func (r *RiderRepository) AssignRide(ctx context.Context, riderID, rideID string) error {
	query := `
		UPDATE riders SET ride_id = $1
		WHERE id = $2 AND (ride_id IS NULL OR ride_id = $1)`

	result, err := r.q.ExecContext(ctx, query, rideID, riderID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return r.missingOrConflict(ctx, riderID)
	}

	return nil
}

// UnassignRide clears the rider's ride if it is still rideID.
func (r *RiderRepository) UnassignRide(ctx context.Context, riderID, rideID string) error {
	query := `UPDATE riders SET ride_id = NULL WHERE id = $1 AND ride_id = $2`

	result, err := r.q.ExecContext(ctx, query, riderID, rideID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return r.missingOrConflict(ctx, riderID)
	}

	return nil
}

// missingOrConflict tells apart a missing rider from one whose ride changed.
func (r *RiderRepository) missingOrConflict(ctx context.Context, riderID string) error {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM riders WHERE id = $1)`
	if err := r.q.QueryRowContext(ctx, query, riderID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

func (r *RiderRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Rider, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var riders []*domain.Rider
	for rows.Next() {
		rider, err := scanRider(rows)
		if err != nil {
			return nil, err
		}
		riders = append(riders, rider)
	}
	return riders, rows.Err()
}

func scanRider(s rowScanner) (*domain.Rider, error) {
	var rider domain.Rider
	var rideID sql.NullString
	var directSeconds float64
	if err := s.Scan(
		&rider.ID,
		&rider.Name,
		&rider.Home.Lat,
		&rider.Home.Lng,
		&rider.Workplace.Name,
		&rider.Workplace.Location.Lat,
		&rider.Workplace.Location.Lng,
		&rideID,
		&directSeconds,
		&rider.DirectDistanceKm,
		&rider.CreatedAt,
	); err != nil {
		return nil, err
	}
	if rideID.Valid {
		rider.RideID = rideID.String
	}
	rider.DirectDuration = fromSeconds(directSeconds)
	return &rider, nil
}
