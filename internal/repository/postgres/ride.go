package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

const rideColumns = `id, driver_id, rider_ids, route, matched_geometry, direct_duration_seconds, direct_distance_km, created_at, updated_at`

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `INSERT INTO rides (` + rideColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	route, matched, err := encodeRide(ride)
	if err != nil {
		return err
	}

	_, err = r.q.ExecContext(ctx, query,
		ride.ID,
		ride.DriverID,
		pq.Array(riderIDs(ride)),
		route,
		matched,
		toSeconds(ride.DirectDuration),
		ride.DirectDistanceKm,
		ride.CreatedAt,
		ride.UpdatedAt,
	)
	return err
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`
	return r.get(ctx, query, id)
}

// GetByDriverID retrieves the ride of a driver.
func (r *RideRepository) GetByDriverID(ctx context.Context, driverID string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE driver_id = $1`
	return r.get(ctx, query, driverID)
}

// Update updates an existing ride.
func (r *RideRepository) Update(ctx context.Context, ride *domain.Ride) error {
	query := `
		UPDATE rides
		SET rider_ids = $1, route = $2, matched_geometry = $3, direct_duration_seconds = $4, direct_distance_km = $5, updated_at = $6
		WHERE id = $7
	`

	route, matched, err := encodeRide(ride)
	if err != nil {
		return err
	}

	result, err := r.q.ExecContext(ctx, query,
		pq.Array(riderIDs(ride)),
		route,
		matched,
		toSeconds(ride.DirectDuration),
		ride.DirectDistanceKm,
		ride.UpdatedAt,
		ride.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *RideRepository) get(ctx context.Context, query string, arg string) (*domain.Ride, error) {
	var ride domain.Ride
	var ids pq.StringArray
	var route []byte
	var matched []byte
	var directSeconds float64

	err := r.q.QueryRowContext(ctx, query, arg).Scan(
		&ride.ID,
		&ride.DriverID,
		&ids,
		&route,
		&matched,
		&directSeconds,
		&ride.DirectDistanceKm,
		&ride.CreatedAt,
		&ride.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	ride.RiderIDs = []string(ids)
	ride.DirectDuration = fromSeconds(directSeconds)
	if err := json.Unmarshal(route, &ride.Route); err != nil {
		return nil, fmt.Errorf("decode ride route: %w", err)
	}
	if len(matched) > 0 {
		if err := json.Unmarshal(matched, &ride.MatchedGeometry); err != nil {
			return nil, fmt.Errorf("decode ride geometry: %w", err)
		}
	}

	return &ride, nil
}

// encodeRide serializes the route and matched geometry as JSONB values.
func encodeRide(ride *domain.Ride) (string, sql.NullString, error) {
	route, err := json.Marshal(ride.Route)
	if err != nil {
		return "", sql.NullString{}, fmt.Errorf("encode ride route: %w", err)
	}

	var matched sql.NullString
	if len(ride.MatchedGeometry) > 0 {
		raw, err := json.Marshal(ride.MatchedGeometry)
		if err != nil {
			return "", sql.NullString{}, fmt.Errorf("encode ride geometry: %w", err)
		}
		matched = sql.NullString{String: string(raw), Valid: true}
	}
	return string(route), matched, nil
}

func riderIDs(ride *domain.Ride) []string {
	if ride.RiderIDs == nil {
		return []string{}
	}
	return ride.RiderIDs
}
