package postgres

import (
	"context"
	"database/sql"
	"errors"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

const driverColumns = `id, name, home_lat, home_lng, workplace_name, workplace_lat, workplace_lng, max_detour_seconds, max_riders, created_at`

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// NewDriverRepositoryWithTx creates a driver repository using a transaction.
func NewDriverRepositoryWithTx(tx *sql.Tx) *DriverRepository {
	return &DriverRepository{q: tx}
}

// Create adds a new driver.
func (r *DriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	query := `INSERT INTO drivers (` + driverColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.ExecContext(ctx, query,
		driver.ID,
		driver.Name,
		driver.Home.Lat,
		driver.Home.Lng,
		driver.Workplace.Name,
		driver.Workplace.Location.Lat,
		driver.Workplace.Location.Lng,
		toSeconds(driver.MaxDetour),
		driver.MaxRiders,
		driver.CreatedAt,
	)
	return err
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1`

	driver, err := scanDriver(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return driver, nil
}

// GetAll retrieves all drivers.
func (r *DriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers ORDER BY name, id`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		driver, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, driver)
	}
	return drivers, rows.Err()
}

func scanDriver(s rowScanner) (*domain.Driver, error) {
	var driver domain.Driver
	var maxDetourSeconds float64
	if err := s.Scan(
		&driver.ID,
		&driver.Name,
		&driver.Home.Lat,
		&driver.Home.Lng,
		&driver.Workplace.Name,
		&driver.Workplace.Location.Lat,
		&driver.Workplace.Location.Lng,
		&maxDetourSeconds,
		&driver.MaxRiders,
		&driver.CreatedAt,
	); err != nil {
		return nil, err
	}
	driver.MaxDetour = fromSeconds(maxDetourSeconds)
	return &driver, nil
}
