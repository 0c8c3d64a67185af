package postgres

import (
	"context"
	"database/sql"

	"carpool/internal/repository"
)

// Transactor runs units of work inside PostgreSQL transactions.
type Transactor struct {
	db *sql.DB
}

// NewTransactor creates a new Transactor.
func NewTransactor(db *sql.DB) *Transactor {
	return &Transactor{db: db}
}

// WithinTx implements repository.Transactor.
func (t *Transactor) WithinTx(ctx context.Context, fn func(repos repository.Repositories) error) (err error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Create transaction-scoped repositories.
	repos := repository.Repositories{
		Drivers: NewDriverRepositoryWithTx(tx),
		Riders:  NewRiderRepositoryWithTx(tx),
		Rides:   NewRideRepositoryWithTx(tx),
	}

	if err = fn(repos); err != nil {
		return err
	}

	return tx.Commit()
}

// Ensure concrete types implement interfaces.
var (
	_ repository.Transactor       = (*Transactor)(nil)
	_ repository.DriverRepository = (*DriverRepository)(nil)
	_ repository.RiderRepository  = (*RiderRepository)(nil)
	_ repository.RideRepository   = (*RideRepository)(nil)
)
