package repository

import "context"

// Repositories groups repositories that share one unit of work.
type Repositories struct {
	Drivers DriverRepository
	Riders  RiderRepository
	Rides   RideRepository
}

// Transactor runs fn with repositories bound to a single transaction.
// The transaction is committed when fn returns nil and rolled back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error
}
