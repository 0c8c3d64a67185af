package repository

import (
	"context"

	"carpool/internal/domain"
)

// RiderRepository defines the persistence operations for riders.
type RiderRepository interface {
	// Create adds a new rider.
	Create(ctx context.Context, rider *domain.Rider) error

	// GetByID retrieves a rider by ID.
	GetByID(ctx context.Context, id string) (*domain.Rider, error)

	// GetAll retrieves all riders.
	GetAll(ctx context.Context) ([]*domain.Rider, error)

	// GetByWorkplace retrieves the riders commuting to a workplace.
	GetByWorkplace(ctx context.Context, workplace string) ([]*domain.Rider, error)

	// AssignRide sets the rider's ride. It returns ErrConflict when the rider
	// already belongs to a different ride.
	AssignRide(ctx context.Context, riderID, rideID string) error

	// UnassignRide clears the rider's ride if it is still rideID.
	UnassignRide(ctx context.Context, riderID, rideID string) error
}
