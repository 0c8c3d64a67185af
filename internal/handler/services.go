package handler

import (
	"context"

	"carpool/internal/domain"
	"carpool/internal/service"
)

// DriverService is the driver registry used by the HTTP layer.
type DriverService interface {
	RegisterDriver(ctx context.Context, req service.RegisterDriverRequest) (*service.RegisterDriverResult, error)
	GetDriver(ctx context.Context, driverID string) (*domain.Driver, error)
	ListDrivers(ctx context.Context) ([]*domain.Driver, error)
}

// RiderService is the rider registry used by the HTTP layer.
type RiderService interface {
	RegisterRider(ctx context.Context, req service.RegisterRiderRequest) (*domain.Rider, error)
	GetRider(ctx context.Context, riderID string) (*domain.Rider, error)
	ListRiders(ctx context.Context) ([]*domain.Rider, error)
}

// RideService changes and summarizes a driver's ride.
type RideService interface {
	AddRider(ctx context.Context, driverID, riderID string) (*domain.Ride, error)
	RemoveRider(ctx context.Context, driverID, riderID string) (*domain.Ride, error)
	RideSummary(ctx context.Context, driverID string) (*domain.RideSummary, error)
	RideOverview(ctx context.Context, driverID string) (*domain.RideSummary, error)
}

// MatchingService ranks candidate riders for a driver.
type MatchingService interface {
	RankRiders(ctx context.Context, driverID string) ([]domain.MatchScore, error)
}

var (
	_ DriverService   = (*service.DriverService)(nil)
	_ RiderService    = (*service.RiderService)(nil)
	_ RideService     = (*service.RideService)(nil)
	_ MatchingService = (*service.MatchingService)(nil)
)
