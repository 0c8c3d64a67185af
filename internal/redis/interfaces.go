package redis

import (
	"context"
	"time"

	"carpool/internal/domain"
)

// RiderLocationStoreInterface defines the interface for rider home indexing.
type RiderLocationStoreInterface interface {
	AddRider(ctx context.Context, workplace, riderID string, home domain.Point) error
	FindNearbyRiders(ctx context.Context, workplace string, center domain.Point, radiusKm float64) ([]RiderLocation, error)
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireRideLock(ctx context.Context, rideID string, ttl time.Duration) (string, bool, error)
	ReleaseRideLock(ctx context.Context, rideID, token string) error
	AcquireRiderLock(ctx context.Context, riderID string, ttl time.Duration) (string, bool, error)
	ReleaseRiderLock(ctx context.Context, riderID, token string) error
}

// RouteCacheInterface defines the interface for route caching.
type RouteCacheInterface interface {
	GetRoute(ctx context.Context, key string) (*domain.Route, error)
	SetRoute(ctx context.Context, key string, route *domain.Route, ttl time.Duration) error
}

// AttemptStoreInterface defines the interface for failed attempt tracking.
type AttemptStoreInterface interface {
	RecordFailure(ctx context.Context, rideID, message string) error
	PopFailures(ctx context.Context, rideID string) ([]string, error)
}

// IdempotencyStoreInterface defines the interface for idempotent response storage.
type IdempotencyStoreInterface interface {
	GetResponse(ctx context.Context, key string) ([]byte, error)
	SetResponse(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// Ensure concrete types implement interfaces.
var (
	_ RiderLocationStoreInterface = (*RiderLocationStore)(nil)
	_ LockStoreInterface          = (*LockStore)(nil)
	_ RouteCacheInterface         = (*RouteCacheStore)(nil)
	_ AttemptStoreInterface       = (*AttemptStore)(nil)
	_ IdempotencyStoreInterface   = (*IdempotencyStore)(nil)
)
