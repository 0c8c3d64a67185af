package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"carpool/internal/domain"
)

const riderLocationPrefix = "riders:homes:"

// RiderLocation is a rider's home position as stored in the geo index.
type RiderLocation struct {
	RiderID string
	Home    domain.Point
}

// RiderLocationStore indexes rider homes per workplace in Redis.
type RiderLocationStore struct {
	client *redis.Client
}

// NewRiderLocationStore creates a new RiderLocationStore.
func NewRiderLocationStore(client *redis.Client) *RiderLocationStore {
	return &RiderLocationStore{client: client}
}

// AddRider stores a rider's home using GEOADD.
func (s *RiderLocationStore) AddRider(ctx context.Context, workplace, riderID string, home domain.Point) error {
	return s.client.GeoAdd(ctx, riderLocationPrefix+workplace, &redis.GeoLocation{
		Name:      riderID,
		Longitude: home.Lng,
		Latitude:  home.Lat,
	}).Err()
}

// FindNearbyRiders returns riders of a workplace living within radiusKm of center, nearest first.
func (s *RiderLocationStore) FindNearbyRiders(ctx context.Context, workplace string, center domain.Point, radiusKm float64) ([]RiderLocation, error) {
	results, err := s.client.GeoRadius(ctx, riderLocationPrefix+workplace, center.Lng, center.Lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	locations := make([]RiderLocation, 0, len(results))
	for _, r := range results {
		locations = append(locations, RiderLocation{
			RiderID: r.Name,
			Home:    domain.Point{Lat: r.Latitude, Lng: r.Longitude},
		})
	}

	return locations, nil
}
