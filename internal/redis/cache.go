package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"carpool/internal/domain"
)

const routeCachePrefix = "cache:route:"

// RouteCacheStore caches routing provider responses in Redis.
type RouteCacheStore struct {
	client *redis.Client
}

// NewRouteCacheStore creates a new RouteCacheStore.
func NewRouteCacheStore(client *redis.Client) *RouteCacheStore {
	return &RouteCacheStore{client: client}
}

// GetRoute retrieves a route from cache. Returns nil, nil on a miss.
func (s *RouteCacheStore) GetRoute(ctx context.Context, key string) (*domain.Route, error) {
	data, err := s.client.Get(ctx, routeCachePrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var route domain.Route
	if err := json.Unmarshal(data, &route); err != nil {
		return nil, err
	}
	return &route, nil
}

// SetRoute stores a route in cache. A zero ttl keeps the entry until evicted.
func (s *RouteCacheStore) SetRoute(ctx context.Context, key string, route *domain.Route, ttl time.Duration) error {
	data, err := json.Marshal(route)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, routeCachePrefix+key, data, ttl).Err()
}

