package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	failedAttemptsPrefix = "ride:failed:"
	failedAttemptsTTL    = 24 * time.Hour
	maxFailedAttempts    = 50
)

// AttemptStore keeps the rejected add-rider attempts of a ride until they are read.
type AttemptStore struct {
	client *redis.Client
}

// NewAttemptStore creates a new AttemptStore.
func NewAttemptStore(client *redis.Client) *AttemptStore {
	return &AttemptStore{client: client}
}

// RecordFailure appends a failure message for the ride.
func (s *AttemptStore) RecordFailure(ctx context.Context, rideID, message string) error {
	key := failedAttemptsPrefix + rideID

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, message)
	pipe.LTrim(ctx, key, -maxFailedAttempts, -1)
	pipe.Expire(ctx, key, failedAttemptsTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// PopFailures returns and clears the recorded failures of the ride.
func (s *AttemptStore) PopFailures(ctx context.Context, rideID string) ([]string, error) {
	key := failedAttemptsPrefix + rideID

	pipe := s.client.TxPipeline()
	lrange := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return lrange.Val(), nil
}
