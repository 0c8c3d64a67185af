package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it still carries the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireRideLock attempts to acquire the lock guarding changes to a ride.
// It returns the holder token and true when acquired, false if already held.
func (s *LockStore) AcquireRideLock(ctx context.Context, rideID string, ttl time.Duration) (string, bool, error) {
	return s.acquire(ctx, rideLockKey(rideID), ttl)
}

// ReleaseRideLock releases the ride lock if it is still held with token.
func (s *LockStore) ReleaseRideLock(ctx context.Context, rideID, token string) error {
	return s.release(ctx, rideLockKey(rideID), token)
}

// AcquireRiderLock attempts to acquire the lock guarding a rider's assignment.
func (s *LockStore) AcquireRiderLock(ctx context.Context, riderID string, ttl time.Duration) (string, bool, error) {
	return s.acquire(ctx, riderLockKey(riderID), ttl)
}

// ReleaseRiderLock releases the rider lock if it is still held with token.
func (s *LockStore) ReleaseRiderLock(ctx context.Context, riderID, token string) error {
	return s.release(ctx, riderLockKey(riderID), token)
}

func (s *LockStore) acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()

	ok, err := s.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}

	return token, true, nil
}

func (s *LockStore) release(ctx context.Context, key, token string) error {
	return releaseScript.Run(ctx, s.client, []string{key}, token).Err()
}

func rideLockKey(rideID string) string {
	return fmt.Sprintf("lock:ride:%s", rideID)
}

func riderLockKey(riderID string) string {
	return fmt.Sprintf("lock:rider:%s", riderID)
}
