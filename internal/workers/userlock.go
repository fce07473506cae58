package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultLockTTL bounds how long a crashed sync run can hold a user
// lock before it expires on its own.
const DefaultLockTTL = 5 * time.Minute

// UserLocker serializes pipeline runs per user so two workers never
// sync the same mailbox concurrently.
type UserLocker interface {
	// Acquire takes the user's lock. Returns false when another run
	// already holds it.
	Acquire(ctx context.Context, userID uuid.UUID) (bool, error)

	// Release frees the user's lock.
	Release(ctx context.Context, userID uuid.UUID) error
}

// RedisUserLocker implements UserLocker with a Redis SETNX lock and TTL
type RedisUserLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisUserLocker creates a Redis-backed user locker. A zero ttl
// selects DefaultLockTTL.
func NewRedisUserLocker(client *redis.Client, ttl time.Duration) *RedisUserLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RedisUserLocker{client: client, ttl: ttl}
}

func lockKey(userID uuid.UUID) string {
	return "thinktasker:sync_lock:" + userID.String()
}

// Acquire takes the user's lock via SETNX
func (l *RedisUserLocker) Acquire(ctx context.Context, userID uuid.UUID) (bool, error) {
	ok, err := l.client.SetNX(ctx, lockKey(userID), 1, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire user lock: %w", err)
	}
	return ok, nil
}

// Release frees the user's lock
func (l *RedisUserLocker) Release(ctx context.Context, userID uuid.UUID) error {
	if err := l.client.Del(ctx, lockKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to release user lock: %w", err)
	}
	return nil
}

// Ensure the concrete locker implements the interface
var _ UserLocker = (*RedisUserLocker)(nil)
