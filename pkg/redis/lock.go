package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrLockNotAcquired is returned when a lock cannot be acquired before the wait expires
	ErrLockNotAcquired = errors.New("lock not acquired")
	// ErrLockNotHeld is returned when trying to release a lock not held
	ErrLockNotHeld = errors.New("lock not held")
)

const defaultKeyPrefix = "clover:lock:"

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

type lock struct {
	client *Client
	key    string
	value  string
}

// Locker serialises work on a key across service instances.
type Locker struct {
	client    *Client
	keyPrefix string
	ttl       time.Duration
	wait      time.Duration
}

// NewLocker creates a Locker whose locks expire after ttl; callers wait up to ttl to acquire.
func NewLocker(client *Client, keyPrefix string, ttl time.Duration) *Locker {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &Locker{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		wait:      ttl,
	}
}

func (l *Locker) acquire(ctx context.Context, key string) (*lock, error) {
	lockKey := l.keyPrefix + key
	lockValue := uuid.New().String()

	ok, err := l.client.rdb.SetNX(ctx, lockKey, lockValue, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}

	l.client.logger.WithContext(ctx).Debugf("Acquired lock: %s", lockKey)

	return &lock{client: l.client, key: lockKey, value: lockValue}, nil
}

func (l *Locker) tryAcquire(ctx context.Context, key string) (*lock, error) {
	deadline := time.Now().Add(l.wait)
	backoff := 10 * time.Millisecond

	for time.Now().Before(deadline) {
		held, err := l.acquire(ctx, key)
		if err == nil {
			return held, nil
		}
		if !errors.Is(err, ErrLockNotAcquired) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
			backoff = backoff * 2
			if backoff > 500*time.Millisecond {
				backoff = 500 * time.Millisecond
			}
		}
	}

	return nil, ErrLockNotAcquired
}

func (held *lock) release(ctx context.Context) error {
	result, err := releaseScript.Run(ctx, held.client.rdb, []string{held.key}, held.value).Int64()
	if err != nil {
		return err
	}
	if result == 0 {
		return ErrLockNotHeld
	}

	held.client.logger.WithContext(ctx).Debugf("Released lock: %s", held.key)
	return nil
}

// WithLock runs fn while holding the lock for key.
func (l *Locker) WithLock(ctx context.Context, key string, fn func() error) error {
	held, err := l.tryAcquire(ctx, key)
	if err != nil {
		return err
	}
	defer func() {
		if err := held.release(ctx); err != nil {
			l.client.logger.WithContext(ctx).WithError(err).Warnf("failed to release lock %s", held.key)
		}
	}()

	return fn()
}
