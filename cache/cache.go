package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var (
	ErrNotInitialized  = errors.New("Redis client is not initialized")
	ErrLockNotAcquired = errors.New("failed to acquire lock")
	ErrNotLockOwner    = errors.New("lock release failed: not the lock owner")
)

const releaseLockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`

// LockOptions controls how AcquireLock retries.
type LockOptions struct {
	TTL        time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultLockOptions: 3 attempts, 2s apart, 10s expiry.
var DefaultLockOptions = LockOptions{
	TTL:        10 * time.Second,
	MaxRetries: 3,
	RetryDelay: 2 * time.Second,
}

type Cache struct {
	client      *redis.Client
	lockOptions LockOptions
	release     *redis.Script
}

// NewCache creates a new Cache instance, ensuring that the client is not nil.
func NewCache(client *redis.Client) (*Cache, error) {
	if client == nil {
		return nil, ErrNotInitialized
	}
	return &Cache{
		client:      client,
		lockOptions: DefaultLockOptions,
		release:     redis.NewScript(releaseLockScript),
	}, nil
}

// WithLockOptions returns a copy of the cache using opts for locking.
func (c *Cache) WithLockOptions(opts LockOptions) *Cache {
	out := *c
	out.lockOptions = opts
	return &out
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.client.Set(ctx, key, value, expiration).Err()
}

// Get returns "" and no error when the key does not exist.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

// SetJSON stores value marshalled as JSON.
func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return c.client.Set(ctx, key, data, expiration).Err()
}

// GetJSON loads key into dest. It reports false when the key is missing.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

// Incr increments a counter and refreshes its expiry.
func (c *Cache) Incr(ctx context.Context, key string, expiration time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, expiration)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// AddToSet adds members to a set and refreshes its expiry.
func (c *Cache) AddToSet(ctx context.Context, key string, expiration time.Duration, members ...string) error {
	pipe := c.client.TxPipeline()
	for _, m := range members {
		pipe.SAdd(ctx, key, m)
	}
	pipe.Expire(ctx, key, expiration)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *Cache) SetMembers(ctx context.Context, key string) ([]string, error) {
	return c.client.SMembers(ctx, key).Result()
}

func (c *Cache) RemoveFromSet(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return c.client.SRem(ctx, key, args...).Err()
}

// AcquireLock takes a distributed lock on key, retrying per the cache's
// lock options. The returned func releases it.
func (c *Cache) AcquireLock(ctx context.Context, key string) (func(context.Context) error, error) {
	value := uuid.New().String()
	lockKey := "lock:" + key

	for i := 0; i < c.lockOptions.MaxRetries; i++ {
		locked, err := c.client.SetNX(ctx, lockKey, value, c.lockOptions.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if locked {
			return func(ctx context.Context) error {
				return c.releaseLock(ctx, lockKey, value)
			}, nil
		}
		if i < c.lockOptions.MaxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.lockOptions.RetryDelay):
			}
		}
	}
	return nil, ErrLockNotAcquired
}

// releaseLock releases a distributed lock using Redis with Lua scripting
func (c *Cache) releaseLock(ctx context.Context, key, value string) error {
	result, err := c.release.Run(ctx, c.client, []string{key}, value).Int64()
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if result == 0 {
		return ErrNotLockOwner
	}
	return nil
}
