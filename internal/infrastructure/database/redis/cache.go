package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/patreg-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patreg-insight/pkg/errors"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New(errors.ErrCodeNotFound, "cache miss")

// Cache is the response-cache contract consumed by the HTTP layer. Values
// are JSON-serialized; DeleteByPrefix invalidates whole key families on
// mutation (e.g. every stats response when a filter changes).
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)
}

type redisCache struct {
	rdb        *redis.Client
	logger     logging.Logger
	prefix     string
	defaultTTL time.Duration
}

// CacheOption configures NewCache.
type CacheOption func(*redisCache)

// WithPrefix namespaces every key.
func WithPrefix(prefix string) CacheOption {
	return func(c *redisCache) { c.prefix = prefix }
}

// WithDefaultTTL sets the expiry used when Set is called with a zero ttl.
func WithDefaultTTL(ttl time.Duration) CacheOption {
	return func(c *redisCache) { c.defaultTTL = ttl }
}

// NewCache constructs a redis-backed Cache.
func NewCache(rdb *redis.Client, log logging.Logger, opts ...CacheOption) Cache {
	if log == nil {
		log = logging.NewNop()
	}
	c := &redisCache{
		rdb:        rdb,
		logger:     log.Named("cache"),
		defaultTTL: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *redisCache) fullKey(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.rdb.Get(ctx, c.fullKey(key)).Bytes()
	if err == redis.Nil {
		return ErrCacheMiss
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache get failed")
	}
	if err := json.Unmarshal(data, dest); err != nil {
		// A corrupt entry behaves like a miss; the caller recomputes.
		c.logger.Warn("corrupt cache entry", logging.String("key", key), logging.Err(err))
		return ErrCacheMiss
	}
	return nil
}

func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to serialize cache value")
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if err := c.rdb.Set(ctx, c.fullKey(key), data, ttl).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache set failed")
	}
	return nil
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.fullKey(k)
	}
	if err := c.rdb.Del(ctx, full...).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache delete failed")
	}
	return nil
}

func (c *redisCache) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	var deleted int64
	iter := c.rdb.Scan(ctx, 0, c.fullKey(prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return deleted, errors.Wrap(err, errors.ErrCodeCacheError, "cache delete failed")
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return deleted, errors.Wrap(err, errors.ErrCodeCacheError, "cache scan failed")
	}
	return deleted, nil
}
