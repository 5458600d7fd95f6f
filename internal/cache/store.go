package cache

import (
	"context"
	"strings"
	"time"

	"github.com/patrickwarner/adreward/internal/db"
	"github.com/patrickwarner/adreward/internal/observability"
	"go.uber.org/zap"
)

// InvalidationChannel is the Redis channel that carries invalidated keys to
// other instances and to presentation clients.
const InvalidationChannel = "adreward:invalidations"

// Store is a read-through cache for ledger aggregates.
type Store interface {
	Get(ctx context.Context, key Key, dst any) (bool, error)
	Set(ctx context.Context, key Key, v any) error
	Invalidator
}

// Invalidator drops cached aggregates. One call is one refresh trigger.
type Invalidator interface {
	Invalidate(ctx context.Context, keys ...Key) error
}

// RedisCache stores aggregates as JSON in Redis under a common prefix.
type RedisCache struct {
	store   *db.RedisStore
	prefix  string
	ttl     time.Duration
	metrics observability.MetricsRegistry
	logger  *zap.Logger
}

// NewRedisCache returns a cache over store. A nil metrics registry or logger
// disables them.
func NewRedisCache(store *db.RedisStore, ttl time.Duration, metrics observability.MetricsRegistry, logger *zap.Logger) *RedisCache {
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{store: store, prefix: "adreward:", ttl: ttl, metrics: metrics, logger: logger}
}

func (c *RedisCache) redisKey(k Key) string { return c.prefix + string(k) }

// Get loads key into dst, recording a hit or miss.
func (c *RedisCache) Get(ctx context.Context, key Key, dst any) (bool, error) {
	found, err := c.store.GetJSON(ctx, c.redisKey(key), dst)
	switch {
	case err != nil:
		c.metrics.IncrementCacheLookups(key.Kind(), "error")
		return false, err
	case found:
		c.metrics.IncrementCacheLookups(key.Kind(), "hit")
	default:
		c.metrics.IncrementCacheLookups(key.Kind(), "miss")
	}
	return found, nil
}

// Set stores v under key with the cache TTL.
func (c *RedisCache) Set(ctx context.Context, key Key, v any) error {
	return c.store.SetJSON(ctx, c.redisKey(key), v, c.ttl)
}

// Invalidate deletes keys in one round trip and announces them on
// InvalidationChannel. A publish failure is logged, not returned; the keys
// are already gone.
func (c *RedisCache) Invalidate(ctx context.Context, keys ...Key) error {
	if len(keys) == 0 {
		return nil
	}
	rkeys := make([]string, len(keys))
	for i, k := range keys {
		rkeys[i] = c.redisKey(k)
	}
	if _, err := c.store.Delete(ctx, rkeys...); err != nil {
		return err
	}
	for _, k := range keys {
		c.metrics.IncrementCacheInvalidations(k.Kind())
	}
	if err := c.store.Publish(ctx, InvalidationChannel, strings.Join(Strings(keys), ",")); err != nil {
		c.logger.Warn("publish invalidation", zap.Error(err))
	}
	return nil
}
