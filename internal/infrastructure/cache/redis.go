package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bimakw/top-holders-frame/internal/config"
)

// ErrCacheMiss indicates the key was not found in cache
var ErrCacheMiss = errors.New("cache miss")

var cacheLookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by key prefix and result",
	},
	[]string{"prefix", "result"},
)

// Key prefixes
const (
	prefixHolders = "holders"
	prefixProfile = "profile"
	prefixPrice   = "price"
)

// HoldersKey is the cache key of the enriched holder list of a fan token
func HoldersKey(fid int64) string {
	return fmt.Sprintf("%s:%d", prefixHolders, fid)
}

// ProfileKey is the cache key of a social profile
func ProfileKey(fid int64) string {
	return fmt.Sprintf("%s:%d", prefixProfile, fid)
}

// PriceKey is the cache key of a spot price
func PriceKey(assetID, currency string) string {
	return fmt.Sprintf("%s:%s:%s", prefixPrice, assetID, currency)
}

// RedisCache provides caching functionality using Redis
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewRedisCache creates a new Redis cache instance
func NewRedisCache(cfg config.RedisConfig, ttl time.Duration, logger *zap.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Connected to Redis",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
	)

	return NewWithClient(client, ttl, logger), nil
}

// NewWithClient wraps an existing Redis client
func NewWithClient(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Get retrieves a value from cache
func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			cacheLookups.WithLabelValues(keyPrefix(key), "miss").Inc()
			return ErrCacheMiss
		}
		cacheLookups.WithLabelValues(keyPrefix(key), "error").Inc()
		return fmt.Errorf("failed to get from cache: %w", err)
	}

	if err := json.Unmarshal(val, dest); err != nil {
		return fmt.Errorf("failed to unmarshal cached value: %w", err)
	}

	cacheLookups.WithLabelValues(keyPrefix(key), "hit").Inc()
	return nil
}

// SetWithTTL stores a value in cache. A non-positive ttl uses the default.
func (c *RedisCache) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	return nil
}

// HealthCheck checks if Redis is reachable
func (c *RedisCache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Remember returns the cached value of key, or loads, stores and returns it.
// A nil cache always loads. Cache failures are logged and never fail the call.
func Remember[T any](ctx context.Context, c *RedisCache, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	if c != nil {
		var cached T
		err := c.Get(ctx, key, &cached)
		if err == nil {
			c.logger.Debug("Cache hit", zap.String("key", key))
			return cached, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if c != nil {
		if err := c.SetWithTTL(ctx, key, value, ttl); err != nil {
			c.logger.Warn("Failed to cache response", zap.String("key", key), zap.Error(err))
		}
	}

	return value, nil
}

func keyPrefix(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			return key[:i]
		}
	}
	return key
}
