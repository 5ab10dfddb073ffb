// Package cache memoizes classification results in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/referer-classifier/internal/domain"
	"github.com/jonesrussell/referer-classifier/internal/logger"
)

// ErrEmptyAddress is returned when the Redis address is not configured.
var ErrEmptyAddress = errors.New("redis address is required")

// connectionTimeout is the timeout for verifying the Redis connection.
const connectionTimeout = 5 * time.Second

// keyPrefix namespaces classification cache keys.
const keyPrefix = "referer:classification:"

// Config holds Redis connection configuration.
type Config struct {
	Address  string
	Password string
	DB       int
}

// NewClient creates a Redis client and verifies the connection.
func NewClient(cfg Config) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// Cache stores classification results with a TTL. All failures degrade to a
// cache miss; the caller classifies directly and the request never fails on
// the cache.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// New creates a Cache over an established Redis client.
func New(client *redis.Client, ttl time.Duration, log logger.Logger) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: log,
	}
}

// Key builds the cache key for a referer and page host pair.
func Key(refererURL, pageHost string) string {
	return keyPrefix + pageHost + "|" + refererURL
}

// Get returns the cached result for key, or false on any miss or failure.
func (c *Cache) Get(ctx context.Context, key string) (*domain.Result, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Classification cache read failed", logger.Error(err))
		}
		return nil, false
	}

	var result domain.Result
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Warn("Discarding undecodable cache entry",
			logger.String("key", key),
			logger.Error(err),
		)
		return nil, false
	}

	return &result, true
}

// Set stores a result under key with the configured TTL. Failures are logged
// and otherwise ignored.
func (c *Cache) Set(ctx context.Context, key string, result *domain.Result) {
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn("Failed to encode classification for cache", logger.Error(err))
		return
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Classification cache write failed", logger.Error(err))
	}
}
