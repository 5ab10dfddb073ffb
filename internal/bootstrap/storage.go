package bootstrap

import (
	"context"
	"fmt"

	"github.com/jonesrussell/referer-classifier/internal/cache"
	"github.com/jonesrussell/referer-classifier/internal/config"
	"github.com/jonesrussell/referer-classifier/internal/logger"
	"github.com/jonesrussell/referer-classifier/internal/storage"
)

// SetupCache builds the Redis classification cache. It returns nil when the
// cache is disabled.
func SetupCache(cfg *config.Config, log logger.Logger) (*cache.Cache, error) {
	if !cfg.Redis.Enabled {
		log.Info("Classification cache disabled, running without Redis")
		return nil, nil
	}

	client, err := cache.NewClient(cache.Config{
		Address:  cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	log.Info("Connected to Redis",
		logger.String("address", cfg.Redis.Address),
		logger.Duration("cache_ttl", cfg.Redis.CacheTTL),
	)

	return cache.New(client, cfg.Redis.CacheTTL, log), nil
}

// SetupEventPipeline builds the event buffer and starts the batch store.
// It returns (nil, nil) when inserter is nil.
func SetupEventPipeline(
	ctx context.Context,
	cfg *config.Config,
	inserter storage.EventInserter,
	log logger.Logger,
) (*storage.Buffer, *storage.Store) {
	if inserter == nil {
		return nil, nil
	}

	buffer := storage.NewBuffer(cfg.Service.BufferSize)
	store := storage.NewStore(
		inserter,
		buffer,
		log,
		cfg.Service.FlushInterval,
		cfg.Service.FlushThreshold,
	)
	store.Run(ctx)

	log.Info("Event pipeline started",
		logger.Int("buffer_size", cfg.Service.BufferSize),
		logger.Duration("flush_interval", cfg.Service.FlushInterval),
		logger.Int("flush_threshold", cfg.Service.FlushThreshold),
	)

	return buffer, store
}
