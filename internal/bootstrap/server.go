package bootstrap

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jonesrussell/referer-classifier/internal/api"
	"github.com/jonesrussell/referer-classifier/internal/config"
	"github.com/jonesrussell/referer-classifier/internal/logger"
	"github.com/jonesrussell/referer-classifier/internal/referer"
	"github.com/jonesrussell/referer-classifier/internal/storage"
	"github.com/jonesrussell/referer-classifier/internal/telemetry"
)

// HTTPComponents holds everything the httpd entrypoint needs to run and shut
// down the service.
type HTTPComponents struct {
	Server *api.Server
	DB     *sqlx.DB
	Buffer *storage.Buffer
	Store  *storage.Store
}

// NewHTTPComponents builds the full service: dataset, classifier, storage,
// cache, telemetry, handler and HTTP server.
func NewHTTPComponents(ctx context.Context, cfg *config.Config, log logger.Logger) (*HTTPComponents, error) {
	dataset, err := LoadDataset(cfg.Dataset.Path, log)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	classifier := referer.NewClassifier(dataset, log)

	db, eventsRepo, err := SetupDatabase(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}

	resultCache, err := SetupCache(cfg, log)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	var inserter storage.EventInserter
	if eventsRepo != nil {
		inserter = eventsRepo
	}
	buffer, store := SetupEventPipeline(ctx, cfg, inserter, log)

	metrics := telemetry.NewProvider(prometheus.NewRegistry())

	var stats api.StatsRepository
	var pinger api.Pinger
	if eventsRepo != nil {
		stats = eventsRepo
		pinger = db
	}

	handler := api.NewHandler(api.HandlerConfig{
		Classifier:      classifier,
		Cache:           resultCache,
		Buffer:          buffer,
		Stats:           stats,
		DB:              pinger,
		Metrics:         metrics,
		Logger:          log,
		ServiceName:     cfg.Service.Name,
		ServiceVersion:  cfg.Service.Version,
		PageHost:        cfg.Service.PageHost,
		InternalDomains: cfg.Service.InternalDomains,
		BatchLimit:      cfg.Service.BatchLimit,
	})

	server := api.NewServer(
		api.ServerConfig{
			Port:  cfg.Service.Port,
			Debug: cfg.Service.Debug,
		},
		log,
		func(router *gin.Engine) {
			api.SetupRoutes(router, handler, api.RouteConfig{
				RateLimitRPS:   float64(cfg.RateLimit.RequestsPerSecond),
				RateLimitBurst: cfg.RateLimit.Burst,
			})
		},
	)

	return &HTTPComponents{
		Server: server,
		DB:     db,
		Buffer: buffer,
		Store:  store,
	}, nil
}
