// Package api exposes the referer classification HTTP API.
package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jonesrussell/referer-classifier/internal/cache"
	"github.com/jonesrussell/referer-classifier/internal/database"
	"github.com/jonesrussell/referer-classifier/internal/domain"
	"github.com/jonesrussell/referer-classifier/internal/logger"
	"github.com/jonesrussell/referer-classifier/internal/middleware"
	"github.com/jonesrussell/referer-classifier/internal/referer"
	"github.com/jonesrussell/referer-classifier/internal/storage"
	"github.com/jonesrussell/referer-classifier/internal/telemetry"
)

// StatsRepository aggregates recorded referer events.
type StatsRepository interface {
	TotalEvents(ctx context.Context) (int, error)
	MediumStats(ctx context.Context) ([]database.MediumStat, error)
	TopSources(ctx context.Context, limit int) ([]database.SourceStat, error)
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// topSourcesLimit caps the top sources list in the stats response.
const topSourcesLimit = 10

// readyTimeout bounds the database ping in the readiness check.
const readyTimeout = 2 * time.Second

// Handler handles HTTP requests for the classification API.
//
// The cache, stats repository, pinger and buffer are all optional: the
// service classifies from the in-memory dataset alone when Redis or Postgres
// is not configured.
type Handler struct {
	classifier      *referer.Classifier
	resultCache     *cache.Cache
	buffer          *storage.Buffer
	stats           StatsRepository
	db              Pinger
	metrics         *telemetry.Provider
	logger          logger.Logger
	serviceName     string
	serviceVersion  string
	pageHost        string
	internalDomains []string
	batchLimit      int
}

// HandlerConfig collects the handler's collaborators.
type HandlerConfig struct {
	Classifier      *referer.Classifier
	Cache           *cache.Cache
	Buffer          *storage.Buffer
	Stats           StatsRepository
	DB              Pinger
	Metrics         *telemetry.Provider
	Logger          logger.Logger
	ServiceName     string
	ServiceVersion  string
	PageHost        string
	InternalDomains []string
	BatchLimit      int
}

// NewHandler creates a new API handler.
func NewHandler(cfg HandlerConfig) *Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		classifier:      cfg.Classifier,
		resultCache:     cfg.Cache,
		buffer:          cfg.Buffer,
		stats:           cfg.Stats,
		db:              cfg.DB,
		metrics:         cfg.Metrics,
		logger:          log,
		serviceName:     cfg.ServiceName,
		serviceVersion:  cfg.ServiceVersion,
		pageHost:        cfg.PageHost,
		internalDomains: cfg.InternalDomains,
		batchLimit:      cfg.BatchLimit,
	}
}

// Classify handles POST /api/v1/classify.
func (h *Handler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.classifyOne(c.Request.Context(), req))
}

// ClassifyBatch handles POST /api/v1/classify/batch.
func (h *Handler) ClassifyBatch(c *gin.Context) {
	var req BatchClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Referers) > h.batchLimit {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "batch exceeds limit",
			"limit": h.batchLimit,
		})
		return
	}

	results := make([]ClassifyResponse, len(req.Referers))
	for i, r := range req.Referers {
		results[i] = h.classifyOne(c.Request.Context(), r)
	}

	c.JSON(http.StatusOK, BatchClassifyResponse{
		Results: results,
		Total:   len(results),
	})
}

// classifyOne runs a single classification through the cache, classifier and
// metrics.
func (h *Handler) classifyOne(ctx context.Context, req ClassifyRequest) ClassifyResponse {
	ctx, span := h.metrics.Tracer().Start(ctx, "classify")
	defer span.End()

	pageHost := h.pageHost
	if req.PageHost != "" {
		pageHost = req.PageHost
	}
	internalDomains := h.internalDomains
	if req.InternalDomains != nil {
		internalDomains = req.InternalDomains
	}

	// Cache only the common shape: default internal domains and no page URL.
	key := ""
	if h.resultCache != nil && req.PageURL == "" && req.InternalDomains == nil {
		key = cache.Key(req.RefererURL, pageHost)
		if result, ok := h.resultCache.Get(ctx, key); ok {
			h.metrics.CacheHitsTotal.Inc()
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return ClassifyResponse{Classifiable: true, Result: result, Cached: true}
		}
		h.metrics.CacheMissesTotal.Inc()
	}

	start := time.Now()
	var result *domain.Result
	if req.PageURL != "" {
		result = h.classifier.ClassifyWithPageURL(req.RefererURL, req.PageURL, internalDomains)
	} else {
		result = h.classifier.Classify(req.RefererURL, pageHost, internalDomains)
	}
	h.metrics.LookupDuration.Observe(time.Since(start).Seconds())

	if result == nil {
		h.metrics.NotClassifiableTotal.Inc()
		span.SetAttributes(attribute.Bool("classifiable", false))
		return ClassifyResponse{Classifiable: false}
	}

	h.metrics.ObserveClassification(result.Medium.String())
	span.SetAttributes(
		attribute.String("medium", result.Medium.String()),
		attribute.String("source", result.Source),
	)

	if key != "" {
		h.resultCache.Set(ctx, key, result)
	}

	return ClassifyResponse{Classifiable: true, Result: result}
}

// Track handles GET /t: it classifies the Referer header of a page hit and
// enqueues the event for batch insertion. It always answers 204; tracking
// must never break the page that embeds it.
func (h *Handler) Track(c *gin.Context) {
	defer c.Status(http.StatusNoContent)

	if c.GetBool(middleware.IsBotKey) {
		return
	}
	if h.buffer == nil {
		return
	}

	refererURL := c.Request.Referer()
	if refererURL == "" {
		return
	}
	pageURL := c.Query("page")

	var result *domain.Result
	if pageURL != "" {
		result = h.classifier.ClassifyWithPageURL(refererURL, pageURL, h.internalDomains)
	} else {
		result = h.classifier.Classify(refererURL, h.pageHost, h.internalDomains)
	}
	if result == nil {
		h.metrics.NotClassifiableTotal.Inc()
		return
	}
	h.metrics.ObserveClassification(result.Medium.String())

	event := domain.RefererEvent{
		ID:           uuid.NewString(),
		RefererURL:   refererURL,
		RefererHost:  refererHost(refererURL),
		PageHost:     h.pageHost,
		Medium:       result.Medium,
		Source:       result.Source,
		ClassifiedAt: time.Now().UTC(),
	}
	if result.SearchTerm != nil {
		event.SearchTerm = *result.SearchTerm
	}

	if !h.buffer.Send(event) {
		h.metrics.EventsDroppedTotal.Inc()
		h.logger.Warn("Event buffer full, dropping referer event",
			logger.String("referer_host", event.RefererHost),
		)
		return
	}
	h.metrics.BufferDepth.Set(float64(h.buffer.Len()))
}

// DatasetInfo handles GET /api/v1/dataset.
func (h *Handler) DatasetInfo(c *gin.Context) {
	c.JSON(http.StatusOK, DatasetResponse{
		Stats: h.classifier.Dataset().Stats(),
	})
}

// GetStats handles GET /api/v1/stats.
func (h *Handler) GetStats(c *gin.Context) {
	if h.stats == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event storage is not configured"})
		return
	}

	ctx := c.Request.Context()

	total, err := h.stats.TotalEvents(ctx)
	if err != nil {
		h.logger.Error("Failed to count referer events", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	byMedium, err := h.stats.MediumStats(ctx)
	if err != nil {
		h.logger.Error("Failed to aggregate medium stats", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	topSources, err := h.stats.TopSources(ctx, topSourcesLimit)
	if err != nil {
		h.logger.Error("Failed to aggregate top sources", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}

	c.JSON(http.StatusOK, StatsResponse{
		TotalEvents: total,
		ByMedium:    byMedium,
		TopSources:  topSources,
	})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.serviceName,
		"version": h.serviceVersion,
	})
}

// ReadyCheck handles GET /ready. The service is ready when the dataset is
// loaded; a configured database must also answer a ping.
func (h *Handler) ReadyCheck(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": "database unreachable",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":          "ready",
		"dataset_entries": len(h.classifier.Dataset()),
	})
}

// refererHost extracts the hostname for event storage; unparseable referers
// never reach this point but an empty host is tolerated.
func refererHost(refererURL string) string {
	u, err := url.Parse(refererURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
