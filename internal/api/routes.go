package api

import (
	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/referer-classifier/internal/middleware"
)

// RouteConfig holds per-route middleware settings.
type RouteConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int
}

// SetupRoutes configures all API routes.
func SetupRoutes(router *gin.Engine, handler *Handler, cfg RouteConfig) {
	// Health and readiness checks
	router.GET("/health", handler.HealthCheck)
	router.GET("/ready", handler.ReadyCheck)

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(handler.metrics.Handler()))

	// Tracking pixel endpoint, rate limited and bot filtered
	track := router.Group("/t")
	track.Use(
		middleware.RateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		middleware.BotFilter(),
	)
	track.GET("", handler.Track)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/classify", handler.Classify)
		v1.POST("/classify/batch", handler.ClassifyBatch)
		v1.GET("/dataset", handler.DatasetInfo)
		v1.GET("/stats", handler.GetStats)
	}
}
