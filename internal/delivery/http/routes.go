package http

import (
	"github.com/gin-gonic/gin"
	"github.com/pricelens/backend/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter creates and configures the Gin router. gatherer may be nil to
// leave /metrics out.
func SetupRouter(cfg *config.Config, handler *Handler, gatherer prometheus.Gatherer) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(ClientIDMiddleware())
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		v1.POST("/search", handler.Search)

		session := v1.Group("/session")
		{
			session.GET("", handler.RestoreSession)
			session.DELETE("", handler.ResetSession)
			session.DELETE("/ephemeral", handler.EndBrowsingSession)
		}

		recent := v1.Group("/recent")
		{
			recent.GET("", handler.RecentlyViewed)
			recent.POST("", handler.RecordViewed)
			recent.GET("/current", handler.CurrentItem)
		}
	}

	return router
}
