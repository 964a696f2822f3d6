package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pricelens/backend/config"
	httpDelivery "github.com/pricelens/backend/internal/delivery/http"
	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/infrastructure/cache"
	"github.com/pricelens/backend/internal/infrastructure/identify"
	"github.com/pricelens/backend/internal/infrastructure/metrics"
	"github.com/pricelens/backend/internal/infrastructure/retailer"
	"github.com/pricelens/backend/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting PriceLens Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Durable cache: %s (ttl %s), ephemeral ttl %s, recent limit %d",
		cfg.Cache.Type, cfg.Cache.TTL, cfg.Cache.EphemeralTTL, cfg.Cache.RecentLimit)

	// Initialize infrastructure dependencies
	ephemeral := cache.NewMemoryCache()
	defer ephemeral.Close()

	durable, closeDurable, err := newDurableTier(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize durable cache: %v", err)
	}
	defer closeDurable()

	registry := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(registry)

	retailerClient := retailer.NewClient(retailer.Config{
		BaseURL:      cfg.Retailer.BaseURL,
		Timeout:      cfg.Retailer.Timeout,
		RetryCount:   cfg.Retailer.RetryCount,
		RequestsPerS: cfg.RateLimit.Retailer,
	})

	// Enable debug mode in development environment
	if cfg.Server.Environment == "development" {
		retailerClient.SetDebug(true)
		log.Printf("Retailer client debug mode enabled")
	}
	log.Printf("Retailer search configured: %s", cfg.Retailer.BaseURL)

	var identifier domain.Identifier
	if cfg.Identify.APIKey != "" {
		identifier = identify.NewClient(identify.Config{
			APIKey:  cfg.Identify.APIKey,
			BaseURL: cfg.Identify.BaseURL,
			Model:   cfg.Identify.Model,
			Timeout: cfg.Identify.Timeout,
		})
		log.Printf("Identification configured: %s (model %s)", cfg.Identify.BaseURL, cfg.Identify.Model)
	} else {
		log.Printf("WARNING: identification API key not configured - image and barcode searches will fail!")
	}

	// Initialize usecase layer
	sessions := usecase.NewSessionCache(durable, ephemeral, usecase.SessionCacheConfig{
		DurableTTL:   cfg.Cache.TTL,
		EphemeralTTL: cfg.Cache.EphemeralTTL,
		RecentLimit:  cfg.Cache.RecentLimit,
	})
	sessions.SetMetrics(recorder)

	searchService := usecase.NewAggregationService(identifier, retailerClient, sessions, recorder)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(searchService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler, registry)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// newDurableTier builds the durable tier named by cfg.Cache.Type
func newDurableTier(cfg *config.Config) (domain.CacheRepository, func(), error) {
	if cfg.Cache.Type != "redis" {
		mem := cache.NewMemoryCache()
		return mem, func() { mem.Close() }, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := cache.NewRedisClient(ctx, cfg.Cache.RedisURL, 5*time.Second)
	if err != nil {
		return nil, nil, err
	}
	redisCache := cache.NewRedisCache(client, "pricelens:")
	return redisCache, func() { redisCache.Close() }, nil
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
