package main

import (
	"log"
	"net/http"

	"rare-source/internal/api"
	"rare-source/internal/cache"
	"rare-source/internal/config"
	"rare-source/internal/connectors"
	"rare-source/internal/database"
	"rare-source/internal/engine"
	"rare-source/internal/metrics"
	"rare-source/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()
	reg := metrics.NewRegistry()

	store, err := openStore(cfg)
	if err != nil {
		log.Fatal("Failed to open cache store:", err)
	}
	defer store.Close()

	resultCache := cache.New(store, cfg.CacheTTL, reg)

	conns := []connectors.Connector{
		connectors.NewFindChipsConnector(cfg.OpenAIAPIKey),
		connectors.NewMouserConnector(cfg.MouserAPIKey),
		connectors.NewDigiKeyConnector(cfg.DigiKeyClientID, cfg.DigiKeyClientSecret),
		connectors.NewWinSourceConnector(cfg.WinSourceToken),
		connectors.NewRochesterConnector(),
		connectors.NewFlipElectronicsConnector(),
		connectors.NewArrowConnector(),
		connectors.NewFutureElectronicsConnector(),
		connectors.NewRSComponentsConnector(),
	}

	eng := engine.New(conns, connectors.NewFallbackConnector(), engine.NewPricer(cfg.ExchangeRate), cfg.ConnectorTimeout, reg)
	svc := service.New(eng, resultCache, reg)

	hub := api.NewHub()
	eng.SetEventSink(hub)

	// Initialize Gin router
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Live sourcing activity feed
	r.GET("/ws", hub.ServeWS)

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(reg.Handler()))

	// API routes
	apiGroup := r.Group("/api/v1")
	api.SetupRoutes(apiGroup, svc, hub)

	log.Printf("Server starting on port %s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}

// openStore picks the cache backing store: MySQL when a DSN is set, a
// local Pebble directory otherwise, plain memory as the last resort.
func openStore(cfg *config.Config) (cache.Store, error) {
	if cfg.DatabaseURL != "" {
		db, err := database.Initialize(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return cache.NewGormStore(db)
	}
	if cfg.CacheDir != "" {
		log.Printf("Using local cache store at %s", cfg.CacheDir)
		return cache.NewPebbleStore(cfg.CacheDir)
	}
	log.Println("No cache backend configured, caching in memory")
	return cache.NewMemoryStore(), nil
}
