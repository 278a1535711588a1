package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rare-source/internal/cache"
	"rare-source/internal/config"
	"rare-source/internal/database"

	"github.com/joho/godotenv"
)

// Deletes expired cache entries on a fixed interval, independent of
// request traffic.
func main() {
	interval := flag.Duration("interval", 10*time.Minute, "cleanup interval")
	once := flag.Bool("once", false, "run a single cleanup pass and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	store, err := openStore(cfg)
	if err != nil {
		log.Fatal("Failed to open cache store:", err)
	}
	defer store.Close()

	resultCache := cache.New(store, cfg.CacheTTL, nil)

	if *once {
		removed := resultCache.CleanupExpired(context.Background())
		log.Printf("Removed %d expired entries", removed)
		return
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	log.Printf("Cache cleaner running every %s", *interval)
	for {
		select {
		case <-ticker.C:
			removed := resultCache.CleanupExpired(context.Background())
			log.Printf("Removed %d expired entries", removed)
		case <-stop:
			log.Println("Cache cleaner stopping")
			return
		}
	}
}

func openStore(cfg *config.Config) (cache.Store, error) {
	if cfg.DatabaseURL != "" {
		db, err := database.Initialize(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return cache.NewGormStore(db)
	}
	if cfg.CacheDir != "" {
		return cache.NewPebbleStore(cfg.CacheDir)
	}
	return cache.NewMemoryStore(), nil
}
