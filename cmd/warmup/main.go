package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"rare-source/internal/cache"
	"rare-source/internal/config"
	"rare-source/internal/connectors"
	"rare-source/internal/database"
	"rare-source/internal/engine"
	"rare-source/internal/service"

	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
)

// Pre-populates the result cache from a newline-separated list of part
// numbers, so the first interactive search after a deploy is warm.
func main() {
	file := flag.String("file", "parts.txt", "file with one part number per line")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	parts, err := readParts(*file)
	if err != nil {
		log.Fatal("Failed to read part list:", err)
	}
	if len(parts) == 0 {
		log.Fatal("No part numbers in ", *file)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatal("Failed to open cache store:", err)
	}
	defer store.Close()

	resultCache := cache.New(store, cfg.CacheTTL, nil)

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
	eng := engine.New(conns, connectors.NewFallbackConnector(), engine.NewPricer(cfg.ExchangeRate), cfg.ConnectorTimeout, nil)
	svc := service.New(eng, resultCache, nil)

	bar := progressbar.Default(int64(len(parts)), "warming cache")
	warmed := 0
	for _, part := range parts {
		if _, err := svc.Search(context.Background(), part); err != nil {
			log.Printf("warmup failed for %s: %v", part, err)
		} else {
			warmed++
		}
		bar.Add(1)
	}

	log.Printf("Warmed %d/%d part numbers", warmed, len(parts))
}

func readParts(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var parts []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts = append(parts, line)
	}
	return parts, scanner.Err()
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
