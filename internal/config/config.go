package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string

	// Cache backing store. MySQL DSN takes priority; CacheDir selects a
	// local Pebble store; with neither set the cache runs in memory.
	DatabaseURL string
	CacheDir    string
	CacheTTL    time.Duration

	// Pricing
	ExchangeRate float64 // reporting-currency units per USD

	// Connector credentials
	MouserAPIKey        string
	DigiKeyClientID     string
	DigiKeyClientSecret string
	WinSourceToken      string
	OpenAIAPIKey        string

	// Per-connector fetch deadline; one slow source must not stall a batch.
	ConnectorTimeout time.Duration
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8000"),
		Environment: getEnv("ENVIRONMENT", "development"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		CacheDir:    getEnv("CACHE_DIR", ""),
		CacheTTL:    getDuration("CACHE_TTL", time.Hour),

		ExchangeRate: getFloat("EXCHANGE_RATE_KRW", 1450.0),

		MouserAPIKey:        getEnv("MOUSER_API_KEY", ""),
		DigiKeyClientID:     getEnv("DIGIKEY_CLIENT_ID", ""),
		DigiKeyClientSecret: getEnv("DIGIKEY_CLIENT_SECRET", ""),
		WinSourceToken:      getEnv("WIN_SOURCE_ACCESS_TOKEN", ""),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),

		ConnectorTimeout: getDuration("CONNECTOR_TIMEOUT", 15*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
