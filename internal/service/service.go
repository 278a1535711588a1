package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	mathrand "math/rand"
	"strings"
	"time"

	"rare-source/internal/cache"
	"rare-source/internal/metrics"
	"rare-source/internal/models"
)

// StatusLockedPendingPO is the only state the procurement stub reports;
// no reservation system backs it.
const StatusLockedPendingPO = "LOCKED_PENDING_PO"

var (
	// ErrEmptyQuery is the single user-visible error class: invalid
	// input rejected before any connector or cache work starts.
	ErrEmptyQuery = errors.New("query must not be empty")

	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// Aggregator is the engine as the service sees it: a full fan-out pass
// that never fails outright.
type Aggregator interface {
	Aggregate(ctx context.Context, query string) []models.Offer
}

// Service is the cache-or-compute boundary consumed by the HTTP layer.
type Service struct {
	engine  Aggregator
	cache   *cache.Cache
	metrics *metrics.Registry
}

func New(engine Aggregator, resultCache *cache.Cache, reg *metrics.Registry) *Service {
	return &Service{
		engine:  engine,
		cache:   resultCache,
		metrics: reg,
	}
}

// Search answers a part-number query from the cache when possible and
// falls through to the aggregation engine on a miss. Two concurrent
// misses for the same key may both reach the engine; the last insert
// wins, which is acceptable for a cold cache.
func (s *Service) Search(ctx context.Context, query string) ([]models.Offer, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if s.metrics != nil {
		s.metrics.Searches.Inc()
	}

	if offers, ok := s.cache.Get(ctx, query); ok {
		return offers, nil
	}

	offers := s.engine.Aggregate(ctx, query)

	// A failed cache write is logged inside the cache; the caller still
	// gets the fresh result either way. A fallback-only result means a
	// total source outage: never cache it, so the next request retries
	// the sources instead of replaying the outage for the whole TTL.
	if !isFallbackOnly(offers) {
		s.cache.Set(ctx, query, offers)
	}
	return offers, nil
}

// isFallbackOnly reports whether the result set is just the synthetic
// "no results" offer substituted after a total fan-out failure.
func isFallbackOnly(offers []models.Offer) bool {
	return len(offers) == 1 && offers[0].SourceType == models.SourceFallback
}

// Invalidate drops the cached results for a part number.
func (s *Service) Invalidate(ctx context.Context, query string) bool {
	return s.cache.Invalidate(ctx, query)
}

// CleanupExpired removes expired cache entries and returns the count.
func (s *Service) CleanupExpired(ctx context.Context) int64 {
	return s.cache.CleanupExpired(ctx)
}

// LockProcurement issues a stateless lock confirmation stub valid for
// 24 hours. Nothing is actually reserved.
func (s *Service) LockProcurement(partID string, quantity int) (*models.LockConfirmation, error) {
	if strings.TrimSpace(partID) == "" {
		return nil, errors.New("part_id must not be empty")
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	return &models.LockConfirmation{
		TrackingID: "RARE-" + strings.ToUpper(newToken()),
		Status:     StatusLockedPendingPO,
		ExpiresAt:  time.Now().Add(24 * time.Hour),
	}, nil
}

// MarketStats returns a synthetic market overview. Not backed by real
// telemetry.
func (s *Service) MarketStats() models.MarketStatus {
	temperatures := []string{"STABLE", "VOLATILE", "CRITICAL"}

	return models.MarketStatus{
		MarketTemperature: temperatures[mathrand.Intn(len(temperatures))],
		GlobalStockIndex:  120000 + mathrand.Intn(380001),
		ActiveBrokers:     45 + mathrand.Intn(38),
		PriceDrift:        float64(int((-5.5+mathrand.Float64()*17.9)*100)) / 100,
		LastSync:          time.Now(),
		RecentLogs:        syntheticLogs("MARKET_SCAN"),
	}
}

func syntheticLogs(query string) []string {
	sources := []string{
		"Digi-Key Global API", "Mouser Electronics", "Win Source Scraper",
		"Verical Deep-Link", "Global Broker Index #12", "Asian Secondary Market Scan",
	}
	stages := []string{
		"[CONNECTING]", "[AUTH_SUCCESS]", "[SCRAPING_DOM]",
		"[PARSING_JSON]", "[EXTRACTING_STOCK]", "[CALCULATING_MARGIN]",
	}

	logs := make([]string, 5)
	for i := range logs {
		logs[i] = fmt.Sprintf("%s %s for %s",
			stages[mathrand.Intn(len(stages))],
			sources[mathrand.Intn(len(sources))],
			strings.ToUpper(query))
	}
	return logs
}

func newToken() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%012d", time.Now().UnixNano()%1e12)
	}
	return hex.EncodeToString(buf)
}
