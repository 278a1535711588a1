package cache

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"rare-source/internal/metrics"
	"rare-source/internal/models"
)

// DefaultTTL is the reference cache validity window.
const DefaultTTL = time.Hour

// Cache fronts the aggregation engine with a time-boxed result cache.
// Every operation degrades gracefully: a failing store reads as a miss
// and writes as a no-op, so a broken cache never blocks a search.
type Cache struct {
	store   Store
	ttl     time.Duration
	metrics *metrics.Registry
	clock   func() time.Time
}

func New(store Store, ttl time.Duration, reg *metrics.Registry) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		store:   store,
		ttl:     ttl,
		metrics: reg,
		clock:   time.Now,
	}
}

// NormalizeKey folds a raw query into the cache key: upper-cased and
// trimmed, so "lm358 " and "LM358" share an entry.
func NormalizeKey(query string) string {
	return strings.ToUpper(strings.TrimSpace(query))
}

// Get returns the cached offers for query, or (nil, false) on a miss.
// A hit bumps the entry's search count and last-accessed time; its
// expiry never changes on read.
func (c *Cache) Get(ctx context.Context, query string) ([]models.Offer, bool) {
	key := NormalizeKey(query)
	now := c.clock()

	entry, err := c.store.Latest(ctx, key, now)
	if err != nil {
		log.Printf("[cache] lookup failed for %s: %v", key, err)
		c.countError()
		c.countMiss()
		return nil, false
	}
	if entry == nil {
		log.Printf("[cache] MISS for %s", key)
		c.countMiss()
		return nil, false
	}

	var offers []models.Offer
	if err := json.Unmarshal([]byte(entry.Results), &offers); err != nil {
		// Malformed stored payload reads as a miss
		log.Printf("[cache] corrupt entry for %s: %v", key, err)
		c.countError()
		c.countMiss()
		return nil, false
	}

	if err := c.store.Touch(ctx, entry, now); err != nil {
		log.Printf("[cache] touch failed for %s: %v", key, err)
	}

	log.Printf("[cache] HIT for %s (age: %s)", key, now.Sub(entry.CreatedAt).Round(time.Second))
	c.countHit()
	return offers, true
}

// Set stores a result list under query with expiry now+TTL. Empty result
// sets are never cached so a transient total outage is retried on the
// next request. Returns whether the entry was stored.
func (c *Cache) Set(ctx context.Context, query string, offers []models.Offer) bool {
	if len(offers) == 0 {
		return false
	}

	results, err := json.Marshal(offers)
	if err != nil {
		log.Printf("[cache] encode failed for %s: %v", query, err)
		return false
	}

	now := c.clock()
	entry := &models.SearchCache{
		PartNumber:     NormalizeKey(query),
		Results:        string(results),
		SourceCount:    len(offers),
		SearchCount:    1,
		CreatedAt:      now,
		ExpiresAt:      now.Add(c.ttl),
		LastAccessedAt: now,
	}

	if err := c.store.Insert(ctx, entry); err != nil {
		log.Printf("[cache] store failed for %s: %v", entry.PartNumber, err)
		c.countError()
		return false
	}

	log.Printf("[cache] stored %d offers for %s (expires in %s)", len(offers), entry.PartNumber, c.ttl)
	return true
}

// Invalidate deletes every entry for query. Idempotent.
func (c *Cache) Invalidate(ctx context.Context, query string) bool {
	key := NormalizeKey(query)
	if err := c.store.DeleteByPart(ctx, key); err != nil {
		log.Printf("[cache] invalidation failed for %s: %v", key, err)
		c.countError()
		return false
	}
	log.Printf("[cache] invalidated %s", key)
	return true
}

// CleanupExpired removes entries past expiry across all keys and returns
// the count removed. Intended to run periodically (cmd/cache-cleaner).
func (c *Cache) CleanupExpired(ctx context.Context) int64 {
	count, err := c.store.DeleteExpired(ctx, c.clock())
	if err != nil {
		log.Printf("[cache] cleanup failed: %v", err)
		c.countError()
		return 0
	}
	if count > 0 {
		log.Printf("[cache] cleaned up %d expired entries", count)
	}
	return count
}

func (c *Cache) countHit() {
	if c.metrics != nil {
		c.metrics.CacheHits.Inc()
	}
}

func (c *Cache) countMiss() {
	if c.metrics != nil {
		c.metrics.CacheMisses.Inc()
	}
}

func (c *Cache) countError() {
	if c.metrics != nil {
		c.metrics.CacheErrors.Inc()
	}
}
