package cache

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"rare-source/internal/models"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func sampleOffers() []models.Offer {
	return []models.Offer{{
		ID:           "abc123def456",
		MPN:          "LM358",
		Manufacturer: "Texas Instruments",
		Distributor:  "Mouser Electronics (API)",
		SourceType:   models.SourceOfficialAPI,
		Stock:        450,
		Price:        16240,
		PriceHistory: []float64{15000, 16000, 17000, 16240, 15500, 16800, 16100},
		Currency:     "KRW",
		Delivery:     "3-5 Days",
		Condition:    "New",
		DateCode:     "2024+",
		RiskLevel:    models.RiskLow,
		UpdatedAt:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}}
}

func TestNormalizeKey(t *testing.T) {
	if got := NormalizeKey("  lm358 "); got != "LM358" {
		t.Errorf("want LM358, got %q", got)
	}
}

func TestSetAndGetRoundTrip(t *testing.T) {
	c := New(NewMemoryStore(), time.Hour, nil)
	offers := sampleOffers()

	if !c.Set(context.Background(), "lm358", offers) {
		t.Fatal("set failed")
	}

	// Case-folded and trimmed queries share the entry
	got, ok := c.Get(context.Background(), " LM358 ")
	if !ok {
		t.Fatal("want hit")
	}
	if !reflect.DeepEqual(got, offers) {
		t.Errorf("round trip mismatch:\n want %+v\n got  %+v", offers, got)
	}
}

func TestSetEmptyIsNoOp(t *testing.T) {
	c := New(NewMemoryStore(), time.Hour, nil)

	if c.Set(context.Background(), "LM358", nil) {
		t.Error("empty set must report failure")
	}
	if _, ok := c.Get(context.Background(), "LM358"); ok {
		t.Error("empty set must not create an entry")
	}
}

func TestTTLBoundary(t *testing.T) {
	store := NewMemoryStore()
	c := New(store, time.Hour, nil)
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	c.clock = fixedClock(start)
	if !c.Set(context.Background(), "LM358", sampleOffers()) {
		t.Fatal("set failed")
	}

	c.clock = fixedClock(start.Add(59 * time.Minute))
	if _, ok := c.Get(context.Background(), "LM358"); !ok {
		t.Error("want hit at T+59min")
	}

	c.clock = fixedClock(start.Add(61 * time.Minute))
	if _, ok := c.Get(context.Background(), "LM358"); ok {
		t.Error("want miss at T+61min")
	}
}

func TestGetBumpsAccessCountNotExpiry(t *testing.T) {
	store := NewMemoryStore()
	c := New(store, time.Hour, nil)
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	c.clock = fixedClock(start)

	c.Set(context.Background(), "LM358", sampleOffers())

	before, err := store.Latest(context.Background(), "LM358", start)
	if err != nil || before == nil {
		t.Fatalf("latest: %v %v", before, err)
	}

	later := start.Add(10 * time.Minute)
	c.clock = fixedClock(later)
	if _, ok := c.Get(context.Background(), "LM358"); !ok {
		t.Fatal("want hit")
	}

	after, err := store.Latest(context.Background(), "LM358", later)
	if err != nil || after == nil {
		t.Fatalf("latest: %v %v", after, err)
	}
	if after.SearchCount != before.SearchCount+1 {
		t.Errorf("want search count %d, got %d", before.SearchCount+1, after.SearchCount)
	}
	if !after.ExpiresAt.Equal(before.ExpiresAt) {
		t.Errorf("expiry must not change on read: %v vs %v", before.ExpiresAt, after.ExpiresAt)
	}
	if !after.LastAccessedAt.Equal(later) {
		t.Errorf("want last accessed %v, got %v", later, after.LastAccessedAt)
	}
}

func TestMostRecentEntryWins(t *testing.T) {
	store := NewMemoryStore()
	c := New(store, time.Hour, nil)
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	first := sampleOffers()
	c.clock = fixedClock(start)
	c.Set(context.Background(), "LM358", first)

	second := sampleOffers()
	second[0].Price = 999
	c.clock = fixedClock(start.Add(time.Minute))
	c.Set(context.Background(), "LM358", second)

	got, ok := c.Get(context.Background(), "LM358")
	if !ok {
		t.Fatal("want hit")
	}
	if got[0].Price != 999 {
		t.Errorf("want newest entry, got price %v", got[0].Price)
	}
}

func TestInvalidateIsIdempotent(t *testing.T) {
	c := New(NewMemoryStore(), time.Hour, nil)

	c.Set(context.Background(), "LM358", sampleOffers())
	if !c.Invalidate(context.Background(), "lm358") {
		t.Error("invalidate failed")
	}
	if _, ok := c.Get(context.Background(), "LM358"); ok {
		t.Error("entry survived invalidation")
	}

	// Absent key is not an error
	if !c.Invalidate(context.Background(), "NEVER-CACHED") {
		t.Error("invalidating an absent key must succeed")
	}
}

func TestCleanupExpiredCounts(t *testing.T) {
	store := NewMemoryStore()
	c := New(store, time.Hour, nil)
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	c.clock = fixedClock(start)
	c.Set(context.Background(), "OLD-1", sampleOffers())
	c.Set(context.Background(), "OLD-2", sampleOffers())

	c.clock = fixedClock(start.Add(2 * time.Hour))
	c.Set(context.Background(), "FRESH", sampleOffers())

	if removed := c.CleanupExpired(context.Background()); removed != 2 {
		t.Errorf("want 2 removed, got %d", removed)
	}
	if _, ok := c.Get(context.Background(), "FRESH"); !ok {
		t.Error("live entry must survive cleanup")
	}
}

// failingStore simulates an unreachable backing store.
type failingStore struct{}

var errStoreDown = errors.New("store unreachable")

func (f *failingStore) Insert(context.Context, *models.SearchCache) error { return errStoreDown }
func (f *failingStore) Latest(context.Context, string, time.Time) (*models.SearchCache, error) {
	return nil, errStoreDown
}
func (f *failingStore) Touch(context.Context, *models.SearchCache, time.Time) error {
	return errStoreDown
}
func (f *failingStore) DeleteByPart(context.Context, string) error { return errStoreDown }
func (f *failingStore) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, errStoreDown
}
func (f *failingStore) Close() error { return nil }

func TestStoreFailureDegradesGracefully(t *testing.T) {
	c := New(&failingStore{}, time.Hour, nil)

	if _, ok := c.Get(context.Background(), "LM358"); ok {
		t.Error("failing store must read as miss")
	}
	if c.Set(context.Background(), "LM358", sampleOffers()) {
		t.Error("failing store must write as no-op")
	}
	if c.Invalidate(context.Background(), "LM358") {
		t.Error("failing store invalidate must report failure")
	}
	if removed := c.CleanupExpired(context.Background()); removed != 0 {
		t.Errorf("failing store cleanup must report 0, got %d", removed)
	}
}

func TestCorruptEntryReadsAsMiss(t *testing.T) {
	store := NewMemoryStore()
	c := New(store, time.Hour, nil)

	now := time.Now()
	store.Insert(context.Background(), &models.SearchCache{
		PartNumber:     "LM358",
		Results:        "{not json",
		CreatedAt:      now,
		ExpiresAt:      now.Add(time.Hour),
		LastAccessedAt: now,
	})

	if _, ok := c.Get(context.Background(), "LM358"); ok {
		t.Error("corrupt payload must read as miss")
	}
}
