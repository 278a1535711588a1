package engine

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"rare-source/internal/connectors"
	"rare-source/internal/models"
)

// fakeConnector returns canned offers, an error, a panic, or blocks until
// its context is cancelled.
type fakeConnector struct {
	name   string
	offers []models.RawOffer
	err    error
	panics bool
	hangs  bool
}

func (f *fakeConnector) Name() string { return f.name }

func (f *fakeConnector) FetchPrices(ctx context.Context, query string) ([]models.RawOffer, error) {
	if f.panics {
		panic("connector blew up")
	}
	if f.hangs {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.offers, nil
}

func rawOffer(distributor string, priceUSD float64) models.RawOffer {
	return models.RawOffer{
		"distributor": distributor,
		"mpn":         "LM358",
		"price":       priceUSD,
		"currency":    "USD",
		"source_type": models.SourceAPI,
	}
}

func newTestEngine(conns ...connectors.Connector) *Engine {
	return New(conns, connectors.NewFallbackConnector(), NewPricer(1450.0), time.Second, nil)
}

func TestAggregatePartialFailure(t *testing.T) {
	e := newTestEngine(
		&fakeConnector{name: "a", offers: []models.RawOffer{rawOffer("A", 3.0)}},
		&fakeConnector{name: "b", err: errors.New("network down")},
		&fakeConnector{name: "c", offers: []models.RawOffer{rawOffer("C", 1.0)}},
		&fakeConnector{name: "d", panics: true},
		&fakeConnector{name: "e", offers: []models.RawOffer{rawOffer("E", 2.0)}},
	)

	offers := e.Aggregate(context.Background(), "LM358")
	if len(offers) != 3 {
		t.Fatalf("want 3 offers from surviving connectors, got %d", len(offers))
	}
	for _, o := range offers {
		if o.Distributor == "B" || o.Distributor == "D" {
			t.Errorf("offer from failed connector leaked: %+v", o)
		}
		if o.Currency != ReportingCurrency {
			t.Errorf("offer not localized: %+v", o)
		}
		if len(o.PriceHistory) != 7 {
			t.Errorf("price history missing: %+v", o)
		}
	}
}

func TestAggregateSortsByPrice(t *testing.T) {
	e := newTestEngine(
		&fakeConnector{name: "a", offers: []models.RawOffer{
			rawOffer("Expensive", 85.0),
			rawOffer("Cheap", 1.0),
		}},
		&fakeConnector{name: "b", offers: []models.RawOffer{rawOffer("Middle", 12.0)}},
	)

	offers := e.Aggregate(context.Background(), "LM358")
	if !sort.SliceIsSorted(offers, func(i, j int) bool { return offers[i].Price < offers[j].Price }) {
		t.Fatalf("offers not sorted by price: %+v", offers)
	}
	if offers[0].Distributor != "Cheap" || offers[2].Distributor != "Expensive" {
		t.Errorf("unexpected order: %v %v %v", offers[0].Distributor, offers[1].Distributor, offers[2].Distributor)
	}
}

func TestAggregateStableTieBreak(t *testing.T) {
	// Equal prices keep registration/arrival order
	e := newTestEngine(
		&fakeConnector{name: "first", offers: []models.RawOffer{rawOffer("First", 5.0)}},
		&fakeConnector{name: "second", offers: []models.RawOffer{rawOffer("Second", 5.0)}},
	)

	offers := e.Aggregate(context.Background(), "LM358")
	if len(offers) != 2 {
		t.Fatalf("want 2 offers, got %d", len(offers))
	}
	if offers[0].Distributor != "First" || offers[1].Distributor != "Second" {
		t.Errorf("tie broke out of arrival order: %v, %v", offers[0].Distributor, offers[1].Distributor)
	}
}

func TestAggregateKeepsDuplicates(t *testing.T) {
	// Same part quoted by two connectors stays as two offers
	e := newTestEngine(
		&fakeConnector{name: "a", offers: []models.RawOffer{rawOffer("Same", 5.0)}},
		&fakeConnector{name: "b", offers: []models.RawOffer{rawOffer("Same", 5.0)}},
	)

	offers := e.Aggregate(context.Background(), "LM358")
	if len(offers) != 2 {
		t.Fatalf("duplicates must be kept: want 2, got %d", len(offers))
	}
}

func TestAggregateFallbackOnTotalFailure(t *testing.T) {
	e := newTestEngine(
		&fakeConnector{name: "a", err: errors.New("down")},
		&fakeConnector{name: "b"},
	)

	offers := e.Aggregate(context.Background(), "LM358")
	if len(offers) != 1 {
		t.Fatalf("want the single fallback offer, got %d", len(offers))
	}
	fb := offers[0]
	if fb.SourceType != models.SourceFallback {
		t.Errorf("want source_type Fallback, got %q", fb.SourceType)
	}
	if fb.RiskLevel != models.RiskHigh {
		t.Errorf("want risk High, got %q", fb.RiskLevel)
	}
	if fb.Stock != 0 || fb.Price != 0 {
		t.Errorf("fallback must carry zero stock and price: %+v", fb)
	}
}

func TestAggregateNoFallbackWhenAnySourceAnswers(t *testing.T) {
	e := newTestEngine(
		&fakeConnector{name: "a", err: errors.New("down")},
		&fakeConnector{name: "b", offers: []models.RawOffer{rawOffer("B", 2.0)}},
	)

	offers := e.Aggregate(context.Background(), "LM358")
	for _, o := range offers {
		if o.SourceType == models.SourceFallback {
			t.Fatalf("fallback fired despite live results: %+v", offers)
		}
	}
}

func TestAggregateTimesOutSlowConnector(t *testing.T) {
	e := New(
		[]connectors.Connector{
			&fakeConnector{name: "hung", hangs: true},
			&fakeConnector{name: "fast", offers: []models.RawOffer{rawOffer("Fast", 2.0)}},
		},
		connectors.NewFallbackConnector(),
		NewPricer(1450.0),
		50*time.Millisecond,
		nil,
	)

	done := make(chan []models.Offer, 1)
	go func() { done <- e.Aggregate(context.Background(), "LM358") }()

	select {
	case offers := <-done:
		if len(offers) != 1 || offers[0].Distributor != "Fast" {
			t.Fatalf("want only the fast connector's offer, got %+v", offers)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("aggregate blocked on the hung connector")
	}
}

func TestAggregateCancellationPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	e := New(
		[]connectors.Connector{&fakeConnector{name: "hung", hangs: true}},
		nil,
		NewPricer(1450.0),
		time.Minute,
		nil,
	)

	done := make(chan []models.Offer, 1)
	go func() { done <- e.Aggregate(ctx, "LM358") }()
	cancel()

	select {
	case offers := <-done:
		if len(offers) != 0 {
			t.Fatalf("want no offers after cancellation, got %d", len(offers))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancellation did not reach the connector")
	}
}
