package engine

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"rare-source/internal/connectors"
	"rare-source/internal/metrics"
	"rare-source/internal/models"
)

// EventSink receives human-readable sourcing activity lines. The API
// layer plugs its websocket hub in here; a nil sink drops events.
type EventSink interface {
	Publish(line string)
}

// Engine fans a query out to every configured connector, reconciles the
// heterogeneous results into canonical offers and returns them sorted by
// price. A connector failure degrades to zero offers from that source;
// Aggregate itself never fails.
type Engine struct {
	connectors []connectors.Connector
	fallback   connectors.Connector
	pricer     *Pricer
	timeout    time.Duration
	metrics    *metrics.Registry
	events     EventSink
}

// connectorResult holds one connector's raw offers, slotted by the
// connector's registration index so flattening order is deterministic.
type connectorResult struct {
	offers []models.RawOffer
	err    error
}

func New(conns []connectors.Connector, fallback connectors.Connector, pricer *Pricer, timeout time.Duration, reg *metrics.Registry) *Engine {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Engine{
		connectors: conns,
		fallback:   fallback,
		pricer:     pricer,
		timeout:    timeout,
		metrics:    reg,
	}
}

// SetEventSink wires a sourcing-activity listener. Safe to leave unset.
func (e *Engine) SetEventSink(sink EventSink) { e.events = sink }

// Aggregate runs the full fan-out/fan-in pass for one query. The query
// string reaches connectors unmodified; key normalization is the cache's
// concern. Cancelling ctx cancels all in-flight connector fetches.
func (e *Engine) Aggregate(ctx context.Context, query string) []models.Offer {
	started := time.Now()
	results := make([]connectorResult, len(e.connectors))

	var wg sync.WaitGroup
	for i, conn := range e.connectors {
		wg.Add(1)
		go func(slot int, conn connectors.Connector) {
			defer wg.Done()
			results[slot] = e.fetch(ctx, conn, query)
		}(i, conn)
	}
	wg.Wait()

	// Flatten in registration order so the later stable sort has a
	// deterministic arrival order to break ties with.
	var raw []models.RawOffer
	for i, res := range results {
		if res.err != nil {
			log.Printf("[engine] connector %s failed: %v", e.connectors[i].Name(), res.err)
			continue
		}
		raw = append(raw, res.offers...)
	}

	// Terminal fallback: only when the whole fan-out came back empty.
	if len(raw) == 0 && e.fallback != nil {
		e.publish(fmt.Sprintf("[FALLBACK] no results from %d sources for %s", len(e.connectors), query))
		if offers, err := e.fallback.FetchPrices(ctx, query); err == nil {
			raw = offers
		}
	}

	offers := make([]models.Offer, 0, len(raw))
	for _, r := range raw {
		offer := Normalize(r)
		offer.Price = e.pricer.Price(offer.Price, offer.Currency, offer.SourceType)
		offer.Currency = ReportingCurrency
		offer.PriceHistory = PriceHistory(offer.Price)
		offers = append(offers, offer)
	}

	sort.SliceStable(offers, func(i, j int) bool {
		return offers[i].Price < offers[j].Price
	})

	log.Printf("[engine] aggregated %d offers for %q in %s", len(offers), query, time.Since(started).Round(time.Millisecond))
	return offers
}

// fetch runs one connector under its own deadline. A panic inside a
// connector is recorded as a failure, never propagated.
func (e *Engine) fetch(ctx context.Context, conn connectors.Connector, query string) (res connectorResult) {
	defer func() {
		if r := recover(); r != nil {
			res = connectorResult{err: fmt.Errorf("connector panicked: %v", r)}
			e.recordFailure(conn.Name())
		}
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	e.publish(fmt.Sprintf("[CONNECTING] %s for %s", conn.Name(), query))
	started := time.Now()

	offers, err := conn.FetchPrices(fetchCtx, query)
	elapsed := time.Since(started)
	if e.metrics != nil {
		e.metrics.ConnectorDuration.WithLabelValues(conn.Name()).Observe(elapsed.Seconds())
	}
	if err != nil {
		e.recordFailure(conn.Name())
		e.publish(fmt.Sprintf("[FAILED] %s: %v", conn.Name(), err))
		return connectorResult{err: err}
	}

	e.publish(fmt.Sprintf("[EXTRACTED] %s returned %d offers in %s", conn.Name(), len(offers), elapsed.Round(time.Millisecond)))
	return connectorResult{offers: offers}
}

func (e *Engine) recordFailure(name string) {
	if e.metrics != nil {
		e.metrics.ConnectorFailures.WithLabelValues(name).Inc()
	}
}

func (e *Engine) publish(line string) {
	if e.events != nil {
		e.events.Publish(line)
	}
}
