package engine

import (
	"math"
	"math/rand"

	"rare-source/internal/models"
)

const (
	// DefaultExchangeRate is the reference KRW-per-USD rate used when no
	// rate is configured.
	DefaultExchangeRate = 1450.0

	// ReportingCurrency is the single currency every normalized price is
	// quoted in.
	ReportingCurrency = "KRW"

	// DefaultMargin applies to source types missing from Margins.
	DefaultMargin = 1.15

	priceHistoryLen = 7
)

// Margins is the per-source-type markup table. Exported so tests can
// enumerate every entry and catch silent drift.
var Margins = map[string]float64{
	models.SourceMetaScraper:   1.25,
	models.SourceDirectScraper: 1.18,
	models.SourceAPI:           1.12,
	models.SourceOfficialAPI:   1.10,
	models.SourceDeepLink:      1.05,
	models.SourceEOLPartner:    1.20,
	models.SourceFallback:      1.00,
}

// Pricer localizes raw source prices into the reporting currency and
// applies the source-type margin.
type Pricer struct {
	ExchangeRate float64
}

func NewPricer(exchangeRate float64) *Pricer {
	if exchangeRate <= 0 {
		exchangeRate = DefaultExchangeRate
	}
	return &Pricer{ExchangeRate: exchangeRate}
}

// Price converts a raw quote to the final reporting-currency price.
// Only USD sources are converted; other currencies pass through
// unconverted, a known limitation of the upstream data.
func (p *Pricer) Price(rawPrice float64, rawCurrency, sourceType string) float64 {
	localized := rawPrice
	if rawCurrency == "USD" {
		localized = math.Round(rawPrice * p.ExchangeRate)
	}

	margin, ok := Margins[sourceType]
	if !ok {
		margin = DefaultMargin
	}
	return math.Round(localized * margin)
}

// PriceHistory synthesizes sparkline jitter around the final price:
// seven points, each within ±15%. Cosmetic, not a model.
func PriceHistory(price float64) []float64 {
	history := make([]float64, priceHistoryLen)
	for i := range history {
		history[i] = math.Round(price * (0.85 + rand.Float64()*0.30))
	}
	return history
}
