package models

import (
	"time"
)

// RawOffer is the loosely-typed record a connector returns. Field names
// vary per upstream source (price vs price_usd, type vs source_type);
// the normalizer in internal/engine resolves the aliases.
type RawOffer map[string]any

// Risk levels assigned during normalization.
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// Source types produced by the configured connectors. The set is open;
// unknown types fall back to the default margin.
const (
	SourceAPI           = "API"
	SourceOfficialAPI   = "Official API"
	SourceDirectScraper = "Direct Scraper"
	SourceMetaScraper   = "Meta Scraper"
	SourceDeepLink      = "Deep Link"
	SourceEOLPartner    = "EOL Partner"
	SourceFallback      = "Fallback"
)

// Offer is one distributor's quote for a part after normalization.
// Immutable once built; price is in the reporting currency.
type Offer struct {
	ID           string    `json:"id"`
	MPN          string    `json:"mpn"`
	Manufacturer string    `json:"manufacturer"`
	Distributor  string    `json:"distributor"`
	SourceType   string    `json:"source_type"`
	Stock        int       `json:"stock"` // -1 means "unknown, check distributor"
	Price        float64   `json:"price"`
	PriceHistory []float64 `json:"price_history"` // 7 synthetic points for sparklines
	Currency     string    `json:"currency"`
	Delivery     string    `json:"delivery"`
	Condition    string    `json:"condition"`
	DateCode     string    `json:"date_code"`
	IsEOL        bool      `json:"is_eol"`
	RiskLevel    string    `json:"risk_level"`
	UpdatedAt    time.Time `json:"updated_at"`
	Datasheet    string    `json:"datasheet,omitempty"`
	Description  string    `json:"description,omitempty"`
}

// SearchCache is one cached result set for a normalized part number.
// Rows are insert-only; the newest non-expired row per part number wins.
type SearchCache struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	PartNumber     string    `json:"part_number" gorm:"index;not null"`
	Results        string    `json:"results" gorm:"type:longtext"` // JSON-encoded []Offer
	SourceCount    int       `json:"source_count"`
	SearchCount    int       `json:"search_count" gorm:"default:1"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at" gorm:"index"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}

// MarketStatus is the synthetic market overview returned by /market/stats.
type MarketStatus struct {
	MarketTemperature string    `json:"market_temperature"` // STABLE / VOLATILE / CRITICAL
	GlobalStockIndex  int       `json:"global_stock_index"`
	ActiveBrokers     int       `json:"active_brokers"`
	PriceDrift        float64   `json:"price_drift"`
	LastSync          time.Time `json:"last_sync"`
	RecentLogs        []string  `json:"recent_logs"`
}

// ProcurementLock is the request body for the lock endpoint.
type ProcurementLock struct {
	PartID   string `json:"part_id" binding:"required"`
	Quantity int    `json:"quantity"`
}

// LockConfirmation is the stateless confirmation stub for a lock request.
type LockConfirmation struct {
	TrackingID string    `json:"tracking_id"`
	Status     string    `json:"status"`
	ExpiresAt  time.Time `json:"expires_at"`
}
