package connectors

import (
	"context"
	"strings"

	"rare-source/internal/models"
)

// RochesterConnector points at Rochester Electronics, the authorized EOL
// distributor. The site sits behind anti-bot protection, so the connector
// emits a deep-link stub instead of scraping live stock figures.
type RochesterConnector struct{}

func NewRochesterConnector() *RochesterConnector { return &RochesterConnector{} }

func (r *RochesterConnector) Name() string { return "Rochester Electronics" }

func (r *RochesterConnector) FetchPrices(ctx context.Context, query string) ([]models.RawOffer, error) {
	return []models.RawOffer{{
		"distributor":  "Rochester Electronics (EOL)",
		"mpn":          strings.ToUpper(query),
		"manufacturer": "Various (EOL Authorized)",
		"stock":        0,
		"price":        0.0,
		"currency":     "USD",
		"condition":    "Authorized EOL",
		"risk_level":   models.RiskLow,
		"source_type":  models.SourceEOLPartner,
		"description":  "Click to check EOL stock directly.",
		"delivery":     "Check Website",
		"datasheet":    "https://www.rocelec.com/search?q=" + query,
	}}, nil
}

// FlipElectronicsConnector points at Flip Electronics (EOL specialist).
type FlipElectronicsConnector struct{}

func NewFlipElectronicsConnector() *FlipElectronicsConnector { return &FlipElectronicsConnector{} }

func (f *FlipElectronicsConnector) Name() string { return "Flip Electronics" }

func (f *FlipElectronicsConnector) FetchPrices(ctx context.Context, query string) ([]models.RawOffer, error) {
	return []models.RawOffer{{
		"distributor":  "Flip Electronics",
		"mpn":          strings.ToUpper(query),
		"manufacturer": "Various",
		"stock":        0,
		"price":        0.0,
		"currency":     "USD",
		"condition":    "EOL / Obsolete",
		"risk_level":   models.RiskLow,
		"source_type":  models.SourceEOLPartner,
		"description":  "Authorized EOL Reseller",
		"delivery":     "Contact for Quote",
		"datasheet":    "https://www.flipelectronics.com/?s=" + query,
	}}, nil
}
