package connectors

import (
	"context"
	"strings"

	"rare-source/internal/models"
)

// DeepLinkConnector produces a static search-link stub for broadline
// distributors that expose no public API. Stock -1 means "unknown, check
// the distributor's site".
type DeepLinkConnector struct {
	distributor string
	searchURL   func(query string) string
}

func NewArrowConnector() *DeepLinkConnector {
	return &DeepLinkConnector{
		distributor: "Arrow Electronics",
		// Bot protection blocks direct search links
		searchURL: func(string) string { return "https://www.arrow.com" },
	}
}

func NewFutureElectronicsConnector() *DeepLinkConnector {
	return &DeepLinkConnector{
		distributor: "Future Electronics",
		searchURL: func(query string) string {
			return "https://www.futureelectronics.com/c/semiconductors/" + query
		},
	}
}

func NewRSComponentsConnector() *DeepLinkConnector {
	return &DeepLinkConnector{
		distributor: "RS Components",
		searchURL: func(query string) string {
			return "https://uk.rs-online.com/web/c/?searchTerm=" + query
		},
	}
}

func (d *DeepLinkConnector) Name() string { return d.distributor }

func (d *DeepLinkConnector) FetchPrices(ctx context.Context, query string) ([]models.RawOffer, error) {
	return []models.RawOffer{{
		"distributor":  d.distributor,
		"mpn":          strings.ToUpper(query),
		"manufacturer": "Various",
		"stock":        -1,
		"price":        0.0,
		"currency":     "USD",
		"condition":    "New",
		"risk_level":   models.RiskLow,
		"source_type":  models.SourceDeepLink,
		"description":  "Global Distributor",
		"delivery":     "Check Website",
		"datasheet":    d.searchURL(query),
	}}, nil
}
