package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"rare-source/internal/models"

	"github.com/go-resty/resty/v2"
)

// WinSourceConnector queries the Win Source search API. Without an access
// token it serves a single demo offer so the source still shows up in
// development environments.
type WinSourceConnector struct {
	accessToken string
	baseURL     string
	client      *resty.Client
}

type winSourceResponse struct {
	Results []struct {
		PartNumber    string  `json:"part_number"`
		Manufacturer  string  `json:"manufacturer"`
		StockQuantity int     `json:"stock_quantity"`
		Price         float64 `json:"price"`
		Currency      string  `json:"currency"`
		Datasheet     string  `json:"datasheet"`
		Description   string  `json:"description"`
		DateCode      string  `json:"datecode"`
	} `json:"results"`
}

func NewWinSourceConnector(accessToken string) *WinSourceConnector {
	client := resty.New()
	client.SetTimeout(10 * time.Second)

	return &WinSourceConnector{
		accessToken: accessToken,
		baseURL:     "https://api.winsource.com/v1/search",
		client:      client,
	}
}

func (w *WinSourceConnector) Name() string { return "Win Source" }

func (w *WinSourceConnector) FetchPrices(ctx context.Context, query string) ([]models.RawOffer, error) {
	if w.accessToken == "" {
		return w.demoOffer(query), nil
	}

	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+w.accessToken).
		SetQueryParam("q", query).
		Get(w.baseURL)
	if err != nil {
		return nil, fmt.Errorf("win source request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("win source returned status %d", resp.StatusCode())
	}

	var result winSourceResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("win source response parse failed: %w", err)
	}

	var offers []models.RawOffer
	for _, item := range result.Results {
		mpn := item.PartNumber
		if mpn == "" {
			mpn = query
		}
		currency := item.Currency
		if currency == "" {
			currency = "USD"
		}

		offers = append(offers, models.RawOffer{
			"distributor":  "Win Source",
			"mpn":          mpn,
			"manufacturer": item.Manufacturer,
			"stock":        item.StockQuantity,
			"price":        item.Price,
			"currency":     currency,
			"condition":    "New",
			"risk_level":   models.RiskLow,
			"source_type":  models.SourceOfficialAPI,
			"datasheet":    item.Datasheet,
			"description":  item.Description,
			"date_code":    item.DateCode,
			"delivery":     "3-5 Days",
		})
	}
	return offers, nil
}

func (w *WinSourceConnector) demoOffer(query string) []models.RawOffer {
	return []models.RawOffer{{
		"distributor":  "Win Source Electronics",
		"mpn":          strings.ToUpper(query),
		"manufacturer": "Various",
		"stock":        850,
		"price":        15.20,
		"currency":     "USD",
		"condition":    "New Original",
		"risk_level":   models.RiskLow,
		"source_type":  "Official API (Demo)",
		"description":  "High reliability component",
		"delivery":     "2-3 Days",
		"date_code":    "2024",
		"datasheet":    "https://www.win-source.net/",
	}}
}
