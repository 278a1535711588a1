package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rare-source/internal/models"

	"github.com/go-resty/resty/v2"
)

// MouserConnector queries the Mouser Search API (v1).
type MouserConnector struct {
	apiKey  string
	baseURL string
	client  *resty.Client
}

type mouserSearchRequest struct {
	SearchByPartRequest struct {
		MouserPartNumber  string `json:"mouserPartNumber"`
		PartSearchOptions string `json:"partSearchOptions"`
	} `json:"SearchByPartRequest"`
}

type mouserSearchResponse struct {
	SearchResults struct {
		Parts []struct {
			ManufacturerPartNumber string `json:"ManufacturerPartNumber"`
			Manufacturer           string `json:"Manufacturer"`
			Availability           string `json:"Availability"`
			LeadTime               string `json:"LeadTime"`
			DataSheetURL           string `json:"DataSheetUrl"`
			Description            string `json:"Description"`
			PriceBreaks            []struct {
				Price    string `json:"Price"`
				Currency string `json:"Currency"`
			} `json:"PriceBreaks"`
		} `json:"Parts"`
	} `json:"SearchResults"`
}

func NewMouserConnector(apiKey string) *MouserConnector {
	client := resty.New()
	client.SetTimeout(10 * time.Second)

	return &MouserConnector{
		apiKey:  apiKey,
		baseURL: "https://api.mouser.com/api/v1/search/partnumber",
		client:  client,
	}
}

func (m *MouserConnector) Name() string { return "Mouser Electronics" }

func (m *MouserConnector) FetchPrices(ctx context.Context, query string) ([]models.RawOffer, error) {
	if m.apiKey == "" {
		return nil, fmt.Errorf("mouser api key not configured")
	}

	var body mouserSearchRequest
	body.SearchByPartRequest.MouserPartNumber = query
	body.SearchByPartRequest.PartSearchOptions = "string"

	resp, err := m.client.R().
		SetContext(ctx).
		SetQueryParam("apiKey", m.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(m.baseURL)
	if err != nil {
		return nil, fmt.Errorf("mouser request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("mouser returned status %d", resp.StatusCode())
	}

	var result mouserSearchResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("mouser response parse failed: %w", err)
	}

	var offers []models.RawOffer
	for _, item := range result.SearchResults.Parts {
		price := 0.0
		currency := "USD"
		if len(item.PriceBreaks) > 0 {
			pb := item.PriceBreaks[0]
			priceStr := strings.NewReplacer("$", "", ",", "").Replace(pb.Price)
			if p, err := strconv.ParseFloat(priceStr, 64); err == nil {
				price = p
			}
			if pb.Currency != "" {
				currency = pb.Currency
			}
		}

		mpn := item.ManufacturerPartNumber
		if mpn == "" {
			mpn = query
		}

		offers = append(offers, models.RawOffer{
			"distributor":  "Mouser Electronics (API)",
			"mpn":          mpn,
			"manufacturer": item.Manufacturer,
			"stock":        parseAvailability(item.Availability),
			"price":        price,
			"currency":     currency,
			"condition":    "New",
			"risk_level":   models.RiskLow,
			"source_type":  models.SourceOfficialAPI,
			"datasheet":    item.DataSheetURL,
			"description":  item.Description,
			"date_code":    "2024+",
			"delivery":     item.LeadTime,
		})
	}
	return offers, nil
}

// parseAvailability extracts the leading quantity from strings like
// "1,234 In Stock".
func parseAvailability(availability string) int {
	first := strings.SplitN(availability, " ", 2)[0]
	var digits strings.Builder
	for _, r := range first {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return n
}
