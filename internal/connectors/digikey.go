package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"rare-source/internal/models"

	"github.com/go-resty/resty/v2"
)

// DigiKeyConnector queries the Digi-Key Product Information API v4.
// Access tokens come from the OAuth2 client-credentials flow and are
// cached until shortly before expiry.
type DigiKeyConnector struct {
	clientID     string
	clientSecret string
	tokenURL     string
	searchURL    string
	client       *resty.Client

	mu             sync.Mutex
	accessToken    string
	tokenExpiresAt time.Time
}

type digiKeyTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type digiKeySearchResponse struct {
	Products []struct {
		ManufacturerPartNumber string  `json:"ManufacturerPartNumber"`
		UnitPrice              float64 `json:"UnitPrice"`
		QuantityAvailable      int     `json:"QuantityAvailable"`
		DatasheetURL           string  `json:"DatasheetUrl"`
		ProductDescription     string  `json:"ProductDescription"`
		Manufacturer           struct {
			Value string `json:"Value"`
		} `json:"Manufacturer"`
	} `json:"Products"`
}

func NewDigiKeyConnector(clientID, clientSecret string) *DigiKeyConnector {
	client := resty.New()
	client.SetTimeout(10 * time.Second)

	return &DigiKeyConnector{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     "https://api.digikey.com/v1/oauth2/token",
		searchURL:    "https://api.digikey.com/products/v4/search/keyword",
		client:       client,
	}
}

func (d *DigiKeyConnector) Name() string { return "Digi-Key Electronics" }

func (d *DigiKeyConnector) token(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.accessToken != "" && time.Now().Before(d.tokenExpiresAt) {
		return d.accessToken, nil
	}
	if d.clientID == "" || d.clientSecret == "" {
		return "", fmt.Errorf("digikey credentials not configured")
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    "client_credentials",
			"client_id":     d.clientID,
			"client_secret": d.clientSecret,
		}).
		Post(d.tokenURL)
	if err != nil {
		return "", fmt.Errorf("digikey token request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("digikey token endpoint returned status %d", resp.StatusCode())
	}

	var tok digiKeyTokenResponse
	if err := json.Unmarshal(resp.Body(), &tok); err != nil {
		return "", fmt.Errorf("digikey token parse failed: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("digikey token response missing access_token")
	}

	expiresIn := tok.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 3600
	}
	d.accessToken = tok.AccessToken
	// 60s buffer so a token never expires mid-request
	d.tokenExpiresAt = time.Now().Add(time.Duration(expiresIn-60) * time.Second)
	return d.accessToken, nil
}

func (d *DigiKeyConnector) FetchPrices(ctx context.Context, query string) ([]models.RawOffer, error) {
	token, err := d.token(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetHeader("X-DIGIKEY-Client-Id", d.clientID).
		SetHeader("X-DIGIKEY-Locale-Site", "US").
		SetHeader("X-DIGIKEY-Locale-Language", "en").
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{"Keywords": query, "Limit": 10}).
		Post(d.searchURL)
	if err != nil {
		return nil, fmt.Errorf("digikey search failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("digikey returned status %d", resp.StatusCode())
	}

	var result digiKeySearchResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("digikey response parse failed: %w", err)
	}

	var offers []models.RawOffer
	for _, item := range result.Products {
		mpn := item.ManufacturerPartNumber
		if mpn == "" {
			mpn = query
		}
		manufacturer := item.Manufacturer.Value
		if manufacturer == "" {
			manufacturer = "Unknown"
		}
		delivery := "Backorder"
		if item.QuantityAvailable > 0 {
			delivery = "Immediate"
		}

		offers = append(offers, models.RawOffer{
			"distributor":  "Digi-Key Electronics (API)",
			"mpn":          mpn,
			"manufacturer": manufacturer,
			"stock":        item.QuantityAvailable,
			"price":        item.UnitPrice,
			"currency":     "USD",
			"condition":    "New",
			"risk_level":   models.RiskLow,
			"source_type":  models.SourceOfficialAPI,
			"datasheet":    item.DatasheetURL,
			"description":  item.ProductDescription,
			"date_code":    "2024+",
			"delivery":     delivery,
		})
	}
	return offers, nil
}
