package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"rare-source/internal/models"

	"github.com/go-resty/resty/v2"
)

const (
	findChipsUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxHTMLLength      = 8000
)

// FindChipsConnector scrapes findchips.com search pages and hands the
// HTML to an AI extractor to pull structured offers out of the markup.
type FindChipsConnector struct {
	baseURL string
	client  *resty.Client
	parser  *AIParser
}

// AIParser extracts component offers from raw HTML via the OpenAI
// chat-completions API.
type AIParser struct {
	apiKey string
	url    string
	model  string
	client *resty.Client
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type extractedItem struct {
	Distributor  string  `json:"distributor"`
	MPN          string  `json:"mpn"`
	Manufacturer string  `json:"manufacturer"`
	Stock        int     `json:"stock"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	Delivery     string  `json:"delivery"`
	Description  string  `json:"description"`
}

func NewFindChipsConnector(openAIKey string) *FindChipsConnector {
	client := resty.New()
	client.SetTimeout(15 * time.Second)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))

	return &FindChipsConnector{
		baseURL: "https://www.findchips.com/search",
		client:  client,
		parser:  NewAIParser(openAIKey),
	}
}

func NewAIParser(apiKey string) *AIParser {
	client := resty.New()
	client.SetTimeout(30 * time.Second)

	return &AIParser{
		apiKey: apiKey,
		url:    "https://api.openai.com/v1/chat/completions",
		model:  "gpt-4o-mini",
		client: client,
	}
}

func (f *FindChipsConnector) Name() string { return "FindChips" }

func (f *FindChipsConnector) FetchPrices(ctx context.Context, query string) ([]models.RawOffer, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", findChipsUserAgent).
		Get(f.baseURL + "/" + query)
	if err != nil {
		return nil, fmt.Errorf("findchips request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("findchips returned status %d", resp.StatusCode())
	}

	items, err := f.parser.Extract(ctx, string(resp.Body()), query)
	if err != nil {
		return nil, err
	}

	var offers []models.RawOffer
	for _, item := range items {
		distributor := item.Distributor
		if distributor == "" {
			distributor = "FindChips Source"
		}
		mpn := item.MPN
		if mpn == "" {
			mpn = strings.ToUpper(query)
		}
		currency := item.Currency
		if currency == "" {
			currency = "USD"
		}
		delivery := item.Delivery
		if delivery == "" {
			delivery = "Check Distributor"
		}

		offers = append(offers, models.RawOffer{
			"distributor":  distributor,
			"mpn":          mpn,
			"manufacturer": item.Manufacturer,
			"stock":        item.Stock,
			"price":        item.Price,
			"currency":     currency,
			"condition":    "New",
			"risk_level":   models.RiskLow,
			"source_type":  "FindChips (AI Parsed)",
			"description":  item.Description,
			"delivery":     delivery,
			"date_code":    "2024+",
			"datasheet":    "https://www.findchips.com/search/" + query,
		})
	}
	return offers, nil
}

// Extract asks the model for a JSON array of offers found in the HTML.
func (p *AIParser) Extract(ctx context.Context, html, partNumber string) ([]extractedItem, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("openai api key not configured")
	}

	// Truncate to keep token usage bounded
	if len(html) > maxHTMLLength {
		html = html[:maxHTMLLength] + "..."
	}

	prompt := fmt.Sprintf(`Extract electronic component data from the following HTML and return ONLY a JSON array.
Each item should have these fields:
- distributor (string)
- mpn (string, the manufacturer part number)
- manufacturer (string)
- stock (integer, 0 if unknown)
- price (float, 0 if unknown)
- currency (string, default "USD")
- delivery (string)
- description (string, brief)

Part Number: %s

HTML:
%s

Return ONLY the JSON array, no markdown formatting or explanations.`, partNumber, html)

	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+p.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{
			"model": p.model,
			"messages": []map[string]string{
				{"role": "system", "content": "You are a data extraction assistant. Return only valid JSON arrays."},
				{"role": "user", "content": prompt},
			},
			"temperature": 0.1,
			"max_tokens":  2000,
		}).
		Post(p.url)
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("openai returned status %d", resp.StatusCode())
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(resp.Body(), &completion); err != nil {
		return nil, fmt.Errorf("openai response parse failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	content := stripCodeFences(completion.Choices[0].Message.Content)

	var items []extractedItem
	if err := json.Unmarshal([]byte(content), &items); err != nil {
		return nil, fmt.Errorf("openai returned invalid JSON: %w", err)
	}

	log.Printf("[findchips] AI extracted %d items for %s", len(items), partNumber)
	return items, nil
}

// stripCodeFences removes a surrounding ```json ... ``` block if present.
func stripCodeFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
