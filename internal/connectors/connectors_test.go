package connectors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"rare-source/internal/models"
)

func TestParseAvailability(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"1,234 In Stock", 1234},
		{"450 In Stock", 450},
		{"0", 0},
		{"None", 0},
		{"", 0},
	}
	for _, tc := range cases {
		if got := parseAvailability(tc.in); got != tc.want {
			t.Errorf("parseAvailability(%q): want %d, got %d", tc.in, tc.want, got)
		}
	}
}

func TestMouserFetchPrices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apiKey") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"SearchResults": {
				"Parts": [{
					"ManufacturerPartNumber": "LM358P",
					"Manufacturer": "Texas Instruments",
					"Availability": "4,520 In Stock",
					"LeadTime": "In Stock",
					"DataSheetUrl": "https://example.com/lm358.pdf",
					"Description": "Dual op-amp",
					"PriceBreaks": [{"Price": "$0.45", "Currency": "USD"}]
				}]
			}
		}`))
	}))
	defer server.Close()

	conn := NewMouserConnector("test-key")
	conn.baseURL = server.URL

	offers, err := conn.FetchPrices(context.Background(), "LM358")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(offers) != 1 {
		t.Fatalf("want 1 offer, got %d", len(offers))
	}

	raw := offers[0]
	if raw["mpn"] != "LM358P" {
		t.Errorf("mpn: %v", raw["mpn"])
	}
	if raw["stock"] != 4520 {
		t.Errorf("stock: %v", raw["stock"])
	}
	if raw["price"] != 0.45 {
		t.Errorf("price: %v", raw["price"])
	}
	if raw["source_type"] != models.SourceOfficialAPI {
		t.Errorf("source_type: %v", raw["source_type"])
	}
}

func TestMouserRequiresKey(t *testing.T) {
	conn := NewMouserConnector("")
	if _, err := conn.FetchPrices(context.Background(), "LM358"); err == nil {
		t.Error("want error without api key")
	}
}

func TestWinSourceDemoOfferWithoutToken(t *testing.T) {
	conn := NewWinSourceConnector("")
	offers, err := conn.FetchPrices(context.Background(), "lm358")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(offers) != 1 {
		t.Fatalf("want 1 demo offer, got %d", len(offers))
	}
	if offers[0]["mpn"] != "LM358" {
		t.Errorf("demo mpn must be upper-cased: %v", offers[0]["mpn"])
	}
}

func TestDeepLinkConnectors(t *testing.T) {
	for _, conn := range []Connector{
		NewArrowConnector(),
		NewFutureElectronicsConnector(),
		NewRSComponentsConnector(),
	} {
		offers, err := conn.FetchPrices(context.Background(), "lm358")
		if err != nil {
			t.Fatalf("%s: %v", conn.Name(), err)
		}
		if len(offers) != 1 {
			t.Fatalf("%s: want 1 stub offer, got %d", conn.Name(), len(offers))
		}
		raw := offers[0]
		if raw["stock"] != -1 {
			t.Errorf("%s: deep links use the -1 stock sentinel, got %v", conn.Name(), raw["stock"])
		}
		if raw["source_type"] != models.SourceDeepLink {
			t.Errorf("%s: source_type %v", conn.Name(), raw["source_type"])
		}
	}
}

func TestEOLConnectors(t *testing.T) {
	for _, conn := range []Connector{NewRochesterConnector(), NewFlipElectronicsConnector()} {
		offers, err := conn.FetchPrices(context.Background(), "lm358")
		if err != nil {
			t.Fatalf("%s: %v", conn.Name(), err)
		}
		if len(offers) != 1 {
			t.Fatalf("%s: want 1 offer, got %d", conn.Name(), len(offers))
		}
		if offers[0]["source_type"] != models.SourceEOLPartner {
			t.Errorf("%s: source_type %v", conn.Name(), offers[0]["source_type"])
		}
	}
}

func TestFallbackConnectorShape(t *testing.T) {
	offers, err := NewFallbackConnector().FetchPrices(context.Background(), "LM358")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(offers) != 1 {
		t.Fatalf("want 1 offer, got %d", len(offers))
	}
	raw := offers[0]
	if raw["source_type"] != models.SourceFallback {
		t.Errorf("source_type: %v", raw["source_type"])
	}
	if raw["risk_level"] != models.RiskHigh {
		t.Errorf("risk_level: %v", raw["risk_level"])
	}
	if raw["stock"] != 0 || raw["price"] != 0.0 {
		t.Errorf("fallback must carry zero stock and price: %v %v", raw["stock"], raw["price"])
	}
}

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"[{\"mpn\":\"X\"}]", "[{\"mpn\":\"X\"}]"},
		{"```json\n[1,2]\n```", "[1,2]"},
		{"```\n[]\n```", "[]"},
	}
	for _, tc := range cases {
		if got := stripCodeFences(tc.in); got != tc.want {
			t.Errorf("stripCodeFences(%q): want %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestAIParserExtract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices": [{
				"message": {"content": "` + "```json\\n[{\\\"distributor\\\":\\\"Chip One Stop\\\",\\\"mpn\\\":\\\"LM358\\\",\\\"price\\\":0.5,\\\"stock\\\":100}]\\n```" + `"}
			}]
		}`))
	}))
	defer server.Close()

	parser := NewAIParser("test-key")
	parser.url = server.URL

	items, err := parser.Extract(context.Background(), "<html></html>", "LM358")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("want 1 item, got %d", len(items))
	}
	if items[0].Distributor != "Chip One Stop" || items[0].Price != 0.5 || items[0].Stock != 100 {
		t.Errorf("unexpected item: %+v", items[0])
	}
}
