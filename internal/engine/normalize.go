package engine

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"rare-source/internal/models"
)

// riskRules maps condition-text substrings to risk levels, checked in
// order with first match winning. An explicit risk_level on the raw offer
// overrides the table.
var riskRules = []struct {
	Substring string
	Level     string
}{
	{"Refurbished", models.RiskHigh},
	{"Old Stock", models.RiskMedium},
}

// eolMarkers flag a condition text as end-of-life stock.
var eolMarkers = []string{"Old Stock", "Refurbished"}

// Normalize maps a heterogeneous raw offer onto the canonical schema.
// It never fails: missing fields take per-field defaults and ambiguous
// names resolve through a fixed alias order. Price stays in the source
// currency here; the pricing transform localizes it afterwards.
func Normalize(raw models.RawOffer) models.Offer {
	condition := rawString(raw, "New", "condition")

	return models.Offer{
		ID:           newOfferID(),
		MPN:          rawString(raw, "N/A", "mpn"),
		Manufacturer: rawString(raw, "Unknown", "manufacturer", "mfr"),
		Distributor:  rawString(raw, "Unknown", "distributor"),
		SourceType:   rawString(raw, models.SourceAPI, "source_type", "type"),
		Stock:        rawInt(raw, 0, "stock"),
		Price:        rawFloat(raw, 0, "price", "price_usd"),
		Currency:     rawString(raw, "USD", "currency"),
		Delivery:     rawString(raw, "Unknown", "delivery"),
		Condition:    condition,
		DateCode:     rawString(raw, "N/A", "date_code"),
		IsEOL:        isEOL(condition),
		RiskLevel:    rawString(raw, classifyRisk(condition), "risk_level"),
		UpdatedAt:    time.Now(),
		Datasheet:    rawString(raw, "", "datasheet"),
		Description:  rawString(raw, "", "description"),
	}
}

func classifyRisk(condition string) string {
	for _, rule := range riskRules {
		if strings.Contains(condition, rule.Substring) {
			return rule.Level
		}
	}
	return models.RiskLow
}

func isEOL(condition string) bool {
	for _, marker := range eolMarkers {
		if strings.Contains(condition, marker) {
			return true
		}
	}
	return false
}

// newOfferID returns a short random token, unique per normalization.
func newOfferID() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return hex.EncodeToString([]byte(time.Now().Format("150405.000")))[:12]
	}
	return hex.EncodeToString(buf)
}

// rawString resolves the first present non-empty string among keys.
func rawString(raw models.RawOffer, def string, keys ...string) string {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return def
}

// rawFloat resolves the first present numeric value among keys. Connector
// payloads that pass through encoding/json arrive as float64; hand-built
// offers may carry int or float literals.
func rawFloat(raw models.RawOffer, def float64, keys ...string) float64 {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n
		case float32:
			return float64(n)
		case int:
			return float64(n)
		case int64:
			return float64(n)
		}
	}
	return def
}

func rawInt(raw models.RawOffer, def int, keys ...string) int {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return def
}
