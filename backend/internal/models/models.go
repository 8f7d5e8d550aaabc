package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Asset represents a tracked cryptocurrency as stored by the backend
type Asset struct {
	ID     int    `json:"id"`
	Symbol string `json:"symbol"` // Uppercase ticker, e.g. "BTC"
	Name   string `json:"name"`   // e.g. "Bitcoin"
}

// AssetInput is the body sent to the backend when creating or updating an asset
type AssetInput struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// PriceSample is one price/volume/change snapshot captured by a sync call.
// Samples are immutable once created.
type PriceSample struct {
	Price            float64   `json:"price"`
	Volume           float64   `json:"volume"`
	PercentChange24h float64   `json:"percent_change_24h"`
	CapturedAt       time.Time `json:"captured_at"`
}

// HistoryEntry is a price sample persisted by the backend
type HistoryEntry struct {
	ID               int       `json:"id"`
	CryptoID         int       `json:"crypto_id"`
	Price            float64   `json:"price"`
	Volume           float64   `json:"volume"`
	PercentChange24h float64   `json:"percent_change_24h"`
	Timestamp        time.Time `json:"timestamp"`
}

// Side is the direction of a simulated order
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

func (s Side) String() string { return string(s) }

// Valid reports whether s is one of the known sides.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// ParseSide accepts "buy"/"sell" in any case, surrounding whitespace ignored.
func ParseSide(raw string) (Side, error) {
	side := Side(strings.ToLower(strings.TrimSpace(raw)))
	if !side.Valid() {
		return "", fmt.Errorf("invalid side %q, must be 'buy' or 'sell'", raw)
	}
	return side, nil
}

// Order represents an executed simulated order
type Order struct {
	ID       uuid.UUID `json:"id"`
	Side     Side      `json:"side"`
	Symbol   string    `json:"symbol"`
	Amount   float64   `json:"amount"` // Units of the asset, always > 0
	Price    float64   `json:"price"`  // Price snapshot at execution time
	Total    float64   `json:"total"`  // Amount * Price
	PlacedAt time.Time `json:"placed_at"`
}

// NormalizeSymbol trims and upper-cases a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
