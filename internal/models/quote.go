package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a spot price and 24h change for one coin, fetched per request and never stored.
type Quote struct {
	CoinID    string              `json:"coin_id"`
	Currency  string              `json:"currency"`
	Price     decimal.NullDecimal `json:"price"`
	Change24h decimal.NullDecimal `json:"change_24h"`
}

// Coin is a quote source catalog entry.
type Coin struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

type CoinSearchResult struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Thumb  string `json:"thumb,omitempty"`
	Large  string `json:"large,omitempty"`
}

type ChartPoint struct {
	Timestamp time.Time       `json:"timestamp"`
	Price     decimal.Decimal `json:"price"`
}

type CoinDetails struct {
	ID           string                     `json:"id"`
	Symbol       string                     `json:"symbol"`
	Name         string                     `json:"name"`
	Image        string                     `json:"image,omitempty"`
	CurrentPrice map[string]decimal.Decimal `json:"current_price,omitempty"`
}

// EnrichedAsset is a portfolio row merged with its live quote. Built fresh on every
// aggregation pass and never mutated afterwards.
type EnrichedAsset struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Change24h decimal.Decimal `json:"change"`
	Quantity  decimal.Decimal `json:"quantity"`
	Value     decimal.Decimal `json:"value"`
	Item      PortfolioItem   `json:"raw"`
}

// PortfolioSnapshot is the result of one aggregation pass. Degraded marks a pass where
// the store or the quote source failed, so an empty list can be told apart from no data.
type PortfolioSnapshot struct {
	Assets     []EnrichedAsset `json:"assets"`
	TotalValue decimal.Decimal `json:"total_value"`
	Degraded   bool            `json:"degraded"`
	Reason     string          `json:"reason,omitempty"`
	LoadedAt   time.Time       `json:"loaded_at"`
}
