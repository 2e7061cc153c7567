package models

import "time"

// PriceQuote is the market data for one asset in one fiat currency.
type PriceQuote struct {
	ID                string  `json:"id"`
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	Image             string  `json:"image"`
	CurrentPrice      float64 `json:"current_price"`
	PriceChange24Hour float64 `json:"price_change_24h"`
	MarketCap         float64 `json:"market_cap"`
}

// PriceSnapshot is a point-in-time view of quotes keyed by asset id.
type PriceSnapshot struct {
	Currency  string                `json:"currency"`
	FetchedAt time.Time             `json:"fetched_at"`
	Quotes    map[string]PriceQuote `json:"quotes"`
}

// NewPriceSnapshot indexes quotes by asset id.
func NewPriceSnapshot(currency string, fetchedAt time.Time, quotes []PriceQuote) PriceSnapshot {
	snap := PriceSnapshot{
		Currency:  currency,
		FetchedAt: fetchedAt,
		Quotes:    make(map[string]PriceQuote, len(quotes)),
	}
	for _, q := range quotes {
		snap.Quotes[q.ID] = q
	}
	return snap
}

// Quote returns the quote for id, if the snapshot has one.
func (s PriceSnapshot) Quote(id string) (PriceQuote, bool) {
	q, ok := s.Quotes[id]
	return q, ok
}

// ExchangeRates holds USD based conversion rates.
type ExchangeRates struct {
	Base      string             `json:"base_code"`
	Rates     map[string]float64 `json:"conversion_rates"`
	UpdatedAt time.Time          `json:"-"`
}
