package models

import "time"

// AssetValuation is one row of a valuation report.
type AssetValuation struct {
	CurrencyID        string  `json:"currency_id"`
	Name              string  `json:"name,omitempty"`
	Symbol            string  `json:"symbol,omitempty"`
	Image             string  `json:"image,omitempty"`
	TotalCount        float64 `json:"total_count"`
	AvgPrice          float64 `json:"avg_price"`
	CurrentPrice      float64 `json:"current_price"`
	CurrentValue      float64 `json:"current_value"`       // TotalCount * CurrentPrice
	InvestedValue     float64 `json:"invested_value"`      // TotalCount * AvgPrice
	ProfitLoss        float64 `json:"profit_loss"`         // CurrentValue - InvestedValue
	ProfitLossPercent float64 `json:"profit_loss_percent"` // 0 when nothing was invested
	ShareOfPortfolio  float64 `json:"share_of_portfolio"`  // percent of TotalCurrentValue
	Priced            bool    `json:"priced"`              // false when the feed had no quote
}

// ValuationReport combines holdings and a price snapshot.
type ValuationReport struct {
	Currency               string           `json:"currency"`
	Assets                 []AssetValuation `json:"assets"`
	TotalCurrentValue      float64          `json:"total_current_value"`
	TotalInvested          float64          `json:"total_invested"`
	TotalProfitLoss        float64          `json:"total_profit_loss"`
	TotalProfitLossPercent float64          `json:"total_profit_loss_percent"`
	Unpriced               []string         `json:"unpriced"`
	GeneratedAt            time.Time        `json:"generated_at"`
}
