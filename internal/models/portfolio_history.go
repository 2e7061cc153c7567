package models

import "time"

// PortfolioSnapshot is the daily record of a user's valued portfolio. One row
// per user and day; MaxValue and MinValue track the range seen that day.
type PortfolioSnapshot struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user_id"`
	Date             time.Time `json:"date"`
	TotalValue       float64   `json:"total_value"`
	TotalInvested    float64   `json:"total_invested"`
	Profit           float64   `json:"profit"`
	ProfitPercentage float64   `json:"profit_percentage"`
	MaxValue         float64   `json:"max_value"`
	MinValue         float64   `json:"min_value"`
}

type PortfolioChartData struct {
	Labels []string  `json:"labels"` // dates, YYYY-MM-DD
	Values []float64 `json:"values"` // total values
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
}
