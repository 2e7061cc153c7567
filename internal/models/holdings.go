package models

// Holding is the per-asset aggregate of every deal a user holds. It is always
// derived from deals and never stored.
type Holding struct {
	CurrencyID string  `json:"currency_id"`
	TotalCount float64 `json:"total_count"` // sum of deal counts
	AvgPrice   float64 `json:"avg_price"`   // weighted-average cost per unit
	TotalCost  float64 `json:"total_cost"`  // sum of count * price
}

// Holdings maps an asset id to its holding.
type Holdings map[string]Holding

// IDs returns the asset ids present in h.
func (h Holdings) IDs() []string {
	ids := make([]string, 0, len(h))
	for id := range h {
		ids = append(ids, id)
	}
	return ids
}
