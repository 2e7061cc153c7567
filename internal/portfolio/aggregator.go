// Package portfolio folds deals into holdings and values holdings against a
// price snapshot. Everything here is a pure function of its inputs.
package portfolio

import (
	"github.com/shopspring/decimal"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/models"
)

// avgPricePlaces is the minimum number of decimal places kept when dividing
// cost by count.
const avgPricePlaces = 40

type accumulator struct {
	count decimal.Decimal
	cost  decimal.Decimal
}

// Aggregate groups deals by asset and computes, for each asset, the total
// count and the weighted-average cost: the sum of count*price divided by the
// total count. Order of deals does not matter. An empty input yields an empty
// map.
func Aggregate(deals []models.Deal) models.Holdings {
	acc := make(map[string]*accumulator)
	for _, d := range deals {
		a, ok := acc[d.CurrencyID]
		if !ok {
			a = &accumulator{count: decimal.Zero, cost: decimal.Zero}
			acc[d.CurrencyID] = a
		}
		count := decimal.NewFromFloat(d.Count)
		a.count = a.count.Add(count)
		a.cost = a.cost.Add(count.Mul(decimal.NewFromFloat(d.Price)))
	}

	holdings := make(models.Holdings, len(acc))
	for id, a := range acc {
		if !a.count.IsPositive() {
			continue
		}
		holdings[id] = models.Holding{
			CurrencyID: id,
			TotalCount: a.count.InexactFloat64(),
			AvgPrice:   a.avgPrice().InexactFloat64(),
			TotalCost:  a.cost.InexactFloat64(),
		}
	}
	return holdings
}

// avgPrice divides with enough places that a lone deal gets its exact price
// back, however small.
func (a *accumulator) avgPrice() decimal.Decimal {
	places := int32(avgPricePlaces)
	if e := a.count.Exponent() - a.cost.Exponent(); e > 0 {
		places += e
	}
	return a.cost.DivRound(a.count, places)
}
