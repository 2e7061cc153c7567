package portfolio

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Value prices every holding against snap. Holdings without a quote are kept
// with a zero value, marked unpriced and left out of totals and percentages.
func Value(holdings models.Holdings, snap models.PriceSnapshot) models.ValuationReport {
	report := models.ValuationReport{
		Currency: snap.Currency,
		Assets:   make([]models.AssetValuation, 0, len(holdings)),
		Unpriced: []string{},
	}

	totalValue := decimal.Zero
	totalInvested := decimal.Zero
	values := make([]decimal.Decimal, 0, len(holdings))

	for _, id := range sortedIDs(holdings) {
		h := holdings[id]
		if h.TotalCount <= 0 {
			continue
		}
		count := decimal.NewFromFloat(h.TotalCount)
		invested := count.Mul(decimal.NewFromFloat(h.AvgPrice))

		row := models.AssetValuation{
			CurrencyID:    id,
			TotalCount:    h.TotalCount,
			AvgPrice:      h.AvgPrice,
			InvestedValue: invested.InexactFloat64(),
		}

		quote, ok := snap.Quote(id)
		if !ok {
			report.Unpriced = append(report.Unpriced, id)
			report.Assets = append(report.Assets, row)
			values = append(values, decimal.Zero)
			continue
		}

		current := count.Mul(decimal.NewFromFloat(quote.CurrentPrice))
		pl := current.Sub(invested)

		row.Name = quote.Name
		row.Symbol = quote.Symbol
		row.Image = quote.Image
		row.Priced = true
		row.CurrentPrice = quote.CurrentPrice
		row.CurrentValue = current.InexactFloat64()
		row.ProfitLoss = pl.InexactFloat64()
		row.ProfitLossPercent = percent(pl, invested)

		totalValue = totalValue.Add(current)
		totalInvested = totalInvested.Add(invested)
		report.Assets = append(report.Assets, row)
		values = append(values, current)
	}

	for i := range report.Assets {
		report.Assets[i].ShareOfPortfolio = percent(values[i], totalValue)
	}

	sort.SliceStable(report.Assets, func(i, j int) bool {
		a, b := report.Assets[i], report.Assets[j]
		if a.CurrentValue != b.CurrentValue {
			return a.CurrentValue > b.CurrentValue
		}
		return a.CurrencyID < b.CurrencyID
	})

	totalPL := totalValue.Sub(totalInvested)
	report.TotalCurrentValue = totalValue.InexactFloat64()
	report.TotalInvested = totalInvested.InexactFloat64()
	report.TotalProfitLoss = totalPL.InexactFloat64()
	report.TotalProfitLossPercent = percent(totalPL, totalInvested)
	report.GeneratedAt = snap.FetchedAt
	return report
}

// percent returns part/whole*100, or 0 when whole is not positive.
func percent(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}
	return part.Div(whole).Mul(hundred).InexactFloat64()
}

func sortedIDs(h models.Holdings) []string {
	ids := h.IDs()
	sort.Strings(ids)
	return ids
}
