package portfolio

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/models"
)

func snapshot(prices map[string]float64) models.PriceSnapshot {
	quotes := make([]models.PriceQuote, 0, len(prices))
	for id, p := range prices {
		quotes = append(quotes, models.PriceQuote{ID: id, Name: id, Symbol: id[:3], CurrentPrice: p})
	}
	return models.NewPriceSnapshot("usd", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), quotes)
}

func TestValue_SingleAsset(t *testing.T) {
	holdings := models.Holdings{
		"bitcoin": {CurrencyID: "bitcoin", TotalCount: 0.5, AvgPrice: 100},
	}

	report := Value(holdings, snapshot(map[string]float64{"bitcoin": 150}))

	require.Len(t, report.Assets, 1)
	row := report.Assets[0]
	assert.True(t, row.Priced)
	assert.Equal(t, 150.0, row.CurrentPrice)
	assert.Equal(t, 75.0, row.CurrentValue)
	assert.Equal(t, 50.0, row.InvestedValue)
	assert.Equal(t, 25.0, row.ProfitLoss)
	assert.Equal(t, 50.0, row.ProfitLossPercent)
	assert.Equal(t, 100.0, row.ShareOfPortfolio)
	assert.Equal(t, 75.0, report.TotalCurrentValue)
	assert.Equal(t, "usd", report.Currency)
	assert.Empty(t, report.Unpriced)
}

func TestValue_ZeroInvestedHasZeroPercent(t *testing.T) {
	holdings := models.Holdings{
		"airdrop": {CurrencyID: "airdrop", TotalCount: 10, AvgPrice: 0},
	}

	report := Value(holdings, snapshot(map[string]float64{"airdrop": 2}))

	row := report.Assets[0]
	assert.Equal(t, 20.0, row.ProfitLoss)
	assert.Equal(t, 0.0, row.ProfitLossPercent)
	assert.False(t, math.IsNaN(row.ProfitLossPercent))
	assert.False(t, math.IsInf(report.TotalProfitLossPercent, 0))
	assert.Equal(t, 0.0, report.TotalProfitLossPercent)
}

func TestValue_MissingPriceIsFlagged(t *testing.T) {
	holdings := models.Holdings{
		"bitcoin":  {CurrencyID: "bitcoin", TotalCount: 1, AvgPrice: 30000},
		"obscure1": {CurrencyID: "obscure1", TotalCount: 500, AvgPrice: 2},
	}

	report := Value(holdings, snapshot(map[string]float64{"bitcoin": 40000}))

	require.Len(t, report.Assets, 2)
	assert.Equal(t, []string{"obscure1"}, report.Unpriced)

	unpriced := report.Assets[1]
	assert.Equal(t, "obscure1", unpriced.CurrencyID)
	assert.False(t, unpriced.Priced)
	assert.Equal(t, 0.0, unpriced.CurrentPrice)
	assert.Equal(t, 0.0, unpriced.CurrentValue)
	assert.Equal(t, 1000.0, unpriced.InvestedValue)
	assert.Equal(t, 0.0, unpriced.ProfitLoss)
	assert.Equal(t, 0.0, unpriced.ProfitLossPercent)
	assert.Equal(t, 0.0, unpriced.ShareOfPortfolio)

	assert.Equal(t, 40000.0, report.TotalCurrentValue)
	assert.Equal(t, 30000.0, report.TotalInvested)
	assert.Equal(t, 10000.0, report.TotalProfitLoss)
}

func TestValue_TotalsAndOrdering(t *testing.T) {
	holdings := models.Holdings{
		"ethereum": {CurrencyID: "ethereum", TotalCount: 1, AvgPrice: 2000},
		"bitcoin":  {CurrencyID: "bitcoin", TotalCount: 0.1, AvgPrice: 50000},
		"cardano":  {CurrencyID: "cardano", TotalCount: 100, AvgPrice: 1},
	}

	report := Value(holdings, snapshot(map[string]float64{
		"ethereum": 2500,
		"bitcoin":  60000,
		"cardano":  0.5,
	}))

	require.Len(t, report.Assets, 3)
	assert.Equal(t, "bitcoin", report.Assets[0].CurrencyID)
	assert.Equal(t, "ethereum", report.Assets[1].CurrencyID)
	assert.Equal(t, "cardano", report.Assets[2].CurrencyID)

	assert.Equal(t, 8550.0, report.TotalCurrentValue)
	assert.Equal(t, 7100.0, report.TotalInvested)
	assert.Equal(t, 1450.0, report.TotalProfitLoss)
	assert.Equal(t, -50.0, report.Assets[2].ProfitLossPercent)

	var share float64
	for _, a := range report.Assets {
		share += a.ShareOfPortfolio
	}
	assert.InDelta(t, 100.0, share, 1e-9)
}

func TestValue_EmptyHoldings(t *testing.T) {
	report := Value(models.Holdings{}, snapshot(map[string]float64{"bitcoin": 1}))

	assert.Empty(t, report.Assets)
	assert.Equal(t, 0.0, report.TotalCurrentValue)
	assert.Equal(t, 0.0, report.TotalProfitLossPercent)
}

func TestAggregateThenValue_Deterministic(t *testing.T) {
	deals := []models.Deal{
		deal(1, "bitcoin", 0.013, 43000.12),
		deal(2, "ethereum", 1.7, 2300.5),
		deal(3, "bitcoin", 0.2, 61000),
		deal(4, "ethereum", 0.3, 3100),
	}
	prices := snapshot(map[string]float64{"bitcoin": 64123.45, "ethereum": 3012.9})

	first := Value(Aggregate(deals), prices)
	second := Value(Aggregate(deals), prices)

	assert.Equal(t, first, second)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$1,234.50", FormatAmount(1234.5, "usd"))
	assert.Equal(t, "$75.00", FormatAmount(75, "USD"))
	assert.Equal(t, "10.00 XYZ", FormatAmount(10, "xyz"))
}
