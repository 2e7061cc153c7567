package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/models"
)

func deal(id int64, currency string, count, price float64) models.Deal {
	return models.Deal{
		ID:         id,
		UserID:     1,
		CurrencyID: currency,
		Count:      count,
		Price:      price,
		CreatedAt:  time.Date(2024, 1, int(id), 0, 0, 0, 0, time.UTC),
	}
}

func TestAggregate_Empty(t *testing.T) {
	holdings := Aggregate(nil)

	require.NotNil(t, holdings)
	assert.Empty(t, holdings)
}

func TestAggregate_WeightedAverage(t *testing.T) {
	holdings := Aggregate([]models.Deal{
		deal(1, "bitcoin", 2, 10),
		deal(2, "bitcoin", 1, 40),
	})

	require.Contains(t, holdings, "bitcoin")
	h := holdings["bitcoin"]
	assert.Equal(t, 3.0, h.TotalCount)
	assert.Equal(t, 20.0, h.AvgPrice)
	assert.NotEqual(t, 25.0, h.AvgPrice, "deals must be weighted by count")
	assert.Equal(t, 60.0, h.TotalCost)
}

func TestAggregate_SingleDealKeepsItsPrice(t *testing.T) {
	tests := []struct {
		name  string
		count float64
		price float64
	}{
		{"whole units", 3, 250},
		{"fractional count", 0.1, 3},
		{"fractional price", 0.7, 43210.55},
		{"tiny count", 0.00012345, 61234.5},
		{"seventeen significant digits", 1, 0.12345678901234568},
		{"sub-cent token", 1, 1.23456789e-9},
		{"sub-cent token fractional count", 0.25, 1.23456789e-9},
		{"three units of a micro price", 3, 1.234567891234e-5},
		{"long price with long count", 0.123456789, 98765.4321012345},
		{"below sixteen places", 2, 1e-20},
		{"far below forty places", 1, 4.56789e-45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			holdings := Aggregate([]models.Deal{deal(1, "ethereum", tt.count, tt.price)})

			assert.Equal(t, tt.price, holdings["ethereum"].AvgPrice)
			assert.Equal(t, tt.count, holdings["ethereum"].TotalCount)
		})
	}
}

func TestAggregate_QuantityIsExactSum(t *testing.T) {
	holdings := Aggregate([]models.Deal{
		deal(1, "solana", 0.1, 100),
		deal(2, "solana", 0.2, 110),
	})

	assert.Equal(t, 0.3, holdings["solana"].TotalCount)
}

func TestAggregate_OrderIndependent(t *testing.T) {
	deals := []models.Deal{
		deal(1, "bitcoin", 0.013, 43000.12),
		deal(2, "ethereum", 1.7, 2300.5),
		deal(3, "bitcoin", 0.2, 61000),
		deal(4, "bitcoin", 0.0071, 27999.99),
		deal(5, "ethereum", 0.3, 3100),
	}
	reversed := make([]models.Deal, len(deals))
	for i, d := range deals {
		reversed[len(deals)-1-i] = d
	}
	shuffled := []models.Deal{deals[2], deals[4], deals[0], deals[3], deals[1]}

	want := Aggregate(deals)
	assert.Equal(t, want, Aggregate(reversed))
	assert.Equal(t, want, Aggregate(shuffled))
}

func TestAggregate_GroupsByAsset(t *testing.T) {
	holdings := Aggregate([]models.Deal{
		deal(1, "bitcoin", 1, 30000),
		deal(2, "ethereum", 2, 2000),
		deal(3, "bitcoin", 1, 50000),
	})

	require.Len(t, holdings, 2)
	assert.Equal(t, 40000.0, holdings["bitcoin"].AvgPrice)
	assert.Equal(t, 2000.0, holdings["ethereum"].AvgPrice)
	assert.Equal(t, 2.0, holdings["ethereum"].TotalCount)
}

func TestAggregate_RemovedDealLeavesNoResidue(t *testing.T) {
	deals := []models.Deal{
		deal(1, "bitcoin", 1, 30000),
		deal(2, "dogecoin", 1000, 0.08),
	}
	require.Contains(t, Aggregate(deals), "dogecoin")

	holdings := Aggregate(deals[:1])

	assert.NotContains(t, holdings, "dogecoin")
	assert.Len(t, holdings, 1)
}
