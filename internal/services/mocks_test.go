package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/models"
)

// MockMarketSource is a mock implementation of MarketSource for testing
type MockMarketSource struct {
	mock.Mock
}

func (m *MockMarketSource) FetchMarkets(ctx context.Context, vsCurrency string, ids []string) ([]models.PriceQuote, error) {
	args := m.Called(ctx, vsCurrency, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PriceQuote), args.Error(1)
}

// MockRateSource is a mock implementation of RateSource for testing
type MockRateSource struct {
	mock.Mock
}

func (m *MockRateSource) FetchRates(ctx context.Context) (models.ExchangeRates, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.ExchangeRates), args.Error(1)
}

// fakeClock is advanced by tests to expire cache entries.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }
