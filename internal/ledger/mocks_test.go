package ledger

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/models"
)

// MockDealStore is a mock implementation of DealStore for testing
type MockDealStore struct {
	mock.Mock
}

func (m *MockDealStore) ListDeals(ctx context.Context, userID int64) ([]models.Deal, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Deal), args.Error(1)
}

func (m *MockDealStore) CreateDeal(ctx context.Context, d models.Deal) (models.Deal, error) {
	args := m.Called(ctx, d)
	return args.Get(0).(models.Deal), args.Error(1)
}

func (m *MockDealStore) DeleteDeal(ctx context.Context, userID, id int64) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

// MockPriceSource is a mock implementation of PriceSource for testing
type MockPriceSource struct {
	mock.Mock
}

func (m *MockPriceSource) Supports(currency string) bool {
	args := m.Called(currency)
	return args.Bool(0)
}

func (m *MockPriceSource) Snapshot(ctx context.Context, currency string, ids ...string) (models.PriceSnapshot, error) {
	args := m.Called(ctx, currency, ids)
	return args.Get(0).(models.PriceSnapshot), args.Error(1)
}
