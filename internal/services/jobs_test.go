package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/models"
)

type MockOwnerLister struct{ mock.Mock }

func (m *MockOwnerLister) ListUserIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

type MockReportSource struct{ mock.Mock }

func (m *MockReportSource) SnapshotReport(ctx context.Context, sess models.Session, currency string) (models.ValuationReport, error) {
	args := m.Called(ctx, sess.UserID, currency)
	return args.Get(0).(models.ValuationReport), args.Error(1)
}

type MockBookEvicter struct{ mock.Mock }

func (m *MockBookEvicter) EvictIdle(maxIdle time.Duration) int {
	args := m.Called(maxIdle)
	return args.Int(0)
}

type MockSnapshotSaver struct{ mock.Mock }

func (m *MockSnapshotSaver) SaveSnapshot(ctx context.Context, userID int64, at time.Time, report models.ValuationReport) (bool, error) {
	args := m.Called(ctx, userID, at, report)
	return args.Bool(0), args.Error(1)
}

func TestSnapshotJob_Run(t *testing.T) {
	now := time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC)
	owners := new(MockOwnerLister)
	reports := new(MockReportSource)
	saver := new(MockSnapshotSaver)

	good := models.ValuationReport{Currency: "usd", TotalCurrentValue: 1500, TotalInvested: 1000}
	owners.On("ListUserIDs", mock.Anything).Return([]int64{1, 2, 3}, nil)
	reports.On("SnapshotReport", mock.Anything, int64(1), "usd").Return(good, nil)
	reports.On("SnapshotReport", mock.Anything, int64(2), "usd").Return(models.ValuationReport{}, &models.UpstreamError{Op: "fetch prices", Err: errors.New("429")})
	reports.On("SnapshotReport", mock.Anything, int64(3), "usd").Return(good, nil)
	saver.On("SaveSnapshot", mock.Anything, int64(1), now, good).Return(true, nil)
	saver.On("SaveSnapshot", mock.Anything, int64(3), now, good).Return(true, nil)

	job := NewSnapshotJob(owners, reports, saver, zerolog.Nop())
	job.now = func() time.Time { return now }

	err := job.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "user 2")
	assert.True(t, models.IsUpstream(err))
	saver.AssertNumberOfCalls(t, "SaveSnapshot", 2)
	saver.AssertExpectations(t)
}

func TestSnapshotJob_OwnersFailure(t *testing.T) {
	owners := new(MockOwnerLister)
	owners.On("ListUserIDs", mock.Anything).Return(nil, errors.New("db closed"))
	reports := new(MockReportSource)

	err := NewSnapshotJob(owners, reports, new(MockSnapshotSaver), zerolog.Nop()).Run(context.Background())

	assert.ErrorContains(t, err, "db closed")
	reports.AssertNotCalled(t, "SnapshotReport", mock.Anything, mock.Anything, mock.Anything)
}

func TestRefreshJobs(t *testing.T) {
	feed, markets, rates, _ := newTestFeed()
	markets.On("FetchMarkets", mock.Anything, mock.Anything, []string(nil)).Return(usdQuotes, nil)
	rates.On("FetchRates", mock.Anything).Return(models.ExchangeRates{Rates: map[string]float64{"KZT": 450}}, nil)

	require.NoError(t, PriceRefreshJob{Feed: feed}.Run(context.Background()))
	require.NoError(t, RateRefreshJob{Feed: feed}.Run(context.Background()))

	assert.Equal(t, "refresh_prices", PriceRefreshJob{}.Name())
	assert.Equal(t, "refresh_rates", RateRefreshJob{}.Name())
	_, ok := feed.Rate("KZT")
	assert.True(t, ok)
}

func TestEvictionJob(t *testing.T) {
	books := new(MockBookEvicter)
	books.On("EvictIdle", 30*time.Minute).Return(4)

	job := EvictionJob{Books: books, MaxIdle: 30 * time.Minute}

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, "evict_idle_books", job.Name())
	books.AssertExpectations(t)
}
