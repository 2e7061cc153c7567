package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/models"
)

// PriceRefreshJob keeps the default market lists warm.
type PriceRefreshJob struct {
	Feed *PriceFeed
}

func (j PriceRefreshJob) Name() string { return "refresh_prices" }

func (j PriceRefreshJob) Run(ctx context.Context) error {
	return j.Feed.RefreshPrices(ctx)
}

// RateRefreshJob keeps the USD conversion rates fresh for derived currencies.
type RateRefreshJob struct {
	Feed *PriceFeed
}

func (j RateRefreshJob) Name() string { return "refresh_rates" }

func (j RateRefreshJob) Run(ctx context.Context) error {
	return j.Feed.RefreshRates(ctx)
}

type BookEvicter interface {
	EvictIdle(maxIdle time.Duration) int
}

// EvictionJob drops in-memory books of users who have been idle for MaxIdle.
type EvictionJob struct {
	Books   BookEvicter
	MaxIdle time.Duration
}

func (j EvictionJob) Name() string { return "evict_idle_books" }

func (j EvictionJob) Run(ctx context.Context) error {
	j.Books.EvictIdle(j.MaxIdle)
	return nil
}

type OwnerLister interface {
	ListUserIDs(ctx context.Context) ([]int64, error)
}

type ReportSource interface {
	SnapshotReport(ctx context.Context, sess models.Session, currency string) (models.ValuationReport, error)
}

type SnapshotSaver interface {
	SaveSnapshot(ctx context.Context, userID int64, at time.Time, report models.ValuationReport) (bool, error)
}

// SnapshotJob values every portfolio and records the day's snapshot, so the
// history chart has data even for users who do not open the app.
type SnapshotJob struct {
	owners    OwnerLister
	reports   ReportSource
	snapshots SnapshotSaver
	currency  string
	now       func() time.Time
	log       zerolog.Logger
}

func NewSnapshotJob(owners OwnerLister, reports ReportSource, snapshots SnapshotSaver, log zerolog.Logger) *SnapshotJob {
	return &SnapshotJob{
		owners:    owners,
		reports:   reports,
		snapshots: snapshots,
		currency:  "usd",
		now:       time.Now,
		log:       log.With().Str("job", "portfolio_snapshots").Logger(),
	}
}

func (j *SnapshotJob) Name() string { return "portfolio_snapshots" }

func (j *SnapshotJob) Run(ctx context.Context) error {
	ids, err := j.owners.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list portfolio owners: %w", err)
	}

	var (
		errs  []error
		saved int
	)
	at := j.now()
	for _, id := range ids {
		sess := models.Session{ID: "scheduler", UserID: id}
		report, err := j.reports.SnapshotReport(ctx, sess, j.currency)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %d: %w", id, err))
			continue
		}
		ok, err := j.snapshots.SaveSnapshot(ctx, id, at, report)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %d: %w", id, err))
			continue
		}
		if ok {
			saved++
		}
	}

	j.log.Info().Int("users", len(ids)).Int("saved", saved).Int("failed", len(errs)).Msg("snapshots recorded")
	return errors.Join(errs...)
}
