package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/models"
	"github.com/AgusMolinaCode/DCA_Ledger/internal/portfolio"
)

// PriceSource supplies price snapshots for valuation.
type PriceSource interface {
	Supports(currency string) bool
	Snapshot(ctx context.Context, currency string, ids ...string) (models.PriceSnapshot, error)
}

// Service is the entry point for ledger operations. Every call is scoped to
// the user of the session it receives.
type Service struct {
	registry *Registry
	prices   PriceSource
	log      zerolog.Logger
}

func NewService(store DealStore, prices PriceSource, log zerolog.Logger) *Service {
	return &Service{
		registry: NewRegistry(store),
		prices:   prices,
		log:      log.With().Str("component", "ledger").Logger(),
	}
}

func (s *Service) book(ctx context.Context, sess models.Session) (*Book, error) {
	if sess.UserID <= 0 {
		return nil, models.ErrUnauthorized
	}
	return s.registry.Book(ctx, sess.UserID)
}

func (s *Service) CreateDeal(ctx context.Context, sess models.Session, req models.DealRequest) (models.Deal, error) {
	if err := req.Validate(); err != nil {
		return models.Deal{}, err
	}
	b, err := s.book(ctx, sess)
	if err != nil {
		return models.Deal{}, err
	}
	deal, err := b.Create(ctx, req)
	if err != nil {
		return models.Deal{}, err
	}
	s.log.Info().
		Int64("user_id", sess.UserID).
		Int64("deal_id", deal.ID).
		Str("currency_id", deal.CurrencyID).
		Msg("deal created")
	return deal, nil
}

func (s *Service) DeleteDeal(ctx context.Context, sess models.Session, id int64) error {
	b, err := s.book(ctx, sess)
	if err != nil {
		return err
	}
	if err := b.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("user_id", sess.UserID).Int64("deal_id", id).Msg("deal deleted")
	return nil
}

func (s *Service) GetDeal(ctx context.Context, sess models.Session, id int64) (models.Deal, error) {
	b, err := s.book(ctx, sess)
	if err != nil {
		return models.Deal{}, err
	}
	d, ok := b.Deal(id)
	if !ok {
		return models.Deal{}, fmt.Errorf("deal %d: %w", id, models.ErrNotFound)
	}
	return d, nil
}

func (s *Service) ListDeals(ctx context.Context, sess models.Session) ([]models.Deal, error) {
	b, err := s.book(ctx, sess)
	if err != nil {
		return nil, err
	}
	return b.Deals(), nil
}

func (s *Service) Holdings(ctx context.Context, sess models.Session) (models.Holdings, error) {
	b, err := s.book(ctx, sess)
	if err != nil {
		return nil, err
	}
	return b.Holdings(), nil
}

// Report values the user's holdings in currency. A price feed failure fails
// the whole report; a single missing quote only marks that asset unpriced.
func (s *Service) Report(ctx context.Context, sess models.Session, currency string) (models.ValuationReport, error) {
	if !s.prices.Supports(currency) {
		return models.ValuationReport{}, &models.ValidationError{Field: "currency", Reason: "is not supported: " + currency}
	}
	b, err := s.book(ctx, sess)
	if err != nil {
		return models.ValuationReport{}, err
	}
	return s.value(ctx, sess.UserID, b.Holdings(), currency)
}

// SnapshotReport is Report for background callers. It reuses a cached book
// but does not cache one it had to load, so a sweep over every user leaves
// memory as it found it.
func (s *Service) SnapshotReport(ctx context.Context, sess models.Session, currency string) (models.ValuationReport, error) {
	if !s.prices.Supports(currency) {
		return models.ValuationReport{}, &models.ValidationError{Field: "currency", Reason: "is not supported: " + currency}
	}
	if sess.UserID <= 0 {
		return models.ValuationReport{}, models.ErrUnauthorized
	}
	b, err := s.registry.Detached(ctx, sess.UserID)
	if err != nil {
		return models.ValuationReport{}, err
	}
	return s.value(ctx, sess.UserID, b.Holdings(), currency)
}

func (s *Service) value(ctx context.Context, userID int64, holdings models.Holdings, currency string) (models.ValuationReport, error) {
	if len(holdings) == 0 {
		return portfolio.Value(holdings, models.PriceSnapshot{Currency: currency}), nil
	}

	snap, err := s.prices.Snapshot(ctx, currency, holdings.IDs()...)
	if err != nil {
		return models.ValuationReport{}, models.Upstream("fetch prices", err)
	}

	report := portfolio.Value(holdings, snap)
	if len(report.Unpriced) > 0 {
		s.log.Warn().
			Int64("user_id", userID).
			Str("currency", currency).
			Strs("unpriced", report.Unpriced).
			Msg("holdings without a price were valued at zero")
	}
	return report, nil
}

// Forget drops the user's cached book, e.g. at logout.
func (s *Service) Forget(userID int64) {
	s.registry.Forget(userID)
}

// EvictIdle drops the books of users idle for longer than maxIdle.
func (s *Service) EvictIdle(maxIdle time.Duration) int {
	n := s.registry.EvictIdle(maxIdle)
	if n > 0 {
		s.log.Debug().Int("evicted", n).Dur("max_idle", maxIdle).Msg("idle books evicted")
	}
	return n
}
