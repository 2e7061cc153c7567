package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/models"
)

// Ledger is the deal and valuation service used by the handlers.
type Ledger interface {
	CreateDeal(ctx context.Context, sess models.Session, req models.DealRequest) (models.Deal, error)
	DeleteDeal(ctx context.Context, sess models.Session, id int64) error
	GetDeal(ctx context.Context, sess models.Session, id int64) (models.Deal, error)
	ListDeals(ctx context.Context, sess models.Session) ([]models.Deal, error)
	Holdings(ctx context.Context, sess models.Session) (models.Holdings, error)
	Report(ctx context.Context, sess models.Session, currency string) (models.ValuationReport, error)
	Forget(userID int64)
}

type PriceLister interface {
	SupportedCurrencies() []string
	FetchPrices(ctx context.Context, currency string, ids ...string) ([]models.PriceQuote, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error)
	UpsertExternalUser(ctx context.Context, externalID, email, name string) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context) ([]models.User, error)
}

type DealPurger interface {
	DeleteUserDeals(ctx context.Context, userID int64) (int64, error)
}

type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, userID int64, at time.Time, report models.ValuationReport) (bool, error)
	ListSnapshots(ctx context.Context, userID int64, since time.Time) ([]models.PortfolioSnapshot, error)
}

type SessionManager interface {
	Issue(userID int64) (string, models.Session, error)
	Verify(token string) (models.Session, error)
	Revoke(sessionID string)
	RevokeUser(userID int64) int
}

type JobRunner interface {
	RunNow(ctx context.Context, name string) error
	Jobs() []string
}

// Deps are the collaborators of a Handler. Clerk routes stay disabled while
// ClerkSecretKey is empty.
type Deps struct {
	Ledger    Ledger
	Prices    PriceLister
	Users     UserStore
	Deals     DealPurger
	Snapshots SnapshotStore
	Sessions  SessionManager
	Jobs      JobRunner

	AdminKey           string
	ClerkSecretKey     string
	ClerkWebhookSecret string

	Log zerolog.Logger
}

// Handler serves the HTTP API.
type Handler struct {
	ledger    Ledger
	prices    PriceLister
	users     UserStore
	deals     DealPurger
	snapshots SnapshotStore
	sessions  SessionManager
	jobs      JobRunner

	adminKey      string
	webhookSecret string
	clerkVerify   func(ctx context.Context, token string) (string, error)

	bcryptCost int
	now        func() time.Time
	log        zerolog.Logger
}

func NewHandler(d Deps) *Handler {
	h := &Handler{
		ledger:        d.Ledger,
		prices:        d.Prices,
		users:         d.Users,
		deals:         d.Deals,
		snapshots:     d.Snapshots,
		sessions:      d.Sessions,
		jobs:          d.Jobs,
		adminKey:      d.AdminKey,
		webhookSecret: d.ClerkWebhookSecret,
		bcryptCost:    bcrypt.DefaultCost,
		now:           time.Now,
		log:           d.Log.With().Str("component", "http").Logger(),
	}
	if d.ClerkSecretKey != "" {
		h.clerkVerify = initClerk(d.ClerkSecretKey)
	} else {
		h.log.Warn().Msg("CLERK_SECRET_KEY is not set, Clerk routes are disabled")
	}
	return h
}

// writeError maps the error taxonomy onto HTTP status codes.
func (h *Handler) writeError(c *gin.Context, err error) {
	var validation *models.ValidationError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error(), "field": validation.Field})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrStale):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ledger is busy, try again"})
	case models.IsUpstream(err):
		h.logFor(c).Warn().Err(err).Msg("upstream failure")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		h.logFor(c).Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// bindError answers a request whose body or query failed to bind.
func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": h.now().UTC()})
}
