package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/auth"
	"github.com/AgusMolinaCode/DCA_Ledger/internal/database"
	"github.com/AgusMolinaCode/DCA_Ledger/internal/ledger"
	"github.com/AgusMolinaCode/DCA_Ledger/internal/models"
	"github.com/AgusMolinaCode/DCA_Ledger/internal/repository"
	"github.com/AgusMolinaCode/DCA_Ledger/internal/scheduler"
	"github.com/AgusMolinaCode/DCA_Ledger/internal/services"
)

const (
	testAdminKey      = "admin-key"
	testWebhookSecret = "whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw"
)

var testQuotes = []models.PriceQuote{
	{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", CurrentPrice: 30},
	{ID: "ethereum", Symbol: "eth", Name: "Ethereum", CurrentPrice: 5},
}

// fakeMarkets serves testQuotes, filtered like CoinGecko filters by ids.
type fakeMarkets struct {
	mu  sync.Mutex
	err error
}

func (f *fakeMarkets) FetchMarkets(ctx context.Context, vsCurrency string, ids []string) ([]models.PriceQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if len(ids) == 0 {
		return testQuotes, nil
	}
	var out []models.PriceQuote
	for _, q := range testQuotes {
		for _, id := range ids {
			if q.ID == id {
				out = append(out, q)
			}
		}
	}
	return out, nil
}

func (f *fakeMarkets) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type fakeRates struct{}

func (fakeRates) FetchRates(ctx context.Context) (models.ExchangeRates, error) {
	return models.ExchangeRates{Base: "USD", Rates: map[string]float64{"KZT": 450}}, nil
}

type testEnv struct {
	router   *gin.Engine
	handler  *Handler
	markets  *fakeMarkets
	users    *repository.UserRepository
	sessions *auth.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	db, err := database.Open(ctx, database.DriverSQLite, database.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(ctx, db, database.DriverSQLite, zerolog.Nop()))

	deals := repository.NewDealRepository(db)
	users := repository.NewUserRepository(db)
	markets := &fakeMarkets{}
	feed := services.NewPriceFeed(markets, fakeRates{}, zerolog.Nop())
	sessions := auth.NewManager("test-secret", time.Hour)

	jobs := scheduler.New(zerolog.Nop(), time.Minute)
	require.NoError(t, jobs.AddJob("@hourly", services.RateRefreshJob{Feed: feed}))

	h := NewHandler(Deps{
		Ledger:             ledger.NewService(deals, feed, zerolog.Nop()),
		Prices:             feed,
		Users:              users,
		Deals:              deals,
		Snapshots:          repository.NewSnapshotRepository(db),
		Sessions:           sessions,
		Jobs:               jobs,
		AdminKey:           testAdminKey,
		ClerkWebhookSecret: testWebhookSecret,
		Log:                zerolog.Nop(),
	})
	h.bcryptCost = bcrypt.MinCost

	router := gin.New()
	router.Use(RequestLogger(zerolog.Nop()))
	api := router.Group("/api/v1")
	api.GET("/health", h.Health)
	api.POST("/signup", h.Signup)
	api.POST("/login", h.Login)
	api.POST("/logout", h.AuthMiddleware(), h.Logout)
	api.GET("/currency", h.GetCurrency)
	api.GET("/currencies/supported", h.SupportedCurrencies)
	protected := api.Group("/", h.AuthMiddleware())
	protected.POST("/deals", h.CreateDeal)
	protected.GET("/deals", h.ListDeals)
	protected.GET("/deals/:id", h.GetDeal)
	protected.DELETE("/deals/:id", h.DeleteDeal)
	protected.GET("/holdings", h.Holdings)
	protected.GET("/portfolio", h.Portfolio)
	protected.GET("/portfolio/history", h.PortfolioHistory)
	api.POST("/webhooks/clerk", h.ClerkWebhook)
	api.GET("/clerk/portfolio", h.ClerkAuthMiddleware(), h.Portfolio)
	admin := api.Group("/admin", h.AdminAuth())
	admin.GET("/users", h.ListUsers)
	admin.POST("/jobs/:name", h.RunJob)

	return &testEnv{router: router, handler: h, markets: markets, users: users, sessions: sessions}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// signup registers a user and returns its session token.
func (e *testEnv) signup(t *testing.T, email string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/signup", "", gin.H{
		"email": email, "password": "s3cret-pass", "name": "Test",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	decode(t, w, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(strings.NewReader(w.Body.String())).Decode(v), w.Body.String())
}
