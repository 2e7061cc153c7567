package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/models"
)

const marketsPayload = `[
	{"id":"bitcoin","symbol":"btc","name":"Bitcoin","image":"https://img/btc.png","current_price":64000.5,"price_change_24h":-120.25,"market_cap":1260000000000},
	{"id":"ethereum","symbol":"eth","name":"Ethereum","image":"https://img/eth.png","current_price":3100,"price_change_24h":15,"market_cap":372000000000}
]`

func TestCoinGeckoClient_FetchMarkets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/markets", r.URL.Path)
		assert.Equal(t, "eur", r.URL.Query().Get("vs_currency"))
		assert.Equal(t, "bitcoin,ethereum", r.URL.Query().Get("ids"))
		assert.Equal(t, "secret", r.Header.Get("x-cg-pro-api-key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(marketsPayload))
	}))
	defer srv.Close()

	client := NewCoinGeckoClient(srv.URL+"/", "secret", srv.Client())
	quotes, err := client.FetchMarkets(context.Background(), "eur", []string{"bitcoin", "ethereum"})
	require.NoError(t, err)

	require.Len(t, quotes, 2)
	assert.Equal(t, models.PriceQuote{
		ID:                "bitcoin",
		Symbol:            "btc",
		Name:              "Bitcoin",
		Image:             "https://img/btc.png",
		CurrentPrice:      64000.5,
		PriceChange24Hour: -120.25,
		MarketCap:         1260000000000,
	}, quotes[0])
}

func TestCoinGeckoClient_NoKeyNoHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("x-cg-pro-api-key"))
		assert.Empty(t, r.URL.Query().Get("ids"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	quotes, err := NewCoinGeckoClient(srv.URL, "", srv.Client()).FetchMarkets(context.Background(), "usd", nil)
	require.NoError(t, err)
	assert.Empty(t, quotes)
}

func TestCoinGeckoClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"rate limited", http.StatusTooManyRequests, `{"status":{"error_code":429}}`, "status 429"},
		{"server error", http.StatusBadGateway, `bad gateway`, "status 502"},
		{"malformed", http.StatusOK, `{"not":"a list"}`, "malformed payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewCoinGeckoClient(srv.URL, "", srv.Client()).FetchMarkets(context.Background(), "usd", nil)

			require.Error(t, err)
			assert.True(t, models.IsUpstream(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestCoinGeckoClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewCoinGeckoClient(url, "", nil).FetchMarkets(context.Background(), "usd", nil)
	assert.True(t, models.IsUpstream(err))
}
