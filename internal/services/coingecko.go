package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/models"
)

const (
	DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"
	httpTimeout         = 10 * time.Second
)

// CoinGeckoClient reads market data from the CoinGecko REST API.
type CoinGeckoClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewCoinGeckoClient(baseURL, apiKey string, client *http.Client) *CoinGeckoClient {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoURL
	}
	if client == nil {
		client = &http.Client{Timeout: httpTimeout}
	}
	return &CoinGeckoClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    client,
	}
}

// FetchMarkets calls /coins/markets for vsCurrency. With ids, only those
// assets are requested; without, CoinGecko returns its default top list.
func (c *CoinGeckoClient) FetchMarkets(ctx context.Context, vsCurrency string, ids []string) ([]models.PriceQuote, error) {
	params := url.Values{}
	params.Set("vs_currency", vsCurrency)
	if len(ids) > 0 {
		params.Set("ids", strings.Join(ids, ","))
		params.Set("per_page", "250")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/coins/markets?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build markets request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-pro-api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &models.UpstreamError{Op: "coingecko markets", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.UpstreamError{Op: "coingecko markets", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &models.UpstreamError{
			Op:  "coingecko markets",
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 200)),
		}
	}

	var quotes []models.PriceQuote
	if err := json.Unmarshal(body, &quotes); err != nil {
		return nil, &models.UpstreamError{Op: "coingecko markets", Err: fmt.Errorf("malformed payload: %w", err)}
	}
	return quotes, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
