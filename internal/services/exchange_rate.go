package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/models"
)

const DefaultExchangeRateURL = "https://v6.exchangerate-api.com/v6"

// ExchangeRateClient reads USD conversion rates from exchangerate-api.com.
type ExchangeRateClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewExchangeRateClient(baseURL, apiKey string, client *http.Client) *ExchangeRateClient {
	if baseURL == "" {
		baseURL = DefaultExchangeRateURL
	}
	if client == nil {
		client = &http.Client{Timeout: httpTimeout}
	}
	return &ExchangeRateClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    client,
	}
}

type exchangeRateResponse struct {
	Result    string             `json:"result"`
	ErrorType string             `json:"error-type"`
	BaseCode  string             `json:"base_code"`
	Rates     map[string]float64 `json:"conversion_rates"`
}

// FetchRates returns conversion rates from one USD to every listed currency.
func (c *ExchangeRateClient) FetchRates(ctx context.Context) (models.ExchangeRates, error) {
	if c.apiKey == "" {
		return models.ExchangeRates{}, &models.UpstreamError{Op: "exchange rates", Err: fmt.Errorf("no API key configured")}
	}

	endpoint := fmt.Sprintf("%s/%s/latest/USD", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.ExchangeRates{}, fmt.Errorf("failed to build exchange rate request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return models.ExchangeRates{}, &models.UpstreamError{Op: "exchange rates", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.ExchangeRates{}, &models.UpstreamError{Op: "exchange rates", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return models.ExchangeRates{}, &models.UpstreamError{Op: "exchange rates", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var payload exchangeRateResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return models.ExchangeRates{}, &models.UpstreamError{Op: "exchange rates", Err: fmt.Errorf("malformed payload: %w", err)}
	}
	if payload.Result != "success" {
		return models.ExchangeRates{}, &models.UpstreamError{Op: "exchange rates", Err: fmt.Errorf("api error: %s", payload.ErrorType)}
	}

	return models.ExchangeRates{Base: payload.BaseCode, Rates: payload.Rates}, nil
}
