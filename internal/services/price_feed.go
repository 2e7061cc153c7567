package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/models"
)

const (
	// CacheTTL is slightly above the one minute CoinGecko refresh interval.
	CacheTTL = time.Minute + 3*time.Second
	// RatesMaxAge bounds how old a conversion rate may be for derived prices.
	RatesMaxAge = 24 * time.Hour
)

var (
	directCurrencies = []string{"usd", "eur"}
	// Derived currencies are priced in USD and converted with the rate below.
	derivedCurrencies = map[string]string{"kzt": "KZT"}
)

// MarketSource returns quotes for a fiat currency CoinGecko supports.
type MarketSource interface {
	FetchMarkets(ctx context.Context, vsCurrency string, ids []string) ([]models.PriceQuote, error)
}

// RateSource returns USD conversion rates.
type RateSource interface {
	FetchRates(ctx context.Context) (models.ExchangeRates, error)
}

type cachedQuotes struct {
	quotes    []models.PriceQuote
	fetchedAt time.Time
}

// PriceFeed serves price snapshots from a TTL cache in front of CoinGecko,
// converting USD quotes for currencies CoinGecko does not quote directly.
type PriceFeed struct {
	markets MarketSource
	rates   RateSource
	ttl     time.Duration
	now     func() time.Time
	log     zerolog.Logger

	mu        sync.RWMutex
	cache     map[string]cachedQuotes
	usdRates  models.ExchangeRates
	refreshMu sync.Mutex
}

func NewPriceFeed(markets MarketSource, rates RateSource, log zerolog.Logger) *PriceFeed {
	return &PriceFeed{
		markets: markets,
		rates:   rates,
		ttl:     CacheTTL,
		now:     time.Now,
		log:     log.With().Str("component", "price_feed").Logger(),
		cache:   make(map[string]cachedQuotes),
	}
}

// SupportedCurrencies lists every fiat code the feed can price in.
func (f *PriceFeed) SupportedCurrencies() []string {
	out := append([]string{}, directCurrencies...)
	for code := range derivedCurrencies {
		out = append(out, code)
	}
	sort.Strings(out[len(directCurrencies):])
	return out
}

func (f *PriceFeed) Supports(currency string) bool {
	currency = strings.ToLower(currency)
	if isDirect(currency) {
		return true
	}
	_, ok := derivedCurrencies[currency]
	return ok
}

// FetchPrices returns quotes in currency, restricted to ids when any are
// given.
func (f *PriceFeed) FetchPrices(ctx context.Context, currency string, ids ...string) ([]models.PriceQuote, error) {
	entry, err := f.lookup(ctx, currency, ids)
	if err != nil {
		return nil, err
	}
	return entry.quotes, nil
}

// Snapshot is FetchPrices indexed by asset id.
func (f *PriceFeed) Snapshot(ctx context.Context, currency string, ids ...string) (models.PriceSnapshot, error) {
	entry, err := f.lookup(ctx, currency, ids)
	if err != nil {
		return models.PriceSnapshot{}, err
	}
	return models.NewPriceSnapshot(strings.ToLower(currency), entry.fetchedAt, entry.quotes), nil
}

func (f *PriceFeed) lookup(ctx context.Context, currency string, ids []string) (cachedQuotes, error) {
	currency = strings.ToLower(currency)
	if !f.Supports(currency) {
		return cachedQuotes{}, &models.ValidationError{Field: "currency", Reason: "is not supported: " + currency}
	}
	ids = normalizeIDs(ids)
	if isDirect(currency) {
		return f.direct(ctx, currency, ids, false)
	}
	return f.derived(ctx, currency, ids)
}

// RefreshPrices re-fetches the default market list of every direct currency
// and drops expired filtered entries.
func (f *PriceFeed) RefreshPrices(ctx context.Context) error {
	var errs []string
	for _, currency := range directCurrencies {
		if _, err := f.direct(ctx, currency, nil, true); err != nil {
			errs = append(errs, err.Error())
		}
	}
	f.prune()
	if len(errs) > 0 {
		return fmt.Errorf("refresh prices: %s", strings.Join(errs, "; "))
	}
	return nil
}

// RefreshRates fetches fresh USD conversion rates.
func (f *PriceFeed) RefreshRates(ctx context.Context) error {
	rates, err := f.rates.FetchRates(ctx)
	if err != nil {
		return err
	}
	rates.UpdatedAt = f.now()

	f.mu.Lock()
	f.usdRates = rates
	f.mu.Unlock()

	f.log.Info().Int("rates", len(rates.Rates)).Msg("exchange rates updated")
	return nil
}

// Rate returns the USD conversion rate for code, if known and fresh.
func (f *PriceFeed) Rate(code string) (float64, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	rate, ok := f.usdRates.Rates[strings.ToUpper(code)]
	if !ok || rate <= 0 || f.now().Sub(f.usdRates.UpdatedAt) > RatesMaxAge {
		return 0, false
	}
	return rate, true
}

func (f *PriceFeed) direct(ctx context.Context, currency string, ids []string, force bool) (cachedQuotes, error) {
	key := cacheKey(currency, ids)
	if !force {
		if entry, ok := f.cached(key); ok {
			return entry, nil
		}
	}

	quotes, err := f.markets.FetchMarkets(ctx, currency, ids)
	if err != nil {
		return cachedQuotes{}, models.Upstream("fetch "+currency+" prices", err)
	}

	entry := cachedQuotes{quotes: quotes, fetchedAt: f.now()}
	f.mu.Lock()
	f.cache[key] = entry
	f.mu.Unlock()

	f.log.Debug().Str("currency", currency).Int("quotes", len(quotes)).Msg("prices fetched")
	return entry, nil
}

func (f *PriceFeed) derived(ctx context.Context, currency string, ids []string) (cachedQuotes, error) {
	key := cacheKey(currency, ids)
	if entry, ok := f.cached(key); ok {
		return entry, nil
	}

	code := derivedCurrencies[currency]
	rate, ok := f.Rate(code)
	if !ok {
		f.refreshMu.Lock()
		rate, ok = f.Rate(code)
		if !ok {
			if err := f.RefreshRates(ctx); err != nil {
				f.log.Warn().Err(err).Msg("exchange rate refresh failed")
			}
			rate, ok = f.Rate(code)
		}
		f.refreshMu.Unlock()
		if !ok {
			return cachedQuotes{}, &models.UpstreamError{
				Op:  "fetch " + currency + " prices",
				Err: fmt.Errorf("%s exchange rate is not available or expired", code),
			}
		}
	}

	usd, err := f.direct(ctx, "usd", ids, false)
	if err != nil {
		return cachedQuotes{}, err
	}

	converted := make([]models.PriceQuote, len(usd.quotes))
	for i, q := range usd.quotes {
		q.CurrentPrice *= rate
		q.PriceChange24Hour *= rate
		q.MarketCap *= rate
		converted[i] = q
	}

	entry := cachedQuotes{quotes: converted, fetchedAt: usd.fetchedAt}
	f.mu.Lock()
	f.cache[key] = entry
	f.mu.Unlock()
	return entry, nil
}

func (f *PriceFeed) cached(key string) (cachedQuotes, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	entry, ok := f.cache[key]
	if !ok || f.now().Sub(entry.fetchedAt) >= f.ttl {
		return cachedQuotes{}, false
	}
	return entry, true
}

func (f *PriceFeed) prune() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, entry := range f.cache {
		if f.now().Sub(entry.fetchedAt) >= f.ttl {
			delete(f.cache, key)
		}
	}
}

func isDirect(currency string) bool {
	for _, c := range directCurrencies {
		if c == currency {
			return true
		}
	}
	return false
}

func normalizeIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

func cacheKey(currency string, ids []string) string {
	if len(ids) == 0 {
		return currency
	}
	return currency + ":" + strings.Join(ids, ",")
}
