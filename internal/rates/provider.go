package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yawboateng/marketgh-backend/pkg/config"
	"github.com/yawboateng/marketgh-backend/pkg/db/models"
	"github.com/yawboateng/marketgh-backend/pkg/enums"
	"github.com/yawboateng/marketgh-backend/pkg/logger"
)

// hard floor when both the external API and the fallback table are empty
var lastResortRates = map[enums.Currency]decimal.Decimal{
	enums.CurrencyGHS: decimal.NewFromInt(1),
	enums.CurrencyUSD: decimal.RequireFromString("0.094"),
}

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	FxRateKey(base string) string
}

type fallbackStore interface {
	UpsertAll(ctx context.Context, rows []models.CurrencyRate) error
	LoadAll(ctx context.Context) (map[enums.Currency]models.CurrencyRate, error)
}

// Provider resolves conversion rates relative to the base currency. Lookups
// never fail: every layer of the resolution chain (in-process snapshot, redis,
// external API, fallback table, hard-coded floor) degrades to the next one.
type Provider struct {
	cfg   config.RatesConfig
	cache cacheStore
	repo  fallbackStore
	http  *http.Client
	logg  *logger.Logger

	mu        sync.RWMutex
	snapshot  map[enums.Currency]decimal.Decimal
	expiresAt time.Time
}

// NewProvider builds a rate provider. cache may be nil; the in-process
// snapshot still bounds external calls.
func NewProvider(cfg config.RatesConfig, cache cacheStore, repo fallbackStore, logg *logger.Logger) *Provider {
	return &Provider{
		cfg:   cfg,
		cache: cache,
		repo:  repo,
		http:  &http.Client{Timeout: cfg.FetchTimeout},
		logg:  logg,
	}
}

// Rate returns the conversion rate for the given currency relative to the
// base. The base currency and any unknown currency resolve to 1.
func (p *Provider) Rate(ctx context.Context, currency enums.Currency) decimal.Decimal {
	if currency == "" || string(currency) == p.cfg.BaseCurrency {
		return decimal.NewFromInt(1)
	}
	rates := p.rates(ctx)
	if rate, ok := rates[currency]; ok && rate.IsPositive() {
		return rate
	}
	return decimal.NewFromInt(1)
}

// Convert projects a base-currency amount into the given currency, rounded
// half-up to two decimal places.
func (p *Provider) Convert(ctx context.Context, amount decimal.Decimal, currency enums.Currency) decimal.Decimal {
	return amount.Mul(p.Rate(ctx, currency)).Round(2)
}

func (p *Provider) rates(ctx context.Context) map[enums.Currency]decimal.Decimal {
	p.mu.RLock()
	if p.snapshot != nil && time.Now().Before(p.expiresAt) {
		snap := p.snapshot
		p.mu.RUnlock()
		return snap
	}
	p.mu.RUnlock()

	rates, ttl := p.resolve(ctx)

	p.mu.Lock()
	p.snapshot = rates
	p.expiresAt = time.Now().Add(ttl)
	p.mu.Unlock()
	return rates
}

func (p *Provider) resolve(ctx context.Context) (map[enums.Currency]decimal.Decimal, time.Duration) {
	if cached, ok := p.fromCache(ctx); ok {
		return cached, p.cfg.CacheTTL
	}

	fetched, err := p.fetch(ctx)
	if err == nil {
		p.store(ctx, fetched)
		return fetched, p.cfg.CacheTTL
	}
	if p.logg != nil {
		p.logg.Error(ctx, "exchange rate fetch failed, using fallback table", err)
	}

	if fallback, ok := p.fromFallbackTable(ctx); ok {
		return fallback, p.cfg.FallbackCacheTTL
	}

	out := make(map[enums.Currency]decimal.Decimal, len(lastResortRates))
	for currency, rate := range lastResortRates {
		out[currency] = rate
	}
	return out, p.cfg.FallbackCacheTTL
}

func (p *Provider) fromCache(ctx context.Context) (map[enums.Currency]decimal.Decimal, bool) {
	if p.cache == nil {
		return nil, false
	}
	raw, err := p.cache.Get(ctx, p.cache.FxRateKey(p.cfg.BaseCurrency))
	if err != nil || raw == "" {
		return nil, false
	}
	var decoded map[enums.Currency]decimal.Decimal
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil || len(decoded) == 0 {
		return nil, false
	}
	return decoded, true
}

type latestRatesResponse struct {
	Result          string                             `json:"result"`
	BaseCode        string                             `json:"base_code"`
	ConversionRates map[enums.Currency]decimal.Decimal `json:"conversion_rates"`
}

func (p *Provider) fetch(ctx context.Context) (map[enums.Currency]decimal.Decimal, error) {
	url := p.latestURL()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building rates request: %w", err)
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rates API returned status %d", resp.StatusCode)
	}

	var decoded latestRatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding rates response: %w", err)
	}
	if decoded.Result != "" && decoded.Result != "success" {
		return nil, fmt.Errorf("rates API result %q", decoded.Result)
	}
	if len(decoded.ConversionRates) == 0 {
		return nil, fmt.Errorf("rates API returned no conversion rates")
	}
	return decoded.ConversionRates, nil
}

func (p *Provider) latestURL() string {
	base := strings.TrimRight(p.cfg.APIBaseURL, "/")
	if p.cfg.APIKey != "" {
		return fmt.Sprintf("%s/%s/latest/%s", base, p.cfg.APIKey, p.cfg.BaseCurrency)
	}
	return fmt.Sprintf("%s/latest/%s", base, p.cfg.BaseCurrency)
}

// store caches a successful fetch and opportunistically refreshes the
// fallback table so the next outage serves recent rates.
func (p *Provider) store(ctx context.Context, rates map[enums.Currency]decimal.Decimal) {
	if p.cache != nil {
		if encoded, err := json.Marshal(rates); err == nil {
			if err := p.cache.Set(ctx, p.cache.FxRateKey(p.cfg.BaseCurrency), string(encoded), p.cfg.CacheTTL); err != nil && p.logg != nil {
				p.logg.Error(ctx, "caching exchange rates failed", err)
			}
		}
	}
	if p.repo != nil {
		rows := make([]models.CurrencyRate, 0, len(rates))
		for currency, rate := range rates {
			rows = append(rows, models.CurrencyRate{Currency: currency, Rate: rate})
		}
		if err := p.repo.UpsertAll(ctx, rows); err != nil && p.logg != nil {
			p.logg.Error(ctx, "refreshing currency_rates table failed", err)
		}
	}
}

func (p *Provider) fromFallbackTable(ctx context.Context) (map[enums.Currency]decimal.Decimal, bool) {
	if p.repo == nil {
		return nil, false
	}
	rows, err := p.repo.LoadAll(ctx)
	if err != nil || len(rows) == 0 {
		return nil, false
	}
	out := make(map[enums.Currency]decimal.Decimal, len(rows))
	for currency, row := range rows {
		out[currency] = row.Rate
	}
	return out, true
}
