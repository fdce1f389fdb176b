package exchange

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/havano/pos-backend/internal/infrastructure/config"
)

// RateProvider resolves the exchange rate from one currency to another
// on a given date. Implementations never fail a settlement: when the
// rate cannot be determined the caller falls back to 1.0.
type RateProvider interface {
	Rate(ctx context.Context, from, to string, on time.Time) (decimal.Decimal, error)
}

type ratesResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// Client fetches exchange rates over HTTP and caches them in Redis.
type Client struct {
	http     *resty.Client
	redis    *redis.Client
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewClient creates an exchange rate client
func NewClient(cfg *config.ExchangeConfig, redisClient *redis.Client, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(200 * time.Millisecond)
	if cfg.APIKey != "" {
		httpClient.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	return &Client{
		http:     httpClient,
		redis:    redisClient,
		cacheTTL: cfg.CacheTTL,
		logger:   logger.Named("exchange"),
	}
}

// Rate returns the conversion rate from one currency into another.
// Identical currencies always yield 1. The Redis cache is consulted
// first; a provider failure surfaces as an error so the caller can
// apply its own fallback.
func (c *Client) Rate(ctx context.Context, from, to string, on time.Time) (decimal.Decimal, error) {
	one := decimal.NewFromInt(1)
	if from == "" || to == "" || from == to {
		return one, nil
	}

	cacheKey := fmt.Sprintf("fx:%s:%s:%s", from, to, on.Format("2006-01-02"))
	if c.redis != nil {
		if cached, err := c.redis.Get(ctx, cacheKey).Result(); err == nil {
			if rate, err := decimal.NewFromString(cached); err == nil {
				return rate, nil
			}
		}
	}

	var result ratesResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("from", from).
		SetQueryParam("to", to).
		SetResult(&result).
		Get("/" + on.Format("2006-01-02"))
	if err != nil {
		return decimal.Zero, fmt.Errorf("exchange rate request failed: %w", err)
	}
	if resp.IsError() {
		return decimal.Zero, fmt.Errorf("exchange rate provider returned status %d", resp.StatusCode())
	}

	raw, ok := result.Rates[to]
	if !ok || raw <= 0 {
		return decimal.Zero, fmt.Errorf("no rate for %s/%s on %s", from, to, on.Format("2006-01-02"))
	}
	rate := decimal.NewFromFloat(raw)

	if c.redis != nil {
		if err := c.redis.Set(ctx, cacheKey, rate.String(), c.cacheTTL).Err(); err != nil {
			c.logger.Warn("failed to cache exchange rate", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return rate, nil
}

// RateOrFallback returns the provider rate, or 1 when the provider
// cannot answer. Settlement must proceed even when the rate service
// is down; the degraded rate is logged for later correction.
func RateOrFallback(ctx context.Context, provider RateProvider, from, to string, on time.Time, logger *zap.Logger) decimal.Decimal {
	rate, err := provider.Rate(ctx, from, to, on)
	if err != nil || rate.LessThanOrEqual(decimal.Zero) {
		if logger != nil {
			logger.Warn("falling back to exchange rate 1.0",
				zap.String("from", from),
				zap.String("to", to),
				zap.Error(err))
		}
		return decimal.NewFromInt(1)
	}
	return rate
}
