// Package price fetches the BTC/USD exchange rate from CoinGecko with a
// short-lived cache, so checkout flows can quote satoshi amounts for
// USD-denominated carts without hammering the rate API.
package price

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/bitagora/paywatch/internal/config"
)

// Service fetches and caches the BTC/USD rate.
type Service struct {
	client  *http.Client
	baseURL string

	mu       sync.RWMutex
	cached   float64
	cachedAt time.Time
}

// NewService creates a Service against the public CoinGecko API.
func NewService() *Service {
	slog.Info("price service initialized",
		"baseURL", config.CoinGeckoBaseURL,
		"cacheDuration", config.PriceCacheDuration,
	)
	return NewServiceWithURL(config.CoinGeckoBaseURL)
}

// NewServiceWithURL creates a Service with a custom base URL (for testing).
func NewServiceWithURL(baseURL string) *Service {
	return &Service{
		client: &http.Client{
			Timeout: config.PriceFetchTimeout,
		},
		baseURL: baseURL,
	}
}

// BTCUSD returns the current BTC price in USD. The cached value is reused
// while fresh; otherwise a new fetch replaces it.
func (s *Service) BTCUSD(ctx context.Context) (float64, error) {
	s.mu.RLock()
	if s.cached > 0 && time.Since(s.cachedAt) < config.PriceCacheDuration {
		rate := s.cached
		age := time.Since(s.cachedAt)
		s.mu.RUnlock()

		slog.Debug("price cache hit",
			"btcUSD", rate,
			"age", age.Round(time.Second),
		)
		return rate, nil
	}
	s.mu.RUnlock()

	rate, err := s.fetch(ctx)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.cached = rate
	s.cachedAt = time.Now()
	s.mu.Unlock()

	return rate, nil
}

// USDToSats converts a USD amount to satoshis at the given BTC/USD rate,
// rounding to the nearest satoshi.
func USDToSats(usd, btcUSD float64) (int64, error) {
	if btcUSD <= 0 {
		return 0, fmt.Errorf("invalid BTC/USD rate %f", btcUSD)
	}
	if usd < 0 {
		return 0, fmt.Errorf("invalid USD amount %f", usd)
	}
	return int64(math.Round(usd / btcUSD * config.SatoshisPerBTC)), nil
}

// coinGeckoResponse is the CoinGecko /simple/price response: coin ID to
// currency to value.
type coinGeckoResponse map[string]map[string]float64

func (s *Service) fetch(ctx context.Context) (float64, error) {
	url := s.baseURL + "/simple/price?ids=bitcoin&vs_currencies=usd"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create price request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		slog.Error("CoinGecko request failed",
			"error", err,
			"elapsed", time.Since(start).Round(time.Millisecond),
		)
		return 0, fmt.Errorf("%w: %v", config.ErrPriceFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("CoinGecko non-200 response",
			"status", resp.StatusCode,
			"elapsed", time.Since(start).Round(time.Millisecond),
		)
		return 0, fmt.Errorf("%w: HTTP %d", config.ErrPriceFetchFailed, resp.StatusCode)
	}

	var cgResp coinGeckoResponse
	if err := json.NewDecoder(resp.Body).Decode(&cgResp); err != nil {
		return 0, fmt.Errorf("%w: decode error: %v", config.ErrPriceFetchFailed, err)
	}

	rate, ok := cgResp["bitcoin"]["usd"]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("%w: response missing bitcoin/usd", config.ErrPriceFetchFailed)
	}

	slog.Info("BTC price fetched",
		"btcUSD", rate,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return rate, nil
}
