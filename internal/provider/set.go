package provider

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bitagora/paywatch/internal/config"
)

// wrappedChecker pairs a checker with its rate limiter and circuit breaker.
type wrappedChecker struct {
	checker        AddressChecker
	rateLimiter    *RateLimiter
	circuitBreaker *CircuitBreaker
}

// Set manages an ordered list of checkers with round-robin failover.
// The first checker is the session's configured primary; on failure the set
// rotates to the next and retries until all have been tried. The adapters
// themselves never retry — rotation is the only retry mechanism here, and
// the session manager's fixed poll interval handles everything beyond that.
// Thread-safe.
type Set struct {
	mu       sync.Mutex
	checkers []wrappedChecker
	current  int
	primary  string
}

// NewSet creates a Set whose primary is the first checker.
// rps holds one requests-per-second limit per checker.
func NewSet(checkers []AddressChecker, rps []int) *Set {
	wrapped := make([]wrappedChecker, len(checkers))
	for i, c := range checkers {
		wrapped[i] = wrappedChecker{
			checker:        c,
			rateLimiter:    NewRateLimiter(c.Name(), rps[i]),
			circuitBreaker: NewCircuitBreaker(config.CircuitBreakerThreshold, config.CircuitBreakerCooldown),
		}
	}

	primary := ""
	if len(checkers) > 0 {
		primary = checkers[0].Name()
	}

	slog.Info("provider set created",
		"primary", primary,
		"checkers", len(checkers),
	)

	return &Set{
		checkers: wrapped,
		primary:  primary,
	}
}

// Name returns the primary checker's name.
func (s *Set) Name() string { return s.primary }

// CheckerCount returns the number of checkers in this set.
func (s *Set) CheckerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.checkers)
}

// CheckAddress tries each checker once, rotating on failure.
func (s *Set) CheckAddress(ctx context.Context, address string) (*AddressInfo, error) {
	s.mu.Lock()
	n := len(s.checkers)
	if n == 0 {
		s.mu.Unlock()
		return nil, config.ErrNoProviders
	}
	startIdx := s.current
	s.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < n; attempt++ {
		s.mu.Lock()
		idx := (startIdx + attempt) % n
		wc := s.checkers[idx]
		s.mu.Unlock()

		if !wc.circuitBreaker.Allow() {
			slog.Debug("provider circuit open, skipping",
				"provider", wc.checker.Name(),
			)
			lastErr = fmt.Errorf("provider %s: %w", wc.checker.Name(), config.ErrCircuitOpen)
			continue
		}

		if err := wc.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter cancelled for %s: %w", wc.checker.Name(), err)
		}

		info, err := wc.checker.CheckAddress(ctx, address)
		if err != nil {
			wc.circuitBreaker.RecordFailure()
			slog.Warn("provider call failed, rotating",
				"provider", wc.checker.Name(),
				"address", address,
				"error", err,
				"attempt", attempt+1,
				"totalCheckers", n,
			)
			lastErr = err

			s.mu.Lock()
			s.current = (idx + 1) % n
			s.mu.Unlock()
			continue
		}

		wc.circuitBreaker.RecordSuccess()
		return info, nil
	}

	slog.Error("all providers failed",
		"primary", s.primary,
		"address", address,
		"lastError", lastErr,
	)
	return nil, fmt.Errorf("%w: primary=%s: %v", config.ErrAllProvidersFailed, s.primary, lastErr)
}
