package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/bitagora/paywatch/internal/metrics"
	"github.com/bitagora/paywatch/internal/provider"
)

// run is the poll loop goroutine for a single session. One goroutine per
// monitored address. Because waiting on the ticker and processing the tick
// happen in the same loop, two poll cycles for one address can never overlap:
// a slow provider response simply delays the next tick.
func (m *Manager) run(ctx context.Context, s *session, ticker *clock.Ticker, timeout *clock.Timer) {
	endReason := ""
	defer m.wg.Done()
	defer func() {
		// Only the side that actually deletes the map entry counts the
		// teardown; if Stop or Shutdown raced us, they recorded it already.
		if m.remove(s) && endReason != "" {
			metrics.SessionEnded(endReason)
		}
	}()
	defer ticker.Stop()
	defer timeout.Stop()

	slog.Info("session goroutine started",
		"sessionID", s.id,
		"address", s.address,
		"provider", s.checker.Name(),
	)

	for {
		select {
		case <-ctx.Done():
			// Cancelled by Stop or Shutdown; the caller already removed the
			// session and counted the teardown.
			slog.Info("session goroutine exiting",
				"sessionID", s.id,
				"address", s.address,
				"reason", ctx.Err(),
			)
			return

		case <-timeout.C:
			if s.failIfPending(m.clk.Now()) {
				metrics.StatusTransition(string(StatusFailed))
				endReason = "timeout"
				slog.Info("session timed out while pending",
					"sessionID", s.id,
					"address", s.address,
					"timeout", s.cfg.Timeout,
				)
				return
			}
			// Funds have been seen — the deadline only applies while pending.
			slog.Debug("timeout elapsed but payment already observed, session continues",
				"sessionID", s.id,
				"address", s.address,
			)

		case <-ticker.C:
			if reason := m.poll(ctx, s); reason != "" {
				endReason = reason
				return
			}
		}
	}
}

// poll runs one poll cycle. Returns a non-empty teardown reason when the
// session reached a terminal status and should be torn down.
func (m *Manager) poll(ctx context.Context, s *session) string {
	// A. Fetch a fresh snapshot of the address.
	info, err := s.checker.CheckAddress(ctx, s.address)
	metrics.ObservePoll(s.checker.Name(), err)
	if err != nil {
		if ctx.Err() != nil {
			return "" // cancelled mid-fetch; the select will observe ctx.Done
		}
		return m.handlePollFailure(s, err)
	}

	// B. Re-derive the payment status from the raw evidence.
	outcome := Evaluate(s.expected, s.cfg.TargetConfirmations, info)

	// C. Apply the outcome to the session state.
	changed := s.apply(outcome, info, m.clk.Now())
	if changed {
		metrics.StatusTransition(string(outcome.Status))
		slog.Info("payment status changed",
			"sessionID", s.id,
			"address", s.address,
			"status", outcome.Status,
			"receivedSats", outcome.ReceivedAmount,
			"expectedSats", s.expected,
			"confirmations", outcome.Confirmations,
		)
	}

	// D. Tear down on terminal status.
	if outcome.Status.Terminal() {
		slog.Info("session reached terminal status",
			"sessionID", s.id,
			"address", s.address,
			"status", outcome.Status,
		)
		return string(outcome.Status)
	}
	return ""
}

// handlePollFailure records a transient provider failure. The session is not
// torn down on a failed poll — the next tick retries — unless the session is
// still pending and the consecutive-failure count exceeds MaxRetries. Returns
// a non-empty teardown reason when the retry cap was hit.
func (m *Manager) handlePollFailure(s *session, err error) string {
	fails, status := s.recordFailure()

	var perr *provider.Error
	if errors.As(err, &perr) {
		slog.Warn("poll failed, will retry next tick",
			"sessionID", s.id,
			"address", s.address,
			"provider", perr.Provider,
			"httpStatus", perr.Status,
			"error", err,
			"consecutiveFailures", fails,
		)
	} else {
		slog.Warn("poll failed, will retry next tick",
			"sessionID", s.id,
			"address", s.address,
			"error", err,
			"consecutiveFailures", fails,
		)
	}

	if s.cfg.MaxRetries > 0 && fails > s.cfg.MaxRetries && status == StatusPending {
		if s.failIfPending(m.clk.Now()) {
			metrics.StatusTransition(string(StatusFailed))
			slog.Error("session failed: retry cap exceeded while pending",
				"sessionID", s.id,
				"address", s.address,
				"maxRetries", s.cfg.MaxRetries,
			)
			return "retries"
		}
	}
	return ""
}

// apply merges a successful poll's evidence into the session state.
// Returns true when the status changed.
func (s *session) apply(out Outcome, info *provider.AddressInfo, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.consecutiveFailures = 0
	s.received = out.ReceivedAmount
	s.confirmations = out.Confirmations
	s.lastChecked = &now
	s.mergeTransactions(info.Transactions)

	if out.Status == s.status {
		return false
	}
	s.status = out.Status
	if out.Status == StatusConfirmed && s.completedAt == nil {
		s.completedAt = &now
	}
	return true
}

// mergeTransactions appends newly seen transactions and updates known ones in
// place (confirmation counts increase as blocks are mined). Caller holds s.mu.
func (s *session) mergeTransactions(txs []provider.Transaction) {
	for _, tx := range txs {
		key := fmt.Sprintf("%s:%d", tx.ID, tx.OutputIndex)
		if i, ok := s.txIndex[key]; ok {
			s.transactions[i] = tx
			continue
		}
		s.txIndex[key] = len(s.transactions)
		s.transactions = append(s.transactions, tx)
	}
}

// recordFailure bumps the consecutive-failure counter and returns it together
// with the current status.
func (s *session) recordFailure() (int, PaymentStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consecutiveFailures++
	return s.consecutiveFailures, s.status
}

// failIfPending forces the session to failed if it is still pending.
// Returns false once funds have been seen or a terminal status was reached.
func (s *session) failIfPending(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusPending {
		return false
	}
	s.status = StatusFailed
	s.lastChecked = &now
	return true
}
