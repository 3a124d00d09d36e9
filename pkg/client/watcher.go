package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultPollInterval is how often the Watcher polls the status endpoint.
// This is a client-observes-server loop, independent of the server's own
// provider polling.
const DefaultPollInterval = 30 * time.Second

// Callbacks are raised by the Watcher as it observes status changes.
// OnUpdate fires on every successful poll; the other three are edge-triggered.
// All callbacks run on the Watcher's polling goroutine.
type Callbacks struct {
	// OnReceived fires on the pending -> unconfirmed transition (first
	// evidence of payment).
	OnReceived func(*Session)
	// OnConfirmed fires on the transition into confirmed; polling stops.
	OnConfirmed func(*Session)
	// OnFailed fires on the transition into failed; polling stops.
	OnFailed func(*Session)
	// OnUpdate fires on every poll that returns a session, changed or not.
	OnUpdate func(*Session)
}

// Watcher starts a monitoring session and follows it, raising callbacks on
// status transitions. One Watcher follows one address.
type Watcher struct {
	client    *Client
	clk       clock.Clock
	interval  time.Duration
	callbacks Callbacks

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// WatcherOption customizes a Watcher.
type WatcherOption func(*Watcher)

// WithPollInterval overrides the client poll interval.
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.interval = d }
}

// WithClock injects a clock (tests use a mock to fast-forward polls).
func WithClock(clk clock.Clock) WatcherOption {
	return func(w *Watcher) { w.clk = clk }
}

// NewWatcher creates a Watcher using the given API client.
func NewWatcher(c *Client, callbacks Callbacks, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		client:    c,
		clk:       clock.New(),
		interval:  DefaultPollInterval,
		callbacks: callbacks,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins monitoring: one start-monitoring call, then periodic status
// polls until a terminal status, a vanished session, Stop, or ctx cancellation.
func (w *Watcher) Start(ctx context.Context, req StartRequest) error {
	// Claim the watcher before issuing the start call, so a racing second
	// Start cannot create a server session nobody follows.
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return errors.New("watcher already started")
	}
	w.started = true
	w.mu.Unlock()

	session, err := w.client.StartMonitoring(ctx, req)
	if err != nil {
		w.mu.Lock()
		w.started = false
		w.mu.Unlock()
		return err
	}

	pollCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	w.mu.Lock()
	w.cancel = cancel
	w.done = done
	w.mu.Unlock()

	// Ticker is created before the goroutine so tests can advance a mock
	// clock as soon as Start returns.
	ticker := w.clk.Ticker(w.interval)

	go w.loop(pollCtx, ticker, done, req.Address, session.Status)

	slog.Debug("client watcher started",
		"address", req.Address,
		"initialStatus", session.Status,
		"interval", w.interval,
	)
	return nil
}

// Stop cancels the polling loop and waits for it to exit. Safe to call
// multiple times and before Start.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Done returns a channel closed when the polling loop exits, whatever the
// cause: terminal status, vanished session, Stop, or context cancellation.
// Callers that need to block until the watch is over — a CLI waiting for the
// payment outcome, say — select on this. Nil until Start has succeeded.
func (w *Watcher) Done() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.done
}

func (w *Watcher) loop(ctx context.Context, ticker *clock.Ticker, done chan struct{}, address string, lastStatus Status) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			session, err := w.client.Status(ctx, address)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if errors.Is(err, ErrNotFound) {
					// Session gone server-side (timed out and cleaned up, or
					// stopped elsewhere) — nothing left to follow.
					slog.Debug("client watcher: session no longer exists, stopping",
						"address", address,
					)
					return
				}
				slog.Warn("client watcher: status poll failed, will retry",
					"address", address,
					"error", err,
				)
				continue
			}

			if w.callbacks.OnUpdate != nil {
				w.callbacks.OnUpdate(session)
			}

			if session.Status != lastStatus {
				w.dispatch(lastStatus, session)
				lastStatus = session.Status
			}

			if session.Status.Terminal() {
				return
			}
		}
	}
}

// dispatch raises the edge-triggered callback for a status transition.
func (w *Watcher) dispatch(from Status, session *Session) {
	switch {
	case from == StatusPending && session.Status == StatusUnconfirmed:
		if w.callbacks.OnReceived != nil {
			w.callbacks.OnReceived(session)
		}
	case session.Status == StatusConfirmed:
		if w.callbacks.OnConfirmed != nil {
			w.callbacks.OnConfirmed(session)
		}
	case session.Status == StatusFailed:
		if w.callbacks.OnFailed != nil {
			w.callbacks.OnFailed(session)
		}
	}
}
