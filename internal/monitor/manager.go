package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/bitagora/paywatch/internal/config"
	"github.com/bitagora/paywatch/internal/metrics"
	"github.com/bitagora/paywatch/internal/provider"
	"github.com/google/uuid"
)

// ResolverFunc maps a blockchain API selector ("mempool", "blockcypher",
// "blockchair", "mock") to the checker a session should use.
type ResolverFunc func(api string) (provider.AddressChecker, error)

// Manager owns the active-session set and the polling/timeout lifecycle.
// One goroutine per monitored address; at most one active session per address.
type Manager struct {
	clk     clock.Clock
	resolve ResolverFunc

	maxActiveSessions int

	defaultsMu sync.RWMutex
	defaults   SessionConfig

	mu        sync.Mutex
	sessions  map[string]*session        // keyed by address
	completed map[string]finishedSession // terminal snapshots kept for TerminalRetention
	wg        sync.WaitGroup             // tracks active goroutines for graceful shutdown
}

// finishedSession holds the final snapshot of a session that reached a
// terminal status, so a slower client can still read the outcome after
// the poll goroutine has torn the session down.
type finishedSession struct {
	snap    Snapshot
	endedAt time.Time
}

// session is the server-side record tracking one address's monitoring state.
// Mutable fields are guarded by mu; the poll goroutine is the only writer.
type session struct {
	id        string
	address   string
	expected  int64 // satoshis, immutable for the session's lifetime
	usd       float64
	cfg       SessionConfig
	checker   provider.AddressChecker
	cancel    context.CancelFunc
	startedAt time.Time

	mu                  sync.RWMutex
	status              PaymentStatus
	received            int64
	confirmations       int
	transactions        []provider.Transaction
	txIndex             map[string]int // "txid:outputIndex" -> index into transactions
	lastChecked         *time.Time
	completedAt         *time.Time
	consecutiveFailures int
}

// NewManager creates a Manager with the given clock, checker resolver, and
// default session config derived from the service config.
func NewManager(clk clock.Clock, resolve ResolverFunc, cfg *config.Config) *Manager {
	m := &Manager{
		clk:               clk,
		resolve:           resolve,
		maxActiveSessions: cfg.MaxActiveSessions,
		defaults: SessionConfig{
			TargetConfirmations: cfg.TargetConfirmations,
			PollInterval:        cfg.PollInterval,
			Timeout:             cfg.Timeout,
			MaxRetries:          cfg.MaxRetries,
			BlockchainAPI:       cfg.BlockchainAPI,
			Network:             cfg.Network,
		},
		sessions:  make(map[string]*session),
		completed: make(map[string]finishedSession),
	}

	slog.Info("monitor manager initialized",
		"maxActiveSessions", m.maxActiveSessions,
		"defaultAPI", m.defaults.BlockchainAPI,
		"network", m.defaults.Network,
		"pollInterval", m.defaults.PollInterval,
		"timeout", m.defaults.Timeout,
	)
	return m
}

// Defaults returns a copy of the current default session config.
func (m *Manager) Defaults() SessionConfig {
	m.defaultsMu.RLock()
	defer m.defaultsMu.RUnlock()
	return m.defaults
}

// UpdateDefaults merges overrides into the default session config and returns
// the result. Running sessions are unaffected: each snapshots its config at
// start.
func (m *Manager) UpdateDefaults(overrides *ConfigOverrides) (SessionConfig, error) {
	m.defaultsMu.Lock()
	defer m.defaultsMu.Unlock()

	merged := m.defaults
	overrides.Apply(&merged)
	if err := merged.Validate(); err != nil {
		return SessionConfig{}, err
	}

	m.defaults = merged
	slog.Info("monitoring defaults updated",
		"targetConfirmations", merged.TargetConfirmations,
		"pollInterval", merged.PollInterval,
		"timeout", merged.Timeout,
		"maxRetries", merged.MaxRetries,
		"blockchainAPI", merged.BlockchainAPI,
	)
	return merged, nil
}

// ActiveCount returns the number of active sessions.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Start creates a session for the address and begins polling. An address
// with an active session is rejected with config.ErrAlreadyMonitoring —
// the caller must stop the old session first if it wants a restart.
func (m *Manager) Start(address string, expectedAmount int64, usdAmount float64, overrides *ConfigOverrides) (Snapshot, error) {
	cfg := m.Defaults()
	overrides.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return Snapshot{}, err
	}

	checker, err := m.resolve(cfg.BlockchainAPI)
	if err != nil {
		return Snapshot{}, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:        uuid.New().String(),
		address:   address,
		expected:  expectedAmount,
		usd:       usdAmount,
		cfg:       cfg,
		checker:   checker,
		cancel:    cancel,
		startedAt: m.clk.Now(),
		status:    StatusPending,
		txIndex:   make(map[string]int),
	}

	m.mu.Lock()
	if _, exists := m.sessions[address]; exists {
		m.mu.Unlock()
		cancel()
		return Snapshot{}, fmt.Errorf("%w: %s", config.ErrAlreadyMonitoring, address)
	}
	if len(m.sessions) >= m.maxActiveSessions {
		m.mu.Unlock()
		cancel()
		return Snapshot{}, fmt.Errorf("%w: limit is %d", config.ErrMaxSessions, m.maxActiveSessions)
	}
	m.sessions[address] = s
	delete(m.completed, address) // a fresh session supersedes any retained outcome
	m.mu.Unlock()

	// Timers are created here, before the goroutine is spawned, so callers
	// driving a mock clock can advance it as soon as Start returns.
	ticker := m.clk.Ticker(cfg.PollInterval)
	timeout := m.clk.Timer(cfg.Timeout)

	m.wg.Add(1)
	go m.run(ctx, s, ticker, timeout)

	metrics.SessionStarted()
	slog.Info("monitoring session started",
		"sessionID", s.id,
		"address", address,
		"expectedSats", expectedAmount,
		"provider", checker.Name(),
		"pollInterval", cfg.PollInterval,
		"timeout", cfg.Timeout,
		"targetConfirmations", cfg.TargetConfirmations,
	)
	return s.snapshot(), nil
}

// Stop cancels the session for the address, if any, and discards any retained
// final snapshot. Idempotent: stopping an unknown or already-stopped address
// is a no-op. Removal from the active map happens here, atomically with
// cancellation, so a late-firing timer cannot resurrect the session. The
// teardown metric is recorded by whichever side actually deleted the map
// entry, so a Stop racing the poll goroutine counts the session once.
func (m *Manager) Stop(address string) {
	m.mu.Lock()
	s, ok := m.sessions[address]
	if ok {
		delete(m.sessions, address)
	}
	delete(m.completed, address)
	m.mu.Unlock()

	if !ok {
		slog.Debug("stop for unmonitored address, ignoring", "address", address)
		return
	}

	s.cancel()
	metrics.SessionEnded("stopped")
	slog.Info("monitoring session stopped",
		"sessionID", s.id,
		"address", address,
	)
}

// Status returns a snapshot of the session for the address. Pure read; does
// not poll. An active session takes priority; after teardown the final
// confirmed/failed snapshot remains readable for config.TerminalRetention.
func (m *Manager) Status(address string) (Snapshot, bool) {
	m.mu.Lock()
	if s, ok := m.sessions[address]; ok {
		m.mu.Unlock()
		return s.snapshot(), true
	}
	fin, ok := m.completed[address]
	if ok && m.clk.Since(fin.endedAt) > config.TerminalRetention {
		delete(m.completed, address)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return Snapshot{}, false
	}
	return fin.snap, true
}

// Sessions returns snapshots of all active sessions.
func (m *Manager) Sessions() []Snapshot {
	m.mu.Lock()
	active := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		active = append(active, s)
	}
	m.mu.Unlock()

	snapshots := make([]Snapshot, 0, len(active))
	for _, s := range active {
		snapshots = append(snapshots, s.snapshot())
	}
	return snapshots
}

// CheckOnce inspects an address directly with the default provider, bypassing
// any session.
func (m *Manager) CheckOnce(ctx context.Context, address string) (*provider.AddressInfo, error) {
	checker, err := m.resolve(m.Defaults().BlockchainAPI)
	if err != nil {
		return nil, err
	}
	return checker.CheckAddress(ctx, address)
}

// Shutdown cancels all sessions and waits (bounded) for their goroutines.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	count := len(m.sessions)
	for address, s := range m.sessions {
		slog.Debug("cancelling session for shutdown", "address", address, "sessionID", s.id)
		s.cancel()
	}
	m.sessions = make(map[string]*session)
	m.mu.Unlock()

	for i := 0; i < count; i++ {
		metrics.SessionEnded("shutdown")
	}

	slog.Info("monitor manager stopping", "activeCount", count)

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("all session goroutines stopped cleanly")
	case <-time.After(config.ShutdownTimeout):
		slog.Warn("monitor shutdown timed out, some goroutines may still be running",
			"timeout", config.ShutdownTimeout,
		)
	}
}

// remove deletes the session from the active map if it is still the one
// registered for its address, retaining the final snapshot of a terminal
// session for late status reads. Called by the poll goroutine during cleanup.
// Reports whether this call performed the deletion; false means Stop or
// Shutdown got there first and already accounted for the teardown.
func (m *Manager) remove(s *session) bool {
	snap := s.snapshot()

	m.mu.Lock()
	cur, ok := m.sessions[s.address]
	if !ok || cur != s {
		m.mu.Unlock()
		return false
	}
	delete(m.sessions, s.address)
	if snap.Status.Terminal() {
		m.completed[s.address] = finishedSession{snap: snap, endedAt: m.clk.Now()}
	}
	m.mu.Unlock()

	slog.Debug("session removed from active map", "sessionID", s.id, "address", s.address)
	return true
}

// snapshot copies the session state under the read lock.
func (s *session) snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txs := make([]provider.Transaction, len(s.transactions))
	copy(txs, s.transactions)

	snap := Snapshot{
		ID:                  s.id,
		Address:             s.address,
		ExpectedAmount:      s.expected,
		USDAmount:           s.usd,
		ReceivedAmount:      s.received,
		Status:              s.status,
		Confirmations:       s.confirmations,
		TargetConfirmations: s.cfg.TargetConfirmations,
		Transactions:        txs,
		Provider:            s.checker.Name(),
		StartedAt:           s.startedAt,
	}
	if s.lastChecked != nil {
		t := *s.lastChecked
		snap.LastChecked = &t
	}
	if s.completedAt != nil {
		t := *s.completedAt
		snap.CompletedAt = &t
	}
	return snap
}
