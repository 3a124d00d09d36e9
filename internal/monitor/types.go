package monitor

import (
	"fmt"
	"time"

	"github.com/bitagora/paywatch/internal/config"
	"github.com/bitagora/paywatch/internal/provider"
)

// PaymentStatus is the state of a monitoring session.
type PaymentStatus string

const (
	StatusPending     PaymentStatus = "pending"
	StatusUnconfirmed PaymentStatus = "unconfirmed"
	StatusConfirming  PaymentStatus = "confirming"
	StatusConfirmed   PaymentStatus = "confirmed"
	StatusOverpaid    PaymentStatus = "overpaid"
	StatusUnderpaid   PaymentStatus = "underpaid"
	StatusFailed      PaymentStatus = "failed"
)

// Terminal reports whether the status ends a session. Once a session reaches
// a terminal status it is removed from the active set and polling stops.
func (s PaymentStatus) Terminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

// SessionConfig is the effective monitoring configuration for one session.
// Sessions snapshot the service defaults (plus request overrides) at start;
// later default updates do not touch running sessions.
type SessionConfig struct {
	TargetConfirmations int
	PollInterval        time.Duration
	Timeout             time.Duration
	// MaxRetries caps consecutive failed polls while the session is still
	// pending; 0 disables the cap.
	MaxRetries    int
	BlockchainAPI string
	Network       string
}

// Validate checks a session config for correctness.
func (c SessionConfig) Validate() error {
	if c.TargetConfirmations < 1 {
		return fmt.Errorf("target confirmations must be >= 1, got %d", c.TargetConfirmations)
	}
	if c.PollInterval < config.MinPollInterval {
		return fmt.Errorf("poll interval must be >= %s, got %s", config.MinPollInterval, c.PollInterval)
	}
	if c.Timeout <= 0 || c.Timeout > config.MaxSessionTimeout {
		return fmt.Errorf("timeout must be in (0, %s], got %s", config.MaxSessionTimeout, c.Timeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must be >= 0, got %d", c.MaxRetries)
	}
	if !config.ValidBlockchainAPI(c.BlockchainAPI) {
		return fmt.Errorf("unknown blockchain API %q", c.BlockchainAPI)
	}
	return nil
}

// ConfigOverrides carries optional per-request overrides of the defaults.
// Nil fields keep the default. The network is fixed per deployment (providers
// are constructed for one network at startup) and cannot be overridden.
type ConfigOverrides struct {
	TargetConfirmations *int
	PollInterval        *time.Duration
	Timeout             *time.Duration
	MaxRetries          *int
	BlockchainAPI       *string
}

// Apply merges the overrides into cfg.
func (o *ConfigOverrides) Apply(cfg *SessionConfig) {
	if o == nil {
		return
	}
	if o.TargetConfirmations != nil {
		cfg.TargetConfirmations = *o.TargetConfirmations
	}
	if o.PollInterval != nil {
		cfg.PollInterval = *o.PollInterval
	}
	if o.Timeout != nil {
		cfg.Timeout = *o.Timeout
	}
	if o.MaxRetries != nil {
		cfg.MaxRetries = *o.MaxRetries
	}
	if o.BlockchainAPI != nil {
		cfg.BlockchainAPI = *o.BlockchainAPI
	}
}

// Snapshot is a point-in-time copy of a session's state, safe to hand out
// across the API boundary.
type Snapshot struct {
	ID                  string                 `json:"id"`
	Address             string                 `json:"address"`
	ExpectedAmount      int64                  `json:"expected_amount"`
	USDAmount           float64                `json:"usd_amount,omitempty"`
	ReceivedAmount      int64                  `json:"received_amount"`
	Status              PaymentStatus          `json:"status"`
	Confirmations       int                    `json:"confirmations"`
	TargetConfirmations int                    `json:"target_confirmations"`
	Transactions        []provider.Transaction `json:"transactions"`
	Provider            string                 `json:"provider"`
	StartedAt           time.Time              `json:"started_at"`
	LastChecked         *time.Time             `json:"last_checked,omitempty"`
	CompletedAt         *time.Time             `json:"completed_at,omitempty"`
}
