package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port     int    `envconfig:"PAYWATCH_PORT" default:"8080"`
	LogLevel string `envconfig:"PAYWATCH_LOG_LEVEL" default:"info"`
	LogDir   string `envconfig:"PAYWATCH_LOG_DIR" default:"./logs"`
	Network  string `envconfig:"PAYWATCH_NETWORK" default:"mainnet"`

	// Monitoring defaults. Each session snapshots these at start;
	// a config update applies to future sessions only.
	BlockchainAPI       string        `envconfig:"PAYWATCH_BLOCKCHAIN_API" default:"mempool"`
	TargetConfirmations int           `envconfig:"PAYWATCH_TARGET_CONFIRMATIONS" default:"1"`
	PollInterval        time.Duration `envconfig:"PAYWATCH_POLL_INTERVAL" default:"30s"`
	Timeout             time.Duration `envconfig:"PAYWATCH_TIMEOUT" default:"30m"`
	MaxRetries          int           `envconfig:"PAYWATCH_MAX_RETRIES" default:"0"`

	MaxActiveSessions int `envconfig:"PAYWATCH_MAX_ACTIVE_SESSIONS" default:"100"`

	CORSOrigins []string `envconfig:"PAYWATCH_CORS_ORIGINS" default:"*"`

	BlockCypherToken string `envconfig:"PAYWATCH_BLOCKCYPHER_TOKEN"`
	BlockchairAPIKey string `envconfig:"PAYWATCH_BLOCKCHAIR_API_KEY"`
}

// Load reads configuration from .env file (if present) then from environment variables.
func Load() (*Config, error) {
	envFiles := []string{".env"}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				slog.Warn("failed to load .env file", "file", f, "error", err)
			} else {
				slog.Info("loaded .env file", "file", f)
			}
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks configuration values for correctness.
func (c *Config) Validate() error {
	if c.Network != NetworkMainnet && c.Network != NetworkTestnet {
		return fmt.Errorf("invalid config: network must be %q or %q, got %q", NetworkMainnet, NetworkTestnet, c.Network)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid config: port must be 1-65535, got %d", c.Port)
	}
	if !ValidBlockchainAPI(c.BlockchainAPI) {
		return fmt.Errorf("invalid config: unknown blockchain API %q", c.BlockchainAPI)
	}
	if c.TargetConfirmations < 1 {
		return fmt.Errorf("invalid config: PAYWATCH_TARGET_CONFIRMATIONS must be >= 1, got %d", c.TargetConfirmations)
	}
	if c.PollInterval < MinPollInterval {
		return fmt.Errorf("invalid config: PAYWATCH_POLL_INTERVAL must be >= %s, got %s", MinPollInterval, c.PollInterval)
	}
	if c.Timeout <= 0 || c.Timeout > MaxSessionTimeout {
		return fmt.Errorf("invalid config: PAYWATCH_TIMEOUT must be in (0, %s], got %s", MaxSessionTimeout, c.Timeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("invalid config: PAYWATCH_MAX_RETRIES must be >= 0, got %d", c.MaxRetries)
	}
	if c.MaxActiveSessions < 1 {
		return fmt.Errorf("invalid config: PAYWATCH_MAX_ACTIVE_SESSIONS must be >= 1, got %d", c.MaxActiveSessions)
	}
	return nil
}

// ValidBlockchainAPI reports whether name is a recognized provider selector.
func ValidBlockchainAPI(name string) bool {
	switch name {
	case APIMempool, APIBlockCypher, APIBlockchair, APIMock:
		return true
	}
	return false
}
