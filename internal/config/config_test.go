package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Port:                8080,
		Network:             NetworkMainnet,
		BlockchainAPI:       APIMempool,
		TargetConfirmations: 1,
		PollInterval:        30 * time.Second,
		Timeout:             30 * time.Minute,
		MaxRetries:          0,
		MaxActiveSessions:   100,
	}
}

func TestValidate_Valid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"mainnet defaults", func(c *Config) {}},
		{"testnet", func(c *Config) { c.Network = NetworkTestnet }},
		{"blockcypher", func(c *Config) { c.BlockchainAPI = APIBlockCypher }},
		{"blockchair", func(c *Config) { c.BlockchainAPI = APIBlockchair }},
		{"mock", func(c *Config) { c.BlockchainAPI = APIMock }},
		{"minimum poll interval", func(c *Config) { c.PollInterval = MinPollInterval }},
		{"maximum timeout", func(c *Config) { c.Timeout = MaxSessionTimeout }},
		{"retry cap set", func(c *Config) { c.MaxRetries = 10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err != nil {
				t.Fatalf("Validate() error = %v, want nil", err)
			}
		})
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty network", func(c *Config) { c.Network = "" }},
		{"unknown network", func(c *Config) { c.Network = "devnet" }},
		{"network case sensitive", func(c *Config) { c.Network = "Mainnet" }},
		{"port zero", func(c *Config) { c.Port = 0 }},
		{"port negative", func(c *Config) { c.Port = -1 }},
		{"port too high", func(c *Config) { c.Port = 65536 }},
		{"unknown blockchain API", func(c *Config) { c.BlockchainAPI = "blockstream" }},
		{"empty blockchain API", func(c *Config) { c.BlockchainAPI = "" }},
		{"zero target confirmations", func(c *Config) { c.TargetConfirmations = 0 }},
		{"sub-second poll interval", func(c *Config) { c.PollInterval = 500 * time.Millisecond }},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }},
		{"timeout above cap", func(c *Config) { c.Timeout = MaxSessionTimeout + time.Hour }},
		{"negative max retries", func(c *Config) { c.MaxRetries = -1 }},
		{"zero max sessions", func(c *Config) { c.MaxActiveSessions = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
		})
	}
}

func TestValidBlockchainAPI(t *testing.T) {
	for _, name := range []string{APIMempool, APIBlockCypher, APIBlockchair, APIMock} {
		if !ValidBlockchainAPI(name) {
			t.Errorf("ValidBlockchainAPI(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"", "esplora", "MEMPOOL"} {
		if ValidBlockchainAPI(name) {
			t.Errorf("ValidBlockchainAPI(%q) = true, want false", name)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Network != NetworkMainnet {
		t.Errorf("Network = %q, want %q", cfg.Network, NetworkMainnet)
	}
	if cfg.BlockchainAPI != APIMempool {
		t.Errorf("BlockchainAPI = %q, want %q", cfg.BlockchainAPI, APIMempool)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Errorf("PollInterval = %s, want 30s", cfg.PollInterval)
	}
	if cfg.Timeout != 30*time.Minute {
		t.Errorf("Timeout = %s, want 30m", cfg.Timeout)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PAYWATCH_NETWORK", "testnet")
	t.Setenv("PAYWATCH_BLOCKCHAIN_API", "blockcypher")
	t.Setenv("PAYWATCH_POLL_INTERVAL", "10s")
	t.Setenv("PAYWATCH_MAX_ACTIVE_SESSIONS", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Network != NetworkTestnet {
		t.Errorf("Network = %q, want testnet", cfg.Network)
	}
	if cfg.BlockchainAPI != APIBlockCypher {
		t.Errorf("BlockchainAPI = %q, want blockcypher", cfg.BlockchainAPI)
	}
	if cfg.PollInterval != 10*time.Second {
		t.Errorf("PollInterval = %s, want 10s", cfg.PollInterval)
	}
	if cfg.MaxActiveSessions != 5 {
		t.Errorf("MaxActiveSessions = %d, want 5", cfg.MaxActiveSessions)
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("PAYWATCH_NETWORK", "devnet")
	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for invalid network")
	}
}
