package config

import "time"

// Networks
const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
)

// Blockchain explorer API selectors
const (
	APIMempool     = "mempool"
	APIBlockCypher = "blockcypher"
	APIBlockchair  = "blockchair"
	APIMock        = "mock"
)

// Explorer base URLs
const (
	MempoolMainnetURL     = "https://mempool.space/api"
	MempoolTestnetURL     = "https://mempool.space/testnet/api"
	BlockCypherMainnetURL = "https://api.blockcypher.com/v1/btc/main"
	BlockCypherTestnetURL = "https://api.blockcypher.com/v1/btc/test3"
	BlockchairMainnetURL  = "https://api.blockchair.com/bitcoin"
	BlockchairTestnetURL  = "https://api.blockchair.com/bitcoin/testnet"
)

// Monitoring defaults and bounds
const (
	DefaultTargetConfirmations = 1
	DefaultPollInterval        = 30 * time.Second
	DefaultSessionTimeout      = 30 * time.Minute
	MinPollInterval            = 1 * time.Second
	MaxSessionTimeout          = 24 * time.Hour
	// TerminalRetention is how long a finished session's final snapshot stays
	// readable after teardown, so a client polling slower than the server
	// still observes the confirmed/failed outcome instead of a 404.
	TerminalRetention = 1 * time.Minute
)

// Provider rate limits (requests per second)
const (
	RateLimitMempool     = 10
	RateLimitBlockCypher = 3
	RateLimitBlockchair  = 5
	RateLimitMock        = 100
)

// Circuit breaker
const (
	CircuitBreakerThreshold   = 5
	CircuitBreakerCooldown    = 60 * time.Second
	CircuitBreakerHalfOpenMax = 1
)

// Circuit breaker states
const (
	CircuitClosed   = "closed"
	CircuitOpen     = "open"
	CircuitHalfOpen = "half-open"
)

// HTTP client (provider calls)
const (
	ProviderRequestTimeout  = 15 * time.Second
	HTTPMaxConnsPerHost     = 10
	HTTPMaxIdleConnsPerHost = 5
	HTTPMaxIdleConns        = 20
)

// Server
const (
	ServerReadTimeout  = 30 * time.Second
	ServerWriteTimeout = 60 * time.Second
	ShutdownTimeout    = 10 * time.Second
)

// Logging
const (
	LogFilePrefix = "paywatch-"
	LogMaxAgeDays = 14
)

// Client poller
const (
	ClientPollInterval = 30 * time.Second
)

// Price feed
const (
	CoinGeckoBaseURL   = "https://api.coingecko.com/api/v3"
	PriceCacheDuration = 1 * time.Minute
	PriceFetchTimeout  = 10 * time.Second
)

// Bitcoin
const (
	BTCDecimals    = 8
	SatoshisPerBTC = 100_000_000
)
