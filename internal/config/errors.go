package config

import "errors"

// Sentinel errors for internal use.
var (
	ErrAlreadyMonitoring  = errors.New("address already being monitored")
	ErrMaxSessions        = errors.New("max active sessions reached")
	ErrSessionNotFound    = errors.New("no active session for address")
	ErrUnknownProvider    = errors.New("unknown blockchain API provider")
	ErrCircuitOpen        = errors.New("circuit breaker is open")
	ErrAllProvidersFailed = errors.New("all providers failed")
	ErrNoProviders        = errors.New("no providers configured")
	ErrPriceFetchFailed   = errors.New("price fetch failed")
)

// Error codes — shared with the POS frontend via API responses.
const (
	ErrorInvalidRequest    = "ERROR_INVALID_REQUEST"
	ErrorInvalidAddress    = "ERROR_INVALID_ADDRESS"
	ErrorInvalidAmount     = "ERROR_INVALID_AMOUNT"
	ErrorInvalidConfig     = "ERROR_INVALID_CONFIG"
	ErrorAlreadyMonitoring = "ERROR_ALREADY_MONITORING"
	ErrorMaxSessions       = "ERROR_MAX_SESSIONS"
	ErrorSessionNotFound   = "ERROR_SESSION_NOT_FOUND"
	ErrorProvider          = "ERROR_PROVIDER"
	ErrorInternal          = "ERROR_INTERNAL"
)
