package provider

import (
	"context"
	"io"
	"net/http"

	"github.com/bitagora/paywatch/internal/config"
)

// AddressChecker is the interface for blockchain explorer adapters.
// Each implementation normalizes one explorer's view of an address into
// the common AddressInfo shape.
type AddressChecker interface {
	// Name returns the provider identifier (e.g. "mempool", "blockcypher").
	Name() string
	// CheckAddress returns a fresh snapshot of the address's incoming payments.
	CheckAddress(ctx context.Context, address string) (*AddressInfo, error)
}

// Transaction is one incoming payment output observed for a watched address.
// Amounts are satoshis.
type Transaction struct {
	ID            string `json:"id"`
	Amount        int64  `json:"amount"`
	Confirmations int    `json:"confirmations"`
	BlockHeight   int64  `json:"block_height,omitempty"`
	BlockHash     string `json:"block_hash,omitempty"`
	Timestamp     int64  `json:"timestamp"`
	OutputIndex   int    `json:"output_index"`
}

// AddressInfo is a provider-normalized snapshot of an address.
// Produced fresh on every poll; never persisted.
type AddressInfo struct {
	Address            string        `json:"address"`
	Balance            int64         `json:"balance"`
	TotalReceived      int64         `json:"total_received"`
	TotalSent          int64         `json:"total_sent"`
	UnconfirmedBalance int64         `json:"unconfirmed_balance"`
	Transactions       []Transaction `json:"transactions"`
}

// NewHTTPClient creates a configured HTTP client for provider use.
func NewHTTPClient() *http.Client {
	transport := &http.Transport{
		MaxConnsPerHost:     config.HTTPMaxConnsPerHost,
		MaxIdleConnsPerHost: config.HTTPMaxIdleConnsPerHost,
		MaxIdleConns:        config.HTTPMaxIdleConns,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   config.ProviderRequestTimeout,
	}
}

// doGet performs a GET request and returns the response body.
// Non-2xx statuses and transport failures surface as *Error.
func doGet(ctx context.Context, client *http.Client, providerName, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Provider: providerName, Message: "create request: " + err.Error()}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{Provider: providerName, Message: "http request failed: " + err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Provider: providerName, Status: resp.StatusCode, Message: "read response body: " + err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Provider: providerName, Status: resp.StatusCode, Message: string(body)}
	}

	return body, nil
}
