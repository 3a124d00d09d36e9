// Package client is the Go consumer of the paywatch monitoring API: a thin
// HTTP client plus a status poller that turns polled status changes into
// edge-triggered callbacks, mirroring what the POS checkout modal does in
// the browser.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Status is a payment status as reported by the monitoring service.
type Status string

const (
	StatusPending     Status = "pending"
	StatusUnconfirmed Status = "unconfirmed"
	StatusConfirming  Status = "confirming"
	StatusConfirmed   Status = "confirmed"
	StatusOverpaid    Status = "overpaid"
	StatusUnderpaid   Status = "underpaid"
	StatusFailed      Status = "failed"
)

// Terminal reports whether the status ends a session.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

// ErrNotFound is returned when no active session exists for an address.
var ErrNotFound = errors.New("no active monitoring session")

// APIError is a non-success response from the monitoring service.
type APIError struct {
	HTTPStatus int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paywatch API error (HTTP %d, %s): %s", e.HTTPStatus, e.Code, e.Message)
}

// Transaction mirrors the service's transaction record.
type Transaction struct {
	ID            string `json:"id"`
	Amount        int64  `json:"amount"`
	Confirmations int    `json:"confirmations"`
	BlockHeight   int64  `json:"block_height,omitempty"`
	BlockHash     string `json:"block_hash,omitempty"`
	Timestamp     int64  `json:"timestamp"`
	OutputIndex   int    `json:"output_index"`
}

// Session mirrors the service's session snapshot.
type Session struct {
	ID                  string        `json:"id"`
	Address             string        `json:"address"`
	ExpectedAmount      int64         `json:"expected_amount"`
	USDAmount           float64       `json:"usd_amount,omitempty"`
	ReceivedAmount      int64         `json:"received_amount"`
	Status              Status        `json:"status"`
	Confirmations       int           `json:"confirmations"`
	TargetConfirmations int           `json:"target_confirmations"`
	Transactions        []Transaction `json:"transactions"`
	Provider            string        `json:"provider"`
	StartedAt           time.Time     `json:"started_at"`
	LastChecked         *time.Time    `json:"last_checked,omitempty"`
	CompletedAt         *time.Time    `json:"completed_at,omitempty"`
}

// AddressInfo mirrors the service's one-shot address check response.
type AddressInfo struct {
	Address            string        `json:"address"`
	Balance            int64         `json:"balance"`
	TotalReceived      int64         `json:"total_received"`
	TotalSent          int64         `json:"total_sent"`
	UnconfirmedBalance int64         `json:"unconfirmed_balance"`
	Transactions       []Transaction `json:"transactions"`
}

// Config is a partial monitoring config, durations in milliseconds.
type Config struct {
	TargetConfirmations *int    `json:"target_confirmations,omitempty"`
	PollIntervalMs      *int64  `json:"poll_interval_ms,omitempty"`
	TimeoutMs           *int64  `json:"timeout_ms,omitempty"`
	MaxRetries          *int    `json:"max_retries,omitempty"`
	BlockchainAPI       *string `json:"blockchain_api,omitempty"`
}

// StartRequest is the start-monitoring request body.
type StartRequest struct {
	Address        string  `json:"address"`
	ExpectedAmount int64   `json:"expected_amount"`
	USDAmount      float64 `json:"usd_amount,omitempty"`
	Config         *Config `json:"config,omitempty"`
}

// Client calls the paywatch monitoring API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the service at baseURL (e.g. "http://localhost:8080").
func New(baseURL string) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: 15 * time.Second})
}

// NewWithHTTPClient creates a client with a caller-supplied http.Client.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: baseURL, http: hc}
}

// StartMonitoring starts a monitoring session for the address.
func (c *Client) StartMonitoring(ctx context.Context, req StartRequest) (*Session, error) {
	var session Session
	if err := c.do(ctx, http.MethodPost, "/api/monitor", req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Status fetches the current session state for the address.
// Returns ErrNotFound when no active session exists.
func (c *Client) Status(ctx context.Context, address string) (*Session, error) {
	var session Session
	if err := c.do(ctx, http.MethodGet, "/api/monitor/"+address, nil, &session); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatus == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, address)
		}
		return nil, err
	}
	return &session, nil
}

// StopMonitoring stops the session for the address. Idempotent.
func (c *Client) StopMonitoring(ctx context.Context, address string) error {
	return c.do(ctx, http.MethodDelete, "/api/monitor/"+address, nil, nil)
}

// Price is the service's BTC/USD rate quote.
type Price struct {
	BTCUSD    float64   `json:"btc_usd"`
	FetchedAt time.Time `json:"fetched_at"`
}

// GetPrice fetches the current BTC/USD rate from the service.
func (c *Client) GetPrice(ctx context.Context) (*Price, error) {
	var p Price
	if err := c.do(ctx, http.MethodGet, "/api/price", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CheckAddress performs a one-shot address inspection without a session.
func (c *Client) CheckAddress(ctx context.Context, address string) (*AddressInfo, error) {
	var info AddressInfo
	if err := c.do(ctx, http.MethodGet, "/api/address/"+address, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// do runs one request/response cycle against the service, unwrapping the
// {"data": ...} / {"error": {...}} envelope.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		apiErr := &APIError{HTTPStatus: resp.StatusCode}
		if json.Unmarshal(raw, &envelope) == nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		} else {
			apiErr.Message = string(raw)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode response envelope: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}
