package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStartMonitoring(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/monitor" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}

		var req StartRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Address != "addr1" || req.ExpectedAmount != 50000 {
			t.Errorf("unexpected request body: %+v", req)
		}

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"data": {"id": "sess-1", "address": "addr1", "expected_amount": 50000, "status": "pending", "target_confirmations": 1}}`)
	}))
	defer server.Close()

	c := New(server.URL)
	session, err := c.StartMonitoring(context.Background(), StartRequest{Address: "addr1", ExpectedAmount: 50000})
	if err != nil {
		t.Fatalf("StartMonitoring: %v", err)
	}
	if session.ID != "sess-1" || session.Status != StatusPending {
		t.Errorf("unexpected session: %+v", session)
	}
}

func TestStartMonitoringAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"error": {"code": "ERROR_ALREADY_MONITORING", "message": "address already being monitored"}}`)
	}))
	defer server.Close()

	c := New(server.URL)
	_, err := c.StartMonitoring(context.Background(), StartRequest{Address: "addr1", ExpectedAmount: 50000})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.HTTPStatus != http.StatusConflict {
		t.Errorf("HTTPStatus = %d, want 409", apiErr.HTTPStatus)
	}
	if apiErr.Code != "ERROR_ALREADY_MONITORING" {
		t.Errorf("Code = %q, want ERROR_ALREADY_MONITORING", apiErr.Code)
	}
}

func TestStatusNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error": {"code": "ERROR_SESSION_NOT_FOUND", "message": "no session"}}`)
	}))
	defer server.Close()

	c := New(server.URL)
	_, err := c.Status(context.Background(), "addr1")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/monitor/addr1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"data": {
			"id": "sess-1",
			"address": "addr1",
			"expected_amount": 50000,
			"received_amount": 50000,
			"status": "confirming",
			"confirmations": 2,
			"target_confirmations": 3,
			"transactions": [{"id": "aaa", "amount": 50000, "confirmations": 2, "output_index": 0}]
		}}`)
	}))
	defer server.Close()

	c := New(server.URL)
	session, err := c.Status(context.Background(), "addr1")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if session.Status != StatusConfirming || session.Confirmations != 2 {
		t.Errorf("unexpected session: %+v", session)
	}
	if len(session.Transactions) != 1 {
		t.Errorf("Transactions = %d, want 1", len(session.Transactions))
	}
}

func TestStopMonitoring(t *testing.T) {
	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		fmt.Fprint(w, `{"data": {"ok": true}}`)
	}))
	defer server.Close()

	c := New(server.URL)
	if err := c.StopMonitoring(context.Background(), "addr1"); err != nil {
		t.Fatalf("StopMonitoring: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/api/monitor/addr1" {
		t.Errorf("request = %s %s, want DELETE /api/monitor/addr1", gotMethod, gotPath)
	}
}

func TestCheckAddress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": {"address": "addr1", "balance": 70000, "transactions": [{"id": "aaa", "amount": 70000, "confirmations": 1}]}}`)
	}))
	defer server.Close()

	c := New(server.URL)
	info, err := c.CheckAddress(context.Background(), "addr1")
	if err != nil {
		t.Fatalf("CheckAddress: %v", err)
	}
	if info.Balance != 70000 || len(info.Transactions) != 1 {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []Status{StatusConfirmed, StatusFailed} {
		if !s.Terminal() {
			t.Errorf("%q should be terminal", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusUnconfirmed, StatusConfirming, StatusOverpaid, StatusUnderpaid} {
		if s.Terminal() {
			t.Errorf("%q should not be terminal", s)
		}
	}
}
