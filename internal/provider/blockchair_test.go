package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBlockchairCheckAddress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/dashboards/address/"+testAddr {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `{
			"data": {
				%q: {
					"address": {"balance": 70000, "received": 70000, "spent": 0},
					"utxo": [
						{"block_id": 800001, "transaction_hash": "aaa", "index": 1, "value": 50000},
						{"block_id": -1, "transaction_hash": "bbb", "index": 0, "value": 20000}
					]
				}
			},
			"context": {"code": 200, "state": 800010}
		}`, testAddr)
	}))
	defer server.Close()

	checker := &BlockchairChecker{client: server.Client(), baseURL: server.URL}

	info, err := checker.CheckAddress(context.Background(), testAddr)
	if err != nil {
		t.Fatalf("CheckAddress: %v", err)
	}

	if info.Balance != 70000 {
		t.Errorf("Balance = %d, want 70000", info.Balance)
	}
	if info.UnconfirmedBalance != 20000 {
		t.Errorf("UnconfirmedBalance = %d, want 20000", info.UnconfirmedBalance)
	}
	if len(info.Transactions) != 2 {
		t.Fatalf("Transactions = %d, want 2", len(info.Transactions))
	}

	confirmed := info.Transactions[0]
	// tip 800010, block 800001 → 10 confirmations.
	if confirmed.ID != "aaa" || confirmed.Confirmations != 10 || confirmed.OutputIndex != 1 {
		t.Errorf("unexpected confirmed tx: %+v", confirmed)
	}

	unconfirmed := info.Transactions[1]
	if unconfirmed.ID != "bbb" || unconfirmed.Confirmations != 0 || unconfirmed.BlockHeight != 0 {
		t.Errorf("unexpected unconfirmed tx: %+v", unconfirmed)
	}
}

func TestBlockchairMissingAddressInResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": {}, "context": {"code": 200, "state": 800010}}`)
	}))
	defer server.Close()

	checker := &BlockchairChecker{client: server.Client(), baseURL: server.URL}

	_, err := checker.CheckAddress(context.Background(), testAddr)
	if err == nil {
		t.Fatal("expected error when dashboard omits the address")
	}
	if _, ok := err.(*Error); !ok {
		t.Errorf("error type = %T, want *Error", err)
	}
}

func TestBlockchairAPIKeyAppended(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		fmt.Fprintf(w, `{"data": {%q: {"address": {}}}, "context": {"state": 800010}}`, testAddr)
	}))
	defer server.Close()

	checker := &BlockchairChecker{client: server.Client(), baseURL: server.URL, apiKey: "secret"}

	if _, err := checker.CheckAddress(context.Background(), testAddr); err != nil {
		t.Fatalf("CheckAddress: %v", err)
	}
	if gotKey != "secret" {
		t.Errorf("key = %q, want %q", gotKey, "secret")
	}
}
