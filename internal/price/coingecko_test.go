package price

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/bitagora/paywatch/internal/config"
)

func TestBTCUSD(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/simple/price" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("ids") != "bitcoin" {
			t.Errorf("unexpected ids param: %s", r.URL.Query().Get("ids"))
		}
		fmt.Fprint(w, `{"bitcoin": {"usd": 97500.0}}`)
	}))
	defer srv.Close()

	s := NewServiceWithURL(srv.URL)

	rate, err := s.BTCUSD(context.Background())
	if err != nil {
		t.Fatalf("BTCUSD: %v", err)
	}
	if rate != 97500.0 {
		t.Errorf("rate = %f, want 97500", rate)
	}

	// Second call within the cache window must not hit the API again.
	if _, err := s.BTCUSD(context.Background()); err != nil {
		t.Fatalf("BTCUSD (cached): %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("API hits = %d, want 1", hits.Load())
	}
}

func TestBTCUSDErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-200",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "rate limited", http.StatusTooManyRequests)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{not json`)
			},
		},
		{
			name: "missing bitcoin entry",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"ethereum": {"usd": 3000.0}}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			s := NewServiceWithURL(srv.URL)
			_, err := s.BTCUSD(context.Background())
			if !errors.Is(err, config.ErrPriceFetchFailed) {
				t.Errorf("err = %v, want ErrPriceFetchFailed", err)
			}
		})
	}
}

func TestUSDToSats(t *testing.T) {
	tests := []struct {
		name    string
		usd     float64
		rate    float64
		want    int64
		wantErr bool
	}{
		{name: "one BTC worth", usd: 100000, rate: 100000, want: 100_000_000},
		{name: "small purchase", usd: 25, rate: 100000, want: 25_000},
		{name: "rounds to nearest sat", usd: 0.001, rate: 97500, want: 1},
		{name: "zero USD", usd: 0, rate: 97500, want: 0},
		{name: "zero rate", usd: 25, rate: 0, wantErr: true},
		{name: "negative rate", usd: 25, rate: -1, wantErr: true},
		{name: "negative USD", usd: -5, rate: 97500, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := USDToSats(tt.usd, tt.rate)
			if (err != nil) != tt.wantErr {
				t.Fatalf("USDToSats(%f, %f) error = %v, wantErr %v", tt.usd, tt.rate, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("USDToSats(%f, %f) = %d, want %d", tt.usd, tt.rate, got, tt.want)
			}
		})
	}
}
