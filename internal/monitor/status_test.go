package monitor

import (
	"testing"

	"github.com/bitagora/paywatch/internal/provider"
)

func infoWith(txs ...provider.Transaction) *provider.AddressInfo {
	return &provider.AddressInfo{
		Address:      "addr1",
		Transactions: txs,
	}
}

func tx(amount int64, confirmations int) provider.Transaction {
	return provider.Transaction{
		ID:            "tx",
		Amount:        amount,
		Confirmations: confirmations,
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name              string
		expected          int64
		target            int
		txs               []provider.Transaction
		wantStatus        PaymentStatus
		wantReceived      int64
		wantConfirmations int
	}{
		{
			name:       "no transactions is pending",
			expected:   50000,
			target:     1,
			txs:        nil,
			wantStatus: StatusPending,
		},
		{
			name:       "pending regardless of target confirmations",
			expected:   50000,
			target:     6,
			txs:        nil,
			wantStatus: StatusPending,
		},
		{
			name:              "exact amount zero confirmations is unconfirmed",
			expected:          50000,
			target:            1,
			txs:               []provider.Transaction{tx(50000, 0)},
			wantStatus:        StatusUnconfirmed,
			wantReceived:      50000,
			wantConfirmations: 0,
		},
		{
			name:              "exact amount below target is confirming",
			expected:          50000,
			target:            3,
			txs:               []provider.Transaction{tx(50000, 2)},
			wantStatus:        StatusConfirming,
			wantReceived:      50000,
			wantConfirmations: 2,
		},
		{
			name:              "exact amount at target is confirmed",
			expected:          50000,
			target:            1,
			txs:               []provider.Transaction{tx(50000, 1)},
			wantStatus:        StatusConfirmed,
			wantReceived:      50000,
			wantConfirmations: 1,
		},
		{
			name:              "exact amount above target is confirmed",
			expected:          50000,
			target:            2,
			txs:               []provider.Transaction{tx(50000, 10)},
			wantStatus:        StatusConfirmed,
			wantReceived:      50000,
			wantConfirmations: 10,
		},
		{
			name:              "underpaid regardless of confirmation count",
			expected:          50000,
			target:            1,
			txs:               []provider.Transaction{tx(30000, 5)},
			wantStatus:        StatusUnderpaid,
			wantReceived:      30000,
			wantConfirmations: 5,
		},
		{
			name:              "overpaid regardless of confirmation count",
			expected:          50000,
			target:            1,
			txs:               []provider.Transaction{tx(60000, 0)},
			wantStatus:        StatusOverpaid,
			wantReceived:      60000,
			wantConfirmations: 0,
		},
		{
			name:     "two transactions sum to exact amount",
			expected: 50000,
			target:   1,
			txs: []provider.Transaction{
				tx(30000, 4),
				tx(20000, 1),
			},
			wantStatus:        StatusConfirmed,
			wantReceived:      50000,
			wantConfirmations: 4,
		},
		{
			name:     "confirmations is max not sum",
			expected: 50000,
			target:   6,
			txs: []provider.Transaction{
				tx(25000, 3),
				tx(25000, 3),
			},
			wantStatus:        StatusConfirming,
			wantReceived:      50000,
			wantConfirmations: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.expected, tt.target, infoWith(tt.txs...))
			if got.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", got.Status, tt.wantStatus)
			}
			if got.ReceivedAmount != tt.wantReceived {
				t.Errorf("ReceivedAmount = %d, want %d", got.ReceivedAmount, tt.wantReceived)
			}
			if got.Confirmations != tt.wantConfirmations {
				t.Errorf("Confirmations = %d, want %d", got.Confirmations, tt.wantConfirmations)
			}
		})
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	info := infoWith(tx(30000, 2), tx(20000, 0))

	first := Evaluate(50000, 3, info)
	second := Evaluate(50000, 3, info)

	if first != second {
		t.Errorf("repeated evaluation differs: first %+v, second %+v", first, second)
	}
}

// An overpaid or underpaid session becomes exact when a later snapshot
// changes the total; the reducer must re-derive from scratch.
func TestEvaluateOverpaidBecomingExact(t *testing.T) {
	over := Evaluate(50000, 1, infoWith(tx(60000, 1)))
	if over.Status != StatusOverpaid {
		t.Fatalf("Status = %q, want %q", over.Status, StatusOverpaid)
	}

	exact := Evaluate(50000, 1, infoWith(tx(50000, 1)))
	if exact.Status != StatusConfirmed {
		t.Errorf("Status = %q, want %q", exact.Status, StatusConfirmed)
	}
}

func TestTerminal(t *testing.T) {
	terminal := []PaymentStatus{StatusConfirmed, StatusFailed}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%q should be terminal", s)
		}
	}

	active := []PaymentStatus{StatusPending, StatusUnconfirmed, StatusConfirming, StatusOverpaid, StatusUnderpaid}
	for _, s := range active {
		if s.Terminal() {
			t.Errorf("%q should not be terminal", s)
		}
	}
}
