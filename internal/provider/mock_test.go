package provider

import (
	"context"
	"errors"
	"testing"
)

func TestMockCheckerDeterministicTxID(t *testing.T) {
	checker := NewMockChecker()

	first, err := checker.CheckAddress(context.Background(), testAddr)
	if err != nil {
		t.Fatalf("CheckAddress: %v", err)
	}
	second, err := checker.CheckAddress(context.Background(), testAddr)
	if err != nil {
		t.Fatalf("CheckAddress: %v", err)
	}

	if len(first.Transactions) != 1 || len(second.Transactions) != 1 {
		t.Fatalf("expected one transaction per check")
	}
	if first.Transactions[0].ID != second.Transactions[0].ID {
		t.Error("txid differs between checks of the same address")
	}

	other, err := checker.CheckAddress(context.Background(), "different")
	if err != nil {
		t.Fatalf("CheckAddress: %v", err)
	}
	if other.Transactions[0].ID == first.Transactions[0].ID {
		t.Error("txid identical for different addresses")
	}
}

func TestMockCheckerSetPayment(t *testing.T) {
	checker := NewMockChecker()
	checker.SetPayment(99000, 0)

	info, err := checker.CheckAddress(context.Background(), testAddr)
	if err != nil {
		t.Fatalf("CheckAddress: %v", err)
	}
	tx := info.Transactions[0]
	if tx.Amount != 99000 || tx.Confirmations != 0 {
		t.Errorf("unexpected tx: %+v", tx)
	}
	if info.UnconfirmedBalance != 99000 {
		t.Errorf("UnconfirmedBalance = %d, want 99000", info.UnconfirmedBalance)
	}

	// Zero amount means no payment at all.
	checker.SetPayment(0, 0)
	info, err = checker.CheckAddress(context.Background(), testAddr)
	if err != nil {
		t.Fatalf("CheckAddress: %v", err)
	}
	if len(info.Transactions) != 0 {
		t.Errorf("Transactions = %d, want 0", len(info.Transactions))
	}
}

func TestMockCheckerSetError(t *testing.T) {
	checker := NewMockChecker()
	want := errors.New("forced failure")
	checker.SetError(want)

	if _, err := checker.CheckAddress(context.Background(), testAddr); !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}

	checker.SetError(nil)
	if _, err := checker.CheckAddress(context.Background(), testAddr); err != nil {
		t.Errorf("err = %v after clearing, want nil", err)
	}
}
