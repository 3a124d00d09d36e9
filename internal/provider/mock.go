package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/bitagora/paywatch/internal/config"
)

// MockChecker returns a deterministic synthetic transaction without any
// network call. Used for development and tests.
type MockChecker struct {
	mu            sync.Mutex
	amount        int64
	confirmations int
	err           error
}

// NewMockChecker creates a mock checker paying 50000 sats with 1 confirmation.
func NewMockChecker() *MockChecker {
	return &MockChecker{
		amount:        50_000,
		confirmations: 1,
	}
}

func (c *MockChecker) Name() string { return config.APIMock }

// SetPayment overrides the synthetic transaction's amount and confirmations.
func (c *MockChecker) SetPayment(amount int64, confirmations int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.amount = amount
	c.confirmations = confirmations
}

// SetError makes subsequent checks fail with err (nil to clear).
func (c *MockChecker) SetError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// CheckAddress returns one synthetic transaction. The txid is derived from
// the address so repeated checks for the same address are identical.
func (c *MockChecker) CheckAddress(_ context.Context, address string) (*AddressInfo, error) {
	c.mu.Lock()
	amount, confirmations, err := c.amount, c.confirmations, c.err
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}

	info := &AddressInfo{
		Address:       address,
		Balance:       amount,
		TotalReceived: amount,
	}
	if amount > 0 {
		sum := sha256.Sum256([]byte("paywatch-mock:" + address))
		tx := Transaction{
			ID:            hex.EncodeToString(sum[:]),
			Amount:        amount,
			Confirmations: confirmations,
			Timestamp:     time.Now().Unix(),
			OutputIndex:   0,
		}
		if confirmations == 0 {
			info.UnconfirmedBalance = amount
		} else {
			tx.BlockHeight = 800_000
		}
		info.Transactions = []Transaction{tx}
	}

	return info, nil
}
