package monitor

import "github.com/bitagora/paywatch/internal/provider"

// Outcome is the result of evaluating a fresh address snapshot against the
// expected amount.
type Outcome struct {
	Status         PaymentStatus
	ReceivedAmount int64
	Confirmations  int
}

// Evaluate derives the payment status from raw transaction evidence.
//
// The status is re-derived idempotently from the full snapshot on every poll
// rather than patched incrementally: transaction sets and confirmation counts
// change between polls, and the policy must reflect the latest chain view.
// That also means an overpaid or underpaid session correctly moves on to
// unconfirmed/confirming/confirmed if a later transaction makes the total
// exact.
//
// StatusFailed is never produced here — the session manager imposes it on
// timeout or on the retry cap while a session is still pending.
func Evaluate(expectedAmount int64, targetConfirmations int, info *provider.AddressInfo) Outcome {
	var received int64
	maxConfirmations := 0
	for _, tx := range info.Transactions {
		received += tx.Amount
		if tx.Confirmations > maxConfirmations {
			maxConfirmations = tx.Confirmations
		}
	}

	if received == 0 {
		return Outcome{Status: StatusPending}
	}

	out := Outcome{ReceivedAmount: received, Confirmations: maxConfirmations}
	switch {
	case received < expectedAmount:
		out.Status = StatusUnderpaid
	case received > expectedAmount:
		out.Status = StatusOverpaid
	case maxConfirmations == 0:
		out.Status = StatusUnconfirmed
	case maxConfirmations < targetConfirmations:
		out.Status = StatusConfirming
	default:
		out.Status = StatusConfirmed
	}
	return out
}
