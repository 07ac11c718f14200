package bank

import (
	"context"
	"time"
)

// Operation names used for latency, metrics and events.
const (
	OpInitState      = "init_state"
	OpUpdateState    = "update_state"
	OpCompleteStep   = "complete_step"
	OpAddMessage     = "add_message"
	OpSelectBank     = "select_bank"
	OpKYC            = "kyc"
	OpAccount        = "account"
	OpEscrow         = "escrow"
	OpLetterOfCredit = "letter_of_credit"
	OpLoan           = "loan"
	OpFXQuote        = "fx_quote"
	OpEscrowRelease  = "escrow_release"
)

// LatencySimulator stands in for the round trip to a partner bank.
type LatencySimulator interface {
	Wait(ctx context.Context, operation string) error
}

// FixedLatency sleeps a configured duration per operation. Unknown operations
// do not wait.
type FixedLatency map[string]time.Duration

// NewFixedLatency converts a millisecond table from configuration.
func NewFixedLatency(ms map[string]int) FixedLatency {
	l := make(FixedLatency, len(ms))
	for op, v := range ms {
		l[op] = time.Duration(v) * time.Millisecond
	}
	return l
}

func (l FixedLatency) Wait(ctx context.Context, operation string) error {
	d := l[operation]
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type noLatency struct{}

func (noLatency) Wait(ctx context.Context, _ string) error { return ctx.Err() }

// NoLatency returns immediately.
var NoLatency LatencySimulator = noLatency{}
