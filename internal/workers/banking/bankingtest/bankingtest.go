// Package bankingtest builds in-memory bank services for worker tests.
package bankingtest

import (
	"context"
	"testing"
	"time"

	"bida-banking-workers/internal/bank"
	"bida-banking-workers/internal/bank/store"
	"bida-banking-workers/internal/common/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var Now = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

const (
	InvestorID    = "inv-1"
	InvestorName  = "Acme Ltd"
	ApplicationID = "APP-100"
)

// Stage is how far Seed advances the investor.
type Stage int

const (
	Initialized Stage = iota + 1
	KYCApproved
	AccountOpen
	EscrowCreated
)

// NewService returns a zero-latency service on a fresh memory store.
func NewService(t testing.TB) *bank.Service {
	t.Helper()
	return bank.NewService(bank.Options{
		Repository: store.NewMemoryStore(),
		Latency:    bank.NoLatency,
		Clock:      func() time.Time { return Now },
		Logger:     logger.NewNoOpLogger(),
	})
}

// Seed drives InvestorID through the workflow up to stage.
func Seed(t testing.TB, svc *bank.Service, stage Stage) {
	t.Helper()
	ctx := context.Background()

	_, _, err := svc.InitBankState(ctx, InvestorID, InvestorName, ApplicationID)
	require.NoError(t, err)
	if stage < KYCApproved {
		return
	}
	_, err = svc.PerformKYC(ctx, InvestorID)
	require.NoError(t, err)
	if stage < AccountOpen {
		return
	}
	_, err = svc.OpenCorporateAccount(ctx, InvestorID, InvestorName)
	require.NoError(t, err)
	if stage < EscrowCreated {
		return
	}
	_, err = svc.CreateEscrow(ctx, InvestorID, ApplicationID, decimal.NewFromInt(500000), "Conditional approval escrow")
	require.NoError(t, err)
}
