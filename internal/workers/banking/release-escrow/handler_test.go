// internal/workers/banking/release-escrow/handler_test.go
package releaseescrow

import (
	"context"
	"testing"

	"bida-banking-workers/internal/bank"
	"bida-banking-workers/internal/common/logger"
	"bida-banking-workers/internal/workers/banking"
	"bida-banking-workers/internal/workers/banking/bankingtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute(t *testing.T) {
	svc := bankingtest.NewService(t)
	bankingtest.Seed(t, svc, bankingtest.EscrowCreated)
	h := NewHandler(&banking.Config{}, svc, logger.NewTestLogger(t))
	ctx := context.Background()

	out, err := h.Execute(ctx, &Input{InvestorID: bankingtest.InvestorID, Reason: "Conditions met"})
	require.NoError(t, err)
	assert.Equal(t, bank.EscrowReleased, out.EscrowAccount.Status)
	assert.Equal(t, "Conditions met", out.EscrowAccount.ReleaseReason)
	require.NotNil(t, out.EscrowAccount.ReleasedDate)

	_, err = h.Execute(ctx, &Input{InvestorID: bankingtest.InvestorID})
	assert.ErrorIs(t, err, bank.ErrEscrowAlreadyReleased)

	state, err := svc.GetBankState(ctx, bankingtest.InvestorID)
	require.NoError(t, err)
	assert.Equal(t, "Conditions met", state.EscrowAccount.ReleaseReason)
	assert.Contains(t, state.CompletedSteps, bank.StepEscrowRelease)
}

func TestExecute_NoEscrow(t *testing.T) {
	svc := bankingtest.NewService(t)
	bankingtest.Seed(t, svc, bankingtest.AccountOpen)
	h := NewHandler(&banking.Config{}, svc, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{InvestorID: bankingtest.InvestorID})
	assert.ErrorIs(t, err, bank.ErrNoEscrowFound)
}

func TestExecute_DefaultReason(t *testing.T) {
	svc := bankingtest.NewService(t)
	bankingtest.Seed(t, svc, bankingtest.EscrowCreated)
	h := NewHandler(&banking.Config{}, svc, logger.NewTestLogger(t))

	out, err := h.run(context.Background(), map[string]interface{}{"investorId": bankingtest.InvestorID})
	require.NoError(t, err)
	assert.NotEmpty(t, out.(*Output).EscrowAccount.ReleaseReason)
}
