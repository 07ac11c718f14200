// internal/workers/banking/create-escrow/models.go
package createescrow

import (
	"bida-banking-workers/internal/bank"

	"github.com/shopspring/decimal"
)

type Input struct {
	InvestorID    string          `json:"investorId"`
	ApplicationID string          `json:"applicationId"`
	Amount        decimal.Decimal `json:"amount"`
	Purpose       string          `json:"purpose"`
}

type Output struct {
	EscrowAccount *bank.EscrowAccount `json:"escrowAccount"`
}
