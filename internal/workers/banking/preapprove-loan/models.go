// internal/workers/banking/preapprove-loan/models.go
package preapproveloan

import (
	"bida-banking-workers/internal/bank"

	"github.com/shopspring/decimal"
)

type Input struct {
	InvestorID string          `json:"investorId"`
	Amount     decimal.Decimal `json:"amount"`
	Purpose    string          `json:"purpose"`
	TermMonths int             `json:"termMonths"`
}

type Output struct {
	LoanApplication *bank.LoanApplication `json:"loanApplication"`
}
