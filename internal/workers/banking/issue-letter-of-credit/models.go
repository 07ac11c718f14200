// internal/workers/banking/issue-letter-of-credit/models.go
package issueletterofcredit

import (
	"bida-banking-workers/internal/bank"

	"github.com/shopspring/decimal"
)

type Input struct {
	InvestorID    string          `json:"investorId"`
	ApplicationID string          `json:"applicationId"`
	Amount        decimal.Decimal `json:"amount"`
	Beneficiary   string          `json:"beneficiary"`
	Purpose       string          `json:"purpose"`
}

type Output struct {
	LetterOfCredit *bank.LetterOfCredit `json:"letterOfCredit"`
}
