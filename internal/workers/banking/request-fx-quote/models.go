// internal/workers/banking/request-fx-quote/models.go
package requestfxquote

import (
	"bida-banking-workers/internal/bank"

	"github.com/shopspring/decimal"
)

type Input struct {
	InvestorID   string          `json:"investorId"`
	FromCurrency string          `json:"fromCurrency"`
	ToCurrency   string          `json:"toCurrency"`
	Amount       decimal.Decimal `json:"amount"`
}

type Output struct {
	FXQuote *bank.FXQuote `json:"fxQuote"`
}
