// internal/workers/banking/init-state/models.go
package initstate

import "bida-banking-workers/internal/bank"

type Input struct {
	InvestorID    string `json:"investorId"`
	InvestorName  string `json:"investorName"`
	ApplicationID string `json:"applicationId"`
}

type Output struct {
	BankState *bank.BankState `json:"bankState"`
	Created   bool            `json:"created"`
}
