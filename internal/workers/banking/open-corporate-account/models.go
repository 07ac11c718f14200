// internal/workers/banking/open-corporate-account/models.go
package opencorporateaccount

import "bida-banking-workers/internal/bank"

type Input struct {
	InvestorID  string `json:"investorId"`
	CompanyName string `json:"companyName"`
}

type Output struct {
	CorporateAccount *bank.BankAccount `json:"corporateAccount"`
}
