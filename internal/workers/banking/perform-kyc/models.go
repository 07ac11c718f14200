// internal/workers/banking/perform-kyc/models.go
package performkyc

import "bida-banking-workers/internal/bank"

type Input struct {
	InvestorID string `json:"investorId"`
}

type Output struct {
	KYCStatus *bank.KYCStatus `json:"kycStatus"`
}
