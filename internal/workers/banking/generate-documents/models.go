// internal/workers/banking/generate-documents/models.go
package generatedocuments

import "bida-banking-workers/internal/bank"

type Input struct {
	InvestorID string `json:"investorId"`
}

type Output struct {
	Documents     []bank.Document `json:"documents"`
	DocumentCount int             `json:"documentCount"`
	Indexed       bool            `json:"indexed"`
}
