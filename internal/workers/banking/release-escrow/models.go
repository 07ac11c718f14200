// internal/workers/banking/release-escrow/models.go
package releaseescrow

import "bida-banking-workers/internal/bank"

type Input struct {
	InvestorID string `json:"investorId"`
	Reason     string `json:"reason"`
}

type Output struct {
	EscrowAccount *bank.EscrowAccount `json:"escrowAccount"`
}
