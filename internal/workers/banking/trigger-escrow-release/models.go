// internal/workers/banking/trigger-escrow-release/models.go
package triggerescrowrelease

import "bida-banking-workers/internal/bank"

type Input struct {
	InvestorID    string `json:"investorId"`
	ApplicationID string `json:"applicationId"`
}

// Output reports Released=false when there was no active escrow to release.
type Output struct {
	Released      bool                `json:"released"`
	EscrowAccount *bank.EscrowAccount `json:"escrowAccount,omitempty"`
}
