package bank

const readinessStepPoints = 20

// CalculateReadinessScore returns 0-100: 20 points each for approved KYC, an
// active account, an escrow, an LC and a loan pre-approval.
func CalculateReadinessScore(state *BankState) int {
	if state == nil {
		return 0
	}

	score := 0
	if state.KYCApproved() {
		score += readinessStepPoints
	}
	if state.HasActiveAccount() {
		score += readinessStepPoints
	}
	if state.EscrowAccount != nil {
		score += readinessStepPoints
	}
	if state.LetterOfCredit != nil {
		score += readinessStepPoints
	}
	if state.LoanApplication != nil {
		score += readinessStepPoints
	}
	return score
}
