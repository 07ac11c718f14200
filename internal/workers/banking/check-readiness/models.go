// internal/workers/banking/check-readiness/models.go
package checkreadiness

type Input struct {
	InvestorID string `json:"investorId"`
}

type Output struct {
	ReadinessScore int            `json:"readinessScore"`
	ReadinessLevel string         `json:"readinessLevel"`
	CompletedSteps []string       `json:"completedSteps"`
	Breakdown      ScoreBreakdown `json:"scoreBreakdown"`
}

// ScoreBreakdown shows which of the five banking steps contributed points.
type ScoreBreakdown struct {
	KYC            int `json:"kyc"`
	Account        int `json:"account"`
	Escrow         int `json:"escrow"`
	LetterOfCredit int `json:"letterOfCredit"`
	Loan           int `json:"loan"`
}
