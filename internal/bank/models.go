// Package bank implements the simulated partner-bank integration used by the
// investor dashboard: per-investor bank state, the mock bank API, escrow
// release, FX quotes, readiness scoring and the bank document projection.
package bank

import (
	"time"

	"github.com/shopspring/decimal"
)

type KYCState string

const (
	KYCNotStarted KYCState = "not-started"
	KYCSubmitted  KYCState = "submitted"
	KYCApproved   KYCState = "approved"
	KYCRejected   KYCState = "rejected"
)

type AccountStatus string

const (
	AccountPending AccountStatus = "pending"
	AccountActive  AccountStatus = "active"
	AccountFrozen  AccountStatus = "frozen"
	AccountClosed  AccountStatus = "closed"
)

type EscrowStatus string

const (
	EscrowActive   EscrowStatus = "active"
	EscrowReleased EscrowStatus = "released"
)

const (
	LCIssued         = "issued"
	LoanPreapproved  = "preapproved"
	AccountCorporate = "corporate"
	BaseCurrency     = "USD"
)

type Recipient string

const (
	RecipientInvestor Recipient = "investor"
	RecipientOfficer  Recipient = "officer"
)

type MessageCategory string

const (
	CategoryKYC     MessageCategory = "kyc"
	CategoryAccount MessageCategory = "account"
	CategoryEscrow  MessageCategory = "escrow"
	CategoryLC      MessageCategory = "lc"
	CategoryLoan    MessageCategory = "loan"
	CategoryFX      MessageCategory = "fx"
	CategorySystem  MessageCategory = "system"
)

// Workflow step names recorded in BankState.CompletedSteps.
const (
	StepCompleteKYC   = "Complete KYC"
	StepOpenAccount   = "Open Corporate Account"
	StepCreateEscrow  = "Create Escrow Account"
	StepIssueLC       = "Issue Letter of Credit"
	StepLoanApproval  = "Loan Pre-Approval"
	StepEscrowRelease = "Escrow Released"
)

// EscrowReleaseConditions are attached to every new escrow, in this order.
var EscrowReleaseConditions = []string{
	"BIDA investment registration approved",
	"Environmental clearance obtained",
	"Trade license issued",
	"Regulatory compliance verified",
}

var (
	LoanInterestRate = decimal.RequireFromString("7.2")
	DefaultLoanTerm  = 60
	LCValidity       = 180 * 24 * time.Hour
	FXQuoteValidity  = 15 * time.Minute
)

type KYCDocuments struct {
	Passport        bool `json:"passport"`
	TradeLicense    bool `json:"tradeLicense"`
	TINCertificate  bool `json:"tinCertificate"`
	BoardResolution bool `json:"boardResolution"`
}

type KYCStatus struct {
	Status      KYCState     `json:"status"`
	SubmittedAt *time.Time   `json:"submittedAt,omitempty"`
	ApprovedAt  *time.Time   `json:"approvedAt,omitempty"`
	Documents   KYCDocuments `json:"documents"`
}

type BankAccount struct {
	AccountNumber string          `json:"accountNumber"`
	AccountName   string          `json:"accountName"`
	AccountType   string          `json:"accountType"`
	Status        AccountStatus   `json:"status"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency"`
	OpenedDate    time.Time       `json:"openedDate"`
}

type EscrowAccount struct {
	EscrowID          string          `json:"escrowId"`
	ApplicationID     string          `json:"applicationId"`
	Status            EscrowStatus    `json:"status"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Purpose           string          `json:"purpose"`
	CreatedDate       time.Time       `json:"createdDate"`
	ReleaseConditions []string        `json:"releaseConditions"`
	ReleasedDate      *time.Time      `json:"releasedDate,omitempty"`
	ReleaseReason     string          `json:"releaseReason,omitempty"`
}

type LetterOfCredit struct {
	LCNumber      string          `json:"lcNumber"`
	ApplicationID string          `json:"applicationId"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Beneficiary   string          `json:"beneficiary"`
	Purpose       string          `json:"purpose"`
	IssueDate     time.Time       `json:"issueDate"`
	ExpiryDate    time.Time       `json:"expiryDate"`
}

type LoanApplication struct {
	LoanID          string          `json:"loanId"`
	Status          string          `json:"status"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	InterestRate    decimal.Decimal `json:"interestRate"`
	TermMonths      int             `json:"termMonths"`
	Purpose         string          `json:"purpose"`
	PreApprovalDate time.Time       `json:"preApprovalDate"`
}

type FXQuote struct {
	QuoteID      string          `json:"quoteId"`
	FromCurrency string          `json:"fromCurrency"`
	ToCurrency   string          `json:"toCurrency"`
	Amount       decimal.Decimal `json:"amount"`
	Rate         decimal.Decimal `json:"rate"`
	QuotedAmount decimal.Decimal `json:"quotedAmount"`
	CreatedDate  time.Time       `json:"createdDate"`
	ValidUntil   time.Time       `json:"validUntil"`
}

type BankMessage struct {
	ID        string          `json:"id"`
	Recipient Recipient       `json:"recipient"`
	Subject   string          `json:"subject"`
	Body      string          `json:"body"`
	Category  MessageCategory `json:"category"`
	CreatedAt time.Time       `json:"createdAt"`
	Read      bool            `json:"read"`
}

// BankState is everything the bank knows about one investor.
type BankState struct {
	InvestorID       string           `json:"investorId"`
	InvestorName     string           `json:"investorName"`
	ApplicationID    string           `json:"applicationId"`
	SelectedBank     string           `json:"selectedBank"`
	KYCStatus        KYCStatus        `json:"kycStatus"`
	CorporateAccount *BankAccount     `json:"corporateAccount,omitempty"`
	EscrowAccount    *EscrowAccount   `json:"escrowAccount,omitempty"`
	LetterOfCredit   *LetterOfCredit  `json:"letterOfCredit,omitempty"`
	LoanApplication  *LoanApplication `json:"loanApplication,omitempty"`
	FXQuotes         []FXQuote        `json:"fxQuotes"`
	CompletedSteps   []string         `json:"completedSteps"`
	Messages         []BankMessage    `json:"messages"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// StatePatch holds the fields UpdateBankState may overwrite. Nil fields are left alone.
type StatePatch struct {
	InvestorName  *string `json:"investorName,omitempty"`
	ApplicationID *string `json:"applicationId,omitempty"`
	SelectedBank  *string `json:"selectedBank,omitempty"`
}

// NewBankState returns an empty record for investorID.
func NewBankState(investorID, investorName, applicationID, selectedBank string, now time.Time) *BankState {
	return &BankState{
		InvestorID:     investorID,
		InvestorName:   investorName,
		ApplicationID:  applicationID,
		SelectedBank:   selectedBank,
		KYCStatus:      KYCStatus{Status: KYCNotStarted},
		FXQuotes:       []FXQuote{},
		CompletedSteps: []string{},
		Messages:       []BankMessage{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// HasActiveAccount reports whether the corporate account exists and is active.
func (s *BankState) HasActiveAccount() bool {
	return s.CorporateAccount != nil && s.CorporateAccount.Status == AccountActive
}

func (s *BankState) KYCApproved() bool {
	return s.KYCStatus.Status == KYCApproved
}

// CompleteStep records step once.
func (s *BankState) CompleteStep(step string) bool {
	for _, existing := range s.CompletedSteps {
		if existing == step {
			return false
		}
	}
	s.CompletedSteps = append(s.CompletedSteps, step)
	return true
}

// Clone returns a deep copy.
func (s *BankState) Clone() *BankState {
	if s == nil {
		return nil
	}
	c := *s
	c.KYCStatus.SubmittedAt = cloneTime(s.KYCStatus.SubmittedAt)
	c.KYCStatus.ApprovedAt = cloneTime(s.KYCStatus.ApprovedAt)

	if s.CorporateAccount != nil {
		acct := *s.CorporateAccount
		c.CorporateAccount = &acct
	}
	if s.EscrowAccount != nil {
		esc := *s.EscrowAccount
		esc.ReleaseConditions = append([]string(nil), s.EscrowAccount.ReleaseConditions...)
		esc.ReleasedDate = cloneTime(s.EscrowAccount.ReleasedDate)
		c.EscrowAccount = &esc
	}
	if s.LetterOfCredit != nil {
		lc := *s.LetterOfCredit
		c.LetterOfCredit = &lc
	}
	if s.LoanApplication != nil {
		loan := *s.LoanApplication
		c.LoanApplication = &loan
	}

	c.FXQuotes = append([]FXQuote{}, s.FXQuotes...)
	c.CompletedSteps = append([]string{}, s.CompletedSteps...)
	c.Messages = append([]BankMessage{}, s.Messages...)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
