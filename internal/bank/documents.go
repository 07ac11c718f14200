package bank

import (
	"fmt"
	"time"
)

const DocumentSourceBank = "bank_system"

// Document kinds in the order they are generated.
const (
	DocKYCReport                = "kyc-report"
	DocAccountOpening           = "account-opening"
	DocEscrowAgreement          = "escrow-agreement"
	DocEscrowConfirmation       = "escrow-confirmation"
	DocEscrowReleaseCertificate = "escrow-release-certificate"
	DocLetterOfCredit           = "lc"
	DocLCTerms                  = "lc-terms"
	DocLoanPreapproval          = "loan-preapproval"
	DocLoanTerms                = "loan-terms"
)

type DocumentMetadata struct {
	Source     string `json:"source"`
	Category   string `json:"category"`
	UploadedBy string `json:"uploadedBy"`
	ApprovedBy string `json:"approvedBy"`
	Reference  string `json:"reference,omitempty"`
}

// Document is a synthetic vault entry derived from bank state.
type Document struct {
	ID         string           `json:"id"`
	InvestorID string           `json:"investorId"`
	Kind       string           `json:"kind"`
	Name       string           `json:"name"`
	FileType   string           `json:"fileType"`
	URL        string           `json:"url"`
	Status     string           `json:"status"`
	Date       time.Time        `json:"date"`
	Metadata   DocumentMetadata `json:"metadata"`
}

// GenerateDocuments projects state onto the document vault. A nil state
// yields no documents; each completed sub-record adds one or two.
func GenerateDocuments(state *BankState, bankName string) []Document {
	docs := []Document{}
	if state == nil {
		return docs
	}
	if bankName == "" {
		bankName = state.SelectedBank
	}

	add := func(kind, name, category, approvedBy, reference string, date time.Time) {
		docs = append(docs, Document{
			ID:         fmt.Sprintf("bank-%s-%s", state.InvestorID, kind),
			InvestorID: state.InvestorID,
			Kind:       kind,
			Name:       name,
			FileType:   "pdf",
			URL:        fmt.Sprintf("/documents/bank/%s/%s.pdf", state.InvestorID, kind),
			Status:     "approved",
			Date:       date,
			Metadata: DocumentMetadata{
				Source:     DocumentSourceBank,
				Category:   category,
				UploadedBy: bankName,
				ApprovedBy: approvedBy,
				Reference:  reference,
			},
		})
	}

	if state.KYCApproved() {
		date := state.UpdatedAt
		if state.KYCStatus.ApprovedAt != nil {
			date = *state.KYCStatus.ApprovedAt
		}
		add(DocKYCReport, "KYC Verification Report", "compliance", "KYC Compliance Officer", "", date)
	}

	if acct := state.CorporateAccount; acct != nil {
		add(DocAccountOpening, "Corporate Account Opening Confirmation", "banking", "Relationship Manager",
			acct.AccountNumber, acct.OpenedDate)
	}

	if esc := state.EscrowAccount; esc != nil {
		add(DocEscrowAgreement, "Escrow Agreement", "escrow", "Escrow Officer", esc.EscrowID, esc.CreatedDate)
		add(DocEscrowConfirmation, "Escrow Account Confirmation", "escrow", "Escrow Officer", esc.EscrowID, esc.CreatedDate)
		if esc.Status == EscrowReleased && esc.ReleasedDate != nil {
			add(DocEscrowReleaseCertificate, "Escrow Release Certificate", "escrow", "Escrow Officer",
				esc.EscrowID, *esc.ReleasedDate)
		}
	}

	if lc := state.LetterOfCredit; lc != nil {
		add(DocLetterOfCredit, "Letter of Credit "+lc.LCNumber, "trade-finance", "Trade Finance Officer",
			lc.LCNumber, lc.IssueDate)
		add(DocLCTerms, "Letter of Credit Terms and Conditions", "trade-finance", "Trade Finance Officer",
			lc.LCNumber, lc.IssueDate)
	}

	if loan := state.LoanApplication; loan != nil {
		add(DocLoanPreapproval, "Loan Pre-Approval Letter", "financing", "Credit Officer",
			loan.LoanID, loan.PreApprovalDate)
		add(DocLoanTerms, "Indicative Loan Terms Sheet", "financing", "Credit Officer",
			loan.LoanID, loan.PreApprovalDate)
	}

	return docs
}
