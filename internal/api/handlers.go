package api

import (
	"net/http"
	"strings"

	"bida-banking-workers/internal/bank"
	apperrors "bida-banking-workers/internal/common/errors"
	"bida-banking-workers/internal/common/validation"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ==========================
// Request bodies
// ==========================

type initRequest struct {
	InvestorID    string `json:"investorId"`
	InvestorName  string `json:"investorName"`
	ApplicationID string `json:"applicationId"`
}

type selectBankRequest struct {
	BankID string `json:"bankId"`
}

type accountRequest struct {
	CompanyName string `json:"companyName"`
}

type escrowRequest struct {
	ApplicationID string          `json:"applicationId"`
	Amount        decimal.Decimal `json:"amount"`
	Purpose       string          `json:"purpose"`
}

type releaseRequest struct {
	Reason string `json:"reason"`
}

type lcRequest struct {
	ApplicationID string          `json:"applicationId"`
	Amount        decimal.Decimal `json:"amount"`
	Beneficiary   string          `json:"beneficiary"`
	Purpose       string          `json:"purpose"`
}

type loanRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	Purpose    string          `json:"purpose"`
	TermMonths int             `json:"termMonths"`
}

type fxRequest struct {
	FromCurrency string          `json:"fromCurrency"`
	ToCurrency   string          `json:"toCurrency"`
	Amount       decimal.Decimal `json:"amount"`
}

type approvedRequest struct {
	InvestorID string `json:"investorId"`
}

var (
	stringProp = map[string]interface{}{"type": "string"}

	initSchema = validation.ObjectSchema(map[string]interface{}{
		"investorId":    validation.InvestorIDProperty,
		"investorName":  validation.NonEmptyString,
		"applicationId": stringProp,
	}, "investorId", "investorName")

	patchSchema = validation.ObjectSchema(map[string]interface{}{
		"investorName":  validation.NonEmptyString,
		"applicationId": stringProp,
		"selectedBank":  validation.NonEmptyString,
	})

	selectBankSchema = validation.ObjectSchema(map[string]interface{}{
		"bankId": validation.NonEmptyString,
	}, "bankId")

	accountSchema = validation.ObjectSchema(map[string]interface{}{
		"companyName": stringProp,
	})

	escrowSchema = validation.ObjectSchema(map[string]interface{}{
		"applicationId": stringProp,
		"amount":        validation.PositiveAmount,
		"purpose":       stringProp,
	}, "amount")

	releaseSchema = validation.ObjectSchema(map[string]interface{}{
		"reason": stringProp,
	})

	lcSchema = validation.ObjectSchema(map[string]interface{}{
		"applicationId": stringProp,
		"amount":        validation.PositiveAmount,
		"beneficiary":   validation.NonEmptyString,
		"purpose":       stringProp,
	}, "amount", "beneficiary")

	loanSchema = validation.ObjectSchema(map[string]interface{}{
		"amount":     validation.PositiveAmount,
		"purpose":    stringProp,
		"termMonths": map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 360},
	}, "amount")

	fxSchema = validation.ObjectSchema(map[string]interface{}{
		"fromCurrency": validation.CurrencyCode,
		"toCurrency":   validation.CurrencyCode,
		"amount":       validation.PositiveAmount,
	}, "fromCurrency", "toCurrency", "amount")

	approvedSchema = validation.ObjectSchema(map[string]interface{}{
		"investorId": validation.InvestorIDProperty,
	}, "investorId")
)

// bind decodes an optional JSON body and validates it against schema.
func bind(c *gin.Context, schema map[string]interface{}, out interface{}) error {
	body := map[string]interface{}{}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			return apperrors.NewInvalidBankRequestError("malformed JSON body: " + err.Error())
		}
	}
	return validation.Decode(body, schema, out)
}

// ==========================
// Partners
// ==========================

func (s *Server) listPartners(c *gin.Context) {
	reg := s.service.Partners()
	partners := reg.ListPartners()
	if capability := c.Query("capability"); capability != "" {
		partners = reg.PartnersWithCapability(capability)
	}
	c.JSON(http.StatusOK, gin.H{"partners": partners})
}

func (s *Server) getPartner(c *gin.Context) {
	p, err := s.service.Partners().GetPartner(c.Param("bankId"))
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ==========================
// Bank state
// ==========================

func (s *Server) initState(c *gin.Context) {
	var req initRequest
	if err := bind(c, initSchema, &req); err != nil {
		s.abort(c, err)
		return
	}

	state, created, err := s.service.InitBankState(c.Request.Context(), req.InvestorID, req.InvestorName, req.ApplicationID)
	if err != nil {
		s.abort(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, state)
}

func (s *Server) getState(c *gin.Context) {
	id := c.Param("id")
	state, err := s.service.GetBankState(c.Request.Context(), id)
	if err != nil {
		s.abort(c, err)
		return
	}
	if state == nil {
		s.abort(c, apperrors.NewBankStateNotFoundError(id))
		return
	}
	c.JSON(http.StatusOK, state)
}

func (s *Server) updateState(c *gin.Context) {
	var patch bank.StatePatch
	if err := bind(c, patchSchema, &patch); err != nil {
		s.abort(c, err)
		return
	}

	state, err := s.service.UpdateBankState(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (s *Server) selectBank(c *gin.Context) {
	var req selectBankRequest
	if err := bind(c, selectBankSchema, &req); err != nil {
		s.abort(c, err)
		return
	}

	state, err := s.service.SelectBank(c.Request.Context(), c.Param("id"), req.BankID)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// ==========================
// Mock bank operations
// ==========================

func (s *Server) performKYC(c *gin.Context) {
	kyc, err := s.service.PerformKYC(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kycStatus": kyc})
}

func (s *Server) openAccount(c *gin.Context) {
	var req accountRequest
	if err := bind(c, accountSchema, &req); err != nil {
		s.abort(c, err)
		return
	}

	acct, err := s.service.OpenCorporateAccount(c.Request.Context(), c.Param("id"), req.CompanyName)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"corporateAccount": acct})
}

func (s *Server) createEscrow(c *gin.Context) {
	var req escrowRequest
	if err := bind(c, escrowSchema, &req); err != nil {
		s.abort(c, err)
		return
	}

	esc, err := s.service.CreateEscrow(c.Request.Context(), c.Param("id"), req.ApplicationID, req.Amount, req.Purpose)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"escrowAccount": esc})
}

func (s *Server) releaseEscrow(c *gin.Context) {
	var req releaseRequest
	if err := bind(c, releaseSchema, &req); err != nil {
		s.abort(c, err)
		return
	}

	esc, err := s.service.ReleaseEscrow(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"escrowAccount": esc})
}

func (s *Server) issueLC(c *gin.Context) {
	var req lcRequest
	if err := bind(c, lcSchema, &req); err != nil {
		s.abort(c, err)
		return
	}

	lc, err := s.service.IssueLC(c.Request.Context(), c.Param("id"), req.ApplicationID, req.Amount, req.Beneficiary, req.Purpose)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"letterOfCredit": lc})
}

func (s *Server) preApproveLoan(c *gin.Context) {
	var req loanRequest
	if err := bind(c, loanSchema, &req); err != nil {
		s.abort(c, err)
		return
	}

	loan, err := s.service.PreApproveLoan(c.Request.Context(), c.Param("id"), req.Amount, req.Purpose, req.TermMonths)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"loanApplication": loan})
}

func (s *Server) requestFXQuote(c *gin.Context) {
	var req fxRequest
	if err := bind(c, fxSchema, &req); err != nil {
		s.abort(c, err)
		return
	}

	quote, err := s.service.RequestFXQuote(c.Request.Context(), c.Param("id"),
		strings.ToUpper(req.FromCurrency), strings.ToUpper(req.ToCurrency), req.Amount)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fxQuote": quote})
}

// ==========================
// Projections
// ==========================

func (s *Server) documents(c *gin.Context) {
	docs, err := s.service.GenerateBankDocuments(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs, "documentCount": len(docs)})
}

func (s *Server) searchDocuments(c *gin.Context) {
	if s.search == nil {
		s.abort(c, apperrors.NewDocumentIndexFailedError(errSearchDisabled))
		return
	}

	docs, err := s.search.SearchDocuments(c.Request.Context(), c.Param("id"), c.Query("category"))
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs, "documentCount": len(docs)})
}

func (s *Server) readiness(c *gin.Context) {
	score, state, err := s.service.ReadinessScore(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abort(c, err)
		return
	}

	steps := []string{}
	if state != nil {
		steps = state.CompletedSteps
	}
	c.JSON(http.StatusOK, gin.H{"readinessScore": score, "completedSteps": steps})
}

func (s *Server) messages(c *gin.Context) {
	recipient := bank.Recipient(c.Query("recipient"))
	switch recipient {
	case "", bank.RecipientInvestor, bank.RecipientOfficer:
	default:
		s.abort(c, apperrors.NewInvalidBankRequestError("recipient must be investor or officer"))
		return
	}

	msgs, err := s.service.GetBankMessages(c.Request.Context(), c.Param("id"), recipient)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// ==========================
// Escrow auto-release
// ==========================

func (s *Server) applicationApproved(c *gin.Context) {
	var req approvedRequest
	if err := bind(c, approvedSchema, &req); err != nil {
		s.abort(c, err)
		return
	}

	esc, err := s.releaser.OnApplicationApproved(c.Request.Context(), req.InvestorID, c.Param("applicationId"))
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"released": esc != nil, "escrowAccount": esc})
}
