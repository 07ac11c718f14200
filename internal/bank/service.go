package bank

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "bida-banking-workers/internal/common/errors"
	"bida-banking-workers/internal/common/logger"
	"bida-banking-workers/internal/common/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultBankID = "brac-bank"

// Clock returns the current time.
type Clock func() time.Time

// Options wires a Service. Only Repository is required.
type Options struct {
	Repository  Repository
	IDs         *IDGenerator
	Latency     LatencySimulator
	Clock       Clock
	Partners    *PartnerRegistry
	Rates       *RateTable
	Notifier    Notifier
	Events      EventPublisher
	Logger      logger.Logger
	DefaultBank string
}

// Service is the mock bank API. Every mutation waits for the simulated
// latency, then checks preconditions and writes under a per-investor lock.
type Service struct {
	repo        Repository
	ids         *IDGenerator
	latency     LatencySimulator
	clock       Clock
	partners    *PartnerRegistry
	rates       *RateTable
	notifier    Notifier
	events      EventPublisher
	logger      logger.Logger
	tracer      trace.Tracer
	locks       *keyedMutex
	defaultBank string
}

func NewService(opts Options) *Service {
	s := &Service{
		repo:        opts.Repository,
		ids:         opts.IDs,
		latency:     opts.Latency,
		clock:       opts.Clock,
		partners:    opts.Partners,
		rates:       opts.Rates,
		notifier:    opts.Notifier,
		events:      opts.Events,
		logger:      opts.Logger,
		tracer:      otel.Tracer("bida-banking-workers/internal/bank"),
		locks:       newKeyedMutex(),
		defaultBank: opts.DefaultBank,
	}
	if s.ids == nil {
		s.ids = NewIDGenerator(nil)
	}
	if s.latency == nil {
		s.latency = NoLatency
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.partners == nil {
		s.partners = DefaultPartnerRegistry()
	}
	if s.rates == nil {
		s.rates = DefaultRateTable()
	}
	if s.logger == nil {
		s.logger = logger.NewNoOpLogger()
	}
	if s.defaultBank == "" {
		s.defaultBank = DefaultBankID
	}
	s.logger = s.logger.WithFields(map[string]interface{}{"component": "bank-service"})
	return s
}

func (s *Service) Partners() *PartnerRegistry { return s.partners }
func (s *Service) Rates() *RateTable          { return s.rates }

func (s *Service) now() time.Time { return s.clock().UTC() }

// errNoChange aborts an update without it counting as a failure.
var errNoChange = errors.New("no change")

type mutation struct {
	op         string
	investorID string
	notFound   func(investorID string) *apperrors.StandardError
	missingOK  bool
	apply      func(ctx context.Context, state *BankState, now time.Time) error
}

// mutate runs m and, on success, delivers the messages it appended and
// publishes a domain event.
func (s *Service) mutate(ctx context.Context, m mutation) (*BankState, error) {
	start := time.Now()
	log := s.logger.WithFields(map[string]interface{}{"operation": m.op, "investorId": m.investorID})

	ctx, span := s.tracer.Start(ctx, "bank."+m.op, trace.WithAttributes(
		attribute.String("investor.id", m.investorID),
	))
	defer span.End()

	fail := func(err error) (*BankState, error) {
		stdErr := apperrors.Normalize(err)
		metrics.BankOperations.WithLabelValues(m.op, string(stdErr.Code)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, stdErr.Message)
		if stdErr.Retryable {
			log.Error("bank operation failed", map[string]interface{}{"code": stdErr.Code, "error": err.Error()})
		} else {
			log.Warn("bank operation rejected", map[string]interface{}{"code": stdErr.Code, "message": stdErr.Message})
		}
		return nil, err
	}

	if m.investorID == "" {
		return fail(apperrors.NewInvalidBankRequestError("investorId is required"))
	}

	if err := s.latency.Wait(ctx, m.op); err != nil {
		return fail(apperrors.NewOperationTimeoutError(m.op, err))
	}

	unlock := s.locks.Lock(m.investorID)
	defer unlock()

	now := s.now()
	seen := 0
	updated, err := s.repo.Update(ctx, m.investorID, func(state *BankState) error {
		seen = len(state.Messages)
		if err := m.apply(ctx, state, now); err != nil {
			return err
		}
		state.UpdatedAt = now
		return nil
	})
	if errors.Is(err, errNoChange) {
		metrics.BankOperations.WithLabelValues(m.op, "noop").Inc()
		return nil, err
	}
	if errors.Is(err, ErrBankStateNotFound) && m.missingOK {
		metrics.BankOperations.WithLabelValues(m.op, "noop").Inc()
		return nil, errNoChange
	}
	if errors.Is(err, ErrBankStateNotFound) {
		notFound := m.notFound
		if notFound == nil {
			notFound = apperrors.NewStateNotInitializedError
		}
		return fail(notFound(m.investorID))
	}
	if err != nil {
		return fail(err)
	}

	metrics.BankOperations.WithLabelValues(m.op, "success").Inc()
	metrics.BankOperationDuration.WithLabelValues(m.op).Observe(time.Since(start).Seconds())
	log.Info("bank operation completed", map[string]interface{}{"durationMs": time.Since(start).Milliseconds()})

	if seen < len(updated.Messages) {
		s.deliver(ctx, m.investorID, updated.Messages[seen:])
	}
	s.publish(ctx, updated, m.op, now)
	return updated, nil
}

func (s *Service) deliver(ctx context.Context, investorID string, msgs []BankMessage) {
	if s.notifier == nil {
		return
	}
	for _, msg := range msgs {
		if err := s.notifier.Notify(ctx, investorID, msg); err != nil {
			s.logger.Warn("bank message delivery failed", map[string]interface{}{
				"investorId": investorID,
				"messageId":  msg.ID,
				"error":      err.Error(),
			})
		}
	}
}

func (s *Service) publish(ctx context.Context, state *BankState, op string, now time.Time) {
	if s.events == nil {
		return
	}
	event := Event{
		InvestorID:    state.InvestorID,
		ApplicationID: state.ApplicationID,
		Operation:     op,
		OccurredAt:    now,
	}
	if err := s.events.Publish(ctx, state.InvestorID, event); err != nil {
		s.logger.Warn("bank event publish failed", map[string]interface{}{
			"investorId": state.InvestorID,
			"operation":  op,
			"error":      err.Error(),
		})
	}
}

func newMessage(recipient Recipient, category MessageCategory, subject, body string, now time.Time) BankMessage {
	return BankMessage{
		ID:        uuid.NewString(),
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		Category:  category,
		CreatedAt: now,
	}
}

func requirePositive(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.NewInvalidBankRequestError(fmt.Sprintf("%s must be greater than 0", field))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Bank State Store operations
// ---------------------------------------------------------------------------

// GetBankState returns nil without error when the investor has no state.
func (s *Service) GetBankState(ctx context.Context, investorID string) (*BankState, error) {
	state, err := s.repo.Get(ctx, investorID)
	if errors.Is(err, ErrBankStateNotFound) {
		return nil, nil
	}
	return state, err
}

// InitBankState creates empty state for the investor. Calling it again is a
// no-op that returns the stored record with created=false.
func (s *Service) InitBankState(ctx context.Context, investorID, investorName, applicationID string) (*BankState, bool, error) {
	if investorID == "" {
		return nil, false, apperrors.NewInvalidBankRequestError("investorId is required")
	}

	ctx, span := s.tracer.Start(ctx, "bank."+OpInitState, trace.WithAttributes(
		attribute.String("investor.id", investorID),
	))
	defer span.End()

	unlock := s.locks.Lock(investorID)
	defer unlock()

	now := s.now()
	state := NewBankState(investorID, investorName, applicationID, s.defaultBank, now)
	state.Messages = append(state.Messages, newMessage(RecipientInvestor, CategorySystem,
		"Banking Profile Created",
		fmt.Sprintf("A banking profile has been created for %s with %s.", investorName, s.bankName(s.defaultBank)),
		now))

	stored, created, err := s.repo.Create(ctx, state)
	if err != nil {
		span.RecordError(err)
		metrics.BankOperations.WithLabelValues(OpInitState, string(apperrors.Normalize(err).Code)).Inc()
		return nil, false, err
	}

	if !created {
		metrics.BankOperations.WithLabelValues(OpInitState, "noop").Inc()
		s.logger.Debug("bank state already initialized", map[string]interface{}{"investorId": investorID})
		return stored, false, nil
	}

	metrics.BankOperations.WithLabelValues(OpInitState, "success").Inc()
	s.logger.Info("bank state initialized", map[string]interface{}{
		"investorId":    investorID,
		"applicationId": applicationID,
	})
	s.deliver(ctx, investorID, stored.Messages)
	s.publish(ctx, stored, OpInitState, now)
	return stored, true, nil
}

// UpdateBankState merges the non-nil patch fields into existing state.
func (s *Service) UpdateBankState(ctx context.Context, investorID string, patch StatePatch) (*BankState, error) {
	if patch.SelectedBank != nil && !s.partners.Exists(*patch.SelectedBank) {
		return nil, apperrors.NewInvalidBankRequestError("unknown bank partner: " + *patch.SelectedBank)
	}
	return s.mutate(ctx, mutation{
		op:         OpUpdateState,
		investorID: investorID,
		notFound:   apperrors.NewBankStateNotFoundError,
		apply: func(_ context.Context, state *BankState, _ time.Time) error {
			if patch.InvestorName != nil {
				state.InvestorName = *patch.InvestorName
			}
			if patch.ApplicationID != nil {
				state.ApplicationID = *patch.ApplicationID
			}
			if patch.SelectedBank != nil {
				state.SelectedBank = *patch.SelectedBank
			}
			return nil
		},
	})
}

// CompleteStep records step once, keeping first-completion order.
func (s *Service) CompleteStep(ctx context.Context, investorID, step string) (*BankState, error) {
	if step == "" {
		return nil, apperrors.NewInvalidBankRequestError("step is required")
	}
	return s.mutate(ctx, mutation{
		op:         OpCompleteStep,
		investorID: investorID,
		apply: func(_ context.Context, state *BankState, _ time.Time) error {
			state.CompleteStep(step)
			return nil
		},
	})
}

// AddBankMessage appends msg, filling in ID and timestamp when missing.
func (s *Service) AddBankMessage(ctx context.Context, investorID string, msg BankMessage) (*BankMessage, error) {
	switch msg.Recipient {
	case RecipientInvestor, RecipientOfficer:
	default:
		return nil, apperrors.NewInvalidBankRequestError(fmt.Sprintf("invalid recipient %q", msg.Recipient))
	}
	if msg.Subject == "" {
		return nil, apperrors.NewInvalidBankRequestError("subject is required")
	}
	if msg.Category == "" {
		msg.Category = CategorySystem
	}

	var added BankMessage
	_, err := s.mutate(ctx, mutation{
		op:         OpAddMessage,
		investorID: investorID,
		apply: func(_ context.Context, state *BankState, now time.Time) error {
			added = msg
			if added.ID == "" {
				added.ID = uuid.NewString()
			}
			if added.CreatedAt.IsZero() {
				added.CreatedAt = now
			}
			state.Messages = append(state.Messages, added)
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

// GetBankMessages returns the message log filtered by recipient. An empty
// recipient returns every message.
func (s *Service) GetBankMessages(ctx context.Context, investorID string, recipient Recipient) ([]BankMessage, error) {
	state, err := s.GetBankState(ctx, investorID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, apperrors.NewStateNotInitializedError(investorID)
	}

	out := make([]BankMessage, 0, len(state.Messages))
	for _, msg := range state.Messages {
		if recipient == "" || msg.Recipient == recipient {
			out = append(out, msg)
		}
	}
	return out, nil
}

// SelectBank stores the investor's chosen partner bank.
func (s *Service) SelectBank(ctx context.Context, investorID, bankID string) (*BankState, error) {
	partner, err := s.partners.GetPartner(bankID)
	if err != nil {
		return nil, apperrors.NewInvalidBankRequestError("unknown bank partner: " + bankID)
	}
	return s.mutate(ctx, mutation{
		op:         OpSelectBank,
		investorID: investorID,
		apply: func(_ context.Context, state *BankState, now time.Time) error {
			state.SelectedBank = partner.ID
			state.Messages = append(state.Messages, newMessage(RecipientInvestor, CategorySystem,
				"Bank Selected",
				fmt.Sprintf("%s has been selected as your banking partner.", partner.Name),
				now))
			return nil
		},
	})
}

func (s *Service) bankName(bankID string) string {
	if p, err := s.partners.GetPartner(bankID); err == nil {
		return p.Name
	}
	return bankID
}

// ---------------------------------------------------------------------------
// Mock bank API
// ---------------------------------------------------------------------------

// PerformKYC approves KYC. The simulated bank never rejects.
func (s *Service) PerformKYC(ctx context.Context, investorID string) (*KYCStatus, error) {
	state, err := s.mutate(ctx, mutation{
		op:         OpKYC,
		investorID: investorID,
		apply: func(_ context.Context, state *BankState, now time.Time) error {
			submitted, approved := now, now
			state.KYCStatus = KYCStatus{
				Status:      KYCApproved,
				SubmittedAt: &submitted,
				ApprovedAt:  &approved,
				Documents: KYCDocuments{
					Passport:        true,
					TradeLicense:    true,
					TINCertificate:  true,
					BoardResolution: true,
				},
			}
			state.CompleteStep(StepCompleteKYC)
			state.Messages = append(state.Messages, newMessage(RecipientInvestor, CategoryKYC,
				"KYC Verification Approved",
				"Your KYC documents have been verified and approved. You can now open a corporate account.",
				now))
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	kyc := state.KYCStatus
	return &kyc, nil
}

// OpenCorporateAccount requires approved KYC. An empty companyName falls back
// to the investor's display name.
func (s *Service) OpenCorporateAccount(ctx context.Context, investorID, companyName string) (*BankAccount, error) {
	state, err := s.mutate(ctx, mutation{
		op:         OpAccount,
		investorID: investorID,
		apply: func(ctx context.Context, state *BankState, now time.Time) error {
			if !state.KYCApproved() {
				return apperrors.NewKycNotApprovedError(investorID)
			}
			number, err := s.ids.AccountNumber(ctx)
			if err != nil {
				return apperrors.NewBankStoreFailedError("next account number", err)
			}

			name := companyName
			if name == "" {
				name = state.InvestorName
			}
			state.CorporateAccount = &BankAccount{
				AccountNumber: number,
				AccountName:   name,
				AccountType:   AccountCorporate,
				Status:        AccountActive,
				Balance:       decimal.Zero,
				Currency:      BaseCurrency,
				OpenedDate:    now,
			}
			state.CompleteStep(StepOpenAccount)
			state.Messages = append(state.Messages,
				newMessage(RecipientInvestor, CategoryAccount, "Corporate Account Opened",
					fmt.Sprintf("Your corporate account %s has been opened with %s.", number, s.bankName(state.SelectedBank)),
					now),
				newMessage(RecipientOfficer, CategoryAccount, "New Corporate Account",
					fmt.Sprintf("Corporate account %s opened for %s (%s).", number, name, investorID),
					now),
			)
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	acct := *state.CorporateAccount
	return &acct, nil
}

// CreateEscrow requires an active corporate account. An empty applicationID
// links the escrow to the investor's application.
func (s *Service) CreateEscrow(ctx context.Context, investorID, applicationID string, amount decimal.Decimal, purpose string) (*EscrowAccount, error) {
	if err := requirePositive("amount", amount); err != nil {
		return nil, err
	}
	state, err := s.mutate(ctx, mutation{
		op:         OpEscrow,
		investorID: investorID,
		apply: func(ctx context.Context, state *BankState, now time.Time) error {
			if !state.HasActiveAccount() {
				return apperrors.NewAccountNotActiveError(investorID)
			}
			id, err := s.ids.EscrowID(ctx)
			if err != nil {
				return apperrors.NewBankStoreFailedError("next escrow id", err)
			}

			appID := applicationID
			if appID == "" {
				appID = state.ApplicationID
			}
			state.EscrowAccount = &EscrowAccount{
				EscrowID:          id,
				ApplicationID:     appID,
				Status:            EscrowActive,
				Amount:            amount,
				Currency:          BaseCurrency,
				Purpose:           purpose,
				CreatedDate:       now,
				ReleaseConditions: append([]string(nil), EscrowReleaseConditions...),
			}
			state.CompleteStep(StepCreateEscrow)
			state.Messages = append(state.Messages,
				newMessage(RecipientInvestor, CategoryEscrow, "Escrow Account Created",
					fmt.Sprintf("Escrow %s holding %s %s has been created for application %s.",
						id, amount.StringFixed(2), BaseCurrency, appID),
					now),
				newMessage(RecipientOfficer, CategoryEscrow, "Escrow Awaiting Approval",
					fmt.Sprintf("Escrow %s for %s will be released once application %s is approved.",
						id, investorID, appID),
					now),
			)
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	esc := *state.EscrowAccount
	return &esc, nil
}

// IssueLC requires an active corporate account. The LC expires 180 days
// after issue.
func (s *Service) IssueLC(ctx context.Context, investorID, applicationID string, amount decimal.Decimal, beneficiary, purpose string) (*LetterOfCredit, error) {
	if err := requirePositive("amount", amount); err != nil {
		return nil, err
	}
	state, err := s.mutate(ctx, mutation{
		op:         OpLetterOfCredit,
		investorID: investorID,
		apply: func(ctx context.Context, state *BankState, now time.Time) error {
			if !state.HasActiveAccount() {
				return apperrors.NewAccountNotActiveError(investorID)
			}
			number, err := s.ids.LCNumber(ctx, now)
			if err != nil {
				return apperrors.NewBankStoreFailedError("next lc number", err)
			}

			appID := applicationID
			if appID == "" {
				appID = state.ApplicationID
			}
			state.LetterOfCredit = &LetterOfCredit{
				LCNumber:      number,
				ApplicationID: appID,
				Status:        LCIssued,
				Amount:        amount,
				Currency:      BaseCurrency,
				Beneficiary:   beneficiary,
				Purpose:       purpose,
				IssueDate:     now,
				ExpiryDate:    now.Add(LCValidity),
			}
			state.CompleteStep(StepIssueLC)
			state.Messages = append(state.Messages,
				newMessage(RecipientInvestor, CategoryLC, "Letter of Credit Issued",
					fmt.Sprintf("Letter of credit %s for %s %s in favour of %s has been issued.",
						number, amount.StringFixed(2), BaseCurrency, beneficiary),
					now),
				newMessage(RecipientOfficer, CategoryLC, "Letter of Credit Issued",
					fmt.Sprintf("LC %s issued for %s, expiring %s.", number, investorID, now.Add(LCValidity).Format("2006-01-02")),
					now),
			)
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	lc := *state.LetterOfCredit
	return &lc, nil
}

// PreApproveLoan requires approved KYC. termMonths <= 0 uses the default term.
func (s *Service) PreApproveLoan(ctx context.Context, investorID string, amount decimal.Decimal, purpose string, termMonths int) (*LoanApplication, error) {
	if err := requirePositive("amount", amount); err != nil {
		return nil, err
	}
	if termMonths <= 0 {
		termMonths = DefaultLoanTerm
	}
	state, err := s.mutate(ctx, mutation{
		op:         OpLoan,
		investorID: investorID,
		apply: func(ctx context.Context, state *BankState, now time.Time) error {
			if !state.KYCApproved() {
				return apperrors.NewKycNotApprovedError(investorID)
			}
			id, err := s.ids.LoanID(ctx)
			if err != nil {
				return apperrors.NewBankStoreFailedError("next loan id", err)
			}

			state.LoanApplication = &LoanApplication{
				LoanID:          id,
				Status:          LoanPreapproved,
				Amount:          amount,
				Currency:        BaseCurrency,
				InterestRate:    LoanInterestRate,
				TermMonths:      termMonths,
				Purpose:         purpose,
				PreApprovalDate: now,
			}
			state.CompleteStep(StepLoanApproval)
			state.Messages = append(state.Messages,
				newMessage(RecipientInvestor, CategoryLoan, "Loan Pre-Approved",
					fmt.Sprintf("Loan %s for %s %s over %d months has been pre-approved at %s%%.",
						id, amount.StringFixed(2), BaseCurrency, termMonths, LoanInterestRate.String()),
					now),
				newMessage(RecipientOfficer, CategoryLoan, "Loan Pre-Approval Issued",
					fmt.Sprintf("Loan %s pre-approved for %s.", id, investorID),
					now),
			)
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	loan := *state.LoanApplication
	return &loan, nil
}

// RequestFXQuote prices a conversion. It does not depend on bank state: the
// quote is appended to the investor's list only when that state exists, and
// a store failure while appending is logged rather than returned. The only
// error is cancellation of ctx during the simulated latency.
func (s *Service) RequestFXQuote(ctx context.Context, investorID, fromCurrency, toCurrency string, amount decimal.Decimal) (*FXQuote, error) {
	ctx, span := s.tracer.Start(ctx, "bank."+OpFXQuote, trace.WithAttributes(
		attribute.String("investor.id", investorID),
		attribute.String("fx.pair", fromCurrency+"/"+toCurrency),
	))
	defer span.End()

	if err := s.latency.Wait(ctx, OpFXQuote); err != nil {
		metrics.BankOperations.WithLabelValues(OpFXQuote, string(apperrors.ErrCodeOperationTimeout)).Inc()
		return nil, apperrors.NewOperationTimeoutError(OpFXQuote, err)
	}

	now := s.now()
	quoted, rate := s.rates.Convert(fromCurrency, toCurrency, amount)
	quote := FXQuote{
		QuoteID:      uuid.NewString(),
		FromCurrency: fromCurrency,
		ToCurrency:   toCurrency,
		Amount:       amount,
		Rate:         rate,
		QuotedAmount: quoted,
		CreatedDate:  now,
		ValidUntil:   now.Add(FXQuoteValidity),
	}
	metrics.BankOperations.WithLabelValues(OpFXQuote, "success").Inc()

	if investorID == "" {
		return &quote, nil
	}

	unlock := s.locks.Lock(investorID)
	defer unlock()

	seen := 0
	updated, err := s.repo.Update(ctx, investorID, func(state *BankState) error {
		seen = len(state.Messages)
		state.FXQuotes = append(state.FXQuotes, quote)
		state.Messages = append(state.Messages, newMessage(RecipientInvestor, CategoryFX,
			"FX Quote Ready",
			fmt.Sprintf("%s %s = %s %s at %s, valid until %s.",
				amount.String(), fromCurrency, quoted.StringFixed(2), toCurrency, rate.String(),
				quote.ValidUntil.Format(time.RFC3339)),
			now))
		state.UpdatedAt = now
		return nil
	})
	switch {
	case errors.Is(err, ErrBankStateNotFound):
	case err != nil:
		s.logger.Warn("fx quote not recorded", map[string]interface{}{"investorId": investorID, "error": err.Error()})
	default:
		s.deliver(ctx, investorID, updated.Messages[seen:])
		s.publish(ctx, updated, OpFXQuote, now)
	}

	return &quote, nil
}

// ReleaseEscrow releases the investor's escrow on request. Releasing twice
// fails with ESCROW_ALREADY_RELEASED and leaves the record unchanged.
func (s *Service) ReleaseEscrow(ctx context.Context, investorID, reason string) (*EscrowAccount, error) {
	if reason == "" {
		reason = "Released on request"
	}
	state, err := s.mutate(ctx, mutation{
		op:         OpEscrowRelease,
		investorID: investorID,
		apply: func(_ context.Context, state *BankState, now time.Time) error {
			esc := state.EscrowAccount
			if esc == nil {
				return apperrors.NewNoEscrowFoundError(investorID)
			}
			if esc.Status == EscrowReleased {
				return apperrors.NewEscrowAlreadyReleasedError(investorID, esc.EscrowID)
			}
			release(state, reason, now)
			state.Messages = append(state.Messages, newMessage(RecipientInvestor, CategoryEscrow,
				"Escrow Released",
				fmt.Sprintf("Escrow %s (%s %s) has been released. Reason: %s.",
					esc.EscrowID, esc.Amount.StringFixed(2), esc.Currency, reason),
				now))
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	metrics.EscrowReleases.WithLabelValues("manual").Inc()
	esc := *state.EscrowAccount
	return &esc, nil
}

// AutoReleaseEscrow releases an active escrow linked to applicationID (any
// application when empty). A missing state, a missing or already released
// escrow and an application mismatch all return released=false without error.
func (s *Service) AutoReleaseEscrow(ctx context.Context, investorID, applicationID, reason string) (*EscrowAccount, bool, error) {
	if reason == "" {
		reason = "Application approved"
	}
	state, err := s.mutate(ctx, mutation{
		op:         OpEscrowRelease,
		investorID: investorID,
		missingOK:  true,
		apply: func(_ context.Context, state *BankState, now time.Time) error {
			esc := state.EscrowAccount
			if esc == nil || esc.Status != EscrowActive {
				return errNoChange
			}
			if applicationID != "" && esc.ApplicationID != applicationID {
				return errNoChange
			}
			release(state, reason, now)
			state.Messages = append(state.Messages,
				newMessage(RecipientInvestor, CategorySystem, "Escrow Automatically Released",
					fmt.Sprintf("Application %s was approved. Escrow %s (%s %s) has been released.",
						esc.ApplicationID, esc.EscrowID, esc.Amount.StringFixed(2), esc.Currency),
					now),
				newMessage(RecipientOfficer, CategoryEscrow, "Escrow Released",
					fmt.Sprintf("Escrow %s for %s released: %s.", esc.EscrowID, investorID, reason),
					now),
			)
			return nil
		},
	})
	if errors.Is(err, errNoChange) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	metrics.EscrowReleases.WithLabelValues("auto").Inc()
	esc := *state.EscrowAccount
	return &esc, true, nil
}

// release flips the escrow to released. Amount, currency and purpose are kept.
func release(state *BankState, reason string, now time.Time) {
	released := now
	state.EscrowAccount.Status = EscrowReleased
	state.EscrowAccount.ReleasedDate = &released
	state.EscrowAccount.ReleaseReason = reason
	state.CompleteStep(StepEscrowRelease)
}

// ---------------------------------------------------------------------------
// Projections
// ---------------------------------------------------------------------------

// GenerateBankDocuments returns an empty list for an uninitialized investor.
func (s *Service) GenerateBankDocuments(ctx context.Context, investorID string) ([]Document, error) {
	state, err := s.GetBankState(ctx, investorID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return []Document{}, nil
	}
	return GenerateDocuments(state, s.bankName(state.SelectedBank)), nil
}

// ReadinessScore returns 0 and a nil state for an uninitialized investor.
func (s *Service) ReadinessScore(ctx context.Context, investorID string) (int, *BankState, error) {
	state, err := s.GetBankState(ctx, investorID)
	if err != nil {
		return 0, nil, err
	}
	return CalculateReadinessScore(state), state, nil
}
