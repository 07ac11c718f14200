// internal/workers/banking/issue-letter-of-credit/handler.go
package issueletterofcredit

import (
	"context"

	"bida-banking-workers/internal/bank"
	"bida-banking-workers/internal/common/camunda"
	"bida-banking-workers/internal/common/logger"
	"bida-banking-workers/internal/common/validation"
	"bida-banking-workers/internal/workers/banking"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/shopspring/decimal"
)

const TaskType = "bank-issue-letter-of-credit"

type BankService interface {
	IssueLC(ctx context.Context, investorID, applicationID string, amount decimal.Decimal, beneficiary, purpose string) (*bank.LetterOfCredit, error)
}

type Handler struct {
	service   BankService
	logger    logger.Logger
	processor *camunda.JobProcessor
}

func NewHandler(cfg *banking.Config, svc BankService, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		service:   svc,
		logger:    log,
		processor: camunda.NewJobProcessor(TaskType, cfg.Timeout, log),
	}
}

func (h *Handler) WithRecorder(r camunda.JobRecorder) *Handler {
	h.processor.WithRecorder(r)
	return h
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.processor.Process(client, job, h.run)
}

func (h *Handler) run(ctx context.Context, variables map[string]interface{}) (interface{}, error) {
	var input Input
	if err := validation.Decode(variables, GetInputSchema(), &input); err != nil {
		return nil, err
	}
	return h.Execute(ctx, &input)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	lc, err := h.service.IssueLC(ctx, input.InvestorID, input.ApplicationID, input.Amount, input.Beneficiary, input.Purpose)
	if err != nil {
		return nil, err
	}

	h.logger.Info("letter of credit issued", map[string]interface{}{
		"investorId":  input.InvestorID,
		"lcNumber":    lc.LCNumber,
		"beneficiary": lc.Beneficiary,
		"expiryDate":  lc.ExpiryDate,
	})
	return &Output{LetterOfCredit: lc}, nil
}

func GetInputSchema() map[string]interface{} {
	return validation.ObjectSchema(map[string]interface{}{
		"investorId":    validation.InvestorIDProperty,
		"applicationId": map[string]interface{}{"type": "string"},
		"amount":        validation.PositiveAmount,
		"beneficiary":   validation.NonEmptyString,
		"purpose":       map[string]interface{}{"type": "string"},
	}, "investorId", "amount", "beneficiary")
}
