// internal/workers/banking/open-corporate-account/handler.go
package opencorporateaccount

import (
	"context"

	"bida-banking-workers/internal/bank"
	"bida-banking-workers/internal/common/camunda"
	"bida-banking-workers/internal/common/logger"
	"bida-banking-workers/internal/common/validation"
	"bida-banking-workers/internal/workers/banking"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "bank-open-corporate-account"

type BankService interface {
	OpenCorporateAccount(ctx context.Context, investorID, companyName string) (*bank.BankAccount, error)
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

// Execute opens the corporate account. KYC must already be approved; the
// service answers KYC_NOT_APPROVED otherwise, which becomes a BPMN error.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	acct, err := h.service.OpenCorporateAccount(ctx, input.InvestorID, input.CompanyName)
	if err != nil {
		return nil, err
	}

	h.logger.Info("corporate account opened", map[string]interface{}{
		"investorId":    input.InvestorID,
		"accountNumber": acct.AccountNumber,
	})
	return &Output{CorporateAccount: acct}, nil
}

func GetInputSchema() map[string]interface{} {
	return validation.ObjectSchema(map[string]interface{}{
		"investorId":  validation.InvestorIDProperty,
		"companyName": map[string]interface{}{"type": "string"},
	}, "investorId")
}
