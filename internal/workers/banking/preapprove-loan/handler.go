// internal/workers/banking/preapprove-loan/handler.go
package preapproveloan

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

const TaskType = "bank-preapprove-loan"

type BankService interface {
	PreApproveLoan(ctx context.Context, investorID string, amount decimal.Decimal, purpose string, termMonths int) (*bank.LoanApplication, error)
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

// Execute pre-approves the loan. A missing termMonths uses the bank's
// default term.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	loan, err := h.service.PreApproveLoan(ctx, input.InvestorID, input.Amount, input.Purpose, input.TermMonths)
	if err != nil {
		return nil, err
	}

	h.logger.Info("loan pre-approved", map[string]interface{}{
		"investorId": input.InvestorID,
		"loanId":     loan.LoanID,
		"termMonths": loan.TermMonths,
	})
	return &Output{LoanApplication: loan}, nil
}

func GetInputSchema() map[string]interface{} {
	return validation.ObjectSchema(map[string]interface{}{
		"investorId": validation.InvestorIDProperty,
		"amount":     validation.PositiveAmount,
		"purpose":    map[string]interface{}{"type": "string"},
		"termMonths": map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 360},
	}, "investorId", "amount")
}
