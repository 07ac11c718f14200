// internal/workers/banking/init-state/handler.go
package initstate

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

const TaskType = "bank-init-state"

type BankService interface {
	InitBankState(ctx context.Context, investorID, investorName, applicationID string) (*bank.BankState, bool, error)
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

// Execute creates the investor's bank state. An existing state is returned
// unchanged with Created=false.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	state, created, err := h.service.InitBankState(ctx, input.InvestorID, input.InvestorName, input.ApplicationID)
	if err != nil {
		return nil, err
	}

	h.logger.Info("bank state ready", map[string]interface{}{
		"investorId": input.InvestorID,
		"created":    created,
	})
	return &Output{BankState: state, Created: created}, nil
}

func GetInputSchema() map[string]interface{} {
	return validation.ObjectSchema(map[string]interface{}{
		"investorId":    validation.InvestorIDProperty,
		"investorName":  validation.NonEmptyString,
		"applicationId": map[string]interface{}{"type": "string"},
	}, "investorId", "investorName")
}
