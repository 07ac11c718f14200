// internal/workers/banking/release-escrow/handler.go
package releaseescrow

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

const TaskType = "bank-release-escrow"

type BankService interface {
	ReleaseEscrow(ctx context.Context, investorID, reason string) (*bank.EscrowAccount, error)
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

// Execute releases the escrow on request. Releasing twice fails with
// ESCROW_ALREADY_RELEASED.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	esc, err := h.service.ReleaseEscrow(ctx, input.InvestorID, input.Reason)
	if err != nil {
		return nil, err
	}

	h.logger.Info("escrow released", map[string]interface{}{
		"investorId": input.InvestorID,
		"escrowId":   esc.EscrowID,
		"reason":     esc.ReleaseReason,
	})
	return &Output{EscrowAccount: esc}, nil
}

func GetInputSchema() map[string]interface{} {
	return validation.ObjectSchema(map[string]interface{}{
		"investorId": validation.InvestorIDProperty,
		"reason":     map[string]interface{}{"type": "string"},
	}, "investorId")
}
