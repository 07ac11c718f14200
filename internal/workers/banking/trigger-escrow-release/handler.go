// internal/workers/banking/trigger-escrow-release/handler.go
package triggerescrowrelease

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

// TaskType is raised by the application process once BIDA approves the
// investor's application.
const TaskType = "bank-trigger-escrow-release"

// ReleaseHook is implemented by *escrow.Hook.
type ReleaseHook interface {
	TriggerEscrowRelease(ctx context.Context, investorID, applicationID string) (*bank.EscrowAccount, error)
}

type Handler struct {
	hook      ReleaseHook
	logger    logger.Logger
	processor *camunda.JobProcessor
}

func NewHandler(cfg *banking.Config, hook ReleaseHook, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		hook:      hook,
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

// Execute never fails the job when there is nothing to release.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	esc, err := h.hook.TriggerEscrowRelease(ctx, input.InvestorID, input.ApplicationID)
	if err != nil {
		return nil, err
	}
	return &Output{Released: esc != nil, EscrowAccount: esc}, nil
}

func GetInputSchema() map[string]interface{} {
	return validation.ObjectSchema(map[string]interface{}{
		"investorId":    validation.InvestorIDProperty,
		"applicationId": map[string]interface{}{"type": "string"},
	}, "investorId")
}
