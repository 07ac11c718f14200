// internal/workers/banking/check-readiness/handler.go
package checkreadiness

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

const TaskType = "bank-check-readiness"

const (
	LevelNotStarted = "not-started"
	LevelInProgress = "in-progress"
	LevelReady      = "ready"
)

type BankService interface {
	ReadinessScore(ctx context.Context, investorID string) (int, *bank.BankState, error)
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

// Execute scores an uninitialized investor as 0 / not-started.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	score, state, err := h.service.ReadinessScore(ctx, input.InvestorID)
	if err != nil {
		return nil, err
	}

	out := &Output{
		ReadinessScore: score,
		ReadinessLevel: h.classifyReadinessLevel(score),
		CompletedSteps: []string{},
		Breakdown:      h.breakdown(state),
	}
	if state != nil {
		out.CompletedSteps = state.CompletedSteps
	}

	h.logger.Info("readiness score calculated", map[string]interface{}{
		"investorId": input.InvestorID,
		"score":      out.ReadinessScore,
		"level":      out.ReadinessLevel,
	})
	return out, nil
}

func (h *Handler) classifyReadinessLevel(score int) string {
	switch {
	case score >= 100:
		return LevelReady
	case score > 0:
		return LevelInProgress
	default:
		return LevelNotStarted
	}
}

func (h *Handler) breakdown(state *bank.BankState) ScoreBreakdown {
	if state == nil {
		return ScoreBreakdown{}
	}
	points := func(ok bool) int {
		if ok {
			return 20
		}
		return 0
	}
	return ScoreBreakdown{
		KYC:            points(state.KYCApproved()),
		Account:        points(state.HasActiveAccount()),
		Escrow:         points(state.EscrowAccount != nil),
		LetterOfCredit: points(state.LetterOfCredit != nil),
		Loan:           points(state.LoanApplication != nil),
	}
}

func GetInputSchema() map[string]interface{} {
	return validation.ObjectSchema(map[string]interface{}{
		"investorId": validation.InvestorIDProperty,
	}, "investorId")
}
