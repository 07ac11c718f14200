// internal/workers/banking/request-fx-quote/handler.go
package requestfxquote

import (
	"context"
	"strings"

	"bida-banking-workers/internal/bank"
	"bida-banking-workers/internal/common/camunda"
	"bida-banking-workers/internal/common/logger"
	"bida-banking-workers/internal/common/validation"
	"bida-banking-workers/internal/workers/banking"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/shopspring/decimal"
)

const TaskType = "bank-request-fx-quote"

type BankService interface {
	RequestFXQuote(ctx context.Context, investorID, fromCurrency, toCurrency string, amount decimal.Decimal) (*bank.FXQuote, error)
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

// Execute quotes the conversion. Currency codes are upper-cased before the
// rate lookup; unknown pairs are quoted at 1.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	from := strings.ToUpper(input.FromCurrency)
	to := strings.ToUpper(input.ToCurrency)

	quote, err := h.service.RequestFXQuote(ctx, input.InvestorID, from, to, input.Amount)
	if err != nil {
		return nil, err
	}

	h.logger.Info("fx quote issued", map[string]interface{}{
		"investorId": input.InvestorID,
		"pair":       from + "/" + to,
		"rate":       quote.Rate.String(),
	})
	return &Output{FXQuote: quote}, nil
}

func GetInputSchema() map[string]interface{} {
	return validation.ObjectSchema(map[string]interface{}{
		"investorId":   map[string]interface{}{"type": "string"},
		"fromCurrency": validation.CurrencyCode,
		"toCurrency":   validation.CurrencyCode,
		"amount":       validation.PositiveAmount,
	}, "fromCurrency", "toCurrency", "amount")
}
