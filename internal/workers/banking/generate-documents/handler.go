// internal/workers/banking/generate-documents/handler.go
package generatedocuments

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

const TaskType = "bank-generate-documents"

type BankService interface {
	GenerateBankDocuments(ctx context.Context, investorID string) ([]bank.Document, error)
}

// DocumentIndexer is implemented by *documents.Indexer.
type DocumentIndexer interface {
	IndexDocuments(ctx context.Context, docs []bank.Document) error
}

type Handler struct {
	service   BankService
	indexer   DocumentIndexer
	logger    logger.Logger
	processor *camunda.JobProcessor
}

// NewHandler builds the worker. indexer may be nil, in which case documents
// are only returned to the process.
func NewHandler(cfg *banking.Config, svc BankService, indexer DocumentIndexer, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		service:   svc,
		indexer:   indexer,
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

// Execute projects the investor's bank documents. Indexing is best effort:
// a search outage is logged and reported as Indexed=false.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	docs, err := h.service.GenerateBankDocuments(ctx, input.InvestorID)
	if err != nil {
		return nil, err
	}

	indexed := false
	if h.indexer != nil && len(docs) > 0 {
		if err := h.indexer.IndexDocuments(ctx, docs); err != nil {
			h.logger.Warn("document indexing failed", map[string]interface{}{
				"investorId": input.InvestorID,
				"error":      err.Error(),
			})
		} else {
			indexed = true
		}
	}

	h.logger.Info("bank documents generated", map[string]interface{}{
		"investorId":    input.InvestorID,
		"documentCount": len(docs),
		"indexed":       indexed,
	})
	return &Output{Documents: docs, DocumentCount: len(docs), Indexed: indexed}, nil
}

func GetInputSchema() map[string]interface{} {
	return validation.ObjectSchema(map[string]interface{}{
		"investorId": validation.InvestorIDProperty,
	}, "investorId")
}
