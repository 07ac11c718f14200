// Package registry builds and starts every banking job worker.
package registry

import (
	"bida-banking-workers/internal/bank"
	"bida-banking-workers/internal/bank/escrow"
	"bida-banking-workers/internal/common/camunda"
	"bida-banking-workers/internal/common/config"
	"bida-banking-workers/internal/common/logger"
	"bida-banking-workers/internal/workers/banking"

	cr "bida-banking-workers/internal/workers/banking/check-readiness"
	ce "bida-banking-workers/internal/workers/banking/create-escrow"
	gd "bida-banking-workers/internal/workers/banking/generate-documents"
	is "bida-banking-workers/internal/workers/banking/init-state"
	ilc "bida-banking-workers/internal/workers/banking/issue-letter-of-credit"
	oca "bida-banking-workers/internal/workers/banking/open-corporate-account"
	pk "bida-banking-workers/internal/workers/banking/perform-kyc"
	pl "bida-banking-workers/internal/workers/banking/preapprove-loan"
	re "bida-banking-workers/internal/workers/banking/release-escrow"
	fx "bida-banking-workers/internal/workers/banking/request-fx-quote"
	ter "bida-banking-workers/internal/workers/banking/trigger-escrow-release"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Dependencies are shared by all workers. Indexer and Recorder may be nil.
type Dependencies struct {
	Service  *bank.Service
	Hook     *escrow.Hook
	Indexer  gd.DocumentIndexer
	Recorder camunda.JobRecorder
	Logger   logger.Logger
}

type Worker struct {
	TaskType string
	Handler  camunda.JobHandler
}

// Workers builds one handler per bank task type, in workflow order.
func Workers(cfg *config.Config, deps Dependencies) []Worker {
	wc := func(taskType string) *banking.Config {
		return banking.LoadConfig(config.GetWorkerConfig(cfg, taskType))
	}
	svc, log, rec := deps.Service, deps.Logger, deps.Recorder

	return []Worker{
		{is.TaskType, is.NewHandler(wc(is.TaskType), svc, log).WithRecorder(rec)},
		{pk.TaskType, pk.NewHandler(wc(pk.TaskType), svc, log).WithRecorder(rec)},
		{oca.TaskType, oca.NewHandler(wc(oca.TaskType), svc, log).WithRecorder(rec)},
		{ce.TaskType, ce.NewHandler(wc(ce.TaskType), svc, log).WithRecorder(rec)},
		{ilc.TaskType, ilc.NewHandler(wc(ilc.TaskType), svc, log).WithRecorder(rec)},
		{pl.TaskType, pl.NewHandler(wc(pl.TaskType), svc, log).WithRecorder(rec)},
		{fx.TaskType, fx.NewHandler(wc(fx.TaskType), svc, log).WithRecorder(rec)},
		{re.TaskType, re.NewHandler(wc(re.TaskType), svc, log).WithRecorder(rec)},
		{ter.TaskType, ter.NewHandler(wc(ter.TaskType), deps.Hook, log).WithRecorder(rec)},
		{cr.TaskType, cr.NewHandler(wc(cr.TaskType), svc, log).WithRecorder(rec)},
		{gd.TaskType, gd.NewHandler(wc(gd.TaskType), svc, deps.Indexer, log).WithRecorder(rec)},
	}
}

// Start opens a job worker for every enabled task type and returns the
// workers that were opened.
func Start(client zbc.Client, cfg *config.Config, deps Dependencies) []worker.JobWorker {
	var started []worker.JobWorker
	for _, w := range Workers(cfg, deps) {
		jw := camunda.StartWorker(client, w.TaskType, config.GetWorkerConfig(cfg, w.TaskType), w.Handler, deps.Logger)
		if jw != nil {
			started = append(started, jw)
		}
	}
	deps.Logger.Info("bank workers registered", map[string]interface{}{"count": len(started)})
	return started
}
