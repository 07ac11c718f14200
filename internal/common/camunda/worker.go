package camunda

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"bida-banking-workers/internal/common/config"
	apperrors "bida-banking-workers/internal/common/errors"
	"bida-banking-workers/internal/common/logger"
	"bida-banking-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler is implemented by every banking worker.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// JobRecorder receives per-job OpenTelemetry measurements.
type JobRecorder interface {
	RecordJobProcessed(ctx context.Context, taskType, status string)
	RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string)
}

// RunFunc executes a job against its decoded variables and returns the
// object to complete the job with.
type RunFunc func(ctx context.Context, variables map[string]interface{}) (interface{}, error)

// JobProcessor carries the lifecycle shared by all workers: metrics, timeout,
// variable parsing, completion and error handling.
type JobProcessor struct {
	taskType     string
	timeout      time.Duration
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
	recorder     JobRecorder
}

func NewJobProcessor(taskType string, timeout time.Duration, log logger.Logger) *JobProcessor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &JobProcessor{
		taskType:     taskType,
		timeout:      timeout,
		logger:       log,
		errorHandler: apperrors.NewErrorHandler(log),
	}
}

// WithRecorder attaches an OpenTelemetry recorder.
func (p *JobProcessor) WithRecorder(r JobRecorder) *JobProcessor {
	p.recorder = r
	return p
}

func (p *JobProcessor) Process(client worker.JobClient, job entities.Job, run RunFunc) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(p.taskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(p.taskType).Dec()

	log := p.logger.WithFields(map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})
	log.Info("processing job", nil)

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	var output interface{}
	variables, err := DecodeVariables(job.Variables)
	if err != nil {
		err = apperrors.NewInvalidBankRequestError(fmt.Sprintf("parse variables: %v", err))
	} else {
		output, err = run(ctx, variables)
	}

	sendCtx, sendCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer sendCancel()

	if err != nil {
		stdErr := apperrors.Normalize(err)
		metrics.WorkerJobsFailed.WithLabelValues(p.taskType, string(stdErr.Code)).Inc()
		p.record(sendCtx, start, "failed")
		p.errorHandler.HandleJobError(sendCtx, client, job, stdErr)
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		log.Error("failed to create complete job command", map[string]interface{}{"error": err.Error()})
		p.errorHandler.HandleJobError(sendCtx, client, job, err)
		return
	}
	if _, err := cmd.Send(sendCtx); err != nil {
		log.Error("failed to send complete job command", map[string]interface{}{"error": err.Error()})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(p.taskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(p.taskType).Observe(time.Since(start).Seconds())
	p.record(sendCtx, start, "completed")
	log.Info("job completed", map[string]interface{}{"durationMs": time.Since(start).Milliseconds()})
}

// DecodeVariables parses job variables keeping numbers as json.Number, so
// amounts keep every digit on their way into decimal.Decimal.
func DecodeVariables(raw string) (map[string]interface{}, error) {
	variables := map[string]interface{}{}
	if strings.TrimSpace(raw) == "" {
		return variables, nil
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&variables); err != nil {
		return nil, err
	}
	return variables, nil
}

func (p *JobProcessor) record(ctx context.Context, start time.Time, status string) {
	if p.recorder == nil {
		return
	}
	p.recorder.RecordJobProcessed(ctx, p.taskType, status)
	p.recorder.RecordJobDuration(ctx, p.taskType, time.Since(start), status)
}

// StartWorker opens a job worker for taskType unless it is disabled.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler JobHandler, log logger.Logger) worker.JobWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return nil
	}

	w := client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return w
}
