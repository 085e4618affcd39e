package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	leadsservice "leadflow_backend/internal/leads/service"
	leadstransport "leadflow_backend/internal/leads/transport"
	wfservice "leadflow_backend/internal/workflows/service"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
)

// Worker consumes the queue and runs the scheduled work against the domain
// services.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	leads     *leadsservice.Service
	workflows *wfservice.Service
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, leads *leadsservice.Service, workflows *wfservice.Service, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		leads:     leads,
		workflows: workflows,
		log:       log,
	}

	mux.HandleFunc(TaskOutreachDue, w.handleOutreachDue)
	mux.HandleFunc(TaskExecuteWorkflowTask, w.handleExecuteWorkflowTask)
	mux.HandleFunc(TaskBatchScore, w.handleBatchScore)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleOutreachDue(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseOutreachDuePayload(task)
	if err != nil {
		return err
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return err
	}
	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return err
	}

	result, err := w.workflows.ExecuteOutreach(ctx, tenantID, leadID, payload.Action)
	if err != nil {
		return err
	}
	if !result.Success {
		w.log.Warn("scheduled outreach had failures", "lead_id", leadID, "error", result.Error)
	}
	return nil
}

func (w *Worker) handleExecuteWorkflowTask(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseExecuteWorkflowTaskPayload(task)
	if err != nil {
		return err
	}

	taskID, err := uuid.Parse(payload.TaskID)
	if err != nil {
		return err
	}
	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return err
	}

	// The result row records any per-action failures; only infrastructure
	// errors are worth a retry.
	_, err = w.workflows.ExecuteTask(ctx, taskID, tenantID)
	return err
}

func (w *Worker) handleBatchScore(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseBatchScorePayload(task)
	if err != nil {
		return err
	}

	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return err
	}

	result, err := w.leads.BatchScore(ctx, tenantID, leadstransport.BatchScoreRequest{})
	if err != nil {
		return err
	}
	w.log.Info("scheduled batch score complete",
		"tenant_id", tenantID,
		"processed", result.Processed,
		"updated", result.Updated,
		"errors", result.Errors,
	)
	return nil
}
