// Package service coordinates workflow instances, their tasks, and task
// execution.
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	leadsrepo "leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/workflows/executor"
	"leadflow_backend/internal/workflows/repository"
	"leadflow_backend/internal/workflows/transport"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"
)

// TaskScheduler enqueues a task execution for its scheduled time.
type TaskScheduler interface {
	ScheduleTaskExecution(ctx context.Context, taskID, tenantID uuid.UUID, runAt time.Time) error
}

// LeadReader loads the lead a workflow targets.
type LeadReader interface {
	GetByID(ctx context.Context, leadID, tenantID uuid.UUID) (leadsrepo.Lead, error)
}

// Service implements the workflow operations.
type Service struct {
	repo      repository.WorkflowsRepository
	leads     LeadReader
	executor  *executor.Executor
	scheduler TaskScheduler
	log       *logger.Logger
}

// New creates a workflows service. scheduler may be nil; tasks then only run
// on demand.
func New(repo repository.WorkflowsRepository, leads LeadReader, exec *executor.Executor, scheduler TaskScheduler, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		leads:     leads,
		executor:  exec,
		scheduler: scheduler,
		log:       log,
	}
}

// CreateInstance starts a workflow for a lead.
func (s *Service) CreateInstance(ctx context.Context, tenantID, userID uuid.UUID, req transport.CreateInstanceRequest) (transport.WorkflowInstance, error) {
	if req.LeadID != nil {
		// Reject cross-tenant lead references up front.
		if _, err := s.leads.GetByID(ctx, *req.LeadID, tenantID); err != nil {
			return transport.WorkflowInstance{}, err
		}
	}
	return s.repo.CreateInstance(ctx, repository.CreateInstanceParams{
		TenantID: tenantID,
		UserID:   userID,
		LeadID:   req.LeadID,
		DealID:   req.DealID,
		Industry: req.Industry,
	})
}

// GetInstance returns a workflow instance.
func (s *Service) GetInstance(ctx context.Context, instanceID, tenantID uuid.UUID) (transport.WorkflowInstance, error) {
	return s.repo.GetInstance(ctx, instanceID, tenantID)
}

// CreateTask adds a task to a workflow instance and, when it carries a
// schedule, enqueues its execution.
func (s *Service) CreateTask(ctx context.Context, tenantID, instanceID uuid.UUID, req transport.CreateTaskRequest) (transport.WorkflowTask, error) {
	if _, err := s.repo.GetInstance(ctx, instanceID, tenantID); err != nil {
		return transport.WorkflowTask{}, err
	}

	task, err := s.repo.CreateTask(ctx, repository.CreateTaskParams{
		InstanceID:   instanceID,
		TenantID:     tenantID,
		Name:         req.Name,
		Description:  req.Description,
		TaskType:     req.TaskType,
		ActionConfig: req.ActionConfig,
		ScheduledFor: req.ScheduledFor,
	})
	if err != nil {
		return transport.WorkflowTask{}, err
	}

	if task.ScheduledFor != nil && s.scheduler != nil {
		if err := s.scheduler.ScheduleTaskExecution(ctx, task.ID, tenantID, *task.ScheduledFor); err != nil {
			// The task row exists; the periodic due-task sweep picks it up.
			s.log.Error("failed to enqueue task execution", "task_id", task.ID, "error", err)
		}
	}
	return task, nil
}

// GetTask returns a workflow task.
func (s *Service) GetTask(ctx context.Context, taskID, tenantID uuid.UUID) (transport.WorkflowTask, error) {
	return s.repo.GetTask(ctx, taskID, tenantID)
}

// ExecuteTask runs a task's actions immediately and persists the result.
func (s *Service) ExecuteTask(ctx context.Context, taskID, tenantID uuid.UUID) (transport.TaskResult, error) {
	task, err := s.repo.GetTask(ctx, taskID, tenantID)
	if err != nil {
		return transport.TaskResult{}, err
	}
	instance, err := s.repo.GetInstance(ctx, task.InstanceID, tenantID)
	if err != nil {
		return transport.TaskResult{}, err
	}

	// Workflows without a lead still execute; actions that need lead
	// contact details fail individually.
	var lead leadsrepo.Lead
	if instance.LeadID != nil {
		lead, err = s.leads.GetByID(ctx, *instance.LeadID, tenantID)
		if err != nil {
			return transport.TaskResult{}, err
		}
	}

	result := s.executor.ExecuteTask(ctx, task, instance, lead)

	if err := s.repo.MarkTaskCompleted(ctx, taskID, tenantID, result); err != nil {
		return transport.TaskResult{}, err
	}
	return result, nil
}

// DrainDueTasks executes every pending task whose schedule has passed. Used
// by the outreach loop as a safety net for enqueue failures.
func (s *Service) DrainDueTasks(ctx context.Context, now time.Time, limit int) (int, error) {
	due, err := s.repo.ListDueTasks(ctx, now, limit)
	if err != nil {
		return 0, err
	}
	executed := 0
	for _, task := range due {
		if _, err := s.ExecuteTask(ctx, task.ID, task.TenantID); err != nil {
			s.log.Error("due task execution failed", "task_id", task.ID, "error", err)
			continue
		}
		executed++
	}
	return executed, nil
}

// outreachActions maps a routing decision's next action to the executor
// actions that deliver it.
var outreachActions = map[string][]string{
	"voice_call":    {"voice_call"},
	"email_sms":     {"email", "sms"},
	"email_nurture": {"email"},
}

// ExecuteOutreach delivers a lead's routed next action outside any stored
// workflow. Monthly check-ins become a follow-up record for a human instead
// of an automated send.
func (s *Service) ExecuteOutreach(ctx context.Context, tenantID, leadID uuid.UUID, routedAction string) (transport.TaskResult, error) {
	lead, err := s.leads.GetByID(ctx, leadID, tenantID)
	if err != nil {
		return transport.TaskResult{}, err
	}

	if routedAction == "monthly_checkin" {
		_, err := s.repo.CreateFollowUpTask(ctx, repository.CreateFollowUpParams{
			TenantID:    tenantID,
			LeadID:      leadID,
			Title:       "Monthly check-in with " + lead.BusinessName,
			Description: "Low-score lead; reach out manually and refresh the profile.",
		})
		if err != nil {
			return transport.TaskResult{}, err
		}
		return transport.TaskResult{Success: true, Data: transport.TaskResultData{CompletedAt: time.Now().UTC()}}, nil
	}

	actions, ok := outreachActions[routedAction]
	if !ok {
		return transport.TaskResult{}, apperr.Validation("unknown outreach action: " + routedAction)
	}

	config, err := json.Marshal(transport.ActionConfig{Actions: actions})
	if err != nil {
		return transport.TaskResult{}, err
	}
	task := transport.WorkflowTask{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Name:         "Scheduled outreach",
		TaskType:     routedAction,
		ActionConfig: config,
	}
	instance := transport.WorkflowInstance{TenantID: tenantID, LeadID: &leadID, Industry: lead.Industry}

	return s.executor.ExecuteTask(ctx, task, instance, lead), nil
}

// ListReferrals returns a lead's referrals.
func (s *Service) ListReferrals(ctx context.Context, leadID, tenantID uuid.UUID) ([]transport.Referral, error) {
	return s.repo.ListReferralsByLead(ctx, leadID, tenantID)
}

// CreateFollowUp records a manual follow-up task for a lead.
func (s *Service) CreateFollowUp(ctx context.Context, params repository.CreateFollowUpParams) (transport.FollowUpTask, error) {
	return s.repo.CreateFollowUpTask(ctx, params)
}
