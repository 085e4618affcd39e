// Package repository persists workflow instances, tasks, and the outreach
// records created by task actions.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadflow_backend/internal/workflows/transport"
	"leadflow_backend/platform/apperr"
)

// WorkflowsRepository is the store contract for the workflow context.
type WorkflowsRepository interface {
	CreateInstance(ctx context.Context, params CreateInstanceParams) (transport.WorkflowInstance, error)
	GetInstance(ctx context.Context, instanceID, tenantID uuid.UUID) (transport.WorkflowInstance, error)
	CreateTask(ctx context.Context, params CreateTaskParams) (transport.WorkflowTask, error)
	GetTask(ctx context.Context, taskID, tenantID uuid.UUID) (transport.WorkflowTask, error)
	ListDueTasks(ctx context.Context, before time.Time, limit int) ([]transport.WorkflowTask, error)
	MarkTaskCompleted(ctx context.Context, taskID, tenantID uuid.UUID, result transport.TaskResult) error

	CreateFollowUpTask(ctx context.Context, params CreateFollowUpParams) (transport.FollowUpTask, error)
	CreateAppointment(ctx context.Context, params CreateAppointmentParams) (transport.Appointment, error)
	CreateReferral(ctx context.Context, params CreateReferralParams) (transport.Referral, error)
	ListReferralsByLead(ctx context.Context, leadID, tenantID uuid.UUID) ([]transport.Referral, error)
}

// CreateInstanceParams creates a workflow instance.
type CreateInstanceParams struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	LeadID   *uuid.UUID
	DealID   *uuid.UUID
	Industry string
}

// CreateTaskParams creates a workflow task.
type CreateTaskParams struct {
	InstanceID   uuid.UUID
	TenantID     uuid.UUID
	Name         string
	Description  string
	TaskType     string
	ActionConfig json.RawMessage
	ScheduledFor *time.Time
}

// CreateFollowUpParams creates a manual follow-up.
type CreateFollowUpParams struct {
	TenantID    uuid.UUID
	LeadID      uuid.UUID
	Title       string
	Description string
	DueAt       *time.Time
}

// CreateAppointmentParams schedules a meeting.
type CreateAppointmentParams struct {
	TenantID  uuid.UUID
	LeadID    uuid.UUID
	Title     string
	StartTime time.Time
	EndTime   time.Time
	Location  string
}

// CreateReferralParams records an introduction to a new prospect.
type CreateReferralParams struct {
	TenantID      uuid.UUID
	LeadID        uuid.UUID
	ReferredName  string
	ReferredPhone string
	ReferredEmail string
}

// Repo implements WorkflowsRepository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new workflows repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ WorkflowsRepository = (*Repo)(nil)

// CreateInstance starts a workflow for a lead.
func (r *Repo) CreateInstance(ctx context.Context, params CreateInstanceParams) (transport.WorkflowInstance, error) {
	query := `
		INSERT INTO workflow_instances (tenant_id, user_id, lead_id, deal_id, industry)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, tenant_id, user_id, lead_id, deal_id, industry, status, created_at, updated_at`

	var instance transport.WorkflowInstance
	err := r.pool.QueryRow(ctx, query,
		params.TenantID, params.UserID, params.LeadID, params.DealID, params.Industry,
	).Scan(
		&instance.ID, &instance.TenantID, &instance.UserID, &instance.LeadID, &instance.DealID,
		&instance.Industry, &instance.Status, &instance.CreatedAt, &instance.UpdatedAt,
	)
	if err != nil {
		return transport.WorkflowInstance{}, fmt.Errorf("create workflow instance: %w", err)
	}
	return instance, nil
}

// GetInstance retrieves a workflow instance scoped to the tenant.
func (r *Repo) GetInstance(ctx context.Context, instanceID, tenantID uuid.UUID) (transport.WorkflowInstance, error) {
	query := `
		SELECT id, tenant_id, user_id, lead_id, deal_id, industry, status, created_at, updated_at
		FROM workflow_instances
		WHERE id = $1 AND tenant_id = $2`

	var instance transport.WorkflowInstance
	err := r.pool.QueryRow(ctx, query, instanceID, tenantID).Scan(
		&instance.ID, &instance.TenantID, &instance.UserID, &instance.LeadID, &instance.DealID,
		&instance.Industry, &instance.Status, &instance.CreatedAt, &instance.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return transport.WorkflowInstance{}, apperr.NotFound("workflow instance not found")
		}
		return transport.WorkflowInstance{}, fmt.Errorf("get workflow instance: %w", err)
	}
	return instance, nil
}

// CreateTask adds a task to a workflow instance.
func (r *Repo) CreateTask(ctx context.Context, params CreateTaskParams) (transport.WorkflowTask, error) {
	query := `
		INSERT INTO workflow_tasks (instance_id, tenant_id, name, description, task_type, action_config, scheduled_for)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, instance_id, tenant_id, name, description, task_type, action_config,
			status, scheduled_for, result, completed_at, created_at, updated_at`

	task, err := scanTask(r.pool.QueryRow(ctx, query,
		params.InstanceID, params.TenantID, params.Name, params.Description,
		params.TaskType, params.ActionConfig, params.ScheduledFor,
	))
	if err != nil {
		return transport.WorkflowTask{}, fmt.Errorf("create workflow task: %w", err)
	}
	return task, nil
}

// GetTask retrieves a task scoped to the tenant.
func (r *Repo) GetTask(ctx context.Context, taskID, tenantID uuid.UUID) (transport.WorkflowTask, error) {
	query := `
		SELECT id, instance_id, tenant_id, name, description, task_type, action_config,
			status, scheduled_for, result, completed_at, created_at, updated_at
		FROM workflow_tasks
		WHERE id = $1 AND tenant_id = $2`

	task, err := scanTask(r.pool.QueryRow(ctx, query, taskID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return transport.WorkflowTask{}, apperr.NotFound("workflow task not found")
		}
		return transport.WorkflowTask{}, fmt.Errorf("get workflow task: %w", err)
	}
	return task, nil
}

// ListDueTasks returns pending tasks whose scheduled time has passed, oldest
// first. Used by the outreach loop to drain the backlog.
func (r *Repo) ListDueTasks(ctx context.Context, before time.Time, limit int) ([]transport.WorkflowTask, error) {
	query := `
		SELECT id, instance_id, tenant_id, name, description, task_type, action_config,
			status, scheduled_for, result, completed_at, created_at, updated_at
		FROM workflow_tasks
		WHERE status = $1 AND scheduled_for IS NOT NULL AND scheduled_for <= $2
		ORDER BY scheduled_for ASC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, transport.TaskStatusPending, before, limit)
	if err != nil {
		return nil, fmt.Errorf("list due tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]transport.WorkflowTask, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan due task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// MarkTaskCompleted writes the execution result and final status. A run with
// any failed action is stored as failed, the result detail preserved either
// way.
func (r *Repo) MarkTaskCompleted(ctx context.Context, taskID, tenantID uuid.UUID, result transport.TaskResult) error {
	encoded, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal task result: %w", err)
	}

	status := transport.TaskStatusCompleted
	if !result.Success {
		status = transport.TaskStatusFailed
	}

	query := `
		UPDATE workflow_tasks
		SET status = $1, result = $2, completed_at = $3, updated_at = NOW()
		WHERE id = $4 AND tenant_id = $5`

	tag, err := r.pool.Exec(ctx, query, status, encoded, result.Data.CompletedAt, taskID, tenantID)
	if err != nil {
		return fmt.Errorf("mark task completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("workflow task not found")
	}
	return nil
}

// CreateFollowUpTask records a manual follow-up for a lead.
func (r *Repo) CreateFollowUpTask(ctx context.Context, params CreateFollowUpParams) (transport.FollowUpTask, error) {
	query := `
		INSERT INTO follow_up_tasks (tenant_id, lead_id, title, description, due_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, tenant_id, lead_id, title, description, due_at, status, created_at`

	var followUp transport.FollowUpTask
	err := r.pool.QueryRow(ctx, query,
		params.TenantID, params.LeadID, params.Title, params.Description, params.DueAt,
	).Scan(
		&followUp.ID, &followUp.TenantID, &followUp.LeadID,
		&followUp.Title, &followUp.Description, &followUp.DueAt, &followUp.Status, &followUp.CreatedAt,
	)
	if err != nil {
		return transport.FollowUpTask{}, fmt.Errorf("create follow-up task: %w", err)
	}
	return followUp, nil
}

// CreateAppointment schedules a meeting with a lead.
func (r *Repo) CreateAppointment(ctx context.Context, params CreateAppointmentParams) (transport.Appointment, error) {
	query := `
		INSERT INTO appointments (tenant_id, lead_id, title, start_time, end_time, location)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, tenant_id, lead_id, title, start_time, end_time, location, status, created_at`

	var appointment transport.Appointment
	err := r.pool.QueryRow(ctx, query,
		params.TenantID, params.LeadID, params.Title, params.StartTime, params.EndTime, params.Location,
	).Scan(
		&appointment.ID, &appointment.TenantID, &appointment.LeadID,
		&appointment.Title, &appointment.StartTime, &appointment.EndTime,
		&appointment.Location, &appointment.Status, &appointment.CreatedAt,
	)
	if err != nil {
		return transport.Appointment{}, fmt.Errorf("create appointment: %w", err)
	}
	return appointment, nil
}

// CreateReferral records an introduction sourced from a lead.
func (r *Repo) CreateReferral(ctx context.Context, params CreateReferralParams) (transport.Referral, error) {
	query := `
		INSERT INTO referrals (tenant_id, lead_id, referred_name, referred_phone, referred_email)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, tenant_id, lead_id, referred_name, referred_phone, referred_email, status, created_at`

	var referral transport.Referral
	err := r.pool.QueryRow(ctx, query,
		params.TenantID, params.LeadID, params.ReferredName, params.ReferredPhone, params.ReferredEmail,
	).Scan(
		&referral.ID, &referral.TenantID, &referral.LeadID,
		&referral.ReferredName, &referral.ReferredPhone, &referral.ReferredEmail,
		&referral.Status, &referral.CreatedAt,
	)
	if err != nil {
		return transport.Referral{}, fmt.Errorf("create referral: %w", err)
	}
	return referral, nil
}

// ListReferralsByLead returns a lead's referrals, newest first.
func (r *Repo) ListReferralsByLead(ctx context.Context, leadID, tenantID uuid.UUID) ([]transport.Referral, error) {
	query := `
		SELECT id, tenant_id, lead_id, referred_name, referred_phone, referred_email, status, created_at
		FROM referrals
		WHERE lead_id = $1 AND tenant_id = $2
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, leadID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}
	defer rows.Close()

	referrals := make([]transport.Referral, 0)
	for rows.Next() {
		var referral transport.Referral
		if err := rows.Scan(
			&referral.ID, &referral.TenantID, &referral.LeadID,
			&referral.ReferredName, &referral.ReferredPhone, &referral.ReferredEmail,
			&referral.Status, &referral.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan referral: %w", err)
		}
		referrals = append(referrals, referral)
	}
	return referrals, rows.Err()
}

func scanTask(row pgx.Row) (transport.WorkflowTask, error) {
	var task transport.WorkflowTask
	var result []byte
	err := row.Scan(
		&task.ID, &task.InstanceID, &task.TenantID,
		&task.Name, &task.Description, &task.TaskType, &task.ActionConfig,
		&task.Status, &task.ScheduledFor, &result, &task.CompletedAt,
		&task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return transport.WorkflowTask{}, err
	}
	if len(result) > 0 {
		var parsed transport.TaskResult
		if err := json.Unmarshal(result, &parsed); err != nil {
			return transport.WorkflowTask{}, fmt.Errorf("unmarshal task result: %w", err)
		}
		task.Result = &parsed
	}
	return task, nil
}
