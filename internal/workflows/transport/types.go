// Package transport defines the workflow domain types and HTTP shapes.
package transport

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// WorkflowInstance ties a sequence of outreach tasks to a lead.
type WorkflowInstance struct {
	ID       uuid.UUID  `json:"id"`
	TenantID uuid.UUID  `json:"tenantId"`
	UserID   uuid.UUID  `json:"userId"`
	LeadID   *uuid.UUID `json:"leadId,omitempty"`
	DealID   *uuid.UUID `json:"dealId,omitempty"`
	Industry string     `json:"industry"`
	Status   string     `json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WorkflowTask is a single scheduled unit of outreach work.
type WorkflowTask struct {
	ID          uuid.UUID `json:"id"`
	InstanceID  uuid.UUID `json:"instanceId"`
	TenantID    uuid.UUID `json:"tenantId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	TaskType    string    `json:"taskType"`

	ActionConfig json.RawMessage `json:"actionConfig,omitempty"`

	Status       string      `json:"status"`
	ScheduledFor *time.Time  `json:"scheduledFor,omitempty"`
	Result       *TaskResult `json:"result,omitempty"`
	CompletedAt  *time.Time  `json:"completedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Task statuses.
const (
	TaskStatusPending   = "pending"
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
)

// ActionConfig is the parsed action_config payload of a task. Actions lists
// what to run; the remaining fields override per-action defaults.
type ActionConfig struct {
	Actions []string `json:"actions,omitempty"`

	Message      string `json:"message,omitempty"`
	EmailSubject string `json:"emailSubject,omitempty"`
	AgentRef     string `json:"agentRef,omitempty"`

	AppointmentTitle string     `json:"appointmentTitle,omitempty"`
	AppointmentStart *time.Time `json:"appointmentStart,omitempty"`
	AppointmentEnd   *time.Time `json:"appointmentEnd,omitempty"`
	Location         string     `json:"location,omitempty"`

	PartySize   int    `json:"partySize,omitempty"`
	ProjectType string `json:"projectType,omitempty"`

	ReferredName  string `json:"referredName,omitempty"`
	ReferredPhone string `json:"referredPhone,omitempty"`
	ReferredEmail string `json:"referredEmail,omitempty"`
}

// ActionResult records one action's outcome within a task run.
type ActionResult struct {
	Action  string `json:"action"`
	Success bool   `json:"success"`
	Detail  string `json:"detail,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TaskResultData carries the per-action outcomes of a run.
type TaskResultData struct {
	Actions     []ActionResult `json:"actions"`
	CompletedAt time.Time      `json:"completedAt"`
}

// TaskResult is the persisted outcome of a task execution. Success is true
// only when every action succeeded; Error holds the first failure.
type TaskResult struct {
	Success bool           `json:"success"`
	Data    TaskResultData `json:"data"`
	Error   string         `json:"error,omitempty"`
}

// FollowUpTask is a manual to-do created for a lead.
type FollowUpTask struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenantId"`
	LeadID      uuid.UUID  `json:"leadId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueAt       *time.Time `json:"dueAt,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Appointment is a scheduled meeting with a lead.
type Appointment struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenantId"`
	LeadID    uuid.UUID `json:"leadId"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Location  string    `json:"location"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Referral is a lead-sourced introduction to another prospect.
type Referral struct {
	ID            uuid.UUID `json:"id"`
	TenantID      uuid.UUID `json:"tenantId"`
	LeadID        uuid.UUID `json:"leadId"`
	ReferredName  string    `json:"referredName"`
	ReferredPhone string    `json:"referredPhone"`
	ReferredEmail string    `json:"referredEmail"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

// CreateInstanceRequest starts a workflow for a lead.
type CreateInstanceRequest struct {
	LeadID   *uuid.UUID `json:"leadId"`
	DealID   *uuid.UUID `json:"dealId"`
	Industry string     `json:"industry" validate:"required,max=100"`
}

// CreateTaskRequest adds a task to a workflow instance.
type CreateTaskRequest struct {
	Name         string          `json:"name" validate:"required,max=200"`
	Description  string          `json:"description" validate:"omitempty,max=2000"`
	TaskType     string          `json:"taskType" validate:"required,max=100"`
	ActionConfig json.RawMessage `json:"actionConfig"`
	ScheduledFor *time.Time      `json:"scheduledFor"`
}

// ExecuteTaskResponse wraps the result of an on-demand execution.
type ExecuteTaskResponse struct {
	TaskID uuid.UUID  `json:"taskId"`
	Result TaskResult `json:"result"`
}
