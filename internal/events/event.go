// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"leadflow_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// Event names, for Subscribe calls.
const (
	EventLeadCreated        = "leads.created"
	EventLeadScored         = "leads.scored"
	EventEngagementRecorded = "leads.engagement.recorded"
	EventTaskExecuted       = "workflows.task.executed"
)

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a new lead is created.
type LeadCreated struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	TenantID uuid.UUID `json:"tenantId"`
	Source   string    `json:"source,omitempty"`
	Industry string    `json:"industry,omitempty"`
}

func (e LeadCreated) EventName() string { return EventLeadCreated }

// LeadScored is published after a lead's score and routing fields are persisted.
type LeadScored struct {
	BaseEvent
	LeadID         uuid.UUID `json:"leadId"`
	TenantID       uuid.UUID `json:"tenantId"`
	Score          int       `json:"score"`
	NextAction     string    `json:"nextAction"`
	Priority       string    `json:"priority"`
	NextActionDate time.Time `json:"nextActionDate"`
}

func (e LeadScored) EventName() string { return EventLeadScored }

// EngagementRecorded is published when a channel provider reports an
// engagement signal for a lead (email opened, SMS replied, ...).
type EngagementRecorded struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	TenantID uuid.UUID `json:"tenantId"`
	Kind     string    `json:"kind"`
}

func (e EngagementRecorded) EventName() string { return EventEngagementRecorded }

// =============================================================================
// Workflow Domain Events
// =============================================================================

// TaskExecuted is published after an outreach task's action list has run.
type TaskExecuted struct {
	BaseEvent
	TaskID   uuid.UUID `json:"taskId"`
	TenantID uuid.UUID `json:"tenantId"`
	Success  bool      `json:"success"`
	Actions  int       `json:"actions"`
}

func (e TaskExecuted) EventName() string { return EventTaskExecuted }
