// Package transport defines the HTTP request and response shapes for leads.
package transport

import (
	"time"

	"github.com/google/uuid"

	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/scoring"
)

// CreateLeadRequest creates a new lead. Profile fields are optional; missing
// attributes simply contribute nothing to the score.
type CreateLeadRequest struct {
	BusinessName  string `json:"businessName" validate:"required,min=1,max=200"`
	ContactPerson string `json:"contactPerson" validate:"omitempty,max=200"`
	FirstName     string `json:"firstName" validate:"omitempty,max=100"`
	Email         string `json:"email" validate:"omitempty,email"`
	Phone         string `json:"phone" validate:"omitempty,max=32"`

	CompanySize     string `json:"companySize" validate:"omitempty,max=50"`
	Industry        string `json:"industry" validate:"omitempty,max=100"`
	YearsInBusiness *int   `json:"yearsInBusiness" validate:"omitempty,gte=0,lte=500"`
	Location        string `json:"location" validate:"omitempty,max=200"`

	Source            string `json:"source" validate:"omitempty,max=100"`
	VisitedPricing    bool   `json:"visitedPricing"`
	RequestedDemo     bool   `json:"requestedDemo"`
	DownloadedContent bool   `json:"downloadedContent"`

	Budget        string `json:"budget" validate:"omitempty,max=50"`
	Timeline      string `json:"timeline" validate:"omitempty,max=50"`
	DecisionMaker bool   `json:"decisionMaker"`
}

// BatchScoreRequest narrows the lead set for a batch scoring run. An empty
// filter scores every lead the tenant owns.
type BatchScoreRequest struct {
	Industry     string     `json:"industry" validate:"omitempty,max=100"`
	Source       string     `json:"source" validate:"omitempty,max=100"`
	MinScore     *int       `json:"minScore" validate:"omitempty,gte=0,lte=100"`
	MaxScore     *int       `json:"maxScore" validate:"omitempty,gte=0,lte=100"`
	ScoredBefore *time.Time `json:"scoredBefore"`
}

// EngagementEventRequest records a single engagement event against a lead.
type EngagementEventRequest struct {
	LeadID uuid.UUID `json:"leadId" validate:"required"`
	Kind   string    `json:"kind" validate:"required,oneof=email_opened email_clicked email_replied sms_replied call_answered form_submitted"`
}

// ScoreResponse is the outcome of a single scoring run.
type ScoreResponse struct {
	LeadID         uuid.UUID         `json:"leadId"`
	Breakdown      scoring.Breakdown `json:"breakdown"`
	NextAction     string            `json:"nextAction"`
	Priority       string            `json:"priority"`
	NextActionDate time.Time         `json:"nextActionDate"`
	ScoreVersion   string            `json:"scoreVersion"`
}

// BatchScoreResponse summarizes a batch scoring run.
type BatchScoreResponse struct {
	Processed int      `json:"processed"`
	Updated   int      `json:"updated"`
	Errors    int      `json:"errors"`
	Failures  []string `json:"failures,omitempty"`
}

// ScoreHistoryResponse wraps a lead's append-only score history.
type ScoreHistoryResponse struct {
	LeadID  uuid.UUID                      `json:"leadId"`
	Entries []repository.ScoreHistoryEntry `json:"entries"`
}
