// Package repository persists leads and their score history in PostgreSQL.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadflow_backend/internal/leads/scoring"
	"leadflow_backend/platform/apperr"
)

const leadNotFoundMessage = "lead not found"

// Lead is the stored prospect record.
type Lead struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenantId"`

	BusinessName  string `json:"businessName"`
	ContactPerson string `json:"contactPerson"`
	FirstName     string `json:"firstName"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`

	CompanySize     string `json:"companySize"`
	Industry        string `json:"industry"`
	YearsInBusiness *int   `json:"yearsInBusiness,omitempty"`
	Location        string `json:"location"`

	Source            string     `json:"source"`
	LastEngagementAt  *time.Time `json:"lastEngagementAt,omitempty"`
	VisitedPricing    bool       `json:"visitedPricing"`
	RequestedDemo     bool       `json:"requestedDemo"`
	DownloadedContent bool       `json:"downloadedContent"`

	Engagement scoring.EngagementCounters `json:"engagement"`

	Budget        string `json:"budget"`
	Timeline      string `json:"timeline"`
	DecisionMaker bool   `json:"decisionMaker"`

	// Enrichment is an opaque blob produced upstream; scoring does not
	// interpret it.
	Enrichment []byte `json:"enrichment,omitempty"`

	LeadScore       int        `json:"leadScore"`
	NextAction      string     `json:"nextAction"`
	NextActionDate  *time.Time `json:"nextActionDate,omitempty"`
	LastContactedAt *time.Time `json:"lastContactedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateLeadParams holds the fields accepted when creating a lead.
type CreateLeadParams struct {
	TenantID uuid.UUID

	BusinessName  string
	ContactPerson string
	FirstName     string
	Email         string
	Phone         string

	CompanySize     string
	Industry        string
	YearsInBusiness *int
	Location        string

	Source            string
	VisitedPricing    bool
	RequestedDemo     bool
	DownloadedContent bool

	Budget        string
	Timeline      string
	DecisionMaker bool

	Enrichment []byte
}

// UpdateScoreParams writes the routing fields produced by a scoring run.
type UpdateScoreParams struct {
	LeadID         uuid.UUID
	TenantID       uuid.UUID
	LeadScore      int
	NextAction     string
	NextActionDate time.Time
}

// UpdateEngagementParams persists the engagement counters after an event.
type UpdateEngagementParams struct {
	LeadID          uuid.UUID
	TenantID        uuid.UUID
	Engagement      scoring.EngagementCounters
	LastContactedAt time.Time
}

// ScoreHistoryEntry is an immutable, append-only record of a scoring run.
type ScoreHistoryEntry struct {
	ID           uuid.UUID         `json:"id"`
	LeadID       uuid.UUID         `json:"leadId"`
	TenantID     uuid.UUID         `json:"tenantId"`
	Breakdown    scoring.Breakdown `json:"breakdown"`
	CalculatedAt time.Time         `json:"calculatedAt"`
}

// Filter narrows the lead set for batch scoring. Zero values mean "any".
type Filter struct {
	Industry     string
	Source       string
	MinScore     *int
	MaxScore     *int
	ScoredBefore *time.Time
}

const leadColumns = `
	id, tenant_id,
	business_name, contact_person, first_name, email, phone,
	company_size, industry, years_in_business, location,
	source, last_engagement_at, visited_pricing, requested_demo, downloaded_content,
	email_opens, email_clicks, email_replies, sms_replies, calls_answered, forms_submitted,
	budget, timeline, decision_maker,
	enrichment,
	lead_score, next_action, next_action_date, last_contacted_at,
	created_at, updated_at`

// Repo implements LeadsRepository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new leads repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements LeadsRepository.
var _ LeadsRepository = (*Repo)(nil)

// Create inserts a new lead for the tenant.
func (r *Repo) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	query := `
		INSERT INTO leads (
			tenant_id, business_name, contact_person, first_name, email, phone,
			company_size, industry, years_in_business, location,
			source, visited_pricing, requested_demo, downloaded_content,
			budget, timeline, decision_maker, enrichment
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING ` + leadColumns

	row := r.pool.QueryRow(ctx, query,
		params.TenantID, params.BusinessName, params.ContactPerson, params.FirstName, params.Email, params.Phone,
		params.CompanySize, params.Industry, params.YearsInBusiness, params.Location,
		params.Source, params.VisitedPricing, params.RequestedDemo, params.DownloadedContent,
		params.Budget, params.Timeline, params.DecisionMaker, params.Enrichment,
	)

	lead, err := scanLead(row)
	if err != nil {
		return Lead{}, fmt.Errorf("create lead: %w", err)
	}
	return lead, nil
}

// GetByID retrieves a lead by ID, scoped to the tenant.
func (r *Repo) GetByID(ctx context.Context, leadID, tenantID uuid.UUID) (Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1 AND tenant_id = $2`

	lead, err := scanLead(r.pool.QueryRow(ctx, query, leadID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, apperr.NotFound(leadNotFoundMessage)
		}
		return Lead{}, fmt.Errorf("get lead by id: %w", err)
	}
	return lead, nil
}

// ListForScoring fetches all tenant leads matching the filter.
func (r *Repo) ListForScoring(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE tenant_id = $1`
	args := []interface{}{tenantID}

	if filter.Industry != "" {
		args = append(args, filter.Industry)
		query += fmt.Sprintf(" AND industry = $%d", len(args))
	}
	if filter.Source != "" {
		args = append(args, filter.Source)
		query += fmt.Sprintf(" AND source = $%d", len(args))
	}
	if filter.MinScore != nil {
		args = append(args, *filter.MinScore)
		query += fmt.Sprintf(" AND lead_score >= $%d", len(args))
	}
	if filter.MaxScore != nil {
		args = append(args, *filter.MaxScore)
		query += fmt.Sprintf(" AND lead_score <= $%d", len(args))
	}
	if filter.ScoredBefore != nil {
		args = append(args, *filter.ScoredBefore)
		query += fmt.Sprintf(" AND updated_at < $%d", len(args))
	}
	query += " ORDER BY created_at ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads for scoring: %w", err)
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// UpdateScore writes the score and routing fields back to the lead.
func (r *Repo) UpdateScore(ctx context.Context, params UpdateScoreParams) error {
	query := `
		UPDATE leads
		SET lead_score = $1, next_action = $2, next_action_date = $3, updated_at = NOW()
		WHERE id = $4 AND tenant_id = $5`

	tag, err := r.pool.Exec(ctx, query,
		params.LeadScore, params.NextAction, params.NextActionDate,
		params.LeadID, params.TenantID,
	)
	if err != nil {
		return fmt.Errorf("update lead score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMessage)
	}
	return nil
}

// UpdateEngagement persists the engagement counters and last contact time.
func (r *Repo) UpdateEngagement(ctx context.Context, params UpdateEngagementParams) error {
	query := `
		UPDATE leads
		SET email_opens = $1, email_clicks = $2, email_replies = $3,
			sms_replies = $4, calls_answered = $5, forms_submitted = $6,
			last_contacted_at = $7, last_engagement_at = $7, updated_at = NOW()
		WHERE id = $8 AND tenant_id = $9`

	counters := params.Engagement
	tag, err := r.pool.Exec(ctx, query,
		counters.EmailOpens, counters.EmailClicks, counters.EmailReplies,
		counters.SMSReplies, counters.CallsAnswered, counters.FormsSubmitted,
		params.LastContactedAt,
		params.LeadID, params.TenantID,
	)
	if err != nil {
		return fmt.Errorf("update lead engagement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMessage)
	}
	return nil
}

// AppendScoreHistory inserts an immutable score-history row. History rows are
// never updated or deleted.
func (r *Repo) AppendScoreHistory(ctx context.Context, entry ScoreHistoryEntry) error {
	query := `
		INSERT INTO lead_score_history (lead_id, tenant_id, score, firmographics, intent, engagement, fit, calculated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		entry.LeadID, entry.TenantID,
		entry.Breakdown.Total, entry.Breakdown.Firmographics, entry.Breakdown.Intent,
		entry.Breakdown.Engagement, entry.Breakdown.Fit,
		entry.CalculatedAt,
	)
	if err != nil {
		return fmt.Errorf("append score history: %w", err)
	}
	return nil
}

// ListScoreHistory returns a lead's score history, most recent first.
func (r *Repo) ListScoreHistory(ctx context.Context, leadID, tenantID uuid.UUID) ([]ScoreHistoryEntry, error) {
	query := `
		SELECT id, lead_id, tenant_id, score, firmographics, intent, engagement, fit, calculated_at
		FROM lead_score_history
		WHERE lead_id = $1 AND tenant_id = $2
		ORDER BY calculated_at DESC`

	rows, err := r.pool.Query(ctx, query, leadID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list score history: %w", err)
	}
	defer rows.Close()

	entries := make([]ScoreHistoryEntry, 0)
	for rows.Next() {
		var entry ScoreHistoryEntry
		if err := rows.Scan(
			&entry.ID, &entry.LeadID, &entry.TenantID,
			&entry.Breakdown.Total, &entry.Breakdown.Firmographics, &entry.Breakdown.Intent,
			&entry.Breakdown.Engagement, &entry.Breakdown.Fit,
			&entry.CalculatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan score history: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ListTenantIDs returns every tenant that owns at least one lead. Used by the
// periodic rescore dispatcher; not part of the service-facing contract.
func (r *Repo) ListTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT tenant_id FROM leads`)
	if err != nil {
		return nil, fmt.Errorf("list tenant ids: %w", err)
	}
	defer rows.Close()

	var tenantIDs []uuid.UUID
	for rows.Next() {
		var tenantID uuid.UUID
		if err := rows.Scan(&tenantID); err != nil {
			return nil, fmt.Errorf("list tenant ids: %w", err)
		}
		tenantIDs = append(tenantIDs, tenantID)
	}
	return tenantIDs, rows.Err()
}

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.TenantID,
		&lead.BusinessName, &lead.ContactPerson, &lead.FirstName, &lead.Email, &lead.Phone,
		&lead.CompanySize, &lead.Industry, &lead.YearsInBusiness, &lead.Location,
		&lead.Source, &lead.LastEngagementAt, &lead.VisitedPricing, &lead.RequestedDemo, &lead.DownloadedContent,
		&lead.Engagement.EmailOpens, &lead.Engagement.EmailClicks, &lead.Engagement.EmailReplies,
		&lead.Engagement.SMSReplies, &lead.Engagement.CallsAnswered, &lead.Engagement.FormsSubmitted,
		&lead.Budget, &lead.Timeline, &lead.DecisionMaker,
		&lead.Enrichment,
		&lead.LeadScore, &lead.NextAction, &lead.NextActionDate, &lead.LastContactedAt,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	return lead, err
}
