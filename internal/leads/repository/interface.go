package repository

import (
	"context"

	"github.com/google/uuid"
)

// LeadsRepository is the record-store contract the leads services depend on.
// All operations are scoped to the owning tenant.
type LeadsRepository interface {
	Create(ctx context.Context, params CreateLeadParams) (Lead, error)
	GetByID(ctx context.Context, leadID, tenantID uuid.UUID) (Lead, error)
	ListForScoring(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]Lead, error)
	UpdateScore(ctx context.Context, params UpdateScoreParams) error
	UpdateEngagement(ctx context.Context, params UpdateEngagementParams) error
	AppendScoreHistory(ctx context.Context, entry ScoreHistoryEntry) error
	ListScoreHistory(ctx context.Context, leadID, tenantID uuid.UUID) ([]ScoreHistoryEntry, error)
}
