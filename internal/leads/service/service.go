// Package service orchestrates lead scoring, routing, and persistence.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/routing"
	"leadflow_backend/internal/leads/scoring"
	"leadflow_backend/internal/leads/transport"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"
)

// Leads processed per batch. Batches run sequentially; leads within a batch
// run concurrently up to batchConcurrency.
const (
	batchSize        = 100
	batchConcurrency = 8
)

// EventKind identifies an engagement event applied to a lead.
type EventKind string

const (
	EventEmailOpened   EventKind = "email_opened"
	EventEmailClicked  EventKind = "email_clicked"
	EventEmailReplied  EventKind = "email_replied"
	EventSMSReplied    EventKind = "sms_replied"
	EventCallAnswered  EventKind = "call_answered"
	EventFormSubmitted EventKind = "form_submitted"
)

// ParseEventKind validates an engagement event kind.
func ParseEventKind(raw string) (EventKind, error) {
	switch kind := EventKind(raw); kind {
	case EventEmailOpened, EventEmailClicked, EventEmailReplied,
		EventSMSReplied, EventCallAnswered, EventFormSubmitted:
		return kind, nil
	default:
		return "", apperr.Validation(fmt.Sprintf("unknown engagement event kind: %s", raw))
	}
}

// OutreachScheduler enqueues the follow-up action a routing decision calls for.
type OutreachScheduler interface {
	ScheduleOutreach(ctx context.Context, leadID, tenantID uuid.UUID, action string, runAt time.Time) error
}

// Service implements the lead scoring pipeline.
type Service struct {
	repo      repository.LeadsRepository
	scheduler OutreachScheduler
	bus       events.Bus
	log       *logger.Logger
	now       func() time.Time
}

// New creates a new leads service. scheduler may be nil when no outreach
// queue is configured; scoring then skips enqueueing.
func New(repo repository.LeadsRepository, scheduler OutreachScheduler, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		scheduler: scheduler,
		bus:       bus,
		log:       log,
		now:       time.Now,
	}
}

// Create stores a new lead and runs an initial scoring pass over it.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req transport.CreateLeadRequest) (repository.Lead, transport.ScoreResponse, error) {
	lead, err := s.repo.Create(ctx, repository.CreateLeadParams{
		TenantID:          tenantID,
		BusinessName:      req.BusinessName,
		ContactPerson:     req.ContactPerson,
		FirstName:         req.FirstName,
		Email:             req.Email,
		Phone:             req.Phone,
		CompanySize:       req.CompanySize,
		Industry:          req.Industry,
		YearsInBusiness:   req.YearsInBusiness,
		Location:          req.Location,
		Source:            req.Source,
		VisitedPricing:    req.VisitedPricing,
		RequestedDemo:     req.RequestedDemo,
		DownloadedContent: req.DownloadedContent,
		Budget:            req.Budget,
		Timeline:          req.Timeline,
		DecisionMaker:     req.DecisionMaker,
	})
	if err != nil {
		return repository.Lead{}, transport.ScoreResponse{}, err
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		TenantID:  tenantID,
		Source:    lead.Source,
		Industry:  lead.Industry,
	})

	result, err := s.scoreLead(ctx, lead)
	if err != nil {
		return repository.Lead{}, transport.ScoreResponse{}, err
	}
	return lead, result, nil
}

// Get returns a single lead scoped to the tenant.
func (s *Service) Get(ctx context.Context, leadID, tenantID uuid.UUID) (repository.Lead, error) {
	return s.repo.GetByID(ctx, leadID, tenantID)
}

// ScoreHistory returns a lead's score history, most recent first. The lead is
// loaded first so a missing lead reports not-found rather than an empty list.
func (s *Service) ScoreHistory(ctx context.Context, leadID, tenantID uuid.UUID) (transport.ScoreHistoryResponse, error) {
	if _, err := s.repo.GetByID(ctx, leadID, tenantID); err != nil {
		return transport.ScoreHistoryResponse{}, err
	}
	entries, err := s.repo.ListScoreHistory(ctx, leadID, tenantID)
	if err != nil {
		return transport.ScoreHistoryResponse{}, err
	}
	return transport.ScoreHistoryResponse{LeadID: leadID, Entries: entries}, nil
}

// ScoreAndSave recomputes a single lead's score from its current attributes
// and persists the outcome.
func (s *Service) ScoreAndSave(ctx context.Context, leadID, tenantID uuid.UUID) (transport.ScoreResponse, error) {
	lead, err := s.repo.GetByID(ctx, leadID, tenantID)
	if err != nil {
		return transport.ScoreResponse{}, err
	}
	return s.scoreLead(ctx, lead)
}

// scoreLead runs the full score-route-persist pipeline for one lead. The lead
// row is updated before the history entry is appended, so the live record is
// never behind its own history.
func (s *Service) scoreLead(ctx context.Context, lead repository.Lead) (transport.ScoreResponse, error) {
	now := s.now().UTC()
	breakdown := scoring.Score(leadAttributes(lead), now)
	decision := routing.Route(breakdown.Total, now)

	err := s.repo.UpdateScore(ctx, repository.UpdateScoreParams{
		LeadID:         lead.ID,
		TenantID:       lead.TenantID,
		LeadScore:      breakdown.Total,
		NextAction:     string(decision.Action),
		NextActionDate: decision.NextActionDate,
	})
	if err != nil {
		return transport.ScoreResponse{}, err
	}

	err = s.repo.AppendScoreHistory(ctx, repository.ScoreHistoryEntry{
		LeadID:       lead.ID,
		TenantID:     lead.TenantID,
		Breakdown:    breakdown,
		CalculatedAt: now,
	})
	if err != nil {
		return transport.ScoreResponse{}, err
	}

	s.log.LeadScored(lead.ID.String(), breakdown.Total, string(decision.Action), string(decision.Priority))

	s.bus.Publish(ctx, events.LeadScored{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         lead.ID,
		TenantID:       lead.TenantID,
		Score:          breakdown.Total,
		NextAction:     string(decision.Action),
		Priority:       string(decision.Priority),
		NextActionDate: decision.NextActionDate,
	})

	if s.scheduler != nil {
		if err := s.scheduler.ScheduleOutreach(ctx, lead.ID, lead.TenantID, string(decision.Action), decision.NextActionDate); err != nil {
			// A full queue must not lose the persisted score.
			s.log.Error("failed to schedule outreach", "lead_id", lead.ID, "error", err)
		}
	}

	return transport.ScoreResponse{
		LeadID:         lead.ID,
		Breakdown:      breakdown,
		NextAction:     string(decision.Action),
		Priority:       string(decision.Priority),
		NextActionDate: decision.NextActionDate,
		ScoreVersion:   scoring.ScoreVersion,
	}, nil
}

// BatchScore rescores every tenant lead matching the filter. One failing lead
// never aborts the run; failures are counted and reported alongside the
// totals.
func (s *Service) BatchScore(ctx context.Context, tenantID uuid.UUID, req transport.BatchScoreRequest) (transport.BatchScoreResponse, error) {
	leads, err := s.repo.ListForScoring(ctx, tenantID, repository.Filter{
		Industry:     req.Industry,
		Source:       req.Source,
		MinScore:     req.MinScore,
		MaxScore:     req.MaxScore,
		ScoredBefore: req.ScoredBefore,
	})
	if err != nil {
		return transport.BatchScoreResponse{}, err
	}

	response := transport.BatchScoreResponse{Processed: len(leads)}
	type failure struct {
		leadID uuid.UUID
		err    error
	}

	for start := 0; start < len(leads); start += batchSize {
		end := start + batchSize
		if end > len(leads) {
			end = len(leads)
		}
		batch := leads[start:end]

		results := make([]*failure, len(batch))
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(batchConcurrency)
		for i, lead := range batch {
			group.Go(func() error {
				if _, err := s.scoreLead(groupCtx, lead); err != nil {
					results[i] = &failure{leadID: lead.ID, err: err}
				}
				return nil
			})
		}
		// Workers never return errors; Wait only orders the writes above.
		_ = group.Wait()

		for _, result := range results {
			if result == nil {
				response.Updated++
				continue
			}
			response.Errors++
			response.Failures = append(response.Failures, fmt.Sprintf("%s: %v", result.leadID, result.err))
			s.log.Error("batch score failed for lead", "lead_id", result.leadID, "error", result.err)
		}
	}

	s.log.Info("batch score run complete",
		"tenant_id", tenantID,
		"processed", response.Processed,
		"updated", response.Updated,
		"errors", response.Errors,
	)
	return response, nil
}

// ApplyEvent records an engagement event against a lead and immediately
// rescores it. The counter update persists even if the rescore later fails.
func (s *Service) ApplyEvent(ctx context.Context, tenantID uuid.UUID, req transport.EngagementEventRequest) (transport.ScoreResponse, error) {
	kind, err := ParseEventKind(req.Kind)
	if err != nil {
		return transport.ScoreResponse{}, err
	}

	lead, err := s.repo.GetByID(ctx, req.LeadID, tenantID)
	if err != nil {
		return transport.ScoreResponse{}, err
	}

	counters := lead.Engagement
	switch kind {
	case EventEmailOpened:
		counters.EmailOpens++
	case EventEmailClicked:
		counters.EmailClicks++
	case EventEmailReplied:
		counters.EmailReplies++
	case EventSMSReplied:
		counters.SMSReplies++
	case EventCallAnswered:
		counters.CallsAnswered++
	case EventFormSubmitted:
		counters.FormsSubmitted++
	}

	now := s.now().UTC()
	err = s.repo.UpdateEngagement(ctx, repository.UpdateEngagementParams{
		LeadID:          lead.ID,
		TenantID:        tenantID,
		Engagement:      counters,
		LastContactedAt: now,
	})
	if err != nil {
		return transport.ScoreResponse{}, err
	}

	return s.ScoreAndSave(ctx, lead.ID, tenantID)
}

// leadAttributes projects the stored lead onto the scoring input.
func leadAttributes(lead repository.Lead) scoring.Attributes {
	return scoring.Attributes{
		CompanySize:       lead.CompanySize,
		Industry:          lead.Industry,
		YearsInBusiness:   lead.YearsInBusiness,
		Location:          lead.Location,
		Source:            lead.Source,
		LastEngagementAt:  lead.LastEngagementAt,
		VisitedPricing:    lead.VisitedPricing,
		RequestedDemo:     lead.RequestedDemo,
		DownloadedContent: lead.DownloadedContent,
		Engagement:        lead.Engagement,
		Budget:            lead.Budget,
		Timeline:          lead.Timeline,
		DecisionMaker:     lead.DecisionMaker,
	}
}
