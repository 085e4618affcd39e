package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/scoring"
	"leadflow_backend/internal/leads/transport"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

type fakeRepo struct {
	mu      sync.Mutex
	leads   map[uuid.UUID]repository.Lead
	history []repository.ScoreHistoryEntry
	calls   []string

	failUpdateScore map[uuid.UUID]error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		leads:           make(map[uuid.UUID]repository.Lead),
		failUpdateScore: make(map[uuid.UUID]error),
	}
}

func (f *fakeRepo) add(lead repository.Lead) repository.Lead {
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leads[lead.ID] = lead
	return lead
}

func (f *fakeRepo) Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	lead := repository.Lead{
		ID:            uuid.New(),
		TenantID:      params.TenantID,
		BusinessName:  params.BusinessName,
		ContactPerson: params.ContactPerson,
		FirstName:     params.FirstName,
		CompanySize:   params.CompanySize,
		Industry:      params.Industry,
		Source:        params.Source,
		Budget:        params.Budget,
		Timeline:      params.Timeline,
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leads[lead.ID] = lead
	f.calls = append(f.calls, "create")
	return lead, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, leadID, tenantID uuid.UUID) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[leadID]
	if !ok || lead.TenantID != tenantID {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	return lead, nil
}

func (f *fakeRepo) ListForScoring(ctx context.Context, tenantID uuid.UUID, filter repository.Filter) ([]repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.Lead, 0, len(f.leads))
	for _, lead := range f.leads {
		if lead.TenantID != tenantID {
			continue
		}
		if filter.Industry != "" && lead.Industry != filter.Industry {
			continue
		}
		out = append(out, lead)
	}
	return out, nil
}

func (f *fakeRepo) UpdateScore(ctx context.Context, params repository.UpdateScoreParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failUpdateScore[params.LeadID]; ok {
		return err
	}
	lead, ok := f.leads[params.LeadID]
	if !ok {
		return apperr.NotFound("lead not found")
	}
	lead.LeadScore = params.LeadScore
	lead.NextAction = params.NextAction
	date := params.NextActionDate
	lead.NextActionDate = &date
	f.leads[params.LeadID] = lead
	f.calls = append(f.calls, "update_score")
	return nil
}

func (f *fakeRepo) UpdateEngagement(ctx context.Context, params repository.UpdateEngagementParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[params.LeadID]
	if !ok {
		return apperr.NotFound("lead not found")
	}
	lead.Engagement = params.Engagement
	contacted := params.LastContactedAt
	lead.LastContactedAt = &contacted
	lead.LastEngagementAt = &contacted
	f.leads[params.LeadID] = lead
	f.calls = append(f.calls, "update_engagement")
	return nil
}

func (f *fakeRepo) AppendScoreHistory(ctx context.Context, entry repository.ScoreHistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, entry)
	f.calls = append(f.calls, "append_history")
	return nil
}

func (f *fakeRepo) ListScoreHistory(ctx context.Context, leadID, tenantID uuid.UUID) ([]repository.ScoreHistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.ScoreHistoryEntry, 0)
	for _, entry := range f.history {
		if entry.LeadID == leadID && entry.TenantID == tenantID {
			out = append(out, entry)
		}
	}
	return out, nil
}

type fakeBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *fakeBus) Publish(ctx context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *fakeBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *fakeBus) Subscribe(eventName string, handler events.Handler) {}

func (b *fakeBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, event := range b.events {
		out[i] = event.EventName()
	}
	return out
}

type fakeScheduler struct {
	mu    sync.Mutex
	calls []string
}

func (s *fakeScheduler) ScheduleOutreach(ctx context.Context, leadID, tenantID uuid.UUID, action string, runAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, action)
	return nil
}

func newTestService(repo *fakeRepo, bus *fakeBus, scheduler OutreachScheduler) *Service {
	svc := New(repo, scheduler, bus, logger.New("development"))
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestScoreAndSave_PersistsScoreBeforeHistory(t *testing.T) {
	repo := newFakeRepo()
	tenantID := uuid.New()
	lead := repo.add(repository.Lead{
		TenantID:    tenantID,
		CompanySize: "50+",
		Industry:    "technology",
		Source:      "inbound",
		Engagement:  scoring.EngagementCounters{EmailReplies: 1},
		Budget:      "high",
		Timeline:    "immediate",
	})
	bus := &fakeBus{}
	svc := newTestService(repo, bus, nil)

	result, err := svc.ScoreAndSave(context.Background(), lead.ID, tenantID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Breakdown.Total != 65 {
		t.Fatalf("expected total 65, got %d", result.Breakdown.Total)
	}
	if result.NextAction != "email_sms" || result.Priority != "warm" {
		t.Fatalf("expected email_sms/warm, got %s/%s", result.NextAction, result.Priority)
	}
	if want := testNow.Add(4 * time.Hour); !result.NextActionDate.Equal(want) {
		t.Fatalf("expected next action at %s, got %s", want, result.NextActionDate)
	}

	if len(repo.calls) != 2 || repo.calls[0] != "update_score" || repo.calls[1] != "append_history" {
		t.Fatalf("expected lead update before history append, got %v", repo.calls)
	}
	if len(repo.history) != 1 || repo.history[0].Breakdown.Total != 65 {
		t.Fatalf("expected one history entry with total 65, got %+v", repo.history)
	}

	names := bus.names()
	if len(names) != 1 || names[0] != events.EventLeadScored {
		t.Fatalf("expected a single lead scored event, got %v", names)
	}
}

func TestScoreAndSave_UpdateFailureSkipsHistory(t *testing.T) {
	repo := newFakeRepo()
	tenantID := uuid.New()
	lead := repo.add(repository.Lead{TenantID: tenantID})
	repo.failUpdateScore[lead.ID] = errors.New("connection reset")
	svc := newTestService(repo, &fakeBus{}, nil)

	if _, err := svc.ScoreAndSave(context.Background(), lead.ID, tenantID); err == nil {
		t.Fatal("expected error when lead update fails")
	}
	if len(repo.history) != 0 {
		t.Fatalf("expected no history entry after failed update, got %d", len(repo.history))
	}
}

func TestScoreAndSave_SchedulesOutreach(t *testing.T) {
	repo := newFakeRepo()
	tenantID := uuid.New()
	lead := repo.add(repository.Lead{TenantID: tenantID, CompanySize: "50+", Industry: "technology", Source: "referral", Budget: "high", Timeline: "immediate"})
	scheduler := &fakeScheduler{}
	svc := newTestService(repo, &fakeBus{}, scheduler)

	if _, err := svc.ScoreAndSave(context.Background(), lead.ID, tenantID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scheduler.calls) != 1 {
		t.Fatalf("expected one scheduled outreach, got %d", len(scheduler.calls))
	}
}

func TestScoreAndSave_UnknownLead(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeBus{}, nil)

	_, err := svc.ScoreAndSave(context.Background(), uuid.New(), uuid.New())
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBatchScore_IsolatesFailures(t *testing.T) {
	repo := newFakeRepo()
	tenantID := uuid.New()
	const total = 12
	const failing = 3
	for i := 0; i < total; i++ {
		lead := repo.add(repository.Lead{TenantID: tenantID, Industry: "technology"})
		if i < failing {
			repo.failUpdateScore[lead.ID] = errors.New("write timeout")
		}
	}
	svc := newTestService(repo, &fakeBus{}, nil)

	result, err := svc.BatchScore(context.Background(), tenantID, transport.BatchScoreRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Processed != total {
		t.Fatalf("expected %d processed, got %d", total, result.Processed)
	}
	if result.Updated != total-failing {
		t.Fatalf("expected %d updated, got %d", total-failing, result.Updated)
	}
	if result.Errors != failing {
		t.Fatalf("expected %d errors, got %d", failing, result.Errors)
	}
	if len(result.Failures) != failing {
		t.Fatalf("expected %d failure messages, got %d", failing, len(result.Failures))
	}
	if len(repo.history) != total-failing {
		t.Fatalf("expected %d history entries, got %d", total-failing, len(repo.history))
	}
}

func TestBatchScore_FilterByIndustry(t *testing.T) {
	repo := newFakeRepo()
	tenantID := uuid.New()
	repo.add(repository.Lead{TenantID: tenantID, Industry: "technology"})
	repo.add(repository.Lead{TenantID: tenantID, Industry: "technology"})
	repo.add(repository.Lead{TenantID: tenantID, Industry: "retail"})
	svc := newTestService(repo, &fakeBus{}, nil)

	result, err := svc.BatchScore(context.Background(), tenantID, transport.BatchScoreRequest{Industry: "technology"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Processed != 2 {
		t.Fatalf("expected 2 processed, got %d", result.Processed)
	}
}

func TestBatchScore_EmptySet(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeBus{}, nil)

	result, err := svc.BatchScore(context.Background(), uuid.New(), transport.BatchScoreRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Processed != 0 || result.Updated != 0 || result.Errors != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestApplyEvent_BumpsCounterAndRescores(t *testing.T) {
	repo := newFakeRepo()
	tenantID := uuid.New()
	lead := repo.add(repository.Lead{TenantID: tenantID, Engagement: scoring.EngagementCounters{EmailOpens: 2}})
	bus := &fakeBus{}
	svc := newTestService(repo, bus, nil)

	result, err := svc.ApplyEvent(context.Background(), tenantID, transport.EngagementEventRequest{
		LeadID: lead.ID,
		Kind:   "email_opened",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, _ := repo.GetByID(context.Background(), lead.ID, tenantID)
	if updated.Engagement.EmailOpens != 3 {
		t.Fatalf("expected 3 email opens, got %d", updated.Engagement.EmailOpens)
	}
	if updated.LastContactedAt == nil || !updated.LastContactedAt.Equal(testNow) {
		t.Fatalf("expected last contacted at %s, got %v", testNow, updated.LastContactedAt)
	}
	// Three opens with fresh engagement: 3 engagement + 5 recency intent.
	if result.Breakdown.Engagement != 3 {
		t.Fatalf("expected engagement sub-score 3, got %d", result.Breakdown.Engagement)
	}

	names := bus.names()
	if len(names) != 1 || names[0] != events.EventLeadScored {
		t.Fatalf("expected a single scored event, got %v", names)
	}
}

func TestApplyEvent_EachKindBumpsItsCounter(t *testing.T) {
	cases := []struct {
		kind string
		get  func(scoring.EngagementCounters) int
	}{
		{"email_opened", func(c scoring.EngagementCounters) int { return c.EmailOpens }},
		{"email_clicked", func(c scoring.EngagementCounters) int { return c.EmailClicks }},
		{"email_replied", func(c scoring.EngagementCounters) int { return c.EmailReplies }},
		{"sms_replied", func(c scoring.EngagementCounters) int { return c.SMSReplies }},
		{"call_answered", func(c scoring.EngagementCounters) int { return c.CallsAnswered }},
		{"form_submitted", func(c scoring.EngagementCounters) int { return c.FormsSubmitted }},
	}

	for _, tc := range cases {
		repo := newFakeRepo()
		tenantID := uuid.New()
		lead := repo.add(repository.Lead{TenantID: tenantID})
		svc := newTestService(repo, &fakeBus{}, nil)

		_, err := svc.ApplyEvent(context.Background(), tenantID, transport.EngagementEventRequest{LeadID: lead.ID, Kind: tc.kind})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.kind, err)
		}
		updated, _ := repo.GetByID(context.Background(), lead.ID, tenantID)
		if got := tc.get(updated.Engagement); got != 1 {
			t.Fatalf("%s: expected counter 1, got %d", tc.kind, got)
		}
	}
}

func TestApplyEvent_RejectsUnknownKind(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeBus{}, nil)

	_, err := svc.ApplyEvent(context.Background(), uuid.New(), transport.EngagementEventRequest{
		LeadID: uuid.New(),
		Kind:   "carrier_pigeon_arrived",
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreate_ScoresNewLead(t *testing.T) {
	repo := newFakeRepo()
	bus := &fakeBus{}
	svc := newTestService(repo, bus, nil)

	lead, result, err := svc.Create(context.Background(), uuid.New(), transport.CreateLeadRequest{
		BusinessName: "Acme Ventures",
		CompanySize:  "50+",
		Industry:     "technology",
		Source:       "referral",
		Budget:       "high",
		Timeline:     "immediate",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lead.ID == uuid.Nil {
		t.Fatal("expected a lead id")
	}
	if result.Breakdown.Total == 0 {
		t.Fatal("expected a non-zero initial score")
	}

	names := bus.names()
	if len(names) != 2 || names[0] != events.EventLeadCreated || names[1] != events.EventLeadScored {
		t.Fatalf("expected created then scored events, got %v", names)
	}
}
