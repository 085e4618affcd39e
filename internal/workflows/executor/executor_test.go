package executor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"leadflow_backend/internal/channels/email"
	"leadflow_backend/internal/events"
	leadsrepo "leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/research"
	"leadflow_backend/internal/workflows/repository"
	"leadflow_backend/internal/workflows/transport"
	"leadflow_backend/platform/logger"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

type fakeRecords struct {
	appointments []repository.CreateAppointmentParams
	referrals    []repository.CreateReferralParams
	followUps    []repository.CreateFollowUpParams
}

func (f *fakeRecords) CreateAppointment(ctx context.Context, params repository.CreateAppointmentParams) (transport.Appointment, error) {
	f.appointments = append(f.appointments, params)
	return transport.Appointment{ID: uuid.New()}, nil
}

func (f *fakeRecords) CreateReferral(ctx context.Context, params repository.CreateReferralParams) (transport.Referral, error) {
	f.referrals = append(f.referrals, params)
	return transport.Referral{ID: uuid.New()}, nil
}

func (f *fakeRecords) CreateFollowUpTask(ctx context.Context, params repository.CreateFollowUpParams) (transport.FollowUpTask, error) {
	f.followUps = append(f.followUps, params)
	return transport.FollowUpTask{ID: uuid.New()}, nil
}

type fakeSMS struct {
	sent  []string
	fail  error
	panic bool
}

func (f *fakeSMS) Send(ctx context.Context, toNumber, body string) (string, error) {
	if f.panic {
		panic("gateway connection lost")
	}
	if f.fail != nil {
		return "", f.fail
	}
	f.sent = append(f.sent, body)
	return "msg-1", nil
}

type fakeVoice struct {
	calls []string
	fail  error
}

func (f *fakeVoice) DefaultAgentRef() string { return "agent-default" }

func (f *fakeVoice) StartCall(ctx context.Context, agentRef, toNumber string, metadata map[string]string) (string, error) {
	if f.fail != nil {
		return "", f.fail
	}
	f.calls = append(f.calls, agentRef)
	return "conv-1", nil
}

type fakeEmail struct {
	sent []email.Message
	fail error
}

func (f *fakeEmail) Send(ctx context.Context, message email.Message) error {
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, message)
	return nil
}

type fakeResearcher struct {
	fail error
}

func (f *fakeResearcher) Research(ctx context.Context, businessName, location, industry string) (research.Report, error) {
	if f.fail != nil {
		return research.Report{}, f.fail
	}
	return research.Report{Summary: "ok"}, nil
}

type fakeArchive struct {
	keys []string
}

func (f *fakeArchive) Store(ctx context.Context, leadID uuid.UUID, report research.Report) (string, error) {
	key := fmt.Sprintf("%s/report.json", leadID)
	f.keys = append(f.keys, key)
	return key, nil
}

type fakeBus struct {
	published []events.Event
}

func (b *fakeBus) Publish(ctx context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *fakeBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *fakeBus) Subscribe(eventName string, handler events.Handler) {}

func newTestExecutor(records RecordStore, opts Options) (*Executor, *fakeBus) {
	bus := &fakeBus{}
	exec := New(records, bus, logger.New("development"), opts)
	exec.now = func() time.Time { return testNow }
	return exec, bus
}

func testLead() leadsrepo.Lead {
	return leadsrepo.Lead{
		ID:            uuid.New(),
		TenantID:      uuid.New(),
		BusinessName:  "Blue Harbor Realty",
		ContactPerson: "Dana Whitfield",
		FirstName:     "Dana",
		Email:         "dana@blueharbor.example",
		Phone:         "+12025550123",
	}
}

func testTask(taskType string, config string) transport.WorkflowTask {
	task := transport.WorkflowTask{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		TaskType: taskType,
	}
	if config != "" {
		task.ActionConfig = []byte(config)
	}
	return task
}

func TestExecuteTask_PartialFailureRunsAllActions(t *testing.T) {
	sms := &fakeSMS{fail: errors.New("gateway timeout")}
	mail := &fakeEmail{}
	exec, _ := newTestExecutor(&fakeRecords{}, Options{SMS: sms, Email: mail})

	task := testTask("outreach", `{"actions":["sms","email"]}`)
	result := exec.ExecuteTask(context.Background(), task, transport.WorkflowInstance{Industry: "real_estate"}, testLead())

	if result.Success {
		t.Fatal("expected task failure when one action fails")
	}
	if len(result.Data.Actions) != 2 {
		t.Fatalf("expected 2 action results, got %d", len(result.Data.Actions))
	}
	if result.Data.Actions[0].Success {
		t.Fatal("expected sms action to fail")
	}
	if !result.Data.Actions[1].Success {
		t.Fatalf("expected email action to succeed, got %+v", result.Data.Actions[1])
	}
	if result.Error != result.Data.Actions[0].Error {
		t.Fatalf("expected task error to be the first failure, got %q", result.Error)
	}
	if len(mail.sent) != 1 {
		t.Fatalf("expected email to be sent despite sms failure, got %d", len(mail.sent))
	}
}

func TestExecuteTask_UnrecognizedTaskTypeIsNoOp(t *testing.T) {
	exec, bus := newTestExecutor(&fakeRecords{}, Options{})

	task := testTask("wait_for_weather", "")
	result := exec.ExecuteTask(context.Background(), task, transport.WorkflowInstance{}, testLead())

	if !result.Success {
		t.Fatalf("expected success for no-op task, got %+v", result)
	}
	if len(result.Data.Actions) != 0 {
		t.Fatalf("expected zero actions, got %d", len(result.Data.Actions))
	}
	if !result.Data.CompletedAt.Equal(testNow) {
		t.Fatalf("expected completion at %s, got %s", testNow, result.Data.CompletedAt)
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected one task executed event, got %d", len(bus.published))
	}
}

func TestExecuteTask_UnknownActionFails(t *testing.T) {
	exec, _ := newTestExecutor(&fakeRecords{}, Options{})

	task := testTask("outreach", `{"actions":["send_carrier_pigeon"]}`)
	result := exec.ExecuteTask(context.Background(), task, transport.WorkflowInstance{Industry: "real_estate"}, testLead())

	if result.Success {
		t.Fatal("expected failure for unknown action")
	}
	if result.Error != "Unknown action: send_carrier_pigeon" {
		t.Fatalf("unexpected error: %q", result.Error)
	}
}

func TestExecuteTask_BuiltInActionsRunForEveryIndustry(t *testing.T) {
	voice := &fakeVoice{}
	sms := &fakeSMS{}
	exec, _ := newTestExecutor(&fakeRecords{}, Options{Voice: voice, SMS: sms, AppBaseURL: "https://app.example"})

	task := testTask("outreach", `{"actions":["request_feedback_voice","send_review_link"]}`)
	for _, industry := range []string{"real_estate", "restaurant", "construction", "astrology"} {
		result := exec.ExecuteTask(context.Background(), task, transport.WorkflowInstance{Industry: industry}, testLead())
		if !result.Success {
			t.Fatalf("industry %q: expected built-in actions to run, got %+v", industry, result)
		}
	}
	if len(voice.calls) != 4 {
		t.Fatalf("expected a feedback call per industry, got %d", len(voice.calls))
	}
	if len(sms.sent) != 4 {
		t.Fatalf("expected a review link per industry, got %d", len(sms.sent))
	}
}

func TestExecuteTask_RestaurantReservationConfirmation(t *testing.T) {
	records := &fakeRecords{}
	sms := &fakeSMS{}
	mail := &fakeEmail{}
	exec, _ := newTestExecutor(records, Options{SMS: sms, Email: mail})

	task := testTask("outreach", `{"actions":["reservation_confirmation"],"partySize":4}`)
	result := exec.ExecuteTask(context.Background(), task, transport.WorkflowInstance{Industry: "restaurant"}, testLead())

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if len(records.appointments) != 1 {
		t.Fatalf("expected one reservation, got %d", len(records.appointments))
	}
	created := records.appointments[0]
	if created.Title != "Reservation for 4 guests" {
		t.Fatalf("unexpected reservation title %q", created.Title)
	}
	if !created.StartTime.Equal(testNow.Add(24 * time.Hour)) {
		t.Fatalf("expected default start a day out, got %s", created.StartTime)
	}
	if !created.EndTime.Equal(created.StartTime.Add(2 * time.Hour)) {
		t.Fatalf("expected two hour reservation, got end %s", created.EndTime)
	}
	if len(sms.sent) != 1 || len(mail.sent) != 1 {
		t.Fatalf("expected confirmation over sms and email, got %d/%d", len(sms.sent), len(mail.sent))
	}

	// The same action name means nothing to another vertical.
	result = exec.ExecuteTask(context.Background(), task, transport.WorkflowInstance{Industry: "construction"}, testLead())
	if result.Success || result.Error != "Unknown action: reservation_confirmation" {
		t.Fatalf("expected unknown action for construction, got %+v", result)
	}
}

func TestExecuteTask_ConstructionVerticalActions(t *testing.T) {
	records := &fakeRecords{}
	sms := &fakeSMS{}
	exec, _ := newTestExecutor(records, Options{SMS: sms})

	task := testTask("outreach", `{"actions":["estimate_generation","project_scheduling","progress_update"],"projectType":"Kitchen Remodel"}`)
	result := exec.ExecuteTask(context.Background(), task, transport.WorkflowInstance{Industry: "construction"}, testLead())

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if len(records.followUps) != 1 || records.followUps[0].Title != "Review estimate: Kitchen Remodel" {
		t.Fatalf("expected estimate follow-up, got %+v", records.followUps)
	}
	if len(records.appointments) != 1 || records.appointments[0].Title != "Kitchen Remodel kickoff" {
		t.Fatalf("expected kickoff appointment, got %+v", records.appointments)
	}
	if !records.appointments[0].StartTime.Equal(testNow.Add(7 * 24 * time.Hour)) {
		t.Fatalf("expected kickoff a week out, got %s", records.appointments[0].StartTime)
	}
	if len(sms.sent) != 1 {
		t.Fatalf("expected one progress update sms, got %d", len(sms.sent))
	}
}

func TestExecuteTask_PanicIsIsolated(t *testing.T) {
	sms := &fakeSMS{panic: true}
	mail := &fakeEmail{}
	exec, _ := newTestExecutor(&fakeRecords{}, Options{SMS: sms, Email: mail})

	task := testTask("outreach", `{"actions":["sms","email"],"message":"hello"}`)
	result := exec.ExecuteTask(context.Background(), task, transport.WorkflowInstance{}, testLead())

	if result.Success {
		t.Fatal("expected failure after panicking action")
	}
	if !result.Data.Actions[1].Success {
		t.Fatal("expected email to run after sms panicked")
	}
	if len(mail.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(mail.sent))
	}
}

func TestExecuteTask_InvalidActionConfig(t *testing.T) {
	exec, _ := newTestExecutor(&fakeRecords{}, Options{})

	task := testTask("outreach", `{"actions":`)
	result := exec.ExecuteTask(context.Background(), task, transport.WorkflowInstance{}, testLead())

	if result.Success {
		t.Fatal("expected failure for malformed action config")
	}
	if len(result.Data.Actions) != 0 {
		t.Fatalf("expected no actions to run, got %d", len(result.Data.Actions))
	}
}

func TestExecuteTask_InfersActionFromTaskType(t *testing.T) {
	voice := &fakeVoice{}
	exec, _ := newTestExecutor(&fakeRecords{}, Options{Voice: voice})

	task := testTask("intro_call", "")
	result := exec.ExecuteTask(context.Background(), task, transport.WorkflowInstance{}, testLead())

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if len(result.Data.Actions) != 1 || result.Data.Actions[0].Action != "voice_call" {
		t.Fatalf("expected an inferred voice_call, got %+v", result.Data.Actions)
	}
	if len(voice.calls) != 1 {
		t.Fatalf("expected one call, got %d", len(voice.calls))
	}
}

func TestExecuteTask_VoiceCallAgentRef(t *testing.T) {
	voice := &fakeVoice{}
	exec, _ := newTestExecutor(&fakeRecords{}, Options{Voice: voice})

	task := testTask("outreach", `{"actions":["voice_call"]}`)
	result := exec.ExecuteTask(context.Background(), task, transport.WorkflowInstance{}, testLead())
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}

	task = testTask("outreach", `{"actions":["voice_call"],"agentRef":"agent-custom"}`)
	result = exec.ExecuteTask(context.Background(), task, transport.WorkflowInstance{}, testLead())
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}

	if len(voice.calls) != 2 || voice.calls[0] != "agent-default" || voice.calls[1] != "agent-custom" {
		t.Fatalf("expected default then custom agent refs, got %v", voice.calls)
	}
}

func TestExecuteTask_MissingPhoneFailsChannelAction(t *testing.T) {
	exec, _ := newTestExecutor(&fakeRecords{}, Options{SMS: &fakeSMS{}})

	lead := testLead()
	lead.Phone = ""
	task := testTask("outreach", `{"actions":["sms"],"message":"hi"}`)
	result := exec.ExecuteTask(context.Background(), task, transport.WorkflowInstance{}, lead)

	if result.Success {
		t.Fatal("expected failure when the lead has no phone number")
	}
	if result.Error != "lead has no phone number" {
		t.Fatalf("unexpected error: %q", result.Error)
	}
}

func TestExecuteTask_CalendarCreatesAppointment(t *testing.T) {
	records := &fakeRecords{}
	exec, _ := newTestExecutor(records, Options{})

	start := testNow.Add(48 * time.Hour)
	task := testTask("schedule_meeting", fmt.Sprintf(`{"actions":["calendar"],"appointmentStart":%q,"location":"Main office"}`, start.Format(time.RFC3339)))
	lead := testLead()
	result := exec.ExecuteTask(context.Background(), task, transport.WorkflowInstance{}, lead)

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if len(records.appointments) != 1 {
		t.Fatalf("expected one appointment, got %d", len(records.appointments))
	}
	created := records.appointments[0]
	if created.Title != "Meeting with Blue Harbor Realty" {
		t.Fatalf("unexpected appointment title %q", created.Title)
	}
	if !created.EndTime.Equal(start.Add(time.Hour)) {
		t.Fatalf("expected default one hour duration, got end %s", created.EndTime)
	}
}

func TestExecuteTask_CreateReferral(t *testing.T) {
	records := &fakeRecords{}
	exec, _ := newTestExecutor(records, Options{})

	task := testTask("create_referral", `{"actions":["create_referral"],"referredName":"Sam Okafor","referredPhone":"+12025550188"}`)
	result := exec.ExecuteTask(context.Background(), task, transport.WorkflowInstance{}, testLead())

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if len(records.referrals) != 1 || records.referrals[0].ReferredName != "Sam Okafor" {
		t.Fatalf("expected referral for Sam Okafor, got %+v", records.referrals)
	}
}

func TestExecuteTask_ResearchArchivesReport(t *testing.T) {
	archive := &fakeArchive{}
	exec, _ := newTestExecutor(&fakeRecords{}, Options{Researcher: &fakeResearcher{}, Archive: archive})

	task := testTask("lead_research", "")
	result := exec.ExecuteTask(context.Background(), task, transport.WorkflowInstance{}, testLead())

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if len(archive.keys) != 1 {
		t.Fatalf("expected one archived report, got %d", len(archive.keys))
	}
}

func TestExecuteTask_TaskActionCreatesFollowUp(t *testing.T) {
	records := &fakeRecords{}
	exec, _ := newTestExecutor(records, Options{})

	task := testTask("manual", `{"actions":["task"],"message":"Check back on the renovation quote."}`)
	task.Name = "Renovation quote follow-up"
	result := exec.ExecuteTask(context.Background(), task, transport.WorkflowInstance{}, testLead())

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if len(records.followUps) != 1 {
		t.Fatalf("expected one follow-up, got %d", len(records.followUps))
	}
	if records.followUps[0].Title != "Renovation quote follow-up" {
		t.Fatalf("unexpected follow-up title: %q", records.followUps[0].Title)
	}
	if records.followUps[0].Description != "Check back on the renovation quote." {
		t.Fatalf("unexpected follow-up description: %q", records.followUps[0].Description)
	}
}
