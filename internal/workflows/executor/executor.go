package executor

import (
	"context"
	"encoding/json"
	"fmt"
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

// VoiceCaller places outbound calls.
type VoiceCaller interface {
	DefaultAgentRef() string
	StartCall(ctx context.Context, agentRef, toNumber string, metadata map[string]string) (string, error)
}

// SMSSender delivers text messages.
type SMSSender interface {
	Send(ctx context.Context, toNumber, body string) (string, error)
}

// EmailSender delivers email.
type EmailSender interface {
	Send(ctx context.Context, message email.Message) error
}

// Researcher runs lead enrichment.
type Researcher interface {
	Research(ctx context.Context, businessName, location, industry string) (research.Report, error)
}

// ReportArchiver stores enrichment reports.
type ReportArchiver interface {
	Store(ctx context.Context, leadID uuid.UUID, report research.Report) (string, error)
}

// RecordStore persists the records some actions create.
type RecordStore interface {
	CreateAppointment(ctx context.Context, params repository.CreateAppointmentParams) (transport.Appointment, error)
	CreateReferral(ctx context.Context, params repository.CreateReferralParams) (transport.Referral, error)
	CreateFollowUpTask(ctx context.Context, params repository.CreateFollowUpParams) (transport.FollowUpTask, error)
}

// Executor dispatches a task's actions to the outreach channels. Channel
// dependencies may be nil; actions needing an absent channel fail
// individually without aborting the rest of the task.
type Executor struct {
	records    RecordStore
	voice      VoiceCaller
	sms        SMSSender
	email      EmailSender
	researcher Researcher
	archive    ReportArchiver
	bus        events.Bus
	appBaseURL string
	log        *logger.Logger
	now        func() time.Time
}

// Options carries the optional channel dependencies for an Executor.
type Options struct {
	Voice      VoiceCaller
	SMS        SMSSender
	Email      EmailSender
	Researcher Researcher
	Archive    ReportArchiver
	AppBaseURL string
}

// New creates a task executor.
func New(records RecordStore, bus events.Bus, log *logger.Logger, opts Options) *Executor {
	return &Executor{
		records:    records,
		voice:      opts.Voice,
		sms:        opts.SMS,
		email:      opts.Email,
		researcher: opts.Researcher,
		archive:    opts.Archive,
		bus:        bus,
		appBaseURL: opts.AppBaseURL,
		log:        log,
		now:        time.Now,
	}
}

// ExecuteTask runs every action a task calls for and returns the aggregate
// result. Actions run in order; a failing action is recorded and the loop
// continues. The task succeeds only when every action succeeded, and a task
// with no recognizable actions succeeds as a no-op.
func (e *Executor) ExecuteTask(ctx context.Context, task transport.WorkflowTask, instance transport.WorkflowInstance, lead leadsrepo.Lead) transport.TaskResult {
	result := transport.TaskResult{Success: true}

	var cfg transport.ActionConfig
	if len(task.ActionConfig) > 0 {
		if err := json.Unmarshal(task.ActionConfig, &cfg); err != nil {
			result.Success = false
			result.Error = fmt.Sprintf("invalid action config: %v", err)
			result.Data.CompletedAt = e.now().UTC()
			e.finish(ctx, task, result)
			return result
		}
	}

	actions := cfg.Actions
	if len(actions) == 0 {
		if inferred, ok := InferActionFromTaskType(task.TaskType); ok {
			actions = []string{string(inferred)}
		}
	}

	for _, raw := range actions {
		actionResult := e.runAction(ctx, raw, cfg, task, instance, lead)
		result.Data.Actions = append(result.Data.Actions, actionResult)
		if !actionResult.Success {
			result.Success = false
			if result.Error == "" {
				result.Error = actionResult.Error
			}
		}
	}

	result.Data.CompletedAt = e.now().UTC()
	e.finish(ctx, task, result)
	return result
}

func (e *Executor) finish(ctx context.Context, task transport.WorkflowTask, result transport.TaskResult) {
	e.log.TaskExecuted(task.ID.String(), len(result.Data.Actions), result.Success)
	e.bus.Publish(ctx, events.TaskExecuted{
		BaseEvent: events.NewBaseEvent(),
		TaskID:    task.ID,
		TenantID:  task.TenantID,
		Success:   result.Success,
		Actions:   len(result.Data.Actions),
	})
}

// runAction executes one action, converting panics and errors into a failed
// ActionResult. Built-in actions dispatch for every industry; names outside
// the built-in set fall through to the instance's vertical action table.
func (e *Executor) runAction(ctx context.Context, raw string, cfg transport.ActionConfig, task transport.WorkflowTask, instance transport.WorkflowInstance, lead leadsrepo.Lead) (result transport.ActionResult) {
	result = transport.ActionResult{Action: raw}

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.Error = fmt.Sprintf("action panicked: %v", r)
			e.log.Error("action panicked", "task_id", task.ID, "action", raw, "panic", r)
		}
	}()

	msgCtx := messageContextFor(lead, e.referralURL(lead.ID), e.reviewURL(lead.ID))

	var detail string
	var err error
	if action, ok := ParseAction(raw); ok {
		detail, err = e.dispatch(ctx, action, cfg, task, instance, lead, msgCtx)
	} else if handler, ok := industryHandlerFor(instance.Industry, raw); ok {
		detail, err = handler(e, ctx, cfg, task, instance, lead, msgCtx)
	} else {
		result.Error = fmt.Sprintf("Unknown action: %s", raw)
		return result
	}

	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Success = true
	result.Detail = detail
	return result
}

func (e *Executor) dispatch(ctx context.Context, action Action, cfg transport.ActionConfig, task transport.WorkflowTask, instance transport.WorkflowInstance, lead leadsrepo.Lead, msgCtx MessageContext) (string, error) {
	switch action {
	case ActionVoiceCall:
		return e.startCall(ctx, cfg.AgentRef, task, lead, "outreach")

	case ActionSMS:
		body := ResolveMessage(cfg, task, instance.Industry, "sms", msgCtx)
		return e.sendSMS(ctx, lead, body)

	case ActionEmail:
		return e.sendEmail(ctx, cfg, task, instance, lead, msgCtx)

	case ActionTask:
		return e.createFollowUp(ctx, cfg, task, instance, lead, msgCtx)

	case ActionLeadResearch:
		return e.runResearch(ctx, lead)

	case ActionCalendar:
		return e.createAppointment(ctx, cfg, task, lead, msgCtx)

	case ActionSendReferralLink:
		body := resolveTemplateOnly(cfg, instance.Industry, "referral_link", msgCtx)
		return e.sendSMS(ctx, lead, body)

	case ActionCreateReferral:
		return e.createReferral(ctx, cfg, task, lead)

	case ActionNotifyReferralConvert:
		body := resolveTemplateOnly(cfg, instance.Industry, "referral_converted", msgCtx)
		return e.sendSMS(ctx, lead, body)

	case ActionRequestFeedbackVoice:
		return e.startCall(ctx, cfg.AgentRef, task, lead, "feedback")

	case ActionSendReviewLink:
		body := resolveTemplateOnly(cfg, instance.Industry, "review_link", msgCtx)
		return e.sendSMS(ctx, lead, body)
	}

	return "", fmt.Errorf("Unknown action: %s", action)
}

// resolveTemplateOnly is ResolveMessage without the task-description
// fallback, for link actions where the description would rarely contain the
// link itself.
func resolveTemplateOnly(cfg transport.ActionConfig, industry, templateName string, msgCtx MessageContext) string {
	if cfg.Message != "" {
		return substitute(cfg.Message, msgCtx)
	}
	return substitute(lookupTemplate(industry, templateName), msgCtx)
}

func (e *Executor) startCall(ctx context.Context, agentRef string, task transport.WorkflowTask, lead leadsrepo.Lead, purpose string) (string, error) {
	if e.voice == nil {
		return "", fmt.Errorf("voice channel not configured")
	}
	if lead.Phone == "" {
		return "", fmt.Errorf("lead has no phone number")
	}
	if agentRef == "" {
		agentRef = e.voice.DefaultAgentRef()
	}
	conversationID, err := e.voice.StartCall(ctx, agentRef, lead.Phone, map[string]string{
		"leadId":  lead.ID.String(),
		"taskId":  task.ID.String(),
		"purpose": purpose,
	})
	if err != nil {
		return "", fmt.Errorf("start call: %w", err)
	}
	return fmt.Sprintf("conversation %s", conversationID), nil
}

func (e *Executor) sendSMS(ctx context.Context, lead leadsrepo.Lead, body string) (string, error) {
	if e.sms == nil {
		return "", fmt.Errorf("sms channel not configured")
	}
	if lead.Phone == "" {
		return "", fmt.Errorf("lead has no phone number")
	}
	if body == "" {
		return "", fmt.Errorf("no message to send")
	}
	messageID, err := e.sms.Send(ctx, lead.Phone, body)
	if err != nil {
		return "", fmt.Errorf("send sms: %w", err)
	}
	return fmt.Sprintf("message %s", messageID), nil
}

func (e *Executor) sendEmail(ctx context.Context, cfg transport.ActionConfig, task transport.WorkflowTask, instance transport.WorkflowInstance, lead leadsrepo.Lead, msgCtx MessageContext) (string, error) {
	if e.email == nil {
		return "", fmt.Errorf("email channel not configured")
	}
	if lead.Email == "" {
		return "", fmt.Errorf("lead has no email address")
	}

	subject := cfg.EmailSubject
	if subject == "" {
		subject = lookupTemplate(instance.Industry, "email_subject")
	}
	subject = substitute(subject, msgCtx)

	body := ResolveMessage(cfg, task, instance.Industry, "email_body", msgCtx)
	if body == "" {
		return "", fmt.Errorf("no message to send")
	}

	err := e.email.Send(ctx, email.Message{
		To:       lead.Email,
		Subject:  subject,
		HTMLBody: body,
	})
	if err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}
	return fmt.Sprintf("email to %s", lead.Email), nil
}

func (e *Executor) runResearch(ctx context.Context, lead leadsrepo.Lead) (string, error) {
	if e.researcher == nil {
		return "", fmt.Errorf("research provider not configured")
	}
	report, err := e.researcher.Research(ctx, lead.BusinessName, lead.Location, lead.Industry)
	if err != nil {
		return "", fmt.Errorf("research lead: %w", err)
	}
	if e.archive == nil {
		return "research completed", nil
	}
	key, err := e.archive.Store(ctx, lead.ID, report)
	if err != nil {
		return "", fmt.Errorf("archive report: %w", err)
	}
	return fmt.Sprintf("report %s", key), nil
}

func (e *Executor) createFollowUp(ctx context.Context, cfg transport.ActionConfig, task transport.WorkflowTask, instance transport.WorkflowInstance, lead leadsrepo.Lead, msgCtx MessageContext) (string, error) {
	title := task.Name
	if title == "" {
		title = substitute("Follow up with {businessName}", msgCtx)
	}
	followUp, err := e.records.CreateFollowUpTask(ctx, repository.CreateFollowUpParams{
		TenantID:    task.TenantID,
		LeadID:      lead.ID,
		Title:       title,
		Description: ResolveMessage(cfg, task, instance.Industry, "follow_up", msgCtx),
	})
	if err != nil {
		return "", fmt.Errorf("create follow-up: %w", err)
	}
	return fmt.Sprintf("follow-up %s", followUp.ID), nil
}

func (e *Executor) createAppointment(ctx context.Context, cfg transport.ActionConfig, task transport.WorkflowTask, lead leadsrepo.Lead, msgCtx MessageContext) (string, error) {
	if cfg.AppointmentStart == nil {
		return "", fmt.Errorf("appointment start time required")
	}
	start := *cfg.AppointmentStart
	end := start.Add(time.Hour)
	if cfg.AppointmentEnd != nil {
		end = *cfg.AppointmentEnd
	}
	title := cfg.AppointmentTitle
	if title == "" {
		title = substitute("Meeting with {businessName}", msgCtx)
	}

	appointment, err := e.records.CreateAppointment(ctx, repository.CreateAppointmentParams{
		TenantID:  task.TenantID,
		LeadID:    lead.ID,
		Title:     title,
		StartTime: start,
		EndTime:   end,
		Location:  cfg.Location,
	})
	if err != nil {
		return "", fmt.Errorf("create appointment: %w", err)
	}
	return fmt.Sprintf("appointment %s", appointment.ID), nil
}

func (e *Executor) createReferral(ctx context.Context, cfg transport.ActionConfig, task transport.WorkflowTask, lead leadsrepo.Lead) (string, error) {
	if cfg.ReferredName == "" {
		return "", fmt.Errorf("referral name required")
	}
	referral, err := e.records.CreateReferral(ctx, repository.CreateReferralParams{
		TenantID:      task.TenantID,
		LeadID:        lead.ID,
		ReferredName:  cfg.ReferredName,
		ReferredPhone: cfg.ReferredPhone,
		ReferredEmail: cfg.ReferredEmail,
	})
	if err != nil {
		return "", fmt.Errorf("create referral: %w", err)
	}
	return fmt.Sprintf("referral %s", referral.ID), nil
}

func (e *Executor) referralURL(leadID uuid.UUID) string {
	return fmt.Sprintf("%s/referral/%s", e.appBaseURL, leadID)
}

func (e *Executor) reviewURL(leadID uuid.UUID) string {
	return fmt.Sprintf("%s/review/%s", e.appBaseURL, leadID)
}
