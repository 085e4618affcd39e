package executor

import (
	"context"
	"fmt"
	"time"

	leadsrepo "leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/workflows/repository"
	"leadflow_backend/internal/workflows/transport"
)

// Industry selects the vertical action table a workflow can fall through to
// when an action name is not one of the shared built-ins. The set is closed;
// workflows for an unlisted industry dispatch built-ins only.
type Industry string

const (
	IndustryRealEstate   Industry = "real_estate"
	IndustryRestaurant   Industry = "restaurant"
	IndustryConstruction Industry = "construction"
)

// ParseIndustry validates an industry name against the closed set.
func ParseIndustry(raw string) (Industry, bool) {
	switch industry := Industry(raw); industry {
	case IndustryRealEstate, IndustryRestaurant, IndustryConstruction:
		return industry, true
	default:
		return "", false
	}
}

// industryHandler runs one vertical-specific action.
type industryHandler func(e *Executor, ctx context.Context, cfg transport.ActionConfig, task transport.WorkflowTask, instance transport.WorkflowInstance, lead leadsrepo.Lead, msgCtx MessageContext) (string, error)

// industryHandlers holds the vertical action tables. Real estate has no
// entry: its actions are the shared built-ins.
var industryHandlers = map[Industry]map[string]industryHandler{
	IndustryRestaurant: {
		"reservation_confirmation":   (*Executor).confirmReservation,
		"reservation_reminder":       smsTemplateHandler("reservation_reminder"),
		"customer_research":          (*Executor).researchCustomer,
		"feedback_request":           smsTemplateHandler("feedback_request"),
		"special_offer_notification": smsTemplateHandler("special_offer"),
		"birthday_greeting":          smsTemplateHandler("birthday_greeting"),
	},
	IndustryConstruction: {
		"estimate_generation":   projectFollowUpHandler("Review estimate: %s", "estimate_note"),
		"project_scheduling":    appointmentHandler("%s kickoff", 7*24*time.Hour),
		"material_ordering":     projectFollowUpHandler("Order materials: %s", "material_note"),
		"inspection_scheduling": appointmentHandler("Inspection: %s", 7*24*time.Hour),
		"progress_update":       smsTemplateHandler("progress_update"),
		"change_order":          projectFollowUpHandler("Review change order: %s", "change_order_note"),
		"project_completion":    smsTemplateHandler("project_completion"),
	},
}

// industryHandlerFor looks up a vertical handler for a raw action name.
func industryHandlerFor(rawIndustry, rawAction string) (industryHandler, bool) {
	industry, ok := ParseIndustry(rawIndustry)
	if !ok {
		return nil, false
	}
	handler, ok := industryHandlers[industry][rawAction]
	return handler, ok
}

// smsTemplateHandler texts the lead the named template, honoring the config
// message override.
func smsTemplateHandler(templateName string) industryHandler {
	return func(e *Executor, ctx context.Context, cfg transport.ActionConfig, task transport.WorkflowTask, instance transport.WorkflowInstance, lead leadsrepo.Lead, msgCtx MessageContext) (string, error) {
		body := resolveTemplateOnly(cfg, instance.Industry, templateName, msgCtx)
		return e.sendSMS(ctx, lead, body)
	}
}

// projectFollowUpHandler records a to-do named after the project.
func projectFollowUpHandler(titleFormat, templateName string) industryHandler {
	return func(e *Executor, ctx context.Context, cfg transport.ActionConfig, task transport.WorkflowTask, instance transport.WorkflowInstance, lead leadsrepo.Lead, msgCtx MessageContext) (string, error) {
		followUp, err := e.records.CreateFollowUpTask(ctx, repository.CreateFollowUpParams{
			TenantID:    task.TenantID,
			LeadID:      lead.ID,
			Title:       fmt.Sprintf(titleFormat, projectTypeOf(cfg)),
			Description: ResolveMessage(cfg, task, instance.Industry, templateName, msgCtx),
		})
		if err != nil {
			return "", fmt.Errorf("create follow-up: %w", err)
		}
		return fmt.Sprintf("follow-up %s", followUp.ID), nil
	}
}

// appointmentHandler books an appointment, defaulting the start when the
// config carries none.
func appointmentHandler(titleFormat string, defaultLeadTime time.Duration) industryHandler {
	return func(e *Executor, ctx context.Context, cfg transport.ActionConfig, task transport.WorkflowTask, instance transport.WorkflowInstance, lead leadsrepo.Lead, msgCtx MessageContext) (string, error) {
		start := e.now().UTC().Add(defaultLeadTime)
		if cfg.AppointmentStart != nil {
			start = *cfg.AppointmentStart
		}
		end := start.Add(time.Hour)
		if cfg.AppointmentEnd != nil {
			end = *cfg.AppointmentEnd
		}
		title := cfg.AppointmentTitle
		if title == "" {
			title = fmt.Sprintf(titleFormat, projectTypeOf(cfg))
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
}

func projectTypeOf(cfg transport.ActionConfig) string {
	if cfg.ProjectType != "" {
		return cfg.ProjectType
	}
	return "Construction Project"
}

// confirmReservation books the table and tells the guest. The reservation
// defaults to tomorrow for two when the config leaves date and party size
// out. Confirmation goes over every channel the lead has an address for.
func (e *Executor) confirmReservation(ctx context.Context, cfg transport.ActionConfig, task transport.WorkflowTask, instance transport.WorkflowInstance, lead leadsrepo.Lead, msgCtx MessageContext) (string, error) {
	start := e.now().UTC().Add(24 * time.Hour)
	if cfg.AppointmentStart != nil {
		start = *cfg.AppointmentStart
	}
	end := start.Add(2 * time.Hour)
	if cfg.AppointmentEnd != nil {
		end = *cfg.AppointmentEnd
	}
	partySize := cfg.PartySize
	if partySize <= 0 {
		partySize = 2
	}

	appointment, err := e.records.CreateAppointment(ctx, repository.CreateAppointmentParams{
		TenantID:  task.TenantID,
		LeadID:    lead.ID,
		Title:     fmt.Sprintf("Reservation for %d guests", partySize),
		StartTime: start,
		EndTime:   end,
		Location:  cfg.Location,
	})
	if err != nil {
		return "", fmt.Errorf("create reservation: %w", err)
	}

	body := resolveTemplateOnly(cfg, instance.Industry, "reservation_confirmation", msgCtx)
	if lead.Phone != "" && e.sms != nil {
		if _, err := e.sendSMS(ctx, lead, body); err != nil {
			return "", err
		}
	}
	if lead.Email != "" && e.email != nil {
		confirmCfg := cfg
		confirmCfg.Message = body
		if confirmCfg.EmailSubject == "" {
			confirmCfg.EmailSubject = "Reservation Confirmed"
		}
		if _, err := e.sendEmail(ctx, confirmCfg, task, instance, lead, msgCtx); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("reservation %s", appointment.ID), nil
}

func (e *Executor) researchCustomer(ctx context.Context, cfg transport.ActionConfig, task transport.WorkflowTask, instance transport.WorkflowInstance, lead leadsrepo.Lead, msgCtx MessageContext) (string, error) {
	return e.runResearch(ctx, lead)
}
