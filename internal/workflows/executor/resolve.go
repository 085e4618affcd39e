package executor

import (
	"strings"

	leadsrepo "leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/workflows/transport"
)

// MessageContext carries the values available for placeholder substitution.
type MessageContext struct {
	BusinessName  string
	ContactPerson string
	FirstName     string
	ReferralURL   string
	ReviewURL     string
}

// messageContextFor builds the substitution context from the lead record.
func messageContextFor(lead leadsrepo.Lead, referralURL, reviewURL string) MessageContext {
	return MessageContext{
		BusinessName:  lead.BusinessName,
		ContactPerson: lead.ContactPerson,
		FirstName:     lead.FirstName,
		ReferralURL:   referralURL,
		ReviewURL:     reviewURL,
	}
}

// ResolveMessage picks the outgoing message text for an action. Resolution
// order: explicit override in the action config, then the task description,
// then the industry/default template. The winner has its placeholders
// substituted. Returns "" when no source provides text.
func ResolveMessage(cfg transport.ActionConfig, task transport.WorkflowTask, industry, templateName string, msgCtx MessageContext) string {
	template := cfg.Message
	if template == "" {
		template = strings.TrimSpace(task.Description)
	}
	if template == "" {
		template = lookupTemplate(industry, templateName)
	}
	return substitute(template, msgCtx)
}

// substitute replaces the known placeholders. Unknown placeholders are left
// untouched so a typo is visible in the delivered text instead of vanishing.
func substitute(template string, msgCtx MessageContext) string {
	replacer := strings.NewReplacer(
		"{businessName}", msgCtx.BusinessName,
		"{contactPerson}", msgCtx.ContactPerson,
		"{firstName}", msgCtx.FirstName,
		"{referralURL}", msgCtx.ReferralURL,
		"{reviewURL}", msgCtx.ReviewURL,
	)
	return replacer.Replace(template)
}
