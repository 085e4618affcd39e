package executor

import (
	"strings"
	"testing"

	leadsrepo "leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/workflows/transport"
)

func resolveContext() MessageContext {
	return messageContextFor(leadsrepo.Lead{
		BusinessName:  "Blue Harbor Realty",
		ContactPerson: "Dana Whitfield",
		FirstName:     "Dana",
	}, "https://app.example/referral/1", "https://app.example/review/1")
}

func TestResolveMessage_ConfigOverrideWins(t *testing.T) {
	cfg := transport.ActionConfig{Message: "Hello {firstName} from {businessName}"}
	task := transport.WorkflowTask{Description: "ignored description"}

	got := ResolveMessage(cfg, task, "real_estate", "sms", resolveContext())
	if got != "Hello Dana from Blue Harbor Realty" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestResolveMessage_DescriptionBeatsTemplate(t *testing.T) {
	task := transport.WorkflowTask{Description: "Call {contactPerson} about the open house"}

	got := ResolveMessage(transport.ActionConfig{}, task, "real_estate", "sms", resolveContext())
	if got != "Call Dana Whitfield about the open house" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestResolveMessage_FallsBackToIndustryTemplate(t *testing.T) {
	got := ResolveMessage(transport.ActionConfig{}, transport.WorkflowTask{}, "real_estate", "sms", resolveContext())
	if !strings.Contains(got, "property inquiry") {
		t.Fatalf("expected the real estate template, got %q", got)
	}
	if strings.Contains(got, "{businessName}") {
		t.Fatalf("expected placeholders to be substituted, got %q", got)
	}
}

func TestResolveMessage_UnknownIndustryUsesDefaults(t *testing.T) {
	got := ResolveMessage(transport.ActionConfig{}, transport.WorkflowTask{}, "astrology", "sms", resolveContext())
	if got == "" {
		t.Fatal("expected the default template for unknown industries")
	}
	if !strings.Contains(got, "Blue Harbor Realty") {
		t.Fatalf("expected the business name substituted, got %q", got)
	}
}

func TestResolveMessage_NoSourceYieldsEmpty(t *testing.T) {
	got := ResolveMessage(transport.ActionConfig{}, transport.WorkflowTask{}, "real_estate", "no_such_template", resolveContext())
	if got != "" {
		t.Fatalf("expected empty message, got %q", got)
	}
}

func TestSubstitute_LeavesUnknownPlaceholders(t *testing.T) {
	got := substitute("Hi {firstName}, your code is {magicCode}", resolveContext())
	if got != "Hi Dana, your code is {magicCode}" {
		t.Fatalf("unexpected substitution: %q", got)
	}
}
