package executor

import "testing"

func TestInferActionFromTaskType(t *testing.T) {
	cases := []struct {
		taskType string
		want     Action
		ok       bool
	}{
		{"intro_call", ActionVoiceCall, true},
		{"Voice Outreach", ActionVoiceCall, true},
		{"send_sms", ActionSMS, true},
		{"text_followup", ActionSMS, true},
		{"email_nurture", ActionEmail, true},
		{"mail_campaign", ActionEmail, true},
		{"lead_research", ActionLeadResearch, true},
		{"enrich_profile", ActionLeadResearch, true},
		{"calendar_invite", ActionCalendar, true},
		{"book_appointment", ActionCalendar, true},
		{"send_review_link", ActionSendReviewLink, true},
		{"send_referral_link", ActionSendReferralLink, true},
		{"notify_referral_converted", ActionNotifyReferralConvert, true},
		{"create_referral", ActionCreateReferral, true},
		// The call and voice keywords win over later rules.
		{"schedule_call", ActionVoiceCall, true},
		{"schedule a call", ActionVoiceCall, true},
		{"request_feedback_voice", ActionVoiceCall, true},
		{"wait_for_weather", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := InferActionFromTaskType(tc.taskType)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("taskType=%q: expected (%q, %t), got (%q, %t)", tc.taskType, tc.want, tc.ok, got, ok)
		}
	}
}

func TestParseAction(t *testing.T) {
	for _, valid := range []string{
		"voice_call", "sms", "email", "task", "lead_research", "calendar",
		"send_referral_link", "create_referral", "notify_referral_converted",
		"request_feedback_voice", "send_review_link",
	} {
		if _, ok := ParseAction(valid); !ok {
			t.Fatalf("expected %q to parse", valid)
		}
	}
	if _, ok := ParseAction("send_fax"); ok {
		t.Fatal("expected send_fax to be rejected")
	}
}

func TestIndustryHandlerFor(t *testing.T) {
	if _, ok := industryHandlerFor("restaurant", "reservation_confirmation"); !ok {
		t.Fatal("expected reservation confirmation handler for restaurants")
	}
	if _, ok := industryHandlerFor("construction", "estimate_generation"); !ok {
		t.Fatal("expected estimate handler for construction")
	}
	if _, ok := industryHandlerFor("construction", "reservation_confirmation"); ok {
		t.Fatal("did not expect reservation handler for construction")
	}
	if _, ok := industryHandlerFor("real_estate", "cma_generation"); ok {
		t.Fatal("did not expect a vertical table for real estate")
	}
	if _, ok := industryHandlerFor("astrology", "birthday_greeting"); ok {
		t.Fatal("did not expect handlers for unknown industries")
	}
}
