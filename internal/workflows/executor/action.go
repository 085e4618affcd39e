// Package executor runs a workflow task's outreach actions.
package executor

import "strings"

// Action is one dispatchable unit of outreach work. The set is closed:
// anything outside it is reported as an unknown action, never silently
// skipped.
type Action string

const (
	ActionVoiceCall             Action = "voice_call"
	ActionSMS                   Action = "sms"
	ActionEmail                 Action = "email"
	ActionTask                  Action = "task"
	ActionLeadResearch          Action = "lead_research"
	ActionCalendar              Action = "calendar"
	ActionSendReferralLink      Action = "send_referral_link"
	ActionCreateReferral        Action = "create_referral"
	ActionNotifyReferralConvert Action = "notify_referral_converted"
	ActionRequestFeedbackVoice  Action = "request_feedback_voice"
	ActionSendReviewLink        Action = "send_review_link"
)

// ParseAction validates an action name against the closed set.
func ParseAction(raw string) (Action, bool) {
	switch action := Action(raw); action {
	case ActionVoiceCall, ActionSMS, ActionEmail, ActionTask, ActionLeadResearch, ActionCalendar,
		ActionSendReferralLink, ActionCreateReferral, ActionNotifyReferralConvert,
		ActionRequestFeedbackVoice, ActionSendReviewLink:
		return action, true
	default:
		return "", false
	}
}

// inferRule maps task-type keywords to an action. All keywords must appear.
type inferRule struct {
	keywords []string
	action   Action
}

// Evaluated top to bottom, first match wins. The channel keywords come
// before the compound referral and review rules, so a task type like
// "schedule_call" resolves to a call rather than a calendar entry.
var inferRules = []inferRule{
	{[]string{"call"}, ActionVoiceCall},
	{[]string{"voice"}, ActionVoiceCall},
	{[]string{"sms"}, ActionSMS},
	{[]string{"text"}, ActionSMS},
	{[]string{"email"}, ActionEmail},
	{[]string{"mail"}, ActionEmail},
	{[]string{"research"}, ActionLeadResearch},
	{[]string{"enrich"}, ActionLeadResearch},
	{[]string{"calendar"}, ActionCalendar},
	{[]string{"appointment"}, ActionCalendar},
	{[]string{"schedule"}, ActionCalendar},
	{[]string{"referral", "link"}, ActionSendReferralLink},
	{[]string{"create", "referral"}, ActionCreateReferral},
	{[]string{"notify", "referral"}, ActionNotifyReferralConvert},
	{[]string{"request", "feedback", "voice"}, ActionRequestFeedbackVoice},
	{[]string{"review", "link"}, ActionSendReviewLink},
}

// InferActionFromTaskType derives an action from a free-form task type when
// the task carries no explicit action list. Returns false when nothing
// matches; such tasks run as a no-op.
func InferActionFromTaskType(taskType string) (Action, bool) {
	normalized := strings.ToLower(taskType)
	for _, rule := range inferRules {
		matched := true
		for _, keyword := range rule.keywords {
			if !strings.Contains(normalized, keyword) {
				matched = false
				break
			}
		}
		if matched {
			return rule.action, true
		}
	}
	return "", false
}
