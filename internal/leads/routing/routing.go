// Package routing maps a total lead score to an outreach routing decision.
// Routing is a pure, total function of the score; no other input affects the
// decision, which keeps it testable independent of scoring internals.
package routing

import "time"

// Action is the outreach channel assigned to a lead.
type Action string

const (
	ActionVoiceCall      Action = "voice_call"
	ActionEmailSMS       Action = "email_sms"
	ActionEmailNurture   Action = "email_nurture"
	ActionMonthlyCheckin Action = "monthly_checkin"
)

// Priority is the urgency bucket assigned to a lead.
type Priority string

const (
	PriorityHot  Priority = "hot"
	PriorityWarm Priority = "warm"
	PriorityCool Priority = "cool"
	PriorityCold Priority = "cold"
)

// Decision is the routing outcome for a scored lead.
type Decision struct {
	Action         Action    `json:"action"`
	Priority       Priority  `json:"priority"`
	NextActionDate time.Time `json:"nextActionDate"`
}

// Thresholds are inclusive lower bounds, evaluated top-down; first match wins.
const (
	hotThreshold  = 80
	warmThreshold = 60
	coolThreshold = 40
)

const (
	hotDelay  = time.Hour
	warmDelay = 4 * time.Hour
	coolDelay = 24 * time.Hour
	coldDelay = 30 * 24 * time.Hour
)

// Route returns the routing decision for a total score.
func Route(total int, now time.Time) Decision {
	switch {
	case total >= hotThreshold:
		return Decision{Action: ActionVoiceCall, Priority: PriorityHot, NextActionDate: now.Add(hotDelay)}
	case total >= warmThreshold:
		return Decision{Action: ActionEmailSMS, Priority: PriorityWarm, NextActionDate: now.Add(warmDelay)}
	case total >= coolThreshold:
		return Decision{Action: ActionEmailNurture, Priority: PriorityCool, NextActionDate: now.Add(coolDelay)}
	default:
		return Decision{Action: ActionMonthlyCheckin, Priority: PriorityCold, NextActionDate: now.Add(coldDelay)}
	}
}
