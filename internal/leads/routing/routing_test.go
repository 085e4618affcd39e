package routing

import (
	"testing"
	"time"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func TestRoute_Buckets(t *testing.T) {
	cases := []struct {
		total    int
		action   Action
		priority Priority
		delay    time.Duration
	}{
		{100, ActionVoiceCall, PriorityHot, time.Hour},
		{85, ActionVoiceCall, PriorityHot, time.Hour},
		{80, ActionVoiceCall, PriorityHot, time.Hour},
		{79, ActionEmailSMS, PriorityWarm, 4 * time.Hour},
		{65, ActionEmailSMS, PriorityWarm, 4 * time.Hour},
		{60, ActionEmailSMS, PriorityWarm, 4 * time.Hour},
		{59, ActionEmailNurture, PriorityCool, 24 * time.Hour},
		{45, ActionEmailNurture, PriorityCool, 24 * time.Hour},
		{40, ActionEmailNurture, PriorityCool, 24 * time.Hour},
		{39, ActionMonthlyCheckin, PriorityCold, 30 * 24 * time.Hour},
		{0, ActionMonthlyCheckin, PriorityCold, 30 * 24 * time.Hour},
	}

	for _, tc := range cases {
		decision := Route(tc.total, testNow)
		if decision.Action != tc.action {
			t.Fatalf("total=%d: expected action %s, got %s", tc.total, tc.action, decision.Action)
		}
		if decision.Priority != tc.priority {
			t.Fatalf("total=%d: expected priority %s, got %s", tc.total, tc.priority, decision.Priority)
		}
		if want := testNow.Add(tc.delay); !decision.NextActionDate.Equal(want) {
			t.Fatalf("total=%d: expected next action at %s, got %s", tc.total, want, decision.NextActionDate)
		}
	}
}

func TestRoute_CoversAllScores(t *testing.T) {
	valid := map[Action]Priority{
		ActionVoiceCall:      PriorityHot,
		ActionEmailSMS:       PriorityWarm,
		ActionEmailNurture:   PriorityCool,
		ActionMonthlyCheckin: PriorityCold,
	}

	for total := 0; total <= 100; total++ {
		decision := Route(total, testNow)
		priority, ok := valid[decision.Action]
		if !ok {
			t.Fatalf("total=%d: unexpected action %q", total, decision.Action)
		}
		if decision.Priority != priority {
			t.Fatalf("total=%d: action %s paired with priority %s", total, decision.Action, decision.Priority)
		}
	}
}
