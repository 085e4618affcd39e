package scoring

import (
	"testing"
	"time"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func TestScore_WarmLeadExample(t *testing.T) {
	attrs := Attributes{
		CompanySize: "50+",
		Industry:    "technology",
		Source:      "inbound",
		Engagement:  EngagementCounters{EmailReplies: 1},
		Budget:      "high",
		Timeline:    "immediate",
	}

	result := Score(attrs, testNow)

	if result.Firmographics != 30 {
		t.Fatalf("expected firmographics 30, got %d", result.Firmographics)
	}
	if result.Intent != 15 {
		t.Fatalf("expected intent 15, got %d", result.Intent)
	}
	if result.Engagement != 10 {
		t.Fatalf("expected engagement 10, got %d", result.Engagement)
	}
	if result.Fit != 10 {
		t.Fatalf("expected fit 10, got %d", result.Fit)
	}
	if result.Total != 65 {
		t.Fatalf("expected total 65, got %d", result.Total)
	}
}

func TestScore_CoolLeadExample(t *testing.T) {
	attrs := Attributes{
		CompanySize: "50+",
		Industry:    "technology",
		Source:      "cold_list",
		Budget:      "high",
		Timeline:    "immediate",
	}

	result := Score(attrs, testNow)

	if result.Intent != 5 {
		t.Fatalf("expected unlisted source intent 5, got %d", result.Intent)
	}
	if result.Engagement != 0 {
		t.Fatalf("expected engagement 0, got %d", result.Engagement)
	}
	if result.Total != 45 {
		t.Fatalf("expected total 45, got %d", result.Total)
	}
}

func TestScore_EmptyAttributesContributeZero(t *testing.T) {
	result := Score(Attributes{}, testNow)

	if result.Firmographics != 0 || result.Engagement != 0 || result.Fit != 0 {
		t.Fatalf("expected zero firmographics/engagement/fit, got %+v", result)
	}
	// An empty source is an unknown source, which still scores the base value.
	if result.Intent != unknownSourceScore {
		t.Fatalf("expected intent %d for empty source, got %d", unknownSourceScore, result.Intent)
	}
	if result.Total != result.Firmographics+result.Intent+result.Engagement+result.Fit {
		t.Fatalf("total does not equal sum of sub-scores: %+v", result)
	}
}

func TestScore_TotalEqualsClampedSumOfSubScores(t *testing.T) {
	years := 0
	last := testNow.Add(-24 * time.Hour)
	attrs := Attributes{
		CompanySize:      "50+",
		Industry:         "technology",
		YearsInBusiness:  &years,
		Source:           "referral",
		LastEngagementAt: &last,
		RequestedDemo:    true,
		Engagement: EngagementCounters{
			EmailReplies:  4,
			SMSReplies:    2,
			CallsAnswered: 1,
		},
		Budget:   "high",
		Timeline: "immediate",
	}

	result := Score(attrs, testNow)

	if result.Firmographics != 40 {
		t.Fatalf("expected firmographics at cap 40, got %d", result.Firmographics)
	}
	if result.Intent != 30 {
		t.Fatalf("expected intent at cap 30, got %d", result.Intent)
	}
	if result.Engagement != 20 {
		t.Fatalf("expected engagement at cap 20, got %d", result.Engagement)
	}
	if result.Fit != 10 {
		t.Fatalf("expected fit at cap 10, got %d", result.Fit)
	}
	if result.Total != 100 {
		t.Fatalf("expected total 100, got %d", result.Total)
	}
}

func TestScore_Idempotent(t *testing.T) {
	last := testNow.Add(-72 * time.Hour)
	attrs := Attributes{
		CompanySize:      "10-49",
		Industry:         "retail",
		Source:           "website",
		LastEngagementAt: &last,
		VisitedPricing:   true,
		Engagement:       EngagementCounters{EmailOpens: 2, EmailClicks: 1},
		Budget:           "medium",
	}

	first := Score(attrs, testNow)
	second := Score(attrs, testNow)

	if first != second {
		t.Fatalf("expected identical results, got %+v then %+v", first, second)
	}
}

func TestScore_EmailRepliesMonotonic(t *testing.T) {
	attrs := Attributes{
		Engagement: EngagementCounters{EmailOpens: 5, SMSReplies: 1, CallsAnswered: 1},
	}

	previous := Score(attrs, testNow).Engagement
	for replies := 1; replies <= 10; replies++ {
		attrs.Engagement.EmailReplies = replies
		current := Score(attrs, testNow).Engagement
		if current < previous {
			t.Fatalf("engagement dropped from %d to %d at %d replies", previous, current, replies)
		}
		if current > maxEngagementContribution {
			t.Fatalf("engagement %d exceeds cap at %d replies", current, replies)
		}
		previous = current
	}
}

func TestScoreWebsiteBehavior_HighestSignalOnly(t *testing.T) {
	attrs := Attributes{
		RequestedDemo:     true,
		VisitedPricing:    true,
		DownloadedContent: true,
	}
	if got := scoreWebsiteBehavior(attrs); got != 10 {
		t.Fatalf("expected demo request to dominate at 10, got %d", got)
	}

	attrs.RequestedDemo = false
	if got := scoreWebsiteBehavior(attrs); got != 7 {
		t.Fatalf("expected pricing visit at 7, got %d", got)
	}

	attrs.VisitedPricing = false
	if got := scoreWebsiteBehavior(attrs); got != 5 {
		t.Fatalf("expected content download at 5, got %d", got)
	}
}

func TestScoreRecency_Buckets(t *testing.T) {
	within7 := testNow.Add(-6 * 24 * time.Hour)
	within30 := testNow.Add(-20 * 24 * time.Hour)
	older := testNow.Add(-90 * 24 * time.Hour)

	if got := scoreRecency(&within7, testNow); got != 5 {
		t.Fatalf("expected 5 for engagement within 7 days, got %d", got)
	}
	if got := scoreRecency(&within30, testNow); got != 3 {
		t.Fatalf("expected 3 for engagement within 30 days, got %d", got)
	}
	if got := scoreRecency(&older, testNow); got != 1 {
		t.Fatalf("expected 1 for older engagement, got %d", got)
	}
	if got := scoreRecency(nil, testNow); got != 0 {
		t.Fatalf("expected 0 for no engagement, got %d", got)
	}
}

func TestScoreBusinessAge_Buckets(t *testing.T) {
	cases := []struct {
		years int
		want  int
	}{
		{0, 10},
		{1, 7},
		{3, 7},
		{4, 5},
		{25, 5},
	}
	for _, tc := range cases {
		years := tc.years
		if got := scoreBusinessAge(&years); got != tc.want {
			t.Fatalf("years=%d: expected %d, got %d", tc.years, tc.want, got)
		}
	}
	if got := scoreBusinessAge(nil); got != 0 {
		t.Fatalf("expected 0 for unknown business age, got %d", got)
	}
}
