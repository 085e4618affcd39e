// Package scoring computes lead priority scores from weighted attribute rules.
// Scoring is pure: no I/O, no hidden state, deterministic for a given input
// and reference time.
package scoring

import (
	"strings"
	"time"
)

const (
	// scoreVersion tracks the scoring model for debugging and analysis.
	// Bump this when changing scoring logic significantly.
	ScoreVersion = "2026-v1"

	// Maximum contribution from each factor category.
	// Each sub-score is clamped to its cap even though the listed
	// contributions cannot exceed it by construction.
	maxFirmographicsContribution = 40
	maxIntentContribution        = 30
	maxEngagementContribution    = 20
	maxFitContribution           = 10
)

// EngagementCounters holds per-channel engagement counts for a lead.
// Fixed named fields so scoring cannot silently read a misspelled key.
type EngagementCounters struct {
	EmailOpens     int `json:"emailOpens"`
	EmailClicks    int `json:"emailClicks"`
	EmailReplies   int `json:"emailReplies"`
	SMSReplies     int `json:"smsReplies"`
	CallsAnswered  int `json:"callsAnswered"`
	FormsSubmitted int `json:"formsSubmitted"`
}

// Attributes is the scoring projection of a lead. All fields are optional;
// absent fields contribute zero.
type Attributes struct {
	// Firmographics
	CompanySize     string
	Industry        string
	YearsInBusiness *int
	Location        string

	// Intent
	Source            string
	LastEngagementAt  *time.Time
	VisitedPricing    bool
	RequestedDemo     bool
	DownloadedContent bool

	// Engagement
	Engagement EngagementCounters

	// Fit
	Budget        string
	Timeline      string
	DecisionMaker bool
}

// Breakdown holds the four weighted sub-scores and their clamped sum.
type Breakdown struct {
	Firmographics int `json:"firmographics"`
	Intent        int `json:"intent"`
	Engagement    int `json:"engagement"`
	Fit           int `json:"fit"`
	Total         int `json:"total"`
}

// Score computes the full breakdown for a lead. The reference time is used
// only for engagement recency; callers pass time.Now().UTC() in production.
func Score(attrs Attributes, now time.Time) Breakdown {
	firmographics := clampSub(scoreFirmographics(attrs), maxFirmographicsContribution)
	intent := clampSub(scoreIntent(attrs, now), maxIntentContribution)
	engagement := clampSub(scoreEngagement(attrs.Engagement), maxEngagementContribution)
	fit := clampSub(scoreFit(attrs), maxFitContribution)

	return Breakdown{
		Firmographics: firmographics,
		Intent:        intent,
		Engagement:    engagement,
		Fit:           fit,
		Total:         clampTotal(firmographics + intent + engagement + fit),
	}
}

// highValueIndustries is the fixed set of verticals that score the full
// industry contribution. Any other non-empty industry scores the base value.
var highValueIndustries = map[string]bool{
	"technology":  true,
	"software":    true,
	"saas":        true,
	"finance":     true,
	"healthcare":  true,
	"real_estate": true,
	"legal":       true,
}

func scoreFirmographics(attrs Attributes) int {
	score := scoreCompanySize(attrs.CompanySize)
	score += scoreIndustry(attrs.Industry)
	score += scoreBusinessAge(attrs.YearsInBusiness)
	return score
}

// scoreCompanySize evaluates the company-size bucket.
// Larger organizations carry larger deal sizes.
func scoreCompanySize(bucket string) int {
	switch normalize(bucket) {
	case "50+", "50-plus", "500+", "51-200", "201-500":
		return 20
	case "10-49", "11-50":
		return 15
	case "1-9", "1-10":
		return 10
	default:
		return 0
	}
}

func scoreIndustry(industry string) int {
	normalized := normalize(industry)
	if normalized == "" {
		return 0
	}
	if highValueIndustries[normalized] {
		return 10
	}
	return 5
}

// scoreBusinessAge favors young businesses; they buy services to grow.
func scoreBusinessAge(years *int) int {
	if years == nil {
		return 0
	}
	switch {
	case *years < 1:
		return 10
	case *years <= 3:
		return 7
	default:
		return 5
	}
}

// sourceScoreTable maps source keywords to their quality scores.
// First match wins; unknown or unlisted sources score the base value.
var sourceScoreTable = []struct {
	keywords []string
	score    int
}{
	{[]string{"referral", "inbound"}, 15},
	{[]string{"website", "organic", "demo"}, 12},
	{[]string{"webinar", "event", "partner"}, 10},
	{[]string{"content", "download", "social"}, 8},
	{[]string{"paid", "ads", "google"}, 7},
}

const unknownSourceScore = 5

func scoreIntent(attrs Attributes, now time.Time) int {
	score := scoreSource(attrs.Source)
	score += scoreWebsiteBehavior(attrs)
	score += scoreRecency(attrs.LastEngagementAt, now)
	return score
}

func scoreSource(source string) int {
	normalized := normalize(source)
	if normalized == "" {
		return unknownSourceScore
	}
	for _, entry := range sourceScoreTable {
		if containsAny(normalized, entry.keywords) {
			return entry.score
		}
	}
	return unknownSourceScore
}

// scoreWebsiteBehavior takes the strongest behavioral signal only.
func scoreWebsiteBehavior(attrs Attributes) int {
	switch {
	case attrs.RequestedDemo:
		return 10
	case attrs.VisitedPricing:
		return 7
	case attrs.DownloadedContent:
		return 5
	default:
		return 0
	}
}

func scoreRecency(lastEngagement *time.Time, now time.Time) int {
	if lastEngagement == nil || lastEngagement.IsZero() {
		return 0
	}
	age := now.Sub(*lastEngagement)
	switch {
	case age <= 7*24*time.Hour:
		return 5
	case age <= 30*24*time.Hour:
		return 3
	default:
		return 1
	}
}

// scoreEngagement combines the strongest email signal with flat bonuses for
// SMS replies and answered calls.
func scoreEngagement(counters EngagementCounters) int {
	score := scoreEmailSignal(counters)
	if counters.SMSReplies > 0 {
		score += 5
	}
	if counters.CallsAnswered > 0 {
		score += 5
	}
	return score
}

func scoreEmailSignal(counters EngagementCounters) int {
	switch {
	case counters.EmailReplies > 0:
		return 10
	case counters.EmailClicks >= 3:
		return 8
	case counters.EmailClicks >= 1:
		return 5
	case counters.EmailOpens >= 3:
		return 3
	case counters.EmailOpens >= 1:
		return 1
	default:
		return 0
	}
}

func scoreFit(attrs Attributes) int {
	return scoreBudget(attrs.Budget) + scoreTimeline(attrs.Timeline)
}

func scoreBudget(bucket string) int {
	switch normalize(bucket) {
	case "high":
		return 5
	case "medium":
		return 3
	case "low":
		return 1
	default:
		return 0
	}
}

func scoreTimeline(bucket string) int {
	switch normalize(bucket) {
	case "immediate", "now":
		return 5
	case "30-60_days", "30-60":
		return 3
	case "90+_days", "90+":
		return 1
	default:
		return 0
	}
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func clampSub(value, limit int) int {
	if value < 0 {
		return 0
	}
	if value > limit {
		return limit
	}
	return value
}

func clampTotal(value int) int {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}
