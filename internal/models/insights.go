package models

import "time"

// InsightSource tags whether an insight came from the generative model or
// from the deterministic fallback. The two are never merged.
type InsightSource string

const (
	SourceGemini   InsightSource = "gemini"
	SourceFallback InsightSource = "fallback"
)

// ResponseBucket is one slice of the RSVP response distribution. The
// "invited" status is relabeled "pending" for display.
type ResponseBucket struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// DensityBucket is one day of the schedule density histogram.
type DensityBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// RiskEntry is one high-risk event surfaced by the conflict aggregator.
type RiskEntry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	StartsAt  time.Time `json:"starts_at"`
	Location  string    `json:"location"`
	RiskLabel string    `json:"risk_label"`
}

// AnalyticsOverview is the derived analytics snapshot, recomputed per
// request from event/invitation state.
type AnalyticsOverview struct {
	UpcomingCount        int                `json:"upcoming_count"`
	OwnedCount           int                `json:"owned_count"`
	InvitedCount         int                `json:"invited_count"`
	ConflictCount        int                `json:"conflict_count"`
	ResponseDistribution []ResponseBucket   `json:"response_distribution"`
	ScheduleDensity      []DensityBucket    `json:"schedule_density"`
	HighRiskEvents       []RiskEntry        `json:"high_risk_events"`
	RecentActivity       []ActivityLogEntry `json:"recent_activity"`
}

// RiskyInvitee flags one invitee whose attendance is at risk.
type RiskyInvitee struct {
	Email  string `json:"email" validate:"required,email"`
	Reason string `json:"reason" validate:"required,min=3,max=220"`
}

// TimeWindow is a suggested alternative slot for a draft event.
type TimeWindow struct {
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required"`
	Reason   string    `json:"reason" validate:"required,min=3,max=220"`
}

// SchedulingInsight is the scheduling-assistant response payload. The
// validate tags are the structural contract any externally generated
// payload must satisfy before use.
type SchedulingInsight struct {
	Summary              string         `json:"summary" validate:"required,min=10,max=900"`
	ConflictLevel        string         `json:"conflict_level" validate:"required,oneof=low medium high"`
	ConflictCount        int            `json:"conflict_count" validate:"gte=0"`
	RiskyInvitees        []RiskyInvitee `json:"risky_invitees" validate:"dive"`
	SuggestedTimeWindows []TimeWindow   `json:"suggested_time_windows" validate:"dive"`
	SuggestedSummary     string         `json:"suggested_summary,omitempty" validate:"max=400"`
	AgendaBullets        []string       `json:"agenda_bullets,omitempty" validate:"max=6,dive,min=3,max=140"`
	Source               InsightSource  `json:"source"`
}

// DashboardInsight is the dashboard business-insight response payload.
type DashboardInsight struct {
	Headline        string        `json:"headline" validate:"required,min=3,max=140"`
	Summary         string        `json:"summary" validate:"required,min=10,max=900"`
	Health          string        `json:"health" validate:"required,oneof=strong steady watch"`
	Strengths       []string      `json:"strengths" validate:"min=1,max=4,dive,min=3"`
	Risks           []string      `json:"risks" validate:"min=1,max=4,dive,min=3"`
	Recommendations []string      `json:"recommendations" validate:"min=2,max=4,dive,min=3"`
	Source          InsightSource `json:"source"`
}

// RecommendationInsight is the "what should I do next" response payload.
// EventID is empty only in the no-candidate case.
type RecommendationInsight struct {
	Headline          string        `json:"headline" validate:"required,min=3,max=140"`
	Reason            string        `json:"reason" validate:"required,min=3,max=500"`
	WhyNow            string        `json:"why_now" validate:"required,min=3,max=320"`
	RecommendedAction string        `json:"recommended_action" validate:"required,oneof=respond attend prepare host review"`
	EventID           string        `json:"event_id,omitempty"`
	EventTitle        string        `json:"event_title,omitempty"`
	StartsAt          *time.Time    `json:"starts_at,omitempty"`
	Location          string        `json:"location,omitempty"`
	Source            InsightSource `json:"source"`
}

// SchedulingAssistantRequest is the draft event submitted for scheduling
// advice. EventID is set when the draft edits an existing event, so the
// event does not conflict with itself.
type SchedulingAssistantRequest struct {
	Title         string    `json:"title" binding:"required,min=3,max=120"`
	Description   string    `json:"description" binding:"max=2000"`
	Location      string    `json:"location" binding:"required,min=2,max=160"`
	StartsAt      time.Time `json:"starts_at" binding:"required"`
	EndsAt        time.Time `json:"ends_at" binding:"required"`
	Timezone      string    `json:"timezone" binding:"required,min=2,max=80"`
	InviteeEmails []string  `json:"invitee_emails" binding:"max=30,dive,email"`
	EventID       string    `json:"event_id"`
}
