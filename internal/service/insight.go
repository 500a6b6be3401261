package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/slated-app/slated/internal/logger"
	"github.com/slated-app/slated/internal/models"
)

// insightWindow caps how many visible events feed the insight builders.
const insightWindow = 100

// Sampling temperatures per insight. The dashboard summary stays the
// most conservative; the recommendation allows slightly more variation
// in phrasing.
const (
	schedulingTemperature     = 0.3
	dashboardTemperature      = 0.2
	recommendationTemperature = 0.35
)

type insightService struct {
	events    EventService
	analytics AnalyticsService
	gen       Generator
	validate  *validator.Validate
	log       logger.Logger
}

// NewInsightService creates the insight service. The generator is optional
// in effect: every generation or validation failure falls back to the
// deterministic insight, so a misconfigured generator degrades service
// quality but never availability.
func NewInsightService(events EventService, analytics AnalyticsService, gen Generator, log logger.Logger) InsightService {
	return &insightService{
		events:    events,
		analytics: analytics,
		gen:       gen,
		validate:  validator.New(),
		log:       log,
	}
}

func (s *insightService) SchedulingAssistant(ctx context.Context, user models.UserContext, req models.SchedulingAssistantRequest) (*models.SchedulingInsight, error) {
	if !req.EndsAt.After(req.StartsAt) {
		return nil, ErrInvalidTimeRange
	}

	visible, err := s.events.ListVisible(ctx, user, models.EventFilters{
		Scope: models.ScopeAll,
		Page:  1,
		Limit: insightWindow,
	})
	if err != nil {
		return nil, fmt.Errorf("list visible events: %w", err)
	}

	// Related events are the ones the draft would collide with. When the
	// draft edits an existing event, that event is excluded so it does
	// not conflict with itself.
	var related []models.VisibleEvent
	for _, event := range visible.Items {
		if event.ID == req.EventID {
			continue
		}
		if overlaps(req.StartsAt, req.EndsAt, event.StartsAt, event.EndsAt) {
			related = append(related, event)
		}
	}

	risky := buildRiskyInvitees(req.InviteeEmails, len(related))
	fallback := buildSchedulingFallback(req, len(related), risky)

	insight := s.generateInto(ctx, buildSchedulingPrompt(req, fallback, related), schedulingTemperature, &models.SchedulingInsight{})
	if insight == nil {
		return &fallback, nil
	}

	result := insight.(*models.SchedulingInsight)
	result.Source = models.SourceGemini
	return result, nil
}

func (s *insightService) DashboardInsight(ctx context.Context, user models.UserContext) (*models.DashboardInsight, error) {
	overview, err := s.analytics.Overview(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("analytics overview: %w", err)
	}

	fallback := buildDashboardFallback(*overview)

	insight := s.generateInto(ctx, buildDashboardPrompt(*overview, fallback), dashboardTemperature, &models.DashboardInsight{})
	if insight == nil {
		return &fallback, nil
	}

	result := insight.(*models.DashboardInsight)
	result.Source = models.SourceGemini
	return result, nil
}

func (s *insightService) EventRecommendation(ctx context.Context, user models.UserContext) (*models.RecommendationInsight, error) {
	visible, err := s.events.ListVisible(ctx, user, models.EventFilters{
		Scope: models.ScopeAll,
		Page:  1,
		Limit: insightWindow,
	})
	if err != nil {
		return nil, fmt.Errorf("list visible events: %w", err)
	}

	now := time.Now().UTC()
	fallback := buildRecommendationFallback(visible.Items, now)

	// No candidate means there is nothing for the model to pick from.
	if fallback.EventID == "" {
		return &fallback, nil
	}

	insight := s.generateInto(ctx, buildRecommendationPrompt(user, visible.Items, fallback, now), recommendationTemperature, &models.RecommendationInsight{})
	if insight == nil {
		return &fallback, nil
	}

	result := insight.(*models.RecommendationInsight)

	// The recommended event must be one of the viewer's visible events;
	// anything else is a hallucinated id and the fallback wins.
	var matched *models.VisibleEvent
	for i := range visible.Items {
		if visible.Items[i].ID == result.EventID {
			matched = &visible.Items[i]
			break
		}
	}
	if matched == nil {
		return &fallback, nil
	}

	startsAt := matched.StartsAt
	result.EventTitle = matched.Title
	result.StartsAt = &startsAt
	result.Location = matched.Location
	result.Source = models.SourceGemini
	return result, nil
}

// generateInto runs the generator and parses its output into target,
// returning nil if generation, decoding, or structural validation fails.
// The caller substitutes the deterministic fallback on nil; partial or
// repaired payloads are never used.
func (s *insightService) generateInto(ctx context.Context, prompt string, temperature float64, target any) any {
	if s.gen == nil {
		return nil
	}

	text, err := s.gen.Generate(ctx, prompt, temperature)
	if err != nil {
		s.log.WithContext(ctx).Warn("insight generation failed", logger.Err(err))
		return nil
	}
	if text == "" {
		return nil
	}

	if err := json.Unmarshal([]byte(text), target); err != nil {
		s.log.WithContext(ctx).Warn("insight payload is not valid JSON", logger.Err(err))
		return nil
	}

	if err := s.validate.Struct(target); err != nil {
		s.log.WithContext(ctx).Warn("insight payload failed validation", logger.Err(err))
		return nil
	}

	return target
}

// buildRiskyInvitees flags up to five invitees. The reason depends only on
// whether the draft already collides with visible schedule activity.
func buildRiskyInvitees(emails []string, relatedCount int) []models.RiskyInvitee {
	reason := "Attendance risk is low, but confirmation is still pending."
	if relatedCount > 0 {
		reason = "This event slot already overlaps with visible schedule activity."
	}

	limit := len(emails)
	if limit > 5 {
		limit = 5
	}

	risky := make([]models.RiskyInvitee, 0, limit)
	for _, email := range emails[:limit] {
		risky = append(risky, models.RiskyInvitee{Email: email, Reason: reason})
	}
	return risky
}

// buildSchedulingFallback is the deterministic scheduling analysis: a
// conflict level derived from the overlap count and a single suggested
// window two hours later with the same duration.
func buildSchedulingFallback(req models.SchedulingAssistantRequest, conflictCount int, risky []models.RiskyInvitee) models.SchedulingInsight {
	duration := req.EndsAt.Sub(req.StartsAt)
	suggestedStart := req.StartsAt.Add(2 * time.Hour)
	suggestedEnd := suggestedStart.Add(duration)

	summary := "This draft looks feasible. No direct conflicts were detected against the organizer's visible event schedule, so the current time window is a reasonable starting point."
	if conflictCount > 0 {
		summary = fmt.Sprintf("This draft overlaps with %d existing event %s. Consider shifting the time window or reducing invitee overlap before sending invitations.",
			conflictCount, pluralize(conflictCount, "slot", "slots"))
	}

	conflictLevel := "low"
	switch {
	case conflictCount >= 4:
		conflictLevel = "high"
	case conflictCount >= 2:
		conflictLevel = "medium"
	}

	return models.SchedulingInsight{
		Summary:       summary,
		ConflictLevel: conflictLevel,
		ConflictCount: conflictCount,
		RiskyInvitees: risky,
		SuggestedTimeWindows: []models.TimeWindow{
			{
				StartsAt: suggestedStart,
				EndsAt:   suggestedEnd,
				Reason:   "A later buffer may reduce same-day overlap and attendance fatigue.",
			},
		},
		SuggestedSummary: fmt.Sprintf("%s at %s. A focused event aligned to %s.", req.Title, req.Location, req.Timezone),
		AgendaBullets: []string{
			"Arrival and context-setting",
			"Core event discussion",
			"Action items and next steps",
		},
		Source: models.SourceFallback,
	}
}

// buildDashboardFallback scores program health from the analytics snapshot
// and renders a deterministic executive summary.
func buildDashboardFallback(overview models.AnalyticsOverview) models.DashboardInsight {
	pendingCount := responseCount(overview, "pending")
	attendingCount := responseCount(overview, "attending")
	maybeCount := responseCount(overview, "maybe")
	declinedCount := responseCount(overview, "declined")

	totalResponses := 0
	for _, bucket := range overview.ResponseDistribution {
		totalResponses += bucket.Count
	}

	var attendanceRate, pendingRate, declineRate float64
	if totalResponses > 0 {
		attendanceRate = float64(attendingCount) / float64(totalResponses)
		pendingRate = float64(pendingCount) / float64(totalResponses)
		declineRate = float64(declinedCount) / float64(totalResponses)
	}

	// Each conflicted pair counts twice in conflictCount, so the pressure
	// denominator doubles the upcoming count to stay in [0, 1] territory.
	pressureBase := overview.UpcomingCount * 2
	if pressureBase < 1 {
		pressureBase = 1
	}
	overlapPressure := float64(overview.ConflictCount) / float64(pressureBase)

	var busiestDay *models.DensityBucket
	for i := range overview.ScheduleDensity {
		if busiestDay == nil || overview.ScheduleDensity[i].Count > busiestDay.Count {
			busiestDay = &overview.ScheduleDensity[i]
		}
	}

	score := 0
	switch {
	case attendanceRate >= 0.45:
		score += 2
	case attendanceRate >= 0.28:
		score++
	}

	switch {
	case pendingRate <= 0.35:
		score++
	case pendingRate > 0.55:
		score--
	}

	switch {
	case overlapPressure <= 0.16:
		score++
	case overlapPressure > 0.35:
		score -= 2
	case overlapPressure > 0.22:
		score--
	}

	if declineRate > 0.28 {
		score--
	}

	if overview.UpcomingCount >= 4 {
		score++
	}

	health := "watch"
	switch {
	case score >= 3:
		health = "strong"
	case score >= 1:
		health = "steady"
	}

	headline := "Event program needs closer operational attention"
	switch health {
	case "strong":
		headline = "Event program health looks strong"
	case "steady":
		headline = "Event program is steady but needs tuning"
	}

	strengths := make([]string, 0, 3)
	if overview.UpcomingCount > 0 {
		strengths = append(strengths, fmt.Sprintf("%d upcoming %s keep the near-term pipeline active.",
			overview.UpcomingCount, pluralize(overview.UpcomingCount, "event", "events")))
	} else {
		strengths = append(strengths, "The workspace is quiet enough to reset priorities before the next event cycle.")
	}
	if attendanceRate >= 0.3 {
		strengths = append(strengths, fmt.Sprintf("%d%% of visible responses are confirmed attending, which is a solid engagement baseline.",
			int(attendanceRate*100+0.5)))
	} else {
		strengths = append(strengths, "There is still room to convert interest, but the current response mix gives enough signal to prioritize follow-up.")
	}
	if busiestDay != nil {
		strengths = append(strengths, fmt.Sprintf("%s is the busiest visible day with %d scheduled %s.",
			busiestDay.Label, busiestDay.Count, pluralize(busiestDay.Count, "event", "events")))
	}

	risks := make([]string, 0, 3)
	if overlapPressure > 0.22 {
		risks = append(risks, fmt.Sprintf("Overlap pressure is elevated at %d%%, which can reduce attendance quality.",
			int(overlapPressure*100+0.5)))
	} else {
		risks = append(risks, "Overlap pressure is currently contained, but it still needs monitoring as the schedule fills up.")
	}
	if pendingRate > 0.35 {
		risks = append(risks, fmt.Sprintf("%d %s still pending, which slows planning confidence.",
			pendingCount, pluralize(pendingCount, "invitation is", "invitations are")))
	} else {
		risks = append(risks, "Pending replies are under control, but conversion speed will still affect confidence in headcount.")
	}
	if declineRate > 0.2 {
		risks = append(risks, fmt.Sprintf("%d %s suggest that some sessions may need sharper timing or audience targeting.",
			declinedCount, pluralize(declinedCount, "decline", "declines")))
	}

	recommendations := make([]string, 0, 3)
	if pendingCount > 0 {
		recommendations = append(recommendations, "Follow up on pending invitations first so the attendance forecast becomes more reliable.")
	} else {
		recommendations = append(recommendations, "Keep response momentum high by confirming attendees early and locking agendas sooner.")
	}
	if overview.ConflictCount > 0 {
		recommendations = append(recommendations, "Reduce overlap by staggering high-risk sessions or consolidating adjacent meetings.")
	} else {
		recommendations = append(recommendations, "Protect the current low-overlap window by spacing new events away from busy slots.")
	}
	if maybeCount > attendingCount {
		recommendations = append(recommendations, "Clarify value, agenda, and expected outcomes for maybes to improve conversion into confirmed attendance.")
	} else {
		recommendations = append(recommendations, "Use confirmed attendance data to prioritize the events with the strongest traction.")
	}

	summary := fmt.Sprintf("%s. There are %d upcoming visible events, %d confirmed responses, %d pending replies, and %d overlap %s in the current pipeline.",
		headline, overview.UpcomingCount, attendingCount, pendingCount,
		overview.ConflictCount, pluralize(overview.ConflictCount, "signal", "signals"))

	return models.DashboardInsight{
		Headline:        headline,
		Summary:         summary,
		Health:          health,
		Strengths:       capStrings(strengths, 3),
		Risks:           capStrings(risks, 3),
		Recommendations: capStrings(recommendations, 3),
		Source:          models.SourceFallback,
	}
}

func responseCount(overview models.AnalyticsOverview, status string) int {
	for _, bucket := range overview.ResponseDistribution {
		if bucket.Status == status {
			return bucket.Count
		}
	}
	return 0
}

func capStrings(values []string, limit int) []string {
	if len(values) > limit {
		return values[:limit]
	}
	return values
}
