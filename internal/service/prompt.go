package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/slated-app/slated/internal/models"
)

// The prompt builders ask for strict JSON matching the insight payload
// contracts and always embed the deterministic fallback so an uncertain
// model has a safe anchor.

func buildSchedulingPrompt(req models.SchedulingAssistantRequest, fallback models.SchedulingInsight, related []models.VisibleEvent) string {
	var b strings.Builder
	b.WriteString("You are an event scheduling assistant.\n")
	b.WriteString("Return strict JSON with keys:\n")
	b.WriteString("summary, conflict_level, conflict_count, risky_invitees, suggested_time_windows, suggested_summary, agenda_bullets.\n\n")
	b.WriteString("Constraints:\n")
	b.WriteString("- summary max 700 chars\n")
	b.WriteString("- conflict_level one of low, medium, high\n")
	b.WriteString("- conflict_count must be an integer\n")
	b.WriteString("- risky_invitees is an array of { email, reason }\n")
	b.WriteString("- suggested_time_windows is an array of { starts_at, ends_at, reason } in ISO format\n")
	b.WriteString("- agenda_bullets should be short, practical bullets\n\n")

	description := req.Description
	if description == "" {
		description = "N/A"
	}
	inviteeEmails := strings.Join(req.InviteeEmails, ", ")
	if inviteeEmails == "" {
		inviteeEmails = "N/A"
	}

	fmt.Fprintf(&b, "Draft event:\ntitle=%s\nlocation=%s\nstartsAt=%s\nendsAt=%s\ntimezone=%s\ndescription=%s\ninviteeEmails=%s\n\n",
		req.Title, req.Location,
		req.StartsAt.Format(time.RFC3339), req.EndsAt.Format(time.RFC3339),
		req.Timezone, description, inviteeEmails)

	b.WriteString("Relevant existing events:\n")
	if len(related) == 0 {
		b.WriteString("none\n")
	}
	for _, event := range related {
		fmt.Fprintf(&b, "- %s | %s -> %s | organizer=%s\n",
			event.Title,
			event.StartsAt.Format(time.RFC3339), event.EndsAt.Format(time.RFC3339),
			event.OrganizerName)
	}

	b.WriteString("\nIf unsure, stay close to this fallback analysis:\n")
	b.WriteString(marshalForPrompt(struct {
		Summary              string                `json:"summary"`
		ConflictLevel        string                `json:"conflict_level"`
		ConflictCount        int                   `json:"conflict_count"`
		RiskyInvitees        []models.RiskyInvitee `json:"risky_invitees"`
		SuggestedTimeWindows []models.TimeWindow   `json:"suggested_time_windows"`
		SuggestedSummary     string                `json:"suggested_summary"`
		AgendaBullets        []string              `json:"agenda_bullets"`
	}{
		Summary:              fallback.Summary,
		ConflictLevel:        fallback.ConflictLevel,
		ConflictCount:        fallback.ConflictCount,
		RiskyInvitees:        fallback.RiskyInvitees,
		SuggestedTimeWindows: fallback.SuggestedTimeWindows,
		SuggestedSummary:     fallback.SuggestedSummary,
		AgendaBullets:        fallback.AgendaBullets,
	}))

	return b.String()
}

func buildDashboardPrompt(overview models.AnalyticsOverview, fallback models.DashboardInsight) string {
	var b strings.Builder
	b.WriteString("You are an operations analyst for an event scheduling business.\n")
	b.WriteString("Return strict JSON with keys:\n")
	b.WriteString("headline, summary, health, strengths, risks, recommendations.\n\n")
	b.WriteString("Constraints:\n")
	b.WriteString("- headline max 140 chars\n")
	b.WriteString("- summary max 900 chars\n")
	b.WriteString("- health one of strong, steady, watch\n")
	b.WriteString("- strengths: 1 to 4 concise bullets\n")
	b.WriteString("- risks: 1 to 4 concise bullets\n")
	b.WriteString("- recommendations: 2 to 4 practical actions\n")
	b.WriteString("- no markdown\n\n")

	fmt.Fprintf(&b, "Analytics snapshot:\nupcomingCount=%d\nownedCount=%d\ninvitedCount=%d\nconflictCount=%d\n\n",
		overview.UpcomingCount, overview.OwnedCount, overview.InvitedCount, overview.ConflictCount)

	b.WriteString("Response distribution:\n")
	if len(overview.ResponseDistribution) == 0 {
		b.WriteString("- none\n")
	}
	for _, bucket := range overview.ResponseDistribution {
		fmt.Fprintf(&b, "- %s: %d\n", bucket.Status, bucket.Count)
	}

	b.WriteString("\nSchedule density:\n")
	if len(overview.ScheduleDensity) == 0 {
		b.WriteString("- none\n")
	}
	for _, bucket := range overview.ScheduleDensity {
		fmt.Fprintf(&b, "- %s: %d\n", bucket.Label, bucket.Count)
	}

	b.WriteString("\nHigh risk events:\n")
	if len(overview.HighRiskEvents) == 0 {
		b.WriteString("- none\n")
	}
	for _, risk := range overview.HighRiskEvents {
		fmt.Fprintf(&b, "- %s | %s | %s | %s\n",
			risk.Title, risk.StartsAt.Format(time.RFC3339), risk.Location, risk.RiskLabel)
	}

	b.WriteString("\nUse an executive but practical tone. Focus on operational health, event demand, attendance confidence, and scheduling discipline.\n\n")
	b.WriteString("If you are uncertain, stay close to this fallback:\n")
	b.WriteString(marshalForPrompt(struct {
		Headline        string   `json:"headline"`
		Summary         string   `json:"summary"`
		Health          string   `json:"health"`
		Strengths       []string `json:"strengths"`
		Risks           []string `json:"risks"`
		Recommendations []string `json:"recommendations"`
	}{
		Headline:        fallback.Headline,
		Summary:         fallback.Summary,
		Health:          fallback.Health,
		Strengths:       fallback.Strengths,
		Risks:           fallback.Risks,
		Recommendations: fallback.Recommendations,
	}))

	return b.String()
}

func buildRecommendationPrompt(user models.UserContext, visible []models.VisibleEvent, fallback models.RecommendationInsight, now time.Time) string {
	positiveLocations := map[string]int{}
	positiveOrganizers := map[string]int{}
	for _, event := range visible {
		if event.ViewerRsvpStatus == models.RsvpAttending || event.ViewerRsvpStatus == models.RsvpMaybe {
			positiveLocations[event.Location]++
			positiveOrganizers[event.OrganizerName]++
		}
	}

	var b strings.Builder
	b.WriteString("You are an event recommendation assistant for the signed-in user.\n")
	b.WriteString("Choose one visible upcoming event to recommend next and explain why.\n")
	b.WriteString("Return strict JSON with keys:\n")
	b.WriteString("headline, reason, why_now, recommended_action, event_id, event_title, starts_at, location.\n\n")
	b.WriteString("Constraints:\n")
	b.WriteString("- recommended_action one of respond, attend, prepare, host, review\n")
	b.WriteString("- reason max 500 chars\n")
	b.WriteString("- why_now max 320 chars\n")
	b.WriteString("- pick only from the provided candidate ids\n")
	b.WriteString("- do not recommend declined events\n")
	b.WriteString("- no markdown\n\n")

	fmt.Fprintf(&b, "Signed-in user:\nname=%s\nemail=%s\n\n", user.DisplayName, user.Email)

	fmt.Fprintf(&b, "Positive response signals:\nlocations=%s\norganizers=%s\n\n",
		topSignals(positiveLocations), topSignals(positiveOrganizers))

	b.WriteString("Candidate events:\n")
	wroteCandidate := false
	for _, event := range visible {
		if !isUpcoming(&event.Event, now) || event.ViewerRsvpStatus == models.RsvpDeclined {
			continue
		}

		overlapCount := 0
		for _, other := range visible {
			if other.ID != event.ID && isUpcoming(&other.Event, now) && eventsOverlap(&event.Event, &other.Event) {
				overlapCount++
			}
		}

		status := string(event.ViewerRsvpStatus)
		if status == "" {
			status = "none"
		}

		fmt.Fprintf(&b, "- id=%s | title=%s | startsAt=%s | location=%s | organizer=%s | isOrganizer=%t | viewerRsvpStatus=%s | invited=%d | attending=%d | maybe=%d | overlaps=%d\n",
			event.ID, event.Title, event.StartsAt.Format(time.RFC3339), event.Location,
			event.OrganizerName, event.IsOrganizer, status,
			event.Counts.Invited, event.Counts.Attending, event.Counts.Maybe, overlapCount)
		wroteCandidate = true
	}
	if !wroteCandidate {
		b.WriteString("- none\n")
	}

	b.WriteString("\nIf unsure, stay close to this fallback:\n")
	b.WriteString(marshalForPrompt(struct {
		Headline          string     `json:"headline"`
		Reason            string     `json:"reason"`
		WhyNow            string     `json:"why_now"`
		RecommendedAction string     `json:"recommended_action"`
		EventID           string     `json:"event_id,omitempty"`
		EventTitle        string     `json:"event_title,omitempty"`
		StartsAt          *time.Time `json:"starts_at,omitempty"`
		Location          string     `json:"location,omitempty"`
	}{
		Headline:          fallback.Headline,
		Reason:            fallback.Reason,
		WhyNow:            fallback.WhyNow,
		RecommendedAction: fallback.RecommendedAction,
		EventID:           fallback.EventID,
		EventTitle:        fallback.EventTitle,
		StartsAt:          fallback.StartsAt,
		Location:          fallback.Location,
	}))

	return b.String()
}

// topSignals renders the three strongest counters as "name (count)" pairs.
func topSignals(counter map[string]int) string {
	type signal struct {
		name  string
		count int
	}
	signals := make([]signal, 0, len(counter))
	for name, count := range counter {
		signals = append(signals, signal{name: name, count: count})
	}
	// Descending by count, name ascending as the deterministic tie-break.
	sort.Slice(signals, func(i, j int) bool {
		if signals[i].count != signals[j].count {
			return signals[i].count > signals[j].count
		}
		return signals[i].name < signals[j].name
	})
	if len(signals) > 3 {
		signals = signals[:3]
	}

	parts := make([]string, 0, len(signals))
	for _, s := range signals {
		parts = append(parts, fmt.Sprintf("%s (%d)", s.name, s.count))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

func marshalForPrompt(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
