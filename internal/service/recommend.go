package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/slated-app/slated/internal/models"
)

// recommendationCandidate is one scored upcoming event.
type recommendationCandidate struct {
	event        models.VisibleEvent
	score        int
	action       string
	reasons      []string
	whyNow       string
	overlapCount int
	pendingCount int
}

var recommendationHeadlines = map[string]string{
	"respond": "Respond to this invitation",
	"attend":  "Attend this event",
	"prepare": "Prepare for this event",
	"host":    "Focus on hosting this event",
	"review":  "Review this event",
}

// buildRecommendationFallback scores the viewer's upcoming events and picks
// the single strongest next action. Deterministic: the same inputs always
// pick the same event, and ties go to the earlier-starting candidate
// because candidates are scanned in start order.
func buildRecommendationFallback(visible []models.VisibleEvent, now time.Time) models.RecommendationInsight {
	var upcoming []models.VisibleEvent
	for _, event := range sortVisibleByStart(visible) {
		if isUpcoming(&event.Event, now) {
			upcoming = append(upcoming, event)
		}
	}

	if len(upcoming) == 0 {
		return models.RecommendationInsight{
			Headline:          "No upcoming event stands out yet",
			Reason:            "There are no upcoming visible events to recommend right now, so the best next step is to create a new session or wait for more invitations.",
			WhyNow:            "The recommendation engine only prioritizes upcoming events that the signed-in user can actually access.",
			RecommendedAction: "review",
			Source:            models.SourceFallback,
		}
	}

	// Affinity signals come from every visible event, not just upcoming
	// ones: past responses are exactly the history worth learning from.
	positiveLocations := map[string]int{}
	positiveOrganizers := map[string]int{}
	negativeLocations := map[string]int{}
	negativeOrganizers := map[string]int{}

	for _, event := range visible {
		location := strings.ToLower(event.Location)
		organizer := strings.ToLower(event.OrganizerName)
		switch event.ViewerRsvpStatus {
		case models.RsvpAttending, models.RsvpMaybe:
			positiveLocations[location]++
			positiveOrganizers[organizer]++
		case models.RsvpDeclined:
			negativeLocations[location]++
			negativeOrganizers[organizer]++
		}
	}

	overlapCounts := make(map[string]int, len(upcoming))
	for i := range upcoming {
		n := 0
		for j := range upcoming {
			if i != j && eventsOverlap(&upcoming[i].Event, &upcoming[j].Event) {
				n++
			}
		}
		overlapCounts[upcoming[i].ID] = n
	}

	var winner *recommendationCandidate
	for _, event := range upcoming {
		if event.ViewerRsvpStatus == models.RsvpDeclined {
			continue
		}

		candidate := scoreCandidate(event, overlapCounts[event.ID], now,
			positiveLocations, positiveOrganizers, negativeLocations, negativeOrganizers)

		if winner == nil || candidate.score > winner.score {
			winner = &candidate
		}
	}

	if winner == nil {
		return models.RecommendationInsight{
			Headline:          "No clear event recommendation is available",
			Reason:            "The current visible event set does not produce a strong candidate yet, so the best step is to review your schedule manually.",
			WhyNow:            "There is not enough upcoming signal to confidently prioritize one event over the others.",
			RecommendedAction: "review",
			Source:            models.SourceFallback,
		}
	}

	reasons := winner.reasons
	if len(reasons) > 3 {
		reasons = reasons[:3]
	}

	startsAt := winner.event.StartsAt
	return models.RecommendationInsight{
		Headline:          recommendationHeadlines[winner.action],
		Reason:            strings.Join(reasons, " "),
		WhyNow:            winner.whyNow,
		RecommendedAction: winner.action,
		EventID:           winner.event.ID,
		EventTitle:        winner.event.Title,
		StartsAt:          &startsAt,
		Location:          winner.event.Location,
		Source:            models.SourceFallback,
	}
}

func scoreCandidate(
	event models.VisibleEvent,
	overlapCount int,
	now time.Time,
	positiveLocations, positiveOrganizers, negativeLocations, negativeOrganizers map[string]int,
) recommendationCandidate {
	pendingCount := event.Counts.Invited
	maybeCount := event.Counts.Maybe

	hoursUntilStart := event.StartsAt.Sub(now).Hours()
	if hoursUntilStart < 0 {
		hoursUntilStart = 0
	}

	soonBonus := 1
	switch {
	case hoursUntilStart <= 24:
		soonBonus = 16
	case hoursUntilStart <= 72:
		soonBonus = 10
	case hoursUntilStart <= 168:
		soonBonus = 5
	}

	location := strings.ToLower(event.Location)
	organizer := strings.ToLower(event.OrganizerName)
	locationPositive := positiveLocations[location]
	organizerPositive := positiveOrganizers[organizer]

	score := soonBonus +
		locationPositive*6 +
		organizerPositive*5 -
		negativeLocations[location]*4 -
		negativeOrganizers[organizer]*4

	action := "review"
	var reasons []string
	whyNow := "This event is in the near-term window, so it is worth reviewing soon."

	if event.IsOrganizer {
		action = "prepare"
		if overlapCount > 0 || pendingCount > 0 {
			action = "host"
		}
		score += 26 + pendingCount*7 + maybeCount*3 + overlapCount*6
		reasons = append(reasons, "You are the organizer, so your decisions directly affect attendance quality.")

		switch {
		case pendingCount > 0:
			reasons = append(reasons, fmt.Sprintf("%d %s still waiting for a reply.", pendingCount, pluralize(pendingCount, "invitation is", "invitations are")))
			whyNow = "Unanswered invitations are still affecting attendance confidence for this hosted event."
		case overlapCount > 0:
			reasons = append(reasons, fmt.Sprintf("It overlaps with %d other visible upcoming %s.", overlapCount, pluralize(overlapCount, "event", "events")))
			whyNow = "The overlap risk should be managed before the event gets closer."
		default:
			whyNow = "This hosted event is approaching soon and is the most important one to prepare well."
		}
	} else {
		switch event.ViewerRsvpStatus {
		case models.RsvpInvited:
			action = "respond"
			score += 38 + max(0, 4-overlapCount)*2
			reasons = append(reasons, "You have not responded to this invitation yet.")
			whyNow = "A pending RSVP is still open, so this is the cleanest next decision to make."
		case models.RsvpMaybe:
			action = "review"
			score += 28 + max(0, 3-overlapCount)*2
			reasons = append(reasons, "You marked this as maybe, so it is a good candidate for a final decision.")
			whyNow = "A tentative RSVP has more value when it is clarified before the event gets closer."
		default:
			action = "prepare"
			score += 22
			reasons = append(reasons, "You are already attending, so this is the next event to prepare for.")
			whyNow = "It is one of your closest confirmed commitments in the visible schedule."
		}

		if locationPositive > 0 {
			reasons = append(reasons, fmt.Sprintf("You have responded positively to similar events in %s.", event.Location))
		}
		if organizerPositive > 0 {
			reasons = append(reasons, fmt.Sprintf("You usually engage well with invitations from %s.", event.OrganizerName))
		}
		if overlapCount > 0 {
			reasons = append(reasons, fmt.Sprintf("It currently overlaps with %d other visible %s.", overlapCount, pluralize(overlapCount, "event", "events")))
		}
	}

	return recommendationCandidate{
		event:        event,
		score:        score,
		action:       action,
		reasons:      reasons,
		whyNow:       whyNow,
		overlapCount: overlapCount,
		pendingCount: pendingCount,
	}
}

func pluralize(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}
