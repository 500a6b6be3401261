package service

import (
	"strings"
	"testing"
	"time"

	"github.com/slated-app/slated/internal/models"
)

func TestRecommendationFallbackNoUpcomingEvents(t *testing.T) {
	now := at(12)
	visible := []models.VisibleEvent{
		visibleEvent("past", at(8), at(9), false),
	}

	insight := buildRecommendationFallback(visible, now)

	if insight.EventID != "" {
		t.Errorf("EventID = %q, want empty", insight.EventID)
	}
	if insight.RecommendedAction != "review" {
		t.Errorf("RecommendedAction = %q, want review", insight.RecommendedAction)
	}
	if insight.Source != models.SourceFallback {
		t.Errorf("Source = %q, want fallback", insight.Source)
	}
}

func TestRecommendationFallbackPendingInvitationWins(t *testing.T) {
	now := at(0)
	invited := visibleEvent("invited", now.Add(30*time.Hour), now.Add(31*time.Hour), false)
	invited.ViewerRsvpStatus = models.RsvpInvited
	attending := visibleEvent("attending", now.Add(30*time.Hour), now.Add(31*time.Hour), false)
	attending.ViewerRsvpStatus = models.RsvpAttending

	insight := buildRecommendationFallback([]models.VisibleEvent{attending, invited}, now)

	// The pending-RSVP bonus outweighs the attending-prep bonus.
	if insight.EventID != "invited" {
		t.Errorf("EventID = %q, want invited", insight.EventID)
	}
	if insight.RecommendedAction != "respond" {
		t.Errorf("RecommendedAction = %q, want respond", insight.RecommendedAction)
	}
	if insight.Headline != "Respond to this invitation" {
		t.Errorf("Headline = %q", insight.Headline)
	}
}

func TestRecommendationFallbackOrganizerWithPendingBecomesHost(t *testing.T) {
	now := at(0)
	hosted := visibleEvent("hosted", now.Add(10*time.Hour), now.Add(12*time.Hour), true)
	hosted.Counts = models.InvitationCounts{Invited: 3, Maybe: 1}

	insight := buildRecommendationFallback([]models.VisibleEvent{hosted}, now)

	if insight.RecommendedAction != "host" {
		t.Errorf("RecommendedAction = %q, want host", insight.RecommendedAction)
	}
	if insight.EventID != "hosted" {
		t.Errorf("EventID = %q, want hosted", insight.EventID)
	}
	if !strings.Contains(insight.Reason, "3 invitations are still waiting for a reply.") {
		t.Errorf("Reason = %q, want pending invitation mention", insight.Reason)
	}
	if insight.WhyNow != "Unanswered invitations are still affecting attendance confidence for this hosted event." {
		t.Errorf("WhyNow = %q", insight.WhyNow)
	}
}

func TestRecommendationFallbackOrganizerWithoutSignalsPrepares(t *testing.T) {
	now := at(0)
	hosted := visibleEvent("quiet", now.Add(10*time.Hour), now.Add(11*time.Hour), true)

	insight := buildRecommendationFallback([]models.VisibleEvent{hosted}, now)

	if insight.RecommendedAction != "prepare" {
		t.Errorf("RecommendedAction = %q, want prepare", insight.RecommendedAction)
	}
}

func TestRecommendationFallbackSkipsDeclinedEvents(t *testing.T) {
	now := at(0)
	declined := visibleEvent("declined", now.Add(5*time.Hour), now.Add(6*time.Hour), false)
	declined.ViewerRsvpStatus = models.RsvpDeclined
	attending := visibleEvent("going", now.Add(200*time.Hour), now.Add(201*time.Hour), false)
	attending.ViewerRsvpStatus = models.RsvpAttending

	insight := buildRecommendationFallback([]models.VisibleEvent{declined, attending}, now)

	if insight.EventID != "going" {
		t.Errorf("EventID = %q, want going", insight.EventID)
	}
}

func TestRecommendationFallbackTieGoesToEarlierStart(t *testing.T) {
	now := at(0)
	// Identical scoring inputs, different start order.
	later := visibleEvent("later", now.Add(10*time.Hour), now.Add(11*time.Hour), false)
	later.ViewerRsvpStatus = models.RsvpAttending
	earlier := visibleEvent("earlier", now.Add(5*time.Hour), now.Add(6*time.Hour), false)
	earlier.ViewerRsvpStatus = models.RsvpAttending
	// Same location and organizer so the affinity signals are shared.
	later.Location = earlier.Location
	later.OrganizerName = earlier.OrganizerName

	insight := buildRecommendationFallback([]models.VisibleEvent{later, earlier}, now)

	if insight.EventID != "earlier" {
		t.Errorf("EventID = %q, want earlier (tie broken by start order)", insight.EventID)
	}
}

func TestRecommendationFallbackAffinityReasons(t *testing.T) {
	now := at(0)
	history := visibleEvent("history", now.Add(-48*time.Hour), now.Add(-47*time.Hour), false)
	history.Location = "Main Hall"
	history.OrganizerName = "Casey"
	history.ViewerRsvpStatus = models.RsvpAttending

	candidate := visibleEvent("next", now.Add(30*time.Hour), now.Add(31*time.Hour), false)
	candidate.Location = "Main Hall"
	candidate.OrganizerName = "Casey"
	candidate.ViewerRsvpStatus = models.RsvpInvited

	insight := buildRecommendationFallback([]models.VisibleEvent{history, candidate}, now)

	if insight.EventID != "next" {
		t.Fatalf("EventID = %q, want next", insight.EventID)
	}
	if !strings.Contains(insight.Reason, "Main Hall") {
		t.Errorf("Reason = %q, want location affinity mention", insight.Reason)
	}
	if !strings.Contains(insight.Reason, "You have not responded") {
		t.Errorf("Reason = %q, want pending RSVP mention", insight.Reason)
	}
}
