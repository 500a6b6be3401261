package service

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/slated-app/slated/internal/models"
)

var invitationIDUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeEmail lowercases and trims an email address so invitations
// match regardless of how the address was typed.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// buildInvitationID derives a deterministic invitation id from the event
// and the normalized invitee email, so re-inviting the same address is a
// natural no-op at the storage layer.
func buildInvitationID(eventID, email string) string {
	safe := invitationIDUnsafe.ReplaceAllString(NormalizeEmail(email), "-")
	return eventID + "-" + safe
}

// buildSearchBlob precomputes the lowercase text used by the q filter.
func buildSearchBlob(title, description, location, timezone string) string {
	parts := make([]string, 0, 4)
	for _, value := range []string{title, description, location, timezone} {
		if trimmed := strings.ToLower(strings.TrimSpace(value)); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, " ")
}

// overlaps reports whether two closed intervals intersect. Touching
// endpoints count as overlapping: back-to-back events sharing an exact
// boundary are flagged as schedule risk, and the conflict counts
// downstream depend on that boundary behavior.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}

// eventsOverlap applies the interval predicate to two events.
func eventsOverlap(a, b *models.Event) bool {
	return overlaps(a.StartsAt, a.EndsAt, b.StartsAt, b.EndsAt)
}

// isUpcoming reports whether the event starts strictly after now.
func isUpcoming(e *models.Event, now time.Time) bool {
	return e.StartsAt.After(now)
}

// sortVisibleByStart sorts events by start time ascending, breaking ties
// by id. Storage makes no ordering promise, so the id tiebreak is what
// keeps repeated runs over the same state byte-identical.
func sortVisibleByStart(events []models.VisibleEvent) []models.VisibleEvent {
	sorted := make([]models.VisibleEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].StartsAt.Equal(sorted[j].StartsAt) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].StartsAt.Before(sorted[j].StartsAt)
	})
	return sorted
}

// sortInvitationsByStart sorts invitations by their event start ascending,
// with the same id tiebreak as the event sort.
func sortInvitationsByStart(invitations []models.Invitation) {
	sort.SliceStable(invitations, func(i, j int) bool {
		if invitations[i].EventStartsAt.Equal(invitations[j].EventStartsAt) {
			return invitations[i].ID < invitations[j].ID
		}
		return invitations[i].EventStartsAt.Before(invitations[j].EventStartsAt)
	})
}

// dayLabel formats an instant as the short day label used by the
// schedule density histogram, e.g. "Jan 5".
func dayLabel(t time.Time) string {
	return t.Format("Jan 2")
}
