package service

import (
	"context"
	"fmt"
	"time"

	"github.com/slated-app/slated/internal/models"
	"github.com/slated-app/slated/internal/repository"
)

const (
	// analyticsEventWindow caps how many visible events feed the snapshot.
	analyticsEventWindow = 100
	// densityEventLimit caps how many upcoming events feed the histogram.
	densityEventLimit = 12
	// highRiskLimit caps the surfaced high-risk list.
	highRiskLimit = 4
	// recentActivityLimit caps the recent activity feed.
	recentActivityLimit = 8
)

type analyticsService struct {
	events      EventService
	invitations InvitationService
	activity    repository.ActivityRepository
}

// NewAnalyticsService creates the analytics service.
func NewAnalyticsService(events EventService, invitations InvitationService, activity repository.ActivityRepository) AnalyticsService {
	return &analyticsService{
		events:      events,
		invitations: invitations,
		activity:    activity,
	}
}

func (s *analyticsService) Overview(ctx context.Context, user models.UserContext) (*models.AnalyticsOverview, error) {
	visible, err := s.events.ListVisible(ctx, user, models.EventFilters{
		Scope: models.ScopeAll,
		Page:  1,
		Limit: analyticsEventWindow,
	})
	if err != nil {
		return nil, fmt.Errorf("list visible events: %w", err)
	}

	invitations, err := s.invitations.ListForUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}

	activity, err := s.activity.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}

	overview := buildOverview(visible.Items, invitations, activity, user.UID, time.Now().UTC())
	return &overview, nil
}

// buildOverview derives the analytics snapshot from raw state. It is pure:
// the same inputs always produce byte-identical output.
func buildOverview(visible []models.VisibleEvent, invitations []models.Invitation, activity []models.ActivityLogEntry, viewerUID string, now time.Time) models.AnalyticsOverview {
	var upcoming []models.VisibleEvent
	ownedCount := 0
	for _, event := range visible {
		if isUpcoming(&event.Event, now) {
			upcoming = append(upcoming, event)
		}
		if event.IsOrganizer {
			ownedCount++
		}
	}

	conflictCount, highRisk := computeConflicts(upcoming)

	return models.AnalyticsOverview{
		UpcomingCount:        len(upcoming),
		OwnedCount:           ownedCount,
		InvitedCount:         len(visible) - ownedCount,
		ConflictCount:        conflictCount,
		ResponseDistribution: responseDistribution(invitations),
		ScheduleDensity:      scheduleDensity(upcoming),
		HighRiskEvents:       highRisk,
		RecentActivity:       recentActivity(activity, visible, viewerUID),
	}
}

// responseDistribution buckets the viewer's invitations by RSVP status.
// The bucket order is fixed, and "invited" is relabeled "pending".
func responseDistribution(invitations []models.Invitation) []models.ResponseBucket {
	countOf := func(status models.RsvpStatus) int {
		n := 0
		for _, invitation := range invitations {
			if invitation.RsvpStatus == status {
				n++
			}
		}
		return n
	}

	return []models.ResponseBucket{
		{Status: "pending", Count: countOf(models.RsvpInvited)},
		{Status: "attending", Count: countOf(models.RsvpAttending)},
		{Status: "maybe", Count: countOf(models.RsvpMaybe)},
		{Status: "declined", Count: countOf(models.RsvpDeclined)},
	}
}

// scheduleDensity buckets the nearest upcoming events by start day. Labels
// appear in first-occurrence order so the output is deterministic.
func scheduleDensity(upcoming []models.VisibleEvent) []models.DensityBucket {
	window := upcoming
	if len(window) > densityEventLimit {
		window = window[:densityEventLimit]
	}

	counts := make(map[string]int, len(window))
	var labels []string
	for _, event := range window {
		label := dayLabel(event.StartsAt)
		if _, seen := counts[label]; !seen {
			labels = append(labels, label)
		}
		counts[label]++
	}

	density := make([]models.DensityBucket, 0, len(labels))
	for _, label := range labels {
		density = append(density, models.DensityBucket{Label: label, Count: counts[label]})
	}
	return density
}

// computeConflicts counts pairwise overlaps among upcoming events and
// surfaces the earliest-starting conflicted events as high risk. Each
// overlapping pair contributes twice to the total, once per member; the
// dashboard's overlap-pressure ratio is calibrated to that convention.
func computeConflicts(upcoming []models.VisibleEvent) (int, []models.RiskEntry) {
	sorted := sortVisibleByStart(upcoming)

	conflictCount := 0
	highRisk := []models.RiskEntry{}

	for i := range sorted {
		current := &sorted[i]
		overlapping := 0
		for j := range sorted {
			if i == j {
				continue
			}
			if eventsOverlap(&current.Event, &sorted[j].Event) {
				overlapping++
			}
		}

		if overlapping == 0 {
			continue
		}

		conflictCount += overlapping
		if len(highRisk) < highRiskLimit {
			riskLabel := "Single overlap"
			if overlapping > 1 {
				riskLabel = "Multi-overlap"
			}
			highRisk = append(highRisk, models.RiskEntry{
				ID:        current.ID,
				Title:     current.Title,
				StartsAt:  current.StartsAt,
				Location:  current.Location,
				RiskLabel: riskLabel,
			})
		}
	}

	return conflictCount, highRisk
}

// recentActivity keeps entries the viewer performed or that touch a
// visible event, newest first.
func recentActivity(activity []models.ActivityLogEntry, visible []models.VisibleEvent, viewerUID string) []models.ActivityLogEntry {
	visibleIDs := make(map[string]struct{}, len(visible))
	for _, event := range visible {
		visibleIDs[event.ID] = struct{}{}
	}

	relevant := make([]models.ActivityLogEntry, 0, len(activity))
	for _, entry := range activity {
		if entry.ActorUID == viewerUID {
			relevant = append(relevant, entry)
			continue
		}
		if _, ok := visibleIDs[entry.EventID]; ok {
			relevant = append(relevant, entry)
		}
	}

	sortActivityNewestFirst(relevant)
	if len(relevant) > recentActivityLimit {
		relevant = relevant[:recentActivityLimit]
	}
	return relevant
}
