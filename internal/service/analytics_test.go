package service

import (
	"reflect"
	"testing"
	"time"

	"github.com/slated-app/slated/internal/models"
)

func visibleEvent(id string, start, end time.Time, organizer bool) models.VisibleEvent {
	event := testEvent(id, "viewer", start, end)
	if !organizer {
		event.OrganizerUID = "someone-else"
	}
	return models.VisibleEvent{Event: *event, IsOrganizer: organizer}
}

func TestComputeConflictsCountsBothSidesOfEachPair(t *testing.T) {
	upcoming := []models.VisibleEvent{
		visibleEvent("a", at(9), at(11), true),
		visibleEvent("b", at(10), at(12), false),
		visibleEvent("c", at(15), at(16), false),
	}

	conflictCount, highRisk := computeConflicts(upcoming)

	// One overlapping pair contributes twice: once per member.
	if conflictCount != 2 {
		t.Errorf("conflictCount = %d, want 2", conflictCount)
	}
	if len(highRisk) != 2 {
		t.Fatalf("len(highRisk) = %d, want 2", len(highRisk))
	}
	if highRisk[0].ID != "a" || highRisk[1].ID != "b" {
		t.Errorf("high risk order = %s, %s; want a, b", highRisk[0].ID, highRisk[1].ID)
	}
	for _, entry := range highRisk {
		if entry.RiskLabel != "Single overlap" {
			t.Errorf("risk label = %q, want %q", entry.RiskLabel, "Single overlap")
		}
	}
}

func TestComputeConflictsCapsHighRiskAtFour(t *testing.T) {
	// Six events all overlapping in one block.
	var upcoming []models.VisibleEvent
	for i := 0; i < 6; i++ {
		id := string(rune('a' + i))
		upcoming = append(upcoming, visibleEvent(id, at(9), at(17), false))
	}

	conflictCount, highRisk := computeConflicts(upcoming)

	// Each of the 6 events overlaps the other 5.
	if conflictCount != 30 {
		t.Errorf("conflictCount = %d, want 30", conflictCount)
	}
	if len(highRisk) != 4 {
		t.Errorf("len(highRisk) = %d, want 4", len(highRisk))
	}
	if highRisk[0].RiskLabel != "Multi-overlap" {
		t.Errorf("risk label = %q, want %q", highRisk[0].RiskLabel, "Multi-overlap")
	}
}

func TestComputeConflictsNoOverlaps(t *testing.T) {
	upcoming := []models.VisibleEvent{
		visibleEvent("a", at(9), at(10), false),
		visibleEvent("b", at(11), at(12), false),
	}

	conflictCount, highRisk := computeConflicts(upcoming)
	if conflictCount != 0 {
		t.Errorf("conflictCount = %d, want 0", conflictCount)
	}
	if len(highRisk) != 0 {
		t.Errorf("len(highRisk) = %d, want 0", len(highRisk))
	}
}

func TestBuildOverview(t *testing.T) {
	now := at(12)
	day := func(d, hour int) time.Time {
		return time.Date(2026, time.March, d, hour, 0, 0, 0, time.UTC)
	}

	visible := []models.VisibleEvent{
		visibleEvent("past", day(9, 9), day(9, 10), true),
		visibleEvent("up-1", day(11, 9), day(11, 10), true),
		visibleEvent("up-2", day(11, 9), day(11, 11), false),
		visibleEvent("up-3", day(12, 9), day(12, 10), false),
	}

	invitations := []models.Invitation{
		{ID: "i1", RsvpStatus: models.RsvpInvited},
		{ID: "i2", RsvpStatus: models.RsvpAttending},
		{ID: "i3", RsvpStatus: models.RsvpAttending},
		{ID: "i4", RsvpStatus: models.RsvpDeclined},
	}

	activity := []models.ActivityLogEntry{
		{ID: "own", ActorUID: "viewer", EventID: "unrelated", CreatedAt: day(10, 8)},
		{ID: "visible", ActorUID: "other", EventID: "up-1", CreatedAt: day(10, 9)},
		{ID: "foreign", ActorUID: "other", EventID: "hidden", CreatedAt: day(10, 10)},
	}

	overview := buildOverview(visible, invitations, activity, "viewer", now)

	if overview.UpcomingCount != 3 {
		t.Errorf("UpcomingCount = %d, want 3", overview.UpcomingCount)
	}
	if overview.OwnedCount != 2 {
		t.Errorf("OwnedCount = %d, want 2", overview.OwnedCount)
	}
	if overview.InvitedCount != 2 {
		t.Errorf("InvitedCount = %d, want 2", overview.InvitedCount)
	}
	// up-1 and up-2 overlap, double counted.
	if overview.ConflictCount != 2 {
		t.Errorf("ConflictCount = %d, want 2", overview.ConflictCount)
	}

	wantDistribution := []models.ResponseBucket{
		{Status: "pending", Count: 1},
		{Status: "attending", Count: 2},
		{Status: "maybe", Count: 0},
		{Status: "declined", Count: 1},
	}
	if !reflect.DeepEqual(overview.ResponseDistribution, wantDistribution) {
		t.Errorf("ResponseDistribution = %+v, want %+v", overview.ResponseDistribution, wantDistribution)
	}

	wantDensity := []models.DensityBucket{
		{Label: "Mar 11", Count: 2},
		{Label: "Mar 12", Count: 1},
	}
	if !reflect.DeepEqual(overview.ScheduleDensity, wantDensity) {
		t.Errorf("ScheduleDensity = %+v, want %+v", overview.ScheduleDensity, wantDensity)
	}

	// Foreign activity is excluded; the rest is newest first.
	if len(overview.RecentActivity) != 2 {
		t.Fatalf("len(RecentActivity) = %d, want 2", len(overview.RecentActivity))
	}
	if overview.RecentActivity[0].ID != "visible" || overview.RecentActivity[1].ID != "own" {
		t.Errorf("RecentActivity order = %s, %s; want visible, own",
			overview.RecentActivity[0].ID, overview.RecentActivity[1].ID)
	}
}

func TestBuildOverviewIsDeterministic(t *testing.T) {
	now := at(12)
	visible := []models.VisibleEvent{
		visibleEvent("a", at(13), at(14), true),
		visibleEvent("b", at(13), at(15), false),
		visibleEvent("c", at(16), at(17), false),
	}
	invitations := []models.Invitation{{ID: "i1", RsvpStatus: models.RsvpMaybe}}
	activity := []models.ActivityLogEntry{{ID: "e1", ActorUID: "viewer", CreatedAt: at(9)}}

	first := buildOverview(visible, invitations, activity, "viewer", now)
	second := buildOverview(visible, invitations, activity, "viewer", now)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("buildOverview is not deterministic:\nfirst  = %+v\nsecond = %+v", first, second)
	}
}
