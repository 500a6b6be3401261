package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/slated-app/slated/internal/models"
)

func newInvitationFixture(accounts map[string]LinkedAccount) (InvitationService, *mockEventRepository, *mockInvitationRepository, *mockActivityRepository) {
	eventRepo := newMockEventRepository()
	invitationRepo := newMockInvitationRepository()
	activityRepo := newMockActivityRepository()
	svc := NewInvitationService(eventRepo, invitationRepo, activityRepo, &mockAccountResolver{accounts: accounts}, nopLogger{})
	return svc, eventRepo, invitationRepo, activityRepo
}

func TestInviteNormalizesDedupesAndLinks(t *testing.T) {
	svc, eventRepo, _, activityRepo := newInvitationFixture(map[string]LinkedAccount{
		"ada@example.com": {UID: "ada-uid", Name: "Ada"},
	})
	eventRepo.events["e1"] = testEvent("e1", testUser.UID, at(10), at(11))

	created, err := svc.Invite(context.Background(), testUser, "e1", []string{
		"Ada@Example.com",
		"ada@example.com ",
		"grace@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(created) != 2 {
		t.Fatalf("len(created) = %d, want 2 (duplicate collapsed)", len(created))
	}

	linked := created[0]
	if linked.NormalizedInviteeEmail != "ada@example.com" {
		t.Errorf("normalized email = %q", linked.NormalizedInviteeEmail)
	}
	if linked.InviteeUID != "ada-uid" || linked.LinkedAt == nil {
		t.Errorf("linked account not applied: %+v", linked)
	}
	if created[1].InviteeUID != "" || created[1].LinkedAt != nil {
		t.Errorf("unknown address must stay unlinked: %+v", created[1])
	}

	for _, invitation := range created {
		if invitation.RsvpStatus != models.RsvpInvited {
			t.Errorf("new invitation status = %q, want invited", invitation.RsvpStatus)
		}
		if invitation.ID != buildInvitationID("e1", invitation.NormalizedInviteeEmail) {
			t.Errorf("invitation id = %q not deterministic", invitation.ID)
		}
	}

	// Counters track the two new invitations.
	event := eventRepo.events["e1"]
	if event.Counts.Invited != 2 {
		t.Errorf("Counts.Invited = %d, want 2", event.Counts.Invited)
	}

	if len(activityRepo.entries) != 1 || activityRepo.entries[0].Action != models.ActivityInvited {
		t.Errorf("expected one 'invited' activity entry, got %+v", activityRepo.entries)
	}
}

func TestInviteSkipsAlreadyInvitedEmails(t *testing.T) {
	svc, eventRepo, invitationRepo, _ := newInvitationFixture(nil)
	eventRepo.events["e1"] = testEvent("e1", testUser.UID, at(10), at(11))
	invitationRepo.invitations["existing"] = &models.Invitation{
		ID:                     "existing",
		EventID:                "e1",
		NormalizedInviteeEmail: "ada@example.com",
		RsvpStatus:             models.RsvpInvited,
	}

	created, err := svc.Invite(context.Background(), testUser, "e1", []string{"ADA@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created) != 0 {
		t.Errorf("re-inviting an existing address must be a no-op, got %+v", created)
	}
	// No-op invites must not touch the counters.
	if eventRepo.events["e1"].Counts.Invited != 0 {
		t.Errorf("counts changed on no-op invite")
	}
}

func TestInviteRequiresOrganizer(t *testing.T) {
	svc, eventRepo, _, _ := newInvitationFixture(nil)
	eventRepo.events["e1"] = testEvent("e1", "someone-else", at(10), at(11))

	if _, err := svc.Invite(context.Background(), testUser, "e1", []string{"ada@example.com"}); err != ErrForbidden {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
	if _, err := svc.Invite(context.Background(), testUser, "missing", []string{"ada@example.com"}); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestInviteRejectsEmptyEmailList(t *testing.T) {
	svc, eventRepo, _, _ := newInvitationFixture(nil)
	eventRepo.events["e1"] = testEvent("e1", testUser.UID, at(10), at(11))

	if _, err := svc.Invite(context.Background(), testUser, "e1", []string{"  ", ""}); err != ErrNoValidEmails {
		t.Errorf("err = %v, want ErrNoValidEmails", err)
	}
}

func TestRsvpTransitionsCounters(t *testing.T) {
	svc, eventRepo, invitationRepo, activityRepo := newInvitationFixture(nil)

	event := testEvent("e1", "organizer", at(10), at(11))
	event.Counts = models.InvitationCounts{Invited: 1}
	eventRepo.events["e1"] = event

	invitationRepo.invitations["i1"] = &models.Invitation{
		ID:         "i1",
		EventID:    "e1",
		InviteeUID: testUser.UID,
		RsvpStatus: models.RsvpInvited,
	}

	updated, err := svc.Rsvp(context.Background(), testUser, "i1", models.RsvpAttending)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if updated.RsvpStatus != models.RsvpAttending {
		t.Errorf("status = %q, want attending", updated.RsvpStatus)
	}
	if updated.RespondedAt == nil {
		t.Errorf("RespondedAt was not set")
	}
	if updated.InviteeName != testUser.DisplayName {
		t.Errorf("InviteeName = %q, want %q", updated.InviteeName, testUser.DisplayName)
	}

	counts := eventRepo.events["e1"].Counts
	if counts.Invited != 0 || counts.Attending != 1 {
		t.Errorf("counts = %+v, want invited moved to attending", counts)
	}

	// Changing the answer moves the counter again without touching others.
	if _, err := svc.Rsvp(context.Background(), testUser, "i1", models.RsvpDeclined); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	counts = eventRepo.events["e1"].Counts
	if counts.Attending != 0 || counts.Declined != 1 {
		t.Errorf("counts = %+v, want attending moved to declined", counts)
	}

	if len(activityRepo.entries) != 2 {
		t.Fatalf("len(activity) = %d, want 2", len(activityRepo.entries))
	}
	for _, entry := range activityRepo.entries {
		if entry.Action != models.ActivityRsvpUpdated {
			t.Errorf("activity action = %q, want rsvp_updated", entry.Action)
		}
	}
}

func TestRsvpRetriesOnCountsConflict(t *testing.T) {
	svc, eventRepo, invitationRepo, _ := newInvitationFixture(nil)

	event := testEvent("e1", "organizer", at(10), at(11))
	event.Counts = models.InvitationCounts{Invited: 1}
	eventRepo.events["e1"] = event
	eventRepo.conflictsBeforeSuccess = 2

	invitationRepo.invitations["i1"] = &models.Invitation{
		ID:         "i1",
		EventID:    "e1",
		InviteeUID: testUser.UID,
		RsvpStatus: models.RsvpInvited,
	}

	if _, err := svc.Rsvp(context.Background(), testUser, "i1", models.RsvpMaybe); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if eventRepo.updateCountCalls != 3 {
		t.Errorf("updateCountCalls = %d, want 3 (two conflicts then success)", eventRepo.updateCountCalls)
	}
	counts := eventRepo.events["e1"].Counts
	if counts.Invited != 0 || counts.Maybe != 1 {
		t.Errorf("counts = %+v after retries", counts)
	}
}

func TestRsvpGivesUpAfterRepeatedConflicts(t *testing.T) {
	svc, eventRepo, invitationRepo, _ := newInvitationFixture(nil)

	eventRepo.events["e1"] = testEvent("e1", "organizer", at(10), at(11))
	eventRepo.conflictsBeforeSuccess = casRetryAttempts

	invitationRepo.invitations["i1"] = &models.Invitation{
		ID:         "i1",
		EventID:    "e1",
		InviteeUID: testUser.UID,
		RsvpStatus: models.RsvpInvited,
	}

	if _, err := svc.Rsvp(context.Background(), testUser, "i1", models.RsvpMaybe); err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
}

func TestRsvpOnlyForInvitee(t *testing.T) {
	svc, eventRepo, invitationRepo, _ := newInvitationFixture(nil)
	eventRepo.events["e1"] = testEvent("e1", "organizer", at(10), at(11))

	invitationRepo.invitations["linked"] = &models.Invitation{
		ID:         "linked",
		EventID:    "e1",
		InviteeUID: "someone-else",
		RsvpStatus: models.RsvpInvited,
	}
	invitationRepo.invitations["unlinked"] = &models.Invitation{
		ID:                     "unlinked",
		EventID:                "e1",
		NormalizedInviteeEmail: testUser.NormalizedEmail,
		RsvpStatus:             models.RsvpInvited,
	}

	if _, err := svc.Rsvp(context.Background(), testUser, "linked", models.RsvpAttending); err != ErrForbidden {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
	// Unlinked invitations match on the normalized email.
	if _, err := svc.Rsvp(context.Background(), testUser, "unlinked", models.RsvpAttending); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := svc.Rsvp(context.Background(), testUser, "missing", models.RsvpAttending); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListForUserMergesAndSortsByEventStart(t *testing.T) {
	svc, _, invitationRepo, _ := newInvitationFixture(nil)

	invitationRepo.invitations["late"] = &models.Invitation{
		ID:            "late",
		EventID:       "e-late",
		InviteeUID:    testUser.UID,
		EventStartsAt: at(15),
	}
	invitationRepo.invitations["early"] = &models.Invitation{
		ID:                     "early",
		EventID:                "e-early",
		NormalizedInviteeEmail: testUser.NormalizedEmail,
		EventStartsAt:          at(9),
	}
	// Linked and addressed to the same user: must appear once.
	invitationRepo.invitations["both"] = &models.Invitation{
		ID:                     "both",
		EventID:                "e-both",
		InviteeUID:             testUser.UID,
		NormalizedInviteeEmail: testUser.NormalizedEmail,
		EventStartsAt:          at(12),
	}

	invitations, err := svc.ListForUser(context.Background(), testUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(invitations) != 3 {
		t.Fatalf("len = %d, want 3", len(invitations))
	}
	wantOrder := []string{"early", "both", "late"}
	for i, want := range wantOrder {
		if invitations[i].ID != want {
			t.Errorf("position %d = %q, want %q", i, invitations[i].ID, want)
		}
	}
}

func TestRsvpRereadsInvitationWhenStatusRaced(t *testing.T) {
	// A stale read sees the invitation still "invited" while another
	// responder already moved it to "attending". The stale status write
	// must miss, and the retry must derive the counter delta from the
	// fresh state so the buckets keep summing to the invitations issued.
	svc, eventRepo, invitationRepo, _ := newInvitationFixture(nil)

	event := testEvent("e1", "organizer", at(10), at(11))
	event.Counts = models.InvitationCounts{Attending: 1}
	eventRepo.events["e1"] = event

	current := &models.Invitation{
		ID:         "i1",
		EventID:    "e1",
		InviteeUID: testUser.UID,
		RsvpStatus: models.RsvpAttending,
		UpdatedAt:  at(9),
	}
	invitationRepo.invitations["i1"] = current

	stale := *current
	stale.RsvpStatus = models.RsvpInvited
	stale.UpdatedAt = at(8)
	invitationRepo.staleSnapshot = &stale
	invitationRepo.staleReads = 1

	if _, err := svc.Rsvp(context.Background(), testUser, "i1", models.RsvpMaybe); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if invitationRepo.updateStatusCalls != 2 {
		t.Errorf("updateStatusCalls = %d, want 2 (miss then retry)", invitationRepo.updateStatusCalls)
	}

	counts := eventRepo.events["e1"].Counts
	if counts.Maybe != 1 || counts.Attending != 0 || counts.Invited != 0 {
		t.Errorf("counts = %+v, want attending moved to maybe", counts)
	}
	if counts.Total() != 1 {
		t.Errorf("counts total = %d, want 1 (one invitation issued)", counts.Total())
	}
}

func TestRsvpGivesUpWhenStatusKeepsRacing(t *testing.T) {
	svc, eventRepo, invitationRepo, _ := newInvitationFixture(nil)

	event := testEvent("e1", "organizer", at(10), at(11))
	event.Counts = models.InvitationCounts{Invited: 1}
	eventRepo.events["e1"] = event

	invitationRepo.invitations["i1"] = &models.Invitation{
		ID:         "i1",
		EventID:    "e1",
		InviteeUID: testUser.UID,
		RsvpStatus: models.RsvpInvited,
		UpdatedAt:  at(9),
	}

	stale := *invitationRepo.invitations["i1"]
	stale.UpdatedAt = at(8)
	invitationRepo.staleSnapshot = &stale
	invitationRepo.staleReads = casRetryAttempts

	if _, err := svc.Rsvp(context.Background(), testUser, "i1", models.RsvpAttending); err == nil {
		t.Fatal("expected error after exhausting status retries")
	}

	// Nothing committed, so the counters must be untouched.
	counts := eventRepo.events["e1"].Counts
	if counts.Invited != 1 || counts.Attending != 0 {
		t.Errorf("counts = %+v, must be unchanged", counts)
	}
}

func TestRsvpLeavesCountersUntouchedWhenStatusWriteFails(t *testing.T) {
	svc, eventRepo, invitationRepo, _ := newInvitationFixture(nil)

	event := testEvent("e1", "organizer", at(10), at(11))
	event.Counts = models.InvitationCounts{Invited: 1}
	eventRepo.events["e1"] = event

	invitationRepo.invitations["i1"] = &models.Invitation{
		ID:         "i1",
		EventID:    "e1",
		InviteeUID: testUser.UID,
		RsvpStatus: models.RsvpInvited,
	}
	invitationRepo.failUpdateStatus = errors.New("storage unavailable")

	if _, err := svc.Rsvp(context.Background(), testUser, "i1", models.RsvpAttending); err == nil {
		t.Fatal("expected error when the status write fails")
	}

	counts := eventRepo.events["e1"].Counts
	if counts.Invited != 1 || counts.Attending != 0 {
		t.Errorf("counts = %+v, must be untouched by a failed status write", counts)
	}
	if eventRepo.updateCountCalls != 0 {
		t.Errorf("updateCountCalls = %d, want 0", eventRepo.updateCountCalls)
	}
}

func TestRsvpConcurrentWriterSimulation(t *testing.T) {
	// Writer A reads the event, then writer B commits first. A's CAS must
	// miss and its retry must apply the delta on top of B's counts.
	svc, eventRepo, invitationRepo, _ := newInvitationFixture(nil)

	event := testEvent("e1", "organizer", at(10), at(11))
	event.Counts = models.InvitationCounts{Invited: 2}
	eventRepo.events["e1"] = event
	// Simulate B's commit landing between A's read and A's write.
	eventRepo.conflictsBeforeSuccess = 1

	invitationRepo.invitations["i1"] = &models.Invitation{
		ID:         "i1",
		EventID:    "e1",
		InviteeUID: testUser.UID,
		RsvpStatus: models.RsvpInvited,
	}

	before := time.Now()
	if _, err := svc.Rsvp(context.Background(), testUser, "i1", models.RsvpAttending); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	counts := eventRepo.events["e1"].Counts
	if counts.Invited != 1 || counts.Attending != 1 {
		t.Errorf("counts = %+v, want one invited moved to attending", counts)
	}
	if eventRepo.events["e1"].UpdatedAt.Before(before) {
		t.Errorf("updated_at was not bumped by the winning write")
	}
}
