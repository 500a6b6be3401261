package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/slated-app/slated/internal/config"
	"github.com/slated-app/slated/internal/models"
	"github.com/slated-app/slated/pkg/supabase"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Reset and seed demo data",
	Long: `Delete all events, invitations, and activity logs, then insert a
deterministic demo dataset. Refuses to run against a project whose URL does
not look like a development environment unless --force is given.`,
	RunE: runSeed,
}

var (
	seedForce  bool
	seedDryRun bool
)

// safeProjectTokens mark Supabase URLs that are safe to wipe.
var safeProjectTokens = []string{"test", "dev", "staging", "sandbox", "demo", "localhost", "127.0.0.1"}

var seedTables = []string{"event_activity_logs", "event_invitations", "events"}

func init() {
	seedCmd.Flags().BoolVar(&seedForce, "force", false, "Seed even if the project URL does not look like a dev environment")
	seedCmd.Flags().BoolVar(&seedDryRun, "dry-run", false, "Report what would be written without touching storage")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if !seedForce && !looksLikeDevProject(cfg.Supabase.URL) {
		return fmt.Errorf("refusing to seed %q without --force", cfg.Supabase.URL)
	}

	client := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.ServiceKey)
	ctx := context.Background()

	events := buildSeedEvents()
	invitations := buildSeedInvitations(events)
	activity := buildSeedActivity(events)

	// Counters must agree with the invitations being inserted.
	countsByEvent := make(map[string]models.InvitationCounts)
	for _, invitation := range invitations {
		status := invitation.RsvpStatus
		countsByEvent[invitation.EventID] = countsByEvent[invitation.EventID].ApplyDelta(nil, status)
	}
	for i := range events {
		events[i].Counts = countsByEvent[events[i].ID]
	}

	if seedDryRun {
		fmt.Printf("dry run: would reset %v and insert %d events, %d invitations, %d activity entries\n",
			seedTables, len(events), len(invitations), len(activity))
		return nil
	}

	for _, table := range seedTables {
		if err := client.Delete(ctx, table, supabase.Filters{"id": "not.is.null"}); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}

	if _, err := client.Insert(ctx, "events", events); err != nil {
		return fmt.Errorf("insert events: %w", err)
	}
	if _, err := client.Insert(ctx, "event_invitations", invitations); err != nil {
		return fmt.Errorf("insert invitations: %w", err)
	}
	if _, err := client.Insert(ctx, "event_activity_logs", activity); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}

	fmt.Printf("seeded %d events, %d invitations, %d activity entries\n",
		len(events), len(invitations), len(activity))
	return nil
}

func looksLikeDevProject(url string) bool {
	lowered := strings.ToLower(url)
	for _, token := range safeProjectTokens {
		if strings.Contains(lowered, token) {
			return true
		}
	}
	return false
}

const seedOrganizerUID = "seed-user-001"

type seedInvitee struct {
	uid   string
	email string
	name  string
}

var seedInvitees = []seedInvitee{
	{uid: "seed-user-002", email: "attendee-one@example.com", name: "Jordan Attendee"},
	{uid: "seed-user-003", email: "attendee-two@example.com", name: "Sam RSVP"},
}

func buildSeedEvents() []models.Event {
	now := time.Now().UTC()
	events := make([]models.Event, 0, 8)

	for i := 0; i < 8; i++ {
		startsAt := now.Add(time.Duration(i+1)*24*time.Hour + time.Duration(i%3)*2*time.Hour)
		endsAt := startsAt.Add(90 * time.Minute)

		title := fmt.Sprintf("Launch Planning %d", i+1)
		location := "Remote Boardroom"
		if i%2 == 0 {
			title = fmt.Sprintf("Design Sync %d", i+1)
			location = "Lisbon Studio"
		}
		description := fmt.Sprintf("Structured planning session for %s with invited collaborators.", strings.ToLower(title))
		blob := strings.ToLower(strings.Join([]string{title, description, location, "utc"}, " "))

		events = append(events, models.Event{
			ID:              fmt.Sprintf("seed-event-%03d", i+1),
			Title:           title,
			Description:     description,
			Location:        location,
			StartsAt:        startsAt,
			EndsAt:          endsAt,
			Timezone:        "UTC",
			OrganizerUID:    seedOrganizerUID,
			OrganizerName:   "Taylor Organizer",
			SearchBlob:      blob,
			AISummary:       fmt.Sprintf("AI-ready briefing for %s.", strings.ToLower(title)),
			AIAgendaBullets: []string{"Opening context", "Core discussion", "Commitments"},
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}

	return events
}

func buildSeedInvitations(events []models.Event) []models.Invitation {
	now := time.Now().UTC()
	invitations := make([]models.Invitation, 0, len(events)*2)

	for i, event := range events {
		var statuses [2]models.RsvpStatus
		switch i % 3 {
		case 0:
			statuses = [2]models.RsvpStatus{models.RsvpAttending, models.RsvpMaybe}
		case 1:
			statuses = [2]models.RsvpStatus{models.RsvpInvited, models.RsvpDeclined}
		default:
			statuses = [2]models.RsvpStatus{models.RsvpAttending, models.RsvpInvited}
		}

		for j, invitee := range seedInvitees {
			linkedAt := now
			invitation := models.Invitation{
				ID:                     fmt.Sprintf("%s-invite-%d", event.ID, j+1),
				EventID:                event.ID,
				EventTitle:             event.Title,
				EventStartsAt:          event.StartsAt,
				EventEndsAt:            event.EndsAt,
				Timezone:               event.Timezone,
				InviteeUID:             invitee.uid,
				InviteeEmail:           invitee.email,
				NormalizedInviteeEmail: invitee.email,
				InviteeName:            invitee.name,
				OrganizerUID:           event.OrganizerUID,
				OrganizerName:          event.OrganizerName,
				RsvpStatus:             statuses[j],
				LinkedAt:               &linkedAt,
				CreatedAt:              now,
				UpdatedAt:              now,
			}
			if statuses[j] != models.RsvpInvited {
				respondedAt := now
				invitation.RespondedAt = &respondedAt
			}
			invitations = append(invitations, invitation)
		}
	}

	return invitations
}

func buildSeedActivity(events []models.Event) []models.ActivityLogEntry {
	now := time.Now().UTC()
	activity := make([]models.ActivityLogEntry, 0, len(events))

	for i, event := range events {
		activity = append(activity, models.ActivityLogEntry{
			ID:        fmt.Sprintf("seed-activity-%03d", i+1),
			EventID:   event.ID,
			ActorUID:  event.OrganizerUID,
			ActorName: event.OrganizerName,
			Action:    models.ActivityCreated,
			Metadata:  map[string]any{"title": event.Title},
			CreatedAt: now,
		})
	}

	return activity
}
