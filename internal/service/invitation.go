package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/slated-app/slated/internal/logger"
	"github.com/slated-app/slated/internal/models"
	"github.com/slated-app/slated/internal/repository"
)

// casRetryAttempts bounds the compare-and-swap loops on the invitation
// status and the event's invitation counters. Contention here is rare
// and short-lived.
const casRetryAttempts = 3

type invitationService struct {
	events      repository.EventRepository
	invitations repository.InvitationRepository
	activity    repository.ActivityRepository
	accounts    AccountResolver
	log         logger.Logger
}

// NewInvitationService creates the invitation service.
func NewInvitationService(
	events repository.EventRepository,
	invitations repository.InvitationRepository,
	activity repository.ActivityRepository,
	accounts AccountResolver,
	log logger.Logger,
) InvitationService {
	return &invitationService{
		events:      events,
		invitations: invitations,
		activity:    activity,
		accounts:    accounts,
		log:         log,
	}
}

func (s *invitationService) Invite(ctx context.Context, user models.UserContext, eventID string, emails []string) ([]models.Invitation, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerUID != user.UID {
		return nil, ErrForbidden
	}

	cleaned := dedupeEmails(emails)
	if len(cleaned) == 0 {
		return nil, ErrNoValidEmails
	}

	existing, err := s.invitations.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list existing invitations: %w", err)
	}
	alreadyInvited := make(map[string]struct{}, len(existing))
	for _, invitation := range existing {
		alreadyInvited[invitation.NormalizedInviteeEmail] = struct{}{}
	}

	now := time.Now().UTC()
	pending := make([]models.Invitation, 0, len(cleaned))
	for _, email := range cleaned {
		if _, dup := alreadyInvited[email]; dup {
			continue
		}
		pending = append(pending, s.buildInvitation(ctx, event, user, email, now))
	}

	if len(pending) == 0 {
		return []models.Invitation{}, nil
	}

	created, err := s.invitations.CreateBatch(ctx, pending)
	if err != nil {
		return nil, fmt.Errorf("create invitations: %w", err)
	}

	if err := s.applyCountDeltas(ctx, eventID, func(counts models.InvitationCounts) models.InvitationCounts {
		for range created {
			counts = counts.ApplyDelta(nil, models.RsvpInvited)
		}
		return counts
	}); err != nil {
		return nil, err
	}

	invitedEmails := make([]string, len(created))
	for i, invitation := range created {
		invitedEmails[i] = invitation.InviteeEmail
	}
	s.recordActivity(ctx, user, eventID, models.ActivityInvited, map[string]any{
		"emails": invitedEmails,
		"count":  len(created),
	})

	return created, nil
}

// ListForEvent returns the full invitation roster for an event. The roster
// is organizer-only.
func (s *invitationService) ListForEvent(ctx context.Context, user models.UserContext, eventID string) ([]models.Invitation, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerUID != user.UID {
		return nil, ErrForbidden
	}

	invitations, err := s.invitations.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list invitations for event: %w", err)
	}

	sortInvitationsByStart(invitations)
	return invitations, nil
}

func (s *invitationService) ListForUser(ctx context.Context, user models.UserContext) ([]models.Invitation, error) {
	byUID, err := s.invitations.ListByInviteeUID(ctx, user.UID)
	if err != nil {
		return nil, fmt.Errorf("list invitations by uid: %w", err)
	}

	byEmail, err := s.invitations.ListByInviteeEmail(ctx, NormalizeEmail(user.Email))
	if err != nil {
		return nil, fmt.Errorf("list invitations by email: %w", err)
	}

	seen := make(map[string]struct{}, len(byUID))
	merged := make([]models.Invitation, 0, len(byUID)+len(byEmail))
	for _, invitation := range append(byUID, byEmail...) {
		if _, dup := seen[invitation.ID]; dup {
			continue
		}
		seen[invitation.ID] = struct{}{}
		merged = append(merged, invitation)
	}

	sortInvitationsByStart(merged)
	return merged, nil
}

func (s *invitationService) Rsvp(ctx context.Context, user models.UserContext, invitationID string, status models.RsvpStatus) (*models.Invitation, error) {
	// The invitation's updated_at is the serialization point for
	// concurrent responders: the status write is a compare-and-swap, and
	// the counter delta is derived from the snapshot that won it, so
	// every committed transition moves exactly one invitation between
	// buckets. A miss re-reads before retrying; a lost race never applies
	// a delta computed from stale state.
	var lastErr error
	for attempt := 0; attempt < casRetryAttempts; attempt++ {
		invitation, err := s.invitations.GetByID(ctx, invitationID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("get invitation: %w", err)
		}

		if !s.isInvitee(invitation, user) {
			return nil, ErrForbidden
		}

		previous := invitation.RsvpStatus
		now := time.Now().UTC()
		err = s.invitations.UpdateStatus(ctx, invitationID, status, user.DisplayName, invitation.UpdatedAt, now)
		if errors.Is(err, repository.ErrConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update invitation status: %w", err)
		}

		if err := s.applyCountDeltas(ctx, invitation.EventID, func(counts models.InvitationCounts) models.InvitationCounts {
			return counts.ApplyDelta(&previous, status)
		}); err != nil {
			return nil, err
		}

		invitation.RsvpStatus = status
		invitation.InviteeName = user.DisplayName
		invitation.RespondedAt = &now
		invitation.UpdatedAt = now

		s.recordActivity(ctx, user, invitation.EventID, models.ActivityRsvpUpdated, map[string]any{
			"rsvp_status": status,
		})

		return invitation, nil
	}

	return nil, fmt.Errorf("update invitation after %d attempts: %w", casRetryAttempts, lastErr)
}

// isInvitee accepts the linked uid or, for invitations not linked yet, the
// user's normalized email.
func (s *invitationService) isInvitee(invitation *models.Invitation, user models.UserContext) bool {
	if invitation.InviteeUID != "" {
		return invitation.InviteeUID == user.UID
	}
	return invitation.NormalizedInviteeEmail == NormalizeEmail(user.Email)
}

func (s *invitationService) buildInvitation(ctx context.Context, event *models.Event, user models.UserContext, email string, now time.Time) models.Invitation {
	invitation := models.Invitation{
		ID:                     buildInvitationID(event.ID, email),
		EventID:                event.ID,
		EventTitle:             event.Title,
		EventStartsAt:          event.StartsAt,
		EventEndsAt:            event.EndsAt,
		Timezone:               event.Timezone,
		InviteeEmail:           email,
		NormalizedInviteeEmail: email,
		OrganizerUID:           user.UID,
		OrganizerName:          user.DisplayName,
		RsvpStatus:             models.RsvpInvited,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	// Link the invitation immediately when the address belongs to a
	// registered account. Resolution failures degrade to an unlinked
	// invitation rather than blocking issuance.
	account, err := s.accounts.ResolveEmail(ctx, email)
	if err != nil {
		s.log.WithContext(ctx).Warn("account lookup failed",
			logger.String("event_id", event.ID),
			logger.Err(err),
		)
		return invitation
	}
	if account != nil {
		invitation.InviteeUID = account.UID
		invitation.InviteeName = account.Name
		invitation.LinkedAt = &now
	}

	return invitation
}

// applyCountDeltas retries a compare-and-swap update of the event's
// invitation counters. Each attempt re-reads the event so the delta is
// always applied to fresh state; a conflict means another writer won the
// race and the next attempt starts over.
func (s *invitationService) applyCountDeltas(ctx context.Context, eventID string, apply func(models.InvitationCounts) models.InvitationCounts) error {
	var lastErr error
	for attempt := 0; attempt < casRetryAttempts; attempt++ {
		event, err := s.events.GetByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("get event for counts: %w", err)
		}

		next := apply(event.Counts)
		err = s.events.UpdateCounts(ctx, eventID, next, event.UpdatedAt, time.Now().UTC())
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("update counts: %w", err)
		}
		lastErr = err
	}

	return fmt.Errorf("update counts after %d attempts: %w", casRetryAttempts, lastErr)
}

func (s *invitationService) recordActivity(ctx context.Context, user models.UserContext, eventID string, action models.ActivityAction, metadata map[string]any) {
	entry := &models.ActivityLogEntry{
		ID:        uuid.New().String(),
		EventID:   eventID,
		ActorUID:  user.UID,
		ActorName: user.DisplayName,
		Action:    action,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.activity.Append(ctx, entry); err != nil {
		s.log.WithContext(ctx).Warn("failed to record activity",
			logger.String("event_id", eventID),
			logger.String("action", string(action)),
			logger.Err(err),
		)
	}
}

// dedupeEmails normalizes, drops empties, and keeps first occurrences.
func dedupeEmails(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	cleaned := make([]string, 0, len(emails))
	for _, email := range emails {
		normalized := NormalizeEmail(email)
		if normalized == "" {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		cleaned = append(cleaned, normalized)
	}
	return cleaned
}
