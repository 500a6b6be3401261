package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/slated-app/slated/internal/models"
	"github.com/slated-app/slated/pkg/supabase"
)

const invitationsTable = "event_invitations"

type invitationRepository struct {
	client *supabase.Client
}

// NewInvitationRepository creates a new invitation repository.
func NewInvitationRepository(client *supabase.Client) InvitationRepository {
	return &invitationRepository{client: client}
}

func (r *invitationRepository) CreateBatch(ctx context.Context, invitations []models.Invitation) ([]models.Invitation, error) {
	if len(invitations) == 0 {
		return []models.Invitation{}, nil
	}

	body, err := r.client.Insert(ctx, invitationsTable, invitations)
	if err != nil {
		return nil, fmt.Errorf("failed to create invitations: %w", err)
	}

	return decodeInvitations(body)
}

func (r *invitationRepository) GetByID(ctx context.Context, id string) (*models.Invitation, error) {
	body, err := r.client.Select(ctx, invitationsTable, supabase.Eq("id", id))
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	invitations, err := decodeInvitations(body)
	if err != nil {
		return nil, err
	}
	if len(invitations) == 0 {
		return nil, ErrNotFound
	}

	return &invitations[0], nil
}

func (r *invitationRepository) ListByEvent(ctx context.Context, eventID string) ([]models.Invitation, error) {
	body, err := r.client.Select(ctx, invitationsTable, supabase.Eq("event_id", eventID))
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations for event: %w", err)
	}

	return decodeInvitations(body)
}

func (r *invitationRepository) ListByInviteeUID(ctx context.Context, uid string) ([]models.Invitation, error) {
	body, err := r.client.Select(ctx, invitationsTable, supabase.Eq("invitee_uid", uid))
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations by uid: %w", err)
	}

	return decodeInvitations(body)
}

func (r *invitationRepository) ListByInviteeEmail(ctx context.Context, normalizedEmail string) ([]models.Invitation, error) {
	body, err := r.client.Select(ctx, invitationsTable, supabase.Eq("normalized_invitee_email", normalizedEmail))
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations by email: %w", err)
	}

	return decodeInvitations(body)
}

func (r *invitationRepository) UpdateStatus(ctx context.Context, id string, status models.RsvpStatus, inviteeName string, expectedUpdatedAt, respondedAt time.Time) error {
	// The updated_at guard serializes concurrent responders: a racing
	// write bumps the timestamp, this patch matches nothing, and the
	// caller re-reads before retrying.
	filters := supabase.Filters{
		"id":         "eq." + id,
		"updated_at": "eq." + pgTime(expectedUpdatedAt),
	}

	patch := map[string]any{
		"rsvp_status":  status,
		"invitee_name": inviteeName,
		"responded_at": pgTime(respondedAt),
		"updated_at":   pgTime(respondedAt),
	}

	body, err := r.client.Update(ctx, invitationsTable, filters, patch)
	if err != nil {
		return fmt.Errorf("failed to update invitation status: %w", err)
	}

	invitations, err := decodeInvitations(body)
	if err != nil {
		return err
	}
	if len(invitations) == 0 {
		return ErrConflict
	}

	return nil
}

func (r *invitationRepository) DeleteByEvent(ctx context.Context, eventID string) error {
	if err := r.client.Delete(ctx, invitationsTable, supabase.Eq("event_id", eventID)); err != nil {
		return fmt.Errorf("failed to delete invitations for event: %w", err)
	}
	return nil
}

func decodeInvitations(body []byte) ([]models.Invitation, error) {
	var invitations []models.Invitation
	if err := json.Unmarshal(body, &invitations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal invitations: %w", err)
	}
	return invitations, nil
}
