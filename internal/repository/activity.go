package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/slated-app/slated/internal/models"
	"github.com/slated-app/slated/pkg/supabase"
)

const activityTable = "event_activity_logs"

type activityRepository struct {
	client *supabase.Client
}

// NewActivityRepository creates a new activity log repository.
func NewActivityRepository(client *supabase.Client) ActivityRepository {
	return &activityRepository{client: client}
}

func (r *activityRepository) Append(ctx context.Context, entry *models.ActivityLogEntry) error {
	if _, err := r.client.Insert(ctx, activityTable, entry); err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}
	return nil
}

func (r *activityRepository) List(ctx context.Context) ([]models.ActivityLogEntry, error) {
	body, err := r.client.Select(ctx, activityTable, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}

	return decodeActivity(body)
}

func (r *activityRepository) ListByEvent(ctx context.Context, eventID string) ([]models.ActivityLogEntry, error) {
	body, err := r.client.Select(ctx, activityTable, supabase.Eq("event_id", eventID))
	if err != nil {
		return nil, fmt.Errorf("failed to list activity for event: %w", err)
	}

	return decodeActivity(body)
}

func (r *activityRepository) DeleteByEvent(ctx context.Context, eventID string) error {
	if err := r.client.Delete(ctx, activityTable, supabase.Eq("event_id", eventID)); err != nil {
		return fmt.Errorf("failed to delete activity for event: %w", err)
	}
	return nil
}

func decodeActivity(body []byte) ([]models.ActivityLogEntry, error) {
	var entries []models.ActivityLogEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal activity: %w", err)
	}
	return entries, nil
}
