package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/slated-app/slated/internal/models"
	"github.com/slated-app/slated/pkg/supabase"
)

const eventsTable = "events"

type eventRepository struct {
	client *supabase.Client
}

// NewEventRepository creates a new event repository.
func NewEventRepository(client *supabase.Client) EventRepository {
	return &eventRepository{client: client}
}

func (r *eventRepository) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	body, err := r.client.Insert(ctx, eventsTable, event)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	events, err := decodeEvents(body)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("no event returned")
	}

	return &events[0], nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	body, err := r.client.Select(ctx, eventsTable, supabase.Eq("id", id))
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	events, err := decodeEvents(body)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrNotFound
	}

	return &events[0], nil
}

func (r *eventRepository) GetByIDs(ctx context.Context, ids []string) ([]models.Event, error) {
	if len(ids) == 0 {
		return []models.Event{}, nil
	}

	filters := supabase.Filters{"id": "in.(" + strings.Join(ids, ",") + ")"}
	body, err := r.client.Select(ctx, eventsTable, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get events by ids: %w", err)
	}

	return decodeEvents(body)
}

func (r *eventRepository) ListByOrganizer(ctx context.Context, organizerUID string) ([]models.Event, error) {
	body, err := r.client.Select(ctx, eventsTable, supabase.Eq("organizer_uid", organizerUID))
	if err != nil {
		return nil, fmt.Errorf("failed to list owned events: %w", err)
	}

	return decodeEvents(body)
}

func (r *eventRepository) Update(ctx context.Context, id string, event *models.Event) error {
	body, err := r.client.Update(ctx, eventsTable, supabase.Eq("id", id), event)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	events, err := decodeEvents(body)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *eventRepository) UpdateCounts(ctx context.Context, id string, counts models.InvitationCounts, expectedUpdatedAt, updatedAt time.Time) error {
	// The updated_at equality filter is the compare-and-swap guard: a
	// concurrent writer bumps updated_at, the patch matches nothing, and
	// the caller retries with fresh state.
	filters := supabase.Filters{
		"id":         "eq." + id,
		"updated_at": "eq." + pgTime(expectedUpdatedAt),
	}

	patch := map[string]any{
		"invitation_counts": counts,
		"updated_at":        pgTime(updatedAt),
	}

	body, err := r.client.Update(ctx, eventsTable, filters, patch)
	if err != nil {
		return fmt.Errorf("failed to update invitation counts: %w", err)
	}

	events, err := decodeEvents(body)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return ErrConflict
	}

	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Delete(ctx, eventsTable, supabase.Eq("id", id)); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

func decodeEvents(body []byte) ([]models.Event, error) {
	var events []models.Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("failed to unmarshal events: %w", err)
	}
	return events, nil
}
