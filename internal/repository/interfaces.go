package repository

import (
	"context"
	"errors"
	"time"

	"github.com/slated-app/slated/internal/models"
)

// ErrNotFound is returned when a point lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a conditional update matched no row because
// the row changed underneath it.
var ErrConflict = errors.New("concurrent modification")

// EventRepository defines the interface for event storage access.
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) (*models.Event, error)
	GetByID(ctx context.Context, id string) (*models.Event, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.Event, error)
	ListByOrganizer(ctx context.Context, organizerUID string) ([]models.Event, error)
	Update(ctx context.Context, id string, event *models.Event) error
	// UpdateCounts writes new invitation counts only if the event's
	// updated_at still equals expectedUpdatedAt (compare-and-swap).
	// Returns ErrConflict on a miss.
	UpdateCounts(ctx context.Context, id string, counts models.InvitationCounts, expectedUpdatedAt, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// InvitationRepository defines the interface for invitation storage access.
type InvitationRepository interface {
	CreateBatch(ctx context.Context, invitations []models.Invitation) ([]models.Invitation, error)
	GetByID(ctx context.Context, id string) (*models.Invitation, error)
	ListByEvent(ctx context.Context, eventID string) ([]models.Invitation, error)
	ListByInviteeUID(ctx context.Context, uid string) ([]models.Invitation, error)
	ListByInviteeEmail(ctx context.Context, normalizedEmail string) ([]models.Invitation, error)
	// UpdateStatus writes the RSVP transition only if the invitation's
	// updated_at still equals expectedUpdatedAt (compare-and-swap).
	// Returns ErrConflict on a miss.
	UpdateStatus(ctx context.Context, id string, status models.RsvpStatus, inviteeName string, expectedUpdatedAt, respondedAt time.Time) error
	DeleteByEvent(ctx context.Context, eventID string) error
}

// ActivityRepository defines the interface for the append-only activity log.
type ActivityRepository interface {
	Append(ctx context.Context, entry *models.ActivityLogEntry) error
	List(ctx context.Context) ([]models.ActivityLogEntry, error)
	ListByEvent(ctx context.Context, eventID string) ([]models.ActivityLogEntry, error)
	DeleteByEvent(ctx context.Context, eventID string) error
}
