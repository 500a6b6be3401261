package service

import (
	"context"
	"errors"

	"github.com/slated-app/slated/internal/models"
)

// Sentinel errors translated to HTTP problems at the handler layer.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidTimeRange = errors.New("ends_at must be after starts_at")
	ErrNoValidEmails    = errors.New("at least one valid email is required")
)

// EventService manages event lifecycle and visibility.
type EventService interface {
	Create(ctx context.Context, user models.UserContext, req models.CreateEventRequest) (*models.Event, error)
	Update(ctx context.Context, user models.UserContext, eventID string, req models.CreateEventRequest) (*models.Event, error)
	Delete(ctx context.Context, user models.UserContext, eventID string) error
	GetDetail(ctx context.Context, user models.UserContext, eventID string) (*models.EventDetailResponse, error)
	ListVisible(ctx context.Context, user models.UserContext, filters models.EventFilters) (*models.EventListResponse, error)
}

// InvitationService manages invitation issuance and RSVP transitions.
type InvitationService interface {
	Invite(ctx context.Context, user models.UserContext, eventID string, emails []string) ([]models.Invitation, error)
	ListForEvent(ctx context.Context, user models.UserContext, eventID string) ([]models.Invitation, error)
	ListForUser(ctx context.Context, user models.UserContext) ([]models.Invitation, error)
	Rsvp(ctx context.Context, user models.UserContext, invitationID string, status models.RsvpStatus) (*models.Invitation, error)
}

// AnalyticsService computes the derived analytics snapshot.
type AnalyticsService interface {
	Overview(ctx context.Context, user models.UserContext) (*models.AnalyticsOverview, error)
}

// InsightService produces AI-backed insights with deterministic fallbacks.
type InsightService interface {
	SchedulingAssistant(ctx context.Context, user models.UserContext, req models.SchedulingAssistantRequest) (*models.SchedulingInsight, error)
	DashboardInsight(ctx context.Context, user models.UserContext) (*models.DashboardInsight, error)
	EventRecommendation(ctx context.Context, user models.UserContext) (*models.RecommendationInsight, error)
}

// Generator is the text-generation collaborator. Each call carries its
// own sampling temperature; any failure is absorbed by the deterministic
// fallback path.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float64) (string, error)
}

// LinkedAccount is a registered account matched to an invitee email.
type LinkedAccount struct {
	UID  string
	Name string
}

// AccountResolver looks up registered accounts so invitations can be
// linked at issuance time. A nil result with nil error means no account
// exists for the address.
type AccountResolver interface {
	ResolveEmail(ctx context.Context, email string) (*LinkedAccount, error)
}
