package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/slated-app/slated/internal/logger"
	"github.com/slated-app/slated/internal/models"
	"github.com/slated-app/slated/internal/repository"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100

	// eventDetailActivityLimit caps the activity feed on the detail view.
	eventDetailActivityLimit = 12
)

type eventService struct {
	events      repository.EventRepository
	invitations repository.InvitationRepository
	activity    repository.ActivityRepository
	log         logger.Logger
}

// NewEventService creates the event service.
func NewEventService(
	events repository.EventRepository,
	invitations repository.InvitationRepository,
	activity repository.ActivityRepository,
	log logger.Logger,
) EventService {
	return &eventService{
		events:      events,
		invitations: invitations,
		activity:    activity,
		log:         log,
	}
}

func (s *eventService) Create(ctx context.Context, user models.UserContext, req models.CreateEventRequest) (*models.Event, error) {
	if !req.EndsAt.After(req.StartsAt) {
		return nil, ErrInvalidTimeRange
	}

	now := time.Now().UTC()
	event := &models.Event{
		ID:              uuid.New().String(),
		Title:           req.Title,
		Description:     req.Description,
		Location:        req.Location,
		StartsAt:        req.StartsAt,
		EndsAt:          req.EndsAt,
		Timezone:        req.Timezone,
		OrganizerUID:    user.UID,
		OrganizerName:   user.DisplayName,
		SearchBlob:      buildSearchBlob(req.Title, req.Description, req.Location, req.Timezone),
		AISummary:       req.AISummary,
		AIAgendaBullets: req.AIAgendaBullets,
		Counts:          models.InvitationCounts{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	created, err := s.events.Create(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.recordActivity(ctx, user, created.ID, models.ActivityCreated, map[string]any{
		"title":     created.Title,
		"starts_at": created.StartsAt,
	})

	return created, nil
}

func (s *eventService) Update(ctx context.Context, user models.UserContext, eventID string, req models.CreateEventRequest) (*models.Event, error) {
	if !req.EndsAt.After(req.StartsAt) {
		return nil, ErrInvalidTimeRange
	}

	existing, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if existing.OrganizerUID != user.UID {
		return nil, ErrForbidden
	}

	updated := *existing
	updated.Title = req.Title
	updated.Description = req.Description
	updated.Location = req.Location
	updated.StartsAt = req.StartsAt
	updated.EndsAt = req.EndsAt
	updated.Timezone = req.Timezone
	updated.AISummary = req.AISummary
	updated.AIAgendaBullets = req.AIAgendaBullets
	updated.SearchBlob = buildSearchBlob(req.Title, req.Description, req.Location, req.Timezone)
	updated.UpdatedAt = time.Now().UTC()

	if err := s.events.Update(ctx, eventID, &updated); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}

	s.recordActivity(ctx, user, eventID, models.ActivityUpdated, map[string]any{
		"title":     updated.Title,
		"starts_at": updated.StartsAt,
	})

	return &updated, nil
}

func (s *eventService) Delete(ctx context.Context, user models.UserContext, eventID string) error {
	existing, err := s.getEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if existing.OrganizerUID != user.UID {
		return ErrForbidden
	}

	// Cascade order matters: dependents first, so a partial failure never
	// leaves invitations pointing at a deleted event.
	if err := s.invitations.DeleteByEvent(ctx, eventID); err != nil {
		return fmt.Errorf("delete invitations: %w", err)
	}
	if err := s.activity.DeleteByEvent(ctx, eventID); err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	if err := s.events.Delete(ctx, eventID); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}

	s.recordActivity(ctx, user, eventID, models.ActivityDeleted, map[string]any{
		"title": existing.Title,
	})

	return nil
}

func (s *eventService) GetDetail(ctx context.Context, user models.UserContext, eventID string) (*models.EventDetailResponse, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	isOrganizer := event.OrganizerUID == user.UID

	invitations, err := s.invitations.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list event invitations: %w", err)
	}

	var viewerInvitation *models.Invitation
	for i := range invitations {
		if invitations[i].InviteeUID == user.UID {
			viewerInvitation = &invitations[i]
			break
		}
	}
	if viewerInvitation == nil {
		normalized := NormalizeEmail(user.Email)
		for i := range invitations {
			if invitations[i].NormalizedInviteeEmail == normalized {
				viewerInvitation = &invitations[i]
				break
			}
		}
	}

	if !isOrganizer && viewerInvitation == nil {
		return nil, ErrForbidden
	}

	activity, err := s.activity.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list event activity: %w", err)
	}
	sortActivityNewestFirst(activity)
	if len(activity) > eventDetailActivityLimit {
		activity = activity[:eventDetailActivityLimit]
	}

	detail := &models.EventDetailResponse{
		Event:            *event,
		IsOrganizer:      isOrganizer,
		ViewerInvitation: viewerInvitation,
		Invitations:      []models.Invitation{},
		Activity:         activity,
	}

	// The full invitation roster is organizer-only.
	if isOrganizer {
		detail.Invitations = invitations
	}

	return detail, nil
}

func (s *eventService) ListVisible(ctx context.Context, user models.UserContext, filters models.EventFilters) (*models.EventListResponse, error) {
	filters = normalizeFilters(filters)

	owned, err := s.events.ListByOrganizer(ctx, user.UID)
	if err != nil {
		return nil, fmt.Errorf("list owned events: %w", err)
	}

	invitations, err := s.listUserInvitations(ctx, user)
	if err != nil {
		return nil, err
	}

	invitationByEvent := make(map[string]models.Invitation, len(invitations))
	invitedIDs := make([]string, 0, len(invitations))
	for _, invitation := range invitations {
		if _, seen := invitationByEvent[invitation.EventID]; !seen {
			invitedIDs = append(invitedIDs, invitation.EventID)
		}
		invitationByEvent[invitation.EventID] = invitation
	}

	invited, err := s.events.GetByIDs(ctx, invitedIDs)
	if err != nil {
		return nil, fmt.Errorf("get invited events: %w", err)
	}

	// Merge in insertion order, owned first, deduplicating by id. Map
	// iteration order would leak into the position of equal-start events
	// after the stable sort below.
	seen := make(map[string]struct{}, len(owned)+len(invited))
	merged := make([]models.Event, 0, len(owned)+len(invited))
	appendUnseen := func(events []models.Event) {
		for _, event := range events {
			if _, dup := seen[event.ID]; dup {
				continue
			}
			seen[event.ID] = struct{}{}
			merged = append(merged, event)
		}
	}
	if filters.Scope != models.ScopeInvited {
		appendUnseen(owned)
	}
	if filters.Scope != models.ScopeOwned {
		appendUnseen(invited)
	}

	visible := make([]models.VisibleEvent, 0, len(merged))
	for _, event := range merged {
		annotated := models.VisibleEvent{
			Event:       event,
			IsOrganizer: event.OrganizerUID == user.UID,
		}
		if invitation, ok := invitationByEvent[event.ID]; ok {
			annotated.ViewerRsvpStatus = invitation.RsvpStatus
		}
		visible = append(visible, annotated)
	}

	visible = sortVisibleByStart(visible)

	now := time.Now().UTC()
	filtered := visible[:0:0]
	for _, event := range visible {
		if eventMatchesFilters(&event, filters, now) {
			filtered = append(filtered, event)
		}
	}

	total := len(filtered)
	totalPages := (total + filters.Limit - 1) / filters.Limit
	if totalPages < 1 {
		totalPages = 1
	}

	start := (filters.Page - 1) * filters.Limit
	if start > total {
		start = total
	}
	end := start + filters.Limit
	if end > total {
		end = total
	}

	return &models.EventListResponse{
		Items:      filtered[start:end],
		Page:       filters.Page,
		Limit:      filters.Limit,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

// listUserInvitations merges invitations linked to the user's uid with ones
// addressed to their email but not linked yet, deduplicating by id.
func (s *eventService) listUserInvitations(ctx context.Context, user models.UserContext) ([]models.Invitation, error) {
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

	return merged, nil
}

func (s *eventService) getEvent(ctx context.Context, eventID string) (*models.Event, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// recordActivity appends to the activity log without failing the caller;
// the log is advisory and must never break a write that already happened.
func (s *eventService) recordActivity(ctx context.Context, user models.UserContext, eventID string, action models.ActivityAction, metadata map[string]any) {
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

func normalizeFilters(filters models.EventFilters) models.EventFilters {
	if filters.Scope == "" {
		filters.Scope = models.ScopeAll
	}
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.Limit < 1 {
		filters.Limit = defaultPageLimit
	}
	if filters.Limit > maxPageLimit {
		filters.Limit = maxPageLimit
	}
	return filters
}

func eventMatchesFilters(event *models.VisibleEvent, filters models.EventFilters, now time.Time) bool {
	if query := strings.ToLower(strings.TrimSpace(filters.Query)); query != "" {
		if !strings.Contains(event.SearchBlob, query) {
			return false
		}
	}

	if filters.Location != "" {
		if !strings.Contains(strings.ToLower(event.Location), strings.ToLower(filters.Location)) {
			return false
		}
	}

	if filters.StartDate != nil && event.StartsAt.Before(*filters.StartDate) {
		return false
	}
	if filters.EndDate != nil && event.StartsAt.After(*filters.EndDate) {
		return false
	}

	switch {
	case filters.Status == "upcoming":
		if !isUpcoming(&event.Event, now) {
			return false
		}
	case filters.Status != "":
		if string(event.ViewerRsvpStatus) != filters.Status {
			return false
		}
	}

	return true
}

// sortActivityNewestFirst orders entries by creation time descending. The
// sort is stable so same-instant entries keep storage order.
func sortActivityNewestFirst(entries []models.ActivityLogEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}
