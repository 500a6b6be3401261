package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/slated-app/slated/internal/logger"
	"github.com/slated-app/slated/internal/models"
	"github.com/slated-app/slated/internal/repository"
)

// mockEventRepository is an in-memory EventRepository for testing.
type mockEventRepository struct {
	events           map[string]*models.Event
	createCalls      int
	updateCountCalls int
	// conflictsBeforeSuccess makes UpdateCounts fail with ErrConflict this
	// many times before succeeding, to exercise the retry loop.
	conflictsBeforeSuccess int
}

func newMockEventRepository() *mockEventRepository {
	return &mockEventRepository{events: make(map[string]*models.Event)}
}

func (m *mockEventRepository) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	m.createCalls++
	copied := *event
	m.events[event.ID] = &copied
	return &copied, nil
}

func (m *mockEventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	if event, ok := m.events[id]; ok {
		copied := *event
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockEventRepository) GetByIDs(ctx context.Context, ids []string) ([]models.Event, error) {
	var result []models.Event
	for _, id := range ids {
		if event, ok := m.events[id]; ok {
			result = append(result, *event)
		}
	}
	return result, nil
}

func (m *mockEventRepository) ListByOrganizer(ctx context.Context, organizerUID string) ([]models.Event, error) {
	var result []models.Event
	for _, event := range m.events {
		if event.OrganizerUID == organizerUID {
			result = append(result, *event)
		}
	}
	return result, nil
}

func (m *mockEventRepository) Update(ctx context.Context, id string, event *models.Event) error {
	if _, ok := m.events[id]; !ok {
		return repository.ErrNotFound
	}
	copied := *event
	m.events[id] = &copied
	return nil
}

func (m *mockEventRepository) UpdateCounts(ctx context.Context, id string, counts models.InvitationCounts, expectedUpdatedAt, updatedAt time.Time) error {
	m.updateCountCalls++
	event, ok := m.events[id]
	if !ok {
		return repository.ErrNotFound
	}
	if m.conflictsBeforeSuccess > 0 {
		m.conflictsBeforeSuccess--
		// A competing writer bumps updated_at so the caller's expected
		// timestamp no longer matches.
		event.UpdatedAt = event.UpdatedAt.Add(time.Millisecond)
		return repository.ErrConflict
	}
	if !event.UpdatedAt.Equal(expectedUpdatedAt) {
		return repository.ErrConflict
	}
	event.Counts = counts
	event.UpdatedAt = updatedAt
	return nil
}

func (m *mockEventRepository) Delete(ctx context.Context, id string) error {
	delete(m.events, id)
	return nil
}

// mockInvitationRepository is an in-memory InvitationRepository.
type mockInvitationRepository struct {
	invitations       map[string]*models.Invitation
	updateStatusCalls int
	// failUpdateStatus, when set, is returned by UpdateStatus after the
	// CAS guard would have passed.
	failUpdateStatus error
	// staleSnapshot is returned by GetByID for the next staleReads calls
	// in place of the stored row, simulating reads that raced a writer.
	staleSnapshot *models.Invitation
	staleReads    int
}

func newMockInvitationRepository() *mockInvitationRepository {
	return &mockInvitationRepository{invitations: make(map[string]*models.Invitation)}
}

func (m *mockInvitationRepository) CreateBatch(ctx context.Context, invitations []models.Invitation) ([]models.Invitation, error) {
	created := make([]models.Invitation, 0, len(invitations))
	for _, invitation := range invitations {
		copied := invitation
		m.invitations[invitation.ID] = &copied
		created = append(created, copied)
	}
	return created, nil
}

func (m *mockInvitationRepository) GetByID(ctx context.Context, id string) (*models.Invitation, error) {
	if m.staleReads > 0 && m.staleSnapshot != nil && m.staleSnapshot.ID == id {
		m.staleReads--
		copied := *m.staleSnapshot
		return &copied, nil
	}
	if invitation, ok := m.invitations[id]; ok {
		copied := *invitation
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockInvitationRepository) ListByEvent(ctx context.Context, eventID string) ([]models.Invitation, error) {
	var result []models.Invitation
	for _, invitation := range m.invitations {
		if invitation.EventID == eventID {
			result = append(result, *invitation)
		}
	}
	return result, nil
}

func (m *mockInvitationRepository) ListByInviteeUID(ctx context.Context, uid string) ([]models.Invitation, error) {
	var result []models.Invitation
	for _, invitation := range m.invitations {
		if invitation.InviteeUID == uid {
			result = append(result, *invitation)
		}
	}
	return result, nil
}

func (m *mockInvitationRepository) ListByInviteeEmail(ctx context.Context, normalizedEmail string) ([]models.Invitation, error) {
	var result []models.Invitation
	for _, invitation := range m.invitations {
		if invitation.NormalizedInviteeEmail == normalizedEmail {
			result = append(result, *invitation)
		}
	}
	return result, nil
}

func (m *mockInvitationRepository) UpdateStatus(ctx context.Context, id string, status models.RsvpStatus, inviteeName string, expectedUpdatedAt, respondedAt time.Time) error {
	m.updateStatusCalls++
	invitation, ok := m.invitations[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !invitation.UpdatedAt.Equal(expectedUpdatedAt) {
		return repository.ErrConflict
	}
	if m.failUpdateStatus != nil {
		return m.failUpdateStatus
	}
	invitation.RsvpStatus = status
	invitation.InviteeName = inviteeName
	invitation.RespondedAt = &respondedAt
	invitation.UpdatedAt = respondedAt
	return nil
}

func (m *mockInvitationRepository) DeleteByEvent(ctx context.Context, eventID string) error {
	for id, invitation := range m.invitations {
		if invitation.EventID == eventID {
			delete(m.invitations, id)
		}
	}
	return nil
}

// mockActivityRepository is an in-memory ActivityRepository.
type mockActivityRepository struct {
	entries []models.ActivityLogEntry
}

func newMockActivityRepository() *mockActivityRepository {
	return &mockActivityRepository{}
}

func (m *mockActivityRepository) Append(ctx context.Context, entry *models.ActivityLogEntry) error {
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockActivityRepository) List(ctx context.Context) ([]models.ActivityLogEntry, error) {
	return append([]models.ActivityLogEntry{}, m.entries...), nil
}

func (m *mockActivityRepository) ListByEvent(ctx context.Context, eventID string) ([]models.ActivityLogEntry, error) {
	var result []models.ActivityLogEntry
	for _, entry := range m.entries {
		if entry.EventID == eventID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (m *mockActivityRepository) DeleteByEvent(ctx context.Context, eventID string) error {
	kept := m.entries[:0]
	for _, entry := range m.entries {
		if entry.EventID != eventID {
			kept = append(kept, entry)
		}
	}
	m.entries = kept
	return nil
}

// mockAccountResolver resolves a fixed set of email -> account links.
type mockAccountResolver struct {
	accounts map[string]LinkedAccount
}

func (m *mockAccountResolver) ResolveEmail(ctx context.Context, email string) (*LinkedAccount, error) {
	if account, ok := m.accounts[email]; ok {
		return &account, nil
	}
	return nil, nil
}

// mockGenerator returns canned output or a canned error.
type mockGenerator struct {
	output string
	err    error
	calls  int
	// lastPrompt and lastTemperature record the most recent call for
	// assertions.
	lastPrompt      string
	lastTemperature float64
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	m.calls++
	m.lastPrompt = prompt
	m.lastTemperature = temperature
	if m.err != nil {
		return "", m.err
	}
	return m.output, nil
}

var errGeneratorDown = errors.New("generator unavailable")

// nopLogger discards everything.
type nopLogger struct{}

func (nopLogger) Debug(msg string, fields ...logger.Field)      {}
func (nopLogger) Info(msg string, fields ...logger.Field)       {}
func (nopLogger) Warn(msg string, fields ...logger.Field)       {}
func (nopLogger) Error(msg string, fields ...logger.Field)      {}
func (l nopLogger) With(fields ...logger.Field) logger.Logger   { return l }
func (l nopLogger) WithContext(ctx context.Context) logger.Logger { return l }

// testEvent builds an event owned by organizerUID spanning [start, end).
func testEvent(id, organizerUID string, start, end time.Time) *models.Event {
	return &models.Event{
		ID:            id,
		Title:         "Event " + id,
		Location:      "Room " + id,
		StartsAt:      start,
		EndsAt:        end,
		Timezone:      "UTC",
		OrganizerUID:  organizerUID,
		OrganizerName: "Organizer " + organizerUID,
		SearchBlob:    fmt.Sprintf("event %s room %s utc", id, id),
		CreatedAt:     start.Add(-24 * time.Hour),
		UpdatedAt:     start.Add(-24 * time.Hour),
	}
}
