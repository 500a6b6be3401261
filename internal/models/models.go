package models

import "time"

// RsvpStatus is the lifecycle state of an invitation.
type RsvpStatus string

const (
	RsvpInvited   RsvpStatus = "invited"
	RsvpAttending RsvpStatus = "attending"
	RsvpMaybe     RsvpStatus = "maybe"
	RsvpDeclined  RsvpStatus = "declined"
)

// ActivityAction identifies what an activity log entry records.
type ActivityAction string

const (
	ActivityCreated     ActivityAction = "created"
	ActivityUpdated     ActivityAction = "updated"
	ActivityInvited     ActivityAction = "invited"
	ActivityRsvpUpdated ActivityAction = "rsvp_updated"
	ActivityDeleted     ActivityAction = "deleted"
)

// UserContext is the resolved identity of the current caller, supplied by
// the identity collaborator. The core never authenticates directly.
type UserContext struct {
	UID             string `json:"uid"`
	Email           string `json:"email"`
	NormalizedEmail string `json:"normalized_email"`
	DisplayName     string `json:"display_name"`
}

// Event represents a scheduled event. Mutation rights belong exclusively
// to the organizer; invitees get read access.
type Event struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Location        string           `json:"location"`
	StartsAt        time.Time        `json:"starts_at"`
	EndsAt          time.Time        `json:"ends_at"`
	Timezone        string           `json:"timezone"`
	OrganizerUID    string           `json:"organizer_uid"`
	OrganizerName   string           `json:"organizer_name"`
	SearchBlob      string           `json:"search_blob"`
	AISummary       string           `json:"ai_summary,omitempty"`
	AIAgendaBullets []string         `json:"ai_agenda_bullets,omitempty"`
	Counts          InvitationCounts `json:"invitation_counts"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// VisibleEvent is an event annotated with the viewer's relationship to it.
type VisibleEvent struct {
	Event
	ViewerRsvpStatus RsvpStatus `json:"viewer_rsvp_status,omitempty"`
	IsOrganizer      bool       `json:"is_organizer"`
}

// Invitation grants one email address visibility into one event and the
// right to set its own RSVP. The event title/times are denormalized for
// display.
type Invitation struct {
	ID                    string     `json:"id"`
	EventID               string     `json:"event_id"`
	EventTitle            string     `json:"event_title"`
	EventStartsAt         time.Time  `json:"event_starts_at"`
	EventEndsAt           time.Time  `json:"event_ends_at"`
	Timezone              string     `json:"timezone"`
	InviteeUID            string     `json:"invitee_uid,omitempty"`
	InviteeEmail          string     `json:"invitee_email"`
	NormalizedInviteeEmail string    `json:"normalized_invitee_email"`
	InviteeName           string     `json:"invitee_name,omitempty"`
	OrganizerUID          string     `json:"organizer_uid"`
	OrganizerName         string     `json:"organizer_name"`
	RsvpStatus            RsvpStatus `json:"rsvp_status"`
	LinkedAt              *time.Time `json:"linked_at,omitempty"`
	RespondedAt           *time.Time `json:"responded_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// ActivityLogEntry is an immutable, append-only record of one action
// against an event.
type ActivityLogEntry struct {
	ID        string         `json:"id"`
	EventID   string         `json:"event_id"`
	ActorUID  string         `json:"actor_uid"`
	ActorName string         `json:"actor_name"`
	Action    ActivityAction `json:"action"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

// EventScope restricts a listing to owned, invited, or all visible events.
type EventScope string

const (
	ScopeOwned   EventScope = "owned"
	ScopeInvited EventScope = "invited"
	ScopeAll     EventScope = "all"
)

// EventFilters are the supported listing filters.
type EventFilters struct {
	Query     string
	Location  string
	StartDate *time.Time
	EndDate   *time.Time
	Scope     EventScope
	Status    string // "upcoming" or an RsvpStatus
	Page      int
	Limit     int
}

// CreateEventRequest is the payload for creating or replacing an event.
type CreateEventRequest struct {
	Title           string    `json:"title" binding:"required,min=3,max=120"`
	Description     string    `json:"description" binding:"max=2000"`
	Location        string    `json:"location" binding:"required,min=2,max=160"`
	StartsAt        time.Time `json:"starts_at" binding:"required"`
	EndsAt          time.Time `json:"ends_at" binding:"required"`
	Timezone        string    `json:"timezone" binding:"required,min=2,max=80"`
	AISummary       string    `json:"ai_summary" binding:"max=400"`
	AIAgendaBullets []string  `json:"ai_agenda_bullets" binding:"max=6,dive,min=3,max=140"`
}

// CreateInvitationsRequest is the payload for inviting attendees.
type CreateInvitationsRequest struct {
	Emails []string `json:"emails" binding:"required,min=1,max=30,dive,email"`
}

// RsvpRequest is the payload for responding to an invitation. Returning
// to "invited" is not a legal transition.
type RsvpRequest struct {
	Status RsvpStatus `json:"status" binding:"required,oneof=attending maybe declined"`
}

// EventListResponse is a paginated slice of visible events.
type EventListResponse struct {
	Items      []VisibleEvent `json:"items"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	Total      int            `json:"total"`
	TotalPages int            `json:"total_pages"`
}

// EventDetailResponse is the full view of one event. The invitation list
// is only populated for the organizer.
type EventDetailResponse struct {
	Event            Event              `json:"event"`
	IsOrganizer      bool               `json:"is_organizer"`
	ViewerInvitation *Invitation        `json:"viewer_invitation"`
	Invitations      []Invitation       `json:"invitations"`
	Activity         []ActivityLogEntry `json:"activity"`
}
