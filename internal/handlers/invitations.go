package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/slated-app/slated/internal/models"
	"github.com/slated-app/slated/internal/service"
)

type InvitationHandler struct {
	invitations service.InvitationService
}

// NewInvitationHandler creates a new invitation handler.
func NewInvitationHandler(invitations service.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitations: invitations}
}

// Create handles POST /api/v1/events/:id/invitations
func (h *InvitationHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req models.CreateInvitationsRequest
	if !bindJSON(c, &req) {
		return
	}

	eventID := c.Param("id")
	created, err := h.invitations.Invite(c.Request.Context(), user, eventID, req.Emails)
	if err != nil {
		writeServiceError(c, err, "Event", eventID)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"invitations": created})
}

// ListForEvent handles GET /api/v1/events/:id/invitations
func (h *InvitationHandler) ListForEvent(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	eventID := c.Param("id")
	invitations, err := h.invitations.ListForEvent(c.Request.Context(), user, eventID)
	if err != nil {
		writeServiceError(c, err, "Event", eventID)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invitations": invitations})
}

// ListMine handles GET /api/v1/invitations
func (h *InvitationHandler) ListMine(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	invitations, err := h.invitations.ListForUser(c.Request.Context(), user)
	if err != nil {
		writeServiceError(c, err, "Invitation", "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"invitations": invitations})
}

// Rsvp handles POST /api/v1/invitations/:id/rsvp
func (h *InvitationHandler) Rsvp(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req models.RsvpRequest
	if !bindJSON(c, &req) {
		return
	}

	invitationID := c.Param("id")
	invitation, err := h.invitations.Rsvp(c.Request.Context(), user, invitationID, req.Status)
	if err != nil {
		writeServiceError(c, err, "Invitation", invitationID)
		return
	}

	c.JSON(http.StatusOK, invitation)
}
