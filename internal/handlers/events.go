package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/slated-app/slated/internal/apierror"
	"github.com/slated-app/slated/internal/models"
	"github.com/slated-app/slated/internal/service"
)

type EventHandler struct {
	events service.EventService
}

// NewEventHandler creates a new event handler.
func NewEventHandler(events service.EventService) *EventHandler {
	return &EventHandler{events: events}
}

// List handles GET /api/v1/events
func (h *EventHandler) List(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	filters, ok := parseEventFilters(c)
	if !ok {
		return
	}

	response, err := h.events.ListVisible(c.Request.Context(), user, filters)
	if err != nil {
		writeServiceError(c, err, "Event", "")
		return
	}

	c.JSON(http.StatusOK, response)
}

// Create handles POST /api/v1/events
func (h *EventHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req models.CreateEventRequest
	if !bindJSON(c, &req) {
		return
	}

	event, err := h.events.Create(c.Request.Context(), user, req)
	if err != nil {
		writeServiceError(c, err, "Event", "")
		return
	}

	c.JSON(http.StatusCreated, event)
}

// Get handles GET /api/v1/events/:id
func (h *EventHandler) Get(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	eventID := c.Param("id")
	detail, err := h.events.GetDetail(c.Request.Context(), user, eventID)
	if err != nil {
		writeServiceError(c, err, "Event", eventID)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// Update handles PUT /api/v1/events/:id
func (h *EventHandler) Update(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req models.CreateEventRequest
	if !bindJSON(c, &req) {
		return
	}

	eventID := c.Param("id")
	event, err := h.events.Update(c.Request.Context(), user, eventID, req)
	if err != nil {
		writeServiceError(c, err, "Event", eventID)
		return
	}

	c.JSON(http.StatusOK, event)
}

// Delete handles DELETE /api/v1/events/:id
func (h *EventHandler) Delete(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	eventID := c.Param("id")
	if err := h.events.Delete(c.Request.Context(), user, eventID); err != nil {
		writeServiceError(c, err, "Event", eventID)
		return
	}

	c.Status(http.StatusNoContent)
}

func parseEventFilters(c *gin.Context) (models.EventFilters, bool) {
	filters := models.EventFilters{
		Query:    c.Query("q"),
		Location: c.Query("location"),
		Scope:    models.EventScope(c.DefaultQuery("scope", string(models.ScopeAll))),
		Status:   c.Query("status"),
	}

	requestID := apierror.GetRequestID(c)

	switch filters.Scope {
	case models.ScopeOwned, models.ScopeInvited, models.ScopeAll:
	default:
		apierror.WriteProblem(c, apierror.NewValidationError(requestID, []apierror.FieldError{
			{Field: "scope", Message: "must be one of: owned invited all", Code: "oneof"},
		}))
		return filters, false
	}

	if raw := c.Query("start_date"); raw != "" {
		parsed, err := parseDateParam(raw, false)
		if err != nil {
			apierror.WriteProblem(c, apierror.NewValidationError(requestID, []apierror.FieldError{
				{Field: "start_date", Message: "must be an RFC3339 timestamp or YYYY-MM-DD date", Code: "invalid_format"},
			}))
			return filters, false
		}
		filters.StartDate = &parsed
	}

	if raw := c.Query("end_date"); raw != "" {
		parsed, err := parseDateParam(raw, true)
		if err != nil {
			apierror.WriteProblem(c, apierror.NewValidationError(requestID, []apierror.FieldError{
				{Field: "end_date", Message: "must be an RFC3339 timestamp or YYYY-MM-DD date", Code: "invalid_format"},
			}))
			return filters, false
		}
		filters.EndDate = &parsed
	}

	filters.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filters.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))

	return filters, true
}

// parseDateParam accepts a full RFC3339 timestamp or a bare date. A bare
// end date is pushed to the end of its day so the range is inclusive.
func parseDateParam(raw string, endOfDay bool) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, nil
	}

	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		parsed = parsed.Add(24*time.Hour - time.Millisecond)
	}
	return parsed, nil
}
