package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/slated-app/slated/internal/service"
)

type AnalyticsHandler struct {
	analytics service.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(analytics service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Overview handles GET /api/v1/analytics/overview
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	overview, err := h.analytics.Overview(c.Request.Context(), user)
	if err != nil {
		writeServiceError(c, err, "Analytics", "")
		return
	}

	c.JSON(http.StatusOK, overview)
}
