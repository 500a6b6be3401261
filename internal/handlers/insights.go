package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/slated-app/slated/internal/models"
	"github.com/slated-app/slated/internal/service"
)

type InsightHandler struct {
	insights service.InsightService
}

// NewInsightHandler creates a new insight handler.
func NewInsightHandler(insights service.InsightService) *InsightHandler {
	return &InsightHandler{insights: insights}
}

// SchedulingAssistant handles POST /api/v1/ai/scheduling-assistant
func (h *InsightHandler) SchedulingAssistant(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req models.SchedulingAssistantRequest
	if !bindJSON(c, &req) {
		return
	}

	insight, err := h.insights.SchedulingAssistant(c.Request.Context(), user, req)
	if err != nil {
		writeServiceError(c, err, "Insight", "")
		return
	}

	c.JSON(http.StatusOK, insight)
}

// Dashboard handles GET /api/v1/ai/dashboard-insight
func (h *InsightHandler) Dashboard(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	insight, err := h.insights.DashboardInsight(c.Request.Context(), user)
	if err != nil {
		writeServiceError(c, err, "Insight", "")
		return
	}

	c.JSON(http.StatusOK, insight)
}

// Recommendation handles GET /api/v1/ai/event-recommendation
func (h *InsightHandler) Recommendation(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	insight, err := h.insights.EventRecommendation(c.Request.Context(), user)
	if err != nil {
		writeServiceError(c, err, "Insight", "")
		return
	}

	c.JSON(http.StatusOK, insight)
}
