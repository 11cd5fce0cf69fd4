package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/jcskyweavermedia/alamo-ai-manual-v2-sub000/internal/middleware"
	"github.com/jcskyweavermedia/alamo-ai-manual-v2-sub000/internal/services"
	"github.com/jcskyweavermedia/alamo-ai-manual-v2-sub000/pkg/response"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
}

func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetDashboard assembles the review dashboard for the caller's group.
// GET /api/dashboard?from=2026-08-01&to=2026-08-30&locale=en
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	var req services.DashboardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if req.From == "" || req.To == "" {
		response.BadRequest(c, "from and to dates are required")
		return
	}
	req.GroupID = middleware.GetGroupID(c)

	result, err := h.dashboardService.GetDashboard(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, mapPipelineError(err))
		return
	}

	response.Success(c, result)
}

// mapPipelineError turns pipeline failures into the single retryable
// dashboard error the client renders, keeping the cause out of the body
// but in the wrapped error chain for logs.
func mapPipelineError(err error) error {
	switch {
	case errors.Is(err, services.ErrNoGroup):
		return response.NewForbidden("no group associated with this account")
	case errors.Is(err, services.ErrNoOwnedEntities):
		return response.NewNotFound("no tracked locations found for this group")
	case errors.Is(err, services.ErrInvalidWindow):
		return response.NewBadRequest(err.Error())
	default:
		return response.NewServerError("failed to load dashboard")
	}
}
