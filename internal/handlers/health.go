package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jcskyweavermedia/alamo-ai-manual-v2-sub000/internal/models"
	"github.com/jcskyweavermedia/alamo-ai-manual-v2-sub000/internal/services"
)

// HealthHandler reports subsystem status.
type HealthHandler struct {
	dashboardService *services.DashboardService
}

func NewHealthHandler(dashboardService *services.DashboardService) *HealthHandler {
	return &HealthHandler{dashboardService: dashboardService}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	dbStatus := "ok"
	sqlDB, err := models.GetDB().DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	queueMode := "local"
	if q := services.GetRefreshQueue(); q != nil && q.IsAsync() {
		queueMode = "async (Redis)"
	}

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "review-intel",
		"components": gin.H{
			"database":       dbStatus,
			"refresh_queue":  queueMode,
			"cached_results": h.dashboardService.Cache().Len(),
		},
	})
}
