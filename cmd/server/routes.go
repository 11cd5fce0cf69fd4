package main

import (
	"github.com/gin-gonic/gin"
	"github.com/jcskyweavermedia/alamo-ai-manual-v2-sub000/internal/middleware"
	"github.com/jcskyweavermedia/alamo-ai-manual-v2-sub000/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for dashboard aggregation (fans out many queries per request)
	dashboardLimiter := middleware.NewRateLimiter(5, 10)

	// Health check
	r.GET("/health", svc.healthHandler.CheckHealth)

	// API routes
	api := r.Group("/api")
	{
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/dashboard", dashboardLimiter.Middleware(), svc.dashboardHandler.GetDashboard)
			protected.GET("/entities", svc.entityHandler.ListEntities)
		}
	}
}
