package main

import (
	"github.com/jcskyweavermedia/alamo-ai-manual-v2-sub000/internal/config"
	"github.com/jcskyweavermedia/alamo-ai-manual-v2-sub000/internal/handlers"
	"github.com/jcskyweavermedia/alamo-ai-manual-v2-sub000/internal/models"
	"github.com/jcskyweavermedia/alamo-ai-manual-v2-sub000/internal/services"
	"github.com/jcskyweavermedia/alamo-ai-manual-v2-sub000/internal/utils"
	"github.com/jcskyweavermedia/alamo-ai-manual-v2-sub000/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	store            *services.GormStore
	dashboardService *services.DashboardService
	refreshQueue     services.RefreshQueue
	refreshWorker    *services.RefreshWorker
	janitor          *services.CacheJanitor
	dashboardHandler *handlers.DashboardHandler
	entityHandler    *handlers.EntityHandler
	healthHandler    *handlers.HealthHandler
}

// bootstrap initializes all application dependencies: database, cache, queue, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	store := services.NewGormStore(models.GetDB())
	dashboardService := services.NewDashboardService(store, cfg, logger.Get())

	// Initialize refresh queue (uses Redis if enabled, otherwise in-process)
	refreshQueue := services.InitRefreshQueue(cfg)
	if localQueue, ok := refreshQueue.(*services.LocalRefreshQueue); ok {
		localQueue.SetProcessor(dashboardService.ProcessRefreshTask)
	}
	dashboardService.SetQueue(refreshQueue)

	// Start async worker if Redis is enabled
	var refreshWorker *services.RefreshWorker
	if cfg.Redis.Enabled {
		refreshWorker = services.InitRefreshWorker(&cfg.Redis)
		if refreshWorker != nil {
			refreshWorker.SetProcessor(dashboardService.ProcessRefreshTask)
			if err := refreshWorker.Start(); err != nil {
				logger.Warn().Err(err).Msg("Failed to start refresh worker, falling back to enqueue-only mode")
			}
		}
	}

	// Start cache janitor (stale-entry sweep + morning warmup)
	janitor := services.NewCacheJanitor(store, dashboardService)
	janitor.Start()

	return &appServices{
		store:            store,
		dashboardService: dashboardService,
		refreshQueue:     refreshQueue,
		refreshWorker:    refreshWorker,
		janitor:          janitor,
		dashboardHandler: handlers.NewDashboardHandler(dashboardService),
		entityHandler:    handlers.NewEntityHandler(services.NewEntityResolver(store)),
		healthHandler:    handlers.NewHealthHandler(dashboardService),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.janitor.Stop()
	logger.Info().Msg("Janitor stopped")

	if s.refreshWorker != nil {
		s.refreshWorker.Stop()
	}
	if s.refreshQueue != nil {
		s.refreshQueue.Close()
	}
}
