package services

import (
	"context"
	"time"

	"github.com/jcskyweavermedia/alamo-ai-manual-v2-sub000/pkg/logger"
	"github.com/robfig/cron/v3"
)

// CacheJanitor periodically evicts expired dashboard cache entries and
// pre-warms the most common dashboard (trailing 30 days, default locale)
// for every group so the first morning load is a cache hit.
type CacheJanitor struct {
	store     AnalyticsStore
	dashboard *DashboardService
	scheduler *cron.Cron
}

func NewCacheJanitor(store AnalyticsStore, dashboard *DashboardService) *CacheJanitor {
	return &CacheJanitor{
		store:     store,
		dashboard: dashboard,
	}
}

// Start registers the sweep and warmup jobs and starts the scheduler.
func (j *CacheJanitor) Start() {
	j.scheduler = cron.New()

	// Sweep expired entries every 10 minutes
	j.scheduler.AddFunc("*/10 * * * *", j.sweep)

	// Warm the default dashboards before opening hours
	j.scheduler.AddFunc("0 6 * * *", j.warmup)

	j.scheduler.Start()
	logger.Infof("[Janitor] Cache janitor started")
}

// Stop halts the scheduler. Running jobs finish.
func (j *CacheJanitor) Stop() {
	if j.scheduler != nil {
		j.scheduler.Stop()
	}
}

func (j *CacheJanitor) sweep() {
	removed := j.dashboard.Cache().Sweep()
	if removed > 0 {
		logger.Infof("[Janitor] Evicted %d expired dashboard entries", removed)
	}
}

func (j *CacheJanitor) warmup() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	groups, err := j.store.ListGroups(ctx)
	if err != nil {
		logger.Errorf("[Janitor] Warmup aborted, cannot list groups: %v", err)
		return
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -29)
	warmed := 0

	for _, groupID := range groups {
		req := &DashboardRequest{
			GroupID: groupID,
			From:    from.Format(dateLayout),
			To:      to.Format(dateLayout),
			Locale:  DefaultLocale,
		}
		if _, err := j.dashboard.GetDashboard(ctx, req); err != nil {
			logger.Warnf("[Janitor] Warmup failed for group %d: %v", groupID, err)
			continue
		}
		warmed++
	}

	logger.Infof("[Janitor] Warmed %d/%d group dashboards", warmed, len(groups))
}
