package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jcskyweavermedia/alamo-ai-manual-v2-sub000/internal/config"
	"github.com/rs/zerolog"
)

// DashboardRequest identifies one dashboard to assemble. GroupID comes
// from the caller's identity, never from request input.
type DashboardRequest struct {
	GroupID uint   `form:"-"`
	From    string `form:"from"`
	To      string `form:"to"`
	Locale  string `form:"locale"`
}

// DashboardService is the cache-wrapped entry point to the aggregation
// pipeline: resolver, period calculator, orchestrator and transformer
// behind a single read-through Get.
type DashboardService struct {
	resolver   *EntityResolver
	orch       *Orchestrator
	cache      *ResultCache
	queue      RefreshQueue
	maxRetries int
	log        zerolog.Logger
	now        func() time.Time
}

func NewDashboardService(store AnalyticsStore, cfg *config.Config, log zerolog.Logger) *DashboardService {
	return &DashboardService{
		resolver: NewEntityResolver(store),
		orch:     NewOrchestrator(store, &cfg.Aggregation, log),
		cache: NewResultCache(
			time.Duration(cfg.Cache.FreshMinutes)*time.Minute,
			time.Duration(cfg.Cache.RetentionMinutes)*time.Minute,
		),
		maxRetries: cfg.Aggregation.MaxRetries,
		log:        log,
		now:        time.Now,
	}
}

// SetQueue wires the background refresh queue. Wired after construction
// because the queue's processor is this service.
func (s *DashboardService) SetQueue(queue RefreshQueue) {
	s.queue = queue
}

// Cache exposes the result cache for the janitor.
func (s *DashboardService) Cache() *ResultCache {
	return s.cache
}

// GetDashboard serves the dashboard for a request. Fresh cache hits return
// the memoized result with no store I/O; stale hits return the retained
// copy immediately and kick one background refresh; misses compute inline.
func (s *DashboardService) GetDashboard(ctx context.Context, req *DashboardRequest) (*DashboardResult, error) {
	if req.GroupID == 0 {
		return nil, ErrNoGroup
	}

	win, err := ParseWindow(req.From, req.To)
	if err != nil {
		return nil, err
	}
	locale := NormalizeLocale(req.Locale)
	key := CacheKey(req.GroupID, win, locale)

	result, state := s.cache.Get(key)
	switch state {
	case CacheFresh:
		return result, nil
	case CacheStale:
		s.scheduleRefresh(&DashboardRequest{
			GroupID: req.GroupID,
			From:    win.From.Format(dateLayout),
			To:      win.To.Format(dateLayout),
			Locale:  locale,
		}, key)
		return result, nil
	}

	result, err = s.Compute(ctx, req.GroupID, win, locale)
	if err != nil {
		return nil, err
	}
	s.cache.Put(key, result)
	return result, nil
}

// Compute runs the full pipeline once, retrying transient failures up to
// the configured count before giving up.
func (s *DashboardService) Compute(ctx context.Context, groupID uint, win Window, locale string) (*DashboardResult, error) {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		result, err := s.computeOnce(ctx, groupID, win, locale)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !isTransient(err) {
			break
		}
		s.log.Warn().
			Uint("group_id", groupID).
			Str("window", win.String()).
			Int("attempt", attempt+1).
			Err(err).
			Msg("dashboard pipeline retrying after transient failure")
	}
	return nil, fmt.Errorf("dashboard pipeline for group %d [%s]: %w", groupID, win.String(), lastErr)
}

func (s *DashboardService) computeOnce(ctx context.Context, groupID uint, win Window, locale string) (*DashboardResult, error) {
	set, err := s.resolver.Resolve(ctx, groupID)
	if err != nil {
		return nil, err
	}

	bundle, err := s.orch.Run(ctx, set, win)
	if err != nil {
		return nil, err
	}

	return Transform(bundle, locale, s.now()), nil
}

// scheduleRefresh claims the refresh slot for the key and hands the work
// to the queue. Only one refresh per key is in flight at a time; a second
// stale hit while it runs just serves the retained copy again.
func (s *DashboardService) scheduleRefresh(req *DashboardRequest, key string) {
	if s.queue == nil {
		return
	}
	if !s.cache.BeginRefresh(key) {
		return
	}

	task := &RefreshTask{
		GroupID: req.GroupID,
		From:    req.From,
		To:      req.To,
		Locale:  req.Locale,
	}
	if err := s.queue.Enqueue(task); err != nil {
		s.cache.EndRefresh(key)
		s.log.Warn().Str("key", key).Err(err).Msg("failed to enqueue dashboard refresh")
	}
}

// ProcessRefreshTask recomputes one dashboard and replaces its cache
// entry. It is the processor behind both queue implementations.
func (s *DashboardService) ProcessRefreshTask(ctx context.Context, task *RefreshTask) error {
	win, err := ParseWindow(task.From, task.To)
	if err != nil {
		return err
	}
	locale := NormalizeLocale(task.Locale)
	key := CacheKey(task.GroupID, win, locale)
	defer s.cache.EndRefresh(key)

	result, err := s.Compute(ctx, task.GroupID, win, locale)
	if err != nil {
		s.log.Error().Str("key", key).Err(err).Msg("dashboard refresh failed; stale entry retained")
		return err
	}

	s.cache.Put(key, result)
	s.log.Info().Str("key", key).Msg("dashboard refreshed")
	return nil
}
