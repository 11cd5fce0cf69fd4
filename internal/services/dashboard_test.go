package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jcskyweavermedia/alamo-ai-manual-v2-sub000/internal/config"
	"github.com/rs/zerolog"
)

// captureQueue records enqueued refresh tasks without running them.
type captureQueue struct {
	tasks []*RefreshTask
}

func (q *captureQueue) Enqueue(task *RefreshTask) error {
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *captureQueue) IsAsync() bool { return false }
func (q *captureQueue) Close() error  { return nil }

func testDashboardService(store AnalyticsStore) *DashboardService {
	cfg := config.DefaultConfig()
	return NewDashboardService(store, cfg, zerolog.Nop())
}

func TestGetDashboard_RequiresGroup(t *testing.T) {
	s := testDashboardService(healthyStore())

	_, err := s.GetDashboard(context.Background(), &DashboardRequest{From: "2026-06-01", To: "2026-06-30"})
	if !errors.Is(err, ErrNoGroup) {
		t.Errorf("expected ErrNoGroup, got %v", err)
	}
}

func TestGetDashboard_RejectsBadWindow(t *testing.T) {
	s := testDashboardService(healthyStore())

	_, err := s.GetDashboard(context.Background(), &DashboardRequest{GroupID: 10, From: "2026-06-30", To: "2026-06-01"})
	if !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestGetDashboard_FreshHitSkipsPipeline(t *testing.T) {
	store := healthyStore()
	s := testDashboardService(store)
	req := &DashboardRequest{GroupID: 10, From: "2026-06-01", To: "2026-06-30"}

	first, err := s.GetDashboard(context.Background(), req)
	if err != nil {
		t.Fatalf("GetDashboard() error = %v", err)
	}

	// A change in the backing data must not be visible on a fresh hit.
	store.score.CompositeScore = 10

	second, err := s.GetDashboard(context.Background(), req)
	if err != nil {
		t.Fatalf("GetDashboard() error = %v", err)
	}
	if second != first {
		t.Error("fresh hit must return the memoized result")
	}
	if second.Summary.CompositeScore != first.Summary.CompositeScore {
		t.Error("fresh hit recomputed against the store")
	}
}

func TestGetDashboard_LocaleDefaultSharesCacheEntry(t *testing.T) {
	s := testDashboardService(healthyStore())

	first, err := s.GetDashboard(context.Background(), &DashboardRequest{GroupID: 10, From: "2026-06-01", To: "2026-06-30"})
	if err != nil {
		t.Fatalf("GetDashboard() error = %v", err)
	}
	second, err := s.GetDashboard(context.Background(), &DashboardRequest{GroupID: 10, From: "2026-06-01", To: "2026-06-30", Locale: "fr"})
	if err != nil {
		t.Fatalf("GetDashboard() error = %v", err)
	}
	if second != first {
		t.Error("an unknown locale normalizes to the default and must share its cache entry")
	}
}

func TestGetDashboard_DifferentWindowComputesFresh(t *testing.T) {
	store := healthyStore()
	s := testDashboardService(store)

	first, err := s.GetDashboard(context.Background(), &DashboardRequest{GroupID: 10, From: "2026-06-01", To: "2026-06-30"})
	if err != nil {
		t.Fatalf("GetDashboard() error = %v", err)
	}

	store.score.CompositeScore = 55

	second, err := s.GetDashboard(context.Background(), &DashboardRequest{GroupID: 10, From: "2026-06-01", To: "2026-06-29"})
	if err != nil {
		t.Fatalf("GetDashboard() error = %v", err)
	}
	if second == first {
		t.Error("a different window must have its own cache entry")
	}
	if second.Summary.CompositeScore != 55 {
		t.Errorf("second result score = %v, expected a fresh pipeline run", second.Summary.CompositeScore)
	}
}

func TestGetDashboard_StaleServesAndSchedulesRefresh(t *testing.T) {
	s := testDashboardService(healthyStore())
	queue := &captureQueue{}
	s.SetQueue(queue)

	clock := time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)
	s.cache.now = func() time.Time { return clock }

	req := &DashboardRequest{GroupID: 10, From: "2026-06-01", To: "2026-06-30"}
	first, err := s.GetDashboard(context.Background(), req)
	if err != nil {
		t.Fatalf("GetDashboard() error = %v", err)
	}

	clock = clock.Add(30 * time.Minute)

	second, err := s.GetDashboard(context.Background(), req)
	if err != nil {
		t.Fatalf("GetDashboard() error = %v", err)
	}
	if second != first {
		t.Error("stale hit must serve the retained result immediately")
	}
	if len(queue.tasks) != 1 {
		t.Fatalf("got %d refresh tasks, expected 1", len(queue.tasks))
	}
	task := queue.tasks[0]
	if task.GroupID != 10 || task.From != "2026-06-01" || task.To != "2026-06-30" || task.Locale != "en" {
		t.Errorf("refresh task = %+v", task)
	}

	// A second stale hit while the refresh slot is claimed must not
	// enqueue again.
	if _, err := s.GetDashboard(context.Background(), req); err != nil {
		t.Fatalf("GetDashboard() error = %v", err)
	}
	if len(queue.tasks) != 1 {
		t.Errorf("got %d refresh tasks after repeat stale hit, expected 1", len(queue.tasks))
	}
}

func TestProcessRefreshTask_ReplacesEntryAndReleasesSlot(t *testing.T) {
	store := healthyStore()
	s := testDashboardService(store)

	task := &RefreshTask{GroupID: 10, From: "2026-06-01", To: "2026-06-30", Locale: "en"}
	win, _ := ParseWindow(task.From, task.To)
	key := CacheKey(task.GroupID, win, task.Locale)
	s.cache.BeginRefresh(key)

	if err := s.ProcessRefreshTask(context.Background(), task); err != nil {
		t.Fatalf("ProcessRefreshTask() error = %v", err)
	}

	result, state := s.cache.Get(key)
	if state != CacheFresh || result == nil {
		t.Fatalf("cache state = %v after refresh, expected fresh", state)
	}
	if result.Summary.CompositeScore != 80 {
		t.Errorf("refreshed score = %v, expected 80", result.Summary.CompositeScore)
	}
	if !s.cache.BeginRefresh(key) {
		t.Error("refresh slot must be released after processing")
	}
}

func TestProcessRefreshTask_FailureKeepsStaleEntry(t *testing.T) {
	store := healthyStore()
	s := testDashboardService(store)

	req := &DashboardRequest{GroupID: 10, From: "2026-06-01", To: "2026-06-30"}
	if _, err := s.GetDashboard(context.Background(), req); err != nil {
		t.Fatalf("GetDashboard() error = %v", err)
	}

	store.failRanking = true
	task := &RefreshTask{GroupID: 10, From: req.From, To: req.To, Locale: "en"}
	if err := s.ProcessRefreshTask(context.Background(), task); err == nil {
		t.Fatal("expected an error when the refresh pipeline fails")
	}

	win, _ := ParseWindow(req.From, req.To)
	if _, state := s.cache.Get(CacheKey(10, win, "en")); state == CacheMiss {
		t.Error("a failed refresh must retain the previous cache entry")
	}
}

func TestCompute_NonTransientFailsFast(t *testing.T) {
	store := healthyStore()
	store.failRanking = true
	s := testDashboardService(store)

	_, err := s.Compute(context.Background(), 10, testWindow(), "en")
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := atomic.LoadInt32(&store.rankingCalls); got != 1 {
		t.Errorf("ranking queried %d times, expected 1: non-transient failures must not retry", got)
	}
}

func TestCompute_WrapsContext(t *testing.T) {
	store := healthyStore()
	store.failListEntities = true
	s := testDashboardService(store)

	_, err := s.Compute(context.Background(), 10, testWindow(), "en")
	if err == nil {
		t.Fatal("expected an error")
	}
	want := "dashboard pipeline for group 10"
	if got := err.Error(); len(got) < len(want) || got[:len(want)] != want {
		t.Errorf("error %q does not carry the pipeline context", got)
	}
}
