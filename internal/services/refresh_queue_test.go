package services

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestTaskTypeDashboardRefresh_Constant(t *testing.T) {
	if TaskTypeDashboardRefresh != "dashboard:refresh" {
		t.Errorf("TaskTypeDashboardRefresh = %q, expected %q", TaskTypeDashboardRefresh, "dashboard:refresh")
	}
}

func TestRefreshTask_Structure(t *testing.T) {
	task := RefreshTask{
		GroupID: 10,
		From:    "2026-06-01",
		To:      "2026-06-30",
		Locale:  "es",
	}

	if task.GroupID != 10 {
		t.Errorf("GroupID = %d, expected 10", task.GroupID)
	}
	if task.From != "2026-06-01" {
		t.Errorf("From = %q, expected %q", task.From, "2026-06-01")
	}
	if task.To != "2026-06-30" {
		t.Errorf("To = %q, expected %q", task.To, "2026-06-30")
	}
	if task.Locale != "es" {
		t.Errorf("Locale = %q, expected %q", task.Locale, "es")
	}
}

func TestLocalRefreshQueue_RunsProcessor(t *testing.T) {
	q := NewLocalRefreshQueue()

	var mu sync.Mutex
	var processed []*RefreshTask
	q.SetProcessor(func(ctx context.Context, task *RefreshTask) error {
		mu.Lock()
		processed = append(processed, task)
		mu.Unlock()
		return nil
	})

	if err := q.Enqueue(&RefreshTask{GroupID: 10}); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(processed) != 1 || processed[0].GroupID != 10 {
		t.Errorf("processed = %v, expected the enqueued task", processed)
	}
}

func TestLocalRefreshQueue_IsAsync(t *testing.T) {
	if NewLocalRefreshQueue().IsAsync() {
		t.Error("local queue must not report async")
	}
}

func TestLocalRefreshQueue_NoProcessor(t *testing.T) {
	q := NewLocalRefreshQueue()
	if err := q.Enqueue(&RefreshTask{GroupID: 10}); err != nil {
		t.Errorf("Enqueue() without a processor error = %v, expected nil no-op", err)
	}
}

func TestLocalRefreshQueue_ClosedDropsTasks(t *testing.T) {
	q := NewLocalRefreshQueue()

	var mu sync.Mutex
	count := 0
	q.SetProcessor(func(ctx context.Context, task *RefreshTask) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})

	q.Close()
	q.Enqueue(&RefreshTask{GroupID: 10})
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if count != 0 {
		t.Errorf("closed queue processed %d tasks, expected 0", count)
	}
}
