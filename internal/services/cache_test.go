package services

import (
	"testing"
	"time"
)

func testCache(fresh, retention time.Duration) (*ResultCache, *time.Time) {
	c := NewResultCache(fresh, retention)
	clock := time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }
	return c, &clock
}

func TestResultCache_MissThenFresh(t *testing.T) {
	c, _ := testCache(15*time.Minute, 2*time.Hour)
	key := CacheKey(10, Window{From: date(2026, 6, 1), To: date(2026, 6, 30)}, "en")

	if _, state := c.Get(key); state != CacheMiss {
		t.Fatalf("state = %v, expected miss on empty cache", state)
	}

	want := &DashboardResult{GroupID: 10}
	c.Put(key, want)

	got, state := c.Get(key)
	if state != CacheFresh {
		t.Errorf("state = %v, expected fresh", state)
	}
	if got != want {
		t.Error("fresh hit must return the stored result unchanged")
	}
}

func TestResultCache_StaleThenEvicted(t *testing.T) {
	c, clock := testCache(15*time.Minute, 2*time.Hour)
	key := "10|2026-06-01|2026-06-30|en"
	c.Put(key, &DashboardResult{GroupID: 10})

	*clock = clock.Add(16 * time.Minute)
	got, state := c.Get(key)
	if state != CacheStale {
		t.Errorf("state after 16m = %v, expected stale", state)
	}
	if got == nil {
		t.Error("stale hit must still return the retained result")
	}

	*clock = clock.Add(2 * time.Hour)
	got, state = c.Get(key)
	if state != CacheMiss || got != nil {
		t.Errorf("state after retention = %v (%v), expected miss", state, got)
	}
}

func TestResultCache_FreshBoundary(t *testing.T) {
	c, clock := testCache(15*time.Minute, 2*time.Hour)
	key := "k"
	c.Put(key, &DashboardResult{})

	*clock = clock.Add(15 * time.Minute)
	if _, state := c.Get(key); state != CacheFresh {
		t.Errorf("state at exactly the freshness window = %v, expected fresh", state)
	}
}

func TestCacheKey_Components(t *testing.T) {
	win, _ := ParseWindow("2026-06-01", "2026-06-30")
	base := CacheKey(10, win, "en")

	otherWin, _ := ParseWindow("2026-06-01", "2026-06-29")
	variants := []string{
		CacheKey(11, win, "en"),
		CacheKey(10, otherWin, "en"),
		CacheKey(10, win, "es"),
	}
	for _, v := range variants {
		if v == base {
			t.Errorf("key %q collides with %q", v, base)
		}
	}

	// Same calendar range, different wall-clock times, same key.
	sameWin, _ := NewWindow(
		time.Date(2026, 6, 1, 13, 45, 0, 0, time.UTC),
		time.Date(2026, 6, 30, 1, 2, 3, 0, time.UTC),
	)
	if CacheKey(10, sameWin, "en") != base {
		t.Error("truncated windows for the same range must share a key")
	}
}

func TestResultCache_RefreshSlot(t *testing.T) {
	c, _ := testCache(time.Minute, time.Hour)

	if !c.BeginRefresh("k") {
		t.Fatal("first BeginRefresh must claim the slot")
	}
	if c.BeginRefresh("k") {
		t.Error("second BeginRefresh must be rejected while in flight")
	}
	if !c.BeginRefresh("other") {
		t.Error("slots are per-key; a different key must be claimable")
	}

	c.EndRefresh("k")
	if !c.BeginRefresh("k") {
		t.Error("slot must be claimable again after EndRefresh")
	}
}

func TestResultCache_Sweep(t *testing.T) {
	c, clock := testCache(15*time.Minute, time.Hour)
	c.Put("old", &DashboardResult{})

	*clock = clock.Add(30 * time.Minute)
	c.Put("young", &DashboardResult{})

	*clock = clock.Add(45 * time.Minute)
	removed := c.Sweep()
	if removed != 1 {
		t.Errorf("Sweep() removed %d, expected 1", removed)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d after sweep, expected 1", c.Len())
	}
	if _, state := c.Get("young"); state == CacheMiss {
		t.Error("entry inside retention must survive the sweep")
	}
}

func TestResultCache_RetentionNeverBelowFresh(t *testing.T) {
	c := NewResultCache(time.Hour, time.Minute)
	if c.retention != time.Hour {
		t.Errorf("retention = %v, expected clamp up to the freshness window", c.retention)
	}
}
