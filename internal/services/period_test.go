package services

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewWindow_TruncatesToMidnight(t *testing.T) {
	from := time.Date(2026, 6, 1, 14, 30, 12, 0, time.UTC)
	to := time.Date(2026, 6, 30, 23, 59, 59, 0, time.UTC)

	win, err := NewWindow(from, to)
	if err != nil {
		t.Fatalf("NewWindow() error = %v", err)
	}

	if !win.From.Equal(date(2026, 6, 1)) {
		t.Errorf("From = %v, expected midnight", win.From)
	}
	if !win.To.Equal(date(2026, 6, 30)) {
		t.Errorf("To = %v, expected midnight", win.To)
	}
}

func TestNewWindow_Inverted(t *testing.T) {
	_, err := NewWindow(date(2026, 6, 30), date(2026, 6, 1))
	if !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestNewWindow_SingleDay(t *testing.T) {
	win, err := NewWindow(date(2026, 6, 15), date(2026, 6, 15))
	if err != nil {
		t.Fatalf("NewWindow() error = %v", err)
	}
	if win.Days() != 1 {
		t.Errorf("Days() = %d, expected 1", win.Days())
	}
}

func TestParseWindow(t *testing.T) {
	win, err := ParseWindow("2026-06-01", "2026-06-30")
	if err != nil {
		t.Fatalf("ParseWindow() error = %v", err)
	}
	if win.Days() != 30 {
		t.Errorf("Days() = %d, expected 30", win.Days())
	}
}

func TestParseWindow_BadInput(t *testing.T) {
	cases := []struct {
		from, to string
	}{
		{"", "2026-06-30"},
		{"2026-06-01", ""},
		{"not-a-date", "2026-06-30"},
		{"2026-06-01", "06/30/2026"},
		{"2026-06-30", "2026-06-01"},
	}

	for _, tc := range cases {
		_, err := ParseWindow(tc.from, tc.to)
		if !errors.Is(err, ErrInvalidWindow) {
			t.Errorf("ParseWindow(%q, %q): expected ErrInvalidWindow, got %v", tc.from, tc.to, err)
		}
	}
}

func TestWindow_Previous(t *testing.T) {
	win, _ := NewWindow(date(2026, 6, 1), date(2026, 6, 30))
	prev := win.Previous()

	if prev.Days() != win.Days() {
		t.Errorf("previous window length = %d, expected %d", prev.Days(), win.Days())
	}
	if !prev.To.Equal(date(2026, 5, 31)) {
		t.Errorf("prev.To = %v, expected 2026-05-31", prev.To)
	}
	if !prev.From.Equal(date(2026, 5, 2)) {
		t.Errorf("prev.From = %v, expected 2026-05-02", prev.From)
	}
	if !prev.To.Before(win.From) {
		t.Error("previous window must not overlap the current one")
	}
}

func TestWindow_Previous_SingleDay(t *testing.T) {
	win, _ := NewWindow(date(2026, 6, 15), date(2026, 6, 15))
	prev := win.Previous()

	if !prev.From.Equal(date(2026, 6, 14)) || !prev.To.Equal(date(2026, 6, 14)) {
		t.Errorf("previous of single-day window = %v, expected 2026-06-14..2026-06-14", prev)
	}
}

func TestWindow_YearToDate(t *testing.T) {
	win, _ := NewWindow(date(2026, 6, 1), date(2026, 6, 30))
	ytd := win.YearToDate()

	if !ytd.From.Equal(date(2026, 1, 1)) {
		t.Errorf("ytd.From = %v, expected 2026-01-01", ytd.From)
	}
	if !ytd.To.Equal(win.To) {
		t.Errorf("ytd.To = %v, expected %v", ytd.To, win.To)
	}
}

func TestWindow_String(t *testing.T) {
	win, _ := NewWindow(date(2026, 6, 1), date(2026, 6, 30))
	if got := win.String(); got != "2026-06-01..2026-06-30" {
		t.Errorf("String() = %q", got)
	}
}
