package services

import (
	"errors"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// ErrInvalidWindow marks a request window that cannot be analyzed.
var ErrInvalidWindow = errors.New("invalid analysis window")

// Window is an inclusive date range for one analysis period.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// NewWindow validates and builds a window. Timestamps are truncated to
// midnight UTC so two requests for the same calendar range share a cache key.
func NewWindow(from, to time.Time) (Window, error) {
	from = truncateDay(from)
	to = truncateDay(to)
	if to.Before(from) {
		return Window{}, fmt.Errorf("%w: to %s before from %s",
			ErrInvalidWindow, to.Format(dateLayout), from.Format(dateLayout))
	}
	return Window{From: from, To: to}, nil
}

// ParseWindow builds a window from YYYY-MM-DD strings.
func ParseWindow(from, to string) (Window, error) {
	f, err := time.Parse(dateLayout, from)
	if err != nil {
		return Window{}, fmt.Errorf("%w: bad from date %q", ErrInvalidWindow, from)
	}
	t, err := time.Parse(dateLayout, to)
	if err != nil {
		return Window{}, fmt.Errorf("%w: bad to date %q", ErrInvalidWindow, to)
	}
	return NewWindow(f, t)
}

// Days returns the inclusive length of the window in days.
func (w Window) Days() int {
	return int(w.To.Sub(w.From).Hours()/24) + 1
}

// Previous returns the equal-length window immediately preceding this one:
// [from-N, from-1] for an N-day window. The two never overlap.
func (w Window) Previous() Window {
	n := w.Days()
	return Window{
		From: w.From.AddDate(0, 0, -n),
		To:   w.From.AddDate(0, 0, -1),
	}
}

// YearToDate returns the window from January 1 of the To year through To.
func (w Window) YearToDate() Window {
	jan1 := time.Date(w.To.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	return Window{From: jan1, To: w.To}
}

func (w Window) String() string {
	return w.From.Format(dateLayout) + ".." + w.To.Format(dateLayout)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
