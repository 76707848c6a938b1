// Package analytics derives reports from the ledger and item snapshots.
// Every function is pure: the same input always yields the same output, in
// the same order.
package analytics

import (
	"fmt"
	"strings"
	"time"
)

// Window is a reporting period ending now
type Window string

const (
	WindowToday Window = "today"
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
	WindowYear  Window = "year"
	WindowAll   Window = "all"
)

// DefaultWindow is used when the caller names none
const DefaultWindow = WindowMonth

// ParseWindow accepts a window name; empty means DefaultWindow
func ParseWindow(s string) (Window, error) {
	switch w := Window(strings.ToLower(strings.TrimSpace(s))); w {
	case "":
		return DefaultWindow, nil
	case WindowToday, WindowWeek, WindowMonth, WindowYear, WindowAll:
		return w, nil
	default:
		return "", fmt.Errorf("unknown window %q", s)
	}
}

// Start returns the first instant included in the window.
// Today starts at midnight in now's location; WindowAll has no lower bound.
func (w Window) Start(now time.Time) time.Time {
	switch w {
	case WindowToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case WindowWeek:
		return now.AddDate(0, 0, -7)
	case WindowYear:
		return now.AddDate(-1, 0, 0)
	case WindowAll:
		return time.Time{}
	default:
		return now.AddDate(0, -1, 0)
	}
}
