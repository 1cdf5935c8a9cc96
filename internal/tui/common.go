package tui

import (
	"time"

	"github.com/sadopc/timeclock/internal/history"
	"github.com/sadopc/timeclock/internal/netwatch"
	"github.com/sadopc/timeclock/internal/store"
	"github.com/sadopc/timeclock/internal/tracker"
)

// viewState represents the currently active view.
type viewState int

const (
	viewClock viewState = iota
	viewHistory
	viewReports
)

var viewNames = []string{"Clock", "History", "Reports"}

// --- Messages ---
//
// Every external signal reaches App.Update as one of these.

type clockedInMsg struct {
	entry *store.TimeEntry
}

type clockedOutMsg struct {
	entry *store.TimeEntry
}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

// entriesMsg carries a fresh read of the whole store.
type entriesMsg struct {
	entries []store.TimeEntry
	err     error
}

type connectivityMsg struct {
	event netwatch.Event
}

// connectivityClosedMsg arrives once the monitor has shut down.
type connectivityClosedMsg struct{}

type syncDoneMsg struct {
	result tracker.SyncResult
	err    error
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	return history.FormatClock(d)
}
