// Package history derives the date selector options and the per-day table
// shown in the history view.
package history

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sadopc/timeclock/internal/store"
)

// Today is the selector value that always resolves to the current date.
const Today = "Today"

const dateLayout = "2006-01-02"

// labelLayout is the date label layout for en-US and the package-level
// helpers.
const labelLayout = "Mon Jan 2, 2006"

// InProgress is rendered in place of a duration for an open entry.
const InProgress = "in progress"

type DateOption struct {
	Value string // "Today" or YYYY-MM-DD
	Label string
}

type Row struct {
	ID       int64
	TimeIn   string
	TimeOut  string
	Duration string
	Synced   bool
}

// DayTotal is the closed-session time recorded on one date.
type DayTotal struct {
	Date    string
	Total   time.Duration
	Entries int
}

// DateKey is the local calendar date of t.
func DateKey(t time.Time) string {
	return t.Local().Format(dateLayout)
}

// DistinctDates returns "Today" followed by every distinct date of TimeIn,
// in first-seen order, labelled in the en-US layout.
func DistinctDates(entries []store.TimeEntry, now time.Time) []DateOption {
	return distinctDates(entries, now, labelLayout)
}

func distinctDates(entries []store.TimeEntry, now time.Time, layout string) []DateOption {
	opts := []DateOption{{Value: Today, Label: Today + " · " + now.Local().Format(layout)}}
	seen := make(map[string]bool)
	for _, e := range entries {
		key := DateKey(e.TimeIn)
		if seen[key] {
			continue
		}
		seen[key] = true
		opts = append(opts, DateOption{Value: key, Label: dateLabel(e.TimeIn, now, layout)})
	}
	return opts
}

func dateLabel(t, now time.Time, layout string) string {
	local := t.Local()
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
	today := startOfDay(now)
	if day.Equal(today) {
		return local.Format(layout) + " (today)"
	}
	return fmt.Sprintf("%s (%s)", local.Format(layout),
		humanize.RelTime(day, today, "ago", "from now"))
}

func startOfDay(t time.Time) time.Time {
	l := t.Local()
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, time.Local)
}

// EntriesForDate filters entries by local date of TimeIn. Today is
// resolved against now on every call.
func EntriesForDate(entries []store.TimeEntry, selector string, now time.Time) []store.TimeEntry {
	want := selector
	if selector == Today {
		want = DateKey(now)
	}
	out := []store.TimeEntry{}
	for _, e := range entries {
		if DateKey(e.TimeIn) == want {
			out = append(out, e)
		}
	}
	return out
}

// FormatDuration renders TimeOut - TimeIn as HH:MM:SS, or InProgress.
func FormatDuration(e store.TimeEntry) string {
	if e.Open() {
		return InProgress
	}
	return FormatClock(e.Duration())
}

// FormatClock renders d as HH:MM:SS.
func FormatClock(d time.Duration) string {
	neg := d < 0
	if neg {
		d = -d
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if neg {
		return fmt.Sprintf("-%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Rows renders entries for the table, times in local time.
func Rows(entries []store.TimeEntry) []Row {
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		r := Row{
			ID:       e.ID,
			TimeIn:   e.TimeIn.Local().Format("15:04:05"),
			TimeOut:  "—",
			Duration: FormatDuration(e),
			Synced:   e.Synced,
		}
		if e.TimeOut != nil {
			r.TimeOut = e.TimeOut.Local().Format("15:04:05")
		}
		rows = append(rows, r)
	}
	return rows
}

// DailyTotals sums closed sessions per date, keyed by the date the session
// started. Dates appear in first-seen order.
func DailyTotals(entries []store.TimeEntry) []DayTotal {
	var totals []DayTotal
	index := make(map[string]int)
	for _, e := range entries {
		key := DateKey(e.TimeIn)
		i, ok := index[key]
		if !ok {
			i = len(totals)
			index[key] = i
			totals = append(totals, DayTotal{Date: key})
		}
		totals[i].Entries++
		totals[i].Total += e.Duration()
	}
	return totals
}

// Model wraps the derivations with a locale for count, total and date
// labels.
type Model struct {
	printer *message.Printer
	layout  string
}

// NewModel parses locale as a BCP 47 tag, falling back to English.
func NewModel(locale string) Model {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.AmericanEnglish
	}
	return Model{printer: message.NewPrinter(tag), layout: layoutFor(tag)}
}

// layoutFor picks the date order of the locale. Day and month names are
// only spelled out for English; other locales get numeric dates.
func layoutFor(tag language.Tag) string {
	base, _ := tag.Base()
	region, _ := tag.Region()
	switch base.String() {
	case "en":
		switch region.String() {
		case "US", "PH", "ZZ":
			return labelLayout
		}
		return "Mon 2 Jan 2006"
	case "de", "ru", "pl", "fi", "nb", "da", "cs", "tr":
		return "02.01.2006"
	case "fr", "es", "it", "pt", "nl", "el":
		return "02/01/2006"
	case "ja", "zh", "ko":
		return "2006/01/02"
	}
	return dateLayout
}

// DistinctDates is the package-level DistinctDates with labels in the
// model's locale.
func (m Model) DistinctDates(entries []store.TimeEntry, now time.Time) []DateOption {
	layout := m.layout
	if layout == "" {
		layout = labelLayout
	}
	return distinctDates(entries, now, layout)
}

// CountLabel renders "1 entry" / "1,234 entries".
func (m Model) CountLabel(n int) string {
	if n == 1 {
		return m.printer.Sprintf("%d entry", n)
	}
	return m.printer.Sprintf("%d entries", n)
}

// HoursLabel renders a total as fractional hours, e.g. "8.5h".
func (m Model) HoursLabel(d time.Duration) string {
	return m.printer.Sprintf("%.1fh", d.Hours())
}
