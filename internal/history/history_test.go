package history

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/timeclock/internal/store"
)

func mustTime(t *testing.T, v string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, v)
	require.NoError(t, err)
	return ts
}

func closed(in, out time.Time) store.TimeEntry {
	return store.TimeEntry{TimeIn: in, TimeOut: &out}
}

func TestFormatDuration(t *testing.T) {
	e := closed(mustTime(t, "2024-01-01T09:00:00Z"), mustTime(t, "2024-01-01T17:30:00Z"))
	assert.Equal(t, "08:30:00", FormatDuration(e))

	open := store.TimeEntry{TimeIn: mustTime(t, "2024-01-01T09:00:00Z")}
	assert.Equal(t, InProgress, FormatDuration(open))
}

func TestFormatDurationAcrossMidnight(t *testing.T) {
	e := closed(mustTime(t, "2024-01-01T22:00:00Z"), mustTime(t, "2024-01-02T01:15:30Z"))
	assert.Equal(t, "03:15:30", FormatDuration(e))
}

func TestFormatDurationOverADay(t *testing.T) {
	e := closed(mustTime(t, "2024-01-01T00:00:00Z"), mustTime(t, "2024-01-02T02:00:00Z"))
	assert.Equal(t, "26:00:00", FormatDuration(e))
}

func TestDistinctDates(t *testing.T) {
	now := time.Now()
	entries := []store.TimeEntry{
		{TimeIn: now.AddDate(0, 0, -3)},
		{TimeIn: now},
		{TimeIn: now.AddDate(0, 0, -3)},
		{TimeIn: now.AddDate(0, 0, -1)},
	}

	opts := DistinctDates(entries, now)
	require.Len(t, opts, 4)
	assert.Equal(t, Today, opts[0].Value)
	assert.True(t, strings.HasPrefix(opts[0].Label, Today))
	assert.Equal(t, DateKey(now.AddDate(0, 0, -3)), opts[1].Value)
	assert.Equal(t, DateKey(now), opts[2].Value)
	assert.Equal(t, DateKey(now.AddDate(0, 0, -1)), opts[3].Value)

	assert.Contains(t, opts[1].Label, "ago")
	assert.Contains(t, opts[2].Label, "(today)")
}

func TestDistinctDatesEmpty(t *testing.T) {
	opts := DistinctDates(nil, time.Now())
	require.Len(t, opts, 1)
	assert.Equal(t, Today, opts[0].Value)
}

func TestEntriesForToday(t *testing.T) {
	now := time.Now()
	entries := []store.TimeEntry{
		{ID: 1, TimeIn: now},
		{ID: 2, TimeIn: now.AddDate(0, 0, -2)},
		{ID: 3, TimeIn: now},
		{ID: 4, TimeIn: now.AddDate(0, 0, -1)},
	}

	got := EntriesForDate(entries, Today, now)
	require.Len(t, got, 2)
	assert.EqualValues(t, 1, got[0].ID)
	assert.EqualValues(t, 3, got[1].ID)
}

func TestEntriesForTodayResolvedPerCall(t *testing.T) {
	day1 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	day2 := day1.AddDate(0, 0, 1)
	entries := []store.TimeEntry{{ID: 1, TimeIn: day1}, {ID: 2, TimeIn: day2}}

	assert.EqualValues(t, 1, EntriesForDate(entries, Today, day1)[0].ID)
	assert.EqualValues(t, 2, EntriesForDate(entries, Today, day2)[0].ID)
}

func TestEntriesForLiteralDate(t *testing.T) {
	d := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)
	entries := []store.TimeEntry{
		{ID: 1, TimeIn: d},
		{ID: 2, TimeIn: d.AddDate(0, 0, 1)},
		{ID: 3, TimeIn: d.Add(3 * time.Hour)},
	}

	got := EntriesForDate(entries, "2024-05-01", time.Now())
	require.Len(t, got, 2)
	assert.EqualValues(t, 1, got[0].ID)
	assert.EqualValues(t, 3, got[1].ID)

	assert.Empty(t, EntriesForDate(entries, "1999-01-01", time.Now()))
}

func TestRows(t *testing.T) {
	in := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)
	out := in.Add(90 * time.Minute)
	rows := Rows([]store.TimeEntry{
		{ID: 1, TimeIn: in, TimeOut: &out, Synced: true},
		{ID: 2, TimeIn: out},
	})

	require.Len(t, rows, 2)
	assert.Equal(t, "09:00:00", rows[0].TimeIn)
	assert.Equal(t, "10:30:00", rows[0].TimeOut)
	assert.Equal(t, "01:30:00", rows[0].Duration)
	assert.True(t, rows[0].Synced)
	assert.Equal(t, "—", rows[1].TimeOut)
	assert.Equal(t, InProgress, rows[1].Duration)
}

func TestDailyTotals(t *testing.T) {
	d := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)
	entries := []store.TimeEntry{
		closed(d, d.Add(2*time.Hour)),
		closed(d.AddDate(0, 0, 1), d.AddDate(0, 0, 1).Add(time.Hour)),
		closed(d.Add(4*time.Hour), d.Add(5*time.Hour)),
		{TimeIn: d.AddDate(0, 0, 1).Add(3 * time.Hour)},
	}

	totals := DailyTotals(entries)
	require.Len(t, totals, 2)
	assert.Equal(t, "2024-05-01", totals[0].Date)
	assert.Equal(t, 3*time.Hour, totals[0].Total)
	assert.Equal(t, 2, totals[0].Entries)
	assert.Equal(t, "2024-05-02", totals[1].Date)
	assert.Equal(t, time.Hour, totals[1].Total)
	assert.Equal(t, 2, totals[1].Entries)
}

func TestModelLabels(t *testing.T) {
	m := NewModel("en-US")
	assert.Equal(t, "1 entry", m.CountLabel(1))
	assert.Equal(t, "1,234 entries", m.CountLabel(1234))
	assert.Equal(t, "8.5h", m.HoursLabel(8*time.Hour+30*time.Minute))

	fallback := NewModel("not a locale!")
	assert.Equal(t, "3 entries", fallback.CountLabel(3))
}

func TestModelDateLabelsFollowLocale(t *testing.T) {
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.Local)
	entries := []store.TimeEntry{{TimeIn: now}}

	tests := []struct {
		locale string
		want   string
	}{
		{"en-US", "Sat Mar 9, 2024"},
		{"en-GB", "Sat 9 Mar 2024"},
		{"de-DE", "09.03.2024"},
		{"fr", "09/03/2024"},
		{"ja-JP", "2024/03/09"},
		{"sv-SE", "2024-03-09"},
		{"not a locale!", "Sat Mar 9, 2024"},
	}
	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			opts := NewModel(tt.locale).DistinctDates(entries, now)
			require.Len(t, opts, 2)
			assert.Equal(t, Today+" · "+tt.want, opts[0].Label)
			assert.Equal(t, tt.want+" (today)", opts[1].Label)
			assert.Equal(t, DateKey(now), opts[1].Value)
		})
	}
}
