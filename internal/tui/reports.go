package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/timeclock/internal/history"
)

// reportDays is how many calendar days one page of the chart covers.
const reportDays = 7

type reportsModel struct {
	labels history.Model
	now    func() time.Time
	width  int
	height int

	totals map[string]history.DayTotal
	offset int // pages back from the current week (0 = ending today)

	chart barchart.Model
}

func newReportsModel(labels history.Model) reportsModel {
	return reportsModel{
		labels: labels,
		now:    time.Now,
		totals: map[string]history.DayTotal{},
		chart:  barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

// days returns the local midnights of the current page, oldest first.
func (r reportsModel) days() []time.Time {
	n := r.now().Local()
	end := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.Local).AddDate(0, 0, -reportDays*r.offset)
	out := make([]time.Time, 0, reportDays)
	for i := reportDays - 1; i >= 0; i-- {
		out = append(out, end.AddDate(0, 0, -i))
	}
	return out
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case entriesMsg:
		if msg.err != nil {
			return r, nil
		}
		r.totals = make(map[string]history.DayTotal)
		for _, t := range history.DailyTotals(msg.entries) {
			r.totals[t.Date] = t
		}
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			r.buildChart()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			r.buildChart()
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	var bars []barchart.BarData
	for _, d := range r.days() {
		t := r.totals[d.Format("2006-01-02")]
		style := lipgloss.NewStyle().Foreground(colorPrimary)
		if t.Total == 0 {
			style = lipgloss.NewStyle().Foreground(colorSubtle)
		}
		bars = append(bars, barchart.BarData{
			Label: d.Format("Mon 02"),
			Values: []barchart.BarValue{{
				Name:  "hours",
				Value: t.Total.Hours(),
				Style: style,
			}},
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	days := r.days()
	var total time.Duration
	for _, d := range days {
		total += r.totals[d.Format("2006-01-02")].Total
	}

	dateLabel := mutedStyle.Render(fmt.Sprintf("%s — %s", days[0].Format("Jan 02"), days[len(days)-1].Format("Jan 02, 2006")))
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Reports"), "  ", dateLabel, "  ", highlightStyle.Render(r.labels.HoursLabel(total)),
	)

	nav := mutedStyle.Render("  ←/→: navigate weeks")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", r.renderTable(days, w), "", nav,
		),
	)
}

func (r reportsModel) renderTable(days []time.Time, w int) string {
	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %10s %12s", "Date", "Duration", "Entries")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 36))))

	found := false
	for _, d := range days {
		t, ok := r.totals[d.Format("2006-01-02")]
		if !ok {
			continue
		}
		found = true
		rows = append(rows, fmt.Sprintf("  %-12s %10s %12s",
			t.Date, formatDuration(t.Total), r.labels.CountLabel(t.Entries)))
	}
	if !found {
		return mutedStyle.Render("  No data for this period")
	}
	return strings.Join(rows, "\n")
}
