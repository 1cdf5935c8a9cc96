package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/timeclock/internal/history"
	"github.com/sadopc/timeclock/internal/store"
	"github.com/sadopc/timeclock/internal/tracker"
)

type clockModel struct {
	timer   timerModel
	conn    tracker.Connectivity
	pending *tracker.Pending
	labels  history.Model
	width   int
	height  int

	today []store.TimeEntry
}

func newClockModel(ctrl *tracker.Controller, conn tracker.Connectivity, pending *tracker.Pending, labels history.Model) clockModel {
	return clockModel{
		timer:   newTimerModel(ctrl),
		conn:    conn,
		pending: pending,
		labels:  labels,
	}
}

func (c *clockModel) setSize(w, h int) {
	c.width = w
	c.height = h
}

func (c clockModel) isRunning() bool { return c.timer.running() }
func (c clockModel) elapsed() time.Duration {
	return c.timer.currentElapsed()
}

func (c clockModel) update(msg tea.Msg) (clockModel, tea.Cmd) {
	switch msg := msg.(type) {
	case entriesMsg:
		if msg.err == nil {
			c.today = history.EntriesForDate(msg.entries, history.Today, c.timer.now())
		}
		return c, nil

	case tickMsg:
		c.timer.tick()
		return c, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.ClockIn):
			// Disabled while clocked in.
			if c.timer.running() {
				return c, nil
			}
			return c.clockIn()

		case key.Matches(msg, keys.ClockOut):
			if !c.timer.running() {
				return c, nil
			}
			return c.clockOut()
		}
	}
	return c, nil
}

func (c clockModel) clockIn() (clockModel, tea.Cmd) {
	entry, err := c.timer.start()
	if err != nil {
		return c, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Clock in failed: %v", err), isError: true}
		}
	}
	return c, func() tea.Msg { return clockedInMsg{entry: entry} }
}

func (c clockModel) clockOut() (clockModel, tea.Cmd) {
	entry, err := c.timer.stop()
	if err != nil {
		return c, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Clock out failed: %v", err), isError: true}
		}
	}
	return c, func() tea.Msg { return clockedOutMsg{entry: entry} }
}

func (c clockModel) view() string {
	if c.width < 20 {
		return "Terminal too small"
	}

	contentWidth := c.width - 4

	var sections []string
	if banners := c.renderBanners(); banners != "" {
		sections = append(sections, banners)
	}
	sections = append(sections,
		c.renderTimerPanel(contentWidth),
		c.renderButtons(),
		c.renderTodayPanel(contentWidth),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (c clockModel) renderBanners() string {
	var banners []string
	if !c.conn.Online() {
		banners = append(banners, offlineBannerStyle.Render("OFFLINE: entries are saved locally"))
	}
	if c.pending.Raised() {
		banners = append(banners, pendingBannerStyle.Render("UNSYNCED DATA: will sync when back online"))
	}
	if len(banners) == 0 {
		return ""
	}
	return " " + strings.Join(banners, " ")
}

func (c clockModel) renderTimerPanel(w int) string {
	if c.timer.running() {
		timeDisplay := timerRunningStyle.Width(w - 6).Render(formatDuration(c.timer.currentElapsed()))
		indicator := successStyle.Render("●  CLOCKED IN")
		since := mutedStyle.Render("since " + c.timer.current().TimeIn.Local().Format("Mon Jan 2 15:04:05"))

		content := lipgloss.JoinVertical(lipgloss.Center, timeDisplay, indicator, since)
		return activePanelStyle.Width(w).Render(content)
	}

	timeDisplay := timerStyle.Width(w - 6).Render("00:00:00")
	indicator := mutedStyle.Render("■  CLOCKED OUT")
	last := mutedStyle.Render("Time out: not yet")
	if cur := c.timer.current(); cur != nil && cur.TimeOut != nil {
		last = mutedStyle.Render("Last time out: " + cur.TimeOut.Local().Format("Mon Jan 2 15:04:05"))
	}

	content := lipgloss.JoinVertical(lipgloss.Center, timeDisplay, indicator, last)
	return panelStyle.Width(w).Render(content)
}

func (c clockModel) renderButtons() string {
	in := buttonStyle.Render("i  Time In")
	out := disabledButtonStyle.Render("o  Time Out")
	if c.timer.running() {
		in = disabledButtonStyle.Render("i  Time In")
		out = buttonStyle.Render("o  Time Out")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, " ", in, " ", out)
}

func (c clockModel) renderTodayPanel(w int) string {
	var total time.Duration
	for _, e := range c.today {
		total += e.Duration()
	}
	header := fmt.Sprintf("%s  %s  %s",
		titleStyle.Render("Today"),
		highlightStyle.Render(formatDuration(total)),
		mutedStyle.Render(c.labels.CountLabel(len(c.today))),
	)

	if len(c.today) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header,
			mutedStyle.Render("No entries today"),
		))
	}

	rows := []string{header}
	for _, r := range history.Rows(c.today) {
		status := "✓"
		if r.Duration == history.InProgress {
			status = "●"
		}
		rows = append(rows, fmt.Sprintf("  %s %s → %-8s %s", status, r.TimeIn, r.TimeOut, r.Duration))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
