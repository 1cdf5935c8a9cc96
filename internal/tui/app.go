package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/timeclock/internal/history"
	"github.com/sadopc/timeclock/internal/netwatch"
	"github.com/sadopc/timeclock/internal/tracker"
)

// Deps are the collaborators the UI drives. Controller must already have
// loaded its session.
type Deps struct {
	Context    context.Context
	Controller *tracker.Controller
	Reconciler *tracker.Reconciler
	Pending    *tracker.Pending
	Conn       tracker.Connectivity
	Events     <-chan netwatch.Event
	Locale     string
}

// App is the root Bubble Tea model. Its Update is the single dispatcher for
// key presses, ticks, connectivity events, storage reads and sync results.
type App struct {
	ctx    context.Context
	ctrl   *tracker.Controller
	rec    *tracker.Reconciler
	conn   tracker.Connectivity
	events <-chan netwatch.Event
	width  int
	height int

	activeView viewState
	showHelp   bool

	clock   clockModel
	history historyModel
	reports reportsModel

	help   help.Model
	status string
	isErr  bool
}

func NewApp(d Deps) App {
	h := help.New()
	h.ShowAll = false

	ctx := d.Context
	if ctx == nil {
		ctx = context.Background()
	}
	labels := history.NewModel(d.Locale)

	return App{
		ctx:        ctx,
		ctrl:       d.Controller,
		rec:        d.Reconciler,
		conn:       d.Conn,
		events:     d.Events,
		activeView: viewClock,
		clock:      newClockModel(d.Controller, d.Conn, d.Pending, labels),
		history:    newHistoryModel(labels),
		reports:    newReportsModel(labels),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.loadEntries(),
		tickCmd(),
		waitForConnectivity(a.events),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForConnectivity delivers the next monitor event as a message.
func waitForConnectivity(events <-chan netwatch.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return connectivityClosedMsg{}
		}
		return connectivityMsg{event: ev}
	}
}

func (a App) loadEntries() tea.Cmd {
	return func() tea.Msg {
		entries, err := a.ctrl.History()
		return entriesMsg{entries: entries, err: err}
	}
}

func (a App) syncCmd() tea.Cmd {
	return func() tea.Msg {
		res, err := a.rec.Sync(a.ctx)
		return syncDoneMsg{result: res, err: err}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.clock.setSize(a.width, contentHeight)
		a.history.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// The date picker captures input while open.
		if a.activeView == viewHistory && a.history.formActive {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Sync):
			a.setStatus("Syncing…", false)
			return a, a.syncCmd()
		case key.Matches(msg, keys.ClockIn), key.Matches(msg, keys.ClockOut):
			// Clock actions work from every view.
			var cmd tea.Cmd
			a.clock, cmd = a.clock.update(msg)
			return a, cmd
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewClock
			return a, a.loadEntries()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewHistory
			return a, a.loadEntries()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewReports
			return a, a.loadEntries()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.loadEntries()
		}

	case tickMsg:
		var cmd tea.Cmd
		a.clock, cmd = a.clock.update(msg)
		return a, tea.Batch(tickCmd(), cmd)

	case statusMsg:
		a.setStatus(msg.text, msg.isError)
		return a, nil

	case clockedInMsg:
		a.setStatus("Clocked in at "+msg.entry.TimeIn.Local().Format("15:04:05"), false)
		return a, a.loadEntries()

	case clockedOutMsg:
		a.setStatus("Clocked out after "+formatDuration(msg.entry.Duration()), false)
		return a, a.loadEntries()

	case entriesMsg:
		if msg.err != nil {
			a.setStatus(fmt.Sprintf("Storage error: %v", msg.err), true)
			return a, nil
		}
		a.clock, _ = a.clock.update(msg)
		a.history, _ = a.history.update(msg)
		a.reports, _ = a.reports.update(msg)
		return a, nil

	case connectivityMsg:
		next := waitForConnectivity(a.events)
		if msg.event.To == netwatch.Online {
			a.setStatus("Back online, syncing…", false)
			return a, tea.Batch(next, a.syncCmd())
		}
		a.setStatus("Offline", true)
		return a, next

	case connectivityClosedMsg:
		return a, nil

	case syncDoneMsg:
		if msg.err != nil {
			a.setStatus(fmt.Sprintf("Sync failed: %v", msg.err), true)
		} else {
			a.setStatus(fmt.Sprintf("Synced %d entries", msg.result.Synced), false)
		}
		return a, a.loadEntries()
	}

	return a.updateActiveView(msg)
}

func (a *App) setStatus(text string, isErr bool) {
	a.status = text
	a.isErr = isErr
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewClock:
		a.clock, cmd = a.clock.update(msg)
	case viewHistory:
		a.history, cmd = a.history.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	}
	return a, cmd
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewClock:
		content = a.clock.view()
	case viewHistory:
		content = a.history.view()
	case viewReports:
		content = a.reports.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("timeclock")
	conn := successStyle.Render(" ● online")
	if !a.conn.Online() {
		conn = errorStyle.Render(" ○ offline")
	}
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(conn) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, conn, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		if a.isErr {
			status = errorStyle.Render(" " + a.status)
		} else {
			status = mutedStyle.Render(" " + a.status)
		}
	}

	timerInfo := ""
	if a.clock.isRunning() {
		timerInfo = successStyle.Render(" ● " + formatDuration(a.clock.elapsed()))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}
