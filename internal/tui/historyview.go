package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/timeclock/internal/history"
	"github.com/sadopc/timeclock/internal/store"
)

type historyModel struct {
	labels history.Model
	now    func() time.Time
	width  int
	height int

	entries []store.TimeEntry
	options []history.DateOption
	cursor  int

	formActive bool
	form       *huh.Form
	// Form value as pointer (survives value copies)
	choice *string
}

func newHistoryModel(labels history.Model) historyModel {
	choice := history.Today
	return historyModel{
		labels:  labels,
		now:     time.Now,
		options: labels.DistinctDates(nil, time.Now()),
		choice:  &choice,
	}
}

func (h *historyModel) setSize(w, hgt int) {
	h.width = w
	h.height = hgt
}

func (h historyModel) selected() string {
	if h.cursor < 0 || h.cursor >= len(h.options) {
		return history.Today
	}
	return h.options[h.cursor].Value
}

func (h historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	if h.formActive && h.form != nil {
		return h.updateForm(msg)
	}

	switch msg := msg.(type) {
	case entriesMsg:
		if msg.err != nil {
			return h, nil
		}
		current := h.selected()
		h.entries = msg.entries
		h.options = h.labels.DistinctDates(msg.entries, h.now())
		h.cursor = h.indexOf(current)
		return h, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			if h.cursor > 0 {
				h.cursor--
			}
		case key.Matches(msg, keys.Right):
			if h.cursor < len(h.options)-1 {
				h.cursor++
			}
		case key.Matches(msg, keys.Enter):
			return h.showForm()
		}
	}
	return h, nil
}

func (h historyModel) indexOf(value string) int {
	for i, o := range h.options {
		if o.Value == value {
			return i
		}
	}
	return 0
}

func (h historyModel) showForm() (historyModel, tea.Cmd) {
	*h.choice = h.selected()

	opts := make([]huh.Option[string], 0, len(h.options))
	for _, o := range h.options {
		opts = append(opts, huh.NewOption(o.Label, o.Value))
	}

	h.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Show entries for").
				Options(opts...).
				Value(h.choice),
		),
	).WithShowHelp(true)

	h.formActive = true
	return h, h.form.Init()
}

func (h historyModel) updateForm(msg tea.Msg) (historyModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(msg, keys.Back) {
			h.formActive = false
			h.form = nil
			return h, nil
		}
	}

	form, cmd := h.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		h.form = f
	}

	if h.form.State == huh.StateCompleted {
		h.formActive = false
		h.form = nil
		h.cursor = h.indexOf(*h.choice)
		return h, nil
	}
	return h, cmd
}

func (h historyModel) view() string {
	w := h.width - 4
	title := titleStyle.Render("History")

	if h.formActive && h.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", h.form.View()),
		)
	}

	label := history.Today
	if h.cursor < len(h.options) {
		label = h.options[h.cursor].Label
	}
	selector := fmt.Sprintf("%s %s %s",
		mutedStyle.Render("←"),
		highlightStyle.Render(label),
		mutedStyle.Render("→"),
	)

	matches := history.EntriesForDate(h.entries, h.selected(), h.now())
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		title, "  ", selector, "  ", mutedStyle.Render(h.labels.CountLabel(len(matches))),
	)

	nav := mutedStyle.Render("  ←/→: change date  enter: pick date")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, "", h.renderTable(matches, w), "", nav),
	)
}

func (h historyModel) renderTable(entries []store.TimeEntry, w int) string {
	if len(entries) == 0 {
		return mutedStyle.Render("  No entries for this date")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-10s %-10s %-12s %s", "Time In", "Time Out", "Duration", "Synced")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 44))))

	for _, r := range history.Rows(entries) {
		synced := successStyle.Render("✓")
		if !r.Synced {
			synced = warningStyle.Render("pending")
		}
		rows = append(rows, fmt.Sprintf("  %-10s %-10s %-12s %s", r.TimeIn, r.TimeOut, r.Duration, synced))
	}
	return strings.Join(rows, "\n")
}
