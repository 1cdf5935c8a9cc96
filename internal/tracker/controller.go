// Package tracker holds the clock-in/clock-out state machine and the
// reconciliation pass that marks local entries as synced.
package tracker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sadopc/timeclock/internal/store"
)

// ErrInvalidState is returned when ClockIn or ClockOut is called in the
// wrong state.
var ErrInvalidState = errors.New("invalid state")

// State is the derived session state.
type State int

const (
	ClockedOut State = iota
	ClockedIn
)

func (s State) String() string {
	if s == ClockedIn {
		return "clocked in"
	}
	return "clocked out"
}

// Session mirrors the latest record. Current is nil when nothing has been
// recorded yet.
type Session struct {
	State   State
	Current *store.TimeEntry
}

// EntryStore is the subset of *store.Store the tracker needs.
type EntryStore interface {
	Append(e store.TimeEntry) (*store.TimeEntry, error)
	GetAll() ([]store.TimeEntry, error)
	Last() (*store.TimeEntry, error)
	Update(e store.TimeEntry) error
}

// Connectivity reports whether the remote side is considered reachable.
type Connectivity interface {
	Online() bool
}

// Controller owns the session state. It is driven from a single dispatcher
// and is not safe for concurrent use.
type Controller struct {
	store   EntryStore
	conn    Connectivity
	pending *Pending
	now     func() time.Time

	session Session
}

type Option func(*Controller)

// WithClock overrides the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func NewController(s EntryStore, conn Connectivity, pending *Pending, opts ...Option) *Controller {
	c := &Controller{
		store:   s,
		conn:    conn,
		pending: pending,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load rebuilds the session from the last stored record.
func (c *Controller) Load() (Session, error) {
	last, err := c.store.Last()
	if err != nil {
		return c.session, fmt.Errorf("load session: %w", err)
	}
	c.session = sessionFor(last)
	return c.session, nil
}

func sessionFor(last *store.TimeEntry) Session {
	if last == nil {
		return Session{State: ClockedOut}
	}
	if last.Open() {
		return Session{State: ClockedIn, Current: last}
	}
	return Session{State: ClockedOut, Current: last}
}

func (c *Controller) Session() Session {
	return c.session
}

// ClockIn opens a new session.
func (c *Controller) ClockIn() (*store.TimeEntry, error) {
	if c.session.State != ClockedOut {
		return nil, fmt.Errorf("clock in while %s: %w", c.session.State, ErrInvalidState)
	}

	online := c.conn.Online()
	entry, err := c.store.Append(store.TimeEntry{
		TimeIn: c.now(),
		Synced: online,
	})
	if err != nil {
		return nil, fmt.Errorf("clock in: %w", err)
	}
	if !online {
		c.pending.Raise()
	}

	c.session = Session{State: ClockedIn, Current: entry}
	slog.Info("clocked in", "id", entry.ID, "online", online)
	return entry, nil
}

// ClockOut closes the open session. It reads the last record and writes it
// back with TimeOut set, as two separate store operations.
func (c *Controller) ClockOut() (*store.TimeEntry, error) {
	if c.session.State != ClockedIn {
		return nil, fmt.Errorf("clock out while %s: %w", c.session.State, ErrInvalidState)
	}

	last, err := c.store.Last()
	if err != nil {
		return nil, fmt.Errorf("clock out: %w", err)
	}
	if last == nil {
		return nil, fmt.Errorf("clock out: %w", store.ErrNotFound)
	}

	online := c.conn.Online()
	now := c.now()
	last.TimeOut = &now
	last.Synced = online
	if err := c.store.Update(*last); err != nil {
		return nil, fmt.Errorf("clock out: %w", err)
	}
	if !online {
		c.pending.Raise()
	}

	c.session = Session{State: ClockedOut, Current: last}
	slog.Info("clocked out", "id", last.ID, "online", online, "duration", last.Duration())
	return last, nil
}

// History returns every recorded entry in insertion order.
func (c *Controller) History() ([]store.TimeEntry, error) {
	entries, err := c.store.GetAll()
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return entries, nil
}
