package tui

import (
	"time"

	"github.com/sadopc/timeclock/internal/store"
	"github.com/sadopc/timeclock/internal/tracker"
)

// timerModel drives the controller and keeps the elapsed time of the open
// session for display.
type timerModel struct {
	ctrl *tracker.Controller
	now  func() time.Time

	elapsed time.Duration
}

func newTimerModel(ctrl *tracker.Controller) timerModel {
	return timerModel{ctrl: ctrl, now: time.Now}
}

func (t *timerModel) start() (*store.TimeEntry, error) {
	entry, err := t.ctrl.ClockIn()
	if err != nil {
		return nil, err
	}
	t.elapsed = 0
	return entry, nil
}

func (t *timerModel) stop() (*store.TimeEntry, error) {
	entry, err := t.ctrl.ClockOut()
	if err != nil {
		return nil, err
	}
	t.elapsed = 0
	return entry, nil
}

func (t *timerModel) tick() {
	t.elapsed = t.currentElapsed()
}

func (t timerModel) running() bool {
	return t.ctrl.Session().State == tracker.ClockedIn
}

func (t timerModel) current() *store.TimeEntry {
	return t.ctrl.Session().Current
}

func (t timerModel) currentElapsed() time.Duration {
	s := t.ctrl.Session()
	if s.State != tracker.ClockedIn || s.Current == nil {
		return 0
	}
	d := t.now().Sub(s.Current.TimeIn)
	if d < 0 {
		return 0
	}
	return d
}
