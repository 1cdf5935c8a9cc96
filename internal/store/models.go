package store

import "time"

// TimeEntry is one clock-in/clock-out pair. TimeOut is nil while the
// session is open.
type TimeEntry struct {
	ID      int64
	TimeIn  time.Time
	TimeOut *time.Time
	Synced  bool
}

// Open reports whether the entry has not been clocked out yet.
func (e TimeEntry) Open() bool {
	return e.TimeOut == nil
}

// Duration is TimeOut - TimeIn, or zero for an open entry.
func (e TimeEntry) Duration() time.Duration {
	if e.TimeOut == nil {
		return 0
	}
	return e.TimeOut.Sub(e.TimeIn)
}
