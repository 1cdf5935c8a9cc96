package tracker

import "sync/atomic"

// Pending is the "unsynced data present" flag. The zero value is lowered.
type Pending struct {
	v atomic.Bool
}

func (p *Pending) Raise() { p.v.Store(true) }
func (p *Pending) Clear() { p.v.Store(false) }
func (p *Pending) Set(v bool) { p.v.Store(v) }
func (p *Pending) Raised() bool { return p.v.Load() }
