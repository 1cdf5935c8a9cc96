// Package netwatch tracks whether the network is reachable and publishes
// online/offline transitions to subscribers.
package netwatch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

type State int

const (
	Offline State = iota
	Online
)

func (s State) String() string {
	if s == Online {
		return "online"
	}
	return "offline"
}

// Event is published on every state transition.
type Event struct {
	From State
	To   State
	At   time.Time
}

// Prober checks reachability. A nil error means online.
type Prober interface {
	Probe(ctx context.Context) error
}

// HTTPProber sends a HEAD request to URL. Any response, whatever its status,
// counts as reachable.
type HTTPProber struct {
	Client *http.Client
	URL    string
}

func (p HTTPProber) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Monitor holds the current connectivity state.
type Monitor struct {
	prober   Prober
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time

	mu     sync.Mutex
	state  State
	subs   map[int]chan Event
	nextID int
}

// New returns a monitor that starts Offline until Init or Report says
// otherwise.
func New(prober Prober, interval, timeout time.Duration) *Monitor {
	return &Monitor{
		prober:   prober,
		interval: interval,
		timeout:  timeout,
		now:      time.Now,
		subs:     make(map[int]chan Event),
	}
}

// Init performs the first probe and sets the starting state without
// publishing an event.
func (m *Monitor) Init(ctx context.Context) State {
	state := m.probe(ctx)
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()
	slog.Info("connectivity initialized", "state", state)
	return state
}

// Run probes every interval until ctx is done, then closes every
// subscription.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	defer m.closeAll()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Report(m.probe(ctx))
		}
	}
}

func (m *Monitor) probe(ctx context.Context) State {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	if err := m.prober.Probe(ctx); err != nil {
		slog.Debug("connectivity probe failed", "error", err)
		return Offline
	}
	return Online
}

// Report records an observed state. Subscribers are notified only when it
// differs from the current one. Slow subscribers lose events rather than
// block the monitor.
func (m *Monitor) Report(state State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if state == m.state {
		return
	}
	ev := Event{From: m.state, To: state, At: m.now()}
	m.state = state
	slog.Info("connectivity changed", "from", ev.From, "to", ev.To)

	for id, ch := range m.subs {
		select {
		case ch <- ev:
		default:
			slog.Warn("connectivity event dropped", "subscriber", id, "to", ev.To)
		}
	}
}

func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Monitor) Online() bool {
	return m.State() == Online
}

// Subscribe returns a channel of transitions and a function that
// unsubscribes and closes it.
func (m *Monitor) Subscribe() (<-chan Event, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	ch := make(chan Event, 8)
	m.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if c, ok := m.subs[id]; ok {
				delete(m.subs, id)
				close(c)
			}
		})
	}
}

func (m *Monitor) closeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ch := range m.subs {
		delete(m.subs, id)
		close(ch)
	}
}
