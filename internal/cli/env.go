package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sadopc/timeclock/internal/config"
	"github.com/sadopc/timeclock/internal/netwatch"
	"github.com/sadopc/timeclock/internal/store"
	"github.com/sadopc/timeclock/internal/tracker"
)

// env is everything a clock command needs, built from the config.
type env struct {
	store   *store.Store
	monitor *netwatch.Monitor
	pending *tracker.Pending
	ctrl    *tracker.Controller
	rec     *tracker.Reconciler
}

// openEnv opens the entry store, takes a first connectivity reading and
// restores the session from the last record.
func openEnv(ctx context.Context, cfg *config.Config) (*env, error) {
	s, err := store.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open entry store: %w", err)
	}

	prober := netwatch.HTTPProber{Client: &http.Client{}, URL: cfg.Connectivity.ProbeURL}
	mon := netwatch.New(prober, cfg.Connectivity.Interval.Duration, cfg.Connectivity.Timeout.Duration)
	mon.Init(ctx)

	// Rows left unsynced by an earlier run still count as pending.
	unsynced, err := s.Unsynced()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("read unsynced entries: %w", err)
	}
	pending := &tracker.Pending{}
	pending.Set(len(unsynced) > 0)

	ctrl := tracker.NewController(s, mon, pending)
	session, err := ctrl.Load()
	if err != nil {
		s.Close()
		return nil, err
	}
	slog.Info("session restored", "state", session.State, "unsynced", len(unsynced))

	return &env{
		store:   s,
		monitor: mon,
		pending: pending,
		ctrl:    ctrl,
		rec:     tracker.NewReconciler(s, nil, pending),
	}, nil
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		slog.Error("error closing entry store", "error", err)
	}
}
