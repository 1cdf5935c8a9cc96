package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sadopc/timeclock/internal/store"
)

// ErrReconciliation is matched by every error returned from Reconciler.Sync.
var ErrReconciliation = errors.New("reconciliation failed")

// ReconcileError reports the entry a sync pass stopped at.
type ReconcileError struct {
	Pass    string
	EntryID int64
	Err     error
}

func (e *ReconcileError) Error() string {
	if e.EntryID == 0 {
		return fmt.Sprintf("%s (pass %s): %v", ErrReconciliation, e.Pass, e.Err)
	}
	return fmt.Sprintf("%s (pass %s, entry %d): %v", ErrReconciliation, e.Pass, e.EntryID, e.Err)
}

func (e *ReconcileError) Unwrap() error { return e.Err }

func (e *ReconcileError) Is(target error) bool { return target == ErrReconciliation }

// Remote receives entries during a sync pass.
type Remote interface {
	Push(ctx context.Context, e store.TimeEntry) error
}

// LogRemote is the placeholder backend: it only records the intent to sync.
type LogRemote struct{}

func (LogRemote) Push(_ context.Context, e store.TimeEntry) error {
	slog.Info("sync entry to remote", "id", e.ID, "time_in", e.TimeIn, "open", e.Open())
	return nil
}

// SyncResult summarizes a pass.
type SyncResult struct {
	Pass   string
	Seen   int
	Synced int
}

// Reconciler marks unsynced entries as synced.
type Reconciler struct {
	store   EntryStore
	remote  Remote
	pending *Pending
}

func NewReconciler(s EntryStore, remote Remote, pending *Pending) *Reconciler {
	if remote == nil {
		remote = LogRemote{}
	}
	return &Reconciler{store: s, remote: remote, pending: pending}
}

// Sync reads a snapshot of all entries and writes back each unsynced one
// with Synced set, one update per entry. The pass is not atomic: a failure
// part way leaves earlier entries synced. On failure the pending flag is
// raised again; nothing is retried until the next call.
func (r *Reconciler) Sync(ctx context.Context) (SyncResult, error) {
	res := SyncResult{Pass: uuid.NewString()}
	log := slog.With("pass", res.Pass)
	log.Debug("sync pass starting")

	entries, err := r.store.GetAll()
	if err != nil {
		return res, r.fail(log, &ReconcileError{Pass: res.Pass, Err: err})
	}
	res.Seen = len(entries)

	for _, e := range entries {
		if e.Synced {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, r.fail(log, &ReconcileError{Pass: res.Pass, EntryID: e.ID, Err: err})
		}
		if err := r.remote.Push(ctx, e); err != nil {
			return res, r.fail(log, &ReconcileError{Pass: res.Pass, EntryID: e.ID, Err: err})
		}
		e.Synced = true
		if err := r.store.Update(e); err != nil {
			return res, r.fail(log, &ReconcileError{Pass: res.Pass, EntryID: e.ID, Err: err})
		}
		res.Synced++
	}

	r.pending.Clear()
	log.Info("sync pass complete", "seen", res.Seen, "synced", res.Synced)
	return res, nil
}

func (r *Reconciler) fail(log *slog.Logger, err *ReconcileError) error {
	r.pending.Raise()
	log.Error("sync pass failed", "entry", err.EntryID, "error", err.Err)
	return err
}
