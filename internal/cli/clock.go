package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/timeclock/internal/history"
	"github.com/sadopc/timeclock/internal/store"
)

const stampLayout = "Mon Jan 2 15:04:05"

// commandContext falls back to Background when the command was executed
// without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// NewInCommand creates the in command.
func NewInCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "in",
		Short: "Record a time in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(commandContext(cmd), opts.cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			entry, err := e.ctrl.ClockIn()
			if err != nil {
				return fmt.Errorf("clock in: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Clocked in at %s\n", entry.TimeIn.Local().Format(stampLayout))
			printSyncNote(cmd, entry)
			return nil
		},
	}
}

// NewOutCommand creates the out command.
func NewOutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "out",
		Short: "Record a time out for the open session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(commandContext(cmd), opts.cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			entry, err := e.ctrl.ClockOut()
			if err != nil {
				return fmt.Errorf("clock out: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Clocked out at %s after %s\n",
				entry.TimeOut.Local().Format(stampLayout), history.FormatDuration(*entry))
			printSyncNote(cmd, entry)
			return nil
		},
	}
}

func printSyncNote(cmd *cobra.Command, e *store.TimeEntry) {
	if !e.Synced {
		fmt.Fprintln(cmd.OutOrStdout(), "Offline: saved locally, run `timeclock sync` once back online")
	}
}

// NewStatusCommand creates the status command.
func NewStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session and today's total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(commandContext(cmd), opts.cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			entries, err := e.ctrl.History()
			if err != nil {
				return err
			}
			unsynced, err := e.store.Unsynced()
			if err != nil {
				return err
			}

			labels := history.NewModel(opts.cfg.Locale)
			now := time.Now()
			out := cmd.OutOrStdout()

			session := e.ctrl.Session()
			fmt.Fprintf(out, "State:    %s\n", session.State)
			if cur := session.Current; cur != nil && cur.Open() {
				fmt.Fprintf(out, "Since:    %s (%s)\n", cur.TimeIn.Local().Format(stampLayout),
					history.FormatClock(now.Sub(cur.TimeIn)))
			}

			today := history.EntriesForDate(entries, history.Today, now)
			var total time.Duration
			for _, t := range today {
				total += t.Duration()
			}
			fmt.Fprintf(out, "Today:    %s, %s\n", history.FormatClock(total), labels.CountLabel(len(today)))
			fmt.Fprintf(out, "Network:  %s\n", e.monitor.State())
			fmt.Fprintf(out, "Unsynced: %s\n", labels.CountLabel(len(unsynced)))
			return nil
		},
	}
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Mark every unsynced entry as synced",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(commandContext(cmd), opts.cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			res, err := e.rec.Sync(commandContext(cmd))
			if err != nil {
				return err
			}
			labels := history.NewModel(opts.cfg.Locale)
			fmt.Fprintf(cmd.OutOrStdout(), "Synced %s (pass %s)\n", labels.CountLabel(res.Synced), res.Pass)
			return nil
		},
	}
}
