package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/timeclock/internal/tui"
)

func runTUI(cmd *cobra.Command, opts *RootOptions) error {
	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	e, err := openEnv(ctx, opts.cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	events, unsubscribe := e.monitor.Subscribe()
	defer unsubscribe()
	go e.monitor.Run(ctx)

	app := tui.NewApp(tui.Deps{
		Context:    ctx,
		Controller: e.ctrl,
		Reconciler: e.rec,
		Pending:    e.pending,
		Conn:       e.monitor,
		Events:     events,
		Locale:     opts.cfg.Locale,
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
