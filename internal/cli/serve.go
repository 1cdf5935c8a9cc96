package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/timeclock/internal/assetcache"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string

	// ready, if set, receives the bound address once the listener is up.
	ready chan<- string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web client through the offline asset cache",
		Long: `Install the configured cache version from the upstream server, evict
older versions and serve cached assets, forwarding everything else upstream.

A failed install leaves older versions in place and every request goes to
the upstream server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(commandContext(cmd), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides cache.addr)")
	return cmd
}

func runServe(parent context.Context, opts *ServeOptions, cmd *cobra.Command) error {
	cfg := opts.cfg.Cache
	addr := opts.Addr
	if addr == "" {
		addr = cfg.Addr
	}

	upstream, err := url.Parse(cfg.Upstream)
	if err != nil {
		return fmt.Errorf("parse upstream %q: %w", cfg.Upstream, err)
	}

	storage, err := assetcache.OpenStorage(cfg.Database)
	if err != nil {
		return fmt.Errorf("open asset cache: %w", err)
	}
	defer storage.Close()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := &http.Client{Timeout: 30 * time.Second}
	worker := assetcache.NewWorker(storage, cfg.Version, upstream, cfg.Manifest, client)

	if err := worker.Install(ctx); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	} else if _, err := worker.Activate(); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	srv := &http.Server{Handler: worker, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	bound := ln.Addr().String()
	slog.Info("asset cache serving", "addr", bound, "cache", worker.CacheName(), "upstream", upstream)
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s\n", worker.CacheName(), bound)
	if opts.ready != nil {
		opts.ready <- bound
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("asset cache stopped")
	return nil
}
