package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/cartsync/internal/recordserver"
	"github.com/roach88/cartsync/internal/remote"
)

// shutdownTimeout bounds graceful shutdown of the record server.
const shutdownTimeout = 5 * time.Second

// ServeOptions holds flags for the serve-records command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeRecordsCommand creates the serve-records command.
func NewServeRecordsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve-records",
		Short: "Serve the record API over HTTP",
		Long: `Serve the record API (GET/PUT /records/{owner}/{kind}) over HTTP.

Records are kept in the configured remote backend, or in memory when the
backend is "none". Point other cartsync instances at it with
remote.backend: http and remote.http.base_url.

Example:
  cartsync serve-records --addr 127.0.0.1:8080`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts.RootOptions, func(ctx context.Context, s *session) error {
				return serveRecords(ctx, opts, s)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "127.0.0.1:8080", "listen address")

	return cmd
}

func serveRecords(ctx context.Context, opts *ServeOptions, s *session) error {
	records := s.app.Records
	if records == nil {
		s.app.Logger.Info("no remote backend configured; serving in-memory records")
		records = remote.NewMemoryRecords()
	}

	srv := recordserver.New(records, recordserver.WithLogger(s.app.Logger))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(opts.Addr)
	}()

	if opts.Format != "json" {
		fmt.Fprintf(s.out.Writer, "Serving records on %s. Press Ctrl-C to stop.\n", opts.Addr)
	}

	select {
	case err := <-errCh:
		if err != nil {
			return WrapExitError(ExitFailure, "record server failed", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.app.Logger.Info("shutting down record server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitFailure, "record server shutdown failed", err)
	}
	if err := <-errCh; err != nil {
		return WrapExitError(ExitFailure, "record server failed", err)
	}
	return nil
}
