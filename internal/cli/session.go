package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/cartsync/internal/app"
	"github.com/roach88/cartsync/internal/config"
	"github.com/roach88/cartsync/internal/engine"
)

// session is one command's assembled app and output formatter.
type session struct {
	app *app.App
	out *OutputFormatter
}

// withSession loads config, assembles the app, runs fn and closes the app.
// Background pushes are drained before the command returns.
func withSession(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, s *session) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(opts.ConfigPath, opts.EnvFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	logger := newLogger(cfg.Log, opts.Verbose, cmd.ErrOrStderr())
	appOpts := append([]app.Option{app.WithLogger(logger)}, opts.AppOptions...)

	a, err := app.New(ctx, cfg, appOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open stores", err)
	}
	defer func() {
		if closeErr := a.Close(context.WithoutCancel(ctx)); closeErr != nil && err == nil {
			err = WrapExitError(ExitFailure, "failed to close stores", closeErr)
		}
	}()

	if opts.Owner != "" {
		a.SetOwner(opts.Owner)
	}

	s := &session{
		app: a,
		out: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		},
	}
	if opts.Verbose {
		a.Notifier.SubscribeAll(func(topic string, ev engine.ChangeEvent) {
			s.out.VerboseLog("event %s seq=%d entry=%s count=%d total=%s",
				topic, ev.Seq, ev.EntryID, ev.Collection.Count, ev.Collection.Total)
		})
	}

	return fn(ctx, s)
}

// newLogger builds the slog logger described by lc. Verbose forces debug.
func newLogger(lc config.LogConfig, verbose bool, w io.Writer) *slog.Logger {
	level := lc.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}
