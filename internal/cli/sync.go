package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/cartsync/internal/collection"
	"github.com/roach88/cartsync/internal/engine"
)

// NewSyncCommand creates the sync command group.
func NewSyncCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Explicitly pull or push remote snapshots",
		Long: `Explicitly pull or push remote snapshots.

Unlike "cart show", a failed pull or push is reported and exits with code 1.
Both commands require --owner and a configured remote backend.

Examples:
  cartsync sync pull --owner user-1
  cartsync sync push wishlist --owner user-1`,
	}

	cmd.AddCommand(newSyncPullCommand(opts))
	cmd.AddCommand(newSyncPushCommand(opts))

	return cmd
}

func newSyncPullCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "pull [cart|wishlist]...",
		Short:         "Replace local state with the remote snapshot",
		ValidArgs:     []string{"cart", "wishlist"},
		Args:          cobra.MatchAll(cobra.MaximumNArgs(2), cobra.OnlyValidArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, opts, args, func(ctx context.Context, e *engine.Engine) (collection.Collection, error) {
				return e.Pull(ctx)
			})
		},
	}
}

func newSyncPushCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "push [cart|wishlist]...",
		Short:         "Write the local snapshot to the remote backend",
		ValidArgs:     []string{"cart", "wishlist"},
		Args:          cobra.MatchAll(cobra.MaximumNArgs(2), cobra.OnlyValidArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, opts, args, func(ctx context.Context, e *engine.Engine) (collection.Collection, error) {
				return e.GetLocal(), e.Push(ctx)
			})
		},
	}
}

// SyncResult is the JSON payload of sync pull and sync push.
type SyncResult struct {
	Owner       string                           `json:"owner"`
	Collections map[string]collection.Collection `json:"collections"`
}

func runSync(cmd *cobra.Command, opts *RootOptions, args []string,
	op func(ctx context.Context, e *engine.Engine) (collection.Collection, error)) error {
	if opts.Owner == "" {
		return NewExitError(ExitCommandError, "an owner is required: pass --owner or set CARTSYNC_OWNER")
	}

	kinds, err := syncKinds(args)
	if err != nil {
		return err
	}

	return withSession(cmd, opts, func(ctx context.Context, s *session) error {
		if s.app.Records == nil {
			return NewExitError(ExitCommandError, "no remote backend configured (remote.backend is none)")
		}

		res := SyncResult{Owner: opts.Owner, Collections: make(map[string]collection.Collection)}
		for _, kind := range kinds {
			e := s.app.Cart.Engine()
			if kind == collection.KindWishlist {
				e = s.app.Wishlist.Engine()
			}
			c, err := op(ctx, e)
			if err != nil {
				return WrapExitError(ExitFailure, fmt.Sprintf("%s %s failed", cmd.Name(), kind), err)
			}
			res.Collections[kind.String()] = c
			s.out.VerboseLog("%s %s ok (%d entries)", cmd.Name(), kind, c.Len())
		}

		return s.out.Success(res, func(w io.Writer) {
			for _, kind := range kinds {
				writeCollection(w, res.Collections[kind.String()])
			}
		})
	})
}

// syncKinds maps arguments to kinds, defaulting to both.
func syncKinds(args []string) ([]collection.Kind, error) {
	if len(args) == 0 {
		return []collection.Kind{collection.KindCart, collection.KindWishlist}, nil
	}
	kinds := make([]collection.Kind, 0, len(args))
	for _, a := range args {
		k, err := collection.ParseKind(a)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid collection", err)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}
