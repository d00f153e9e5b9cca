package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/cartsync/internal/collection"
)

// NewWishlistCommand creates the wishlist command group.
func NewWishlistCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wishlist",
		Short: "Inspect and change the wishlist",
		Long: `Inspect and change the wishlist.

Examples:
  cartsync wishlist add sku-1 --name Lamp --price 25.00
  cartsync wishlist toggle sku-1 --name Lamp
  cartsync wishlist sort name --desc`,
	}

	cmd.AddCommand(newWishlistAddCommand(opts))
	cmd.AddCommand(newWishlistRemoveCommand(opts))
	cmd.AddCommand(newWishlistRemoveProductCommand(opts))
	cmd.AddCommand(newWishlistToggleCommand(opts))
	cmd.AddCommand(newWishlistSortCommand(opts))
	cmd.AddCommand(newWishlistClearCommand(opts))
	cmd.AddCommand(newWishlistShowCommand(opts))
	cmd.AddCommand(newWishlistHasCommand(opts))

	return cmd
}

func newWishlistAddCommand(opts *RootOptions) *cobra.Command {
	var (
		pf    productFlags
		local bool
	)

	cmd := &cobra.Command{
		Use:           "add <product-id>",
		Short:         "Add an item (no-op if already present)",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := pf.product(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				var c collection.Collection
				if local {
					c = s.app.Wishlist.AddLocal(item)
				} else {
					c = s.app.Wishlist.Add(ctx, item)
				}
				return s.printCollection(c)
			})
		},
	}

	pf.bind(cmd)
	cmd.Flags().BoolVar(&local, "local", false, "skip the remote push")
	return cmd
}

func newWishlistRemoveCommand(opts *RootOptions) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:           "remove <entry-id>",
		Short:         "Remove an entry by ID",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				var c collection.Collection
				if local {
					c = s.app.Wishlist.RemoveLocal(args[0])
				} else {
					c = s.app.Wishlist.Remove(ctx, args[0])
				}
				return s.printCollection(c)
			})
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "skip the remote push")
	return cmd
}

func newWishlistRemoveProductCommand(opts *RootOptions) *cobra.Command {
	var (
		variant string
		local   bool
	)

	cmd := &cobra.Command{
		Use:           "remove-product <product-id>",
		Short:         "Remove the entry holding a product",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := collection.KeyFor(args[0], variant)
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				var c collection.Collection
				if local {
					c = s.app.Wishlist.RemoveProductLocal(key)
				} else {
					c = s.app.Wishlist.RemoveProduct(ctx, key)
				}
				return s.printCollection(c)
			})
		},
	}

	cmd.Flags().StringVar(&variant, "variant", "", "variant ID")
	cmd.Flags().BoolVar(&local, "local", false, "skip the remote push")
	return cmd
}

// ToggleResult is the JSON payload of wishlist toggle.
type ToggleResult struct {
	Present  bool                  `json:"present"`
	Wishlist collection.Collection `json:"wishlist"`
}

func newWishlistToggleCommand(opts *RootOptions) *cobra.Command {
	var (
		pf    productFlags
		local bool
	)

	cmd := &cobra.Command{
		Use:           "toggle <product-id>",
		Short:         "Add the item if absent, remove it if present",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := pf.product(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				var res ToggleResult
				if local {
					res.Wishlist, res.Present = s.app.Wishlist.ToggleLocal(item)
				} else {
					res.Wishlist, res.Present = s.app.Wishlist.Toggle(ctx, item)
				}
				return s.out.Success(res, func(w io.Writer) {
					verb := "removed from"
					if res.Present {
						verb = "added to"
					}
					fmt.Fprintf(w, "%s %s wishlist\n", item.Key(), verb)
					writeCollection(w, res.Wishlist)
				})
			})
		},
	}

	pf.bind(cmd)
	cmd.Flags().BoolVar(&local, "local", false, "skip the remote push")
	return cmd
}

func newWishlistSortCommand(opts *RootOptions) *cobra.Command {
	var (
		desc  bool
		local bool
	)

	cmd := &cobra.Command{
		Use:   "sort <name|price|recency>",
		Short: "Reorder the wishlist",
		Long: `Reorder the wishlist by product name (collated for the configured
locale), unit price or the time items were added. Ascending by default;
--desc reverses the order (for recency, --desc puts the newest first).
Ties keep their current order.`,
		Args:          cobra.ExactArgs(1),
		ValidArgs:     []string{"name", "price", "recency"},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			by := args[0]
			switch by {
			case "name", "price", "recency":
			default:
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid sort key %q: must be name, price or recency", by))
			}
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				wl := s.app.Wishlist
				var less collection.Less
				switch by {
				case "name":
					less = collection.ByName(wl.Locale(), !desc)
				case "price":
					less = collection.ByPrice(!desc)
				default:
					less = collection.ByRecency(desc)
				}

				var c collection.Collection
				if local {
					c = wl.SortByLocal(less)
				} else {
					c = wl.SortBy(ctx, less)
				}
				return s.printCollection(c)
			})
		},
	}

	cmd.Flags().BoolVar(&desc, "desc", false, "descending order")
	cmd.Flags().BoolVar(&local, "local", false, "skip the remote push")
	return cmd
}

func newWishlistClearCommand(opts *RootOptions) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:           "clear",
		Short:         "Remove every entry",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				var c collection.Collection
				if local {
					c = s.app.Wishlist.ClearLocal()
				} else {
					c = s.app.Wishlist.Clear(ctx)
				}
				return s.printCollection(c)
			})
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "skip the remote push")
	return cmd
}

func newWishlistShowCommand(opts *RootOptions) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:           "show",
		Short:         "Print the wishlist",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				if local {
					return s.printCollection(s.app.Wishlist.GetLocal())
				}
				return s.printCollection(s.app.Wishlist.Get(ctx))
			})
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "read local state only")
	return cmd
}

// HasResult is the JSON payload of wishlist has.
type HasResult struct {
	Product string `json:"product"`
	Variant string `json:"variant,omitempty"`
	Present bool   `json:"present"`
}

func newWishlistHasCommand(opts *RootOptions) *cobra.Command {
	var (
		variant string
		local   bool
	)

	cmd := &cobra.Command{
		Use:   "has <product-id>",
		Short: "Report whether a product is on the wishlist",
		Long: `Report whether a product is on the wishlist. Without --variant any
variant of the product counts.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				wl := s.app.Wishlist
				res := HasResult{Product: args[0], Variant: variant}
				switch {
				case variant != "" && local:
					res.Present = wl.HasItemLocal(collection.KeyFor(args[0], variant))
				case variant != "":
					res.Present = wl.HasItem(ctx, collection.KeyFor(args[0], variant))
				case local:
					res.Present = wl.HasLocal(args[0])
				default:
					res.Present = wl.Has(ctx, args[0])
				}
				return s.out.Success(res, func(w io.Writer) {
					fmt.Fprintln(w, res.Present)
				})
			})
		},
	}

	cmd.Flags().StringVar(&variant, "variant", "", "match only this variant")
	cmd.Flags().BoolVar(&local, "local", false, "read local state only")
	return cmd
}
