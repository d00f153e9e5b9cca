package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/cartsync/internal/collection"
)

// productFlags collects the product snapshot fields for add-like commands.
type productFlags struct {
	Name     string
	Price    string
	Variant  string
	Currency string
	ImageURL string
}

func (p *productFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.Name, "name", "", "product display name")
	cmd.Flags().StringVar(&p.Price, "price", "0", "unit price as a decimal, e.g. 12.50")
	cmd.Flags().StringVar(&p.Variant, "variant", "", "variant ID")
	cmd.Flags().StringVar(&p.Currency, "currency", "", "ISO currency code")
	cmd.Flags().StringVar(&p.ImageURL, "image", "", "image URL")
}

func (p *productFlags) product(id string) (collection.Product, error) {
	price, err := collection.ParseMoney(p.Price)
	if err != nil {
		return collection.Product{}, WrapExitError(ExitCommandError, "invalid --price", err)
	}
	name := p.Name
	if name == "" {
		name = id
	}
	return collection.Product{
		ID:        id,
		VariantID: p.Variant,
		Name:      name,
		Price:     price,
		Currency:  p.Currency,
		ImageURL:  p.ImageURL,
	}, nil
}

// printCollection writes c in the session's format.
func (s *session) printCollection(c collection.Collection) error {
	return s.out.Success(c, func(w io.Writer) {
		writeCollection(w, c)
	})
}

// NewCartCommand creates the cart command group.
func NewCartCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect and change the shopping cart",
		Long: `Inspect and change the shopping cart.

Mutations commit to the local store first. With --owner set they are also
pushed to the remote backend unless --local is given.

Examples:
  cartsync cart add sku-1 --name Widget --price 10.00 --qty 2
  cartsync cart update <entry-id> 5
  cartsync cart show --owner user-1`,
	}

	cmd.AddCommand(newCartAddCommand(opts))
	cmd.AddCommand(newCartRemoveCommand(opts))
	cmd.AddCommand(newCartRemoveItemCommand(opts))
	cmd.AddCommand(newCartUpdateCommand(opts))
	cmd.AddCommand(newCartClearCommand(opts))
	cmd.AddCommand(newCartShowCommand(opts))

	return cmd
}

func newCartAddCommand(opts *RootOptions) *cobra.Command {
	var (
		pf    productFlags
		qty   int
		local bool
	)

	cmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add an item (increments the quantity if already present)",
		Long: `Add an item to the cart. Adding an item that is already in the cart
increments its quantity. A quantity of zero or less removes the item.`,
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
					c = s.app.Cart.AddLocal(item, qty)
				} else {
					c = s.app.Cart.Add(ctx, item, qty)
				}
				return s.printCollection(c)
			})
		},
	}

	pf.bind(cmd)
	cmd.Flags().IntVarP(&qty, "qty", "q", 1, "quantity to add")
	cmd.Flags().BoolVar(&local, "local", false, "skip the remote push")

	return cmd
}

func newCartRemoveCommand(opts *RootOptions) *cobra.Command {
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
					c = s.app.Cart.RemoveLocal(args[0])
				} else {
					c = s.app.Cart.Remove(ctx, args[0])
				}
				return s.printCollection(c)
			})
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "skip the remote push")
	return cmd
}

func newCartRemoveItemCommand(opts *RootOptions) *cobra.Command {
	var (
		variant string
		local   bool
	)

	cmd := &cobra.Command{
		Use:           "remove-item <product-id>",
		Short:         "Remove the entry holding a product",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := collection.KeyFor(args[0], variant)
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				var c collection.Collection
				if local {
					c = s.app.Cart.RemoveItemLocal(key)
				} else {
					c = s.app.Cart.RemoveItem(ctx, key)
				}
				return s.printCollection(c)
			})
		},
	}

	cmd.Flags().StringVar(&variant, "variant", "", "variant ID")
	cmd.Flags().BoolVar(&local, "local", false, "skip the remote push")
	return cmd
}

func newCartUpdateCommand(opts *RootOptions) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:           "update <entry-id> <qty>",
		Short:         "Set an entry's quantity (0 removes it)",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("invalid quantity %q", args[1]), err)
			}
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				var c collection.Collection
				if local {
					c = s.app.Cart.UpdateQuantityLocal(args[0], qty)
				} else {
					c = s.app.Cart.UpdateQuantity(ctx, args[0], qty)
				}
				return s.printCollection(c)
			})
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "skip the remote push")
	return cmd
}

func newCartClearCommand(opts *RootOptions) *cobra.Command {
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
					c = s.app.Cart.ClearLocal()
				} else {
					c = s.app.Cart.Clear(ctx)
				}
				return s.printCollection(c)
			})
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "skip the remote push")
	return cmd
}

func newCartShowCommand(opts *RootOptions) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the cart",
		Long: `Print the cart. With --owner set the remote snapshot is fetched first
and replaces local state; if the remote cannot be reached the local cart is
shown.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				if local {
					return s.printCollection(s.app.Cart.GetLocal())
				}
				return s.printCollection(s.app.Cart.Get(ctx))
			})
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "read local state only")
	return cmd
}
