package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/storefront-labs/storefront/internal/cart"
	sferrors "github.com/storefront-labs/storefront/internal/errors"
	"github.com/storefront-labs/storefront/internal/validation"
)

func (c *CLI) newCartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Shopping cart",
		Long:  `Manage the shopping cart. The cart is saved after every change.`,
	}

	cmd.AddCommand(c.newCartShowCmd())
	cmd.AddCommand(c.newCartAddCmd())
	cmd.AddCommand(c.newCartRemoveCmd())
	cmd.AddCommand(c.newCartSetCmd())
	cmd.AddCommand(c.newCartClearCmd())
	cmd.AddCommand(c.newCartImportCmd())
	cmd.AddCommand(c.newCartCheckoutCmd())

	return cmd
}

func (c *CLI) newCartShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := c.cartEngine(cmd.Context())
			if err != nil {
				return err
			}
			current, err := engine.Load(cmd.Context())
			if err != nil {
				return err
			}
			return c.outputCart(current, "")
		},
	}
}

func (c *CLI) newCartAddCmd() *cobra.Command {
	var quantity int
	cmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Long: `Add a product from the catalog to the cart. Adding a product that is
already in the cart increases its quantity.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "cart.add", func(ctx context.Context, rec *actionRecord) error {
				if quantity < 1 {
					return sferrors.NewInvalidInput("quantity", "must be at least 1")
				}
				product, err := c.findProduct(ctx, cart.ProductID(args[0]))
				if err != nil {
					return err
				}
				engine, err := c.cartEngine(ctx)
				if err != nil {
					return err
				}
				current, err := engine.AddQuantity(ctx, product, quantity)
				if err != nil {
					return err
				}
				rec.Items = current.Units()
				rec.Amount = cart.TotalPrice(current).StringFixed(2)
				return c.outputCart(current, fmt.Sprintf("✓ Added %s to cart", product.ProductName))
			})
		},
	}
	cmd.Flags().IntVarP(&quantity, "quantity", "q", 1, "number of units to add")
	return cmd
}

func (c *CLI) newCartRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "cart.remove", func(ctx context.Context, rec *actionRecord) error {
				engine, err := c.cartEngine(ctx)
				if err != nil {
					return err
				}
				id := cart.ProductID(args[0])
				existing, err := engine.Load(ctx)
				if err != nil {
					return err
				}
				if _, ok := existing.Find(id); !ok {
					rec.Items = existing.Units()
					return c.outputCart(existing, fmt.Sprintf("Product %s is not in your cart", id))
				}
				current, err := engine.Remove(ctx, id)
				if err != nil {
					return err
				}
				rec.Items = current.Units()
				return c.outputCart(current, fmt.Sprintf("✓ Removed %s from cart", id))
			})
		},
	}
}

func (c *CLI) newCartSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <product-id> <quantity>",
		Short: "Set the quantity of a product in the cart",
		Long:  `Set the quantity of a product already in the cart. A quantity of 0 removes it.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "cart.set", func(ctx context.Context, rec *actionRecord) error {
				qty, err := strconv.Atoi(args[1])
				if err != nil {
					return sferrors.NewInvalidInput("quantity", "must be a whole number")
				}
				engine, err := c.cartEngine(ctx)
				if err != nil {
					return err
				}
				current, err := engine.SetQuantity(ctx, cart.ProductID(args[0]), qty)
				if err != nil {
					return err
				}
				rec.Items = current.Units()
				return c.outputCart(current, fmt.Sprintf("✓ Set %s to %d", args[0], qty))
			})
		},
	}
}

func (c *CLI) newCartClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "cart.clear", func(ctx context.Context, rec *actionRecord) error {
				engine, err := c.cartEngine(ctx)
				if err != nil {
					return err
				}
				current, err := engine.Clear(ctx)
				if err != nil {
					return err
				}
				return c.outputCart(current, "✓ Cart cleared")
			})
		},
	}
}

func (c *CLI) newCartImportCmd() *cobra.Command {
	var replace bool
	cmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Load cart items from a YAML file",
		Long: `Load cart items from a YAML definition file. Items are merged into the
current cart unless --replace is given or the file sets replace: true.

Names and prices are taken from the file as written; they are not checked
against the catalog.

Example file:
  replace: false
  items:
    - product_id: "1"
      name: Kettle
      price: "24.99"
      quantity: 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "cart.import", func(ctx context.Context, rec *actionRecord) error {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return sferrors.NewInvalidInput("file", err.Error())
				}
				file, err := validation.ParseCartFile(data)
				if err != nil {
					return err
				}
				c.debugf("cart file valid: %d items\n", len(file.Items))

				engine, err := c.cartEngine(ctx)
				if err != nil {
					return err
				}
				current, err := engine.Import(ctx, file.LineItems(), replace || file.Replace)
				if err != nil {
					return err
				}
				rec.Items = current.Units()
				rec.Amount = cart.TotalPrice(current).StringFixed(2)
				return c.outputCart(current, fmt.Sprintf("✓ Imported %d items", len(file.Items)))
			})
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "replace the cart instead of merging")
	return cmd
}

func (c *CLI) newCartCheckoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Turn the cart into a pending order",
		Long: `Snapshot the cart into a pending order and empty the cart. A previous
pending order is replaced. Confirm it with 'storefront orders confirm'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "cart.checkout", func(ctx context.Context, rec *actionRecord) error {
				s, err := c.sessionStore(ctx)
				if err != nil {
					return err
				}
				// Checkout is local; the submitter is only needed at confirmation.
				order, err := c.localCheckoutService(s).Checkout(ctx)
				if err != nil {
					return err
				}
				rec.Items = cart.Cart(order.OrderItems).Units()
				rec.Amount = order.TotalAmount.StringFixed(2)

				if c.jsonOutput {
					return c.outputJSON(order)
				}
				c.println("✓ Order placed")
				if !c.quiet {
					renderPendingOrder(c.out, order)
				}
				c.println("\nConfirm it with 'storefront orders confirm'")
				return nil
			})
		},
	}
}

func (c *CLI) outputCart(current cart.Cart, message string) error {
	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"items": current,
			"total": cart.TotalPrice(current),
			"units": current.Units(),
		})
	}
	if message != "" {
		c.println(message)
	}
	if !c.quiet {
		renderCart(c.out, current)
	}
	return nil
}
