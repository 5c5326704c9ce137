package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/storefront-labs/storefront/internal/cart"
	sferrors "github.com/storefront-labs/storefront/internal/errors"
)

func (c *CLI) newProductsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Product catalog",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "products.list", func(ctx context.Context, rec *actionRecord) error {
				products, err := c.fetchProducts(ctx)
				if err != nil {
					return err
				}
				rec.Items = len(products)
				if c.jsonOutput {
					return c.outputJSON(map[string]interface{}{"products": products})
				}
				if !c.quiet {
					renderProducts(c.out, products)
				}
				return nil
			})
		},
	})

	return cmd
}

// fetchProducts loads the catalog. Any failure sends the user back to login,
// as the catalog is the first authenticated call of a session.
func (c *CLI) fetchProducts(ctx context.Context) ([]cart.Product, error) {
	client, err := c.newRemoteClient(ctx, true)
	if err != nil {
		return nil, err
	}
	products, err := client.ListProducts(ctx)
	if err == nil {
		return products, nil
	}

	var authErr *sferrors.ErrAuthRequired
	if errors.As(err, &authErr) {
		return nil, err
	}
	var remoteErr *sferrors.ErrRemoteUnavailable
	if errors.As(err, &remoteErr) {
		e := sferrors.NewAuthRequired("could not load products: " + remoteErr.Reason)
		e.Cause = err
		return nil, e
	}
	return nil, err
}

// findProduct looks id up in the catalog.
func (c *CLI) findProduct(ctx context.Context, id cart.ProductID) (cart.Product, error) {
	products, err := c.fetchProducts(ctx)
	if err != nil {
		return cart.Product{}, err
	}
	for _, p := range products {
		if p.ProductID == id {
			return p, nil
		}
	}
	return cart.Product{}, sferrors.NewProductNotFound(id.String())
}
