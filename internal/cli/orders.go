package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/storefront-labs/storefront/internal/cart"
	"github.com/storefront-labs/storefront/internal/checkout"
	sferrors "github.com/storefront-labs/storefront/internal/errors"
	"github.com/storefront-labs/storefront/pkg/models"
)

func (c *CLI) newOrdersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "View and confirm orders",
	}

	cmd.AddCommand(c.newOrdersShowCmd())
	cmd.AddCommand(c.newOrdersConfirmCmd())

	return cmd
}

func (c *CLI) newOrdersShowCmd() *cobra.Command {
	var pendingOnly bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current order",
		Long: `Show your latest order together with the items of the pending order.

Without --pending the latest order is fetched from the API, and the view is
shown only when both the API order and the pending order exist.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "orders.show", func(ctx context.Context, rec *actionRecord) error {
				return c.runOrdersShow(ctx, rec, pendingOnly)
			})
		},
	}
	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "show only the local pending order")
	return cmd
}

func (c *CLI) runOrdersShow(ctx context.Context, rec *actionRecord, pendingOnly bool) error {
	s, err := c.sessionStore(ctx)
	if err != nil {
		return err
	}
	order, err := c.localCheckoutService(s).Pending(ctx)
	var none *sferrors.ErrNoPendingOrder
	if errors.As(err, &none) {
		rec.rejection = err
		return c.outputNoOrders()
	}
	if err != nil {
		return err
	}
	rec.Items = cart.Cart(order.OrderItems).Units()
	rec.Amount = order.TotalAmount.StringFixed(2)

	if pendingOnly {
		if c.jsonOutput {
			return c.outputJSON(map[string]interface{}{"pending_order": order})
		}
		renderPendingOrder(c.out, order)
		return nil
	}

	record, err := c.latestOrder(ctx, rec)
	if err != nil {
		return err
	}
	if record == nil {
		return c.outputNoOrders()
	}

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"order":         record,
			"pending_order": order,
		})
	}
	renderOrderView(c.out, *record, order)
	return nil
}

// latestOrder returns the first order the API reports for the customer, or
// nil when there is none.
func (c *CLI) latestOrder(ctx context.Context, rec *actionRecord) (*models.OrderRecord, error) {
	sess, err := c.session(ctx)
	if err != nil {
		return nil, err
	}
	customerID, err := sess.CustomerID(ctx, c.cfg.CustomerID)
	if err != nil {
		return nil, err
	}
	rec.Customer = customerID

	client, err := c.newRemoteClient(ctx, true)
	if err != nil {
		return nil, err
	}
	orders, err := client.ListOrders(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}
	return &orders[0], nil
}

func (c *CLI) newOrdersConfirmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm",
		Short: "Confirm the pending order and continue to payment",
		Long: `Confirm the pending order. The order is submitted to the API (unless
checkout.submit_orders is false), removed from the session, and handed to the
payment stage. Pay with 'storefront pay --method <method>'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "orders.confirm", c.runOrdersConfirm)
		},
	}
}

func (c *CLI) runOrdersConfirm(ctx context.Context, rec *actionRecord) error {
	s, err := c.sessionStore(ctx)
	if err != nil {
		return err
	}

	// Nothing to confirm is a view state, not a failure, and must not touch
	// the API or the store.
	if _, err := c.localCheckoutService(s).Pending(ctx); err != nil {
		var none *sferrors.ErrNoPendingOrder
		if errors.As(err, &none) {
			rec.rejection = err
			return c.outputNoOrders()
		}
		return err
	}

	var customerID string
	if c.cfg.Checkout.SubmitOrders {
		sess, err := c.session(ctx)
		if err != nil {
			return err
		}
		if customerID, err = sess.CustomerID(ctx, c.cfg.CustomerID); err != nil {
			return err
		}
	}
	rec.Customer = customerID

	svc, err := c.checkoutService(ctx)
	if err != nil {
		return err
	}
	handoff, err := svc.Confirm(ctx, customerID)
	if err != nil {
		return err
	}
	rec.Items = cart.Cart(handoff.Items).Units()
	rec.Amount = handoff.TotalAmount.StringFixed(2)

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"confirmed":       true,
			"payment_pending": handoff,
			"payment_methods": checkout.PaymentMethods,
		})
	}

	c.println("✓ Order confirmed")
	c.printf("  Order:  %s\n", handoff.OrderID)
	c.printf("  Amount: %s\n", money(handoff.TotalAmount))
	if !handoff.Submitted {
		c.println("  Note: order kept locally (checkout.submit_orders is off)")
	}
	c.println("\nProceed to payment with 'storefront pay --method <method>'")
	return nil
}

func (c *CLI) outputNoOrders() error {
	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"orders":  []interface{}{},
			"message": NoOrdersMessage,
		})
	}
	c.println(NoOrdersMessage)
	return nil
}
