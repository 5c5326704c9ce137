package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/storefront-labs/storefront/internal/checkout"
)

func (c *CLI) newPayCmd() *cobra.Command {
	var method string
	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Pay for the confirmed order",
		Long: `Complete the mock payment for the confirmed order.

Payment methods: ` + strings.Join(checkout.PaymentMethods, ", ") + `
(aliases: card, paypal, bank)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "pay", func(ctx context.Context, rec *actionRecord) error {
				s, err := c.sessionStore(ctx)
				if err != nil {
					return err
				}
				receipt, err := c.localCheckoutService(s).CompletePayment(ctx, method)
				if err != nil {
					return err
				}
				rec.Amount = receipt.Amount.StringFixed(2)

				if c.jsonOutput {
					return c.outputJSON(receipt)
				}
				if !c.quiet {
					renderReceipt(c.out, receipt)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&method, "method", "m", "", "payment method")
	return cmd
}
