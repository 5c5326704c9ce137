package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/storefront-labs/storefront/internal/tracking"
)

func (c *CLI) newTrackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "track <order-id>",
		Short: "Track an order",
		Long: `Show the fulfillment status of an order.

Statuses: Pending (20%), Processing (50%), Shipped (80%), Delivered (100%).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "track", func(ctx context.Context, rec *actionRecord) error {
				client, err := c.newRemoteClient(ctx, true)
				if err != nil {
					return err
				}
				record, err := client.GetTracking(ctx, args[0])
				if err != nil {
					return err
				}
				rec.Customer = string(record.CustomerID)

				if c.jsonOutput {
					return c.outputJSON(map[string]interface{}{
						"tracking": record,
						"display":  tracking.Describe(record.Status),
					})
				}
				if !c.quiet {
					renderTracking(c.out, record)
				}
				return nil
			})
		},
	}
}
