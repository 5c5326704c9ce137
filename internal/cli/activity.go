package cli

import (
	"github.com/spf13/cobra"

	"github.com/storefront-labs/storefront/internal/observability"
)

func (c *CLI) newActivityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activity",
		Short: "Summarize recorded activity",
		Long: `Summarize the activity log: accepted and rejected actions, the most
common rejection reasons and the most used commands.

History is only kept with logging.persist enabled on the sqlite or postgres
session backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := c.actionLogger(ctx)
			if _, ok := logger.(*observability.PersistentLogger); !ok {
				c.errorf("Note: activity history is not persisted; set logging.persist: true\n")
			}

			summary, err := logger.Summary(ctx)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return c.outputJSON(summary)
			}

			c.println("Activity Summary")
			c.println("================")
			c.printf("  Accepted: %d\n", summary.AcceptedCount)
			c.printf("  Rejected: %d\n", summary.RejectedCount)
			if len(summary.TopActions) > 0 {
				c.println("\nTop commands:")
				for _, s := range summary.TopActions {
					c.printf("  %-16s %d\n", s.Action, s.Count)
				}
			}
			if len(summary.TopRejectionReasons) > 0 {
				c.println("\nTop rejection reasons:")
				for _, s := range summary.TopRejectionReasons {
					c.printf("  %3d  %s\n", s.Count, s.Reason)
				}
			}
			return nil
		},
	}
}
