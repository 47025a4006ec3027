package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mergimg0/ttnts121-sub004/internals/bootstrap"
	paymentService "github.com/mergimg0/ttnts121-sub004/internals/features/finance/payments/service"
	helper "github.com/mergimg0/ttnts121-sub004/internals/helpers"
)

func eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect and replay payment webhook events",
	}
	cmd.AddCommand(eventsListCmd())
	cmd.AddCommand(eventsReplayCmd())
	return cmd
}

func eventsListCmd() *cobra.Command {
	var (
		status   string
		provider string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded webhook events (newest first)",
		Example: `  academyctl events list --status failed
  academyctl events list --provider midtrans --limit 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(func(c *bootstrap.Container) error {
				if limit <= 0 {
					limit = 20
				}
				paging := helper.Paging{Page: 1, PerPage: limit, Offset: 0, Limit: limit}
				rows, total, err := c.Webhooks.ListEvents(cmd.Context(), paymentService.EventFilter{
					Status:   status,
					Provider: provider,
				}, paging)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tPROVIDER\tTYPE\tSTATUS\tTRIES\tRECEIVED\tERROR")
				for _, r := range rows {
					errMsg := ""
					if r.GatewayEventError != nil {
						errMsg = *r.GatewayEventError
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
						r.GatewayEventID, r.GatewayEventProvider, r.GatewayEventType, r.GatewayEventStatus,
						r.GatewayEventTryCount, r.GatewayEventReceivedAt.Format("2006-01-02 15:04:05"), errMsg)
				}
				if err := w.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d of %d\n", len(rows), total)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "received, processing, success, failed or ignored")
	cmd.Flags().StringVar(&provider, "provider", "", "checkout or midtrans")
	cmd.Flags().IntVar(&limit, "limit", 20, "max rows")
	return cmd
}

func eventsReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <event-id>",
		Short: "Re-run a failed or ignored webhook event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid event id: %w", err)
			}
			return withContainer(func(c *bootstrap.Container) error {
				out, err := c.Webhooks.Replay(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "event %s -> %s\n", out.EventID, out.Status)
				return nil
			})
		},
	}
}
