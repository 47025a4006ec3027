package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mergimg0/ttnts121-sub004/internals/bootstrap"
)

func jobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Run scheduler jobs by hand",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run <job>",
		Short: "Run one job now (balance-reminders, session-reminders, expire-blocks)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(func(c *bootstrap.Container) error {
				n, err := c.Scheduler.RunJob(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", strings.TrimSpace(args[0]), n)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List job names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(func(c *bootstrap.Container) error {
				for _, name := range c.Scheduler.JobNames() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			})
		},
	})
	return cmd
}
