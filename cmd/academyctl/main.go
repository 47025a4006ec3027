// Command academyctl runs operational tasks against the booking database: migrations,
// webhook event recovery and one-off scheduler jobs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/mergimg0/ttnts121-sub004/internals/bootstrap"
	"github.com/mergimg0/ttnts121-sub004/internals/configs"
	database "github.com/mergimg0/ttnts121-sub004/internals/databases"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "academyctl",
		Short:         "Operational tasks for the academy booking backend",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(eventsCmd())
	rootCmd.AddCommand(jobsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// connect loads config and opens the database; callers close it.
func connect() (configs.Config, *gorm.DB, error) {
	cfg, err := configs.Load()
	if err != nil {
		return cfg, nil, err
	}
	return cfg, database.ConnectDB(cfg), nil
}

func withContainer(fn func(c *bootstrap.Container) error) error {
	cfg, db, err := connect()
	if err != nil {
		return err
	}
	defer database.Close(db)
	c := bootstrap.Build(cfg, db)
	defer c.Close()
	return fn(c)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect()
			if err != nil {
				return err
			}
			defer database.Close(db)
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}
