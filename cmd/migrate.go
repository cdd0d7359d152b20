package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the id mapping table in the portal database",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openTarget()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		if err := store.Ping(ctx); err != nil {
			return err
		}
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		version, err := store.MigrationVersion()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "mapping table %s ready (migration version %d)\n", cfg.Import.MappingTable, version)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)
}
