package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"sabercon-migrate/internal/engine"
)

var (
	cleanEntities []string
	cleanYes      bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete imported rows and their id mappings",
	Long: `Clean removes every portal row that carries a legacy id, together with
its mapping, children before parents. Rows created in the portal itself are
left alone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cleanYes {
			return fmt.Errorf("clean deletes imported data, rerun with --yes to confirm")
		}
		entities, err := selectedEntities(cleanEntities)
		if err != nil {
			return err
		}

		store, err := openTarget()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		if err := store.Ping(ctx); err != nil {
			return err
		}

		ordered := engine.Order(entities)
		total := len(ordered)
		for i := total - 1; i >= 0; i-- {
			e := ordered[i]
			rows, mappings, err := store.Clean(ctx, e.Source, e.Target)
			if err != nil {
				logger.Warn("failed to clean entity, continuing", "entity", e.Source, "error", err)
				continue
			}
			logger.Info("cleaned entity", "entity", e.Source, "table", e.Target, "rows", rows, "mappings", mappings,
				"progress", fmt.Sprintf("%d/%d", total-i, total))
		}
		logger.Info("clean finished")
		return nil
	},
}

func init() {
	RootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().StringSliceVarP(&cleanEntities, "entities", "e", nil, "entities to clean (comma-separated, default all)")
	cleanCmd.Flags().BoolVar(&cleanYes, "yes", false, "confirm deletion")
}
