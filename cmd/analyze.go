package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"sabercon-migrate/internal/analyzer"
	"sabercon-migrate/internal/dialect"
	"sabercon-migrate/internal/engine"
	"sabercon-migrate/internal/schema"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Report how the legacy schema maps onto the portal schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		src, err := openSource(ctx)
		if err != nil {
			return err
		}
		defer src.Close()

		// a MySQL schema is its database
		schemaName := cfg.Source.Schema
		if schemaName == "" {
			schemaName = cfg.Source.Database
		}
		d := dialect.GetDialect(cfg.Source.Driver)
		catalog := schema.NewCatalog(src, d, schemaName)
		tables, err := catalog.Tables(ctx)
		if err != nil {
			return fmt.Errorf("failed to read source schema: %w", err)
		}

		// the target is optional: without it every table reports as missing
		var targetTables []string
		if store, err := openTarget(); err == nil {
			defer store.Close()
			pg := &dialect.PostgresDialect{}
			targetTables, err = schema.NewCatalog(store.DB(), pg, cfg.Target.Schema).TableNames(ctx)
			if err != nil {
				logger.Warn("could not list target tables, reporting every table as missing", "error", err)
			}
		} else {
			logger.Warn("target unavailable, reporting every table as missing", "error", err)
		}

		a := analyzer.New(catalog, analyzer.Options{
			SampleSize:       cfg.Analyze.SampleSize,
			SampleRowCeiling: cfg.Analyze.SampleRowCeiling,
			OversizedText:    cfg.Analyze.OversizedText,
		}, logger)

		out := cmd.OutOrStdout()
		analyzer.Render(out, a.Analyze(ctx, tables, targetTables), cfg.Analyze.RowsPerSecond)
		renderSourceCheck(out, tables, engine.CheckSource(engine.Registry(), tables))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(analyzeCmd)
}

// renderSourceCheck prints the foreign key order of the live schema and where
// the importer's entities disagree with it.
func renderSourceCheck(w io.Writer, tables []*schema.Table, drifts []engine.Drift) {
	fmt.Fprintln(w, "\nSource foreign key order:")
	for i, t := range schema.SortTablesByFKCount(tables) {
		deps := "-"
		if len(t.Dependencies) > 0 {
			deps = strings.Join(t.Dependencies, ", ")
		}
		fmt.Fprintf(w, "  [%02d] %s (depends on: %s)\n", i+1, t.Name, deps)
	}

	if len(drifts) == 0 {
		fmt.Fprintln(w, "\nImporter entities match the source schema.")
		return
	}
	fmt.Fprintf(w, "\nImporter entities out of step with the source schema (%d):\n", len(drifts))
	for _, d := range drifts {
		fmt.Fprintf(w, "  ! %s: %s\n", d.Entity, d.Message)
	}
}
