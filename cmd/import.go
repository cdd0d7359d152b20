package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/gosuri/uiprogress"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"sabercon-migrate/internal/engine"
)

var (
	importEntities []string
	importDryRun   bool
	noProgress     bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the legacy dumps into the portal database",
	Long: `Import reads <dump-dir>/<entity>.sql for every selected entity, parents
first, and writes each row to the portal with a fresh id. The mapping from
legacy id to portal id is recorded in the same transaction, so an import can
be interrupted and rerun without duplicating rows.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		entities, err := selectedEntities(importEntities)
		if err != nil {
			return err
		}

		if importDryRun {
			logger.Info("dry run: nothing will be written")
			renderPlan(cmd.OutOrStdout(), engine.Plan(entities, cfg.Import.DumpDir, logger))
			return nil
		}

		store, err := openTarget()
		if err != nil {
			return err
		}
		defer store.Close()

		p := &engine.Pipeline{
			Target: store,
			IDs:    store.Mappings(),
			Rows:   engine.DumpDir(cfg.Import.DumpDir, logger),
			Logger: logger,
		}

		var bar *uiprogress.Bar
		if !noProgress {
			uiprogress.Start()
			p.OnEntityStart = func(e *engine.Entity, rows int) {
				name := e.Source
				bar = uiprogress.AddBar(max(rows, 1)).AppendCompleted().PrependElapsed()
				bar.PrependFunc(func(b *uiprogress.Bar) string {
					return fmt.Sprintf("%-16s", name)
				})
				if rows == 0 {
					bar.Set(1)
				}
			}
			p.OnRow = func(*engine.Entity) {
				bar.Incr()
			}
		}

		start := time.Now()
		results, runErr := p.Run(cmd.Context(), entities)
		if !noProgress {
			uiprogress.Stop()
		}

		renderResults(cmd.OutOrStdout(), results)
		logger.Info("import finished", "entities", len(results), "elapsed", time.Since(start).Round(time.Millisecond))
		return runErr
	},
}

func init() {
	RootCmd.AddCommand(importCmd)

	importCmd.Flags().StringSliceVarP(&importEntities, "entities", "e", nil, "entities to import (comma-separated, default all)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "show the plan without writing to the target")
	importCmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable progress bars")
}

func renderResults(w io.Writer, results []engine.EntityResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Entity", "Table", "Extracted", "Imported", "Skipped", "Recovered", "Conflicts", "Errors", "Verified", "Status"})

	var imported, skipped, failed int
	for i, r := range results {
		verified := "-"
		if r.Verified >= 0 {
			verified = fmt.Sprint(r.Verified)
		}
		t.AppendRow(table.Row{i + 1, r.Entity, r.Table, r.Extracted, r.Imported, r.Skipped(), r.Recovered, r.Conflicts, r.Erred, verified, r.Status})
		imported += r.Imported
		skipped += r.Skipped()
		failed += r.Conflicts + r.Erred
	}
	t.AppendFooter(table.Row{"", "Total", "", "", imported, skipped, "", "", failed, "", ""})
	t.Render()

	for _, r := range results {
		if r.SkippedMissingParent+r.SkippedMissingUser == 0 {
			continue
		}
		fmt.Fprintf(w, "  %s: %d rows without a parent, %d rows whose user is gone\n",
			r.Entity, r.SkippedMissingParent, r.SkippedMissingUser)
	}
}
