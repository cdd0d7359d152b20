package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"sabercon-migrate/internal/engine"
)

var planEntities []string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the import order and the content of each dump",
	RunE: func(cmd *cobra.Command, args []string) error {
		entities, err := selectedEntities(planEntities)
		if err != nil {
			return err
		}
		renderPlan(cmd.OutOrStdout(), engine.Plan(entities, cfg.Import.DumpDir, logger))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(planCmd)
	planCmd.Flags().StringSliceVarP(&planEntities, "entities", "e", nil, "entities to plan (comma-separated, default all)")
}

func renderPlan(w io.Writer, items []engine.PlanItem) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Step", "Entity", "Target", "Depends on", "Dump", "Rows", "Deleted"})

	total := 0
	for _, item := range items {
		dump := item.DumpPath
		switch {
		case !item.DumpPresent:
			dump += " (missing)"
		case item.ParseError != nil:
			dump += " (unparsable)"
		}
		deps := strings.Join(item.Dependencies, ", ")
		if deps == "" {
			deps = "-"
		}
		t.AppendRow(table.Row{fmt.Sprintf("%02d", item.Step), item.Entity.Source, item.Entity.Target, deps, dump, item.Rows, item.Deleted})
		total += item.Rows
	}
	t.AppendFooter(table.Row{"", "", "", "", "Total", total, ""})
	t.Render()

	for _, item := range items {
		if item.ParseError != nil {
			fmt.Fprintf(w, "  ! %s: %v\n", item.Entity.Source, item.ParseError)
		}
	}
}
