package engine

import (
	"log/slog"
	"os"

	"sabercon-migrate/internal/dump"
)

// PlanItem describes one stage of an import without touching the target.
type PlanItem struct {
	Step         int
	Entity       *Entity
	Dependencies []string
	DumpPath     string
	DumpPresent  bool
	Rows         int
	Deleted      int
	// ParseError is set when the dump would import no rows because it does
	// not parse.
	ParseError error
}

// Plan resolves the import order and inspects the dump of every stage.
func Plan(entities []*Entity, dir string, logger *slog.Logger) []PlanItem {
	ordered := Order(entities)
	items := make([]PlanItem, 0, len(ordered))
	for i, e := range ordered {
		item := PlanItem{
			Step:         i + 1,
			Entity:       e,
			Dependencies: e.NodeDependencies(),
			DumpPath:     dump.Path(dir, e.Source),
		}
		if _, err := os.Stat(item.DumpPath); err == nil {
			item.DumpPresent = true
			stmts, err := dump.ParseFile(dir, e.Source)
			if err != nil {
				logger.Warn("dump does not parse, import would skip it", "entity", e.Source, "error", err)
				item.ParseError = err
				items = append(items, item)
				continue
			}
			for _, stmt := range stmts {
				item.Rows += len(stmt.Rows)
				for _, row := range stmt.Rows {
					if e.Decode(row).Deleted {
						item.Deleted++
					}
				}
			}
		}
		items = append(items, item)
	}
	return items
}
