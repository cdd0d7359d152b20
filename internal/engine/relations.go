package engine

import (
	"fmt"
	"strings"

	"sabercon-migrate/internal/schema"
)

// Drift is a disagreement between a registered entity and the live legacy
// table it is dumped from.
type Drift struct {
	Entity  string
	Message string
}

// CheckSource compares the registry with the introspected legacy schema.
// Dumps without a column list follow the live column order, so a layout that
// differs from it would decode the wrong fields. Parents must match a live
// foreign key and every live foreign key must be resolved by a parent.
func CheckSource(entities []*Entity, tables []*schema.Table) []Drift {
	byName := make(map[string]*schema.Table, len(tables))
	for _, t := range tables {
		byName[strings.ToLower(t.Name)] = t
	}

	var drifts []Drift
	report := func(e *Entity, format string, args ...any) {
		drifts = append(drifts, Drift{Entity: e.Source, Message: fmt.Sprintf(format, args...)})
	}

	for _, e := range entities {
		t, ok := byName[strings.ToLower(e.Source)]
		if !ok {
			report(e, "source table %s not found", e.Source)
			continue
		}

		missing := false
		for _, c := range e.Layout {
			if t.Column(c.Name) == nil {
				report(e, "column %s missing from source table", c.Name)
				missing = true
			}
		}
		if layout, live := e.ColumnNames(), t.ColumnNames(); !missing && !equalFold(layout, live) {
			report(e, "dump layout (%s) differs from source column order (%s)",
				strings.Join(layout, ", "), strings.Join(live, ", "))
		}

		for _, p := range e.Parents {
			fk := foreignKey(t, p.Column)
			switch {
			case fk == nil:
				report(e, "no foreign key on %s for parent %s", p.Column, p.Entity)
			case !strings.EqualFold(fk.RefTable, p.Entity):
				report(e, "foreign key %s references %s, importer resolves it through %s", p.Column, fk.RefTable, p.Entity)
			}
		}
		for _, fk := range t.ForeignKeys {
			if !hasParent(e, fk.Column) {
				report(e, "foreign key %s -> %s.%s is not resolved by the importer", fk.Column, fk.RefTable, fk.RefColumn)
			}
		}
	}
	return drifts
}

func foreignKey(t *schema.Table, column string) *schema.ForeignKey {
	for _, fk := range t.ForeignKeys {
		if strings.EqualFold(fk.Column, column) {
			return fk
		}
	}
	return nil
}

func hasParent(e *Entity, column string) bool {
	for _, p := range e.Parents {
		if strings.EqualFold(p.Column, column) {
			return true
		}
	}
	return false
}

func equalFold(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}
