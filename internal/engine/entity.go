package engine

import (
	"fmt"
	"sort"
	"strings"

	"sabercon-migrate/internal/dump"
	"sabercon-migrate/internal/naming"
	"sabercon-migrate/internal/schema"
)

// Parent is a foreign key of a legacy entity.
type Parent struct {
	Column   string // layout column holding the legacy parent id
	Entity   string // referenced legacy entity
	Target   string // target column receiving the translated id
	Required bool   // unresolved required parents skip the row
	Guard    bool   // the translated id must still exist in the target store
}

// Decoded is a legacy row after entity-specific decoding and transformation.
// Columns/Values exclude id, sabercon_id and the parent references, which the
// pipeline adds once they are resolved.
type Decoded struct {
	SourceID string
	Deleted  bool
	Parents  map[string]string // parent column -> legacy id, "" for NULL
	Columns  []string
	Values   []any
}

// Entity describes one legacy table: where its dump lives, the tuple layout
// the dump was written with, and how a tuple becomes a target row.
type Entity struct {
	Source      string
	Target      string
	Layout      []*schema.Column
	Parents     []Parent
	Association bool

	decode func(Fields) Decoded
	index  map[string]int
}

func newEntity(source string, layout []*schema.Column, parents []Parent, decode func(Fields) Decoded) *Entity {
	e := &Entity{
		Source:  source,
		Target:  naming.NormalizeTableName(source),
		Layout:  layout,
		Parents: parents,
		decode:  decode,
		index:   make(map[string]int, len(layout)),
	}
	for i, c := range layout {
		e.index[c.Name] = i
	}
	return e
}

func (e *Entity) NodeName() string { return e.Source }

func (e *Entity) NodeDependencies() []string {
	deps := make([]string, 0, len(e.Parents))
	for _, p := range e.Parents {
		if p.Entity != e.Source {
			deps = append(deps, p.Entity)
		}
	}
	return deps
}

// ColumnNames returns the dump tuple layout.
func (e *Entity) ColumnNames() []string {
	names := make([]string, len(e.Layout))
	for i, c := range e.Layout {
		names[i] = c.Name
	}
	return names
}

// Decode maps a tuple through the layout into the entity's record.
func (e *Entity) Decode(row dump.Row) Decoded {
	return e.decode(newFields(e.index, row))
}

// Order returns entities parents-first with association tables last.
func Order(entities []*Entity) []*Entity {
	sorted := schema.SortByDependencies(entities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return !sorted[i].Association && sorted[j].Association
	})
	return sorted
}

// Select filters the registry by source name, keeping registry order. An
// empty filter selects everything.
func Select(all []*Entity, names []string) ([]*Entity, error) {
	if len(names) == 0 {
		return all, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if _, ok := Lookup(all, n); !ok {
			return nil, fmt.Errorf("unknown entity %q", n)
		}
		want[n] = true
	}
	var out []*Entity
	for _, e := range all {
		if want[e.Source] {
			out = append(out, e)
		}
	}
	return out, nil
}

// Lookup returns the registered entity with the given source name.
func Lookup(all []*Entity, name string) (*Entity, bool) {
	for _, e := range all {
		if e.Source == name {
			return e, true
		}
	}
	return nil, false
}

func col(name, declared string, length int) *schema.Column {
	ct := declared
	if length > 0 {
		ct = fmt.Sprintf("%s(%d)", declared, length)
	}
	return &schema.Column{
		Name:         name,
		DeclaredType: declared,
		ColumnType:   ct,
		Length:       length,
		IsNullable:   name != "id",
		IsPK:         name == "id",
		Meaning:      schema.AnalyzeMeaning(name, ""),
	}
}

// opt unwraps a nullable field into a driver value.
func opt[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
