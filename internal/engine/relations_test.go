package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sabercon-migrate/internal/engine"
	"sabercon-migrate/internal/schema"
)

// liveSchema builds the legacy tables exactly as the registry expects them.
func liveSchema(entities []*engine.Entity) []*schema.Table {
	tables := make([]*schema.Table, 0, len(entities))
	for _, e := range entities {
		t := &schema.Table{Name: e.Source, Columns: append([]*schema.Column(nil), e.Layout...)}
		for _, p := range e.Parents {
			t.ForeignKeys = append(t.ForeignKeys, &schema.ForeignKey{Column: p.Column, RefTable: p.Entity, RefColumn: "id"})
			t.Dependencies = append(t.Dependencies, p.Entity)
		}
		tables = append(tables, t)
	}
	return tables
}

func findTable(t *testing.T, tables []*schema.Table, name string) *schema.Table {
	t.Helper()
	for _, tbl := range tables {
		if tbl.Name == name {
			return tbl
		}
	}
	require.Failf(t, "table not found", name)
	return nil
}

func TestCheckSource_MatchingSchema(t *testing.T) {
	registry := engine.Registry()
	assert.Empty(t, engine.CheckSource(registry, liveSchema(registry)))
}

func TestCheckSource_ReportsDrift(t *testing.T) {
	registry := engine.Registry()
	tables := liveSchema(registry)

	// user: two columns swapped
	user := findTable(t, tables, "user")
	user.Columns[1], user.Columns[2] = user.Columns[2], user.Columns[1]

	// certificate: foreign key dropped, an unknown one added
	cert := findTable(t, tables, "certificate")
	cert.ForeignKeys = []*schema.ForeignKey{{Column: "tv_show_id", RefTable: "tv_show", RefColumn: "id"}}

	// profile: column missing
	profile := findTable(t, tables, "profile")
	profile.Columns = profile.Columns[:len(profile.Columns)-1]

	// question: table gone
	var kept []*schema.Table
	for _, tbl := range tables {
		if tbl.Name != "question" {
			kept = append(kept, tbl)
		}
	}

	got := map[string][]string{}
	for _, d := range engine.CheckSource(registry, kept) {
		got[d.Entity] = append(got[d.Entity], d.Message)
	}

	require.Len(t, got["user"], 1)
	assert.Contains(t, got["user"][0], "differs from source column order")
	assert.Equal(t, []string{
		"no foreign key on user_id for parent user",
		"foreign key tv_show_id -> tv_show.id is not resolved by the importer",
	}, got["certificate"])
	assert.Equal(t, []string{"column is_deleted missing from source table"}, got["profile"])
	assert.Equal(t, []string{"source table question not found"}, got["question"])
	assert.NotContains(t, got, "institution")
}

func TestCheckSource_WrongParentTable(t *testing.T) {
	registry := engine.Registry()
	tables := liveSchema(registry)
	unit := findTable(t, tables, "unit")
	unit.ForeignKeys[0].RefTable = "company"

	drifts := engine.CheckSource(registry, tables)
	require.Len(t, drifts, 1)
	assert.Equal(t, "unit", drifts[0].Entity)
	assert.Equal(t, "foreign key institution_id references company, importer resolves it through institution", drifts[0].Message)
}

// The live foreign keys give the same parents-first order as the registry.
func TestSortTablesByFKCount_MatchesRegistryOrder(t *testing.T) {
	registry := engine.Registry()
	sorted := schema.SortTablesByFKCount(liveSchema(registry))

	pos := map[string]int{}
	for i, tbl := range sorted {
		pos[tbl.Name] = i
	}
	for _, e := range registry {
		for _, dep := range e.NodeDependencies() {
			assert.Less(t, pos[dep], pos[e.Source], "%s before %s", dep, e.Source)
		}
	}
}
