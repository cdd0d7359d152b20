package engine_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sabercon-migrate/internal/dump"
	"sabercon-migrate/internal/engine"
	"sabercon-migrate/internal/target"
	"sabercon-migrate/internal/testutil"
)

func TestGenerateThenImport(t *testing.T) {
	dir := t.TempDir()
	logger := testutil.NewTestLogger(t)

	g := engine.NewGenerator(engine.GenerateOptions{Count: 30, DeletedRatio: 0.1, DanglingRatio: 0.1, Seed: 42})
	generated, err := g.Generate(dir, engine.Registry())
	require.NoError(t, err)
	require.Len(t, generated, 12)

	written := make(map[string]int)
	for _, r := range generated {
		assert.Equal(t, 30, r.Rows, r.Entity)
		written[r.Entity] = r.Rows
	}

	plan := engine.Plan(engine.Registry(), dir, logger)
	require.Len(t, plan, 12)
	for i, item := range plan {
		assert.Equal(t, i+1, item.Step)
		assert.True(t, item.DumpPresent, item.Entity.Source)
		assert.Equal(t, written[item.Entity.Source], item.Rows, item.Entity.Source)
	}

	store := target.NewMemory(nil)
	p := &engine.Pipeline{
		Target: store,
		IDs:    store.Mappings(),
		Rows:   engine.DumpDir(dir, logger),
		Logger: logger,
	}
	results, err := p.Run(context.Background(), engine.Registry())
	require.NoError(t, err)
	require.Len(t, results, 12)

	total := 0
	for _, r := range results {
		assert.Equal(t, 30, r.Extracted, r.Entity)
		assert.Zero(t, r.Erred, r.Entity)
		assert.Zero(t, r.Conflicts, r.Entity)
		assert.Equal(t, r.Extracted, r.Imported+r.Skipped()+r.Recovered, r.Entity)
		assert.Equal(t, r.Imported, r.Verified, r.Entity)
		total += r.Imported
	}
	assert.Positive(t, total)
	assertForeignKeysMapped(t, store, engine.Registry())

	again, err := p.Run(context.Background(), engine.Registry())
	require.NoError(t, err)
	for i, r := range again {
		assert.Zero(t, r.Imported, r.Entity)
		assert.Equal(t, results[i].Verified, r.Verified, r.Entity)
	}
}

func TestGenerate_AssociationPairsAreUnique(t *testing.T) {
	dir := t.TempDir()
	entities, err := engine.Select(engine.Registry(), []string{"institution", "unit", "unit_class", "user", "user_class"})
	require.NoError(t, err)

	g := engine.NewGenerator(engine.GenerateOptions{Count: 6, Seed: 3})
	_, err = g.Generate(dir, entities)
	require.NoError(t, err)

	userClass := entities[len(entities)-1]
	require.Equal(t, "user_class", userClass.Source)
	stmts, err := dump.ParseFile(dir, "user_class")
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, stmt := range stmts {
		for _, row := range stmt.Rows {
			id := userClass.Decode(row).SourceID
			require.NotEmpty(t, id)
			assert.False(t, seen[id], "duplicate pair %s", id)
			seen[id] = true
		}
	}
	assert.NotEmpty(t, seen)
}

func TestPlan_MissingDump(t *testing.T) {
	plan := engine.Plan(engine.Registry()[:1], t.TempDir(), testutil.NewTestLogger(t))
	require.Len(t, plan, 1)
	assert.False(t, plan[0].DumpPresent)
	assert.Zero(t, plan[0].Rows)
}

func TestPlan_ReportsUnparsableDump(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "institution.sql")
	require.NoError(t, os.WriteFile(path, []byte("INSERT INTO `institution` VALUES (1,'open);"), 0o644))

	plan := engine.Plan(engine.Registry()[:1], dir, testutil.NewTestLogger(t))
	require.Len(t, plan, 1)
	assert.True(t, plan[0].DumpPresent)
	assert.Zero(t, plan[0].Rows)
	require.Error(t, plan[0].ParseError)
	var syn *dump.SyntaxError
	assert.ErrorAs(t, plan[0].ParseError, &syn)
}
