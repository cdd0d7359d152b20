package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sabercon-migrate/internal/config"
	"sabercon-migrate/internal/engine"
	"sabercon-migrate/internal/schema"
	"sabercon-migrate/internal/testutil"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)

	l.Info("hidden")
	l.Warn("shown", "entity", "user")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"entity":"user"`)
}

func TestRenderPlan(t *testing.T) {
	dir := t.TempDir()
	entities, err := engine.Select(engine.Registry(), []string{"institution", "unit"})
	require.NoError(t, err)

	_, err = engine.NewGenerator(engine.GenerateOptions{Count: 5, Seed: 7}).Generate(dir, entities[:1])
	require.NoError(t, err)

	var buf bytes.Buffer
	renderPlan(&buf, engine.Plan(entities, dir, testutil.NewTestLogger(t)))

	out := buf.String()
	assert.Contains(t, out, "institution")
	assert.Contains(t, out, filepath.Join(dir, "unit.sql")+" (missing)")
	assert.Contains(t, out, "Total")
}

func TestRenderResults(t *testing.T) {
	var buf bytes.Buffer
	renderResults(&buf, []engine.EntityResult{
		{Entity: "user", Table: "users", Extracted: 3, Imported: 2, SkippedDeleted: 1, Verified: 2, Status: "OK"},
		{Entity: "certificate", Table: "certificates", Extracted: 2, SkippedMissingUser: 2, Verified: -1, Status: "OK"},
	})

	out := buf.String()
	assert.Contains(t, out, "users")
	assert.Contains(t, out, "certificate: 0 rows without a parent, 2 rows whose user is gone")
}

func TestRenderSourceCheck(t *testing.T) {
	tables := []*schema.Table{
		{Name: "user", Dependencies: []string{"institution"}},
		{Name: "institution"},
	}

	var buf bytes.Buffer
	renderSourceCheck(&buf, tables, []engine.Drift{{Entity: "user", Message: "source table user not found"}})

	out := buf.String()
	assert.Contains(t, out, "[01] institution (depends on: -)")
	assert.Contains(t, out, "[02] user (depends on: institution)")
	assert.Contains(t, out, "! user: source table user not found")

	buf.Reset()
	renderSourceCheck(&buf, tables, nil)
	assert.Contains(t, buf.String(), "match the source schema")
}
