package target

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"

	"sabercon-migrate/internal/idmap"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies the embedded migrations that create the id mapping table.
// A mapping table configured under another name is created alongside.
func (p *Postgres) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, p.db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if p.mappings.Table() != idmap.DefaultTable {
		return p.mappings.EnsureTable(ctx)
	}
	return nil
}

// MigrationVersion returns the current migration version.
func (p *Postgres) MigrationVersion() (int64, error) {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, fmt.Errorf("failed to set dialect: %w", err)
	}
	return goose.GetDBVersion(p.db)
}
