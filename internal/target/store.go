// Package target writes imported rows into the new portal database.
package target

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sabercon-migrate/internal/dialect"
	"sabercon-migrate/internal/idmap"
)

// Record is one row ready to be written. ID is the new opaque target id and
// SourceID the legacy id kept in the sabercon_id provenance column.
type Record struct {
	Table    string
	ID       string
	SourceID string
	Columns  []string
	Values   []any
}

// AllColumns returns the insert column list including id and sabercon_id.
func (r Record) AllColumns() []string {
	return append([]string{"id", "sabercon_id"}, r.Columns...)
}

// AllValues returns the values matching AllColumns.
func (r Record) AllValues() []any {
	return append([]any{r.ID, r.SourceID}, r.Values...)
}

// Get returns the value of a named column, for tests and logging.
func (r Record) Get(col string) (any, bool) {
	for i, c := range r.Columns {
		if c == col {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Postgres is the target store backed by database/sql. Both lib/pq
// ("postgres") and pgx ("pgx") drivers work.
type Postgres struct {
	db       *sql.DB
	d        dialect.Dialect
	mappings *idmap.SQLStore
}

// Open connects to the target. The connection is verified lazily by Ping.
func Open(driver, dsn, mappingTable string) (*Postgres, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open target database: %w", err)
	}
	return New(db, mappingTable), nil
}

func New(db *sql.DB, mappingTable string) *Postgres {
	return &Postgres{
		db:       db,
		d:        &dialect.PostgresDialect{},
		mappings: idmap.NewSQLStore(db, mappingTable),
	}
}

func (p *Postgres) DB() *sql.DB { return p.db }

func (p *Postgres) Close() error { return p.db.Close() }

// Mappings is the id translation store living next to the imported rows.
func (p *Postgres) Mappings() *idmap.SQLStore { return p.mappings }

func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("target database unreachable: %w", err)
	}
	return nil
}

// Exists reports whether table holds a row with the given target id.
func (p *Postgres) Exists(ctx context.Context, table, id string) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE id = $1 LIMIT 1", p.d.QuoteIdent(table))
	var one int
	err := p.db.QueryRowContext(ctx, query, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check %s/%s: %w", table, id, err)
	}
	return true, nil
}

// FindBySourceID returns the target id of a row imported from sourceID.
func (p *Postgres) FindBySourceID(ctx context.Context, table, sourceID string) (string, bool, error) {
	query := fmt.Sprintf("SELECT id FROM %s WHERE sabercon_id = $1 LIMIT 1", p.d.QuoteIdent(table))
	var id string
	err := p.db.QueryRowContext(ctx, query, sourceID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up %s by sabercon_id %s: %w", table, sourceID, err)
	}
	return id, true, nil
}

// InsertMapped writes rec and records (entity, rec.SourceID) -> rec.ID in one
// transaction; a mapping conflict rolls the row back.
func (p *Postgres) InsertMapped(ctx context.Context, entity string, rec Record) (err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := p.d.InsertQuery(rec.Table, rec.AllColumns())
	if _, err = tx.ExecContext(ctx, query, rec.AllValues()...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", rec.Table, err)
	}
	if err = p.mappings.WithTx(tx).Put(ctx, entity, rec.SourceID, rec.ID); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s/%s: %w", rec.Table, rec.SourceID, err)
	}
	return nil
}

// Count returns the number of imported rows (non-null sabercon_id) in table.
func (p *Postgres) Count(ctx context.Context, table string) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE sabercon_id IS NOT NULL", p.d.QuoteIdent(table))
	var n int
	if err := p.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// Clean removes the imported rows of table and the mappings of entity.
func (p *Postgres) Clean(ctx context.Context, entity, table string) (rows, mappings int, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE sabercon_id IS NOT NULL", p.d.QuoteIdent(table)))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to clean %s: %w", table, err)
	}
	n, _ := res.RowsAffected()
	rows = int(n)

	if mappings, err = p.mappings.WithTx(tx).Delete(ctx, entity); err != nil {
		return 0, 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit clean of %s: %w", table, err)
	}
	return rows, mappings, nil
}
