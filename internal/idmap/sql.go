package idmap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore keeps mappings in a PostgreSQL table with a unique index on
// (table_name, source_id).
type SQLStore struct {
	db    Querier
	table string
}

// NewSQLStore binds the store to db. An empty table selects DefaultTable.
func NewSQLStore(db Querier, table string) *SQLStore {
	if table == "" {
		table = DefaultTable
	}
	return &SQLStore{db: db, table: table}
}

// WithTx returns a store whose reads and writes run inside tx.
func (s *SQLStore) WithTx(tx *sql.Tx) *SQLStore {
	return &SQLStore{db: tx, table: s.table}
}

func (s *SQLStore) Table() string { return s.table }

func (s *SQLStore) ident() string { return pq.QuoteIdentifier(s.table) }

func (s *SQLStore) Get(ctx context.Context, table, sourceID string) (string, bool, error) {
	query := fmt.Sprintf("SELECT target_id FROM %s WHERE table_name = $1 AND source_id = $2", s.ident())
	var targetID string
	err := s.db.QueryRowContext(ctx, query, table, sourceID).Scan(&targetID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up mapping %s/%s: %w", table, sourceID, err)
	}
	return targetID, true, nil
}

// Put relies on the unique index rather than a prior read so that concurrent
// writers cannot both win.
func (s *SQLStore) Put(ctx context.Context, table, sourceID, targetID string) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (table_name, source_id, target_id) VALUES ($1, $2, $3) ON CONFLICT (table_name, source_id) DO NOTHING",
		s.ident())
	res, err := s.db.ExecContext(ctx, query, table, sourceID, targetID)
	if err != nil {
		return fmt.Errorf("failed to record mapping %s/%s: %w", table, sourceID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to record mapping %s/%s: %w", table, sourceID, err)
	}
	if n == 1 {
		return nil
	}

	existing, ok, err := s.Get(ctx, table, sourceID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("mapping %s/%s neither inserted nor found", table, sourceID)
	}
	if existing != targetID {
		return &ConflictError{Table: table, SourceID: sourceID, Existing: existing, Attempted: targetID}
	}
	return nil
}

func (s *SQLStore) All(ctx context.Context, table string) (map[string]string, error) {
	query := fmt.Sprintf("SELECT source_id, target_id FROM %s WHERE table_name = $1", s.ident())
	rows, err := s.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("failed to load mappings of %s: %w", table, err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var src, tgt string
		if err := rows.Scan(&src, &tgt); err != nil {
			return nil, fmt.Errorf("failed to load mappings of %s: %w", table, err)
		}
		out[src] = tgt
	}
	return out, rows.Err()
}

// Delete drops every mapping of table. Used by clean only.
func (s *SQLStore) Delete(ctx context.Context, table string) (int, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE table_name = $1", s.ident())
	res, err := s.db.ExecContext(ctx, query, table)
	if err != nil {
		return 0, fmt.Errorf("failed to delete mappings of %s: %w", table, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// EnsureTable creates a mapping table under a non-default name. The default
// table is owned by the goose migration.
func (s *SQLStore) EnsureTable(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	table_name text NOT NULL,
	source_id text NOT NULL,
	target_id text NOT NULL,
	created_at timestamp NOT NULL DEFAULT now(),
	PRIMARY KEY (table_name, source_id)
)`, s.ident())
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create mapping table %s: %w", s.table, err)
	}
	return nil
}
