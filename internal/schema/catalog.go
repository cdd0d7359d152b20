package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"sabercon-migrate/internal/dialect"
)

// Catalog reads table, column and foreign key metadata from a live database.
// It never writes.
type Catalog struct {
	db      *sql.DB
	dialect dialect.Dialect
	schema  string
}

func NewCatalog(db *sql.DB, d dialect.Dialect, schemaName string) *Catalog {
	return &Catalog{db: db, dialect: d, schema: d.SchemaName(schemaName)}
}

// TableNames lists the base tables of the schema.
func (c *Catalog) TableNames(ctx context.Context) ([]string, error) {
	tables, err := c.fetchTables(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return names, nil
}

// Tables introspects every base table with its columns and foreign keys, in
// table-name order.
func (c *Catalog) Tables(ctx context.Context) ([]*Table, error) {
	tables, err := c.fetchTables(ctx)
	if err != nil {
		return nil, err
	}

	// Normalized keys so lookups survive case differences between queries.
	tableMap := make(map[string]*Table, len(tables))
	for _, t := range tables {
		tableMap[strings.ToUpper(t.Name)] = t
	}

	if err := c.fetchColumns(ctx, tableMap); err != nil {
		return nil, err
	}
	if err := c.fetchForeignKeys(ctx, tableMap); err != nil {
		return nil, err
	}
	return tables, nil
}

func (c *Catalog) fetchTables(ctx context.Context) ([]*Table, error) {
	rows, err := c.db.QueryContext(ctx, c.dialect.TablesQuery(), c.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []*Table
	for rows.Next() {
		var name string
		var rowCount, byteSize sql.NullInt64
		if err := rows.Scan(&name, &rowCount, &byteSize); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		tables = append(tables, &Table{
			Name:         name,
			RowCount:     rowCount.Int64,
			ByteSize:     byteSize.Int64,
			Dependencies: []string{},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return tables, nil
}

func (c *Catalog) fetchColumns(ctx context.Context, tableMap map[string]*Table) error {
	rows, err := c.db.QueryContext(ctx, c.dialect.ColumnsQuery(), c.schema)
	if err != nil {
		return fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tName, cName, dType, cType, isNull, cKey, extra, comment sql.NullString
		var cLen, nPrec, nScale sql.NullInt64

		if err := rows.Scan(&tName, &cName, &dType, &cType, &cLen, &nPrec, &nScale, &isNull, &cKey, &extra, &comment); err != nil {
			return fmt.Errorf("failed to scan column (table: %s): %w", tName.String, err)
		}
		if !tName.Valid || !cName.Valid {
			continue
		}

		t, ok := tableMap[strings.ToUpper(tName.String)]
		if !ok {
			continue
		}

		extraLower := strings.ToLower(extra.String)
		columnType := strings.ToLower(cType.String)
		col := &Column{
			Name:         cName.String,
			DeclaredType: c.dialect.NormalizeType(dType.String),
			ColumnType:   columnType,
			Precision:    int(nPrec.Int64),
			Scale:        int(nScale.Int64),
			Unsigned:     strings.Contains(columnType, "unsigned"),
			IsNullable:   strings.EqualFold(isNull.String, "YES"),
			IsPK:         strings.Contains(cKey.String, "PRI"),
			IsAutoInc: strings.Contains(extraLower, "auto_increment") ||
				strings.Contains(extraLower, "identity") ||
				strings.Contains(extraLower, "nextval"),
			Comment: comment.String,
		}
		if cLen.Valid && cLen.Int64 > 0 {
			col.Length = clampLength(cLen.Int64)
		} else {
			col.Length = DeclaredWidth(columnType)
		}
		col.Meaning = AnalyzeMeaning(col.Name, col.Comment)
		t.Columns = append(t.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating columns: %w", err)
	}
	return nil
}

func (c *Catalog) fetchForeignKeys(ctx context.Context, tableMap map[string]*Table) error {
	rows, err := c.db.QueryContext(ctx, c.dialect.ForeignKeysQuery(), c.schema)
	if err != nil {
		return fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tName, cConst, cName, rTable, rCol sql.NullString
		if err := rows.Scan(&tName, &cConst, &cName, &rTable, &rCol); err != nil {
			return fmt.Errorf("failed to scan foreign key: %w", err)
		}
		if !tName.Valid || !rTable.Valid || strings.EqualFold(tName.String, rTable.String) {
			continue
		}
		t, ok := tableMap[strings.ToUpper(tName.String)]
		if !ok {
			continue
		}
		// References outside the introspected schema cannot be ordered.
		ref, ok := tableMap[strings.ToUpper(rTable.String)]
		if !ok {
			continue
		}
		t.Dependencies = appendUnique(t.Dependencies, ref.Name)
		t.ForeignKeys = append(t.ForeignKeys, &ForeignKey{
			Column:    cName.String,
			RefTable:  ref.Name,
			RefColumn: rCol.String,
		})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating foreign keys: %w", err)
	}
	return nil
}

// Sample returns up to limit rows of table. Text comes back as string, other
// values as the driver produced them.
func (c *Catalog) Sample(ctx context.Context, table string, limit int) ([][]any, error) {
	rows, err := c.db.QueryContext(ctx, c.dialect.SampleQuery(table, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to sample %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}

	var out [][]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan sample row of %s: %w", table, err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		out = append(out, values)
	}
	return out, rows.Err()
}

// DeclaredWidth extracts the first parenthesized number of a column type:
// "tinyint(1)" -> 1, "decimal(10,2)" -> 10, "text" -> 0.
func DeclaredWidth(columnType string) int {
	open := strings.IndexByte(columnType, '(')
	if open < 0 {
		return 0
	}
	end := strings.IndexAny(columnType[open+1:], ",)")
	if end < 0 {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(columnType[open+1 : open+1+end]))
	if err != nil {
		return 0
	}
	return n
}

func clampLength(n int64) int {
	const maxInt = int64(^uint(0) >> 1)
	if n > maxInt {
		return int(maxInt)
	}
	return int(n)
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
