package schema

import "strings"

// Table is one relational table as seen through information_schema.
type Table struct {
	Name         string
	RowCount     int64 // engine estimate, not an exact count
	ByteSize     int64
	Columns      []*Column
	ForeignKeys  []*ForeignKey
	Dependencies []string // referenced tables, used for ordering
}

// Column is the descriptor of a single source column. It is built once per
// introspected column and never modified afterwards.
type Column struct {
	Name         string
	DeclaredType string // base type, lowercased: "tinyint", "varchar", "enum"
	ColumnType   string // full declaration: "tinyint(1) unsigned", "enum('a','b')"
	Length       int    // character length or declared display width, 0 when unknown
	Precision    int    // 0 when unknown
	Scale        int
	Unsigned     bool
	IsNullable   bool
	IsPK         bool
	IsAutoInc    bool
	Comment      string
	Meaning      string // inferred from name/comment, e.g. "phone", "email"
}

type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}

// HasPrimaryKey reports whether any column belongs to the primary key.
func (t *Table) HasPrimaryKey() bool {
	for _, c := range t.Columns {
		if c.IsPK {
			return true
		}
	}
	return false
}

// Column returns the column named name (case-insensitive) or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// ColumnNames returns the column names in ordinal order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// IsTemporal reports whether the column holds a date or time value.
func (c *Column) IsTemporal() bool {
	switch c.DeclaredType {
	case "date", "datetime", "timestamp", "time", "year":
		return true
	}
	return false
}

// IsTextual reports whether the column holds character data.
func (c *Column) IsTextual() bool {
	t := c.DeclaredType
	return strings.Contains(t, "char") || strings.Contains(t, "text")
}

// IsFloating reports whether the column holds approximate numerics.
func (c *Column) IsFloating() bool {
	switch c.DeclaredType {
	case "float", "double", "real", "double precision":
		return true
	}
	return false
}
