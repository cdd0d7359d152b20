package dialect

// Dialect abstracts the engine-specific SQL the migration tool issues.
// Introspection queries take the schema name as their single bind argument.
type Dialect interface {
	// Metadata Queries (Schema Introspection)
	// TablesQuery yields (table_name, row_count, byte_size).
	TablesQuery() string
	// ColumnsQuery yields (table_name, column_name, data_type, column_type,
	// char_length, numeric_precision, numeric_scale, is_nullable, column_key,
	// extra, comment).
	ColumnsQuery() string
	// ForeignKeysQuery yields (table_name, constraint_name, column_name,
	// referenced_table, referenced_column).
	ForeignKeysQuery() string

	// Query Generation
	SampleQuery(table string, limit int) string
	InsertQuery(table string, cols []string) string
	QuoteIdent(name string) string
	Placeholder(index int) string // Returns ?, $1, etc.

	// Helpers
	NormalizeType(sqlType string) string
	SchemaName(input string) string
}
