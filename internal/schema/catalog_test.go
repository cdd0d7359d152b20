package schema_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sabercon-migrate/internal/dialect"
	"sabercon-migrate/internal/schema"
)

func TestCatalog_Tables(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	d := &dialect.MysqlDialect{}

	mock.ExpectQuery(regexp.QuoteMeta(d.TablesQuery())).
		WithArgs("sabercon").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME", "TABLE_ROWS", "SIZE"}).
			AddRow("certificate", 120, 65536).
			AddRow("user", 40, 16384).
			AddRow("user_log", 9, 1024))

	mock.ExpectQuery(regexp.QuoteMeta(d.ColumnsQuery())).
		WithArgs("sabercon").
		WillReturnRows(sqlmock.NewRows([]string{
			"TABLE_NAME", "COLUMN_NAME", "DATA_TYPE", "COLUMN_TYPE", "CHARACTER_MAXIMUM_LENGTH",
			"NUMERIC_PRECISION", "NUMERIC_SCALE", "IS_NULLABLE", "COLUMN_KEY", "EXTRA", "COLUMN_COMMENT",
		}).
			AddRow("certificate", "id", "bigint", "bigint(20)", nil, 19, 0, "NO", "PRI", "auto_increment", "").
			AddRow("certificate", "user_id", "bigint", "bigint(20)", nil, 19, 0, "YES", "MUL", "", "").
			AddRow("certificate", "score", "decimal", "decimal(5,2)", nil, 5, 2, "YES", "", "", "").
			AddRow("user", "id", "bigint", "bigint(20)", nil, 19, 0, "NO", "PRI", "auto_increment", "").
			AddRow("user", "enabled", "bit", "bit(1)", nil, 1, nil, "YES", "", "", "").
			AddRow("user", "email", "varchar", "varchar(255)", 255, nil, nil, "NO", "UNI", "", "E-mail").
			AddRow("user_log", "message", "text", "text", 65535, nil, nil, "YES", "", "", ""))

	mock.ExpectQuery(regexp.QuoteMeta(d.ForeignKeysQuery())).
		WithArgs("sabercon").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME", "CONSTRAINT_NAME", "COLUMN_NAME", "REFERENCED_TABLE_NAME", "REFERENCED_COLUMN_NAME"}).
			AddRow("certificate", "fk_cert_user", "user_id", "user", "id").
			AddRow("user", "fk_user_external", "institution_id", "legacy_institution", "id"))

	tables, err := schema.NewCatalog(db, d, "sabercon").Tables(context.Background())
	require.NoError(t, err)
	require.Len(t, tables, 3)

	cert := tables[0]
	assert.Equal(t, "certificate", cert.Name)
	assert.EqualValues(t, 120, cert.RowCount)
	assert.EqualValues(t, 65536, cert.ByteSize)
	assert.Equal(t, []string{"user"}, cert.Dependencies)
	require.Len(t, cert.Columns, 3)
	assert.True(t, cert.Columns[0].IsPK)
	assert.True(t, cert.Columns[0].IsAutoInc)
	assert.Equal(t, 5, cert.Columns[2].Precision)
	assert.Equal(t, 2, cert.Columns[2].Scale)

	user := tables[1]
	assert.Empty(t, user.Dependencies, "references outside the schema are ignored")
	enabled := user.Column("enabled")
	require.NotNil(t, enabled)
	assert.Equal(t, "bit", enabled.DeclaredType)
	assert.Equal(t, 1, enabled.Length)
	assert.Equal(t, "email", user.Column("email").Meaning)
	assert.Equal(t, 255, user.Column("email").Length)

	assert.False(t, tables[2].HasPrimaryKey())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalog_Sample(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	d := &dialect.MysqlDialect{}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `user` LIMIT 2")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).
			AddRow(1, []byte("a@b.c")).
			AddRow(2, nil))

	rows, err := schema.NewCatalog(db, d, "sabercon").Sample(context.Background(), "user", 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a@b.c", rows[0][1])
	assert.Nil(t, rows[1][1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalog_TableNamesError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	d := &dialect.PostgresDialect{}
	mock.ExpectQuery(regexp.QuoteMeta(d.TablesQuery())).
		WithArgs("public").
		WillReturnError(assert.AnError)

	_, err = schema.NewCatalog(db, d, "").TableNames(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}
