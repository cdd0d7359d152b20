package dump_test

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sabercon-migrate/internal/dump"
)

const userDump = "-- MySQL dump 10.13\n" +
	"/*!40101 SET NAMES utf8mb4 */;\n" +
	"DROP TABLE IF EXISTS `user`;\n" +
	"CREATE TABLE `user` (\n  `id` bigint NOT NULL AUTO_INCREMENT,\n  PRIMARY KEY (`id`)\n);\n" +
	"LOCK TABLES `user` WRITE;\n" +
	"/*!40000 ALTER TABLE `user` DISABLE KEYS */;\n" +
	"INSERT INTO `user` VALUES (1,'ana@escola.br','Ana O\\'Neil',_binary '\x01',NULL,3.5,'2021-03-04 10:11:12'),(2,'bia@escola.br','Bia, a \"B\"',_binary '\\0',7,-2,'line\\nbreak');\n" +
	"/*!40000 ALTER TABLE `user` ENABLE KEYS */;\n" +
	"UNLOCK TABLES;\n"

func TestParse_MysqldumpFile(t *testing.T) {
	stmts, err := dump.Parse(userDump)
	require.NoError(t, err)
	require.Len(t, stmts, 1)

	stmt := stmts[0]
	assert.Equal(t, "user", stmt.Table)
	assert.Empty(t, stmt.Columns)
	require.Len(t, stmt.Rows, 2)

	first := stmt.Rows[0]
	require.Len(t, first, 7)
	n, ok := first[0].Int64()
	assert.True(t, ok)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, "ana@escola.br", first[1].Text())
	assert.Equal(t, "Ana O'Neil", first[2].Text())
	assert.Equal(t, dump.Bool, first[3].Kind)
	assert.True(t, first[3].B)
	assert.True(t, first[4].IsNull())
	assert.Equal(t, 3.5, first[5].N)
	assert.Equal(t, "2021-03-04 10:11:12", first[6].Text())

	second := stmt.Rows[1]
	assert.Equal(t, `Bia, a "B"`, second[2].Text())
	assert.False(t, second[3].B)
	assert.Equal(t, float64(-2), second[5].N)
	assert.Equal(t, "line\nbreak", second[6].Text())
}

func TestParse_Literals(t *testing.T) {
	tests := []struct {
		name string
		lit  string
		want dump.Value
	}{
		{"null upper", "NULL", dump.NullValue()},
		{"null lower", "null", dump.NullValue()},
		{"integer", "42", dump.Value{Kind: dump.Number, N: 42, S: "42"}},
		{"negative float", "-0.25", dump.Value{Kind: dump.Number, N: -0.25, S: "-0.25"}},
		{"exponent", "1e3", dump.Value{Kind: dump.Number, N: 1000, S: "1e3"}},
		{"doubled quote", "'it''s'", dump.StringValue("it's")},
		{"double quoted", `"say \"hi\""`, dump.StringValue(`say "hi"`)},
		{"escapes", `'a\tb\\c\Z'`, dump.StringValue("a\tb\\c\x1a")},
		{"like escapes kept", `'100\%'`, dump.StringValue(`100\%`)},
		{"empty string", "''", dump.StringValue("")},
		{"binary zero", `_binary '\0'`, dump.Value{Kind: dump.Bool, B: false, S: "\x00"}},
		{"binary one", "_binary '\x01'", dump.Value{Kind: dump.Bool, B: true, S: "\x01"}},
		{"bit literal", "b'1'", dump.Value{Kind: dump.Bool, B: true, S: "1"}},
		{"bit literal zero", "b'0'", dump.Value{Kind: dump.Bool, B: false, S: "0"}},
		{"hex", "0x00", dump.Value{Kind: dump.Bool, B: false, S: "0x00"}},
		{"hex nonzero", "0x0A", dump.Value{Kind: dump.Bool, B: true, S: "0x0A"}},
		{"hex string", "X'4142'", dump.Value{Kind: dump.Bool, B: true, S: "4142"}},
		{"hex string zero", "x'00'", dump.Value{Kind: dump.Bool, B: false, S: "00"}},
		{"charset introducer", "_utf8mb4'olá'", dump.StringValue("olá")},
		{"bare token", "CURRENT_TIMESTAMP", dump.RawValue("CURRENT_TIMESTAMP")},
		{"function call", "NOW()", dump.RawValue("NOW()")},
		{"not a number", "NaN", dump.RawValue("NaN")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmts, err := dump.Parse("INSERT INTO t VALUES (" + tt.lit + ");")
			require.NoError(t, err)
			require.Len(t, stmts, 1)
			require.Len(t, stmts[0].Rows, 1)
			require.Len(t, stmts[0].Rows[0], 1)
			assert.Equal(t, tt.want, stmts[0].Rows[0][0])
		})
	}
}

func TestParse_ColumnListAndMultipleStatements(t *testing.T) {
	text := "INSERT INTO `sabercon`.`role` (`id`, `name`) VALUES (1,'ADMIN'),(2,'TEACHER');\n" +
		"insert into `role` (`id`,`name`) values (3,'STUDENT')"

	stmts, err := dump.Parse(text)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.Equal(t, "role", stmts[0].Table)
	assert.Equal(t, []string{"id", "name"}, stmts[0].Columns)
	assert.Len(t, stmts[0].Rows, 2)
	assert.Len(t, stmts[1].Rows, 1)
	assert.Equal(t, "STUDENT", stmts[1].Rows[0][1].Text())
}

func TestParse_SemicolonsAndParensInsideStrings(t *testing.T) {
	stmts, err := dump.Parse("INSERT INTO `q` VALUES (1,'a; b), (c'),(2,'INSERT INTO x VALUES (9);');")
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	require.Len(t, stmts[0].Rows, 2)
	assert.Equal(t, "a; b), (c", stmts[0].Rows[0][1].Text())
	assert.Equal(t, "INSERT INTO x VALUES (9);", stmts[0].Rows[1][1].Text())
}

func TestParse_InsertIgnoreAndReplace(t *testing.T) {
	text := "INSERT IGNORE INTO `t` VALUES (1,'a'),(2,'b');\n" +
		"replace into `t` VALUES (3,X'4142');\n" +
		"INSERT INTO `t` VALUES (4,'d');"

	stmts, err := dump.Parse(text)
	require.NoError(t, err)
	require.Len(t, stmts, 3)
	assert.Len(t, stmts[0].Rows, 2)
	assert.Equal(t, "t", stmts[1].Table)
	assert.Equal(t, "4142", stmts[1].Rows[0][1].S)
	id, ok := stmts[2].Rows[0][0].Int64()
	assert.True(t, ok)
	assert.Equal(t, int64(4), id)

	rows := dump.ExtractRows(slog.New(slog.NewTextHandler(io.Discard, nil)), "t", text)
	assert.Len(t, rows, 4)
}

func TestParse_OnDuplicateKey(t *testing.T) {
	text := "INSERT INTO t VALUES (1,'x') ON DUPLICATE KEY UPDATE name='y;z';\nINSERT INTO t VALUES (2,'w');"
	stmts, err := dump.Parse(text)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.Equal(t, "w", stmts[1].Rows[0][1].Text())
}

func TestParse_NoStatement(t *testing.T) {
	stmts, err := dump.Parse("-- empty table\nLOCK TABLES `x` WRITE;\nUNLOCK TABLES;\n")
	require.NoError(t, err)
	assert.Empty(t, stmts)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"unterminated string", "INSERT INTO t VALUES (1,'abc);"},
		{"unterminated tuple", "INSERT INTO t VALUES (1,2"},
		{"missing values", "INSERT INTO t (1,2);"},
		{"missing comma", "INSERT INTO t VALUES (1 2);"},
		{"bad bit literal", "INSERT INTO t VALUES (b'12');"},
		{"bad hex literal", "INSERT INTO t VALUES (X'4G');"},
		{"garbage after tuple", "INSERT INTO t VALUES (1) (2);"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dump.Parse(tt.text)
			require.Error(t, err)
			var syn *dump.SyntaxError
			assert.True(t, errors.As(err, &syn))
		})
	}
}

func TestExtractRows_Lenient(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	rows := dump.ExtractRows(logger, "broken", "INSERT INTO t VALUES (1,'oops")
	assert.Empty(t, rows)
	assert.Contains(t, buf.String(), "failed to parse dump")

	buf.Reset()
	rows = dump.ExtractRows(logger, "empty", "-- nothing here")
	assert.Empty(t, rows)
	assert.Contains(t, buf.String(), "no INSERT statement")

	rows = dump.ExtractRows(logger, "two", "INSERT INTO t VALUES (1);INSERT INTO t VALUES (2),(3);")
	assert.Len(t, rows, 3)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "user.sql"), []byte(userDump), 0o644))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	assert.Len(t, dump.ReadFile(logger, dir, "user"), 2)
	assert.Empty(t, dump.ReadFile(logger, dir, "missing"))

	_, err := dump.ParseFile(dir, "missing")
	assert.Error(t, err)
}

func TestToBool(t *testing.T) {
	assert.False(t, dump.ToBool(dump.NullValue()))
	assert.True(t, dump.ToBool(dump.BoolValue(true)))
	assert.False(t, dump.ToBool(dump.BoolValue(false)))
	assert.True(t, dump.ToBool(dump.NumberValue(1)))
	assert.False(t, dump.ToBool(dump.NumberValue(0)))
	assert.True(t, dump.ToBool(dump.StringValue("true")))
	assert.True(t, dump.ToBool(dump.StringValue("\x01")))
	assert.False(t, dump.ToBool(dump.StringValue("no")))
}

func TestRow_GetOutOfRange(t *testing.T) {
	row := dump.Row{dump.NumberValue(1)}
	assert.True(t, row.Get(5).IsNull())
	assert.True(t, row.Get(-1).IsNull())
	assert.Nil(t, row.Get(3).Ptr())
}

func TestWriter_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := dump.NewWriter(&buf, "certificate", 2)
	require.NoError(t, w.Write(1, "Jo\\ão's\n", true, nil, 9.75))
	require.NoError(t, w.Write(2, "", false, "x", -1))
	require.NoError(t, w.Write(3, "\x00z", true, "y", 0))
	require.NoError(t, w.Close())

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "INSERT INTO `certificate` VALUES"))
	assert.Contains(t, out, "UNLOCK TABLES;")

	stmts, err := dump.Parse(out)
	require.NoError(t, err)
	require.Len(t, stmts, 2)

	var rows []dump.Row
	for _, s := range stmts {
		rows = append(rows, s.Rows...)
	}
	require.Len(t, rows, 3)
	assert.Equal(t, "Jo\\ão's\n", rows[0][1].Text())
	assert.True(t, dump.ToBool(rows[0][2]))
	assert.True(t, rows[0][3].IsNull())
	assert.Equal(t, 9.75, rows[0][4].N)
	assert.False(t, dump.ToBool(rows[1][2]))
	assert.Equal(t, "\x00z", rows[2][1].Text())
}
