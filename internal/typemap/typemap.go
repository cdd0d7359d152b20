// Package typemap maps legacy MySQL column declarations to PostgreSQL types.
package typemap

import (
	"fmt"
	"strconv"
	"strings"

	"sabercon-migrate/internal/schema"
)

// Severity grades how safe a conversion is.
type Severity int

const (
	SeverityOK Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityOK:
		return "ok"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

const (
	// MaxFixedChar is the widest fixed-width column kept as character(n).
	MaxFixedChar = 255
	// MaxVarchar is PostgreSQL's limit for character varying(n).
	MaxVarchar = 10485760
)

// TypeMapping is the proposed target type for one source column.
type TypeMapping struct {
	TargetType string
	Compatible bool
	Note       string
	Severity   Severity
}

func ok(target, note string) TypeMapping {
	return TypeMapping{TargetType: target, Compatible: true, Note: note, Severity: SeverityOK}
}

func lossy(target, note string) TypeMapping {
	return TypeMapping{TargetType: target, Compatible: false, Note: note, Severity: SeverityWarning}
}

var spatialTypes = map[string]bool{
	"geometry": true, "point": true, "linestring": true, "polygon": true,
	"multipoint": true, "multilinestring": true, "multipolygon": true,
	"geometrycollection": true, "geomcollection": true,
}

// MapType proposes a target type for col. It never fails: anything it does
// not recognise becomes text with SeverityError.
func MapType(col *schema.Column) TypeMapping {
	t := strings.ToLower(strings.TrimSpace(col.DeclaredType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	t = strings.TrimSpace(strings.TrimSuffix(t, "unsigned"))
	if !col.Unsigned && strings.Contains(strings.ToLower(col.ColumnType+" "+col.DeclaredType), "unsigned") {
		col = withUnsigned(col)
	}

	length, precision, scale := widths(col)

	switch t {
	case "bit":
		if length <= 1 {
			return ok("boolean", "bit(1) flag")
		}
		return ok(fmt.Sprintf("bit varying(%d)", length), "bit string")
	case "bool", "boolean":
		return ok("boolean", "boolean")
	case "tinyint":
		if length == 1 {
			return ok("boolean", "tinyint(1) flag")
		}
		return ok("smallint", "tinyint widened to smallint")
	case "smallint":
		if col.Unsigned {
			return ok("integer", "unsigned smallint widened to integer")
		}
		return ok("smallint", "")
	case "mediumint":
		return ok("integer", "mediumint widened to integer")
	case "int", "integer":
		if col.Unsigned {
			return ok("bigint", "unsigned int widened to bigint")
		}
		return ok("integer", "")
	case "bigint":
		if col.Unsigned {
			return ok("numeric(20,0)", "unsigned bigint exceeds bigint range")
		}
		return ok("bigint", "")
	case "decimal", "numeric", "dec", "fixed":
		if precision > 0 {
			return ok(fmt.Sprintf("numeric(%d,%d)", precision, scale), "precision preserved")
		}
		return ok("numeric", "no precision declared")
	case "float":
		return ok("real", "")
	case "double", "double precision", "real":
		return ok("double precision", "")
	case "char", "nchar":
		if length > MaxFixedChar {
			return ok("text", fmt.Sprintf("char(%d) exceeds %d", length, MaxFixedChar))
		}
		if length <= 0 {
			return ok("character(1)", "char without length")
		}
		return ok(fmt.Sprintf("character(%d)", length), "")
	case "varchar", "nvarchar", "character varying":
		if length > MaxVarchar {
			return ok("text", fmt.Sprintf("varchar(%d) exceeds %d", length, MaxVarchar))
		}
		if length <= 0 {
			return ok("character varying", "varchar without length")
		}
		return ok(fmt.Sprintf("character varying(%d)", length), "")
	case "tinytext", "text", "mediumtext", "longtext":
		return ok("text", "")
	case "date":
		return ok("date", "")
	case "datetime", "timestamp":
		return ok("timestamp without time zone", "timezone-naive")
	case "time":
		return ok("time without time zone", "")
	case "year":
		return ok("smallint", "year stored as smallint")
	case "binary", "varbinary", "tinyblob", "blob", "mediumblob", "longblob":
		return ok("bytea", "")
	case "json":
		return ok("jsonb", "stored as indexed jsonb")
	case "enum":
		return lossy("text", "enum values need an application-level or CHECK constraint")
	case "set":
		return lossy("text", "set semantics are lost; needs an application-level constraint")
	}

	if spatialTypes[t] {
		return lossy("text", fmt.Sprintf("spatial type %s stored as text: geometric functions are lost", t))
	}

	return TypeMapping{
		TargetType: "text",
		Compatible: false,
		Note:       fmt.Sprintf("unrecognized type %q", col.DeclaredType),
		Severity:   SeverityError,
	}
}

// widths returns the length, precision and scale of col. Introspected values
// win; otherwise they are read from the full column type, then from the
// declared type, so "decimal(10,2)" alone is enough.
func widths(col *schema.Column) (length, precision, scale int) {
	length, precision, scale = col.Length, col.Precision, col.Scale
	if length > 0 && (precision > 0 || scale > 0) {
		return length, precision, scale
	}
	for _, decl := range []string{col.ColumnType, col.DeclaredType} {
		a, b, ok := typeArgs(decl)
		if !ok {
			continue
		}
		if length == 0 {
			length = a
		}
		if precision == 0 {
			precision, scale = a, b
		}
		break
	}
	return length, precision, scale
}

// typeArgs parses the numeric arguments of a type: "decimal(10,2)" -> 10, 2.
func typeArgs(decl string) (a, b int, ok bool) {
	open := strings.IndexByte(decl, '(')
	end := strings.IndexByte(decl, ')')
	if open < 0 || end < open {
		return 0, 0, false
	}
	first, second, _ := strings.Cut(decl[open+1:end], ",")
	a, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil {
		return 0, 0, false
	}
	if second != "" {
		if b, err = strconv.Atoi(strings.TrimSpace(second)); err != nil {
			b = 0
		}
	}
	return a, b, true
}

func withUnsigned(col *schema.Column) *schema.Column {
	c := *col
	c.Unsigned = true
	return &c
}
