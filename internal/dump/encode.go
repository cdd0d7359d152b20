package dump

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Literal renders a Go value the way mysqldump writes it.
func Literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if x {
			return "_binary '\x01'"
		}
		return `_binary '\0'`
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return Quote(x)
	case *string:
		if x == nil {
			return "NULL"
		}
		return Quote(*x)
	case time.Time:
		return Quote(x.Format("2006-01-02 15:04:05"))
	case *time.Time:
		if x == nil {
			return "NULL"
		}
		return Quote(x.Format("2006-01-02 15:04:05"))
	case []byte:
		return "_binary " + Quote(string(x))
	default:
		return Quote(fmt.Sprint(x))
	}
}

// Quote wraps s in single quotes using MySQL escapes.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case 0:
			b.WriteString(`\0`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\x1a':
			b.WriteString(`\Z`)
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// Writer emits a mysqldump-shaped data section for one table, batching
// tuples into multi-row INSERT statements.
type Writer struct {
	w       *bufio.Writer
	table   string
	batch   int
	pending int
	err     error
}

// NewWriter writes the table preamble and returns a writer that flushes an
// INSERT statement every batch rows.
func NewWriter(w io.Writer, table string, batch int) *Writer {
	if batch <= 0 {
		batch = 500
	}
	dw := &Writer{w: bufio.NewWriter(w), table: table, batch: batch}
	dw.printf("--\n-- Dumping data for table `%s`\n--\n\n", table)
	dw.printf("LOCK TABLES `%s` WRITE;\n", table)
	dw.printf("/*!40000 ALTER TABLE `%s` DISABLE KEYS */;\n", table)
	return dw
}

func (dw *Writer) printf(format string, args ...any) {
	if dw.err != nil {
		return
	}
	_, dw.err = fmt.Fprintf(dw.w, format, args...)
}

// Write appends one tuple.
func (dw *Writer) Write(values ...any) error {
	if dw.pending == 0 {
		dw.printf("INSERT INTO `%s` VALUES ", dw.table)
	} else {
		dw.printf(",")
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = Literal(v)
	}
	dw.printf("(%s)", strings.Join(parts, ","))
	dw.pending++
	if dw.pending >= dw.batch {
		dw.printf(";\n")
		dw.pending = 0
	}
	return dw.err
}

// Close terminates the open statement and writes the table epilogue.
func (dw *Writer) Close() error {
	if dw.pending > 0 {
		dw.printf(";\n")
		dw.pending = 0
	}
	dw.printf("/*!40000 ALTER TABLE `%s` ENABLE KEYS */;\n", dw.table)
	dw.printf("UNLOCK TABLES;\n")
	if dw.err != nil {
		return dw.err
	}
	return dw.w.Flush()
}
