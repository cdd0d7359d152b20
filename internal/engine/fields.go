package engine

import (
	"strconv"
	"strings"
	"time"

	"sabercon-migrate/internal/dump"
)

// Fields gives named access to a dumped tuple through its entity layout.
type Fields struct {
	index map[string]int
	row   dump.Row
}

func newFields(index map[string]int, row dump.Row) Fields {
	return Fields{index: index, row: row}
}

// Value returns the named column, NULL when the layout or row lacks it.
func (f Fields) Value(name string) dump.Value {
	i, ok := f.index[name]
	if !ok {
		return dump.NullValue()
	}
	return f.row.Get(i)
}

// ID returns the column as a legacy id string, empty for NULL.
func (f Fields) ID(name string) string {
	v := f.Value(name)
	if v.IsNull() {
		return ""
	}
	if n, ok := v.Int64(); ok {
		return strconv.FormatInt(n, 10)
	}
	return strings.TrimSpace(v.Text())
}

func (f Fields) String(name string) *string { return f.Value(name).Ptr() }

// Bool applies the bit conversion; NULL is false.
func (f Fields) Bool(name string) bool { return dump.ToBool(f.Value(name)) }

func (f Fields) Int(name string) *int64 {
	if n, ok := f.Value(name).Int64(); ok {
		return &n
	}
	return nil
}

func (f Fields) Float(name string) *float64 {
	if x, ok := f.Value(name).Float64(); ok {
		return &x
	}
	return nil
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
}

// Time parses a dumped DATETIME/DATE. Zero dates and garbage become nil.
func (f Fields) Time(name string) *time.Time {
	v := f.Value(name)
	if v.IsNull() {
		return nil
	}
	s := strings.TrimSpace(v.Text())
	if s == "" || strings.HasPrefix(s, "0000-00-00") {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
