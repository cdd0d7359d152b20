// Package dump reads and writes the bulk INSERT statements of legacy MySQL
// dump files.
package dump

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the literal class a value was parsed from.
type Kind uint8

const (
	Null   Kind = iota // NULL
	Bool               // _binary '...', b'...', 0x...
	Number             // numeric literal
	String             // quoted literal
	Raw                // any other bare token
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Raw:
		return "raw"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is one scalar of a dumped tuple.
type Value struct {
	Kind Kind
	B    bool    // Bool
	N    float64 // Number
	S    string  // unquoted text, literal digits, binary payload or raw token
}

// Row is one parenthesized tuple, positionally ordered as the dump wrote it.
type Row []Value

// Get returns the value at i, or a NULL value when the row is too short.
func (r Row) Get(i int) Value {
	if i < 0 || i >= len(r) {
		return Value{Kind: Null}
	}
	return r[i]
}

func NullValue() Value            { return Value{Kind: Null} }
func StringValue(s string) Value  { return Value{Kind: String, S: s} }
func BoolValue(b bool) Value      { return Value{Kind: Bool, B: b} }
func RawValue(s string) Value     { return Value{Kind: Raw, S: s} }
func NumberValue(n float64) Value { return Value{Kind: Number, N: n, S: strconv.FormatFloat(n, 'f', -1, 64)} }

func (v Value) IsNull() bool { return v.Kind == Null }

// Text returns the value as text; NULL becomes the empty string and
// booleans "0"/"1".
func (v Value) Text() string {
	switch v.Kind {
	case Null:
		return ""
	case Bool:
		if v.B {
			return "1"
		}
		return "0"
	default:
		return v.S
	}
}

// Ptr returns nil for NULL and a pointer to Text otherwise.
func (v Value) Ptr() *string {
	if v.IsNull() {
		return nil
	}
	s := v.Text()
	return &s
}

// Int64 converts numeric values and numeric-looking strings.
func (v Value) Int64() (int64, bool) {
	switch v.Kind {
	case Number:
		if n, err := strconv.ParseInt(v.S, 10, 64); err == nil {
			return n, true
		}
		if v.N == math.Trunc(v.N) && math.Abs(v.N) < 1<<63 {
			return int64(v.N), true
		}
		return 0, false
	case String, Raw:
		n, err := strconv.ParseInt(strings.TrimSpace(v.S), 10, 64)
		return n, err == nil
	case Bool:
		if v.B {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Float64 converts numeric values and numeric-looking strings.
func (v Value) Float64() (float64, bool) {
	switch v.Kind {
	case Number:
		return v.N, true
	case String, Raw:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.S), 64)
		return f, err == nil
	case Bool:
		if v.B {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// ToBool is the bit-to-boolean conversion applied to legacy flag columns.
// NULL converts to false.
func ToBool(v Value) bool {
	switch v.Kind {
	case Bool:
		return v.B
	case Number:
		return v.N != 0
	case String, Raw:
		switch strings.ToLower(strings.TrimSpace(v.S)) {
		case "1", "true", "t", "y", "yes", "s", "sim", "\x01":
			return true
		}
		return false
	default:
		return false
	}
}
