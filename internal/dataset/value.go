package dataset

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Kind identifies what a Value or a Column holds
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindText
)

// String returns the kind name used in catalog summaries
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "null"
	}
}

// Value is a single table cell: null, a float64 or a string
type Value struct {
	kind Kind
	num  float64
	str  string
}

// Null returns the absent value
func Null() Value { return Value{} }

// Number wraps a float64. NaN is stored as null.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{kind: KindNumber, num: f}
}

// Text wraps a string
func Text(s string) Value { return Value{kind: KindText, str: s} }

// Kind reports what the value holds
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the cell is absent
func (v Value) IsNull() bool { return v.kind == KindNull }

// Float returns the numeric value and whether the cell is numeric
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Text returns the raw text and whether the cell is text
func (v Value) Text() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.str, true
}

// String renders the value the way it would appear in a CSV cell
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.str
	default:
		return ""
	}
}

// Equal compares two values. Null never equals anything, including null.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind || v.kind == KindNull {
		return false
	}
	if v.kind == KindNumber {
		return v.num == o.num
	}
	return v.str == o.str
}

// key returns a map key for join lookups; ok is false for null
func (v Value) key() (string, bool) {
	switch v.kind {
	case KindNumber:
		return "n:" + strconv.FormatFloat(v.num, 'g', -1, 64), true
	case KindText:
		return "s:" + v.str, true
	default:
		return "", false
	}
}

// MarshalJSON encodes numbers as JSON numbers, text as strings and null as null
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		if math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.num)
	case KindText:
		return json.Marshal(v.str)
	default:
		return []byte("null"), nil
	}
}

// ParseCell turns raw CSV text into a Value, keeping everything non-empty as text
func ParseCell(raw string) Value {
	if strings.TrimSpace(raw) == "" {
		return Null()
	}
	return Text(raw)
}

// parseNumber ignores surrounding whitespace; anything else must be a float literal.
func parseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
