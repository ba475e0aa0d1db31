package dataset

import (
	"fmt"
)

// Rules describes how a freshly loaded table is cleaned before use
type Rules struct {
	// Placeholder is a cell token meaning "nothing", replaced in every column
	Placeholder string `yaml:"placeholder" json:"placeholder,omitempty"`
	// Replacement is the text the placeholder is replaced with
	Replacement string `yaml:"replacement" json:"replacement,omitempty"`
	// Numeric columns must parse completely; a bad cell fails the load
	Numeric []string `yaml:"numeric" json:"numeric,omitempty"`
	// Coerce columns are parsed leniently; a bad cell becomes null
	Coerce []string `yaml:"coerce" json:"coerce,omitempty"`
}

// CoercionError reports a cell that could not be parsed as a number
type CoercionError struct {
	Column string
	Row    int
	Value  string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("column %q row %d: cannot parse %q as a number", e.Column, e.Row, e.Value)
}

// Normalize applies the rules in order: placeholder replacement, strict
// coercion, lenient coercion. Applying it twice yields the same table.
func Normalize(t *Table, rules Rules) (*Table, error) {
	out := t
	if rules.Placeholder != "" {
		out = ReplacePlaceholder(out, rules.Placeholder, rules.Replacement)
	}
	var err error
	if len(rules.Numeric) > 0 {
		if out, err = CoerceStrict(out, rules.Numeric...); err != nil {
			return nil, err
		}
	}
	if len(rules.Coerce) > 0 {
		if out, err = CoerceLenient(out, rules.Coerce...); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReplacePlaceholder replaces every text cell exactly equal to token with
// replacement, in all columns. Columns that become fully numeric are
// re-typed as numbers.
func ReplacePlaceholder(t *Table, token, replacement string) *Table {
	all := make([]int, len(t.columns))
	for i := range all {
		all[i] = i
	}
	repl := ParseCell(replacement)
	out, _ := t.mapColumns(all, func(_ string, _ int, v Value) (Value, error) {
		if s, ok := v.Text(); ok && s == token {
			return repl, nil
		}
		return v, nil
	})
	return out.InferTypes()
}

// CoerceStrict converts the named columns to numbers. Any non-empty cell that
// does not parse returns a *CoercionError.
func CoerceStrict(t *Table, names ...string) (*Table, error) {
	cols, err := t.indices(names)
	if err != nil {
		return nil, err
	}
	return t.mapColumns(cols, func(col string, row int, v Value) (Value, error) {
		s, ok := v.Text()
		if !ok {
			return v, nil
		}
		f, ok := parseNumber(s)
		if !ok {
			return Null(), &CoercionError{Column: col, Row: row + 1, Value: s}
		}
		return Number(f), nil
	})
}

// CoerceLenient converts the named columns to numbers, turning cells that do
// not parse into null.
func CoerceLenient(t *Table, names ...string) (*Table, error) {
	cols, err := t.indices(names)
	if err != nil {
		return nil, err
	}
	return t.mapColumns(cols, func(_ string, _ int, v Value) (Value, error) {
		s, ok := v.Text()
		if !ok {
			return v, nil
		}
		if f, ok := parseNumber(s); ok {
			return Number(f), nil
		}
		return Null(), nil
	})
}

// InferTypes converts every text column whose non-null cells all parse as
// numbers into a numeric column.
func (t *Table) InferTypes() *Table {
	var cols []int
	for i, c := range t.columns {
		if c.Kind == KindText && t.allNumeric(i) {
			cols = append(cols, i)
		}
	}
	if len(cols) == 0 {
		return t
	}
	out, _ := t.mapColumns(cols, func(_ string, _ int, v Value) (Value, error) {
		if s, ok := v.Text(); ok {
			f, _ := parseNumber(s)
			return Number(f), nil
		}
		return v, nil
	})
	return out
}

func (t *Table) allNumeric(col int) bool {
	for _, row := range t.rows {
		if s, ok := row[col].Text(); ok {
			if _, ok := parseNumber(s); !ok {
				return false
			}
		}
	}
	return true
}

func (t *Table) indices(names []string) ([]int, error) {
	out := make([]int, len(names))
	for k, name := range names {
		i, err := t.colIndex(name)
		if err != nil {
			return nil, err
		}
		out[k] = i
	}
	return out, nil
}
