// Package dataset holds the in-memory table model used by the dashboard and
// the handful of operations performed on it: normalization, left join,
// range filtering and aggregation.
//
// Tables are immutable once built. Every operation returns a new Table and
// never writes into its input, so a loaded table can be shared by any number
// of concurrent readers without locking.
package dataset

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Column describes one named column of a table
type Column struct {
	Name string `json:"name"`
	Kind Kind   `json:"-"`
}

// MarshalJSON renders the column kind by name
func (c Column) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name string `json:"name"`
		Kind string `json:"kind"`
	}{c.Name, c.Kind.String()})
}

// Table is an ordered collection of rows over named columns
type Table struct {
	columns []Column
	index   map[string]int
	rows    [][]Value
}

// New builds a table from column names and rows. Every row must have exactly
// one cell per column. Column kinds are derived from the cells.
func New(names []string, rows [][]Value) (*Table, error) {
	index := make(map[string]int, len(names))
	for i, name := range names {
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		index[name] = i
	}
	for i, row := range rows {
		if len(row) != len(names) {
			return nil, fmt.Errorf("row %d has %d cells, expected %d", i, len(row), len(names))
		}
	}

	t := &Table{
		columns: make([]Column, len(names)),
		index:   index,
		rows:    rows,
	}
	for i, name := range names {
		t.columns[i] = Column{Name: name, Kind: columnKind(rows, i)}
	}
	return t, nil
}

// FromRecords builds a table from a header and raw string records, as read
// from a CSV file or a spreadsheet. Duplicate header names are mangled to
// "name.1", "name.2", ... and short records are padded with nulls. Columns
// whose non-empty cells all parse as numbers become numeric.
func FromRecords(header []string, records [][]string) (*Table, error) {
	names := mangleHeader(header)
	rows := make([][]Value, len(records))
	for i, rec := range records {
		if len(rec) > len(names) {
			return nil, fmt.Errorf("record %d has %d fields, header has %d", i+1, len(rec), len(names))
		}
		row := make([]Value, len(names))
		for j := range names {
			if j < len(rec) {
				row[j] = ParseCell(rec[j])
			}
		}
		rows[i] = row
	}
	t, err := New(names, rows)
	if err != nil {
		return nil, err
	}
	return t.InferTypes(), nil
}

func mangleHeader(header []string) []string {
	seen := make(map[string]int, len(header))
	names := make([]string, len(header))
	for i, h := range header {
		name := h
		if n, ok := seen[h]; ok {
			name = h + "." + strconv.Itoa(n)
			seen[h] = n + 1
		} else {
			seen[h] = 1
		}
		names[i] = name
	}
	return names
}

func columnKind(rows [][]Value, col int) Kind {
	kind := KindNull
	for _, row := range rows {
		switch row[col].Kind() {
		case KindText:
			return KindText
		case KindNumber:
			kind = KindNumber
		}
	}
	return kind
}

// Columns returns the column descriptors in order
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// ColumnNames returns the column names in order
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.Name
	}
	return out
}

// HasColumn reports whether the table has a column with the given name
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Kind returns the kind of the named column
func (t *Table) Kind(name string) (Kind, error) {
	i, err := t.colIndex(name)
	if err != nil {
		return KindNull, err
	}
	return t.columns[i].Kind, nil
}

// Len returns the number of rows
func (t *Table) Len() int { return len(t.rows) }

// Value returns the cell at the given row and column
func (t *Table) Value(row int, name string) (Value, error) {
	i, err := t.colIndex(name)
	if err != nil {
		return Null(), err
	}
	if row < 0 || row >= len(t.rows) {
		return Null(), fmt.Errorf("row %d out of range [0,%d)", row, len(t.rows))
	}
	return t.rows[row][i], nil
}

// Row returns a copy of the cells of one row
func (t *Table) Row(row int) []Value {
	out := make([]Value, len(t.columns))
	copy(out, t.rows[row])
	return out
}

// Column returns a copy of all cells of the named column
func (t *Table) Column(name string) ([]Value, error) {
	i, err := t.colIndex(name)
	if err != nil {
		return nil, err
	}
	out := make([]Value, len(t.rows))
	for r, row := range t.rows {
		out[r] = row[i]
	}
	return out, nil
}

// Floats returns the named numeric column as float64s together with a
// validity mask; null cells are reported as invalid.
func (t *Table) Floats(name string) ([]float64, []bool, error) {
	i, err := t.colIndex(name)
	if err != nil {
		return nil, nil, err
	}
	if t.columns[i].Kind == KindText {
		return nil, nil, fmt.Errorf("column %q is not numeric", name)
	}
	vals := make([]float64, len(t.rows))
	valid := make([]bool, len(t.rows))
	for r, row := range t.rows {
		vals[r], valid[r] = row[i].Float()
	}
	return vals, valid, nil
}

// Select returns a table with only the named columns, in the given order
func (t *Table) Select(names ...string) (*Table, error) {
	idx := make([]int, len(names))
	for k, name := range names {
		i, err := t.colIndex(name)
		if err != nil {
			return nil, err
		}
		idx[k] = i
	}
	rows := make([][]Value, len(t.rows))
	for r, row := range t.rows {
		out := make([]Value, len(idx))
		for k, i := range idx {
			out[k] = row[i]
		}
		rows[r] = out
	}
	return New(names, rows)
}

// Records renders the table as a header plus string records
func (t *Table) Records() ([]string, [][]string) {
	records := make([][]string, len(t.rows))
	for r, row := range t.rows {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = v.String()
		}
		records[r] = rec
	}
	return t.ColumnNames(), records
}

// Maps renders each row as a column-name keyed map
func (t *Table) Maps() []map[string]Value {
	out := make([]map[string]Value, len(t.rows))
	for r, row := range t.rows {
		m := make(map[string]Value, len(row))
		for i, v := range row {
			m[t.columns[i].Name] = v
		}
		out[r] = m
	}
	return out
}

// MarshalJSON encodes the table as its columns plus one object per row
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Columns []Column           `json:"columns"`
		Rows    []map[string]Value `json:"rows"`
		Count   int                `json:"count"`
	}{t.columns, t.Maps(), len(t.rows)})
}

// filterRows returns a table over the rows for which keep returns true
func (t *Table) filterRows(keep func(row []Value) bool) *Table {
	rows := make([][]Value, 0, len(t.rows))
	for _, row := range t.rows {
		if keep(row) {
			rows = append(rows, row)
		}
	}
	out, _ := New(t.ColumnNames(), rows)
	// keep the source column kinds so an empty subset still aggregates
	copy(out.columns, t.columns)
	return out
}

// mapColumns returns a copy of the table with fn applied to every cell of the
// selected columns. fn receives the column name and row number for error reporting.
func (t *Table) mapColumns(cols []int, fn func(col string, row int, v Value) (Value, error)) (*Table, error) {
	rows := make([][]Value, len(t.rows))
	for r, row := range t.rows {
		out := make([]Value, len(row))
		copy(out, row)
		for _, i := range cols {
			v, err := fn(t.columns[i].Name, r, row[i])
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		rows[r] = out
	}
	return New(t.ColumnNames(), rows)
}

func (t *Table) colIndex(name string) (int, error) {
	i, ok := t.index[name]
	if !ok {
		return 0, &MissingColumnError{Column: name}
	}
	return i, nil
}

// MissingColumnError is returned when an operation names a column the table does not have
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("column %q not found", e.Column)
}
