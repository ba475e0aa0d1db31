package dataset

import (
	"fmt"
	"sort"
)

// FilterRange keeps the rows whose numeric value in col lies in [lo, hi].
// Null and text cells never match. lo > hi yields an empty table.
func FilterRange(t *Table, col string, lo, hi float64) (*Table, error) {
	i, err := t.colIndex(col)
	if err != nil {
		return nil, err
	}
	if t.columns[i].Kind == KindText {
		return nil, fmt.Errorf("range filter on text column %q", col)
	}
	return t.filterRows(func(row []Value) bool {
		f, ok := row[i].Float()
		return ok && f >= lo && f <= hi
	}), nil
}

// FilterEquals keeps the rows whose value in col equals v
func FilterEquals(t *Table, col string, v Value) (*Table, error) {
	i, err := t.colIndex(col)
	if err != nil {
		return nil, err
	}
	return t.filterRows(func(row []Value) bool {
		return row[i].Equal(v)
	}), nil
}

// UniqueNumbers returns the distinct non-null numbers of col in ascending order
func UniqueNumbers(t *Table, col string) ([]float64, error) {
	vals, valid, err := t.Floats(col)
	if err != nil {
		return nil, err
	}
	seen := make(map[float64]bool, len(vals))
	var out []float64
	for k, f := range vals {
		if valid[k] && !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	sort.Float64s(out)
	return out, nil
}

// Bounds returns the minimum and maximum non-null number of col. ok is false
// when the column has no numbers.
func Bounds(t *Table, col string) (lo, hi float64, ok bool, err error) {
	vals, valid, err := t.Floats(col)
	if err != nil {
		return 0, 0, false, err
	}
	for k, f := range vals {
		if !valid[k] {
			continue
		}
		if !ok || f < lo {
			lo = f
		}
		if !ok || f > hi {
			hi = f
		}
		ok = true
	}
	return lo, hi, ok, nil
}
