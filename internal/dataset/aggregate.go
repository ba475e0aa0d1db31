package dataset

import (
	"math"
	"slices"
)

// Mean is the arithmetic mean of the non-null cells of col; NaN when there are none
func Mean(t *Table, col string) (float64, error) {
	vals, valid, err := t.Floats(col)
	if err != nil {
		return 0, err
	}
	var sum float64
	var n int
	for k, f := range vals {
		if valid[k] {
			sum += f
			n++
		}
	}
	if n == 0 {
		return math.NaN(), nil
	}
	return sum / float64(n), nil
}

// Sum adds the non-null cells of col; 0 when there are none
func Sum(t *Table, col string) (float64, error) {
	vals, valid, err := t.Floats(col)
	if err != nil {
		return 0, err
	}
	var sum float64
	for k, f := range vals {
		if valid[k] {
			sum += f
		}
	}
	return sum, nil
}

// Sums returns Sum for each named column, keyed by name
func Sums(t *Table, cols ...string) (map[string]float64, error) {
	out := make(map[string]float64, len(cols))
	for _, c := range cols {
		s, err := Sum(t, c)
		if err != nil {
			return nil, err
		}
		out[c] = s
	}
	return out, nil
}

// GrandTotal sums every non-text column except the excluded ones
func GrandTotal(t *Table, exclude ...string) (float64, error) {
	for _, name := range exclude {
		if _, err := t.colIndex(name); err != nil {
			return 0, err
		}
	}
	var total float64
	for _, c := range t.columns {
		if c.Kind == KindText || slices.Contains(exclude, c.Name) {
			continue
		}
		s, err := Sum(t, c.Name)
		if err != nil {
			return 0, err
		}
		total += s
	}
	return total, nil
}
