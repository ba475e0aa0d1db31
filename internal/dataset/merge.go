package dataset

// LeftJoin augments every row of left with the selected columns of the first
// right row whose rightKey equals the left row's leftKey. Left rows without a
// match get nulls. The output keeps left's row order and row count, lists all
// left columns followed by rightCols, and suffixes any right column whose name
// is already taken with "_right". When rightCols is empty every right column
// is taken.
func LeftJoin(left, right *Table, leftKey, rightKey string, rightCols ...string) (*Table, error) {
	lk, err := left.colIndex(leftKey)
	if err != nil {
		return nil, err
	}
	rk, err := right.colIndex(rightKey)
	if err != nil {
		return nil, err
	}
	if len(rightCols) == 0 {
		rightCols = right.ColumnNames()
	}
	rcols, err := right.indices(rightCols)
	if err != nil {
		return nil, err
	}

	// first occurrence of each key wins
	lookup := make(map[string]int, right.Len())
	for r, row := range right.rows {
		if key, ok := row[rk].key(); ok {
			if _, seen := lookup[key]; !seen {
				lookup[key] = r
			}
		}
	}

	names := left.ColumnNames()
	taken := make(map[string]bool, len(names)+len(rightCols))
	for _, n := range names {
		taken[n] = true
	}
	for _, n := range rightCols {
		name := n
		for taken[name] {
			name += "_right"
		}
		taken[name] = true
		names = append(names, name)
	}

	width := len(left.columns) + len(rcols)
	rows := make([][]Value, len(left.rows))
	for r, lrow := range left.rows {
		row := make([]Value, width)
		copy(row, lrow)
		if key, ok := lrow[lk].key(); ok {
			if m, found := lookup[key]; found {
				for k, i := range rcols {
					row[len(lrow)+k] = right.rows[m][i]
				}
			}
		}
		rows[r] = row
	}

	out, err := New(names, rows)
	if err != nil {
		return nil, err
	}
	copy(out.columns, left.columns)
	return out, nil
}
