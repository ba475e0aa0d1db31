package exporter

import (
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"strakdash/internal/dataset"
)

// parquetSchema maps every column to an optional leaf: numbers to DOUBLE,
// text and all-null columns to STRING
func parquetSchema(name string, t *dataset.Table) *parquet.Schema {
	group := make(parquet.Group, len(t.Columns()))
	for _, c := range t.Columns() {
		if c.Kind == dataset.KindNumber {
			group[c.Name] = parquet.Optional(parquet.Leaf(parquet.DoubleType))
		} else {
			group[c.Name] = parquet.Optional(parquet.String())
		}
	}
	return parquet.NewSchema(name, group)
}

// WriteParquet writes t as a Snappy-compressed Parquet file
func WriteParquet(w io.Writer, name string, t *dataset.Table) error {
	schema := parquetSchema(name, t)

	cols := t.Columns()
	leaf := make([]int, len(cols))
	for i, c := range cols {
		lc, ok := schema.Lookup(c.Name)
		if !ok {
			return fmt.Errorf("parquet schema lost column %q", c.Name)
		}
		leaf[i] = lc.ColumnIndex
	}

	writer := parquet.NewWriter(w, schema, parquet.Compression(&parquet.Snappy))

	rows := make([]parquet.Row, 0, t.Len())
	for r := 0; r < t.Len(); r++ {
		row := make(parquet.Row, len(cols))
		for i, v := range t.Row(r) {
			row[leaf[i]] = parquetValue(v, cols[i].Kind).Level(0, definitionLevel(v), leaf[i])
		}
		rows = append(rows, row)
	}

	if _, err := writer.WriteRows(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

func parquetValue(v dataset.Value, kind dataset.Kind) parquet.Value {
	if v.IsNull() {
		return parquet.NullValue()
	}
	if kind == dataset.KindNumber {
		f, _ := v.Float()
		return parquet.DoubleValue(f)
	}
	return parquet.ByteArrayValue([]byte(v.String()))
}

func definitionLevel(v dataset.Value) int {
	if v.IsNull() {
		return 0
	}
	return 1
}
