package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"strakdash/internal/dataset"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions configures CSV writing behavior
type CSVOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
	Comma     rune
}

// WriteCSV writes the header row and every record of t
func WriteCSV(w io.Writer, t *dataset.Table, opts CSVOptions) error {
	if opts.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if opts.Comma != 0 {
		writer.Comma = opts.Comma
	}

	headers, records := t.Records()
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
