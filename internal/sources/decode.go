package sources

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"strakdash/internal/dataset"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV parses a CSV stream whose first record is the header
func ReadCSV(r io.Reader) (*dataset.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("parse csv: no header row")
	}
	return dataset.FromRecords(trimHeader(records[0]), records[1:])
}

// ReadXLSX parses one worksheet of a workbook. An empty sheet name selects
// the first sheet. Leading blank rows are skipped and the first non-blank
// row is the header.
func ReadXLSX(r io.Reader, sheet string) (*dataset.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return readWorkbook(f, sheet)
}

func readWorkbook(f *excelize.File, sheet string) (*dataset.Table, error) {
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	header := -1
	for i, row := range rows {
		if !blankRow(row) {
			header = i
			break
		}
	}
	if header < 0 {
		return nil, fmt.Errorf("sheet %q has no header row", sheet)
	}

	names := trimHeader(trimTrailingBlank(rows[header]))
	var records [][]string
	for _, row := range rows[header+1:] {
		if blankRow(row) {
			continue
		}
		records = append(records, trimTrailingBlank(row))
	}
	return dataset.FromRecords(names, records)
}

// fromGrid builds a table from a header-first grid of loosely typed cells
func fromGrid(grid [][]interface{}) (*dataset.Table, error) {
	if len(grid) == 0 {
		return nil, fmt.Errorf("no header row")
	}
	toStrings := func(row []interface{}) []string {
		out := make([]string, len(row))
		for i, cell := range row {
			if cell != nil {
				out[i] = fmt.Sprint(cell)
			}
		}
		return out
	}

	header := trimHeader(toStrings(grid[0]))
	records := make([][]string, 0, len(grid)-1)
	for _, row := range grid[1:] {
		rec := toStrings(row)
		if blankRow(rec) {
			continue
		}
		records = append(records, trimTrailingBlank(rec))
	}
	return dataset.FromRecords(header, records)
}

func trimHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.TrimSpace(h)
	}
	return out
}

func trimTrailingBlank(row []string) []string {
	end := len(row)
	for end > 0 && strings.TrimSpace(row[end-1]) == "" {
		end--
	}
	return row[:end]
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
