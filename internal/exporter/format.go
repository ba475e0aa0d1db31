package exporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"strakdash/internal/dataset"
	apperrors "strakdash/internal/errors"
)

// Format is an export file format
type Format string

const (
	FormatCSV     Format = "csv"
	FormatXLSX    Format = "xlsx"
	FormatParquet Format = "parquet"
)

// Formats lists every supported format in display order
var Formats = []Format{FormatCSV, FormatXLSX, FormatParquet}

// ParseFormat accepts a format name or file extension, case-insensitively
func ParseFormat(s string) (Format, error) {
	f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "."))
	switch f {
	case FormatCSV, FormatXLSX, FormatParquet:
		return f, nil
	case "":
		return FormatCSV, nil
	}
	return "", apperrors.UnsupportedFormatError(s)
}

// ContentType returns the MIME type served for the format
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Extension returns the file extension including the dot
func (f Format) Extension() string {
	return "." + string(f)
}

// Filename returns the download name for a dataset
func (f Format) Filename(name string) string {
	return name + f.Extension()
}

// Write encodes t in format f. name becomes the sheet or schema name.
func Write(w io.Writer, name string, t *dataset.Table, f Format) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, t, CSVOptions{})
	case FormatXLSX:
		return WriteXLSX(w, name, t)
	case FormatParquet:
		return WriteParquet(w, name, t)
	}
	return apperrors.UnsupportedFormatError(string(f))
}

// WriteFile writes t to path, creating parent directories as needed
func WriteFile(path, name string, t *dataset.Table, f Format) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.NewStorageError("failed to create export directory", err)
		}
	}

	out, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError("failed to create export file", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = apperrors.NewStorageError("failed to close export file", cerr)
		}
	}()

	if err := Write(out, name, t, f); err != nil {
		return fmt.Errorf("export %s as %s: %w", name, f, err)
	}
	return nil
}
