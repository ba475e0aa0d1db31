package sources

import (
	"context"
	"os"

	"github.com/xuri/excelize/v2"

	"strakdash/internal/dataset"
	apperrors "strakdash/internal/errors"
)

// FileSource reads a local CSV or XLSX file
type FileSource struct {
	path  string
	sheet string
}

func newFileSource(loc string) *FileSource {
	path, sheet := loc, ""
	if formatOf(loc) != formatXLSX {
		// only workbooks take a sheet fragment
		if p, s := splitFragment(loc); formatOf(p) == formatXLSX {
			path, sheet = p, s
		}
	}
	return &FileSource{path: path, sheet: sheet}
}

// URI returns the file path, with the sheet fragment when one was given
func (s *FileSource) URI() string {
	if s.sheet != "" {
		return s.path + "#" + s.sheet
	}
	return s.path
}

// Load reads the whole file
func (s *FileSource) Load(ctx context.Context) (*dataset.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if formatOf(s.path) == formatXLSX {
		f, err := excelize.OpenFile(s.path)
		if err != nil {
			return nil, apperrors.NewStorageError("open workbook", err).WithContext("path", s.path)
		}
		defer f.Close()
		t, err := readWorkbook(f, s.sheet)
		if err != nil {
			return nil, apperrors.NewParsingError("decode workbook", err).WithContext("path", s.path)
		}
		return t, nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, apperrors.NewStorageError("open file", err).WithContext("path", s.path)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, apperrors.NewParsingError("decode file", err).WithContext("path", s.path)
	}
	return t, nil
}
