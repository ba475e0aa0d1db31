package sources

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"strakdash/internal/dataset"
	apperrors "strakdash/internal/errors"
)

// SheetsSource reads a value range from a Google spreadsheet. The first row
// of the range is the header.
type SheetsSource struct {
	spreadsheetID string
	readRange     string
	opts          Options
}

func newSheetsSource(uri string, opts Options) (*SheetsSource, error) {
	rest := strings.TrimPrefix(uri, sheetsScheme)
	id, readRange, ok := strings.Cut(rest, "/")
	if !ok || id == "" || readRange == "" {
		return nil, fmt.Errorf("sheets uri %q must look like sheets://<spreadsheet id>/<range>", uri)
	}
	return &SheetsSource{spreadsheetID: id, readRange: readRange, opts: opts}, nil
}

// URI returns the sheets:// location
func (s *SheetsSource) URI() string {
	return sheetsScheme + s.spreadsheetID + "/" + s.readRange
}

// Load calls spreadsheets.values.get once
func (s *SheetsSource) Load(ctx context.Context) (*dataset.Table, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	var clientOpts []option.ClientOption
	if s.opts.SheetsAPIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(s.opts.SheetsAPIKey))
	}
	if s.opts.SheetsEndpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(s.opts.SheetsEndpoint))
	}
	if s.opts.HTTPClient != nil && s.opts.SheetsAPIKey == "" {
		clientOpts = append(clientOpts, option.WithHTTPClient(s.opts.HTTPClient))
	}

	srv, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, apperrors.NewConfigError("create sheets client", err)
	}

	resp, err := srv.Spreadsheets.Values.Get(s.spreadsheetID, s.readRange).Context(ctx).Do()
	if err != nil {
		return nil, apperrors.NewNetworkError("read sheet values", err).WithContext("uri", s.URI())
	}

	t, err := fromGrid(resp.Values)
	if err != nil {
		return nil, apperrors.NewParsingError("decode sheet values", err).WithContext("uri", s.URI())
	}
	return t, nil
}
