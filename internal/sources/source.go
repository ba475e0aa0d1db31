// Package sources turns dataset locations into tables.
//
// A location is a URI. The scheme picks the Source implementation:
//
//	http://, https://          remote CSV (or XLSX when the path ends in .xlsx)
//	file:// or a bare path     local CSV or XLSX; "#Sheet" selects a worksheet
//	sheets://<id>/<A1 range>   Google Sheets values API
//
// Every load is a single attempt. A failed fetch or a malformed file is
// returned to the caller as is; nothing is retried and no partial table is
// produced.
package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"strakdash/internal/dataset"
)

// Source produces a raw table from one location
type Source interface {
	Load(ctx context.Context) (*dataset.Table, error)
	URI() string
}

// Options carries the settings shared by all sources
type Options struct {
	// HTTPClient is used for http(s) sources; nil means a fresh client
	HTTPClient *http.Client
	// Timeout bounds a single fetch; zero means no timeout beyond ctx
	Timeout time.Duration
	// UserAgent is sent with http(s) requests when set
	UserAgent string
	// SheetsAPIKey authenticates sheets:// sources
	SheetsAPIKey string
	// SheetsEndpoint overrides the Sheets API base URL
	SheetsEndpoint string
	// MaxBodySize caps an http(s) download; zero means 64 MiB
	MaxBodySize int64
}

const sheetsScheme = "sheets://"

// Resolve picks the Source for uri
func Resolve(uri string, opts Options) (Source, error) {
	switch {
	case uri == "":
		return nil, fmt.Errorf("empty source uri")
	case strings.HasPrefix(uri, sheetsScheme):
		return newSheetsSource(uri, opts)
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		if _, err := url.Parse(uri); err != nil {
			return nil, fmt.Errorf("invalid source url %q: %w", uri, err)
		}
		return newHTTPSource(uri, opts), nil
	case strings.HasPrefix(uri, "file://"):
		return newFileSource(strings.TrimPrefix(uri, "file://")), nil
	case strings.Contains(uri, "://"):
		return nil, fmt.Errorf("unsupported source scheme in %q", uri)
	default:
		return newFileSource(uri), nil
	}
}

type format int

const (
	formatCSV format = iota
	formatXLSX
)

// formatOf decides the decoder from the path extension
func formatOf(path string) format {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return formatXLSX
	}
	return formatCSV
}

// splitFragment separates "path#Sheet" into its parts
func splitFragment(loc string) (string, string) {
	if i := strings.LastIndex(loc, "#"); i >= 0 {
		return loc[:i], loc[i+1:]
	}
	return loc, ""
}
