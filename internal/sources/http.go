package sources

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"strakdash/internal/dataset"
	apperrors "strakdash/internal/errors"
)

// defaultMaxBodySize caps a remote dataset download
const defaultMaxBodySize = 64 << 20

// HTTPSource fetches a CSV or XLSX file over http(s)
type HTTPSource struct {
	url  string
	opts Options
}

func newHTTPSource(uri string, opts Options) *HTTPSource {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = defaultMaxBodySize
	}
	return &HTTPSource{url: uri, opts: opts}
}

// URI returns the fetched URL
func (s *HTTPSource) URI() string { return s.url }

// Load performs one GET. Any transport error or non-2xx status fails the load.
func (s *HTTPSource) Load(ctx context.Context) (*dataset.Table, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, apperrors.NewNetworkError("build request", err).WithContext("url", s.url)
	}
	if s.opts.UserAgent != "" {
		req.Header.Set("User-Agent", s.opts.UserAgent)
	}

	resp, err := s.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, apperrors.NewNetworkError("fetch failed", err).WithContext("url", s.url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewNetworkError(
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil,
		).WithContext("url", s.url).WithContext("status", resp.StatusCode)
	}

	// Read one byte past the cap so an oversized body fails instead of
	// decoding as a truncated table
	data, err := io.ReadAll(io.LimitReader(resp.Body, s.opts.MaxBodySize+1))
	if err != nil {
		return nil, apperrors.NewNetworkError("read response", err).WithContext("url", s.url)
	}
	if int64(len(data)) > s.opts.MaxBodySize {
		return nil, apperrors.NewNetworkError(
			fmt.Sprintf("response exceeds %d bytes", s.opts.MaxBodySize), nil,
		).WithContext("url", s.url).WithContext("limit", s.opts.MaxBodySize)
	}
	body := bytes.NewReader(data)

	var t *dataset.Table
	path, sheet := s.url, ""
	if u, perr := url.Parse(s.url); perr == nil {
		path, sheet = u.Path, u.Fragment
	}
	if formatOf(path) == formatXLSX {
		t, err = ReadXLSX(body, sheet)
	} else {
		t, err = ReadCSV(body)
	}
	if err != nil {
		return nil, apperrors.NewParsingError("decode response", err).WithContext("url", s.url)
	}
	return t, nil
}
