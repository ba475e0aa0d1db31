package http

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	apperrors "strakdash/internal/errors"
)

//go:embed web/index.html
var webFS embed.FS

var indexTemplate = template.Must(template.ParseFS(webFS, "web/index.html"))

// PageData fills the index template
type PageData struct {
	Title   string
	Version string
	WSPath  string
}

// IndexHandler serves the single-page dashboard shell. The page fetches its
// figures from the API and renders them with Plotly.
type IndexHandler struct {
	data         PageData
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewIndexHandler creates the index page handler
func NewIndexHandler(data PageData, logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *IndexHandler {
	if data.WSPath == "" {
		data.WSPath = "/ws"
	}
	return &IndexHandler{
		data:         data,
		logger:       logger.With(slog.String("handler", "index")),
		errorHandler: errorHandler,
	}
}

// ServeHTTP renders the index page
func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, h.data); err != nil {
		h.logger.ErrorContext(r.Context(), "index template failed", slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(buf.Bytes())
}
