package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "strakdash/internal/errors"
)

// MetricsHandler exposes the Prometheus scrape endpoint
type MetricsHandler struct {
	prometheus   http.Handler
	errorHandler *apperrors.ErrorHandler
}

// NewMetricsHandler wraps the Prometheus handler. A nil handler answers 503.
func NewMetricsHandler(prometheus http.Handler, errorHandler *apperrors.ErrorHandler) *MetricsHandler {
	return &MetricsHandler{
		prometheus:   prometheus,
		errorHandler: errorHandler,
	}
}

// Routes sets up the metrics routes
func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetMetrics)
	return r
}

// GetMetrics handles GET /metrics
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		h.errorHandler.HandleError(w, r, apperrors.ErrServiceUnavailable)
		return
	}
	h.prometheus.ServeHTTP(w, r)
}
