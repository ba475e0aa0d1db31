package http

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "strakdash/internal/errors"
	"strakdash/internal/exporter"
	"strakdash/internal/middleware"
	"strakdash/internal/services"
)

type datasetCtxKey struct{}

// datasetParams are the path and query parameters shared by the dataset routes
type datasetParams struct {
	Name       string `json:"name" validate:"required,dataset"`
	YearColumn string `json:"year_column" validate:"omitempty,max=64"`
	MinYear    *int   `json:"min_year" validate:"omitempty,gte=0"`
	MaxYear    *int   `json:"max_year" validate:"omitempty,gte=0"`
}

func (p datasetParams) query() services.DatasetQuery {
	return services.DatasetQuery{
		Name:       p.Name,
		MinYear:    p.MinYear,
		MaxYear:    p.MaxYear,
		YearColumn: p.YearColumn,
	}
}

// DatasetHandler lists, serves and exports the loaded tables
type DatasetHandler struct {
	service      DashboardServiceInterface
	validation   *middleware.ValidationMiddleware
	query        *middleware.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *DatasetHandler {
	return &DatasetHandler{
		service:      service,
		validation:   middleware.NewValidationMiddleware(logger, errorHandler),
		query:        middleware.NewQueryParamValidator(errorHandler),
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dataset routes
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListDatasets)
	r.Route("/{name}", func(r chi.Router) {
		r.Use(h.DatasetCtx)
		r.Get("/", h.GetDataset)
		r.Get("/export/{format}", h.ExportDataset)
	})

	return r
}

// DatasetCtx validates the dataset name and the year filter and stores them
// in the request context
func (h *DatasetHandler) DatasetCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		minYear, ok := h.query.OptionalInt(w, r, "min_year")
		if !ok {
			return
		}
		maxYear, ok := h.query.OptionalInt(w, r, "max_year")
		if !ok {
			return
		}

		params := datasetParams{
			Name:       chi.URLParam(r, "name"),
			YearColumn: r.URL.Query().Get("year_column"),
			MinYear:    minYear,
			MaxYear:    maxYear,
		}
		if err := h.validation.ValidateStruct(params); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), datasetCtxKey{}, params)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func paramsFrom(ctx context.Context) datasetParams {
	p, _ := ctx.Value(datasetCtxKey{}).(datasetParams)
	return p
}

// ListDatasets handles GET /api/datasets
func (h *DatasetHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	sums, err := h.service.Datasets(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   sums,
		"count":  len(sums),
	})
}

// GetDataset handles GET /api/datasets/{name}
func (h *DatasetHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	p := paramsFrom(r.Context())

	t, err := h.service.Dataset(r.Context(), p.query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   t,
		"count":  t.Len(),
	})
}

// ExportDataset handles GET /api/datasets/{name}/export/{format}
func (h *DatasetHandler) ExportDataset(w http.ResponseWriter, r *http.Request) {
	p := paramsFrom(r.Context())

	format, err := exporter.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	t, err := h.service.Dataset(r.Context(), p.query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := exporter.Write(&buf, p.Name, t, format); err != nil {
		h.logger.ErrorContext(r.Context(), "export failed",
			slog.String("dataset", p.Name),
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "dataset exported",
		slog.String("dataset", p.Name),
		slog.String("format", string(format)),
		slog.Int("rows", t.Len()),
		slog.Int("bytes", buf.Len()))

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename(p.Name)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
