package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"strakdash/internal/dashboard"
	apperrors "strakdash/internal/errors"
	"strakdash/internal/middleware"
)

// DashboardHandler serves the two dashboard pages and the event endpoint
type DashboardHandler struct {
	service      DashboardServiceInterface
	validation   *middleware.ValidationMiddleware
	query        *middleware.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		validation:   middleware.NewValidationMiddleware(logger, errorHandler),
		query:        middleware.NewQueryParamValidator(errorHandler),
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/pages", h.GetPages)
	r.Get("/page1", h.GetPage1)
	r.Get("/page2", h.GetPage2)

	r.With(
		middleware.ContentTypeValidator(h.errorHandler, "application/json"),
		h.validation.ValidateRequest,
	).Post("/events", h.PostEvent)

	return r
}

// GetPages handles GET /api/dashboard/pages
func (h *DashboardHandler) GetPages(w http.ResponseWriter, r *http.Request) {
	pages := h.service.Pages(r.Context())
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   pages,
		"count":  len(pages),
	})
}

// GetPage1 handles GET /api/dashboard/page1?min_year=&max_year=
func (h *DashboardHandler) GetPage1(w http.ResponseWriter, r *http.Request) {
	minYear, ok := h.query.OptionalInt(w, r, "min_year")
	if !ok {
		return
	}
	maxYear, ok := h.query.OptionalInt(w, r, "max_year")
	if !ok {
		return
	}

	page, err := h.service.Page1(r.Context(), minYear, maxYear)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   page,
	})
}

// GetPage2 handles GET /api/dashboard/page2
func (h *DashboardHandler) GetPage2(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.Page2(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   page,
	})
}

// PostEvent handles POST /api/dashboard/events
func (h *DashboardHandler) PostEvent(w http.ResponseWriter, r *http.Request) {
	var ev dashboard.Event
	if err := render.DecodeJSON(r.Body, &ev); err != nil {
		h.errorHandler.HandleError(w, r, apperrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validation.ValidateStruct(ev); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "dashboard event received",
		slog.String("request_id", chimw.GetReqID(r.Context())),
		slog.String("event", string(ev.Type)),
		slog.String("tab", ev.Tab))

	res, err := h.service.Dispatch(r.Context(), ev)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   res,
	})
}
