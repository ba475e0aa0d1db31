// Package http implements the dashboard's HTTP handlers. Handlers parse and
// validate requests, call the service layer and render the result; they hold
// no dashboard logic of their own.
//
// # Handler Structure
//
// Each handler follows this pattern:
//
//	func (h *Handler) GetSomething(w http.ResponseWriter, r *http.Request) {
//	    minYear, ok := h.query.OptionalInt(w, r, "min_year")
//	    if !ok {
//	        return
//	    }
//	    result, err := h.service.Something(r.Context(), minYear)
//	    if err != nil {
//	        h.errorHandler.HandleError(w, r, err)
//	        return
//	    }
//	    render.JSON(w, r, map[string]interface{}{"status": "success", "data": result})
//	}
//
// # Error Handling
//
// Failures are rendered as RFC 7807 problems by the shared ErrorHandler:
//
//	{
//	    "type": "/errors/validation",
//	    "title": "Bad Request",
//	    "status": 400,
//	    "detail": "Request validation failed",
//	    "instance": "/api/dashboard/page1"
//	}
//
// # Routes
//
//	GET  /api/dashboard/pages
//	GET  /api/dashboard/page1?min_year=&max_year=
//	GET  /api/dashboard/page2
//	POST /api/dashboard/events
//	GET  /api/datasets
//	GET  /api/datasets/{name}
//	GET  /api/datasets/{name}/export/{format}
//	GET  /api/health, /api/health/ready, /api/health/live, /api/version
//	GET  /metrics
//	GET  /
package http
