// Package services sits between the HTTP and WebSocket transports and the
// dashboard core. Services take a context, validate their input and return
// errors that the transports can hand straight to the error handler.
//
// # Available Services
//
//	- DashboardService: page payloads, event dispatch, dataset listing and export
//	- HealthService: health, readiness, liveness and version reports
//
// # Error Handling
//
// Dashboard errors are translated into API errors:
//
//	- Range and tab problems become VALIDATION_FAILED (400)
//	- Unknown event types become UNKNOWN_EVENT (400)
//	- Unknown datasets become DATASET_NOT_FOUND (404)
//
// # Testing
//
// The services run against a Store built from in-memory fixtures:
//
//	store, _ := dashboard.NewStore(tables)
//	svc := NewDashboardService(store, sources.DefaultCatalog(), nil, logger)
//	page, err := svc.Page1(ctx, nil, nil)
package services
