// Package app wires the dashboard together and manages its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration (defaults, optional YAML file, STRAK_* environment)
//	2. Initialize logging and OpenTelemetry
//	3. Resolve the dataset catalog and load every dataset concurrently
//	4. Build the dashboard store, services and WebSocket hub
//	5. Set up the chi router, middleware and HTTP server
//
// A dataset that fails to load aborts startup; the server never runs with a
// partial store.
//
// # Routing
//
// /ws is registered ahead of the middleware group so the upgrade sees an
// unwrapped ResponseWriter. Everything else runs through tracing, request
// logging, panic recovery, security headers, CORS and rate limiting; /api
// additionally carries the request timeout.
//
// # Shutdown
//
// Run blocks until its context is cancelled or SIGINT/SIGTERM arrives, then
// shuts the server down within Server.ShutdownTimeout, stops the hub and
// flushes telemetry.
package app
