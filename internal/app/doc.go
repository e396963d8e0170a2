// Package app wires the labor dashboard together and manages its lifecycle.
//
// NewApplication builds every component from a loaded configuration: the
// file loader, the analytical store, the chart renderer, the forecaster, the
// WebSocket hub and the HTTP router. Start launches the hub, performs the
// initial load of the data directory and begins serving. Run blocks until
// SIGINT or SIGTERM and then shuts down gracefully:
//
//	- in-flight requests are completed
//	- WebSocket clients are disconnected
//	- OpenTelemetry providers are flushed
//
// Initialization errors are returned to the caller; the package never calls
// os.Exit.
package app
