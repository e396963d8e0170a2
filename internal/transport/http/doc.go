// Package http implements the HTTP handlers of the labor dashboard. Handlers
// stay thin: they parse query parameters into domain filters, call the
// dashboard service and render JSON, CSV or PNG responses.
//
// # Routes
//
//	GET  /api/dashboard/dimensions         available regions, metrics and years
//	GET  /api/dashboard/observations       filtered observations as JSON
//	GET  /api/dashboard/observations.csv   the same rows as a CSV download
//	GET  /api/dashboard/charts/{kind}      Vega-Lite spec; append .png for an image
//	GET  /api/dashboard/summary            per-group summaries and regional averages
//	GET  /api/dashboard/forecast           history, forecast and chart for one series
//	GET  /api/dashboard/forecast.png       the forecast chart as an image
//	POST /api/dashboard/reload             re-read the data directory
//	GET  /ws                               dataset:reloaded notifications
//
// # Error Handling
//
// Every failure is written through errors.ErrorHandler as RFC 7807 Problem
// Details. Invalid filters answer 400, malformed data and short histories
// 422, a concurrent reload 409.
//
// # Testing
//
// Handlers are tested with httptest against a testify mock of
// DashboardServiceInterface.
package http
