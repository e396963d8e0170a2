// Package services implements the business logic layer of the dashboard.
// It sits between the HTTP handlers and the analytical store, loader,
// renderer and forecaster, so handlers only decode requests and render
// responses.
//
// # Available Services
//
//	- DashboardService: filter queries, charts, summaries, forecasts and reloads
//	- HealthService: liveness, readiness and version information
//
// # Error Handling
//
// Services return *errors.AppError values (validation, insufficient history,
// malformed input) or predefined *errors.APIError values such as
// ErrReloadInProgress. Handlers pass them to errors.ErrorHandler unchanged.
//
// # Testing
//
// Collaborators that touch the file system or the network are interfaces
// and are mocked with testify:
//
//	loader := new(MockDatasetLoader)
//	loader.On("LoadDir", mock.Anything, dir).Return(ds, report, nil)
package services
