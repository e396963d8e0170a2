package http

import (
	"context"
	"io"

	api "labordash/pkg/contracts/api/v1"
	"labordash/pkg/contracts/domain"
)

// DashboardServiceInterface defines the dashboard operations used by the handlers
type DashboardServiceInterface interface {
	DefaultHorizon() int
	Dimensions(ctx context.Context) domain.Dimensions
	Observations(ctx context.Context, f domain.Filter) api.ObservationsResponse
	Chart(ctx context.Context, kind domain.ChartKind, f domain.Filter) (domain.ChartSpec, error)
	RenderPNG(ctx context.Context, spec domain.ChartSpec, w io.Writer) error
	Summary(ctx context.Context, f domain.Filter) api.SummaryResponse
	Forecast(ctx context.Context, f domain.Filter, horizon int) (*api.ForecastResponse, error)
	Reload(ctx context.Context) (*api.ReloadResponse, error)
}
