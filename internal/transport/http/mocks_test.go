package http

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	api "labordash/pkg/contracts/api/v1"
	"labordash/pkg/contracts/domain"
)

// MockDashboardService is a mock for DashboardServiceInterface
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) DefaultHorizon() int {
	return m.Called().Int(0)
}

func (m *MockDashboardService) Dimensions(ctx context.Context) domain.Dimensions {
	return m.Called(ctx).Get(0).(domain.Dimensions)
}

func (m *MockDashboardService) Observations(ctx context.Context, f domain.Filter) api.ObservationsResponse {
	return m.Called(ctx, f).Get(0).(api.ObservationsResponse)
}

func (m *MockDashboardService) Chart(ctx context.Context, kind domain.ChartKind, f domain.Filter) (domain.ChartSpec, error) {
	args := m.Called(ctx, kind, f)
	return args.Get(0).(domain.ChartSpec), args.Error(1)
}

func (m *MockDashboardService) RenderPNG(ctx context.Context, spec domain.ChartSpec, w io.Writer) error {
	args := m.Called(ctx, spec, w)
	if err := args.Error(0); err != nil {
		return err
	}
	_, err := w.Write([]byte("\x89PNG\r\n\x1a\n"))
	return err
}

func (m *MockDashboardService) Summary(ctx context.Context, f domain.Filter) api.SummaryResponse {
	return m.Called(ctx, f).Get(0).(api.SummaryResponse)
}

func (m *MockDashboardService) Forecast(ctx context.Context, f domain.Filter, horizon int) (*api.ForecastResponse, error) {
	args := m.Called(ctx, f, horizon)
	if v := args.Get(0); v != nil {
		return v.(*api.ForecastResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDashboardService) Reload(ctx context.Context) (*api.ReloadResponse, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.(*api.ReloadResponse), args.Error(1)
	}
	return nil, args.Error(1)
}
