package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"labordash/internal/config"
	"labordash/internal/dashboard"
	apperrors "labordash/internal/errors"
	"labordash/internal/forecast"
	"labordash/internal/ingest"
	"labordash/internal/store"
	api "labordash/pkg/contracts/api/v1"
	"labordash/pkg/contracts/domain"
	"labordash/pkg/contracts/events"
)

// DatasetLoader imports the data directory
type DatasetLoader interface {
	LoadDir(ctx context.Context, dir string) (*domain.Dataset, *ingest.Report, error)
}

// Publisher pushes notifications to connected dashboards
type Publisher interface {
	Publish(ctx context.Context, messageType events.MessageType, data interface{}) error
}

// DashboardService answers dashboard interactions from the analytical store
// and re-imports the data directory on demand.
type DashboardService struct {
	store      *store.Store
	loader     DatasetLoader
	renderer   *dashboard.Renderer
	forecaster *forecast.Forecaster
	publisher  Publisher

	dataDir        string
	minRegions     int
	defaultHorizon int
	reloadTimeout  time.Duration

	reloadMu sync.Mutex
	logger   *slog.Logger
}

// NewDashboardService wires the dashboard service. publisher may be nil.
func NewDashboardService(
	st *store.Store,
	loader DatasetLoader,
	renderer *dashboard.Renderer,
	forecaster *forecast.Forecaster,
	publisher Publisher,
	cfg *config.Config,
	logger *slog.Logger,
) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}

	minRegions := cfg.Dashboard.MinRegionsPerGroup
	if minRegions < 1 {
		minRegions = config.DefaultMinRegionsPerGroup
	}
	horizon := cfg.Forecast.DefaultHorizon
	if horizon < 1 {
		horizon = config.DefaultForecastPeriod
	}
	reloadTimeout := cfg.Server.ReloadTimeout
	if reloadTimeout <= 0 {
		reloadTimeout = config.DefaultReloadTimeout
	}

	return &DashboardService{
		store:          st,
		loader:         loader,
		renderer:       renderer,
		forecaster:     forecaster,
		publisher:      publisher,
		dataDir:        cfg.GetDataDir(),
		minRegions:     minRegions,
		defaultHorizon: horizon,
		reloadTimeout:  reloadTimeout,
		logger:         logger.With(slog.String("component", "dashboard_service")),
	}
}

// DefaultHorizon is the forecast horizon used when a request names none
func (s *DashboardService) DefaultHorizon() int {
	return s.defaultHorizon
}

// Dimensions describes the loaded dataset for the filter controls
func (s *DashboardService) Dimensions(ctx context.Context) domain.Dimensions {
	return s.store.Dimensions()
}

// Observations returns the rows matching f. No match is an empty result.
func (s *DashboardService) Observations(ctx context.Context, f domain.Filter) api.ObservationsResponse {
	rows := s.store.Query(f)
	s.logger.DebugContext(ctx, "Observations queried", slog.Int("count", len(rows)))
	return api.ObservationsResponse{
		Data:   rows,
		Count:  len(rows),
		Filter: f,
	}
}

// Chart builds the named chart for the rows matching f
func (s *DashboardService) Chart(ctx context.Context, kind domain.ChartKind, f domain.Filter) (domain.ChartSpec, error) {
	if kind == domain.ChartRegional {
		return s.renderer.BuildRegional(f, s.store.RegionalAverages(f, s.minRegions)), nil
	}
	return s.renderer.Build(kind, f, s.store.Query(f))
}

// RenderPNG draws a chart built by Chart or Forecast as an image
func (s *DashboardService) RenderPNG(ctx context.Context, spec domain.ChartSpec, w io.Writer) error {
	return s.renderer.RenderPNG(spec, w)
}

// Summary returns per region group statistics and the regional averages
func (s *DashboardService) Summary(ctx context.Context, f domain.Filter) api.SummaryResponse {
	return api.SummaryResponse{
		Summaries: s.store.Summaries(f),
		Regional:  s.store.RegionalAverages(f, s.minRegions),
	}
}

// Forecast projects the series selected by f. The selection must resolve to
// a single metric because values of different indicators cannot be averaged.
func (s *DashboardService) Forecast(ctx context.Context, f domain.Filter, horizon int) (*api.ForecastResponse, error) {
	if metrics := distinctMetrics(s.store.Query(f)); len(metrics) > 1 {
		return nil, apperrors.NewAppValidationError(
			fmt.Sprintf("forecast needs a single metric, the filter selects %d; add a metric filter", len(metrics))).
			WithContext("metrics", metrics)
	}

	history := s.store.Series(f)
	result, err := s.forecaster.Forecast(ctx, history, horizon)
	if err != nil {
		return nil, err
	}

	chart, err := s.renderer.BuildForecast(f, history, result)
	if err != nil {
		return nil, err
	}

	return &api.ForecastResponse{
		History:  history,
		Forecast: *result,
		Chart:    chart,
	}, nil
}

// Reload re-imports the data directory and replaces the store contents.
// Only one reload runs at a time; a concurrent call fails with a conflict.
// Connected dashboards are notified once the new dataset is live.
func (s *DashboardService) Reload(ctx context.Context) (*api.ReloadResponse, error) {
	if !s.reloadMu.TryLock() {
		return nil, apperrors.ErrReloadInProgress
	}
	defer s.reloadMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.reloadTimeout)
	defer cancel()

	s.logger.InfoContext(ctx, "Reloading data directory", slog.String("dir", s.dataDir))

	ds, report, err := s.loader.LoadDir(ctx, s.dataDir)
	if err != nil {
		return nil, err
	}
	if err := s.store.Load(ctx, ds, store.ModeReplace); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		notice := events.DatasetReloaded{
			Observations: ds.Len(),
			Files:        len(report.Files),
			FailedFiles:  len(report.Failed()),
			Warnings:     report.Messages(),
			LoadedAt:     report.LoadedAt.UTC(),
		}
		if err := s.publisher.Publish(ctx, events.MessageTypeDatasetReloaded, notice); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish reload notification", slog.String("error", err.Error()))
		}
	}

	return ReloadResponseFrom(report), nil
}

// ReloadResponseFrom converts a load report to its API form
func ReloadResponseFrom(report *ingest.Report) *api.ReloadResponse {
	files := make([]api.FileReport, 0, len(report.Files))
	for _, f := range report.Files {
		fr := api.FileReport{
			Path:           f.Path,
			Source:         string(f.Source),
			Rows:           f.Rows,
			Skipped:        f.Skipped,
			DroppedColumns: f.DroppedColumns,
			Warnings:       f.Warnings,
		}
		if f.Err != nil {
			fr.Error = f.Err.Error()
		}
		files = append(files, fr)
	}

	return &api.ReloadResponse{
		Observations: report.Observations,
		Files:        files,
		LoadedAt:     report.LoadedAt.UTC(),
		Duration:     report.Duration.String(),
	}
}

func distinctMetrics(rows []domain.Observation) []string {
	seen := make(map[string]bool)
	var out []string
	for _, o := range rows {
		if !seen[o.Metric] {
			seen[o.Metric] = true
			out = append(out, o.Metric)
		}
	}
	return out
}
