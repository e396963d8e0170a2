package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"labordash/internal/config"
	"labordash/internal/dashboard"
	apperrors "labordash/internal/errors"
	"labordash/internal/forecast"
	"labordash/internal/ingest"
	"labordash/internal/shared/testutil"
	"labordash/internal/store"
	"labordash/pkg/contracts/domain"
	"labordash/pkg/contracts/events"
)

const latam = "Latin America & Caribbean"

func observation(region, metric string, year int, value float64) domain.Observation {
	return domain.Observation{
		Region:      region,
		RegionName:  region,
		RegionGroup: latam,
		Demographic: domain.NewDemographic("15-24", "", ""),
		Period:      domain.Year(year),
		Metric:      metric,
		Value:       value,
		Source:      domain.SourceWorldBank,
	}
}

// twelve years of youth unemployment for three countries and one
// year of a second metric for Brazil
func sampleDataset() *domain.Dataset {
	var obs []domain.Observation
	for i := 0; i < 12; i++ {
		year := 2010 + i
		obs = append(obs,
			observation("BRA", "youth_unemployment", year, 20+float64(i)*0.5),
			observation("MEX", "youth_unemployment", year, 8+float64(i)*0.2),
			observation("ARG", "youth_unemployment", year, 18+float64(i%3)),
		)
	}
	obs = append(obs, observation("BRA", "labor_force_participation", 2021, 61.2))
	return domain.NewDataset(obs)
}

type fixture struct {
	svc       *DashboardService
	store     *store.Store
	loader    *MockDatasetLoader
	publisher *MockPublisher
	dataDir   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)

	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()

	st := store.New(logger, nil)
	require.NoError(t, st.Load(context.Background(), sampleDataset(), store.ModeReplace))

	loader := new(MockDatasetLoader)
	publisher := new(MockPublisher)
	svc := NewDashboardService(st, loader,
		dashboard.New(cfg.Dashboard, logger),
		forecast.New(cfg.Forecast, logger, nil),
		publisher, cfg, logger)

	return &fixture{svc: svc, store: st, loader: loader, publisher: publisher, dataDir: cfg.Paths.DataDir}
}

func TestDashboardService_Observations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp := f.svc.Observations(ctx, domain.Filter{Regions: []string{"bra"}, FromYear: 2020})
	assert.Equal(t, 3, resp.Count)
	assert.Len(t, resp.Data, 3)
	assert.Equal(t, []string{"bra"}, resp.Filter.Regions)

	empty := f.svc.Observations(ctx, domain.Filter{Regions: []string{"FRA"}})
	assert.Equal(t, 0, empty.Count)
	assert.NotNil(t, empty.Data)
}

func TestDashboardService_Chart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	filter := domain.Filter{Metrics: []string{"youth_unemployment"}}

	tests := []struct {
		kind domain.ChartKind
	}{
		{kind: domain.ChartTimeSeries},
		{kind: domain.ChartChoropleth},
		{kind: domain.ChartGroupedBar},
		{kind: domain.ChartRegional},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			spec, err := f.svc.Chart(ctx, tt.kind, filter)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, spec.Kind)
			assert.NotEmpty(t, spec.Rows)
			assert.NotEmpty(t, spec.Title)
		})
	}
}

func TestDashboardService_RegionalChartNeedsEnoughRegions(t *testing.T) {
	f := newFixture(t)

	// only Brazil carries the participation metric
	spec, err := f.svc.Chart(context.Background(), domain.ChartRegional,
		domain.Filter{Metrics: []string{"labor_force_participation"}})
	require.NoError(t, err)
	assert.Empty(t, spec.Rows)
}

func TestDashboardService_RenderPNG(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	spec, err := f.svc.Chart(ctx, domain.ChartTimeSeries, domain.Filter{Regions: []string{"MEX"}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.svc.RenderPNG(ctx, spec, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestDashboardService_Summary(t *testing.T) {
	f := newFixture(t)

	resp := f.svc.Summary(context.Background(), domain.Filter{Metrics: []string{"youth_unemployment"}})
	require.Len(t, resp.Summaries, 1)
	assert.Equal(t, latam, resp.Summaries[0].RegionGroup)
	assert.Equal(t, 36, resp.Summaries[0].DataPoints)
	assert.Len(t, resp.Regional, 12)
}

func TestDashboardService_Forecast(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Forecast(context.Background(),
		domain.Filter{Regions: []string{"BRA"}, Metrics: []string{"youth_unemployment"}}, 3)
	require.NoError(t, err)

	assert.Len(t, resp.History, 12)
	require.Len(t, resp.Forecast.Points, 3)
	assert.Equal(t, domain.Year(2022), resp.Forecast.Points[0].Period)
	assert.InDelta(t, 26.0, resp.Forecast.Points[0].Value, 1e-6)
	assert.Equal(t, domain.ChartForecast, resp.Chart.Kind)
}

func TestDashboardService_ForecastErrors(t *testing.T) {
	tests := []struct {
		name    string
		filter  domain.Filter
		horizon int
		check   func(t *testing.T, err error)
	}{
		{
			name:    "several metrics",
			filter:  domain.Filter{Regions: []string{"BRA"}},
			horizon: 2,
			check: func(t *testing.T, err error) {
				var appErr *apperrors.AppError
				require.True(t, errors.As(err, &appErr))
				assert.Equal(t, apperrors.ErrTypeValidation, appErr.Type)
				assert.Contains(t, appErr.Message, "single metric")
			},
		},
		{
			name:    "short history",
			filter:  domain.Filter{Metrics: []string{"youth_unemployment"}, FromYear: 2018},
			horizon: 2,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, apperrors.ErrInsufficientHistory)
			},
		},
		{
			name:    "no data",
			filter:  domain.Filter{Regions: []string{"FRA"}},
			horizon: 2,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, apperrors.ErrInsufficientHistory)
			},
		},
		{
			name:    "horizon too large",
			filter:  domain.Filter{Metrics: []string{"youth_unemployment"}},
			horizon: 100,
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "horizon must be between 1 and 24")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			resp, err := f.svc.Forecast(context.Background(), tt.filter, tt.horizon)
			require.Error(t, err)
			assert.Nil(t, resp)
			tt.check(t, err)
		})
	}
}

func TestDashboardService_Reload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	loadedAt := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	ds := domain.NewDataset([]domain.Observation{observation("CHL", "youth_unemployment", 2022, 19.1)})
	report := &ingest.Report{
		Files: []ingest.FileReport{
			{Path: "wb_youth.csv", Source: domain.SourceWorldBank, Rows: 1, Skipped: 1},
			{Path: "ilo_broken.csv", Source: domain.SourceILO, Err: errors.New("missing value column")},
		},
		Observations: 1,
		LoadedAt:     loadedAt,
		Duration:     1500 * time.Millisecond,
	}

	f.loader.On("LoadDir", mock.Anything, f.dataDir).Return(ds, report, nil).Once()
	f.publisher.On("Publish", mock.Anything, events.MessageTypeDatasetReloaded,
		mock.MatchedBy(func(n events.DatasetReloaded) bool {
			return n.Observations == 1 && n.Files == 2 && n.FailedFiles == 1 &&
				n.LoadedAt.Equal(loadedAt) && len(n.Warnings) == 1
		})).Return(nil).Once()

	resp, err := f.svc.Reload(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Observations)
	assert.Equal(t, "1.5s", resp.Duration)
	require.Len(t, resp.Files, 2)
	assert.Equal(t, "WORLD_BANK", resp.Files[0].Source)
	assert.Empty(t, resp.Files[0].Error)
	assert.Equal(t, "missing value column", resp.Files[1].Error)

	assert.Equal(t, 1, f.store.Len(), "reload replaces the dataset")
	f.loader.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestDashboardService_ReloadFailureKeepsDataset(t *testing.T) {
	f := newFixture(t)
	before := f.store.Len()

	f.loader.On("LoadDir", mock.Anything, f.dataDir).
		Return(nil, nil, apperrors.NewStorageError("failed to read data directory", errors.New("permission denied"))).Once()

	resp, err := f.svc.Reload(context.Background())
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, before, f.store.Len())
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestDashboardService_ReloadPublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	report := &ingest.Report{LoadedAt: time.Now()}

	f.loader.On("LoadDir", mock.Anything, f.dataDir).Return(domain.NewDataset(nil), report, nil).Once()
	f.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("hub gone")).Once()

	resp, err := f.svc.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Observations)
	assert.Equal(t, 0, f.store.Len())
}

func TestDashboardService_ReloadInProgress(t *testing.T) {
	f := newFixture(t)
	started := make(chan struct{})
	release := make(chan struct{})

	f.loader.On("LoadDir", mock.Anything, f.dataDir).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(domain.NewDataset(nil), &ingest.Report{}, nil).Once()
	f.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Reload(context.Background())
		done <- err
	}()
	<-started

	_, err := f.svc.Reload(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrReloadInProgress)

	close(release)
	require.NoError(t, <-done)
}

func TestDashboardService_ReloadFromDisk(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "bls_youth.csv", testutil.BLSYouthCSV)
	testutil.WriteFile(t, dir, "wb/youth_unemployment.csv", testutil.WorldBankLongCSV)

	cfg := config.Default()
	cfg.Paths.DataDir = dir

	st := store.New(logger, nil)
	svc := NewDashboardService(st,
		ingest.NewLoader(cfg.Loader, logger, nil),
		dashboard.New(cfg.Dashboard, logger),
		forecast.New(cfg.Forecast, logger, nil),
		nil, cfg, logger)

	resp, err := svc.Reload(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 16, resp.Observations)
	assert.Len(t, resp.Files, 2)
	assert.Equal(t, 16, st.Len())

	dims := svc.Dimensions(context.Background())
	assert.Equal(t, 2019, dims.MinYear)
	assert.Equal(t, 2023, dims.MaxYear)

	youth := svc.Observations(context.Background(), domain.Filter{AgeBands: []string{"16-24"}})
	require.Equal(t, 5, youth.Count)
	for i, o := range youth.Data {
		assert.Equal(t, "16-24", o.Demographic.AgeBand)
		assert.Equal(t, domain.SourceBLS, o.Source)
		assert.Equal(t, domain.Year(2019+i), o.Period)
	}
}

func TestDashboardService_ForecastMonthlyWithAnnualAverages(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	var content strings.Builder
	content.WriteString("Year,Period,Age Group,Value\n")
	for year := 2019; year <= 2021; year++ {
		for m := 1; m <= 13; m++ {
			fmt.Fprintf(&content, "%d,M%02d,16-24,%.1f\n", year, m, 8+float64(m)/10)
		}
	}
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "bls_youth_monthly.csv", content.String())

	cfg := config.Default()
	cfg.Paths.DataDir = dir
	st := store.New(logger, nil)
	svc := NewDashboardService(st,
		ingest.NewLoader(cfg.Loader, logger, nil),
		dashboard.New(cfg.Dashboard, logger),
		forecast.New(cfg.Forecast, logger, nil),
		nil, cfg, logger)

	_, err := svc.Reload(context.Background())
	require.NoError(t, err)
	require.Equal(t, 39, st.Len())

	resp, err := svc.Forecast(context.Background(), domain.Filter{}, 3)
	require.NoError(t, err)
	require.Len(t, resp.History, 36)
	for _, p := range resp.History {
		assert.Equal(t, domain.FrequencyMonthly, p.Period.Frequency)
	}
	require.Len(t, resp.Forecast.Points, 3)
	assert.Equal(t, domain.Month(2022, 1), resp.Forecast.Points[0].Period)

	chart, err := svc.Chart(context.Background(), domain.ChartTimeSeries, domain.Filter{})
	require.NoError(t, err)
	assert.Len(t, chart.Rows, 36)
}

func TestNewDashboardService_Defaults(t *testing.T) {
	cfg := config.Default()
	cfg.Forecast.DefaultHorizon = 0
	cfg.Dashboard.MinRegionsPerGroup = 0
	cfg.Server.ReloadTimeout = 0

	svc := NewDashboardService(store.New(nil, nil), nil, nil, nil, nil, cfg, nil)
	assert.Equal(t, config.DefaultForecastPeriod, svc.DefaultHorizon())
	assert.Equal(t, config.DefaultMinRegionsPerGroup, svc.minRegions)
	assert.Equal(t, config.DefaultReloadTimeout, svc.reloadTimeout)
}
