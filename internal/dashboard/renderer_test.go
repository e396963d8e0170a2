package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labordash/internal/config"
	apperrors "labordash/internal/errors"
	"labordash/internal/shared/testutil"
	"labordash/pkg/contracts/domain"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return New(config.DashboardConfig{ChartWidth: 640, ChartHeight: 320, MaxRows: 100}, logger)
}

func usa(age string, year int, value float64) domain.Observation {
	return domain.Observation{
		Region:      "USA",
		RegionName:  "United States",
		RegionGroup: "North America",
		Demographic: domain.NewDemographic(age, "", ""),
		Period:      domain.Year(year),
		Metric:      "unemployment_rate",
		Value:       value,
		Source:      domain.SourceBLS,
	}
}

func country(code, name, group string, period domain.Period, value float64) domain.Observation {
	return domain.Observation{
		Region:      code,
		RegionName:  name,
		RegionGroup: group,
		Demographic: domain.NewDemographic("", "", ""),
		Period:      period,
		Metric:      "labor_force_participation_rate",
		Value:       value,
		Source:      domain.SourceWorldBank,
	}
}

func encoding(t *testing.T, spec map[string]interface{}) object {
	t.Helper()
	enc, ok := spec["encoding"].(object)
	require.True(t, ok, "spec has no encoding")
	return enc
}

func TestRenderer_TimeSeries(t *testing.T) {
	r := newRenderer(t)
	rows := []domain.Observation{
		usa("16-24", 2022, 8.1),
		usa("25-54", 2022, 3.1),
		usa("16-24", 2023, 7.9),
		usa("25-54", 2023, 3.0),
	}

	chart, err := r.Build(domain.ChartTimeSeries, domain.Filter{FromYear: 2022}, rows)
	require.NoError(t, err)

	assert.Equal(t, domain.ChartTimeSeries, chart.Kind)
	assert.Equal(t, "Unemployment Rate Over Time, from 2022", chart.Title)
	assert.Equal(t, vegaLiteSchema, chart.Spec["$schema"])
	assert.Equal(t, 640, chart.Spec["width"])
	assert.Equal(t, object{"type": "line", "point": true}, chart.Spec["mark"])

	enc := encoding(t, chart.Spec)
	assert.Equal(t, fieldDate, enc["x"].(object)["field"])
	assert.Equal(t, "temporal", enc["x"].(object)["type"])
	assert.Equal(t, fieldSeries, enc["color"].(object)["field"])

	require.Len(t, chart.Rows, 4)
	assert.Equal(t, "United States | 16-24", chart.Rows[0][fieldSeries])
	assert.Equal(t, "United States | 25-54", chart.Rows[1][fieldSeries])
	assert.Equal(t, "2022-01-01", chart.Rows[0][fieldDate])
	assert.Equal(t, 8.1, chart.Rows[0][fieldValue])

	_, err = json.Marshal(chart)
	assert.NoError(t, err)
}

func TestRenderer_TimeSeriesSingleDemographicNamesRegionOnly(t *testing.T) {
	r := newRenderer(t)
	rows := []domain.Observation{
		country("BRA", "Brazil", "Latin America & Caribbean", domain.Year(2021), 60),
		country("MEX", "Mexico", "Latin America & Caribbean", domain.Year(2021), 58),
	}

	chart, err := r.Build(domain.ChartTimeSeries, domain.Filter{}, rows)
	require.NoError(t, err)
	assert.Equal(t, "Brazil", chart.Rows[0][fieldSeries])
	assert.Equal(t, "Mexico", chart.Rows[1][fieldSeries])
	assert.Equal(t, "Labor Force Participation Rate Over Time", chart.Title)
}

func TestRenderer_EmptyRowsStillBuild(t *testing.T) {
	r := newRenderer(t)

	for _, kind := range []domain.ChartKind{domain.ChartTimeSeries, domain.ChartChoropleth, domain.ChartGroupedBar} {
		t.Run(string(kind), func(t *testing.T) {
			chart, err := r.Build(kind, domain.Filter{Regions: []string{"FRA"}}, []domain.Observation{})
			require.NoError(t, err)
			assert.Empty(t, chart.Rows)
			assert.Equal(t, "Value", chart.Title[:5])
		})
	}
}

func TestRenderer_Choropleth(t *testing.T) {
	r := newRenderer(t)
	female := country("BRA", "Brazil", "Latin America & Caribbean", domain.Year(2022), 50)
	female.Demographic = domain.NewDemographic("", "female", "")
	rows := []domain.Observation{
		country("BRA", "Brazil", "Latin America & Caribbean", domain.Year(2021), 60),
		country("BRA", "Brazil", "Latin America & Caribbean", domain.Year(2022), 70),
		female,
		country("MEX", "Mexico", "Latin America & Caribbean", domain.Year(2021), 58),
		country("WLD", "World", "Other", domain.Year(2022), 61),
		country("FIN", "Finland", "Other", domain.Year(2022), 7),
	}

	chart, err := r.Build(domain.ChartChoropleth, domain.Filter{}, rows)
	require.NoError(t, err)

	require.Len(t, chart.Rows, 3, "aggregates without an ISO code are left out")
	bra, fin, mex := chart.Rows[0], chart.Rows[1], chart.Rows[2]
	assert.Equal(t, 246, fin[fieldID], "countries outside the region catalog are mapped too")
	assert.Equal(t, "BRA", bra[fieldRegion])
	assert.Equal(t, 76, bra[fieldID])
	assert.Equal(t, "2022", bra[fieldPeriod])
	assert.InDelta(t, 60.0, bra[fieldValue], 1e-9, "demographic groups in the latest period are averaged")
	assert.Equal(t, "MEX", mex[fieldRegion])
	assert.Equal(t, "2021", mex[fieldPeriod])

	data := chart.Spec["data"].(object)
	assert.Equal(t, WorldTopoJSON, data["url"])
	layers := chart.Spec["layer"].([]object)
	require.Len(t, layers, 2)
	lookup := layers[1]["transform"].([]object)[0]
	assert.Equal(t, fieldID, lookup["lookup"])
}

func TestRenderer_GroupedBar(t *testing.T) {
	r := newRenderer(t)
	rows := []domain.Observation{
		usa("16-24", 2022, 8.1),
		usa("25-54", 2022, 3.1),
	}

	chart, err := r.Build(domain.ChartGroupedBar, domain.Filter{}, rows)
	require.NoError(t, err)

	enc := encoding(t, chart.Spec)
	assert.Equal(t, fieldPeriod, enc["x"].(object)["field"])
	assert.Equal(t, fieldGroup, enc["xOffset"].(object)["field"])
	assert.Equal(t, "mean", enc["y"].(object)["aggregate"])
	assert.Equal(t, "16-24", chart.Rows[0][fieldGroup])
	assert.Equal(t, "25-54", chart.Rows[1][fieldGroup])
}

func TestRenderer_GroupedBarByRegion(t *testing.T) {
	r := newRenderer(t)
	rows := []domain.Observation{
		country("BRA", "Brazil", "Latin America & Caribbean", domain.Year(2021), 60),
		country("MEX", "Mexico", "Latin America & Caribbean", domain.Year(2021), 58),
	}

	chart, err := r.Build(domain.ChartGroupedBar, domain.Filter{}, rows)
	require.NoError(t, err)
	assert.Equal(t, "Brazil", chart.Rows[0][fieldGroup])
	assert.Equal(t, "Mexico", chart.Rows[1][fieldGroup])
}

func TestRenderer_BuildRejects(t *testing.T) {
	r := New(config.DashboardConfig{MaxRows: 1}, nil)
	rows := []domain.Observation{usa("", 2022, 1), usa("", 2023, 2)}

	_, err := r.Build(domain.ChartTimeSeries, domain.Filter{}, rows)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrTypeValidation, appErr.Type)
	assert.Equal(t, 2, appErr.Context["rows"])

	_, err = r.Build(domain.ChartRegional, domain.Filter{}, rows[:1])
	assert.Error(t, err)
	_, err = r.Build(domain.ChartKind("pie"), domain.Filter{}, rows[:1])
	assert.Error(t, err)
}

func TestRenderer_BuildRegional(t *testing.T) {
	r := newRenderer(t)
	averages := []domain.RegionalAverage{
		{RegionGroup: "Latin America & Caribbean", Period: domain.Year(2021), Average: 59.5, Regions: 3},
		{RegionGroup: "Latin America & Caribbean", Period: domain.Year(2022), Average: 60.25, Regions: 3},
	}

	chart := r.BuildRegional(domain.Filter{Metrics: []string{"labor_force_participation_rate"}}, averages)

	assert.Equal(t, domain.ChartRegional, chart.Kind)
	assert.Equal(t, "Labor Force Participation Rate by Region Over Time", chart.Title)
	require.Len(t, chart.Rows, 2)
	assert.Equal(t, 3, chart.Rows[0][fieldRegions])

	enc := encoding(t, chart.Spec)
	assert.Equal(t, fieldRegionGroup, enc["color"].(object)["field"])
	tooltip := enc["tooltip"].([]object)
	require.Len(t, tooltip, 4)
	assert.Equal(t, ".1f", tooltip[2]["format"])
	assert.Equal(t, "Number of Countries", tooltip[3]["title"])
}

func sampleForecast() ([]domain.SeriesPoint, *domain.ForecastResult) {
	history := []domain.SeriesPoint{
		{Period: domain.Year(2021), Value: 5},
		{Period: domain.Year(2022), Value: 6},
	}
	result := &domain.ForecastResult{
		Method:     "holt_linear",
		Confidence: 0.95,
		Horizon:    2,
		Points: []domain.ForecastPoint{
			{Period: domain.Year(2023), Value: 7, Lower: 6.5, Upper: 7.5},
			{Period: domain.Year(2024), Value: 8, Lower: 7, Upper: 9},
		},
	}
	return history, result
}

func TestRenderer_BuildForecast(t *testing.T) {
	r := newRenderer(t)
	history, result := sampleForecast()

	chart, err := r.BuildForecast(domain.Filter{Metrics: []string{"unemployment_rate"}}, history, result)
	require.NoError(t, err)

	assert.Equal(t, domain.ChartForecast, chart.Kind)
	assert.Equal(t, "Unemployment Rate Forecast (95% interval)", chart.Title)
	require.Len(t, chart.Rows, 5)
	assert.Equal(t, kindHistory, chart.Rows[0][fieldKind])
	joint := chart.Rows[2]
	assert.Equal(t, kindForecast, joint[fieldKind])
	assert.Equal(t, "2022", joint[fieldPeriod])
	assert.Equal(t, 6.0, joint[fieldLower])
	assert.Equal(t, 9.0, chart.Rows[4][fieldUpper])

	layers := chart.Spec["layer"].([]object)
	require.Len(t, layers, 2)
	assert.Equal(t, "area", layers[0]["mark"].(object)["type"])

	_, err = r.BuildForecast(domain.Filter{}, nil, result)
	assert.Error(t, err)
	_, err = r.BuildForecast(domain.Filter{}, history, nil)
	assert.Error(t, err)
}

func TestRenderer_RenderPNG(t *testing.T) {
	r := newRenderer(t)
	rows := []domain.Observation{
		usa("16-24", 2022, 8.1),
		usa("25-54", 2022, 3.1),
		usa("16-24", 2023, 7.9),
		usa("25-54", 2023, 3.0),
	}
	history, result := sampleForecast()

	ts, err := r.Build(domain.ChartTimeSeries, domain.Filter{}, rows)
	require.NoError(t, err)
	bars, err := r.Build(domain.ChartGroupedBar, domain.Filter{}, rows)
	require.NoError(t, err)
	fc, err := r.BuildForecast(domain.Filter{}, history, result)
	require.NoError(t, err)
	regional := r.BuildRegional(domain.Filter{}, []domain.RegionalAverage{
		{RegionGroup: "North America", Period: domain.Year(2022), Average: 5, Regions: 3},
		{RegionGroup: "North America", Period: domain.Year(2023), Average: 5.5, Regions: 3},
	})

	for _, chart := range []domain.ChartSpec{ts, bars, fc, regional} {
		t.Run(string(chart.Kind), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, r.RenderPNG(chart, &buf))
			assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")), "output is not a PNG")
		})
	}

	choropleth, err := r.Build(domain.ChartChoropleth, domain.Filter{}, rows)
	require.NoError(t, err)
	err = r.RenderPNG(choropleth, &bytes.Buffer{})
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrTypeValidation, appErr.Type)
}
