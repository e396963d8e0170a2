package dashboard

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"labordash/internal/config"
	apperrors "labordash/internal/errors"
	"labordash/internal/ingest"
	"labordash/pkg/contracts/domain"
)

const vegaLiteSchema = "https://vega.github.io/schema/vega-lite/v5.json"

// WorldTopoJSON is the world map the choropleth joins on ISO 3166 numeric ids
const WorldTopoJSON = "https://cdn.jsdelivr.net/npm/vega-datasets@v2/data/world-110m.json"

// Renderer maps query results to Vega-Lite chart documents. It is a pure
// projection and keeps no state between calls.
type Renderer struct {
	width   int
	height  int
	maxRows int
	logger  *slog.Logger
}

// New creates a renderer using the chart size and row limit of cfg
func New(cfg config.DashboardConfig, logger *slog.Logger) *Renderer {
	if cfg.ChartWidth <= 0 {
		cfg.ChartWidth = 800
	}
	if cfg.ChartHeight <= 0 {
		cfg.ChartHeight = 400
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = config.DefaultMaxRows
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		width:   cfg.ChartWidth,
		height:  cfg.ChartHeight,
		maxRows: cfg.MaxRows,
		logger:  logger.With(slog.String("component", "renderer")),
	}
}

// Build renders observations as a time series, choropleth or grouped bar
// chart. Regional charts are built from averages with BuildRegional.
func (r *Renderer) Build(kind domain.ChartKind, f domain.Filter, rows []domain.Observation) (domain.ChartSpec, error) {
	if len(rows) > r.maxRows {
		return domain.ChartSpec{}, apperrors.NewAppValidationError(
			fmt.Sprintf("filter matches %d observations, more than the %d a chart can show; narrow the filter", len(rows), r.maxRows)).
			WithContext("rows", len(rows)).
			WithContext("max_rows", r.maxRows)
	}

	var spec domain.ChartSpec
	switch kind {
	case domain.ChartTimeSeries:
		spec = r.timeSeries(f, domain.FinestPerSeries(rows))
	case domain.ChartChoropleth:
		spec = r.choropleth(f, rows)
	case domain.ChartGroupedBar:
		spec = r.groupedBar(f, domain.FinestPerSeries(rows))
	default:
		return domain.ChartSpec{}, apperrors.NewAppValidationError(
			fmt.Sprintf("chart kind %q is not built from observations", kind))
	}

	r.logger.Debug("Chart built",
		slog.String("kind", string(kind)),
		slog.Int("observations", len(rows)),
		slog.Int("rows", len(spec.Rows)))
	return spec, nil
}

func (r *Renderer) document(title string) object {
	return object{
		"$schema": vegaLiteSchema,
		"title":   title,
		"width":   r.width,
		"height":  r.height,
	}
}

func (r *Renderer) timeSeries(f domain.Filter, rows []domain.Observation) domain.ChartSpec {
	metric := metricLabel(chartMetric(f, rows))
	title := chartTitle(metric+" Over Time", f)
	l := newLabeler(rows)

	values := make([]object, len(rows))
	for i, o := range rows {
		values[i] = observationRow(o, l)
	}

	doc := r.document(title)
	doc["data"] = object{"values": values}
	doc["mark"] = object{"type": "line", "point": true}
	doc["encoding"] = object{
		"x":     field(fieldDate, "temporal", "Period"),
		"y":     field(fieldValue, "quantitative", metric),
		"color": field(fieldSeries, "nominal", "Series"),
		"tooltip": []object{
			field(fieldSeries, "nominal", "Series"),
			field(fieldPeriod, "ordinal", "Period"),
			{"field": fieldValue, "type": "quantitative", "title": metric, "format": ".2f"},
			field(fieldSource, "nominal", "Source"),
		},
	}

	return domain.ChartSpec{Kind: domain.ChartTimeSeries, Title: title, Spec: doc, Rows: values}
}

type regionLatest struct {
	obs    domain.Observation
	values []float64
}

// choropleth colors each country by its latest value. Several demographic
// groups in that period are averaged. Aggregates without an ISO numeric code
// cannot be placed on the map and are left out.
func (r *Renderer) choropleth(f domain.Filter, rows []domain.Observation) domain.ChartSpec {
	metric := metricLabel(chartMetric(f, rows))
	title := chartTitle(metric+" by Country", f)

	latest := make(map[string]*regionLatest)
	for _, o := range rows {
		if _, ok := ingest.NumericCode(o.Region); !ok {
			continue
		}
		cur, ok := latest[o.Region]
		switch {
		case !ok || cur.obs.Period.Before(o.Period):
			latest[o.Region] = &regionLatest{obs: o, values: []float64{o.Value}}
		case cur.obs.Period == o.Period:
			cur.values = append(cur.values, o.Value)
		}
	}

	codes := make([]string, 0, len(latest))
	for code := range latest {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	values := make([]object, 0, len(codes))
	for _, code := range codes {
		l := latest[code]
		id, _ := ingest.NumericCode(code)
		values = append(values, object{
			fieldID:          id,
			fieldRegion:      code,
			fieldRegionName:  regionName(l.obs),
			fieldRegionGroup: l.obs.RegionGroup,
			fieldPeriod:      l.obs.Period.String(),
			fieldValue:       stat.Mean(l.values, nil),
		})
	}

	doc := r.document(title)
	doc["data"] = object{
		"url":    WorldTopoJSON,
		"format": object{"type": "topojson", "feature": "countries"},
	}
	doc["projection"] = object{"type": "equalEarth"}
	doc["layer"] = []object{
		{
			"mark": object{"type": "geoshape", "fill": "#e5e5e5", "stroke": "white", "strokeWidth": 0.5},
		},
		{
			"transform": []object{{
				"lookup": fieldID,
				"from": object{
					"data":   object{"values": values},
					"key":    fieldID,
					"fields": []string{fieldRegion, fieldRegionName, fieldPeriod, fieldValue},
				},
			}},
			"mark": object{"type": "geoshape", "stroke": "white", "strokeWidth": 0.5},
			"encoding": object{
				"color": object{
					"field": fieldValue,
					"type":  "quantitative",
					"title": metric,
					"scale": object{"scheme": "blues"},
				},
				"tooltip": []object{
					field(fieldRegionName, "nominal", "Country"),
					field(fieldPeriod, "ordinal", "Period"),
					{"field": fieldValue, "type": "quantitative", "title": metric, "format": ".2f"},
				},
			},
		},
	}

	return domain.ChartSpec{Kind: domain.ChartChoropleth, Title: title, Spec: doc, Rows: values}
}

// groupedBar places one bar per group side by side within each period.
// Observations sharing a bar are averaged.
func (r *Renderer) groupedBar(f domain.Filter, rows []domain.Observation) domain.ChartSpec {
	metric := metricLabel(chartMetric(f, rows))
	title := chartTitle(metric+" by Group", f)
	l := newLabeler(rows)

	values := make([]object, len(rows))
	for i, o := range rows {
		values[i] = observationRow(o, l)
	}

	doc := r.document(title)
	doc["data"] = object{"values": values}
	doc["mark"] = object{"type": "bar"}
	doc["encoding"] = object{
		"x":       field(fieldPeriod, "ordinal", "Period"),
		"xOffset": field(fieldGroup, "nominal", ""),
		"y":       object{"aggregate": "mean", "field": fieldValue, "type": "quantitative", "title": metric},
		"color":   field(fieldGroup, "nominal", "Group"),
		"tooltip": []object{
			field(fieldGroup, "nominal", "Group"),
			field(fieldPeriod, "ordinal", "Period"),
			{"aggregate": "mean", "field": fieldValue, "type": "quantitative", "title": metric, "format": ".2f"},
		},
	}

	return domain.ChartSpec{Kind: domain.ChartGroupedBar, Title: title, Spec: doc, Rows: values}
}

// BuildRegional charts the average per region group over time
func (r *Renderer) BuildRegional(f domain.Filter, averages []domain.RegionalAverage) domain.ChartSpec {
	metric := ""
	if len(f.Metrics) == 1 {
		metric = f.Metrics[0]
	}
	label := metricLabel(metric)
	title := chartTitle(label+" by Region Over Time", f)

	values := make([]object, len(averages))
	for i, a := range averages {
		values[i] = object{
			fieldRegionGroup: a.RegionGroup,
			fieldPeriod:      a.Period.String(),
			fieldDate:        periodDate(a.Period),
			fieldX:           a.Period.Decimal(),
			fieldAverage:     a.Average,
			fieldRegions:     a.Regions,
		}
	}

	doc := r.document(title)
	doc["data"] = object{"values": values}
	doc["mark"] = object{"type": "line", "point": true}
	doc["encoding"] = object{
		"x":     field(fieldDate, "temporal", "Year"),
		"y":     field(fieldAverage, "quantitative", "Average "+label),
		"color": field(fieldRegionGroup, "nominal", "Region"),
		"tooltip": []object{
			field(fieldRegionGroup, "nominal", "Region"),
			field(fieldPeriod, "ordinal", "Year"),
			{"field": fieldAverage, "type": "quantitative", "title": "Average Rate", "format": ".1f"},
			field(fieldRegions, "quantitative", "Number of Countries"),
		},
	}

	return domain.ChartSpec{Kind: domain.ChartRegional, Title: title, Spec: doc, Rows: values}
}

// BuildForecast layers the history line, the forecast line and the
// confidence band. The forecast line starts at the last observed point.
func (r *Renderer) BuildForecast(f domain.Filter, history []domain.SeriesPoint, result *domain.ForecastResult) (domain.ChartSpec, error) {
	if result == nil || len(history) == 0 {
		return domain.ChartSpec{}, apperrors.NewAppValidationError("a forecast chart needs history and a forecast")
	}

	metric := ""
	if len(f.Metrics) == 1 {
		metric = f.Metrics[0]
	}
	label := metricLabel(metric)
	title := fmt.Sprintf("%s Forecast (%d%% interval)", label, int(math.Round(result.Confidence*100)))

	values := make([]object, 0, len(history)+len(result.Points)+1)
	for _, p := range history {
		values = append(values, object{
			fieldKind:   kindHistory,
			fieldPeriod: p.Period.String(),
			fieldDate:   periodDate(p.Period),
			fieldX:      p.Period.Decimal(),
			fieldValue:  p.Value,
		})
	}
	last := history[len(history)-1]
	values = append(values, forecastRow(last.Period, last.Value, last.Value, last.Value))
	for _, p := range result.Points {
		values = append(values, forecastRow(p.Period, p.Value, p.Lower, p.Upper))
	}

	x := field(fieldDate, "temporal", "Period")
	doc := r.document(title)
	doc["data"] = object{"values": values}
	doc["layer"] = []object{
		{
			"transform": []object{{"filter": fmt.Sprintf("datum.%s === '%s'", fieldKind, kindForecast)}},
			"mark":      object{"type": "area", "opacity": 0.25},
			"encoding": object{
				"x":  x,
				"y":  field(fieldLower, "quantitative", label),
				"y2": object{"field": fieldUpper},
			},
		},
		{
			"mark": object{"type": "line", "point": true},
			"encoding": object{
				"x": x,
				"y": field(fieldValue, "quantitative", label),
				"color": object{
					"field": fieldKind,
					"type":  "nominal",
					"title": "",
					"scale": object{"domain": []string{kindHistory, kindForecast}},
				},
				"strokeDash": object{"field": fieldKind, "type": "nominal", "legend": nil},
				"tooltip": []object{
					field(fieldPeriod, "ordinal", "Period"),
					{"field": fieldValue, "type": "quantitative", "title": label, "format": ".2f"},
					{"field": fieldLower, "type": "quantitative", "title": "Lower", "format": ".2f"},
					{"field": fieldUpper, "type": "quantitative", "title": "Upper", "format": ".2f"},
				},
			},
		},
	}

	return domain.ChartSpec{Kind: domain.ChartForecast, Title: title, Spec: doc, Rows: values}, nil
}

func forecastRow(p domain.Period, value, lower, upper float64) object {
	return object{
		fieldKind:   kindForecast,
		fieldPeriod: p.String(),
		fieldDate:   periodDate(p),
		fieldX:      p.Decimal(),
		fieldValue:  value,
		fieldLower:  lower,
		fieldUpper:  upper,
	}
}
