package dashboard

import (
	"fmt"
	"strings"
	"unicode"

	"labordash/pkg/contracts/domain"
)

// object is a JSON object of a Vega-Lite document
type object = map[string]interface{}

// Row fields shared by the Vega-Lite specs and the PNG renderer
const (
	fieldPeriod      = "period"
	fieldDate        = "date"
	fieldX           = "x"
	fieldRegion      = "region"
	fieldRegionName  = "region_name"
	fieldRegionGroup = "region_group"
	fieldDemographic = "demographic"
	fieldMetric      = "metric"
	fieldSource      = "source"
	fieldSeries      = "series"
	fieldGroup       = "group"
	fieldValue       = "value"
	fieldAverage     = "average"
	fieldRegions     = "regions"
	fieldID          = "id"
	fieldKind        = "kind"
	fieldLower       = "lower"
	fieldUpper       = "upper"
)

// Forecast row kinds
const (
	kindHistory  = "history"
	kindForecast = "forecast"
)

// periodDate renders the first day of the period for temporal axes
func periodDate(p domain.Period) string {
	return fmt.Sprintf("%04d-%02d-01", p.Year, p.StartMonth())
}

func regionName(o domain.Observation) string {
	if o.RegionName != "" {
		return o.RegionName
	}
	return o.Region
}

// metricLabel turns a metric id into a title: labor_force_participation_rate
// becomes Labor Force Participation Rate
func metricLabel(metric string) string {
	words := strings.FieldsFunc(metric, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
	if len(words) == 0 {
		return "Value"
	}
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// chartMetric picks the metric a chart is about: the single filtered metric,
// else the single metric present in rows, else none
func chartMetric(f domain.Filter, rows []domain.Observation) string {
	if len(f.Metrics) == 1 {
		return f.Metrics[0]
	}
	metric := ""
	for _, o := range rows {
		if metric != "" && o.Metric != metric {
			return ""
		}
		metric = o.Metric
	}
	return metric
}

// chartTitle appends the filtered year range to base
func chartTitle(base string, f domain.Filter) string {
	switch {
	case f.FromYear != 0 && f.ToYear != 0:
		return fmt.Sprintf("%s, %d-%d", base, f.FromYear, f.ToYear)
	case f.FromYear != 0:
		return fmt.Sprintf("%s, from %d", base, f.FromYear)
	case f.ToYear != 0:
		return fmt.Sprintf("%s, until %d", base, f.ToYear)
	}
	return base
}

// labeler names the line or bar an observation belongs to. Dimensions that
// take a single value across the rows are left out of the label.
type labeler struct {
	regions, demographics, metrics, sources bool
}

func newLabeler(rows []domain.Observation) labeler {
	regions := make(map[string]bool)
	demographics := make(map[string]bool)
	metrics := make(map[string]bool)
	sources := make(map[domain.Source]bool)
	for _, o := range rows {
		regions[o.Region] = true
		demographics[o.Demographic.Key()] = true
		metrics[o.Metric] = true
		sources[o.Source] = true
	}
	return labeler{
		regions:      len(regions) > 1,
		demographics: len(demographics) > 1,
		metrics:      len(metrics) > 1,
		sources:      len(sources) > 1,
	}
}

// series labels a time series line; the region is always named
func (l labeler) series(o domain.Observation) string {
	parts := []string{regionName(o)}
	if l.demographics {
		parts = append(parts, o.Demographic.Label())
	}
	if l.metrics {
		parts = append(parts, metricLabel(o.Metric))
	}
	if l.sources {
		parts = append(parts, string(o.Source))
	}
	return strings.Join(parts, " | ")
}

// group labels a bar: the demographic when it varies, else the region
func (l labeler) group(o domain.Observation) string {
	if l.demographics || !l.regions {
		return o.Demographic.Label()
	}
	return regionName(o)
}

func observationRow(o domain.Observation, l labeler) object {
	return object{
		fieldPeriod:      o.Period.String(),
		fieldDate:        periodDate(o.Period),
		fieldX:           o.Period.Decimal(),
		fieldRegion:      o.Region,
		fieldRegionName:  regionName(o),
		fieldRegionGroup: o.RegionGroup,
		fieldDemographic: o.Demographic.Label(),
		fieldMetric:      o.Metric,
		fieldSource:      string(o.Source),
		fieldSeries:      l.series(o),
		fieldGroup:       l.group(o),
		fieldValue:       o.Value,
	}
}

func field(name, typ, title string) object {
	f := object{"field": name, "type": typ}
	if title != "" {
		f["title"] = title
	}
	return f
}
