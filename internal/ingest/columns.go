package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"labordash/pkg/contracts/domain"
)

// Column is a canonical column of the loader vocabulary
type Column string

const (
	ColRegion     Column = "region"
	ColRegionName Column = "region_name"
	ColAge        Column = "age"
	ColGender     Column = "gender"
	ColEducation  Column = "education"
	ColPeriod     Column = "period"
	ColYear       Column = "year"
	ColMonth      Column = "month"
	ColQuarter    Column = "quarter"
	ColMetric     Column = "metric"
	ColValue      Column = "value"
)

var commonAliases = map[string]Column{
	"region":                 ColRegion,
	"region_code":            ColRegion,
	"country_code":           ColRegion,
	"iso3":                   ColRegion,
	"iso3_code":              ColRegion,
	"iso_code":               ColRegion,
	"area_code":              ColRegion,
	"region_name":            ColRegionName,
	"country":                ColRegionName,
	"country_name":           ColRegionName,
	"area":                   ColRegionName,
	"area_name":              ColRegionName,
	"age":                    ColAge,
	"age_group":              ColAge,
	"age_band":               ColAge,
	"age_range":              ColAge,
	"sex":                    ColGender,
	"gender":                 ColGender,
	"education":              ColEducation,
	"education_level":        ColEducation,
	"educational_attainment": ColEducation,
	"period":                 ColPeriod,
	"date":                   ColPeriod,
	"time":                   ColPeriod,
	"time_period":            ColPeriod,
	"year":                   ColYear,
	"month":                  ColMonth,
	"quarter":                ColQuarter,
	"metric":                 ColMetric,
	"indicator":              ColMetric,
	"indicator_name":         ColMetric,
	"indicator_label":        ColMetric,
	"series":                 ColMetric,
	"series_name":            ColMetric,
	"measure":                ColMetric,
	"value":                  ColValue,
	"obs_value":              ColValue,
	"rate":                   ColValue,
}

// Source specific headers. BLS LABSTAT extracts carry a series id and
// period codes; ILOSTAT bulk files use ref_area and classif columns;
// World Bank API and Data360 downloads use countryiso3code and REF_AREA.
var sourceAliases = map[domain.Source]map[string]Column{
	domain.SourceBLS: {
		"series_id":    ColMetric,
		"series_title": ColMetric,
		"state":        ColRegionName,
		"area_text":    ColRegionName,
	},
	domain.SourceILO: {
		"ref_area":       ColRegion,
		"ref_area_label": ColRegionName,
		"sex_label":      ColGender,
		"classif1":       ColAge,
		"classif1_label": ColAge,
		"classif2":       ColEducation,
		"classif2_label": ColEducation,
	},
	domain.SourceWorldBank: {
		"countryiso3code": ColRegion,
		"ref_area":        ColRegion,
		"ref_area_label":  ColRegionName,
		"sex_label":       ColGender,
		"age_label":       ColAge,
		"series_code":     ColMetric,
	},
}

var aliasTables = func() map[domain.Source]map[string]Column {
	tables := make(map[domain.Source]map[string]Column, len(domain.AllSources))
	for _, source := range domain.AllSources {
		table := make(map[string]Column, len(commonAliases)+len(sourceAliases[source]))
		for k, v := range commonAliases {
			table[k] = v
		}
		for k, v := range sourceAliases[source] {
			table[k] = v
		}
		tables[source] = table
	}
	return tables
}()

// NormalizeHeader lowercases a header cell and collapses every run of
// non-alphanumeric characters into a single underscore
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")

	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(h) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// Matches bare years and World Bank databank headers such as "2019 [YR2019]"
var yearHeader = regexp.MustCompile(`^(\d{4})(_yr\d{4})?$`)

func wideYear(normalized string) (int, bool) {
	m := yearHeader.FindStringSubmatch(normalized)
	if m == nil {
		return 0, false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil || year < minYear || year > maxYear {
		return 0, false
	}
	return year, true
}

type yearColumn struct {
	index int
	year  int
}

// columnMap is the result of mapping a header row to the canonical vocabulary
type columnMap struct {
	index   map[Column]int
	years   []yearColumn
	dropped []string
}

func (m columnMap) has(c Column) bool {
	_, ok := m.index[c]
	return ok
}

func (m columnMap) wide() bool {
	return len(m.years) > 0 && !m.has(ColValue)
}

// recognized counts the header cells that mapped to something
func (m columnMap) recognized() int {
	return len(m.index) + len(m.years)
}

// mapColumns maps header cells through the alias table of source. The first
// header mapping to a canonical column wins; later duplicates and unknown
// headers are reported as dropped.
func mapColumns(header []string, source domain.Source) columnMap {
	aliases := aliasTables[source]
	m := columnMap{index: make(map[Column]int)}

	for i, raw := range header {
		name := NormalizeHeader(raw)
		if name == "" {
			continue
		}
		if year, ok := wideYear(name); ok {
			m.years = append(m.years, yearColumn{index: i, year: year})
			continue
		}
		col, ok := aliases[name]
		if !ok || m.has(col) {
			m.dropped = append(m.dropped, strings.TrimSpace(raw))
			continue
		}
		m.index[col] = i
	}
	return m
}

// looksLikeHeader reports whether a row is the header of a data table:
// at least two recognized cells, one of them carrying values or periods
func looksLikeHeader(m columnMap) bool {
	if m.recognized() < 2 {
		return false
	}
	return m.has(ColValue) || m.has(ColPeriod) || m.has(ColYear) || len(m.years) > 0
}
