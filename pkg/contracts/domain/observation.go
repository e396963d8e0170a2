package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Source identifies the publisher of a labor-statistics file
type Source string

const (
	SourceBLS       Source = "BLS"
	SourceILO       Source = "ILO"
	SourceWorldBank Source = "WORLD_BANK"
)

// AllSources lists the supported sources in display order
var AllSources = []Source{SourceBLS, SourceILO, SourceWorldBank}

// ParseSource converts a user or file-name tag into a Source
func ParseSource(tag string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "bls":
		return SourceBLS, nil
	case "ilo", "ilostat":
		return SourceILO, nil
	case "wb", "worldbank", "world_bank", "world-bank", "wdi":
		return SourceWorldBank, nil
	default:
		return "", fmt.Errorf("unknown source %q", tag)
	}
}

// Label returns a human readable source name
func (s Source) Label() string {
	switch s {
	case SourceBLS:
		return "Bureau of Labor Statistics"
	case SourceILO:
		return "International Labour Organization"
	case SourceWorldBank:
		return "World Bank"
	default:
		return string(s)
	}
}

// Total is the canonical value of a demographic dimension that is not broken down
const Total = "total"

// Demographic is the demographic group an observation describes
type Demographic struct {
	AgeBand   string `json:"age_band"`
	Gender    string `json:"gender"`
	Education string `json:"education"`
}

// NewDemographic builds a normalized demographic group; empty dimensions become Total
func NewDemographic(age, gender, education string) Demographic {
	return Demographic{
		AgeBand:   normalizeDimension(age),
		Gender:    normalizeDimension(gender),
		Education: normalizeDimension(education),
	}
}

// Key renders the demographic as age|gender|education
func (d Demographic) Key() string {
	return d.AgeBand + "|" + d.Gender + "|" + d.Education
}

// Label renders the non-total dimensions for chart legends
func (d Demographic) Label() string {
	parts := make([]string, 0, 3)
	for _, v := range []string{d.AgeBand, d.Gender, d.Education} {
		if v != Total {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return Total
	}
	return strings.Join(parts, ", ")
}

func normalizeDimension(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "", "all", "total", "both sexes", "both", "all ages", "all levels", "_t", "t":
		return Total
	}
	return v
}

// Observation is one labeled data point. It is a value type and is never
// mutated after loading.
type Observation struct {
	Region      string      `json:"region"`
	RegionName  string      `json:"region_name,omitempty"`
	RegionGroup string      `json:"region_group,omitempty"`
	Demographic Demographic `json:"demographic"`
	Period      Period      `json:"period"`
	Metric      string      `json:"metric"`
	Value       float64     `json:"value"`
	Source      Source      `json:"source"`
}

// ObservationKey is the uniqueness key of an observation within a dataset
type ObservationKey struct {
	Region      string
	Demographic Demographic
	Period      Period
	Metric      string
	Source      Source
}

// Key returns the uniqueness key of the observation
func (o Observation) Key() ObservationKey {
	return ObservationKey{
		Region:      o.Region,
		Demographic: o.Demographic,
		Period:      o.Period,
		Metric:      o.Metric,
		Source:      o.Source,
	}
}

// FinestPerSeries keeps, for every series, only the observations at the
// finest frequency that series is published in. BLS extracts carry an annual
// average (M13, Q05) beside the monthly or quarterly figures; those rows are
// dropped so each series has one frequency. Order is preserved.
func FinestPerSeries(obs []Observation) []Observation {
	finest := make(map[ObservationKey]Frequency)
	for _, o := range obs {
		k := o.seriesKey()
		if f, ok := finest[k]; !ok || o.Period.Frequency.Finer(f) {
			finest[k] = o.Period.Frequency
		}
	}

	out := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if o.Period.Frequency == finest[o.seriesKey()] {
			out = append(out, o)
		}
	}
	return out
}

// seriesKey is the key with the period cleared
func (o Observation) seriesKey() ObservationKey {
	k := o.Key()
	k.Period = Period{}
	return k
}

// CompareObservations orders observations by period, region and demographic.
// Metric and source break the remaining ties so the order is total.
func CompareObservations(a, b Observation) int {
	if c := a.Period.Compare(b.Period); c != 0 {
		return c
	}
	if c := strings.Compare(a.Region, b.Region); c != 0 {
		return c
	}
	if c := strings.Compare(a.Demographic.Key(), b.Demographic.Key()); c != 0 {
		return c
	}
	if c := strings.Compare(a.Metric, b.Metric); c != 0 {
		return c
	}
	return strings.Compare(string(a.Source), string(b.Source))
}

// SortObservations sorts in place using CompareObservations
func SortObservations(obs []Observation) {
	sort.SliceStable(obs, func(i, j int) bool {
		return CompareObservations(obs[i], obs[j]) < 0
	})
}

// Dataset is an ordered, deduplicated collection of observations.
// A Dataset is immutable; merging produces a new Dataset.
type Dataset struct {
	observations []Observation
}

// NewDataset deduplicates obs by key (the last occurrence wins) and sorts the result
func NewDataset(obs []Observation) *Dataset {
	index := make(map[ObservationKey]int, len(obs))
	unique := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if i, ok := index[o.Key()]; ok {
			unique[i] = o
			continue
		}
		index[o.Key()] = len(unique)
		unique = append(unique, o)
	}
	SortObservations(unique)
	return &Dataset{observations: unique}
}

// Len returns the number of observations; a nil dataset is empty
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.observations)
}

// At returns the i-th observation in canonical order
func (d *Dataset) At(i int) Observation {
	return d.observations[i]
}

// Observations returns a copy of all observations in canonical order
func (d *Dataset) Observations() []Observation {
	if d == nil {
		return []Observation{}
	}
	out := make([]Observation, len(d.observations))
	copy(out, d.observations)
	return out
}

// Merge returns a new dataset holding d and other; observations from other
// overwrite those of d on key collision
func (d *Dataset) Merge(other *Dataset) *Dataset {
	combined := make([]Observation, 0, d.Len()+other.Len())
	if d != nil {
		combined = append(combined, d.observations...)
	}
	if other != nil {
		combined = append(combined, other.observations...)
	}
	return NewDataset(combined)
}
