package domain

import "strings"

// Filter is a transient query built from the dashboard state.
// Values are OR-combined within a field and AND-combined across fields.
// An empty field places no restriction; matching is case-insensitive.
type Filter struct {
	FromYear     int      `json:"from,omitempty"`
	ToYear       int      `json:"to,omitempty"`
	Regions      []string `json:"regions,omitempty"`
	RegionGroups []string `json:"region_groups,omitempty"`
	AgeBands     []string `json:"age_bands,omitempty"`
	Genders      []string `json:"genders,omitempty"`
	Educations   []string `json:"educations,omitempty"`
	Metrics      []string `json:"metrics,omitempty"`
	Sources      []Source `json:"sources,omitempty"`
}

// IsEmpty reports whether the filter places no restriction at all
func (f Filter) IsEmpty() bool {
	return f.FromYear == 0 && f.ToYear == 0 &&
		len(f.Regions) == 0 && len(f.RegionGroups) == 0 &&
		len(f.AgeBands) == 0 && len(f.Genders) == 0 && len(f.Educations) == 0 &&
		len(f.Metrics) == 0 && len(f.Sources) == 0
}

// Matcher is a compiled filter
type Matcher struct {
	from, to   int
	regions    map[string]bool
	groups     map[string]bool
	ages       map[string]bool
	genders    map[string]bool
	educations map[string]bool
	metrics    map[string]bool
	sources    map[string]bool
}

// Compile prepares lowercase lookup sets for repeated matching
func (f Filter) Compile() *Matcher {
	sources := make([]string, len(f.Sources))
	for i, s := range f.Sources {
		sources[i] = string(s)
	}
	return &Matcher{
		from:       f.FromYear,
		to:         f.ToYear,
		regions:    toLowerSet(f.Regions),
		groups:     toLowerSet(f.RegionGroups),
		ages:       toLowerSet(f.AgeBands),
		genders:    toLowerSet(f.Genders),
		educations: toLowerSet(f.Educations),
		metrics:    toLowerSet(f.Metrics),
		sources:    toLowerSet(sources),
	}
}

// Match reports whether the observation passes every constraint.
// The region selector accepts either the region code or its display name.
func (m *Matcher) Match(o Observation) bool {
	if m.from != 0 && o.Period.Year < m.from {
		return false
	}
	if m.to != 0 && o.Period.Year > m.to {
		return false
	}
	if m.regions != nil && !m.regions[strings.ToLower(o.Region)] && !m.regions[strings.ToLower(o.RegionName)] {
		return false
	}
	return inSet(m.groups, o.RegionGroup) &&
		inSet(m.ages, o.Demographic.AgeBand) &&
		inSet(m.genders, o.Demographic.Gender) &&
		inSet(m.educations, o.Demographic.Education) &&
		inSet(m.metrics, o.Metric) &&
		inSet(m.sources, string(o.Source))
}

func inSet(set map[string]bool, v string) bool {
	return set == nil || set[strings.ToLower(v)]
}

func toLowerSet(items []string) map[string]bool {
	if len(items) == 0 {
		return nil
	}
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(strings.TrimSpace(item))] = true
	}
	return set
}
