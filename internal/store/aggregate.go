package store

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"labordash/pkg/contracts/domain"
)

const (
	otherGroup   = "Other"
	unknownGroup = "Unknown"
)

// Series averages the matching observations per period, ascending by period.
// It is the input of the forecaster, so only the finest frequency among the
// matches is kept: annual averages next to monthly figures are left out.
func (s *Store) Series(f domain.Filter) []domain.SeriesPoint {
	byPeriod := make(map[domain.Period][]float64)
	finest := domain.FrequencyAnnual
	for _, o := range s.Query(f) {
		byPeriod[o.Period] = append(byPeriod[o.Period], o.Value)
		if o.Period.Frequency.Finer(finest) {
			finest = o.Period.Frequency
		}
	}

	points := make([]domain.SeriesPoint, 0, len(byPeriod))
	for p, values := range byPeriod {
		if p.Frequency != finest {
			continue
		}
		points = append(points, domain.SeriesPoint{
			Period: p,
			Value:  stat.Mean(values, nil),
			Count:  len(values),
		})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Period.Compare(points[j].Period) < 0
	})
	return points
}

type groupPeriod struct {
	group  string
	period domain.Period
}

// RegionalAverages averages the matching observations per region group and
// period. Groups with fewer than minRegions distinct regions in a period are
// left out, as are unassigned regions. Results are ordered by group, then period.
func (s *Store) RegionalAverages(f domain.Filter, minRegions int) []domain.RegionalAverage {
	values := make(map[groupPeriod][]float64)
	regions := make(map[groupPeriod]map[string]bool)

	for _, o := range s.Query(f) {
		if excludedFromRegional(o.RegionGroup) {
			continue
		}
		k := groupPeriod{group: o.RegionGroup, period: o.Period}
		values[k] = append(values[k], o.Value)
		if regions[k] == nil {
			regions[k] = make(map[string]bool)
		}
		regions[k][o.Region] = true
	}

	out := make([]domain.RegionalAverage, 0, len(values))
	for k, v := range values {
		if len(regions[k]) < minRegions {
			continue
		}
		out = append(out, domain.RegionalAverage{
			RegionGroup: k.group,
			Period:      k.period,
			Average:     stat.Mean(v, nil),
			Regions:     len(regions[k]),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RegionGroup != out[j].RegionGroup {
			return out[i].RegionGroup < out[j].RegionGroup
		}
		return out[i].Period.Compare(out[j].Period) < 0
	})
	return out
}

// Summaries returns per region group the year span, the mean value rounded
// to one decimal and the number of data points, highest average first
func (s *Store) Summaries(f domain.Filter) []domain.RegionSummary {
	type acc struct {
		first, last int
		sum         float64
		n           int
	}
	groups := make(map[string]*acc)

	for _, o := range s.Query(f) {
		g := strings.TrimSpace(o.RegionGroup)
		if g == "" || g == unknownGroup {
			continue
		}
		a, ok := groups[g]
		if !ok {
			a = &acc{first: o.Period.Year, last: o.Period.Year}
			groups[g] = a
		}
		if o.Period.Year < a.first {
			a.first = o.Period.Year
		}
		if o.Period.Year > a.last {
			a.last = o.Period.Year
		}
		a.sum += o.Value
		a.n++
	}

	out := make([]domain.RegionSummary, 0, len(groups))
	for g, a := range groups {
		out = append(out, domain.RegionSummary{
			RegionGroup: g,
			FirstYear:   a.first,
			LastYear:    a.last,
			Average:     round1(a.sum / float64(a.n)),
			DataPoints:  a.n,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Average != out[j].Average {
			return out[i].Average > out[j].Average
		}
		return out[i].RegionGroup < out[j].RegionGroup
	})
	return out
}

// Dimensions lists the values available for filtering in the current dataset
func (s *Store) Dimensions() domain.Dimensions {
	ds := s.snapshot()

	regions := make(map[string]domain.RegionRef)
	groups := make(map[string]bool)
	metrics := make(map[string]bool)
	sources := make(map[domain.Source]bool)
	ages := make(map[string]bool)
	genders := make(map[string]bool)
	educations := make(map[string]bool)

	dims := domain.Dimensions{Observations: ds.Len()}
	for i := 0; i < ds.Len(); i++ {
		o := ds.At(i)
		if ref, ok := regions[o.Region]; !ok || (ref.Name == "" && o.RegionName != "") {
			regions[o.Region] = domain.RegionRef{Code: o.Region, Name: o.RegionName, Group: o.RegionGroup}
		}
		if !excludedFromRegional(o.RegionGroup) {
			groups[o.RegionGroup] = true
		}
		metrics[o.Metric] = true
		sources[o.Source] = true
		ages[o.Demographic.AgeBand] = true
		genders[o.Demographic.Gender] = true
		educations[o.Demographic.Education] = true

		if dims.MinYear == 0 || o.Period.Year < dims.MinYear {
			dims.MinYear = o.Period.Year
		}
		if o.Period.Year > dims.MaxYear {
			dims.MaxYear = o.Period.Year
		}
	}

	dims.Regions = make([]domain.RegionRef, 0, len(regions))
	for _, ref := range regions {
		dims.Regions = append(dims.Regions, ref)
	}
	sort.Slice(dims.Regions, func(i, j int) bool {
		return dims.Regions[i].Code < dims.Regions[j].Code
	})

	dims.Sources = make([]domain.Source, 0, len(sources))
	for _, src := range domain.AllSources {
		if sources[src] {
			dims.Sources = append(dims.Sources, src)
		}
	}

	dims.RegionGroups = sortedKeys(groups)
	dims.Metrics = sortedKeys(metrics)
	dims.AgeBands = sortedKeys(ages)
	dims.Genders = sortedKeys(genders)
	dims.Educations = sortedKeys(educations)
	return dims
}

func excludedFromRegional(group string) bool {
	switch strings.TrimSpace(group) {
	case "", otherGroup, unknownGroup:
		return true
	}
	return false
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
