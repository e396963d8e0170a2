package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"labordash/pkg/contracts/domain"
)

func TestNormalizeHeader(t *testing.T) {
	tests := map[string]string{
		"REF_AREA_LABEL":  "ref_area_label",
		"ref_area.label":  "ref_area_label",
		" Age  Group ":    "age_group",
		"\ufeffYear":      "year",
		"2019 [YR2019]":   "2019_yr2019",
		"Value (%)":       "value",
		"countryiso3code": "countryiso3code",
		"--":              "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeHeader(in), "%q", in)
	}
}

func TestMapColumns(t *testing.T) {
	t.Run("world bank databank wide layout", func(t *testing.T) {
		header := []string{"Country Name", "Country Code", "Series Name", "Series Code", "2019 [YR2019]", "2020 [YR2020]"}
		m := mapColumns(header, domain.SourceWorldBank)

		assert.Equal(t, map[Column]int{ColRegionName: 0, ColRegion: 1, ColMetric: 2}, m.index)
		assert.Equal(t, []yearColumn{{index: 4, year: 2019}, {index: 5, year: 2020}}, m.years)
		assert.Equal(t, []string{"Series Code"}, m.dropped)
		assert.True(t, m.wide())
		assert.True(t, looksLikeHeader(m))
	})

	t.Run("bls labstat extract", func(t *testing.T) {
		header := []string{"Series ID", "Year", "Period", "Label", "Value"}
		m := mapColumns(header, domain.SourceBLS)

		assert.Equal(t, map[Column]int{ColMetric: 0, ColYear: 1, ColPeriod: 2, ColValue: 4}, m.index)
		assert.Equal(t, []string{"Label"}, m.dropped)
		assert.False(t, m.wide())
	})

	t.Run("source specific aliases do not leak", func(t *testing.T) {
		m := mapColumns([]string{"countryiso3code", "date", "value"}, domain.SourceILO)
		assert.False(t, m.has(ColRegion))
		assert.Equal(t, []string{"countryiso3code"}, m.dropped)
	})

	t.Run("title rows are not headers", func(t *testing.T) {
		assert.False(t, looksLikeHeader(mapColumns([]string{"World Development Indicators"}, domain.SourceWorldBank)))
		assert.False(t, looksLikeHeader(mapColumns([]string{"Country", "Region"}, domain.SourceWorldBank)))
	})
}
