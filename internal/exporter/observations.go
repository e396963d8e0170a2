package exporter

import (
	"io"

	"labordash/pkg/contracts/domain"
)

// ObservationHeaders are the columns of an observation export
var ObservationHeaders = []string{
	"period",
	"year",
	"region",
	"region_name",
	"region_group",
	"age_band",
	"gender",
	"education",
	"metric",
	"source",
	"value",
}

// ObservationRecord converts one observation to an export row
func ObservationRecord(o domain.Observation) []string {
	return []string{
		o.Period.String(),
		formatInt(o.Period.Year),
		o.Region,
		o.RegionName,
		o.RegionGroup,
		o.Demographic.AgeBand,
		o.Demographic.Gender,
		o.Demographic.Education,
		o.Metric,
		string(o.Source),
		formatFloat(o.Value),
	}
}

// WriteObservations streams observations as CSV to out. bom prefixes the
// UTF-8 byte order mark for spreadsheet applications.
func WriteObservations(out io.Writer, obs []domain.Observation, bom bool) error {
	records := make([][]string, len(obs))
	for i, o := range obs {
		records[i] = ObservationRecord(o)
	}
	return writeTable(out, ObservationHeaders, records, bom)
}

// ExportObservations writes observations to a CSV file
func (w *CSVWriter) ExportObservations(filePath string, obs []domain.Observation) error {
	records := make([][]string, len(obs))
	for i, o := range obs {
		records[i] = ObservationRecord(o)
	}
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   ObservationHeaders,
		Records:   records,
		BOMPrefix: true,
	})
}
