// Package ingest loads manually downloaded labor-statistics files into
// datasets of observations.
//
// Supported inputs are CSV and Excel (.xlsx, .xlsm) files from three
// publishers:
//
//   - BLS LABSTAT extracts (Year + Period codes such as M01, M13, Q02)
//   - ILOSTAT bulk downloads (ref_area, sex, classif1, time, obs_value)
//   - World Bank API, Data360 and databank downloads, in long form or the
//     wide form with one column per year
//
// Header cells are normalized and mapped through a per-source alias table to
// a fixed vocabulary (region, region_name, age, gender, education, period,
// year, month, quarter, metric, value). Columns outside the vocabulary are
// dropped with a warning. Missing-value markers skip the row; anything else
// that cannot be parsed rejects the file with a MALFORMED_INPUT error naming
// the file, row and column.
//
// Each region is assigned a World Bank region group from a built-in ISO3
// catalog; unknown codes fall into "Other".
//
// Example:
//
//	loader := ingest.NewLoader(cfg.Loader, logger, metrics)
//	ds, report, err := loader.LoadDir(ctx, paths.DataDir)
//	for _, msg := range report.Messages() {
//	    logger.Warn(msg)
//	}
package ingest
