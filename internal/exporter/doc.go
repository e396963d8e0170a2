// Package exporter writes observations as CSV, either streamed to an HTTP
// response or to a file for the command line.
//
// Exports use the long layout (one value per row with period, region,
// demographic, metric and source columns) and a UTF-8 BOM so spreadsheet
// applications pick the right encoding.
package exporter
