package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// BLSYouthCSV is a national BLS unemployment extract with two age bands and
// one annual average (period M13) per year from 2019 through 2023. The file
// has no region or metric column.
const BLSYouthCSV = `Year,Period,Age Group,Sex,Value
2019,M13,16-24,Both Sexes,8.4
2020,M13,16-24,Both Sexes,14.9
2021,M13,16-24,Both Sexes,9.7
2022,M13,16-24,Both Sexes,8.1
2023,M13,16-24,Both Sexes,7.9
2019,M13,25-54,Both Sexes,3.0
2020,M13,25-54,Both Sexes,7.0
2021,M13,25-54,Both Sexes,4.9
2022,M13,25-54,Both Sexes,3.1
2023,M13,25-54,Both Sexes,3.0
`

// WorldBankLongCSV mirrors the World Bank API CSV layout: one row per country and year.
const WorldBankLongCSV = `country,countryiso3code,date,value
Brazil,BRA,2021,53.2
Brazil,BRA,2022,54.1
Mexico,MEX,2021,44.0
Mexico,MEX,2022,45.7
Argentina,ARG,2021,51.5
Argentina,ARG,2022,52.0
Chile,CHL,2022,
`

// WriteFile writes content under dir, creating parent directories, and returns the path
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// WriteXLSX writes rows into the first sheet of a new workbook. Title rows
// may precede the header row.
func WriteXLSX(t *testing.T, dir, name string, rows [][]interface{}) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	return path
}
