package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// maxHeaderScan bounds how many leading title rows may precede the header
const maxHeaderScan = 25

// record is one raw row with its 1-based line (CSV) or row number (Excel)
type record struct {
	line  int
	cells []string
}

func (r record) cell(i int) string {
	if i < 0 || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

func (r record) blank() bool {
	for _, c := range r.cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// sheet is a rectangular table read from a CSV file or a workbook sheet
type sheet struct {
	name    string
	records []record
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readCSVFile reads every record of a CSV file. The UTF-8 byte order mark
// written by Excel is stripped; quoting is lenient and rows may differ in width.
func readCSVFile(path string) (*sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return readCSV(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
}

func readCSV(r io.Reader) (*sheet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	s := &sheet{}
	for {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		s.records = append(s.records, record{line: line, cells: cells})
	}
	return s, nil
}

// readWorkbook returns every sheet of an Excel workbook in tab order.
// Cells are read raw so dates arrive as serial numbers.
func readWorkbook(path string) ([]*sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	var sheets []*sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		s := &sheet{name: name, records: make([]record, 0, len(rows))}
		for i, cells := range rows {
			s.records = append(s.records, record{line: i + 1, cells: cells})
		}
		sheets = append(sheets, s)
	}
	return sheets, nil
}
