package ingest

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"labordash/pkg/contracts/domain"
)

const (
	minYear = 1800
	maxYear = 2200

	// Excel serial day numbers of 1900-01-01 and 9999-12-31
	minExcelSerial = 1
	maxExcelSerial = 2958465
)

var (
	reYear       = regexp.MustCompile(`^(\d{4})(?:\.0+)?$`)
	reYearMonth  = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})$`)
	reDate       = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:[T ].*)?$`)
	reMonthCode  = regexp.MustCompile(`^(\d{4})M(\d{1,2})$`)
	reQuarter    = regexp.MustCompile(`^(\d{4})[-_ ]?Q([1-4])$`)
	reBLSPeriod  = regexp.MustCompile(`^([MQA])(\d{2})$`)
	reNumber     = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
	reMonthIndex = regexp.MustCompile(`^(?:M)?(\d{1,2})$`)
	reQuarterIdx = regexp.MustCompile(`^(?:Q)?([1-4])$`)
)

var monthNames = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// ParsePeriod parses a self-contained period cell: 2019, 2019.0, 2019-03,
// 2019-03-01, 2019M03, 2019Q1, 2019-Q1 or an Excel serial date
func ParsePeriod(raw string) (domain.Period, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))

	if m := reYear.FindStringSubmatch(s); m != nil {
		return yearPeriod(m[1])
	}
	if m := reYearMonth.FindStringSubmatch(s); m != nil {
		return monthPeriod(m[1], m[2])
	}
	if m := reDate.FindStringSubmatch(s); m != nil {
		return monthPeriod(m[1], m[2])
	}
	if m := reMonthCode.FindStringSubmatch(s); m != nil {
		return monthPeriod(m[1], m[2])
	}
	if m := reQuarter.FindStringSubmatch(s); m != nil {
		year, err := parseYear(m[1])
		if err != nil {
			return domain.Period{}, err
		}
		q, _ := strconv.Atoi(m[2])
		return domain.Quarter(year, q), nil
	}
	if reNumber.MatchString(s) {
		return excelSerialPeriod(s)
	}
	return domain.Period{}, fmt.Errorf("unrecognized period %q", raw)
}

// ParseBLSPeriod combines a year with a BLS period code: M01-M12 are months,
// M13 and A01 the annual average, Q01-Q04 quarters and Q05 the annual average
func ParseBLSPeriod(year int, code string) (domain.Period, bool) {
	m := reBLSPeriod.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(code)))
	if m == nil {
		return domain.Period{}, false
	}
	n, _ := strconv.Atoi(m[2])
	switch m[1] {
	case "M":
		switch {
		case n >= 1 && n <= 12:
			return domain.Month(year, n), true
		case n == 13:
			return domain.Year(year), true
		}
	case "Q":
		switch {
		case n >= 1 && n <= 4:
			return domain.Quarter(year, n), true
		case n == 5:
			return domain.Year(year), true
		}
	case "A":
		if n == 1 {
			return domain.Year(year), true
		}
	}
	return domain.Period{}, false
}

// parseMonth accepts 1-12, M03 and English month names or abbreviations
func parseMonth(raw string) (int, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if m := reMonthIndex.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n >= 1 && n <= 12 {
			return n, nil
		}
	}
	if len(s) >= 3 {
		if n, ok := monthNames[strings.ToLower(s[:3])]; ok {
			return n, nil
		}
	}
	return 0, fmt.Errorf("unrecognized month %q", raw)
}

func parseQuarter(raw string) (int, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if m := reQuarterIdx.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n, nil
	}
	return 0, fmt.Errorf("unrecognized quarter %q", raw)
}

func parseYear(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if m := reYear.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("unrecognized year %q", raw)
	}
	if year < minYear || year > maxYear {
		return 0, fmt.Errorf("year %d out of range", year)
	}
	return year, nil
}

func yearPeriod(raw string) (domain.Period, error) {
	year, err := parseYear(raw)
	if err != nil {
		return domain.Period{}, err
	}
	return domain.Year(year), nil
}

func monthPeriod(rawYear, rawMonth string) (domain.Period, error) {
	year, err := parseYear(rawYear)
	if err != nil {
		return domain.Period{}, err
	}
	month, err := strconv.Atoi(rawMonth)
	if err != nil || month < 1 || month > 12 {
		return domain.Period{}, fmt.Errorf("month %q out of range", rawMonth)
	}
	return domain.Month(year, month), nil
}

func excelSerialPeriod(s string) (domain.Period, error) {
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || serial < minExcelSerial || serial > maxExcelSerial {
		return domain.Period{}, fmt.Errorf("unrecognized period %q", s)
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return domain.Period{}, fmt.Errorf("invalid excel date %q: %w", s, err)
	}
	if t.Year() < minYear || t.Year() > maxYear {
		return domain.Period{}, fmt.Errorf("excel date %q out of range", s)
	}
	return domain.Month(t.Year(), int(t.Month())), nil
}

// missingMarkers are the cell values publishers use for "no observation"
var missingMarkers = map[string]bool{
	"":     true,
	"..":   true,
	"...":  true,
	"na":   true,
	"n/a":  true,
	"n.a.": true,
	"-":    true,
	"--":   true,
	"null": true,
	"nan":  true,
	"(na)": true,
}

// IsMissing reports whether a value cell holds a missing-data marker
func IsMissing(raw string) bool {
	return missingMarkers[strings.ToLower(strings.TrimSpace(raw))]
}

// ParseValue parses a numeric cell after removing thousands separators,
// a surrounding percent sign and BLS footnote markers such as "(P)"
func ParseValue(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimPrefix(s, "%")
	if i := strings.Index(s, "("); i > 0 && strings.HasSuffix(s, ")") {
		s = s[:i]
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid number %q", raw)
	}
	return v, nil
}

// CleanDimension strips ILOSTAT label prefixes ("Sex: Female") and
// classification codes ("SEX_F", "AGE_YTHADULT_Y15-24") from a demographic cell
func CleanDimension(col Column, raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.LastIndex(s, ": "); i >= 0 {
		s = strings.TrimSpace(s[i+2:])
	}

	lower := strings.ToLower(s)
	switch col {
	case ColGender:
		switch strings.TrimPrefix(lower, "sex_") {
		case "f", "female", "females", "women":
			return "female"
		case "m", "male", "males", "men":
			return "male"
		case "t", "_t", "total", "both sexes":
			return domain.Total
		}
	case ColAge:
		if strings.HasPrefix(lower, "age_") {
			code := lower[strings.LastIndex(lower, "_")+1:]
			code = strings.TrimPrefix(code, "y")
			if strings.HasPrefix(code, "ge") {
				return strings.TrimPrefix(code, "ge") + "+"
			}
			return code
		}
		return strings.TrimSuffix(lower, " years")
	case ColEducation:
		if strings.HasPrefix(lower, "edu_") {
			return lower[strings.LastIndex(lower, "_")+1:]
		}
	}
	return lower
}
