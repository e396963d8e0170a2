package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Frequency is the sampling frequency of a time period
type Frequency string

const (
	FrequencyAnnual    Frequency = "annual"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyMonthly   Frequency = "monthly"
)

// rank orders frequencies so an annual figure sorts before the sub-annual
// figures that start in the same month.
func (f Frequency) rank() int {
	switch f {
	case FrequencyQuarterly:
		return 1
	case FrequencyMonthly:
		return 2
	default:
		return 0
	}
}

// Finer reports whether f samples more often than other
func (f Frequency) Finer(other Frequency) bool {
	return f.rank() > other.rank()
}

// stepMonths returns the number of months covered by one period of this frequency
func (f Frequency) stepMonths() int {
	switch f {
	case FrequencyQuarterly:
		return 3
	case FrequencyMonthly:
		return 1
	default:
		return 12
	}
}

// Period identifies the time period of an observation.
// Sub is 0 for annual periods, 1-4 for quarters and 1-12 for months.
type Period struct {
	Year      int
	Sub       int
	Frequency Frequency
}

// Year returns an annual period
func Year(year int) Period {
	return Period{Year: year, Frequency: FrequencyAnnual}
}

// Quarter returns a quarterly period
func Quarter(year, quarter int) Period {
	return Period{Year: year, Sub: quarter, Frequency: FrequencyQuarterly}
}

// Month returns a monthly period
func Month(year, month int) Period {
	return Period{Year: year, Sub: month, Frequency: FrequencyMonthly}
}

// IsZero reports whether the period is unset
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Sub == 0
}

// StartMonth returns the first calendar month (1-12) covered by the period
func (p Period) StartMonth() int {
	switch p.Frequency {
	case FrequencyQuarterly:
		return (p.Sub-1)*3 + 1
	case FrequencyMonthly:
		return p.Sub
	default:
		return 1
	}
}

// Compare returns -1, 0 or +1 depending on whether p sorts before, equal to or after o
func (p Period) Compare(o Period) int {
	switch {
	case p.Year != o.Year:
		return cmpInt(p.Year, o.Year)
	case p.StartMonth() != o.StartMonth():
		return cmpInt(p.StartMonth(), o.StartMonth())
	case p.Frequency.rank() != o.Frequency.rank():
		return cmpInt(p.Frequency.rank(), o.Frequency.rank())
	default:
		return cmpInt(p.Sub, o.Sub)
	}
}

// Before reports whether p sorts strictly before o
func (p Period) Before(o Period) bool {
	return p.Compare(o) < 0
}

// Next returns the period n steps after p at the same frequency
func (p Period) Next(n int) Period {
	if p.Frequency == FrequencyAnnual || p.Frequency == "" {
		return Period{Year: p.Year + n, Frequency: FrequencyAnnual}
	}

	perYear := 12 / p.Frequency.stepMonths()
	idx := p.Year*perYear + (p.Sub - 1) + n
	return Period{
		Year:      floorDiv(idx, perYear),
		Sub:       idx - floorDiv(idx, perYear)*perYear + 1,
		Frequency: p.Frequency,
	}
}

// Decimal returns the period start as a fractional year, used for plotting
func (p Period) Decimal() float64 {
	return float64(p.Year) + float64(p.StartMonth()-1)/12
}

// String renders the canonical form: 2019, 2019-Q1 or 2019-03
func (p Period) String() string {
	switch p.Frequency {
	case FrequencyQuarterly:
		return fmt.Sprintf("%04d-Q%d", p.Year, p.Sub)
	case FrequencyMonthly:
		return fmt.Sprintf("%04d-%02d", p.Year, p.Sub)
	default:
		return fmt.Sprintf("%04d", p.Year)
	}
}

// MarshalText implements encoding.TextMarshaler
func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *Period) UnmarshalText(text []byte) error {
	parsed, err := ParsePeriod(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePeriod parses the canonical period forms produced by String.
// Source-specific layouts are handled by the ingest package.
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	year, rest, found := strings.Cut(s, "-")
	y, err := strconv.Atoi(year)
	if err != nil || len(year) != 4 {
		return Period{}, fmt.Errorf("invalid period %q", s)
	}
	if !found {
		return Year(y), nil
	}

	if q, ok := strings.CutPrefix(strings.ToUpper(rest), "Q"); ok {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 || n > 4 {
			return Period{}, fmt.Errorf("invalid quarter in period %q", s)
		}
		return Quarter(y, n), nil
	}

	m, err := strconv.Atoi(rest)
	if err != nil || m < 1 || m > 12 {
		return Period{}, fmt.Errorf("invalid month in period %q", s)
	}
	return Month(y, m), nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
