package dashboard

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	apperrors "labordash/internal/errors"
	"labordash/pkg/contracts/domain"
)

// bandColor is the translucent fill of forecast intervals
var bandColor = color.NRGBA{R: 31, G: 119, B: 180, A: 64}

// RenderPNG draws a chart built by this renderer as a PNG image of the
// configured size. Choropleths need a map projection and are not supported.
func (r *Renderer) RenderPNG(spec domain.ChartSpec, w io.Writer) error {
	if len(spec.Rows) == 0 {
		return apperrors.NewNotFoundError("chart data")
	}

	p := plot.New()
	p.Title.Text = spec.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	var err error
	switch spec.Kind {
	case domain.ChartTimeSeries:
		p.X.Label.Text = "Period"
		err = addLines(p, spec.Rows, fieldSeries, fieldValue)
	case domain.ChartRegional:
		p.X.Label.Text = "Year"
		err = addLines(p, spec.Rows, fieldRegionGroup, fieldAverage)
	case domain.ChartGroupedBar:
		p.X.Label.Text = "Period"
		err = addBars(p, spec.Rows)
	case domain.ChartForecast:
		p.X.Label.Text = "Period"
		err = addForecast(p, spec.Rows)
	default:
		return apperrors.NewAppValidationError(fmt.Sprintf("%s charts have no image rendering", spec.Kind))
	}
	if err != nil {
		return fmt.Errorf("failed to draw %s chart: %w", spec.Kind, err)
	}

	wt, err := p.WriterTo(pixels(r.width), pixels(r.height), "png")
	if err != nil {
		return fmt.Errorf("failed to render png: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write png: %w", err)
	}
	return nil
}

// pixels converts a pixel count to a length at the 96 dpi PNG default
func pixels(n int) vg.Length {
	return vg.Length(n) * vg.Inch / 96
}

// addLines draws one line per distinct value of key, in order of first appearance
func addLines(p *plot.Plot, rows []object, key, valueField string) error {
	var names []string
	series := make(map[string]plotter.XYs)
	for _, row := range rows {
		name := fmt.Sprint(row[key])
		if _, ok := series[name]; !ok {
			names = append(names, name)
		}
		series[name] = append(series[name], plotter.XY{X: number(row[fieldX]), Y: number(row[valueField])})
	}

	for i, name := range names {
		xys := series[name]
		sort.Slice(xys, func(a, b int) bool { return xys[a].X < xys[b].X })

		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return err
		}
		line.LineStyle.Color = plotutil.Color(i)
		line.LineStyle.Width = vg.Points(1.5)
		points.GlyphStyle.Color = plotutil.Color(i)
		points.GlyphStyle.Shape = plotutil.Shape(i)
		p.Add(line, points)
		p.Legend.Add(name, line, points)
	}
	return nil
}

// addBars draws one bar series per group, side by side within each period.
// A group without data in a period shows no bar.
func addBars(p *plot.Plot, rows []object) error {
	type cell struct{ period, group string }
	values := make(map[cell][]float64)
	periods := make(map[string]bool)
	var groups []string
	seenGroup := make(map[string]bool)

	for _, row := range rows {
		c := cell{period: fmt.Sprint(row[fieldPeriod]), group: fmt.Sprint(row[fieldGroup])}
		values[c] = append(values[c], number(row[fieldValue]))
		periods[c.period] = true
		if !seenGroup[c.group] {
			seenGroup[c.group] = true
			groups = append(groups, c.group)
		}
	}
	sorted := sortedKeys(periods)

	width := vg.Points(math.Max(4, 48/float64(len(groups))))
	for i, g := range groups {
		heights := make(plotter.Values, len(sorted))
		for j, period := range sorted {
			if v := values[cell{period: period, group: g}]; len(v) > 0 {
				heights[j] = stat.Mean(v, nil)
			}
		}

		bars, err := plotter.NewBarChart(heights, width)
		if err != nil {
			return err
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		bars.Offset = vg.Length(float64(i)-float64(len(groups)-1)/2) * width
		p.Add(bars)
		p.Legend.Add(g, bars)
	}
	p.NominalX(sorted...)
	return nil
}

// addForecast draws the history, the forecast and its interval band
func addForecast(p *plot.Plot, rows []object) error {
	var history, forecast, lower, upper plotter.XYs
	for _, row := range rows {
		x := number(row[fieldX])
		if row[fieldKind] == kindHistory {
			history = append(history, plotter.XY{X: x, Y: number(row[fieldValue])})
			continue
		}
		forecast = append(forecast, plotter.XY{X: x, Y: number(row[fieldValue])})
		lower = append(lower, plotter.XY{X: x, Y: number(row[fieldLower])})
		upper = append(upper, plotter.XY{X: x, Y: number(row[fieldUpper])})
	}
	if len(history) == 0 || len(forecast) == 0 {
		return fmt.Errorf("forecast chart has %d history and %d forecast rows", len(history), len(forecast))
	}

	band := make(plotter.XYs, 0, 2*len(upper))
	band = append(band, upper...)
	for i := len(lower) - 1; i >= 0; i-- {
		band = append(band, lower[i])
	}
	poly, err := plotter.NewPolygon(band)
	if err != nil {
		return err
	}
	poly.Color = bandColor
	poly.LineStyle.Width = vg.Length(0)

	histLine, err := plotter.NewLine(history)
	if err != nil {
		return err
	}
	histLine.LineStyle.Color = plotutil.Color(0)
	histLine.LineStyle.Width = vg.Points(1.5)

	fcLine, err := plotter.NewLine(forecast)
	if err != nil {
		return err
	}
	fcLine.LineStyle.Color = plotutil.Color(1)
	fcLine.LineStyle.Width = vg.Points(1.5)
	fcLine.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}

	p.Add(poly, histLine, fcLine)
	p.Legend.Add(kindHistory, histLine)
	p.Legend.Add(kindForecast, fcLine)
	p.Legend.Add("interval", poly)
	return nil
}

func number(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return math.NaN()
	}
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
