package domain

// ChartKind names a dashboard chart
type ChartKind string

const (
	ChartTimeSeries ChartKind = "timeseries"
	ChartChoropleth ChartKind = "choropleth"
	ChartGroupedBar ChartKind = "grouped_bar"
	ChartRegional   ChartKind = "regional"
	ChartForecast   ChartKind = "forecast"
)

// ChartKinds lists the kinds that can be requested by name
var ChartKinds = []ChartKind{ChartTimeSeries, ChartChoropleth, ChartGroupedBar, ChartRegional}

// ParseChartKind validates a requested chart kind
func ParseChartKind(s string) (ChartKind, bool) {
	for _, k := range ChartKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// ChartSpec is a chart ready for the browser: a Vega-Lite v5 document plus
// the flattened rows it was built from
type ChartSpec struct {
	Kind  ChartKind                `json:"kind"`
	Title string                   `json:"title"`
	Spec  map[string]interface{}   `json:"spec"`
	Rows  []map[string]interface{} `json:"rows"`
}

// SeriesPoint is one aggregated point of a time series
type SeriesPoint struct {
	Period Period  `json:"period"`
	Value  float64 `json:"value"`
	Count  int     `json:"count"`
}

// RegionalAverage is the mean value of a region group in one period
type RegionalAverage struct {
	RegionGroup string  `json:"region_group"`
	Period      Period  `json:"period"`
	Average     float64 `json:"average"`
	Regions     int     `json:"regions"`
}

// RegionSummary holds summary statistics of a region group
type RegionSummary struct {
	RegionGroup string  `json:"region_group"`
	FirstYear   int     `json:"first_year"`
	LastYear    int     `json:"last_year"`
	Average     float64 `json:"average"`
	DataPoints  int     `json:"data_points"`
}

// RegionRef is a region code with its display name
type RegionRef struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

// Dimensions describes the values available for filtering in the loaded dataset
type Dimensions struct {
	Regions      []RegionRef `json:"regions"`
	RegionGroups []string    `json:"region_groups"`
	Metrics      []string    `json:"metrics"`
	Sources      []Source    `json:"sources"`
	AgeBands     []string    `json:"age_bands"`
	Genders      []string    `json:"genders"`
	Educations   []string    `json:"educations"`
	MinYear      int         `json:"min_year"`
	MaxYear      int         `json:"max_year"`
	Observations int         `json:"observations"`
}

// ForecastPoint is one predicted period with its confidence interval
type ForecastPoint struct {
	Period Period  `json:"period"`
	Value  float64 `json:"value"`
	Lower  float64 `json:"lower"`
	Upper  float64 `json:"upper"`
}

// ForecastResult is the transient output of a forecast run
type ForecastResult struct {
	Method     string          `json:"method"`
	Confidence float64         `json:"confidence"`
	Horizon    int             `json:"horizon"`
	History    int             `json:"history"`
	Alpha      float64         `json:"alpha"`
	Beta       float64         `json:"beta"`
	Sigma      float64         `json:"sigma"`
	Points     []ForecastPoint `json:"points"`
}
