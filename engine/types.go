package engine

import "math"

// ============================================================================
// ENGINE TYPES — Records, Groups, and Render-Ready Chart/Table Output
// ============================================================================
// The engine knows nothing about housing: it reads dimensions (strings) and
// measures (float64, NaN = missing) through RecordView and returns groups,
// chart configs, and tables. Domain meaning lives in the report package.
// ============================================================================

// Record is a single data row with string dimensions and numeric measures.
// Derived tables are also expressed as records so they can be viewed,
// filtered, and joined like source rows.
type Record struct {
	Dimensions map[string]string  `json:"dimensions" yaml:"dimensions"`
	Measures   map[string]float64 `json:"measures" yaml:"measures"`
}

// ============================================================================
// GROUP — Intermediate computation result
// ============================================================================

// Group is one row of a derived aggregate: a grouping key and the mean of
// every requested measure over the rows sharing that key.
type Group struct {
	Key       string             `json:"key"`
	Label     string             `json:"label"`
	Values    map[string]float64 `json:"values"` // mean per measure, NaN when no valid value
	Counts    map[string]int     `json:"counts"` // valid (non-NaN) values per measure
	Count     int                `json:"count"`  // rows in the group
	SubGroups []Group            `json:"subGroups,omitempty"`
	View      RecordView         `json:"-"` // Sub-view for records in this group (zero-copy)
}

// Value returns the aggregated value of measure, or NaN if it was not computed.
func (g Group) Value(measure string) float64 {
	v, ok := g.Values[measure]
	if !ok {
		return math.NaN()
	}
	return v
}

// ============================================================================
// CHART TYPES
// ============================================================================

// Chart kinds produced by the builders.
const (
	ChartBar        = "bar"
	ChartGroupedBar = "grouped_bar"
	ChartLine       = "line"
	ChartScatterMap = "scatter_map"
	ChartSunburst   = "sunburst"
)

// ChartConfig describes how to render a chart. It is a pure description;
// drawing it is the presentation layer's job.
type ChartConfig struct {
	ChartType  string            `json:"chartType" yaml:"chartType"`
	Title      string            `json:"title" yaml:"title"`
	XAxis      string            `json:"xAxis,omitempty" yaml:"xAxis,omitempty"`
	YAxis      string            `json:"yAxis,omitempty" yaml:"yAxis,omitempty"`
	YRange     *AxisRange        `json:"yRange,omitempty" yaml:"yRange,omitempty"`
	Series     []ChartSeries     `json:"series" yaml:"series"`
	Colors     []string          `json:"colors,omitempty" yaml:"colors,omitempty"`
	Labels     map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Height     int               `json:"height,omitempty" yaml:"height,omitempty"`
	ShowLegend bool              `json:"showLegend" yaml:"showLegend"`
	ShowGrid   bool              `json:"showGrid" yaml:"showGrid"`

	// Geospatial bubble charts.
	Map    *MapSettings `json:"map,omitempty" yaml:"map,omitempty"`
	Points []MapPoint   `json:"points,omitempty" yaml:"points,omitempty"`

	// Hierarchical charts.
	Nodes []SunburstNode `json:"nodes,omitempty" yaml:"nodes,omitempty"`
}

// IsEmpty reports whether the chart has nothing to draw.
func (c *ChartConfig) IsEmpty() bool {
	if c == nil {
		return true
	}
	for _, s := range c.Series {
		if len(s.Data) > 0 {
			return false
		}
	}
	return len(c.Points) == 0 && len(c.Nodes) == 0
}

// AxisRange pins an axis to [Min, Max].
type AxisRange struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name" yaml:"name"`
	Data  []ChartPoint `json:"data" yaml:"data"`
	Color string       `json:"color,omitempty" yaml:"color,omitempty"`
}

// ChartPoint represents a single data point.
type ChartPoint struct {
	Label string  `json:"label" yaml:"label"`
	Value float64 `json:"value" yaml:"value"`
}

// MapSettings positions a geospatial chart and names its encodings.
type MapSettings struct {
	CenterLat  float64 `json:"centerLat" yaml:"centerLat"`
	CenterLon  float64 `json:"centerLon" yaml:"centerLon"`
	Zoom       float64 `json:"zoom" yaml:"zoom"`
	Style      string  `json:"style" yaml:"style"`
	SizeLabel  string  `json:"sizeLabel" yaml:"sizeLabel"`
	ColorLabel string  `json:"colorLabel" yaml:"colorLabel"`
}

// MapPoint is one bubble on a geospatial chart.
type MapPoint struct {
	Label string  `json:"label" yaml:"label"`
	Lat   float64 `json:"lat" yaml:"lat"`
	Lon   float64 `json:"lon" yaml:"lon"`
	Size  float64 `json:"size" yaml:"size"`
	Color float64 `json:"color" yaml:"color"`
}

// SunburstNode is one sector of a hierarchical chart. Root sectors have an
// empty Parent.
type SunburstNode struct {
	ID     string  `json:"id" yaml:"id"`
	Label  string  `json:"label" yaml:"label"`
	Parent string  `json:"parent" yaml:"parent"`
	Value  float64 `json:"value" yaml:"value"`
	Color  float64 `json:"color" yaml:"color"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData is a derived table rendered as strings.
type TableData struct {
	Title   string     `json:"title" yaml:"title"`
	Columns []Column   `json:"columns" yaml:"columns"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
	Type  string `json:"type" yaml:"type"`   // "text", "number"
	Align string `json:"align" yaml:"align"` // "left", "right"
}

// ============================================================================
// GROWTH
// ============================================================================

// GrowthData contains change-over-time metrics for an ordered series.
type GrowthData struct {
	EarliestValue  float64 `json:"earliestValue" yaml:"earliestValue"`
	LatestValue    float64 `json:"latestValue" yaml:"latestValue"`
	EarliestPeriod string  `json:"earliestPeriod" yaml:"earliestPeriod"`
	LatestPeriod   string  `json:"latestPeriod" yaml:"latestPeriod"`
	ChangeAmount   float64 `json:"changeAmount" yaml:"changeAmount"`
	ChangePercent  float64 `json:"changePercent" yaml:"changePercent"`
	Direction      string  `json:"direction" yaml:"direction"` // "increased", "decreased", "unchanged", "insufficient data"
}
