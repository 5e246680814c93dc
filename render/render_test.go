package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/sfhousing/dataset"
	"github.com/spektr-org/sfhousing/engine"
	"github.com/spektr-org/sfhousing/report"
)

func barConfig() *engine.ChartConfig {
	return &engine.ChartConfig{
		ChartType: engine.ChartBar,
		Title:     "Average Housing Units",
		XAxis:     "Year",
		YAxis:     "Avg Housing Units",
		YRange:    &engine.AxisRange{Min: 50, Max: 250},
		Series: []engine.ChartSeries{{
			Name:  "Housing Units",
			Color: "#4F46E5",
			Data: []engine.ChartPoint{
				{Label: "2010", Value: 100},
				{Label: "2011", Value: 150},
				{Label: "2012", Value: 200},
			},
		}},
		ShowGrid: true,
	}
}

func mapConfig() *engine.ChartConfig {
	return &engine.ChartConfig{
		ChartType: engine.ChartScatterMap,
		Title:     "Neighborhood Map",
		Height:    600,
		Map: &engine.MapSettings{
			CenterLat: 37.7749, CenterLon: -122.4194, Zoom: 11, Style: "carto-positron",
			SizeLabel: "Sale Price per Square Foot", ColorLabel: "Gross Rent",
		},
		Points: []engine.MapPoint{
			{Label: "Alamo Square", Lat: 37.791, Lon: -122.402, Size: 366, Color: 2817},
			{Label: "Bayview", Lat: 37.734, Lon: -122.401, Size: 204, Color: 2318},
			{Label: "Noe Valley", Lat: 37.750, Lon: -122.433, Size: 528, Color: 3100},
		},
	}
}

func sunburstConfig() *engine.ChartConfig {
	return &engine.ChartConfig{
		ChartType: engine.ChartSunburst,
		Title:     "Cost Analysis",
		Height:    600,
		Labels:    map[string]string{"color": "Gross Rent"},
		Nodes: []engine.SunburstNode{
			{ID: "2010", Label: "2010", Value: 1500, Color: 1239},
			{ID: "2010/A", Label: "A", Parent: "2010", Value: 1000, Color: 1239},
			{ID: "2010/B", Label: "B", Parent: "2010", Value: 500, Color: 1239},
		},
	}
}

// ============================================================================
// PLOTLY
// ============================================================================

func TestNewFigure_Bar(t *testing.T) {
	out, err := json.MarshalIndent(NewFigure(barConfig()), "", "  ")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "bar_figure", out)
}

func TestNewFigure_GroupedBar(t *testing.T) {
	cfg := &engine.ChartConfig{
		ChartType: engine.ChartGroupedBar,
		Title:     "Rent vs Sale",
		Labels:    map[string]string{"value": "USD", "variable": "Metrics"},
		Series: []engine.ChartSeries{
			{Name: "Sale Price per Square Foot", Data: []engine.ChartPoint{{Label: "2010", Value: 291}}},
			{Name: "Gross Rent", Data: []engine.ChartPoint{{Label: "2010", Value: 1239}}},
		},
		Colors: []string{"#111111", "#222222"},
	}
	fig := NewFigure(cfg)

	require.Len(t, fig.Data, 2)
	assert.Equal(t, "group", fig.Layout["barmode"])
	assert.Equal(t, "bar", fig.Data[0]["type"])
	assert.Equal(t, map[string]any{"color": "#222222"}, fig.Data[1]["marker"])
	assert.Equal(t, map[string]any{"title": map[string]any{"text": "Metrics"}}, fig.Layout["legend"])
	yaxis := fig.Layout["yaxis"].(map[string]any)
	assert.Equal(t, map[string]any{"text": "USD"}, yaxis["title"])
}

func TestNewFigure_Line(t *testing.T) {
	cfg := barConfig()
	cfg.ChartType = engine.ChartLine
	fig := NewFigure(cfg)

	require.Len(t, fig.Data, 1)
	assert.Equal(t, "scatter", fig.Data[0]["type"])
	assert.Equal(t, "lines+markers", fig.Data[0]["mode"])
	assert.NotContains(t, fig.Layout, "barmode")
}

func TestNewFigure_Map(t *testing.T) {
	fig := NewFigure(mapConfig())

	require.Len(t, fig.Data, 1)
	tr := fig.Data[0]
	assert.Equal(t, "scattermapbox", tr["type"])
	assert.Equal(t, []string{"Alamo Square", "Bayview", "Noe Valley"}, tr["text"])

	marker := tr["marker"].(map[string]any)
	assert.Equal(t, []float64{2817, 2318, 3100}, marker["color"])
	sizes := marker["size"].([]float64)
	assert.Equal(t, 6.0, sizes[1], "smallest price gets the smallest bubble")
	assert.Equal(t, 30.0, sizes[2])

	mapbox := fig.Layout["mapbox"].(map[string]any)
	assert.Equal(t, "carto-positron", mapbox["style"])
	assert.Equal(t, 11.0, mapbox["zoom"])
	assert.Equal(t, map[string]any{"lat": 37.7749, "lon": -122.4194}, mapbox["center"])
	assert.Equal(t, 600, fig.Layout["height"])
	assert.NotContains(t, fig.Layout, "xaxis")
}

func TestNewFigure_Sunburst(t *testing.T) {
	fig := NewFigure(sunburstConfig())

	require.Len(t, fig.Data, 1)
	tr := fig.Data[0]
	assert.Equal(t, "sunburst", tr["type"])
	assert.Equal(t, []string{"", "2010", "2010"}, tr["parents"])
	assert.Equal(t, []float64{1500, 1000, 500}, tr["values"])
	assert.Equal(t, "total", tr["branchvalues"])
	marker := tr["marker"].(map[string]any)
	assert.Equal(t, map[string]any{"title": map[string]any{"text": "Gross Rent"}}, marker["colorbar"])
}

// ============================================================================
// HTML
// ============================================================================

func dashboard(t *testing.T) *report.Dashboard {
	t.Helper()
	data := dataset.NewContext([]dataset.Observation{
		{Year: 2010, Neighborhood: "Bayview", SalePrice: 200, HousingUnits: 100, GrossRent: 1200},
		{Year: 2011, Neighborhood: "Bayview", SalePrice: 250, HousingUnits: 150, GrossRent: 1500},
		{Year: 2010, Neighborhood: "Alamo Square", SalePrice: 300, HousingUnits: 100, GrossRent: 1200},
		{Year: 2011, Neighborhood: "Alamo Square", SalePrice: 350, HousingUnits: 150, GrossRent: 1500},
	}, []dataset.Coordinate{
		{Neighborhood: "Bayview", Lat: 37.73, Lon: -122.40},
	}, nil)
	return report.Build(data,
		report.WithNeighborhoods("Bayview", "Atlantis"),
		report.WithRunID("run-42"),
		report.WithClock(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }))
}

func TestWritePage(t *testing.T) {
	var buf bytes.Buffer
	err := WritePage(&buf, dashboard(t), PageOptions{
		Available:  []string{"Alamo Square", "Atlantis", "Bayview"},
		ImageLinks: true,
	})
	require.NoError(t, err)
	html := buf.String()

	assert.Contains(t, html, `<script src="`+PlotlyCDN+`"></script>`)
	assert.Contains(t, html, "<title>San Francisco Housing Cost Analysis</title>")
	assert.Contains(t, html, "run run-42 · 2024-05-01 12:00:00 UTC")
	assert.Contains(t, html, `<option value="Bayview" selected>Bayview</option>`)
	assert.Contains(t, html, `<option value="Alamo Square">Alamo Square</option>`)
	assert.Contains(t, html, `<section id="housing-units">`)
	assert.Contains(t, html, `Plotly.newPlot("plot-housing-units"`)
	assert.Contains(t, html, `<a href="/charts/top-10.png">PNG</a>`)

	// Atlantis has no rows: the panel is rendered with a message and no plot.
	assert.Contains(t, html, `<section id="price-atlantis">`)
	assert.NotContains(t, html, `plot-price-atlantis`)
	assert.Contains(t, html, "No data for this selection.")
	assert.NotContains(t, html, "NaN")
}

func TestWritePage_NoSelector(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePage(&buf, dashboard(t), PageOptions{}))
	assert.NotContains(t, buf.String(), "<form")
	assert.NotContains(t, buf.String(), "/charts/")
}

// ============================================================================
// CSV
// ============================================================================

func TestWriteCSV_Table(t *testing.T) {
	c := report.Chart{
		Config: barConfig(),
		Table: &engine.TableData{
			Columns: []engine.Column{{Label: "Year"}, {Label: "Housing Units"}},
			Rows:    [][]string{{"2010", "100.00"}, {"2011", "150.00"}, {"2012", "200.00"}},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, c))

	g := goldie.New(t)
	g.Assert(t, "housing_table", buf.Bytes())
}

func TestWriteCSV_SeriesFallback(t *testing.T) {
	cfg := &engine.ChartConfig{
		XAxis: "Year",
		Series: []engine.ChartSeries{
			{Name: "Sale", Data: []engine.ChartPoint{{Label: "2010", Value: 291.5}, {Label: "2011", Value: 300}}},
			{Name: "Rent", Data: []engine.ChartPoint{{Label: "2011", Value: 1530}}},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, report.Chart{Config: cfg}))
	assert.Equal(t, "Year,Sale,Rent\n2010,291.50,\n2011,300,1530\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteCSV(&buf, report.Chart{}))
	assert.Equal(t, "Result,No data\n", buf.String())
}

// ============================================================================
// IMAGES
// ============================================================================

func TestWriteImage(t *testing.T) {
	line := barConfig()
	line.ChartType = engine.ChartLine
	grouped := barConfig()
	grouped.ChartType = engine.ChartGroupedBar
	grouped.Series = append(grouped.Series, engine.ChartSeries{Name: "Other", Data: grouped.Series[0].Data})

	cases := []struct {
		name string
		cfg  *engine.ChartConfig
	}{
		{"bar", barConfig()},
		{"line", line},
		{"grouped", grouped},
		{"map", mapConfig()},
		{"sunburst", sunburstConfig()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var png bytes.Buffer
			require.NoError(t, WriteImage(&png, tc.cfg, FormatPNG, DefaultImageOptions()))
			assert.True(t, bytes.HasPrefix(png.Bytes(), []byte("\x89PNG")))

			var svg bytes.Buffer
			require.NoError(t, WriteImage(&svg, tc.cfg, FormatSVG, ImageOptions{}))
			assert.True(t, strings.Contains(svg.String(), "<svg"))
		})
	}
}

func TestWriteImage_Errors(t *testing.T) {
	var buf bytes.Buffer
	err := WriteImage(&buf, &engine.ChartConfig{ChartType: engine.ChartBar}, FormatPNG, DefaultImageOptions())
	assert.ErrorIs(t, err, ErrEmptyChart)

	err = WriteImage(&buf, barConfig(), "gif", DefaultImageOptions())
	assert.ErrorContains(t, err, `unsupported image format "gif"`)

	assert.Equal(t, "image/svg+xml", ContentType(FormatSVG))
	assert.Equal(t, "image/png", ContentType(FormatPNG))
}
