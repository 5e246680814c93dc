package render

import (
	"github.com/spektr-org/sfhousing/engine"
)

// ============================================================================
// PLOTLY — ChartConfig → Plotly.js figure
// ============================================================================
// A Figure is plain data; it marshals to the {data, layout} object that
// Plotly.newPlot accepts. Maps are used for traces so the JSON keys come
// out sorted and the output is stable across runs.
// ============================================================================

// Figure is a Plotly.js figure.
type Figure struct {
	Data   []map[string]any `json:"data"`
	Layout map[string]any   `json:"layout"`
}

// Sunburst and map color scales.
const (
	mapColorScale      = "Viridis"
	sunburstColorScale = "Blues"
)

// NewFigure converts cfg to a Plotly figure.
func NewFigure(cfg *engine.ChartConfig) Figure {
	f := Figure{Data: []map[string]any{}, Layout: baseLayout(cfg)}

	switch cfg.ChartType {
	case engine.ChartScatterMap:
		f.Data = append(f.Data, mapTrace(cfg))
		f.Layout["mapbox"] = map[string]any{
			"style":  cfg.Map.Style,
			"center": map[string]any{"lat": cfg.Map.CenterLat, "lon": cfg.Map.CenterLon},
			"zoom":   cfg.Map.Zoom,
		}
		f.Layout["margin"] = map[string]any{"r": 0, "t": 40, "l": 0, "b": 0}
	case engine.ChartSunburst:
		f.Data = append(f.Data, sunburstTrace(cfg))
	default:
		for i, s := range cfg.Series {
			f.Data = append(f.Data, seriesTrace(cfg.ChartType, s, colorAt(cfg, s, i)))
		}
		if cfg.ChartType == engine.ChartGroupedBar || (cfg.ChartType == engine.ChartBar && len(cfg.Series) > 1) {
			f.Layout["barmode"] = "group"
		}
	}
	return f
}

func baseLayout(cfg *engine.ChartConfig) map[string]any {
	layout := map[string]any{
		"title":      map[string]any{"text": cfg.Title},
		"showlegend": cfg.ShowLegend,
	}
	if cfg.Height > 0 {
		layout["height"] = cfg.Height
	}
	if cfg.ChartType == engine.ChartScatterMap || cfg.ChartType == engine.ChartSunburst {
		return layout
	}

	yaxis := map[string]any{"title": map[string]any{"text": cfg.YAxis}, "showgrid": cfg.ShowGrid}
	if cfg.YRange != nil {
		yaxis["range"] = []float64{cfg.YRange.Min, cfg.YRange.Max}
	}
	layout["xaxis"] = map[string]any{"title": map[string]any{"text": cfg.XAxis}, "type": "category"}
	layout["yaxis"] = yaxis
	if v := cfg.Labels["variable"]; v != "" {
		layout["legend"] = map[string]any{"title": map[string]any{"text": v}}
	}
	if v := cfg.Labels["value"]; v != "" {
		yaxis["title"] = map[string]any{"text": v}
	}
	return layout
}

func seriesTrace(kind string, s engine.ChartSeries, color string) map[string]any {
	x := make([]string, len(s.Data))
	y := make([]float64, len(s.Data))
	for i, p := range s.Data {
		x[i], y[i] = p.Label, p.Value
	}
	t := map[string]any{
		"name": s.Name,
		"x":    x,
		"y":    y,
	}
	if kind == engine.ChartLine {
		t["type"] = "scatter"
		t["mode"] = "lines+markers"
		t["line"] = map[string]any{"color": color}
		return t
	}
	t["type"] = "bar"
	t["marker"] = map[string]any{"color": color}
	return t
}

func colorAt(cfg *engine.ChartConfig, s engine.ChartSeries, i int) string {
	if s.Color != "" {
		return s.Color
	}
	if i < len(cfg.Colors) {
		return cfg.Colors[i]
	}
	return ""
}

func mapTrace(cfg *engine.ChartConfig) map[string]any {
	n := len(cfg.Points)
	lat := make([]float64, n)
	lon := make([]float64, n)
	text := make([]string, n)
	sizes := make([]float64, n)
	colors := make([]float64, n)
	raw := make([]float64, n)
	for i, p := range cfg.Points {
		lat[i], lon[i], text[i] = p.Lat, p.Lon, p.Label
		raw[i], colors[i] = p.Size, p.Color
	}
	lo, hi := bounds(raw)
	for i, v := range raw {
		sizes[i] = engine.RoundTo2(6 + 24*scale(v, lo, hi))
	}

	hover := "<b>%{text}</b><br>" + cfg.Map.SizeLabel + ": %{customdata[0]:,.2f}<br>" +
		cfg.Map.ColorLabel + ": %{customdata[1]:,.2f}<extra></extra>"

	return map[string]any{
		"type":          "scattermapbox",
		"mode":          "markers",
		"name":          cfg.Title,
		"lat":           lat,
		"lon":           lon,
		"text":          text,
		"customdata":    zip(raw, colors),
		"hovertemplate": hover,
		"marker": map[string]any{
			"size":       sizes,
			"color":      colors,
			"colorscale": mapColorScale,
			"showscale":  true,
			"colorbar":   map[string]any{"title": map[string]any{"text": cfg.Map.ColorLabel}},
		},
	}
}

func sunburstTrace(cfg *engine.ChartConfig) map[string]any {
	n := len(cfg.Nodes)
	ids := make([]string, n)
	labels := make([]string, n)
	parents := make([]string, n)
	values := make([]float64, n)
	colors := make([]float64, n)
	for i, node := range cfg.Nodes {
		ids[i], labels[i], parents[i] = node.ID, node.Label, node.Parent
		values[i], colors[i] = node.Value, node.Color
	}
	t := map[string]any{
		"type":         "sunburst",
		"ids":          ids,
		"labels":       labels,
		"parents":      parents,
		"values":       values,
		"branchvalues": "total",
		"marker": map[string]any{
			"colors":     colors,
			"colorscale": sunburstColorScale,
			"showscale":  true,
		},
	}
	if v := cfg.Labels["color"]; v != "" {
		t["marker"].(map[string]any)["colorbar"] = map[string]any{"title": map[string]any{"text": v}}
	}
	return t
}

func zip(a, b []float64) [][2]float64 {
	out := make([][2]float64, len(a))
	for i := range a {
		out[i] = [2]float64{a[i], b[i]}
	}
	return out
}
