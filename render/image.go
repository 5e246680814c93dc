package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/spektr-org/sfhousing/engine"
)

// ============================================================================
// IMAGE — Static PNG/SVG rendering of chart configs
// ============================================================================
// Bar charts with one series draw as bars. Lines, grouped bars and
// multi-series bars draw as one line per series over the category axis.
// The map draws as a lon/lat bubble scatter and the sunburst as a pie of
// its outer ring.
// ============================================================================

// Image formats.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

// ErrEmptyChart is returned when a chart has nothing to draw.
var ErrEmptyChart = errors.New("chart has no data")

// ImageOptions sizes a rendered image.
type ImageOptions struct {
	Width  int
	Height int
}

// DefaultImageOptions is 1024×600.
func DefaultImageOptions() ImageOptions {
	return ImageOptions{Width: 1024, Height: 600}
}

// WriteImage renders cfg as format ("png" or "svg") to w.
func WriteImage(w io.Writer, cfg *engine.ChartConfig, format string, opts ImageOptions) error {
	provider, err := rendererFor(format)
	if err != nil {
		return err
	}
	if cfg.IsEmpty() {
		return ErrEmptyChart
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts = DefaultImageOptions()
	}

	var r interface {
		Render(chart.RendererProvider, io.Writer) error
	}
	switch {
	case cfg.ChartType == engine.ChartScatterMap:
		r = bubbleChart(cfg, opts)
	case cfg.ChartType == engine.ChartSunburst:
		r = pieChart(cfg, opts)
	case cfg.ChartType == engine.ChartBar && len(cfg.Series) == 1:
		r = barChart(cfg, opts)
	default:
		r = lineChart(cfg, opts)
	}

	if err := r.Render(provider, w); err != nil {
		return fmt.Errorf("render %s %q: %w", cfg.ChartType, cfg.Title, err)
	}
	return nil
}

func rendererFor(format string) (chart.RendererProvider, error) {
	switch format {
	case FormatPNG:
		return chart.PNG, nil
	case FormatSVG:
		return chart.SVG, nil
	}
	return nil, fmt.Errorf("unsupported image format %q", format)
}

// ContentType returns the MIME type of an image format.
func ContentType(format string) string {
	if format == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// ── Builders ─────────────────────────────────────────────────────────────

func background() chart.Style {
	return chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}}
}

// valueRange pins the y-axis to the configured range. Without one the
// axis is left to go-chart unless every value is equal, which go-chart
// cannot scale.
func valueRange(cfg *engine.ChartConfig) *chart.ContinuousRange {
	if cfg.YRange != nil {
		if cfg.YRange.Min == cfg.YRange.Max {
			return padded(cfg.YRange.Min, cfg.YRange.Max)
		}
		return &chart.ContinuousRange{Min: cfg.YRange.Min, Max: cfg.YRange.Max}
	}
	var vals []float64
	for _, s := range cfg.Series {
		for _, p := range s.Data {
			vals = append(vals, p.Value)
		}
	}
	lo, hi := bounds(vals)
	if len(vals) == 0 || lo != hi {
		return nil
	}
	return padded(lo, hi)
}

// padded widens [lo, hi] by 10% of its width on each side. A zero-width
// range is widened by 10% of its value, at least 1.
func padded(lo, hi float64) *chart.ContinuousRange {
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = math.Max(1, math.Abs(lo)*0.1)
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func barChart(cfg *engine.ChartConfig, opts ImageOptions) *chart.BarChart {
	s := cfg.Series[0]
	bars := make([]chart.Value, 0, len(s.Data))
	fill := colorOf(s.Color, 0)
	for _, p := range s.Data {
		bars = append(bars, chart.Value{
			Label: p.Label,
			Value: p.Value,
			Style: chart.Style{FillColor: fill, StrokeColor: fill},
		})
	}

	bc := &chart.BarChart{
		Title:      cfg.Title,
		Background: background(),
		Width:      opts.Width,
		Height:     opts.Height,
		BarWidth:   barWidth(opts.Width, len(bars)),
		Bars:       bars,
		YAxis:      chart.YAxis{Name: cfg.YAxis},
	}
	if r := valueRange(cfg); r != nil {
		bc.YAxis.Range = r
	}
	return bc
}

func barWidth(width, n int) int {
	if n == 0 {
		return 0
	}
	return max(8, min(60, (width-120)/(2*n)))
}

func lineChart(cfg *engine.ChartConfig, opts ImageOptions) *chart.Chart {
	labels := categoryLabels(cfg.Series)
	index := make(map[string]float64, len(labels))
	ticks := make([]chart.Tick, len(labels))
	for i, l := range labels {
		index[l] = float64(i)
		ticks[i] = chart.Tick{Value: float64(i), Label: l}
	}

	series := make([]chart.Series, 0, len(cfg.Series))
	for i, s := range cfg.Series {
		xs := make([]float64, 0, len(s.Data))
		ys := make([]float64, 0, len(s.Data))
		for _, p := range s.Data {
			xs = append(xs, index[p.Label])
			ys = append(ys, p.Value)
		}
		col := colorOf(s.Color, i)
		series = append(series, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeColor: col, StrokeWidth: 2, DotColor: col, DotWidth: 3},
		})
	}

	ch := &chart.Chart{
		Title:      cfg.Title,
		Background: background(),
		Width:      opts.Width,
		Height:     opts.Height,
		XAxis: chart.XAxis{
			Name:  cfg.XAxis,
			Ticks: ticks,
			Range: &chart.ContinuousRange{Min: -0.5, Max: float64(len(labels)) - 0.5},
		},
		YAxis:      chart.YAxis{Name: cfg.YAxis},
		Series:     series,
	}
	if r := valueRange(cfg); r != nil {
		ch.YAxis.Range = r
	}
	if len(series) > 1 {
		ch.Elements = []chart.Renderable{chart.Legend(ch)}
	}
	return ch
}

// categoryLabels returns every point label in first-seen order.
func categoryLabels(series []engine.ChartSeries) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, s := range series {
		for _, p := range s.Data {
			if !seen[p.Label] {
				seen[p.Label] = true
				labels = append(labels, p.Label)
			}
		}
	}
	return labels
}

func bubbleChart(cfg *engine.ChartConfig, opts ImageOptions) *chart.Chart {
	pts := cfg.Points
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	sizes := make([]float64, len(pts))
	colors := make([]float64, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = p.Lon, p.Lat
		sizes[i], colors[i] = p.Size, p.Color
	}
	sMin, sMax := bounds(sizes)
	cMin, cMax := bounds(colors)
	lonMin, lonMax := bounds(xs)
	latMin, latMax := bounds(ys)

	return &chart.Chart{
		Title:      cfg.Title,
		Background: background(),
		Width:      opts.Width,
		Height:     opts.Height,
		XAxis:      chart.XAxis{Name: "Longitude", Range: padded(lonMin, lonMax)},
		YAxis:      chart.YAxis{Name: "Latitude", Range: padded(latMin, latMax)},
		Series: []chart.Series{chart.ContinuousSeries{
			Name:    cfg.Title,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidthProvider: func(_, _ chart.Range, i int, _, _ float64) float64 {
					return 4 + 16*scale(sizes[i], sMin, sMax)
				},
				DotColorProvider: func(_, _ chart.Range, i int, _, _ float64) drawing.Color {
					return chart.Viridis(colors[i], cMin, cMax)
				},
			},
		}},
	}
}

func pieChart(cfg *engine.ChartConfig, opts ImageOptions) *chart.PieChart {
	var values []chart.Value
	for _, n := range cfg.Nodes {
		if n.Parent == "" {
			continue
		}
		values = append(values, chart.Value{Label: n.ID, Value: n.Value})
	}
	return &chart.PieChart{
		Title:      cfg.Title,
		Background: background(),
		Width:      opts.Width,
		Height:     opts.Height,
		Values:     values,
	}
}

// ── Helpers ──────────────────────────────────────────────────────────────

func bounds(vals []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	return lo, hi
}

// scale maps v into [0, 1] over [lo, hi].
func scale(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0.5
	}
	return (v - lo) / (hi - lo)
}

// colorOf parses a "#RRGGBB" series color, falling back to the go-chart
// palette.
func colorOf(hex string, i int) drawing.Color {
	if hex == "" {
		return chart.GetDefaultColor(i)
	}
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}
