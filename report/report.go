package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/spektr-org/sfhousing/dataset"
	"github.com/spektr-org/sfhousing/engine"
	"github.com/spektr-org/sfhousing/logger"
)

// ============================================================================
// REPORT — The housing dashboard as an ordered list of chart artifacts
// ============================================================================
// Each report reads the shared dataset.Context, derives its own aggregate
// through the engine, and returns one Chart. Nothing is cached or written
// back between reports; Build runs them in display order.
// ============================================================================

// DefaultNeighborhoods are shown when no selection is given.
var DefaultNeighborhoods = []string{"Bayview", "Alamo Square", "Central Richmond"}

// DefaultTopN is the size of the most-expensive ranking.
const DefaultTopN = 10

// Chart is one rendered-ready dashboard panel.
type Chart struct {
	ID      string              `json:"id" yaml:"id"`
	Title   string              `json:"title" yaml:"title"`
	Config  *engine.ChartConfig `json:"config" yaml:"config"`
	Table   *engine.TableData   `json:"table" yaml:"table"`
	Growth  *engine.GrowthData  `json:"growth,omitempty" yaml:"growth,omitempty"`
	Caption string              `json:"caption,omitempty" yaml:"caption,omitempty"`

	// Groups is the derived aggregate behind the chart.
	Groups []engine.Group `json:"-" yaml:"-"`
}

// Empty reports whether the chart has no data to draw.
func (c Chart) Empty() bool { return c.Config.IsEmpty() }

// Dashboard is one complete build.
type Dashboard struct {
	RunID         string    `json:"runId" yaml:"runId"`
	GeneratedAt   time.Time `json:"generatedAt" yaml:"generatedAt"`
	Title         string    `json:"title" yaml:"title"`
	Neighborhoods []string  `json:"neighborhoods" yaml:"neighborhoods"`
	Charts        []Chart   `json:"charts" yaml:"charts"`
}

// Chart returns the chart with the given ID.
func (d *Dashboard) Chart(id string) (Chart, bool) {
	for _, c := range d.Charts {
		if c.ID == id {
			return c, true
		}
	}
	return Chart{}, false
}

// IDs returns the chart IDs in display order.
func (d *Dashboard) IDs() []string {
	ids := make([]string, len(d.Charts))
	for i, c := range d.Charts {
		ids[i] = c.ID
	}
	return ids
}

// ============================================================================
// OPTIONS
// ============================================================================

// MapOptions positions the neighborhood map.
type MapOptions struct {
	CenterLat float64 `json:"centerLat" yaml:"centerLat"`
	CenterLon float64 `json:"centerLon" yaml:"centerLon"`
	Zoom      float64 `json:"zoom" yaml:"zoom"`
	Style     string  `json:"style" yaml:"style"`
	Height    int     `json:"height" yaml:"height"`
}

// DefaultMapOptions centers the map on San Francisco.
func DefaultMapOptions() MapOptions {
	return MapOptions{
		CenterLat: 37.7749,
		CenterLon: -122.4194,
		Zoom:      11,
		Style:     "carto-positron",
		Height:    600,
	}
}

// Option configures a Builder.
type Option func(*options)

type options struct {
	neighborhoods []string
	topN          int
	mapOpts       MapOptions
	lggr          logger.Logger
	runID         string
	now           func() time.Time
}

// WithNeighborhoods selects the neighborhoods for the per-neighborhood
// reports. An empty selection keeps the defaults.
func WithNeighborhoods(names ...string) Option {
	return func(o *options) {
		if len(names) > 0 {
			o.neighborhoods = names
		}
	}
}

// WithTopN sets the size of the most-expensive ranking. Non-positive values
// keep the default.
func WithTopN(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.topN = n
		}
	}
}

// WithMap overrides the map position and style.
func WithMap(m MapOptions) Option {
	return func(o *options) { o.mapOpts = m }
}

// WithLogger sets the logger.
func WithLogger(lggr logger.Logger) Option {
	return func(o *options) {
		if lggr != nil {
			o.lggr = lggr
		}
	}
}

// WithRunID fixes the run ID instead of generating one.
func WithRunID(id string) Option {
	return func(o *options) { o.runID = id }
}

// WithClock sets the time source for GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// ============================================================================
// BUILDER
// ============================================================================

// Builder runs reports against one data context.
type Builder struct {
	data *dataset.Context
	opts options
	lggr logger.Logger
}

// NewBuilder returns a Builder over data.
func NewBuilder(data *dataset.Context, opts ...Option) *Builder {
	o := options{
		neighborhoods: DefaultNeighborhoods,
		topN:          DefaultTopN,
		mapOpts:       DefaultMapOptions(),
		lggr:          logger.Nop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Builder{data: data, opts: o, lggr: o.lggr.Named("report")}
}

// Build runs every report in display order:
// housing units, gross rent, sale price, price per selected neighborhood,
// top expensive, rent vs sale per selected neighborhood, map, sunburst.
func Build(data *dataset.Context, opts ...Option) *Dashboard {
	return NewBuilder(data, opts...).Build()
}

// Build runs every report in display order.
func (b *Builder) Build() *Dashboard {
	runID := b.opts.runID
	if runID == "" {
		runID = uuid.NewString()
	}

	charts := []Chart{
		b.HousingUnitsPerYear(),
		b.GrossRentPerYear(),
		b.SalePricePerYear(),
	}
	for _, n := range b.opts.neighborhoods {
		charts = append(charts, b.PriceByNeighborhood(n))
	}
	charts = append(charts, b.TopExpensive(b.opts.topN))
	for _, n := range b.opts.neighborhoods {
		charts = append(charts, b.RentVsSale(n))
	}
	charts = append(charts, b.NeighborhoodMap(), b.SunburstHierarchy())

	empty := 0
	for _, c := range charts {
		if c.Empty() {
			empty++
		}
	}
	b.lggr.Infow("Built dashboard", "runID", runID, "charts", len(charts), "empty", empty,
		"neighborhoods", b.opts.neighborhoods)

	return &Dashboard{
		RunID:         runID,
		GeneratedAt:   b.opts.now().UTC(),
		Title:         "San Francisco Housing Cost Analysis",
		Neighborhoods: append([]string(nil), b.opts.neighborhoods...),
		Charts:        charts,
	}
}

func (b *Builder) execute(q engine.Query, opts ...engine.Option) *engine.Result {
	opts = append(opts, engine.WithLogger(b.lggr))
	return engine.Execute(q, b.data.View(), opts...)
}
