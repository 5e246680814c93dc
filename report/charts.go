package report

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/spektr-org/sfhousing/engine"
	"github.com/spektr-org/sfhousing/schema"
)

// Axis labels.
const (
	labelYear          = "Year"
	labelHousingUnits  = "Avg Housing Units"
	labelGrossRent     = "Gross Rent"
	labelAvgSalePrice  = "Avg. Sale Price per Square Foot"
	labelSalePrice     = "Sale Price per Square Foot"
	labelNeighborhood  = "San Francisco Neighborhood"
)

// ============================================================================
// PER-YEAR REPORTS
// ============================================================================

// HousingUnitsPerYear is the mean housing units per year as a bar chart.
// The y-axis spans [min − std, max + std] of the per-year means, using the
// sample standard deviation.
func (b *Builder) HousingUnitsPerYear() Chart {
	res := b.execute(engine.Query{
		Kind:     engine.ChartBar,
		GroupBy:  []string{schema.KeyYear},
		Measures: []string{schema.KeyHousingUnits},
	})

	title := "Average Housing Units in San Francisco"
	if n := len(res.Groups); n > 0 {
		title = fmt.Sprintf("%s from %s-%s", title, res.Groups[0].Key, res.Groups[n-1].Key)
	}

	cfg := res.Chart
	cfg.Title = title
	cfg.XAxis = labelYear
	cfg.YAxis = labelHousingUnits
	cfg.ShowLegend = false
	cfg.YRange = engine.PaddedRange(engine.GroupValues(res.Groups, schema.KeyHousingUnits))

	c := chart("housing-units", res)
	c.Growth = growthOf(cfg)
	c.Caption = engine.GrowthCaption(c.Growth, "units")
	return c
}

// GrossRentPerYear is the mean gross rent per year as a line chart.
func (b *Builder) GrossRentPerYear() Chart {
	res := b.execute(engine.Query{
		Title:    "Average Gross Rent in San Francisco Per Year",
		Kind:     engine.ChartLine,
		GroupBy:  []string{schema.KeyYear},
		Measures: []string{schema.KeyGrossRent},
	})
	res.Chart.XAxis = labelYear
	res.Chart.YAxis = labelGrossRent

	c := chart("gross-rent", res)
	c.Caption = engine.GrowthCaption(c.Growth, "USD")
	return c
}

// SalePricePerYear is the mean sale price per square foot per year as a
// line chart.
func (b *Builder) SalePricePerYear() Chart {
	res := b.execute(engine.Query{
		Title:    "Average Sale Price Per Square Foot in San Francisco Per Year",
		Kind:     engine.ChartLine,
		GroupBy:  []string{schema.KeyYear},
		Measures: []string{schema.KeySalePrice},
	})
	res.Chart.XAxis = labelYear
	res.Chart.YAxis = labelAvgSalePrice

	c := chart("sale-price", res)
	c.Caption = engine.GrowthCaption(c.Growth, "USD")
	return c
}

// ============================================================================
// PER-NEIGHBORHOOD REPORTS
// ============================================================================

// PriceByNeighborhood is the mean sale price per year for one neighborhood.
// Rows whose price is missing are dropped before averaging. An unknown
// name yields an empty chart.
func (b *Builder) PriceByNeighborhood(name string) Chart {
	res := b.execute(engine.Query{
		Title:       "Average Prices by Neighborhood: " + name,
		Kind:        engine.ChartLine,
		GroupBy:     []string{schema.KeyYear},
		Measures:    []string{schema.KeySalePrice},
		Filters:     engine.Where(schema.KeyNeighborhood, name),
		DropMissing: true,
	})
	b.logUnknown(name, res)
	res.Chart.XAxis = labelYear
	res.Chart.YAxis = labelAvgSalePrice

	c := chart("price-"+slug(name), res)
	c.Caption = engine.GrowthCaption(c.Growth, "USD")
	return c
}

// TopExpensive ranks neighborhoods by mean sale price, highest first, and
// keeps the first n. Ties keep alphabetical order.
func (b *Builder) TopExpensive(n int) Chart {
	if n <= 0 {
		n = DefaultTopN
	}
	res := b.execute(engine.Query{
		Title:    fmt.Sprintf("Top %d Most Expensive Neighborhoods in San Francisco", n),
		Kind:     engine.ChartBar,
		GroupBy:  []string{schema.KeyNeighborhood},
		Measures: []string{schema.KeySalePrice},
	}, engine.WithSort(engine.SortValueDesc, schema.KeySalePrice), engine.WithLimit(n))
	res.Chart.XAxis = labelNeighborhood
	res.Chart.YAxis = labelSalePrice

	c := chart(fmt.Sprintf("top-%d", n), res)
	if len(res.Groups) > 0 {
		top := res.Groups[0]
		c.Caption = fmt.Sprintf("Most expensive: %s at %s per square foot",
			top.Label, engine.FormatValue(top.Value(schema.KeySalePrice), "USD"))
	}
	return c
}

// RentVsSale shows the raw per-year sale price and gross rent of one
// neighborhood side by side. No aggregation is applied.
func (b *Builder) RentVsSale(name string) Chart {
	res := b.execute(engine.Query{
		Title:    "Comparison of Sale Price per Square Foot and Gross Rent: " + name,
		Kind:     engine.ChartGroupedBar,
		GroupBy:  []string{schema.KeyYear},
		Measures: []string{schema.KeySalePrice, schema.KeyGrossRent},
		Filters:  engine.Where(schema.KeyNeighborhood, name),
		Rows:     true,
	})
	b.logUnknown(name, res)

	cfg := res.Chart
	cfg.XAxis = labelYear
	cfg.YAxis = "USD"
	cfg.Labels = map[string]string{"value": "USD", "variable": "Metrics"}
	cfg.Series = engine.BuildMeasureSeries(res.Groups, []string{schema.KeySalePrice, schema.KeyGrossRent},
		map[string]string{schema.KeySalePrice: labelSalePrice, schema.KeyGrossRent: labelGrossRent})

	return chart("rent-vs-sale-"+slug(name), res)
}

func (b *Builder) logUnknown(name string, res *engine.Result) {
	if res.Matched == 0 {
		b.lggr.Debugw("Unknown neighborhood, chart is empty", "neighborhood", name)
	}
}

// ============================================================================
// MAP + SUNBURST
// ============================================================================

// NeighborhoodMap averages every measure per neighborhood and inner-joins
// the result with the coordinate table. Neighborhoods without coordinates
// are left out. Bubble size is the sale price, color the gross rent.
func (b *Builder) NeighborhoodMap() Chart {
	measures := []string{schema.KeySalePrice, schema.KeyHousingUnits, schema.KeyGrossRent}
	groups := engine.GroupAndAggregate(b.data.View(), []string{schema.KeyNeighborhood}, measures)

	coords := b.data.Coordinates()
	var (
		points   []engine.MapPoint
		joined   []engine.Record
		unplaced []string
	)
	for _, g := range groups {
		matched := false
		for _, co := range coords {
			if co.Neighborhood != g.Key {
				continue
			}
			matched = true
			joined = append(joined, engine.Record{
				Dimensions: map[string]string{schema.KeyNeighborhood: g.Key},
				Measures: map[string]float64{
					schema.KeyLat:          co.Lat,
					schema.KeyLon:          co.Lon,
					schema.KeySalePrice:    g.Value(schema.KeySalePrice),
					schema.KeyHousingUnits: g.Value(schema.KeyHousingUnits),
					schema.KeyGrossRent:    g.Value(schema.KeyGrossRent),
				},
			})
			size, color := g.Value(schema.KeySalePrice), g.Value(schema.KeyGrossRent)
			if math.IsNaN(size) || math.IsNaN(color) {
				continue
			}
			points = append(points, engine.MapPoint{
				Label: g.Label,
				Lat:   co.Lat,
				Lon:   co.Lon,
				Size:  engine.RoundTo2(size),
				Color: engine.RoundTo2(color),
			})
		}
		if !matched {
			unplaced = append(unplaced, g.Key)
		}
	}
	if len(unplaced) > 0 {
		b.lggr.Debugw("Neighborhoods without coordinates left off the map", "neighborhoods", unplaced)
	}

	m := b.opts.mapOpts
	cfg := &engine.ChartConfig{
		ChartType:  engine.ChartScatterMap,
		Title:      "Neighborhood Map",
		Series:     []engine.ChartSeries{},
		Height:     m.Height,
		ShowLegend: true,
		Map: &engine.MapSettings{
			CenterLat:  m.CenterLat,
			CenterLon:  m.CenterLon,
			Zoom:       m.Zoom,
			Style:      m.Style,
			SizeLabel:  labelSalePrice,
			ColorLabel: labelGrossRent,
		},
		Points: points,
	}

	tableMeasures := []string{schema.KeyLat, schema.KeyLon, schema.KeySalePrice, schema.KeyHousingUnits, schema.KeyGrossRent}
	rows := engine.ListRows(engine.NewSliceView(joined), schema.KeyNeighborhood, tableMeasures)

	return Chart{
		ID:      "neighborhood-map",
		Title:   cfg.Title,
		Config:  cfg,
		Table:   engine.BuildTable(cfg.Title, []string{schema.KeyNeighborhood}, tableMeasures, rows),
		Caption: fmt.Sprintf("%d of %d neighborhoods placed on the map", len(points), len(groups)),
		Groups:  rows,
	}
}

// SunburstHierarchy groups the most expensive neighborhoods by year, then
// neighborhood. Sector size is the mean sale price, color the mean gross
// rent. A year sector sums its neighborhoods and takes their value-weighted
// mean rent as its color.
func (b *Builder) SunburstHierarchy() Chart {
	top := b.TopExpensive(b.opts.topN)
	names := engine.Keys(top.Groups)

	res := b.execute(engine.Query{
		Title:    "Cost Analysis of Most Expensive Neighborhoods in San Francisco",
		Kind:     engine.ChartSunburst,
		GroupBy:  []string{schema.KeyYear, schema.KeyNeighborhood},
		Measures: []string{schema.KeySalePrice, schema.KeyGrossRent},
		Filters:  engine.Filters{Dimensions: map[string][]string{schema.KeyNeighborhood: names}},
	})
	if len(names) == 0 {
		// An empty filter would select everything.
		res.Groups = nil
		res.Table.Rows = [][]string{}
	}

	var nodes []engine.SunburstNode
	for _, year := range res.Groups {
		var children []engine.SunburstNode
		var total, weighted float64
		for _, sg := range year.SubGroups {
			value, color := sg.Value(schema.KeySalePrice), sg.Value(schema.KeyGrossRent)
			if math.IsNaN(value) || math.IsNaN(color) {
				continue
			}
			leaf := engine.SunburstNode{
				ID:     year.Key + "/" + sg.Key,
				Label:  sg.Label,
				Parent: year.Key,
				Value:  engine.RoundTo2(value),
				Color:  engine.RoundTo2(color),
			}
			children = append(children, leaf)
			// Parent value and colour come from the rounded leaves.
			total += leaf.Value
			weighted += leaf.Value * leaf.Color
		}
		if len(children) == 0 {
			continue
		}
		color := 0.0
		if total != 0 {
			color = weighted / total
		}
		nodes = append(nodes, engine.SunburstNode{
			ID:    year.Key,
			Label: year.Label,
			Value: engine.RoundTo2(total),
			Color: engine.RoundTo2(color),
		})
		nodes = append(nodes, children...)
	}

	cfg := res.Chart
	cfg.XAxis, cfg.YAxis = "", ""
	cfg.Nodes = nodes
	cfg.Height = 600
	cfg.Labels = map[string]string{"value": labelSalePrice, "color": labelGrossRent}

	c := chart("sunburst", res)
	c.Caption = fmt.Sprintf("%d neighborhoods across %d years", len(names), len(res.Groups))
	return c
}

// ============================================================================
// HELPERS
// ============================================================================

func chart(id string, res *engine.Result) Chart {
	return Chart{
		ID:     id,
		Title:  res.Chart.Title,
		Config: res.Chart,
		Table:  withTitle(res.Table, res.Chart.Title),
		Growth: res.Growth,
		Groups: res.Groups,
	}
}

func withTitle(t *engine.TableData, title string) *engine.TableData {
	t.Title = title
	return t
}

func growthOf(cfg *engine.ChartConfig) *engine.GrowthData {
	if len(cfg.Series) != 1 {
		return nil
	}
	return engine.BuildGrowth(cfg.Series[0])
}

// slug turns a neighborhood name into an ID fragment: "Alamo Square" → "alamo-square".
func slug(name string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			dash = false
			continue
		}
		if !dash && sb.Len() > 0 {
			sb.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}
