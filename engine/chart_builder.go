package engine

import "math"

// ============================================================================
// CHART BUILDER — Produces ChartConfig series from Groups
// ============================================================================
// Points whose aggregated value is missing are skipped, never emitted as
// zero, so a chart only ever shows values that were actually observed.
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// BuildChart produces a ChartConfig of the given kind from aggregated groups.
// Bar and line charts get one series for the first measure, or one per
// sub-group key when the groups are two-level. Grouped bars get one series
// per measure. Map and sunburst charts are returned without series; their
// points and nodes are domain specific.
func BuildChart(kind, title string, groupBy []string, measures []string, groups []Group) *ChartConfig {
	cfg := &ChartConfig{
		ChartType:  kind,
		Title:      title,
		ShowLegend: true,
		ShowGrid:   kind != ChartSunburst && kind != ChartScatterMap,
		Series:     []ChartSeries{},
	}
	if len(groupBy) > 0 {
		cfg.XAxis = LabelForDimension(groupBy[0])
	}
	if len(measures) > 0 {
		cfg.YAxis = LabelForDimension(measures[0])
	}

	switch kind {
	case ChartGroupedBar:
		cfg.Series = BuildMeasureSeries(groups, measures, nil)
	case ChartBar, ChartLine:
		if len(measures) == 0 {
			break
		}
		if hasSubGroups(groups) {
			cfg.Series = buildSubGroupSeries(groups, measures[0])
		} else {
			cfg.Series = []ChartSeries{BuildSeries(groups, measures[0], LabelForDimension(measures[0]))}
		}
		cfg.ShowLegend = len(cfg.Series) > 1
	}

	cfg.Colors = assignColors(len(cfg.Series))
	return cfg
}

// ============================================================================
// SERIES BUILDERS
// ============================================================================

// BuildSeries maps each group's value of measure to a point labelled with
// the group label.
func BuildSeries(groups []Group, measure string, name string) ChartSeries {
	if name == "" {
		name = "Value"
	}
	points := make([]ChartPoint, 0, len(groups))
	for _, g := range groups {
		v := g.Value(measure)
		if math.IsNaN(v) {
			continue
		}
		points = append(points, ChartPoint{Label: g.Label, Value: RoundTo2(v)})
	}
	return ChartSeries{Name: name, Data: points}
}

// BuildMeasureSeries returns one series per measure, side by side over the
// same groups. names overrides the series name per measure.
func BuildMeasureSeries(groups []Group, measures []string, names map[string]string) []ChartSeries {
	series := make([]ChartSeries, 0, len(measures))
	for i, m := range measures {
		name := names[m]
		if name == "" {
			name = LabelForDimension(m)
		}
		s := BuildSeries(groups, m, name)
		s.Color = defaultColors[i%len(defaultColors)]
		series = append(series, s)
	}
	return series
}

func buildSubGroupSeries(groups []Group, measure string) []ChartSeries {
	var subKeys []string
	seen := make(map[string]bool)
	for _, g := range groups {
		for _, sg := range g.SubGroups {
			if !seen[sg.Key] {
				seen[sg.Key] = true
				subKeys = append(subKeys, sg.Key)
			}
		}
	}
	sortKeys(subKeys)

	series := make([]ChartSeries, 0, len(subKeys))
	for i, key := range subKeys {
		points := make([]ChartPoint, 0, len(groups))
		for _, g := range groups {
			for _, sg := range g.SubGroups {
				if sg.Key != key {
					continue
				}
				if v := sg.Value(measure); !math.IsNaN(v) {
					points = append(points, ChartPoint{Label: g.Label, Value: RoundTo2(v)})
				}
			}
		}
		series = append(series, ChartSeries{
			Name:  key,
			Data:  points,
			Color: defaultColors[i%len(defaultColors)],
		})
	}
	return series
}

func hasSubGroups(groups []Group) bool {
	for _, g := range groups {
		if len(g.SubGroups) > 0 {
			return true
		}
	}
	return false
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}
