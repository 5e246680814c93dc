package engine

import (
	"github.com/spektr-org/sfhousing/logger"
)

// ============================================================================
// EXECUTOR — Runs one Query against a RecordView
// ============================================================================
// Entry point: Execute(query, view, opts...)
//
// Pipeline:
//   1. Apply filters → SubView
//   2. Drop rows missing the first measure (optional)
//   3. Group and aggregate, or list rows as-is
//   4. Build chart series, table, and growth for the result
//
// The source view is never modified; every Execute call derives its own
// groups.
// ============================================================================

// Query describes one derived aggregate and the chart drawn from it.
type Query struct {
	Title    string   `json:"title" yaml:"title"`
	Kind     string   `json:"kind" yaml:"kind"` // chart kind, see Chart* constants
	GroupBy  []string `json:"groupBy" yaml:"groupBy"`
	Measures []string `json:"measures" yaml:"measures"`
	Filters  Filters  `json:"filters" yaml:"filters"`

	// Rows skips aggregation: every filtered record becomes its own group
	// keyed by GroupBy[0], in source order.
	Rows bool `json:"rows,omitempty" yaml:"rows,omitempty"`

	// DropMissing removes records whose first measure is missing before
	// grouping, mirroring a coerce-then-dropna step.
	DropMissing bool `json:"dropMissing,omitempty" yaml:"dropMissing,omitempty"`
}

// Result is the render-ready output of Execute.
type Result struct {
	Groups  []Group      `json:"groups"`
	Chart   *ChartConfig `json:"chart"`
	Table   *TableData   `json:"table"`
	Growth  *GrowthData  `json:"growth,omitempty"`
	Matched int          `json:"matched"` // records after filtering
	Dropped int          `json:"dropped"` // records removed for a missing measure
}

// Execute runs q against view. An empty selection yields an empty result
// (no groups, no chart data), never an error.
//
// Options:
//   - WithSort(mode, measure) — order the groups (default key ascending)
//   - WithLimit(n) — keep the first n groups
//   - WithLogger(lggr) — debug logging of filtering and dropped rows
func Execute(q Query, view RecordView, opts ...Option) *Result {
	cfg := applyOptions(opts)
	lggr := cfg.Logger

	// 1. Filter
	filtered := ApplyFilters(view, q.Filters)
	res := &Result{Matched: filtered.Len()}
	if !q.Filters.IsEmpty() {
		lggr.Debugw("Filtered records", "query", q.Title, "matched", filtered.Len(), "total", view.Len())
	}
	if filtered.Len() == 0 && !q.Filters.IsEmpty() {
		lggr.Debugw("No records match filters", "query", q.Title, "filters", q.Filters.Dimensions)
	}

	// 2. Drop missing
	if q.DropMissing && len(q.Measures) > 0 {
		filtered, res.Dropped = DropMissing(filtered, q.Measures[0])
		if res.Dropped > 0 {
			lggr.Debugw("Dropped records with missing measure",
				"query", q.Title, "measure", q.Measures[0], "dropped", res.Dropped)
		}
	}

	// 3. Group
	if q.Rows {
		key := ""
		if len(q.GroupBy) > 0 {
			key = q.GroupBy[0]
		}
		res.Groups = ListRows(filtered, key, q.Measures)
	} else {
		res.Groups = GroupAndAggregate(filtered, q.GroupBy, q.Measures, opts...)
	}

	// 4. Build
	res.Chart = BuildChart(q.Kind, q.Title, q.GroupBy, q.Measures, res.Groups)
	res.Table = BuildTable(q.Title, q.GroupBy, q.Measures, res.Groups)
	if q.Kind == ChartLine && len(res.Chart.Series) == 1 {
		res.Growth = BuildGrowth(res.Chart.Series[0])
	}
	return res
}

// ListRows turns every record of view into a single-row group keyed by the
// key dimension, in view order.
func ListRows(view RecordView, key string, measures []string) []Group {
	if view.Len() == 0 {
		return nil
	}
	groups := make([]Group, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		label := view.Dimension(i, key)
		g := Group{Key: label, Label: label, View: newSubView(view, []int{i})}
		aggregateGroup(&g, measures)
		groups = append(groups, g)
	}
	return groups
}

// nopLogger is used when no logger option is given.
var nopLogger = logger.Nop()
