package engine

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gonum.org/v1/gonum/stat"
)

// ============================================================================
// AGGREGATORS — Grouping, Mean Aggregation, and Sorting via RecordView
// ============================================================================
// All functions operate on RecordView — zero-copy access to any data source.
// Grouping produces SubViews (index lists into parent view).
// Means skip missing (NaN) values, so a row whose measure failed numeric
// coercion reduces that group's denominator instead of poisoning it.
// ============================================================================

// GroupAndAggregate is the main entry point for the aggregation pipeline.
// Pipeline: group → mean per measure → sort → limit.
//
// One group is returned per distinct key. With two groupBy dimensions the
// second level is attached as SubGroups of the first.
func GroupAndAggregate(view RecordView, groupBy []string, measures []string, opts ...Option) []Group {
	cfg := applyOptions(opts)
	if view.Len() == 0 {
		return nil
	}

	// 1. Group
	var groups []Group
	switch len(groupBy) {
	case 0:
		groups = []Group{{Key: "all", Label: "Total", View: view}}
	case 1:
		groups = groupBySingle(view, groupBy[0])
	default:
		groups = groupByMulti(view, groupBy)
	}

	// 2. Aggregate
	for i := range groups {
		aggregateGroup(&groups[i], measures)
		for j := range groups[i].SubGroups {
			aggregateGroup(&groups[i].SubGroups[j], measures)
		}
	}

	// 3. Sort
	SortGroups(groups, cfg.SortBy, cfg.SortMeasure)

	// 4. Limit
	if cfg.Limit > 0 && len(groups) > cfg.Limit {
		groups = groups[:cfg.Limit]
	}

	return groups
}

// ============================================================================
// GROUPING
// ============================================================================

func groupBySingle(view RecordView, dimension string) []Group {
	grouped := make(map[string][]int)
	order := make([]string, 0)

	for i := 0; i < view.Len(); i++ {
		key := view.Dimension(i, dimension)
		if _, exists := grouped[key]; !exists {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], i)
	}

	slices.SortStableFunc(order, CompareKeys)

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		groups = append(groups, Group{
			Key:   key,
			Label: key,
			View:  newSubView(view, grouped[key]),
		})
	}
	return groups
}

func groupByMulti(view RecordView, dimensions []string) []Group {
	primaryGroups := groupBySingle(view, dimensions[0])
	for i := range primaryGroups {
		primaryGroups[i].SubGroups = groupBySingle(primaryGroups[i].View, dimensions[1])
	}
	return primaryGroups
}

// CompareKeys orders group keys: integers numerically, everything else
// lexically, integers before text.
func CompareKeys(a, b string) int {
	ai, aErr := strconv.Atoi(a)
	bi, bErr := strconv.Atoi(b)
	switch {
	case aErr == nil && bErr == nil:
		return cmp.Compare(ai, bi)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	}
	return strings.Compare(a, b)
}

// ============================================================================
// AGGREGATION
// ============================================================================

func aggregateGroup(group *Group, measures []string) {
	group.Count = group.View.Len()
	group.Values = make(map[string]float64, len(measures))
	group.Counts = make(map[string]int, len(measures))
	for _, m := range measures {
		vals := ValidValues(group.View, m)
		group.Counts[m] = len(vals)
		group.Values[m] = meanOf(vals)
	}
}

// ValidValues collects the non-missing values of measure in view order.
func ValidValues(view RecordView, measure string) []float64 {
	vals := make([]float64, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		v := view.Measure(i, measure)
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	return vals
}

// MeanMeasure is the arithmetic mean of the non-missing values of measure.
// Returns NaN when there is none.
func MeanMeasure(view RecordView, measure string) float64 {
	return meanOf(ValidValues(view, measure))
}

func meanOf(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	return stat.Mean(vals, nil)
}

// ============================================================================
// SORTING
// ============================================================================

// SortGroups sorts groups in place. The sort is stable, so exact ties keep
// their key order. NaN values sort last in both value modes.
func SortGroups(groups []Group, sortBy string, measure string) {
	switch sortBy {
	case SortValueDesc:
		slices.SortStableFunc(groups, func(a, b Group) int {
			return compareValues(a.Value(measure), b.Value(measure), true)
		})
	case SortValueAsc:
		slices.SortStableFunc(groups, func(a, b Group) int {
			return compareValues(a.Value(measure), b.Value(measure), false)
		})
	case SortKeyDesc:
		slices.SortStableFunc(groups, func(a, b Group) int { return CompareKeys(b.Key, a.Key) })
	case SortKeyAsc:
		slices.SortStableFunc(groups, func(a, b Group) int { return CompareKeys(a.Key, b.Key) })
	default:
		// preserve grouping order
	}
}

// compareValues orders a before b in the requested direction; NaN always
// goes after numbers.
func compareValues(a, b float64, desc bool) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	case desc:
		return cmp.Compare(b, a)
	}
	return cmp.Compare(a, b)
}

// ============================================================================
// LOOKUPS
// ============================================================================

// UniqueValues returns distinct values for a dimension across a view, in
// key order.
func UniqueValues(view RecordView, dimension string) []string {
	seen := make(map[string]bool)
	var result []string
	for i := 0; i < view.Len(); i++ {
		val := view.Dimension(i, dimension)
		if val != "" && !seen[val] {
			seen[val] = true
			result = append(result, val)
		}
	}
	sortKeys(result)
	return result
}

func sortKeys(keys []string) {
	slices.SortFunc(keys, CompareKeys)
}

// Keys returns the group keys in order.
func Keys(groups []Group) []string {
	keys := make([]string, len(groups))
	for i, g := range groups {
		keys[i] = g.Key
	}
	return keys
}

// ============================================================================
// LABELS
// ============================================================================

// LabelForDimension returns a human-readable label for a column key.
// "sale_price_sqr_foot" → "Sale Price Sqr Foot"
func LabelForDimension(dimension string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(dimension, "_", " "))
}
