package engine

import "math"

// ============================================================================
// FILTERS — Dimension and Measure Filtering via RecordView
// ============================================================================
// Single-pass filters that return a SubView (index list into parent).
// Dimension matching is exact: "Bayview" does not match "bayview".
// ============================================================================

// Filters define which records to include.
// Keys are dimension names, values are allowed values.
// OR within a dimension, AND across dimensions. Empty = all.
type Filters struct {
	Dimensions map[string][]string `json:"dimensions"`
}

// Where returns Filters matching a single dimension value.
func Where(dimension, value string) Filters {
	return Filters{Dimensions: map[string][]string{dimension: {value}}}
}

// IsEmpty returns true if no filters are set.
func (f Filters) IsEmpty() bool {
	for _, vals := range f.Dimensions {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// ApplyFilters returns a view of records matching all dimension filters.
// An empty filter returns the original view. A filter that matches nothing
// returns an empty view, never an error.
func ApplyFilters(view RecordView, filters Filters) RecordView {
	if filters.IsEmpty() {
		return view
	}

	sets := make(map[string]map[string]bool)
	for dim, allowed := range filters.Dimensions {
		if len(allowed) > 0 {
			sets[dim] = toSet(allowed)
		}
	}

	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		pass := true
		for dim, set := range sets {
			if !set[view.Dimension(i, dim)] {
				pass = false
				break
			}
		}
		if pass {
			indices = append(indices, i)
		}
	}

	return newSubView(view, indices)
}

// DropMissing returns a view without the records whose measure is NaN.
// The second return value is the number of records dropped.
func DropMissing(view RecordView, measure string) (RecordView, int) {
	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if !math.IsNaN(view.Measure(i, measure)) {
			indices = append(indices, i)
		}
	}
	if len(indices) == n {
		return view, 0
	}
	return newSubView(view, indices), n - len(indices)
}

// toSet converts a string slice to a lookup set.
func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
