package engine

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ============================================================================
// STATS — Descriptive statistics over derived aggregates
// ============================================================================

// Stats summarises a set of values. StdDev is the sample standard deviation
// (N−1 denominator); it is 0 when fewer than two values are present.
type Stats struct {
	N      int     `json:"n" yaml:"n"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"stdDev" yaml:"stdDev"`
}

// Describe computes Stats over vals, ignoring NaN. All fields except N are
// NaN when no valid value remains.
func Describe(vals []float64) Stats {
	valid := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		nan := math.NaN()
		return Stats{Min: nan, Max: nan, Mean: nan, StdDev: nan}
	}

	s := Stats{
		N:   len(valid),
		Min: floats.Min(valid),
		Max: floats.Max(valid),
	}
	if len(valid) == 1 {
		s.Mean = valid[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(valid, nil)
	return s
}

// GroupValues returns the aggregated value of measure for each group,
// skipping groups where it is missing.
func GroupValues(groups []Group, measure string) []float64 {
	vals := make([]float64, 0, len(groups))
	for _, g := range groups {
		if v := g.Value(measure); !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	return vals
}

// PaddedRange returns [min − std, max + std] for vals, or nil when there is
// nothing to range over.
func PaddedRange(vals []float64) *AxisRange {
	s := Describe(vals)
	if s.N == 0 {
		return nil
	}
	return &AxisRange{Min: s.Min - s.StdDev, Max: s.Max + s.StdDev}
}

// RoundTo2 rounds to two decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
