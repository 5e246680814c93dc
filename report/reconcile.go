package report

import (
	"math"
	"strconv"

	"github.com/spektr-org/sfhousing/dataset"
	"github.com/spektr-org/sfhousing/engine"
	"github.com/spektr-org/sfhousing/schema"
)

// Drift is one year where the mean computed from observations disagrees
// with the reference table.
type Drift struct {
	Year      int     `json:"year" yaml:"year"`
	Computed  float64 `json:"computed" yaml:"computed"`
	Reference float64 `json:"reference" yaml:"reference"`
	Delta     float64 `json:"delta" yaml:"delta"` // relative, Computed/Reference − 1
	Missing   bool    `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// Reconciliation compares one measure's per-year means with its reference
// table.
type Reconciliation struct {
	Measure  string  `json:"measure" yaml:"measure"`
	Years    int     `json:"years" yaml:"years"`
	Matched  int     `json:"matched" yaml:"matched"`
	MaxDelta float64 `json:"maxDelta" yaml:"maxDelta"`
	Drifts   []Drift `json:"drifts,omitempty" yaml:"drifts,omitempty"`
}

// OK reports whether every year matched.
func (r Reconciliation) OK() bool { return len(r.Drifts) == 0 }

// Reconcile recomputes the per-year mean of every reference measure from
// the observations and compares it with the loaded reference table. A year
// is a drift when the relative difference exceeds tolerance or when either
// side lacks the year.
func Reconcile(data *dataset.Context, tolerance float64) []Reconciliation {
	measures := []string{schema.KeyGrossRent, schema.KeyHousingUnits, schema.KeySalePrice}
	groups := engine.GroupAndAggregate(data.View(), []string{schema.KeyYear}, measures)

	out := make([]Reconciliation, 0, len(measures))
	for _, m := range measures {
		ref := make(map[int]float64)
		for _, yv := range data.Reference(m) {
			ref[yv.Year] = yv.Value
		}

		rec := Reconciliation{Measure: m}
		seen := make(map[int]bool)
		for _, g := range groups {
			year, err := strconv.Atoi(g.Key)
			if err != nil {
				continue
			}
			computed := g.Value(m)
			if math.IsNaN(computed) {
				continue
			}
			seen[year] = true
			rec.Years++

			want, ok := ref[year]
			if !ok {
				rec.Drifts = append(rec.Drifts, Drift{Year: year, Computed: computed, Missing: true})
				continue
			}
			delta := relativeDelta(computed, want)
			rec.MaxDelta = math.Max(rec.MaxDelta, math.Abs(delta))
			if math.Abs(delta) > tolerance {
				rec.Drifts = append(rec.Drifts, Drift{Year: year, Computed: computed, Reference: want, Delta: delta})
				continue
			}
			rec.Matched++
		}
		for _, yv := range data.Reference(m) {
			if !seen[yv.Year] {
				rec.Years++
				rec.Drifts = append(rec.Drifts, Drift{Year: yv.Year, Reference: yv.Value, Missing: true})
			}
		}
		out = append(out, rec)
	}
	return out
}

func relativeDelta(computed, reference float64) float64 {
	if reference == 0 {
		if computed == 0 {
			return 0
		}
		return 1
	}
	return computed/reference - 1
}
