package dataset

import (
	"slices"
	"strconv"

	"github.com/spektr-org/sfhousing/engine"
	"github.com/spektr-org/sfhousing/schema"
)

// observationAdapter exposes Observation fields to the engine under the
// declared column keys.
var observationAdapter = engine.NewDomainAdapter[Observation]().
	Dimension(schema.KeyYear, func(o Observation) string { return strconv.Itoa(o.Year) }).
	Dimension(schema.KeyNeighborhood, func(o Observation) string { return o.Neighborhood }).
	Measure(schema.KeySalePrice, func(o Observation) float64 { return o.SalePrice }).
	Measure(schema.KeyHousingUnits, func(o Observation) float64 { return o.HousingUnits }).
	Measure(schema.KeyGrossRent, func(o Observation) float64 { return o.GrossRent })

// Context is the read-only data every report consumes. It is built once,
// by Load or NewContext, and never modified afterwards, so one Context can
// serve concurrent report builds.
type Context struct {
	observations []Observation
	coordinates  []Coordinate
	references   References
	view         engine.RecordView
}

// NewContext builds a Context from in-memory tables. The slices are copied.
func NewContext(observations []Observation, coordinates []Coordinate, references References) *Context {
	c := &Context{
		observations: slices.Clone(observations),
		coordinates:  slices.Clone(coordinates),
		references:   make(References, len(references)),
	}
	for k, v := range references {
		c.references[k] = slices.Clone(v)
	}
	c.view = observationAdapter.Bind(c.observations)
	return c
}

// View returns the observations as an engine record view.
func (c *Context) View() engine.RecordView { return c.view }

// Observations returns a copy of the primary dataset rows.
func (c *Context) Observations() []Observation { return slices.Clone(c.observations) }

// Coordinates returns a copy of the coordinate table.
func (c *Context) Coordinates() []Coordinate { return slices.Clone(c.coordinates) }

// Reference returns a copy of the reference table for measure key, ordered
// by year.
func (c *Context) Reference(key string) []YearValue { return slices.Clone(c.references[key]) }

// Neighborhoods returns the distinct neighborhood names, sorted.
func (c *Context) Neighborhoods() []string {
	return engine.UniqueValues(c.view, schema.KeyNeighborhood)
}

// Years returns the distinct observation years, ascending.
func (c *Context) Years() []int {
	var years []int
	for _, y := range engine.UniqueValues(c.view, schema.KeyYear) {
		n, err := strconv.Atoi(y)
		if err == nil {
			years = append(years, n)
		}
	}
	return years
}

// Len returns the number of observations.
func (c *Context) Len() int { return len(c.observations) }
