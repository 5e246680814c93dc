package dataset

import "github.com/spektr-org/sfhousing/schema"

// Sources locates the five tables the dashboard reads. Each location is a
// CSV path or "sqlite://<path>?table=<name>".
type Sources struct {
	GrossRent    string `json:"grossRent" yaml:"grossRent"`
	HousingUnits string `json:"housingUnits" yaml:"housingUnits"`
	SalePrice    string `json:"salePrice" yaml:"salePrice"`
	Coordinates  string `json:"coordinates" yaml:"coordinates"`
	Observations string `json:"observations" yaml:"observations"`
}

// source pairs a location with the schema it must satisfy.
type source struct {
	name     string
	location string
	schema   *schema.Config
}

func (s Sources) list() []source {
	return []source{
		{schema.SourceGrossRent, s.GrossRent, schema.Reference(schema.SourceGrossRent)},
		{schema.SourceHousingUnits, s.HousingUnits, schema.Reference(schema.SourceHousingUnits)},
		{schema.SourceSalePrice, s.SalePrice, schema.Reference(schema.SourceSalePrice)},
		{schema.SourceCoordinates, s.Coordinates, schema.Coordinates()},
		{schema.SourceObservations, s.Observations, schema.Observations()},
	}
}

// Observation is one row of the primary dataset. A measure that failed
// numeric coercion at load time is NaN.
type Observation struct {
	Year         int     `json:"year" yaml:"year"`
	Neighborhood string  `json:"neighborhood" yaml:"neighborhood"`
	SalePrice    float64 `json:"sale_price_sqr_foot" yaml:"sale_price_sqr_foot"`
	HousingUnits float64 `json:"housing_units" yaml:"housing_units"`
	GrossRent    float64 `json:"gross_rent" yaml:"gross_rent"`
}

// Coordinate locates a neighborhood on the map.
type Coordinate struct {
	Neighborhood string  `json:"neighborhood" yaml:"neighborhood"`
	Lat          float64 `json:"lat" yaml:"lat"`
	Lon          float64 `json:"lon" yaml:"lon"`
}

// YearValue is one row of a pre-aggregated reference table.
type YearValue struct {
	Year  int     `json:"year" yaml:"year"`
	Value float64 `json:"value" yaml:"value"`
}

// References holds the three pre-aggregated per-year tables, keyed by
// measure (schema.KeyGrossRent, schema.KeyHousingUnits, schema.KeySalePrice).
type References map[string][]YearValue
