package schema

import (
	"fmt"
	"slices"
	"strings"
)

// ============================================================================
// DECLARED SOURCES — Column contracts for the five housing sources
// ============================================================================

// Source names.
const (
	SourceGrossRent    = "gross_rent"
	SourceHousingUnits = "housing_units"
	SourceSalePrice    = "sale_price"
	SourceCoordinates  = "coordinates"
	SourceObservations = "observations"
)

// Column keys shared by the engine, the reports, and the renderers.
const (
	KeyYear         = "year"
	KeyNeighborhood = "neighborhood"
	KeySalePrice    = "sale_price_sqr_foot"
	KeyHousingUnits = "housing_units"
	KeyGrossRent    = "gross_rent"
	KeyLat          = "lat"
	KeyLon          = "lon"
)

func yearDimension() DimensionMeta {
	return DimensionMeta{
		Key:            KeyYear,
		Column:         "year",
		DisplayName:    "Year",
		IsTemporal:     true,
		TemporalFormat: "yyyy",
		Integer:        true,
	}
}

// Observations is the primary dataset: one row per neighborhood and year.
func Observations() *Config {
	return &Config{
		Name:        SourceObservations,
		Description: "San Francisco neighborhood census observations per year",
		Dimensions: []DimensionMeta{
			yearDimension(),
			{Key: KeyNeighborhood, Column: "neighborhood", DisplayName: "Neighborhood"},
		},
		Measures: []MeasureMeta{
			{Key: KeySalePrice, Column: "sale_price_sqr_foot", DisplayName: "Sale Price per Square Foot", Unit: "USD"},
			{Key: KeyHousingUnits, Column: "housing_units", DisplayName: "Housing Units", Unit: "units"},
			{Key: KeyGrossRent, Column: "gross_rent", DisplayName: "Gross Rent", Unit: "USD"},
		},
	}
}

// Coordinates maps a neighborhood name to its map location.
func Coordinates() *Config {
	return &Config{
		Name:        SourceCoordinates,
		Description: "Neighborhood coordinates",
		Dimensions: []DimensionMeta{
			{Key: KeyNeighborhood, Column: "Neighborhood", DisplayName: "Neighborhood"},
		},
		Measures: []MeasureMeta{
			{Key: KeyLat, Column: "Lat", DisplayName: "Latitude", Unit: "degrees", Strict: true},
			{Key: KeyLon, Column: "Lon", DisplayName: "Longitude", Unit: "degrees", Strict: true},
		},
	}
}

// Reference returns the schema of one of the three pre-aggregated per-year
// tables. It panics on an unknown source name.
func Reference(source string) *Config {
	var m MeasureMeta
	switch source {
	case SourceGrossRent:
		m = MeasureMeta{Key: KeyGrossRent, Column: "gross_rent", DisplayName: "Gross Rent", Unit: "USD"}
	case SourceHousingUnits:
		m = MeasureMeta{Key: KeyHousingUnits, Column: "housing_units", DisplayName: "Housing Units", Unit: "units"}
	case SourceSalePrice:
		m = MeasureMeta{Key: KeySalePrice, Column: "sale_price_sqr_foot", DisplayName: "Sale Price per Square Foot", Unit: "USD"}
	default:
		panic(fmt.Sprintf("schema: unknown reference source %q", source))
	}
	return &Config{
		Name:        source,
		Description: "Average " + strings.ToLower(m.DisplayName) + " per year",
		Dimensions:  []DimensionMeta{yearDimension()},
		Measures:    []MeasureMeta{m},
	}
}

// Declared returns every declared source schema in load order.
func Declared() []*Config {
	return []*Config{
		Reference(SourceGrossRent),
		Reference(SourceHousingUnits),
		Reference(SourceSalePrice),
		Coordinates(),
		Observations(),
	}
}

// ============================================================================
// VALIDATION
// ============================================================================

// MissingColumns returns the required columns of c absent from headers.
// Header matching is exact after trimming surrounding whitespace.
func (c Config) MissingColumns(headers []string) []string {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[strings.TrimSpace(h)] = true
	}
	var missing []string
	for _, col := range c.Columns() {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

// Match reports which declared sources a header row satisfies, best first.
func Match(headers []string) []string {
	var names []string
	for _, cfg := range Declared() {
		if len(cfg.MissingColumns(headers)) == 0 {
			names = append(names, cfg.Name)
		}
	}
	// Wider schemas are the more specific match.
	slices.SortStableFunc(names, func(a, b string) int {
		return len(byName(b).Columns()) - len(byName(a).Columns())
	})
	return names
}

func byName(name string) *Config {
	for _, cfg := range Declared() {
		if cfg.Name == name {
			return cfg
		}
	}
	return &Config{}
}
