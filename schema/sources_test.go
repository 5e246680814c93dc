package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclaredSources(t *testing.T) {
	declared := Declared()
	require.Len(t, declared, 5)

	names := make([]string, len(declared))
	for i, cfg := range declared {
		names[i] = cfg.Name
	}
	assert.Equal(t, []string{
		SourceGrossRent, SourceHousingUnits, SourceSalePrice, SourceCoordinates, SourceObservations,
	}, names)

	assert.Equal(t,
		[]string{"year", "neighborhood", "sale_price_sqr_foot", "housing_units", "gross_rent"},
		Observations().Columns())
	assert.Equal(t, []string{"Neighborhood", "Lat", "Lon"}, Coordinates().Columns())
	assert.Equal(t, []string{"year", "housing_units"}, Reference(SourceHousingUnits).Columns())
}

func TestReferenceUnknownPanics(t *testing.T) {
	assert.Panics(t, func() { Reference("mortgage") })
}

func TestMissingColumns(t *testing.T) {
	obs := Observations()
	assert.Empty(t, obs.MissingColumns([]string{"year", " neighborhood ", "sale_price_sqr_foot", "housing_units", "gross_rent", "extra"}))
	assert.Equal(t, []string{"gross_rent"}, obs.MissingColumns([]string{"year", "neighborhood", "sale_price_sqr_foot", "housing_units"}))

	// Header matching is case sensitive.
	assert.Equal(t, []string{"Lat"}, Coordinates().MissingColumns([]string{"Neighborhood", "lat", "Lon"}))
}

func TestMatch(t *testing.T) {
	assert.Equal(t,
		[]string{SourceObservations, SourceGrossRent, SourceHousingUnits, SourceSalePrice},
		Match([]string{"year", "neighborhood", "sale_price_sqr_foot", "housing_units", "gross_rent"}))
	assert.Equal(t, []string{SourceCoordinates}, Match([]string{"Neighborhood", "Lat", "Lon"}))
	assert.Empty(t, Match([]string{"foo"}))
}

func TestConfigMeasure(t *testing.T) {
	m, ok := Coordinates().Measure(KeyLat)
	require.True(t, ok)
	assert.True(t, m.Strict)

	_, ok = Coordinates().Measure(KeyGrossRent)
	assert.False(t, ok)
}
