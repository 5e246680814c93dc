package schema

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// DISCOVERY TESTS
// ============================================================================

// Sample of the primary census dataset.
var censusCSV = []byte(`year,neighborhood,sale_price_sqr_foot,housing_units,gross_rent
2010,Alamo Square,291.18,372560,1239
2010,Anza Vista,267.93,372560,1239
2010,Bayview,170.10,372560,1239
2010,Buena Vista Park,347.39,372560,1239
2011,Alamo Square,272.53,374507,1530
2011,Anza Vista,164.19,374507,1530
2011,Bayview,,374507,1530
2011,Buena Vista Park,381.86,374507,1530
2012,Alamo Square,183.10,376454,2324
2012,Anza Vista,344.49,376454,2324
2012,Bayview,206.41,376454,2324
2012,Buena Vista Park,417.17,376454,2324
`)

// Sample coordinates table.
var coordinatesCSV = []byte(`Neighborhood,Lat,Lon
Alamo Square,37.791012,-122.4021
Anza Vista,37.779598,-122.443451
Bayview,37.73467,-122.40106
Buena Vista Park,37.76816,-122.43933
`)

func TestDiscoverCensusCSV(t *testing.T) {
	config, err := DiscoverFromCSV(censusCSV)
	require.NoError(t, err)

	assert.Equal(t, 12, config.Rows)
	assert.Equal(t, "CSV", config.DiscoveredFrom)

	dimKeys := config.DimensionKeys()
	assert.Contains(t, dimKeys, "year")
	assert.Contains(t, dimKeys, "neighborhood")

	measKeys := config.MeasureKeys()
	assert.Contains(t, measKeys, "sale_price_sqr_foot", "decimal prices are continuous")

	for _, d := range config.Dimensions {
		if d.Key == "year" {
			assert.True(t, d.IsTemporal, "year should be temporal")
		}
	}

	// A discovered census file satisfies the declared observation columns.
	var cols []string
	for _, d := range config.Dimensions {
		cols = append(cols, d.Column)
	}
	for _, m := range config.Measures {
		cols = append(cols, m.Column)
	}
	assert.Empty(t, Observations().MissingColumns(cols))
}

func TestDiscoverCoordinatesCSV(t *testing.T) {
	config, err := DiscoverFromCSV(coordinatesCSV, DiscoverOptions{Name: "coords"})
	require.NoError(t, err)

	assert.Equal(t, "coords", config.Name)
	assert.ElementsMatch(t, []string{"lat", "lon"}, config.MeasureKeys())
	assert.Equal(t, []string{"neighborhood"}, config.DimensionKeys())
	assert.Equal(t, "Neighborhood", config.Dimensions[0].Column)
}

func TestDiscoverBindsDeclaredColumns(t *testing.T) {
	config, err := DiscoverFromCSV(censusCSV)
	require.NoError(t, err)

	require.Len(t, config.Bindings, 5)
	year := config.Bindings[0]
	assert.Equal(t, "year", year.Key)
	assert.Equal(t, "dimension", year.Role)
	assert.True(t, year.Compatible)
	assert.Equal(t, []string{SourceGrossRent, SourceHousingUnits, SourceSalePrice, SourceObservations}, year.Sources)

	units := config.Bindings[3]
	assert.Equal(t, KeyHousingUnits, units.Key)
	assert.Equal(t, "measure", units.Role)
	assert.Equal(t, []string{SourceHousingUnits, SourceObservations}, units.Sources)

	// Declared role wins over the value heuristic: three distinct integers
	// over twelve rows would otherwise read as a coded dimension.
	assert.Contains(t, config.MeasureKeys(), KeyHousingUnits)
}

func TestDiscoverIncompatibleBinding(t *testing.T) {
	data := []byte("year,gross_rent\n2010,high\n2011,low\n2012,high\n2013,1500\n")

	config, err := DiscoverFromCSV(data)
	require.NoError(t, err)

	require.Len(t, config.Bindings, 2)
	rent := config.Bindings[1]
	assert.False(t, rent.Compatible)
	assert.Equal(t, "3 of 4 values are not numbers", rent.Reason)
	assert.Equal(t, []string{"gross_rent"}, config.DimensionKeys()[1:], "classified as text instead")
	assert.Empty(t, config.MeasureKeys())
}

func TestDiscoverUndeclaredColumns(t *testing.T) {
	data := []byte("Parcel,Sale Year,Ward,Assessed Value,Notes\n")
	for i := 0; i < 12; i++ {
		data = append(data, []byte(fmt.Sprintf("P-%02d,%d,%d,%d.50,\n", i, 2010+i%3, 1+i%2, 1000+i))...)
	}

	config, err := DiscoverFromCSV(data, DiscoverOptions{Name: "parcels"})
	require.NoError(t, err)

	assert.Equal(t, "parcels", config.Name)
	assert.Empty(t, config.Bindings)
	assert.Equal(t, []string{"sale_year", "ward"}, config.DimensionKeys())
	assert.True(t, config.Dimensions[0].IsTemporal)
	assert.True(t, config.Dimensions[1].Integer)
	assert.Equal(t, []string{"assessed_value"}, config.MeasureKeys())

	require.Len(t, config.SkippedColumns, 2)
	assert.Equal(t, "Parcel", config.SkippedColumns[0].Column)
	assert.Equal(t, "Notes", config.SkippedColumns[1].Column)
}

func TestDiscoverSampleSize(t *testing.T) {
	config, err := DiscoverFromCSV(censusCSV, DiscoverOptions{SampleSize: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, config.Rows)
	assert.Equal(t, []string{"2010"}, config.Dimensions[0].SampleValues)
}

func TestDiscoverErrors(t *testing.T) {
	_, err := DiscoverFromCSV([]byte(""))
	require.Error(t, err)

	_, err = DiscoverFromCSV([]byte("year,gross_rent\n"))
	require.ErrorContains(t, err, "no data rows")
}

func TestSnakeCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Sale Price", "sale_price"},
		{"Neighborhood", "neighborhood"},
		{"grossRent", "gross_rent"},
		{"HousingUnits", "housing_units"},
		{"sale_price_sqr_foot", "sale_price_sqr_foot"},
		{"ID", "id"},
		{"Lat", "lat"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, toSnakeCase(tt.input), "toSnakeCase(%q)", tt.input)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gross_rent", "Gross Rent"},
		{"Neighborhood", "Neighborhood"},
		{"Sale Price", "Sale Price"},
		{"housing_units", "Housing Units"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, toDisplayName(tt.input), "toDisplayName(%q)", tt.input)
	}
}

func TestYearDetection(t *testing.T) {
	tests := []struct {
		header string
		values []string
		isYear bool
	}{
		{"Year", []string{"2010", "2011", "2012"}, true},
		{"Sale Year", []string{"2015", "2016"}, true},
		{"Units", []string{"2010", "2011", "2012"}, false},
		{"Year", []string{"2010.5", "2011"}, false},
		{"Year", []string{"10", "11"}, false},
		{"Year", []string{"Jan-2016", "Feb-2016"}, false},
	}

	for _, tt := range tests {
		rows := make([][]string, len(tt.values))
		for i, v := range tt.values {
			rows[i] = []string{v}
		}
		assert.Equal(t, tt.isYear, profile(tt.header, 0, rows).isYear(), "%s %v", tt.header, tt.values)
	}
}
