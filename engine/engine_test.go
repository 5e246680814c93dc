package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// FIXTURES
// ============================================================================

type obs struct {
	Year         string
	Neighborhood string
	Price        float64
	Rent         float64
	Units        float64
}

var obsAdapter = NewDomainAdapter[obs]().
	Dimension("year", func(o obs) string { return o.Year }).
	Dimension("neighborhood", func(o obs) string { return o.Neighborhood }).
	Measure("sale_price_sqr_foot", func(o obs) float64 { return o.Price }).
	Measure("gross_rent", func(o obs) float64 { return o.Rent }).
	Measure("housing_units", func(o obs) float64 { return o.Units })

func sampleView() RecordView {
	return obsAdapter.Bind([]obs{
		{"2011", "Bayview", 300, 1500, 100},
		{"2010", "Bayview", 200, 1200, 100},
		{"2010", "Alamo Square", 400, 1200, 200},
		{"2011", "Alamo Square", math.NaN(), 1500, 200},
		{"2012", "Alamo Square", 500, 2000, 300},
	})
}

// ============================================================================
// AGGREGATION
// ============================================================================

func TestGroupAndAggregate_MeanPerKeyAscending(t *testing.T) {
	groups := GroupAndAggregate(sampleView(), []string{"year"}, []string{"sale_price_sqr_foot", "housing_units"})
	require.Len(t, groups, 3)
	assert.Equal(t, []string{"2010", "2011", "2012"}, Keys(groups))

	assert.InDelta(t, 300.0, groups[0].Value("sale_price_sqr_foot"), 1e-9)
	assert.InDelta(t, 150.0, groups[0].Value("housing_units"), 1e-9)

	// 2011: one price is missing, so the mean is over the single valid value.
	assert.InDelta(t, 300.0, groups[1].Value("sale_price_sqr_foot"), 1e-9)
	assert.Equal(t, 1, groups[1].Counts["sale_price_sqr_foot"])
	assert.Equal(t, 2, groups[1].Count)
}

func TestGroupAndAggregate_EmptyView(t *testing.T) {
	empty := ApplyFilters(sampleView(), Where("neighborhood", "Nowhere"))
	assert.Nil(t, GroupAndAggregate(empty, []string{"year"}, []string{"gross_rent"}))
}

func TestGroupAndAggregate_SortAndLimit(t *testing.T) {
	groups := GroupAndAggregate(sampleView(), []string{"neighborhood"}, []string{"sale_price_sqr_foot"},
		WithSort(SortValueDesc, "sale_price_sqr_foot"), WithLimit(1))
	require.Len(t, groups, 1)
	assert.Equal(t, "Alamo Square", groups[0].Key)
	assert.InDelta(t, 450.0, groups[0].Value("sale_price_sqr_foot"), 1e-9)
}

func TestGroupAndAggregate_TwoLevels(t *testing.T) {
	groups := GroupAndAggregate(sampleView(), []string{"year", "neighborhood"}, []string{"gross_rent"})
	require.Len(t, groups, 3)
	require.Len(t, groups[0].SubGroups, 2)
	assert.Equal(t, []string{"Alamo Square", "Bayview"}, Keys(groups[0].SubGroups))
	assert.InDelta(t, 1200.0, groups[0].SubGroups[1].Value("gross_rent"), 1e-9)
}

func TestSortGroups_NaNLast(t *testing.T) {
	groups := []Group{
		{Key: "a", Values: map[string]float64{"m": math.NaN()}},
		{Key: "b", Values: map[string]float64{"m": 1}},
		{Key: "c", Values: map[string]float64{"m": 3}},
	}
	SortGroups(groups, SortValueDesc, "m")
	assert.Equal(t, []string{"c", "b", "a"}, Keys(groups))

	SortGroups(groups, SortValueAsc, "m")
	assert.Equal(t, []string{"b", "c", "a"}, Keys(groups))
}

func TestSortGroups_StableOnTies(t *testing.T) {
	groups := []Group{
		{Key: "x", Values: map[string]float64{"m": 5}},
		{Key: "y", Values: map[string]float64{"m": 5}},
		{Key: "z", Values: map[string]float64{"m": 7}},
	}
	SortGroups(groups, SortValueDesc, "m")
	assert.Equal(t, []string{"z", "x", "y"}, Keys(groups))
}

func TestCompareKeys(t *testing.T) {
	assert.Negative(t, CompareKeys("9", "10"))
	assert.Negative(t, CompareKeys("2016", "Bayview"))
	assert.Positive(t, CompareKeys("Bayview", "Alamo Square"))
	assert.Zero(t, CompareKeys("2010", "2010"))
}

func TestLabelForDimension(t *testing.T) {
	assert.Equal(t, "Sale Price Sqr Foot", LabelForDimension("sale_price_sqr_foot"))
	assert.Equal(t, "Year", LabelForDimension("year"))
}

// ============================================================================
// FILTERS
// ============================================================================

func TestApplyFilters_ExactMatch(t *testing.T) {
	view := sampleView()
	assert.Equal(t, 2, ApplyFilters(view, Where("neighborhood", "Bayview")).Len())
	assert.Equal(t, 0, ApplyFilters(view, Where("neighborhood", "bayview")).Len())
	assert.Same(t, view, ApplyFilters(view, Filters{}))
}

func TestDropMissing(t *testing.T) {
	view, dropped := DropMissing(sampleView(), "sale_price_sqr_foot")
	assert.Equal(t, 1, dropped)
	assert.Equal(t, 4, view.Len())

	_, dropped = DropMissing(sampleView(), "gross_rent")
	assert.Zero(t, dropped)
}

func TestSliceView(t *testing.T) {
	view := NewSliceView([]Record{
		{Dimensions: map[string]string{"year": "2010"}, Measures: map[string]float64{"v": 1}},
		{Dimensions: map[string]string{"year": "2011", "k": "x"}, Measures: map[string]float64{}},
	})
	assert.Equal(t, []string{"k", "year"}, view.DimensionKeys())
	assert.Equal(t, []string{"v"}, view.MeasureKeys())
	assert.True(t, math.IsNaN(view.Measure(1, "v")))
	assert.True(t, math.IsNaN(view.Measure(5, "v")))
	assert.Equal(t, "", view.Dimension(-1, "year"))
}

// ============================================================================
// STATS
// ============================================================================

func TestDescribe(t *testing.T) {
	s := Describe([]float64{2, 4, 4, 4, 5, 5, 7, 9, math.NaN()})
	assert.Equal(t, 8, s.N)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 9.0, s.Max)
	assert.InDelta(t, 5.0, s.Mean, 1e-9)
	assert.InDelta(t, 2.138089935, s.StdDev, 1e-6) // sample std

	single := Describe([]float64{42})
	assert.Zero(t, single.StdDev)
	assert.Equal(t, 42.0, single.Mean)

	none := Describe(nil)
	assert.Zero(t, none.N)
	assert.True(t, math.IsNaN(none.Min))
}

func TestPaddedRange(t *testing.T) {
	r := PaddedRange([]float64{100, 200})
	require.NotNil(t, r)
	std := math.Sqrt(5000)
	assert.InDelta(t, 100-std, r.Min, 1e-9)
	assert.InDelta(t, 200+std, r.Max, 1e-9)

	assert.Nil(t, PaddedRange(nil))
	assert.Equal(t, &AxisRange{Min: 7, Max: 7}, PaddedRange([]float64{7}))
}

// ============================================================================
// EXECUTOR + BUILDERS
// ============================================================================

func TestExecute_Line(t *testing.T) {
	res := Execute(Query{
		Title:    "Rent",
		Kind:     ChartLine,
		GroupBy:  []string{"year"},
		Measures: []string{"gross_rent"},
	}, sampleView())

	require.Len(t, res.Chart.Series, 1)
	assert.Equal(t, []ChartPoint{
		{Label: "2010", Value: 1200},
		{Label: "2011", Value: 1500},
		{Label: "2012", Value: 2000},
	}, res.Chart.Series[0].Data)
	assert.Equal(t, "Year", res.Chart.XAxis)
	assert.Equal(t, "Gross Rent", res.Chart.YAxis)

	require.NotNil(t, res.Growth)
	assert.Equal(t, DirectionIncreased, res.Growth.Direction)
	assert.InDelta(t, 66.666, res.Growth.ChangePercent, 1e-2)

	require.Len(t, res.Table.Rows, 3)
	assert.Equal(t, []string{"2010", "1200.00"}, res.Table.Rows[0])
}

func TestExecute_DropMissingAndFilter(t *testing.T) {
	res := Execute(Query{
		Kind:        ChartLine,
		GroupBy:     []string{"year"},
		Measures:    []string{"sale_price_sqr_foot"},
		Filters:     Where("neighborhood", "Alamo Square"),
		DropMissing: true,
	}, sampleView())

	assert.Equal(t, 3, res.Matched)
	assert.Equal(t, 1, res.Dropped)
	assert.Equal(t, []string{"2010", "2012"}, Keys(res.Groups))
}

func TestExecute_UnknownFilterIsEmpty(t *testing.T) {
	res := Execute(Query{
		Kind:     ChartLine,
		GroupBy:  []string{"year"},
		Measures: []string{"sale_price_sqr_foot"},
		Filters:  Where("neighborhood", "Atlantis"),
	}, sampleView())

	assert.Zero(t, res.Matched)
	assert.Empty(t, res.Groups)
	assert.True(t, res.Chart.IsEmpty())
	assert.Empty(t, res.Table.Rows)
}

func TestExecute_RowsGroupedBar(t *testing.T) {
	res := Execute(Query{
		Kind:     ChartGroupedBar,
		GroupBy:  []string{"year"},
		Measures: []string{"sale_price_sqr_foot", "gross_rent"},
		Filters:  Where("neighborhood", "Bayview"),
		Rows:     true,
	}, sampleView())

	// Source order is kept: 2011 precedes 2010 in the fixture.
	assert.Equal(t, []string{"2011", "2010"}, Keys(res.Groups))
	require.Len(t, res.Chart.Series, 2)
	assert.Equal(t, "Sale Price Sqr Foot", res.Chart.Series[0].Name)
	assert.Equal(t, 1500.0, res.Chart.Series[1].Data[0].Value)
}

func TestBuildSeries_SkipsMissing(t *testing.T) {
	groups := []Group{
		{Label: "a", Values: map[string]float64{"m": 1.005}},
		{Label: "b", Values: map[string]float64{"m": math.NaN()}},
	}
	s := BuildSeries(groups, "m", "")
	assert.Equal(t, "Value", s.Name)
	require.Len(t, s.Data, 1)
	assert.Equal(t, "a", s.Data[0].Label)
}

func TestBuildTable_TwoLevels(t *testing.T) {
	groups := GroupAndAggregate(sampleView(), []string{"year", "neighborhood"}, []string{"sale_price_sqr_foot"})
	table := BuildTable("t", []string{"year", "neighborhood"}, []string{"sale_price_sqr_foot"}, groups)
	require.Len(t, table.Columns, 3)
	assert.Equal(t, []string{"2010", "Alamo Square", "400.00"}, table.Rows[0])
	assert.Equal(t, []string{"2011", "Alamo Square", ""}, table.Rows[2])
}

// ============================================================================
// TEXT
// ============================================================================

func TestBuildGrowth(t *testing.T) {
	g := BuildGrowth(ChartSeries{Data: []ChartPoint{{"2010", 200}, {"2016", 100}}})
	assert.Equal(t, DirectionDecreased, g.Direction)
	assert.Equal(t, -100.0, g.ChangeAmount)
	assert.Equal(t, "2010 – 2016: $200.00 → $100.00 (↓ 50.0%)", GrowthCaption(g, "USD"))

	flat := BuildGrowth(ChartSeries{Data: []ChartPoint{{"2010", 100}, {"2011", 100.1}}})
	assert.Equal(t, DirectionUnchanged, flat.Direction)

	one := BuildGrowth(ChartSeries{Data: []ChartPoint{{"2010", 5}}})
	assert.Equal(t, DirectionInsufficient, one.Direction)
	assert.Empty(t, GrowthCaption(one, ""))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "379,050.25", FormatNumber(379050.25, 2))
	assert.Equal(t, "1,200", FormatNumber(1200, 0))
	assert.Equal(t, "n/a", FormatNumber(math.NaN(), 2))
	assert.Equal(t, "12.50 units", FormatValue(12.5, "units"))
}
