package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bnbpulse/internal/dataset"
	"bnbpulse/internal/errors"
)

// scenario is a minimal prepared table: two Manhattan rows in January (one
// of them over any sensible outlier cutoff), one Brooklyn row in February.
func scenario() dataset.Table {
	return dataset.Table{
		{ID: "1", Price: floatPtr(100), Month: "January", MonthNum: 1, Borough: "Manhattan", Neighborhood: "Harlem"},
		{ID: "3", Price: floatPtr(150), Month: "February", MonthNum: 2, Borough: "Brooklyn", Neighborhood: "Bushwick"},
	}
}

func TestRentalStats(t *testing.T) {
	stats := RentalStats(scenario())

	assert.Equal(t, 2, stats.Count)
	assert.InDelta(t, 125, stats.Mean, 0.001)
	assert.InDelta(t, 125, stats.Median, 0.001)
	require.NotNil(t, stats.StdDev)
	assert.InDelta(t, 35.355, *stats.StdDev, 0.001)
}

func TestRentalStatsExcludesNilPrices(t *testing.T) {
	table := append(scenario(), dataset.Listing{ID: "4", Price: nil, Borough: "Queens"})
	stats := RentalStats(table)

	assert.Equal(t, 2, stats.Count)
	assert.InDelta(t, 125, stats.Mean, 0.001)
}

func TestRentalStatsEmptyTable(t *testing.T) {
	stats := RentalStats(dataset.Table{})

	assert.Equal(t, 0, stats.Count)
	assert.Nil(t, stats.StdDev)
}

func TestRentalStatsBy(t *testing.T) {
	groups, err := RentalStatsBy(scenario(), dataset.ColumnBorough)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	brooklyn := groups[0]
	assert.Equal(t, "Brooklyn", brooklyn.Group)
	assert.Equal(t, 1, brooklyn.Count)
	assert.InDelta(t, 150, brooklyn.Mean, 0.001)
	assert.InDelta(t, 150, brooklyn.Median, 0.001)
	assert.Nil(t, brooklyn.StdDev, "single-row group has no sample std dev")

	manhattan := groups[1]
	assert.Equal(t, "Manhattan", manhattan.Group)
	assert.Equal(t, 1, manhattan.Count)
	assert.InDelta(t, 100, manhattan.Mean, 0.001)
}

func TestRentalStatsByMonthOrder(t *testing.T) {
	table := dataset.Table{
		{Price: floatPtr(10), Month: "December", MonthNum: 12},
		{Price: floatPtr(20), Month: "April", MonthNum: 4},
		{Price: floatPtr(30), Month: "January", MonthNum: 1},
	}

	groups, err := RentalStatsBy(table, dataset.ColumnMonth)
	require.NoError(t, err)
	require.Len(t, groups, 3)

	assert.Equal(t, "January", groups[0].Group)
	assert.Equal(t, "April", groups[1].Group)
	assert.Equal(t, "December", groups[2].Group)
}

func TestRentalStatsByUnknownColumn(t *testing.T) {
	_, err := RentalStatsBy(scenario(), "price")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
}

func TestCompareBoroughs(t *testing.T) {
	groups, err := CompareBoroughs(scenario())
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Brooklyn", groups[0].Group)
	assert.Equal(t, "Manhattan", groups[1].Group)
}

func TestCompareAgainst(t *testing.T) {
	comparison, err := CompareAgainst(scenario(), "Manhattan")
	require.NoError(t, err)

	assert.Equal(t, "Manhattan", comparison.Target)
	assert.InDelta(t, 100, comparison.TargetMean, 0.001)
	assert.Equal(t, 1, comparison.TargetCount)
	assert.InDelta(t, 150, comparison.OthersMean, 0.001)
	assert.Equal(t, 1, comparison.OthersCount)
	assert.InDelta(t, 100.0/150.0, comparison.Ratio, 0.001)
}

func TestCompareAgainstRequiresTarget(t *testing.T) {
	_, err := CompareAgainst(scenario(), "")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
}

func TestCountLuxuryListings(t *testing.T) {
	table := dataset.Table{
		{Price: floatPtr(999)},
		{Price: floatPtr(1000)}, // boundary excluded, strictly above only
		{Price: floatPtr(1001)},
		{Price: nil},
	}

	count, err := CountLuxuryListings(table, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCountLuxuryListingsInvalidThreshold(t *testing.T) {
	for _, threshold := range []float64{0, -10} {
		_, err := CountLuxuryListings(dataset.Table{}, threshold)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
	}
}

func TestCountLuxuryListingsBy(t *testing.T) {
	table := dataset.Table{
		{Price: floatPtr(1500), Borough: "Manhattan"},
		{Price: floatPtr(1200), Borough: "Manhattan"},
		{Price: floatPtr(1100), Borough: "Brooklyn"},
		{Price: floatPtr(900), Borough: "Brooklyn"},
	}

	counts, err := CountLuxuryListingsBy(table, 1000, dataset.ColumnBorough)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, GroupCount{Group: "Brooklyn", Count: 1}, counts[0])
	assert.Equal(t, GroupCount{Group: "Manhattan", Count: 2}, counts[1])
}

func TestCalculateSeasonalRange(t *testing.T) {
	spread, err := CalculateSeasonalRange(scenario())
	require.NoError(t, err)

	assert.InDelta(t, 100, spread.MinMonthlyMean, 0.001)
	assert.InDelta(t, 150, spread.MaxMonthlyMean, 0.001)
	assert.InDelta(t, 50, spread.Range, 0.001)
	assert.InDelta(t, 50, spread.PctRange, 0.001)
}

func TestCalculateSeasonalRangeSingleMonth(t *testing.T) {
	table := dataset.Table{
		{Price: floatPtr(100), Month: "July"},
		{Price: floatPtr(200), Month: "July"},
	}

	spread, err := CalculateSeasonalRange(table)
	require.NoError(t, err)
	assert.InDelta(t, 0, spread.Range, 0.001)
}

func TestCalculateSeasonalRangeEmptyTable(t *testing.T) {
	_, err := CalculateSeasonalRange(dataset.Table{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
}

func TestTopNeighborhoods(t *testing.T) {
	table := dataset.Table{
		{Price: floatPtr(300), Borough: "Brooklyn", Neighborhood: "DUMBO"},
		{Price: floatPtr(100), Borough: "Brooklyn", Neighborhood: "Bushwick"},
		{Price: floatPtr(200), Borough: "Brooklyn", Neighborhood: "Williamsburg"},
		{Price: floatPtr(500), Borough: "Manhattan", Neighborhood: "SoHo"},
	}

	ranking, err := TopNeighborhoods(table, "Brooklyn", 2)
	require.NoError(t, err)
	require.Len(t, ranking, 2)
	assert.Equal(t, "DUMBO", ranking[0].Neighborhood)
	assert.Equal(t, "Williamsburg", ranking[1].Neighborhood)
}

func TestTopNeighborhoodsRequiresBorough(t *testing.T) {
	_, err := TopNeighborhoods(dataset.Table{}, "", 5)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
}

func TestCorrelations(t *testing.T) {
	// price and bedrooms move together exactly, reviews move opposite
	table := dataset.Table{
		{Price: floatPtr(100), Bedrooms: floatPtr(1), NumberOfReviews: floatPtr(30)},
		{Price: floatPtr(200), Bedrooms: floatPtr(2), NumberOfReviews: floatPtr(20)},
		{Price: floatPtr(300), Bedrooms: floatPtr(3), NumberOfReviews: floatPtr(10)},
	}

	matrix, err := Correlations(table, []string{dataset.ColumnPrice, dataset.ColumnBedrooms, dataset.ColumnNumberOfReviews})
	require.NoError(t, err)
	require.Len(t, matrix.Values, 3)

	require.NotNil(t, matrix.Values[0][0])
	assert.InDelta(t, 1, *matrix.Values[0][0], 0.001)
	require.NotNil(t, matrix.Values[0][1])
	assert.InDelta(t, 1, *matrix.Values[0][1], 0.001)
	require.NotNil(t, matrix.Values[0][2])
	assert.InDelta(t, -1, *matrix.Values[0][2], 0.001)
}

func TestCorrelationsPairwiseComplete(t *testing.T) {
	table := dataset.Table{
		{Price: floatPtr(100), Bedrooms: floatPtr(1)},
		{Price: floatPtr(200), Bedrooms: nil},
		{Price: floatPtr(300), Bedrooms: floatPtr(3)},
	}

	matrix, err := Correlations(table, []string{dataset.ColumnPrice, dataset.ColumnBedrooms})
	require.NoError(t, err)
	require.NotNil(t, matrix.Values[0][1])
	assert.InDelta(t, 1, *matrix.Values[0][1], 0.001)
}

func TestCorrelationsInsufficientPairs(t *testing.T) {
	table := dataset.Table{
		{Price: floatPtr(100), Bedrooms: floatPtr(1)},
		{Price: floatPtr(200), Bedrooms: nil},
	}

	matrix, err := Correlations(table, []string{dataset.ColumnPrice, dataset.ColumnBedrooms})
	require.NoError(t, err)
	assert.Nil(t, matrix.Values[0][1], "one complete pair cannot correlate")
}

func TestCorrelationsUnknownColumn(t *testing.T) {
	_, err := Correlations(dataset.Table{}, []string{"square_feet"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
}

func TestCorrelationsDefaultColumns(t *testing.T) {
	matrix, err := Correlations(scenario(), nil)
	require.NoError(t, err)
	assert.Equal(t, dataset.NumericColumns(), matrix.Columns)
}

func TestSampleStdDev(t *testing.T) {
	sd := sampleStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.NotNil(t, sd)
	assert.InDelta(t, 2.138, *sd, 0.001)

	assert.Nil(t, sampleStdDev([]float64{42}))
	assert.Nil(t, sampleStdDev(nil))
}

func TestMedian(t *testing.T) {
	assert.InDelta(t, 3, median([]float64{5, 1, 3}), 0.001)
	assert.InDelta(t, 2.5, median([]float64{4, 1, 2, 3}), 0.001)
}

func TestPearsonZeroVariance(t *testing.T) {
	table := dataset.Table{
		{Price: floatPtr(100), Bedrooms: floatPtr(2)},
		{Price: floatPtr(200), Bedrooms: floatPtr(2)},
	}

	r := pearson(table, dataset.ColumnPrice, dataset.ColumnBedrooms)
	assert.True(t, math.IsNaN(r))
}

func floatPtr(v float64) *float64 {
	return &v
}
