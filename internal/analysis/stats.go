// Package analysis computes descriptive statistics over prepared listing
// tables. Every function is a stateless, idempotent transformation of its
// arguments; rows with a nil price are excluded from all numeric
// aggregation.
package analysis

import (
	"fmt"
	"math"
	"sort"

	"bnbpulse/internal/dataset"
	"bnbpulse/internal/errors"
)

// Stats holds descriptive statistics for one set of prices. StdDev is the
// sample (n-1) estimator and is nil when fewer than two prices exist,
// which serializes as JSON null rather than NaN.
type Stats struct {
	Count  int      `json:"count"`
	Mean   float64  `json:"mean"`
	Median float64  `json:"median"`
	StdDev *float64 `json:"std_dev"`
}

// GroupStats is the statistics for one group of a grouped aggregation
type GroupStats struct {
	Group string `json:"group"`
	Stats
}

// GroupCount is the row count for one group
type GroupCount struct {
	Group string `json:"group"`
	Count int    `json:"count"`
}

// SeasonalRange describes the spread between the highest and lowest
// monthly mean price. Range is MaxMonthlyMean - MinMonthlyMean; PctRange
// expresses it as a percentage of the minimum.
type SeasonalRange struct {
	MinMonthlyMean float64 `json:"min_monthly_mean"`
	MaxMonthlyMean float64 `json:"max_monthly_mean"`
	Range          float64 `json:"range"`
	PctRange       float64 `json:"pct_range"`
}

// BoroughComparison compares one borough's mean price against the mean of
// everything else in the table.
type BoroughComparison struct {
	Target      string  `json:"target"`
	TargetMean  float64 `json:"target_mean"`
	TargetCount int     `json:"target_count"`
	OthersMean  float64 `json:"others_mean"`
	OthersCount int     `json:"others_count"`
	Ratio       float64 `json:"ratio"`
}

// NeighborhoodPrice is the mean price for one neighborhood
type NeighborhoodPrice struct {
	Neighborhood string  `json:"neighborhood"`
	MeanPrice    float64 `json:"mean_price"`
	Count        int     `json:"count"`
}

// CorrelationMatrix holds pairwise Pearson correlations over numeric
// columns. Values[i][j] is the correlation between Columns[i] and
// Columns[j], computed over rows where both values are present; cells
// with fewer than two complete pairs or zero variance are nil.
type CorrelationMatrix struct {
	Columns []string     `json:"columns"`
	Values  [][]*float64 `json:"values"`
}

// RentalStats returns count, mean, median and sample standard deviation of
// price over the whole table.
func RentalStats(table dataset.Table) Stats {
	return summarize(prices(table))
}

// RentalStatsBy returns per-group statistics for one categorical column.
// Unknown columns are a validation error. Groups with an empty value are
// skipped; month groups are ordered by calendar position, everything else
// alphabetically.
func RentalStatsBy(table dataset.Table, column string) ([]GroupStats, error) {
	if _, ok := dataset.GroupValue(dataset.Listing{}, column); !ok {
		return nil, errors.NewValidationError(
			fmt.Sprintf("unknown group-by column %q (expected one of %v)", column, dataset.GroupColumns()))
	}

	grouped := make(map[string][]float64)
	monthOrder := make(map[string]int)
	for _, row := range table {
		key, _ := dataset.GroupValue(row, column)
		if key == "" || row.Price == nil {
			continue
		}
		grouped[key] = append(grouped[key], *row.Price)
		if column == dataset.ColumnMonth {
			monthOrder[key] = row.MonthNum
		}
	}

	result := make([]GroupStats, 0, len(grouped))
	for key, values := range grouped {
		result = append(result, GroupStats{Group: key, Stats: summarize(values)})
	}

	sort.Slice(result, func(i, j int) bool {
		if column == dataset.ColumnMonth {
			oi, oj := monthOrder[result[i].Group], monthOrder[result[j].Group]
			if oi != oj {
				return oi < oj
			}
		}
		return result[i].Group < result[j].Group
	})

	return result, nil
}

// CompareBoroughs returns per-borough statistics, one row per borough
// present in the data. Boroughs with no surviving rows are simply absent.
func CompareBoroughs(table dataset.Table) ([]GroupStats, error) {
	return RentalStatsBy(table, dataset.ColumnBorough)
}

// CompareAgainst compares the target borough's mean price to the mean of
// all other rows, with their ratio.
func CompareAgainst(table dataset.Table, target string) (BoroughComparison, error) {
	if target == "" {
		return BoroughComparison{}, errors.NewValidationError("target borough is required")
	}

	var targetPrices, otherPrices []float64
	for _, row := range table {
		if row.Price == nil {
			continue
		}
		if row.Borough == target {
			targetPrices = append(targetPrices, *row.Price)
		} else {
			otherPrices = append(otherPrices, *row.Price)
		}
	}

	targetMean := mean(targetPrices)
	othersMean := mean(otherPrices)

	comparison := BoroughComparison{
		Target:      target,
		TargetMean:  targetMean,
		TargetCount: len(targetPrices),
		OthersMean:  othersMean,
		OthersCount: len(otherPrices),
	}
	if othersMean > 0 {
		comparison.Ratio = targetMean / othersMean
	}
	return comparison, nil
}

// CountLuxuryListings counts rows priced strictly above threshold. The
// threshold is independent of the outlier cutoff used during filtering.
func CountLuxuryListings(table dataset.Table, threshold float64) (int, error) {
	if threshold <= 0 {
		return 0, errors.NewValidationError(
			fmt.Sprintf("luxury threshold must be positive, got %g", threshold))
	}

	count := 0
	for _, row := range table {
		if row.Price != nil && *row.Price > threshold {
			count++
		}
	}
	return count, nil
}

// CountLuxuryListingsBy counts rows priced strictly above threshold,
// grouped by one categorical column.
func CountLuxuryListingsBy(table dataset.Table, threshold float64, column string) ([]GroupCount, error) {
	if threshold <= 0 {
		return nil, errors.NewValidationError(
			fmt.Sprintf("luxury threshold must be positive, got %g", threshold))
	}
	if _, ok := dataset.GroupValue(dataset.Listing{}, column); !ok {
		return nil, errors.NewValidationError(
			fmt.Sprintf("unknown group-by column %q (expected one of %v)", column, dataset.GroupColumns()))
	}

	counts := make(map[string]int)
	for _, row := range table {
		key, _ := dataset.GroupValue(row, column)
		if key == "" || row.Price == nil || *row.Price <= threshold {
			continue
		}
		counts[key]++
	}

	result := make([]GroupCount, 0, len(counts))
	for key, count := range counts {
		result = append(result, GroupCount{Group: key, Count: count})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Group < result[j].Group })

	return result, nil
}

// CalculateSeasonalRange groups by month, computes the mean price per
// month, and returns the spread between the highest and lowest monthly
// mean. Months absent from the data are excluded, not treated as zero.
func CalculateSeasonalRange(table dataset.Table) (SeasonalRange, error) {
	monthly := make(map[string][]float64)
	for _, row := range table {
		if row.Price == nil || row.Month == "" {
			continue
		}
		monthly[row.Month] = append(monthly[row.Month], *row.Price)
	}

	if len(monthly) == 0 {
		return SeasonalRange{}, errors.NewValidationError(
			"seasonal range requires at least one month of priced rows")
	}

	minMean := math.Inf(1)
	maxMean := math.Inf(-1)
	for _, values := range monthly {
		m := mean(values)
		minMean = math.Min(minMean, m)
		maxMean = math.Max(maxMean, m)
	}

	priceRange := maxMean - minMean
	result := SeasonalRange{
		MinMonthlyMean: minMean,
		MaxMonthlyMean: maxMean,
		Range:          priceRange,
	}
	if minMean > 0 {
		result.PctRange = priceRange / minMean * 100
	}
	return result, nil
}

// TopNeighborhoods ranks neighborhoods within one borough by mean price,
// descending. A non-positive limit returns all neighborhoods.
func TopNeighborhoods(table dataset.Table, borough string, limit int) ([]NeighborhoodPrice, error) {
	if borough == "" {
		return nil, errors.NewValidationError("borough is required")
	}

	grouped := make(map[string][]float64)
	for _, row := range table {
		if row.Borough != borough || row.Neighborhood == "" || row.Price == nil {
			continue
		}
		grouped[row.Neighborhood] = append(grouped[row.Neighborhood], *row.Price)
	}

	result := make([]NeighborhoodPrice, 0, len(grouped))
	for name, values := range grouped {
		result = append(result, NeighborhoodPrice{
			Neighborhood: name,
			MeanPrice:    mean(values),
			Count:        len(values),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].MeanPrice != result[j].MeanPrice {
			return result[i].MeanPrice > result[j].MeanPrice
		}
		return result[i].Neighborhood < result[j].Neighborhood
	})

	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// Correlations computes pairwise Pearson correlations over the named
// numeric columns, using pairwise-complete observations. Unknown columns
// are a validation error.
func Correlations(table dataset.Table, columns []string) (*CorrelationMatrix, error) {
	if len(columns) == 0 {
		columns = dataset.NumericColumns()
	}
	for _, column := range columns {
		if _, ok := dataset.NumericValue(dataset.Listing{}, column); !ok {
			return nil, errors.NewValidationError(
				fmt.Sprintf("unknown numeric column %q (expected one of %v)", column, dataset.NumericColumns()))
		}
	}

	values := make([][]*float64, len(columns))
	for i := range columns {
		values[i] = make([]*float64, len(columns))
		for j := range columns {
			if r := pearson(table, columns[i], columns[j]); !math.IsNaN(r) {
				values[i][j] = &r
			}
		}
	}

	return &CorrelationMatrix{Columns: columns, Values: values}, nil
}

// pearson computes the Pearson correlation of two columns over rows where
// both values are present. NaN when fewer than two complete pairs exist or
// either column has zero variance.
func pearson(table dataset.Table, colX, colY string) float64 {
	var xs, ys []float64
	for _, row := range table {
		x, _ := dataset.NumericValue(row, colX)
		y, _ := dataset.NumericValue(row, colY)
		if x == nil || y == nil {
			continue
		}
		xs = append(xs, *x)
		ys = append(ys, *y)
	}

	n := float64(len(xs))
	if n < 2 {
		return math.NaN()
	}

	meanX, meanY := mean(xs), mean(ys)
	var cov, varX, varY float64
	for i := range xs {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	return cov / math.Sqrt(varX*varY)
}

// prices extracts the non-nil price values from a table
func prices(table dataset.Table) []float64 {
	values := make([]float64, 0, len(table))
	for _, row := range table {
		if row.Price != nil {
			values = append(values, *row.Price)
		}
	}
	return values
}

// summarize computes the descriptive statistics for one set of values
func summarize(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	return Stats{
		Count:  len(values),
		Mean:   mean(values),
		Median: median(values),
		StdDev: sampleStdDev(values),
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// sampleStdDev is the unbiased (n-1) estimator; nil below two values
func sampleStdDev(values []float64) *float64 {
	if len(values) < 2 {
		return nil
	}

	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	sd := math.Sqrt(sum / float64(len(values)-1))
	return &sd
}
