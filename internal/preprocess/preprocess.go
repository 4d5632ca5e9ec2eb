// Package preprocess cleans raw listing tables and filters price outliers.
// The pipeline order is fixed: prices are cleaned before anything compares
// them numerically.
package preprocess

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"bnbpulse/internal/dataset"
	"bnbpulse/internal/errors"
)

// monthNumbers maps calendar month names to their 1-12 number
var monthNumbers = map[string]int{
	"January": 1, "February": 2, "March": 3, "April": 4,
	"May": 5, "June": 6, "July": 7, "August": 8,
	"September": 9, "October": 10, "November": 11, "December": 12,
}

// Options configures the preprocessing pipeline.
//
// MaxPrice is the outlier cutoff and has no default: it must be positive or
// Preprocess fails with a validation error. Listings priced above it are
// treated as data-entry errors or scam listings and dropped.
type Options struct {
	MaxPrice float64
}

// Pipeline applies the preprocessing stages in fixed order. It holds no
// state between calls; every method returns a new table.
type Pipeline struct {
	logger *slog.Logger
}

// NewPipeline creates a preprocessing pipeline
func NewPipeline(logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{logger: logger.With(slog.String("component", "preprocess"))}
}

// Preprocess runs the full pipeline: clean prices, add month numbers,
// filter outliers. Filtering must come last; raw price strings cannot be
// numerically compared.
func (p *Pipeline) Preprocess(ctx context.Context, table dataset.Table, opts Options) (dataset.Table, error) {
	if opts.MaxPrice <= 0 {
		return nil, errors.NewValidationError(
			fmt.Sprintf("max price must be positive, got %g", opts.MaxPrice))
	}

	p.logger.InfoContext(ctx, "preprocessing table",
		slog.Int("rows", len(table)),
		slog.Float64("max_price", opts.MaxPrice))

	cleaned := CleanPriceColumn(table)

	numbered, err := AddMonthNumber(cleaned)
	if err != nil {
		return nil, err
	}

	filtered, err := FilterPriceOutliers(numbered, opts.MaxPrice)
	if err != nil {
		return nil, err
	}

	p.logger.InfoContext(ctx, "preprocessing complete",
		slog.Int("rows_in", len(table)),
		slog.Int("rows_out", len(filtered)),
		slog.Int("rows_dropped", len(table)-len(filtered)))

	return filtered, nil
}

// CleanPriceColumn parses the raw price field into a numeric value,
// stripping currency symbols and thousands separators. Unparseable or empty
// prices become nil rather than errors; downstream aggregation excludes
// them. Rows whose price is already parsed pass through unchanged, so
// re-cleaning a clean table is a no-op.
func CleanPriceColumn(table dataset.Table) dataset.Table {
	out := make(dataset.Table, len(table))
	for i, row := range table {
		if row.Price == nil {
			row.Price = parsePrice(row.PriceRaw)
		}
		out[i] = row
	}
	return out
}

// parsePrice converts a price string like "$1,234.50" to a float. Returns
// nil when the string is empty or not a number.
func parsePrice(raw string) *float64 {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

// AddMonthNumber maps each row's month name to its 1-12 number. An
// unrecognized month name is a validation error; it must not silently
// default. Rows already numbered from the same month name are unchanged.
func AddMonthNumber(table dataset.Table) (dataset.Table, error) {
	out := make(dataset.Table, len(table))
	for i, row := range table {
		num, ok := monthNumbers[row.Month]
		if !ok {
			return nil, errors.NewValidationError(
				fmt.Sprintf("unrecognized month name %q", row.Month))
		}
		row.MonthNum = num
		out[i] = row
	}
	return out, nil
}

// FilterPriceOutliers returns the rows whose price is at most maxPrice.
// Rows with a nil price are dropped; they cannot be compared. The result is
// always a subset of the input's non-nil-price rows.
func FilterPriceOutliers(table dataset.Table, maxPrice float64) (dataset.Table, error) {
	if maxPrice <= 0 {
		return nil, errors.NewValidationError(
			fmt.Sprintf("max price must be positive, got %g", maxPrice))
	}

	out := make(dataset.Table, 0, len(table))
	for _, row := range table {
		if row.Price != nil && *row.Price <= maxPrice {
			out = append(out, row)
		}
	}
	return out, nil
}

// MonthNumber returns the 1-12 number for a month name
func MonthNumber(name string) (int, error) {
	num, ok := monthNumbers[name]
	if !ok {
		return 0, errors.NewValidationError(
			fmt.Sprintf("unrecognized month name %q", name))
	}
	return num, nil
}
