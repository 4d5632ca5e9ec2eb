package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"bnbpulse/internal/errors"
)

// Loader reads monthly listings extracts and concatenates them into a
// single table. It performs no cleaning or filtering; raw column values are
// preserved as they appear in the files.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new extract loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger.With(slog.String("component", "loader"))}
}

// LoadMonthlyListings loads every listings_<Month>_<year> extract (CSV or
// XLSX) from dir and concatenates them, tagging each row with the month
// taken from its filename. Missing directory or no matching files is a
// NOT_FOUND error; a malformed file is a PARSING error.
func (l *Loader) LoadMonthlyListings(ctx context.Context, dir string, year int) (Table, error) {
	files, err := findMonthlyFiles(dir, year)
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "loading monthly extracts",
		slog.String("dir", dir),
		slog.Int("year", year),
		slog.Int("file_count", len(files)))

	var combined Table
	for _, path := range files {
		month := monthFromFilename(path, year)

		rows, err := l.LoadFile(path, month)
		if err != nil {
			return nil, err
		}

		l.logger.InfoContext(ctx, "loaded extract",
			slog.String("file", filepath.Base(path)),
			slog.String("month", month),
			slog.Int("rows", len(rows)))

		combined = append(combined, rows...)
	}

	l.logger.InfoContext(ctx, "combined monthly extracts",
		slog.Int("total_rows", len(combined)))

	return combined, nil
}

// LoadFile loads a single extract, tagging every row with the given month.
// The format is chosen by extension (.csv or .xlsx).
func (l *Loader) LoadFile(path, month string) (Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return l.loadXLSX(path, month)
	default:
		return l.loadCSV(path, month)
	}
}

// findMonthlyFiles discovers listings_*_<year>.csv and .xlsx files in dir,
// sorted by filename.
func findMonthlyFiles(dir string, year int) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, errors.NewNotFoundError(
			fmt.Sprintf("data directory %s not found", dir), err)
	}

	var files []string
	for _, ext := range []string{"csv", "xlsx"} {
		pattern := filepath.Join(dir, fmt.Sprintf("listings_*_%d.%s", year, ext))
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errors.NewNotFoundError(
				fmt.Sprintf("invalid extract pattern %s", pattern), err)
		}
		files = append(files, matches...)
	}

	if len(files) == 0 {
		return nil, errors.NewNotFoundError(
			fmt.Sprintf("no listing files found in %s for year %d (expected listings_<Month>_%d.csv)",
				dir, year, year), nil)
	}

	sort.Strings(files)
	return files, nil
}

// monthFromFilename extracts the month name between "listings_" and
// "_<year>" in the file's base name.
func monthFromFilename(path string, year int) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.TrimPrefix(base, "listings_")
	return strings.TrimSuffix(base, fmt.Sprintf("_%d", year))
}

// loadCSV reads one CSV extract
func (l *Loader) loadCSV(path, month string) (Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewNotFoundError(
			fmt.Sprintf("failed to open extract %s", path), err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.NewParsingError(
			fmt.Sprintf("malformed CSV in %s", filepath.Base(path)), err)
	}
	if len(records) == 0 {
		return nil, errors.NewParsingError(
			fmt.Sprintf("extract %s has no header row", filepath.Base(path)), nil)
	}

	return rowsToListings(records, month), nil
}

// loadXLSX reads one XLSX extract via its first sheet
func (l *Loader) loadXLSX(path, month string) (Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewParsingError(
			fmt.Sprintf("failed to open workbook %s", filepath.Base(path)), err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.NewParsingError(
			fmt.Sprintf("workbook %s has no sheets", filepath.Base(path)), nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.NewParsingError(
			fmt.Sprintf("failed to read sheet %s in %s", sheets[0], filepath.Base(path)), err)
	}
	if len(rows) == 0 {
		return nil, errors.NewParsingError(
			fmt.Sprintf("workbook %s has no header row", filepath.Base(path)), nil)
	}

	return rowsToListings(rows, month), nil
}

// rowsToListings maps raw rows to listings using the header row. Column
// positions are discovered by name so extracts can carry columns in any
// order; unknown columns are ignored and missing optional columns leave
// fields unset.
func rowsToListings(rows [][]string, month string) Table {
	columnMap := mapColumns(rows[0])

	cell := func(row []string, name string) string {
		if idx, ok := columnMap[name]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	listings := make(Table, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isEmptyRow(row) {
			continue
		}

		listings = append(listings, Listing{
			ID:                cell(row, "id"),
			Name:              cell(row, "name"),
			PriceRaw:          cell(row, "price"),
			Month:             month,
			Borough:           cell(row, "borough"),
			Neighborhood:      cell(row, "neighborhood"),
			RoomType:          cell(row, "room_type"),
			MinimumNights:     parseOptionalFloat(cell(row, "minimum_nights")),
			NumberOfReviews:   parseOptionalFloat(cell(row, "number_of_reviews")),
			ReviewsPerMonth:   parseOptionalFloat(cell(row, "reviews_per_month")),
			HostListingsCount: parseOptionalFloat(cell(row, "host_listings_count")),
			Bedrooms:          parseOptionalFloat(cell(row, "bedrooms")),
		})
	}

	return listings
}

// mapColumns maps well-known column names to positions in the header row.
// Names are matched exactly so the free-text columns of detailed Inside
// Airbnb extracts (neighbourhood_overview, host_neighbourhood) are never
// picked up. Cleansed geography columns win over their raw counterparts.
func mapColumns(header []string) map[string]int {
	columnMap := make(map[string]int)
	cleansedNeighborhood := false

	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "id":
			columnMap["id"] = i
		case "name":
			columnMap["name"] = i
		case "price":
			columnMap["price"] = i
		case "neighbourhood_group_cleansed", "neighbourhood_group", "borough":
			columnMap["borough"] = i
		case "neighbourhood_cleansed":
			columnMap["neighborhood"] = i
			cleansedNeighborhood = true
		case "neighbourhood", "neighborhood":
			if !cleansedNeighborhood {
				columnMap["neighborhood"] = i
			}
		case "room_type":
			columnMap["room_type"] = i
		case "minimum_nights":
			columnMap["minimum_nights"] = i
		case "number_of_reviews":
			columnMap["number_of_reviews"] = i
		case "reviews_per_month":
			columnMap["reviews_per_month"] = i
		case "calculated_host_listings_count", "host_listings_count":
			columnMap["host_listings_count"] = i
		case "bedrooms":
			columnMap["bedrooms"] = i
		}
	}

	return columnMap
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parseOptionalFloat parses a numeric cell, returning nil for empty or
// unparseable values. Thousands separators are tolerated.
func parseOptionalFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &v
}
