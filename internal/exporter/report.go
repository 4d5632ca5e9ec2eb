package exporter

import (
	"strconv"

	"bnbpulse/internal/analysis"
	"bnbpulse/internal/dataset"
)

// GroupStatsHeaders are the column headers for grouped statistics reports
var GroupStatsHeaders = []string{"group", "count", "mean", "median", "std_dev"}

// GroupStatsRecords renders grouped statistics as CSV records
func GroupStatsRecords(groups []analysis.GroupStats) [][]string {
	records := make([][]string, 0, len(groups))
	for _, g := range groups {
		std := ""
		if g.StdDev != nil {
			std = formatFloat(*g.StdDev)
		}
		records = append(records, []string{
			g.Group,
			strconv.Itoa(g.Count),
			formatFloat(g.Mean),
			formatFloat(g.Median),
			std,
		})
	}
	return records
}

// GroupStatsRows renders grouped statistics as workbook rows
func GroupStatsRows(groups []analysis.GroupStats) [][]interface{} {
	rows := make([][]interface{}, 0, len(groups))
	for _, g := range groups {
		var std interface{}
		if g.StdDev != nil {
			std = *g.StdDev
		}
		rows = append(rows, []interface{}{g.Group, g.Count, g.Mean, g.Median, std})
	}
	return rows
}

// LuxuryHeaders are the column headers for luxury count reports
var LuxuryHeaders = []string{"group", "luxury_count"}

// LuxuryRecords renders grouped luxury counts as CSV records
func LuxuryRecords(counts []analysis.GroupCount) [][]string {
	records := make([][]string, 0, len(counts))
	for _, c := range counts {
		records = append(records, []string{c.Group, strconv.Itoa(c.Count)})
	}
	return records
}

// NeighborhoodHeaders are the column headers for neighborhood rankings
var NeighborhoodHeaders = []string{"neighborhood", "mean_price", "count"}

// NeighborhoodRecords renders a neighborhood ranking as CSV records
func NeighborhoodRecords(ranking []analysis.NeighborhoodPrice) [][]string {
	records := make([][]string, 0, len(ranking))
	for _, n := range ranking {
		records = append(records, []string{
			n.Neighborhood,
			formatFloat(n.MeanPrice),
			strconv.Itoa(n.Count),
		})
	}
	return records
}

// ListingHeaders are the column headers for prepared table exports
var ListingHeaders = []string{"id", "name", "borough", "neighborhood", "room_type", "month", "month_num", "price"}

// ListingRecords renders a prepared table as CSV records
func ListingRecords(table dataset.Table) [][]string {
	records := make([][]string, 0, len(table))
	for _, row := range table {
		price := ""
		if row.Price != nil {
			price = formatFloat(*row.Price)
		}
		records = append(records, []string{
			row.ID,
			row.Name,
			row.Borough,
			row.Neighborhood,
			row.RoomType,
			row.Month,
			strconv.Itoa(row.MonthNum),
			price,
		})
	}
	return records
}

// CorrelationRecords renders a correlation matrix as CSV records, one row
// per column with a leading label cell.
func CorrelationRecords(matrix *analysis.CorrelationMatrix) ([]string, [][]string) {
	headers := append([]string{""}, matrix.Columns...)
	records := make([][]string, 0, len(matrix.Columns))
	for i, column := range matrix.Columns {
		record := make([]string, 0, len(matrix.Columns)+1)
		record = append(record, column)
		for j := range matrix.Columns {
			cell := ""
			if matrix.Values[i][j] != nil {
				cell = strconv.FormatFloat(*matrix.Values[i][j], 'f', 4, 64)
			}
			record = append(record, cell)
		}
		records = append(records, record)
	}
	return headers, records
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
