package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"bnbpulse/internal/analysis"
	"bnbpulse/internal/config"
	"bnbpulse/internal/dataset"
	"bnbpulse/internal/exporter"
	"bnbpulse/internal/infrastructure"
	"bnbpulse/internal/preprocess"
)

func main() {
	dataDir := flag.String("data", "", "directory holding listings_<month>_<year>.csv files (defaults to configured data dir)")
	year := flag.Int("year", 0, "dataset year to load (defaults to configured year)")
	maxPrice := flag.Float64("max-price", 0, "outlier cutoff; rows priced above it are dropped (defaults to configured value)")
	luxury := flag.Float64("luxury", 0, "luxury threshold for the strictly-above count (defaults to configured value)")
	target := flag.String("target", "Manhattan", "borough to compare against all others")
	topN := flag.Int("top", 10, "neighborhoods to rank per borough report")
	workbook := flag.Bool("xlsx", true, "also write a combined XLSX workbook")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}

	if *year != 0 {
		cfg.Analysis.DataYear = *year
	}
	if *maxPrice != 0 {
		cfg.Analysis.MaxPrice = *maxPrice
	}
	if *luxury != 0 {
		cfg.Analysis.LuxuryThreshold = *luxury
	}

	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		logger.Error("Failed to resolve paths", "error", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		paths.DataDir = *dataDir
	}
	if err := paths.EnsureDirectories(); err != nil {
		logger.Error("Failed to ensure directories", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	loader := dataset.NewLoader(logger)
	raw, err := loader.LoadMonthlyListings(ctx, paths.DataDir, cfg.Analysis.DataYear)
	if err != nil {
		logger.Error("Failed to load listings", "error", err, "data_dir", paths.DataDir)
		os.Exit(1)
	}

	pipe := preprocess.NewPipeline(logger)
	prepared, err := pipe.Preprocess(ctx, raw, preprocess.Options{MaxPrice: cfg.Analysis.MaxPrice})
	if err != nil {
		logger.Error("Preprocessing failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Dataset prepared",
		"rows_raw", len(raw),
		"rows_kept", len(prepared),
		"year", cfg.Analysis.DataYear)

	if err := writeReports(cfg, paths, prepared, *target, *topN, *workbook, logger); err != nil {
		logger.Error("Report generation failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Reports written", "reports_dir", paths.ReportsDir)
}

// writeReports runs every analysis over the prepared table and exports
// the results as CSV and JSON reports, plus an optional XLSX workbook.
func writeReports(cfg *config.Config, paths *config.Paths, prepared dataset.Table, target string, topN int, workbook bool, logger *slog.Logger) error {
	csvWriter := exporter.NewCSVWriter(paths)
	jsonWriter := exporter.NewJSONWriter(paths, cfg.Analysis.DataYear)

	boroughStats, err := analysis.CompareBoroughs(prepared)
	if err != nil {
		return fmt.Errorf("borough stats: %w", err)
	}
	monthlyStats, err := analysis.RentalStatsBy(prepared, dataset.ColumnMonth)
	if err != nil {
		return fmt.Errorf("monthly stats: %w", err)
	}
	roomTypeStats, err := analysis.RentalStatsBy(prepared, dataset.ColumnRoomType)
	if err != nil {
		return fmt.Errorf("room type stats: %w", err)
	}
	luxuryCounts, err := analysis.CountLuxuryListingsBy(prepared, cfg.Analysis.LuxuryThreshold, dataset.ColumnBorough)
	if err != nil {
		return fmt.Errorf("luxury counts: %w", err)
	}
	seasonal, err := analysis.CalculateSeasonalRange(prepared)
	if err != nil {
		return fmt.Errorf("seasonal range: %w", err)
	}
	comparison, err := analysis.CompareAgainst(prepared, target)
	if err != nil {
		return fmt.Errorf("borough comparison: %w", err)
	}
	neighborhoods, err := analysis.TopNeighborhoods(prepared, target, topN)
	if err != nil {
		return fmt.Errorf("neighborhood ranking: %w", err)
	}
	correlations, err := analysis.Correlations(prepared, nil)
	if err != nil {
		return fmt.Errorf("correlations: %w", err)
	}

	if err := csvWriter.WriteSimpleCSV("borough_stats.csv", exporter.GroupStatsHeaders, exporter.GroupStatsRecords(boroughStats)); err != nil {
		return err
	}
	if err := csvWriter.WriteSimpleCSV("monthly_stats.csv", exporter.GroupStatsHeaders, exporter.GroupStatsRecords(monthlyStats)); err != nil {
		return err
	}
	if err := csvWriter.WriteSimpleCSV("room_type_stats.csv", exporter.GroupStatsHeaders, exporter.GroupStatsRecords(roomTypeStats)); err != nil {
		return err
	}
	if err := csvWriter.WriteSimpleCSV("luxury_counts.csv", exporter.LuxuryHeaders, exporter.LuxuryRecords(luxuryCounts)); err != nil {
		return err
	}
	if err := csvWriter.WriteSimpleCSV("top_neighborhoods.csv", exporter.NeighborhoodHeaders, exporter.NeighborhoodRecords(neighborhoods)); err != nil {
		return err
	}
	if err := csvWriter.WriteSimpleCSV("prepared_listings.csv", exporter.ListingHeaders, exporter.ListingRecords(prepared)); err != nil {
		return err
	}

	corrHeaders, corrRecords := exporter.CorrelationRecords(correlations)
	if err := csvWriter.WriteSimpleCSV("correlations.csv", corrHeaders, corrRecords); err != nil {
		return err
	}

	summary := map[string]interface{}{
		"overview":          analysis.RentalStats(prepared),
		"boroughs":          boroughStats,
		"seasonal_range":    seasonal,
		"borough_compared":  comparison,
		"luxury_counts":     luxuryCounts,
		"top_neighborhoods": neighborhoods,
	}
	if err := jsonWriter.WriteReport("summary.json", "rental_summary", summary); err != nil {
		return err
	}

	if !workbook {
		return nil
	}

	excelWriter := exporter.NewExcelWriter(paths)
	sheets := []exporter.Sheet{
		{Name: "Boroughs", Headers: exporter.GroupStatsHeaders, Rows: exporter.GroupStatsRows(boroughStats)},
		{Name: "Monthly", Headers: exporter.GroupStatsHeaders, Rows: exporter.GroupStatsRows(monthlyStats)},
		{Name: "Room Types", Headers: exporter.GroupStatsHeaders, Rows: exporter.GroupStatsRows(roomTypeStats)},
	}
	if err := excelWriter.WriteWorkbook("rental_report.xlsx", sheets); err != nil {
		return err
	}

	logger.Info("Workbook written", "file", "rental_report.xlsx")
	return nil
}
