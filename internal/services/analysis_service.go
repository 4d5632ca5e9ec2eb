package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bnbpulse/internal/analysis"
	"bnbpulse/internal/config"
	"bnbpulse/internal/dataset"
	apperrors "bnbpulse/internal/errors"
	"bnbpulse/internal/infrastructure"
	"bnbpulse/internal/preprocess"
)

// AnalysisService loads the configured listing dataset once, runs the
// preprocessing pipeline over it, and serves analysis queries from the
// prepared in-memory table.
type AnalysisService struct {
	config  *config.Config
	paths   *config.Paths
	logger  *slog.Logger
	metrics *infrastructure.Metrics
	loader  *dataset.Loader
	pipe    *preprocess.Pipeline

	mu       sync.RWMutex
	prepared dataset.Table
	rawCount int
	loadedAt time.Time
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(cfg *config.Config, paths *config.Paths, logger *slog.Logger, metrics *infrastructure.Metrics) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("AnalysisService initialized",
		slog.String("data_dir", paths.DataDir),
		slog.Int("dataset_year", cfg.Analysis.DataYear),
		slog.Float64("max_price", cfg.Analysis.MaxPrice))

	return &AnalysisService{
		config:  cfg,
		paths:   paths,
		logger:  logger,
		metrics: metrics,
		loader:  dataset.NewLoader(logger),
		pipe:    preprocess.NewPipeline(logger),
	}
}

// Load reads the monthly listing files for the configured year and runs
// the full preprocessing pipeline. Safe to call again to refresh the
// prepared table; queries keep serving the previous table until the new
// one is ready.
func (s *AnalysisService) Load(ctx context.Context) error {
	start := time.Now()

	raw, err := s.loader.LoadMonthlyListings(ctx, s.paths.DataDir, s.config.Analysis.DataYear)
	if err != nil {
		return fmt.Errorf("load listings: %w", err)
	}

	prepared, err := s.pipe.Preprocess(ctx, raw, preprocess.Options{
		MaxPrice: s.config.Analysis.MaxPrice,
	})
	if err != nil {
		return fmt.Errorf("preprocess listings: %w", err)
	}

	s.mu.Lock()
	s.prepared = prepared
	s.rawCount = len(raw)
	s.loadedAt = time.Now()
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ListingsLoaded.Set(float64(len(raw)))
		s.metrics.ListingsKept.Set(float64(len(prepared)))
		s.metrics.DatasetLoads.Inc()
	}

	s.logger.InfoContext(ctx, "dataset loaded",
		slog.Int("rows_raw", len(raw)),
		slog.Int("rows_prepared", len(prepared)),
		slog.Duration("duration", time.Since(start)))

	return nil
}

// table returns the prepared table, or a storage error when no dataset
// has been loaded yet.
func (s *AnalysisService) table() (dataset.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.prepared == nil {
		return nil, apperrors.NewStorageError("dataset not loaded", nil)
	}
	return s.prepared, nil
}

// Overview returns descriptive statistics over the whole prepared table
func (s *AnalysisService) Overview(ctx context.Context) (analysis.Stats, error) {
	table, err := s.table()
	if err != nil {
		return analysis.Stats{}, err
	}
	return analysis.RentalStats(table), nil
}

// StatsBy returns per-group statistics for one categorical column
func (s *AnalysisService) StatsBy(ctx context.Context, column string) ([]analysis.GroupStats, error) {
	table, err := s.table()
	if err != nil {
		return nil, err
	}
	return analysis.RentalStatsBy(table, column)
}

// Boroughs returns per-borough statistics
func (s *AnalysisService) Boroughs(ctx context.Context) ([]analysis.GroupStats, error) {
	table, err := s.table()
	if err != nil {
		return nil, err
	}
	return analysis.CompareBoroughs(table)
}

// CompareAgainst compares one borough's mean price to everything else
func (s *AnalysisService) CompareAgainst(ctx context.Context, target string) (analysis.BoroughComparison, error) {
	table, err := s.table()
	if err != nil {
		return analysis.BoroughComparison{}, err
	}
	return analysis.CompareAgainst(table, target)
}

// Luxury counts listings priced strictly above threshold. A zero
// threshold falls back to the configured default.
func (s *AnalysisService) Luxury(ctx context.Context, threshold float64) (int, error) {
	table, err := s.table()
	if err != nil {
		return 0, err
	}
	if threshold == 0 {
		threshold = s.config.Analysis.LuxuryThreshold
	}
	return analysis.CountLuxuryListings(table, threshold)
}

// LuxuryBy counts listings priced strictly above threshold per group
func (s *AnalysisService) LuxuryBy(ctx context.Context, threshold float64, column string) ([]analysis.GroupCount, error) {
	table, err := s.table()
	if err != nil {
		return nil, err
	}
	if threshold == 0 {
		threshold = s.config.Analysis.LuxuryThreshold
	}
	return analysis.CountLuxuryListingsBy(table, threshold, column)
}

// SeasonalRange returns the spread between monthly mean prices
func (s *AnalysisService) SeasonalRange(ctx context.Context) (analysis.SeasonalRange, error) {
	table, err := s.table()
	if err != nil {
		return analysis.SeasonalRange{}, err
	}
	return analysis.CalculateSeasonalRange(table)
}

// TopNeighborhoods ranks neighborhoods within one borough by mean price
func (s *AnalysisService) TopNeighborhoods(ctx context.Context, borough string, limit int) ([]analysis.NeighborhoodPrice, error) {
	table, err := s.table()
	if err != nil {
		return nil, err
	}
	return analysis.TopNeighborhoods(table, borough, limit)
}

// Correlations computes pairwise Pearson correlations over numeric columns
func (s *AnalysisService) Correlations(ctx context.Context, columns []string) (*analysis.CorrelationMatrix, error) {
	table, err := s.table()
	if err != nil {
		return nil, err
	}
	return analysis.Correlations(table, columns)
}

// PreparedTable returns the prepared table for export
func (s *AnalysisService) PreparedTable(ctx context.Context) (dataset.Table, error) {
	return s.table()
}

// DatasetStatus describes the currently loaded dataset
type DatasetStatus struct {
	Loaded      bool      `json:"loaded"`
	DatasetYear int       `json:"dataset_year"`
	RowsRaw     int       `json:"rows_raw"`
	RowsKept    int       `json:"rows_kept"`
	LoadedAt    time.Time `json:"loaded_at,omitempty"`
}

// Status reports whether a dataset is loaded and how many rows survived
// preprocessing.
func (s *AnalysisService) Status() DatasetStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return DatasetStatus{
		Loaded:      s.prepared != nil,
		DatasetYear: s.config.Analysis.DataYear,
		RowsRaw:     s.rawCount,
		RowsKept:    len(s.prepared),
		LoadedAt:    s.loadedAt,
	}
}
