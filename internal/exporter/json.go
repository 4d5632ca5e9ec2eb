package exporter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bnbpulse/internal/config"
)

// ReportEnvelope wraps an exported result with generation metadata
type ReportEnvelope struct {
	GeneratedAt time.Time   `json:"generated_at"`
	DatasetYear int         `json:"dataset_year"`
	Report      string      `json:"report"`
	Data        interface{} `json:"data"`
}

// JSONWriter writes analysis results as indented JSON reports
type JSONWriter struct {
	paths *config.Paths
	year  int
}

// NewJSONWriter creates a new JSON report writer
func NewJSONWriter(paths *config.Paths, year int) *JSONWriter {
	return &JSONWriter{paths: paths, year: year}
}

// WriteReport writes one named result wrapped in a metadata envelope
func (w *JSONWriter) WriteReport(filePath, report string, data interface{}) error {
	fullPath := filePath
	if !filepath.IsAbs(fullPath) {
		fullPath = w.paths.GetReportPath(filePath)
	}

	slog.Info("Writing JSON report",
		slog.String("file_path", filePath),
		slog.String("report", report))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	envelope := ReportEnvelope{
		GeneratedAt: time.Now().UTC(),
		DatasetYear: w.year,
		Report:      report,
		Data:        data,
	}

	payload, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(fullPath, payload, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
