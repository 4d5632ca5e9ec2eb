package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths holds the resolved directory layout for the application. All
// relative directories from PathsConfig are resolved against the working
// directory once, at startup.
type Paths struct {
	BaseDir    string
	DataDir    string
	ReportsDir string
	LogsDir    string
}

// ResolvePaths resolves the configured directories to absolute paths
func ResolvePaths(cfg PathsConfig) (*Paths, error) {
	base, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to determine working directory: %w", err)
	}

	return &Paths{
		BaseDir:    base,
		DataDir:    resolveDir(base, cfg.DataDir),
		ReportsDir: resolveDir(base, cfg.ReportsDir),
		LogsDir:    resolveDir(base, cfg.LogsDir),
	}, nil
}

func resolveDir(base, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(base, dir)
}

// EnsureDirectories creates the reports and logs directories if missing.
// The data directory is not created: it must already contain the monthly
// extracts, and a missing data directory is an input error, not something
// to paper over.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.ReportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetReportPath returns the full path for a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetDataPath returns the full path for a file inside the data directory
func (p *Paths) GetDataPath(filename string) string {
	return filepath.Join(p.DataDir, filename)
}

// FileExists reports whether the given path exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
