package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved, absolute application paths
type Paths struct {
	BaseDir    string
	DataDir    string
	DayFile    string
	HourFile   string
	ExportsDir string
	LogsDir    string
	LogFile    string
}

// ExecutableDir returns the directory holding the running binary with
// symlinks resolved
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}
	return filepath.Dir(exe), nil
}

// Resolve turns the configured paths into absolute ones. Relative entries
// are joined to BaseDir, which itself defaults to the executable directory.
//
// Layout under the base directory:
//
//	data/day.csv
//	data/hour.csv
//	exports/
//	logs/dashboard.log
func (p PathsConfig) Resolve(logFile string) (*Paths, error) {
	base := p.BaseDir
	if base == "" {
		dir, err := ExecutableDir()
		if err != nil {
			return nil, err
		}
		base = dir
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base dir: %w", err)
	}

	join := func(root, path string) string {
		if path == "" || filepath.IsAbs(path) {
			return path
		}
		return filepath.Join(root, path)
	}

	dataDir := join(base, p.DataDir)
	return &Paths{
		BaseDir:    base,
		DataDir:    dataDir,
		DayFile:    join(dataDir, p.DayFile),
		HourFile:   join(dataDir, p.HourFile),
		ExportsDir: join(base, p.ExportsDir),
		LogsDir:    join(base, p.LogsDir),
		LogFile:    join(base, logFile),
	}, nil
}

// EnsureDirectories creates the writable directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.ExportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ValidateDataFiles reports which source files are missing
func (p *Paths) ValidateDataFiles() error {
	var missing []string
	for _, f := range []string{p.DayFile, p.HourFile} {
		if !FileExists(f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("data files missing: %v", missing)
	}
	return nil
}

// ExportPath returns the path of an export file inside ExportsDir
func (p *Paths) ExportPath(filename string) string {
	return filepath.Join(p.ExportsDir, filename)
}

// LogPathResolution logs the resolved paths
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("exports", p.ExportsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("files",
			slog.String("day", p.DayFile),
			slog.String("hour", p.HourFile),
			slog.Bool("day_exists", FileExists(p.DayFile)),
			slog.Bool("hour_exists", FileExists(p.HourFile)),
		))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
