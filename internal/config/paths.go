package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths holds the resolved absolute directories used at runtime
type Paths struct {
	BaseDir string
	DataDir string
	LogsDir string
	LogFile string
}

// ResolvePaths turns the configured paths into absolute paths.
// Relative paths are resolved against BaseDir, or the working directory when it is empty.
func (c *Config) ResolvePaths() (*Paths, error) {
	base := c.Paths.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}

	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	return &Paths{
		BaseDir: base,
		DataDir: resolve(base, c.Paths.DataDir),
		LogsDir: resolve(base, c.Paths.LogsDir),
		LogFile: resolve(base, c.Logging.FilePath),
	}, nil
}

// EnsureDirectories creates the directories the application writes to.
// The data directory is only read, so a missing one is reported by the loader instead.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.LogsDir, filepath.Dir(p.LogFile)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// FileExists reports whether path exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
