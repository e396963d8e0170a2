package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"labordash/internal/config"
	"labordash/pkg/contracts/domain"
)

// FileInfo represents a discovered data file
type FileInfo struct {
	Path    string
	Name    string
	RelPath string
	Size    int64
	ModTime time.Time
	// Source is empty when neither the file name nor its directory names a publisher
	Source domain.Source
}

// HasSource reports whether a source could be inferred for the file
func (f FileInfo) HasSource() bool {
	return f.Source != ""
}

// Discovery finds labor-statistics files under a data directory
type Discovery struct {
	basePath  string
	recursive bool
}

// NewDiscovery creates a new file discovery instance.
// With recursive set, files one directory level below the root are found too.
func NewDiscovery(basePath string, recursive bool) *Discovery {
	return &Discovery{basePath: basePath, recursive: recursive}
}

// FindDataFiles lists the CSV and Excel files in dir ordered by relative path
func (d *Discovery) FindDataFiles(dir string) ([]FileInfo, error) {
	fullPath := dir
	if !filepath.IsAbs(dir) {
		fullPath = filepath.Join(d.basePath, dir)
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			if !d.recursive || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			sub, err := os.ReadDir(filepath.Join(fullPath, entry.Name()))
			if err != nil {
				return nil, fmt.Errorf("failed to read directory %s: %w", entry.Name(), err)
			}
			for _, subEntry := range sub {
				if info, ok := dataFile(fullPath, entry.Name(), subEntry); ok {
					files = append(files, info)
				}
			}
			continue
		}

		if info, ok := dataFile(fullPath, "", entry); ok {
			files = append(files, info)
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].RelPath < files[j].RelPath
	})

	return files, nil
}

func dataFile(root, subdir string, entry os.DirEntry) (FileInfo, bool) {
	name := entry.Name()
	if entry.IsDir() || !IsDataFile(name) || strings.HasPrefix(name, "~$") {
		return FileInfo{}, false
	}

	info, err := entry.Info()
	if err != nil {
		return FileInfo{}, false
	}

	rel := filepath.Join(subdir, name)
	source, _ := InferSource(rel)
	return FileInfo{
		Path:    filepath.Join(root, rel),
		Name:    name,
		RelPath: filepath.ToSlash(rel),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Source:  source,
	}, true
}

// IsDataFile reports whether the file extension is one the loader reads
func IsDataFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, supported := range config.SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

var sourcePrefixes = []string{"world_bank", "world-bank", "worldbank", "ilostat", "wdi", "bls", "ilo", "wb"}

// InferSource derives the publisher from the file-name prefix
// (bls_*.csv, wb-*.xlsx) or, failing that, from the parent directory name
func InferSource(path string) (domain.Source, bool) {
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	if prefix := sourcePrefix(base); prefix != "" {
		if s, err := domain.ParseSource(prefix); err == nil {
			return s, true
		}
	}

	if parent := filepath.Base(filepath.Dir(path)); parent != "." && parent != string(filepath.Separator) {
		if s, err := domain.ParseSource(parent); err == nil {
			return s, true
		}
	}
	return "", false
}

// TrimSourcePrefix removes a leading source tag and its separator from a
// file base name: bls_unemployment_rate becomes unemployment_rate
func TrimSourcePrefix(base string) string {
	prefix := sourcePrefix(strings.ToLower(base))
	if prefix == "" || len(base) == len(prefix) {
		return base
	}
	return base[len(prefix)+1:]
}

func sourcePrefix(base string) string {
	for _, prefix := range sourcePrefixes {
		if base == prefix || hasTagPrefix(base, prefix) {
			return prefix
		}
	}
	return ""
}

func hasTagPrefix(name, prefix string) bool {
	if !strings.HasPrefix(name, prefix) || len(name) == len(prefix) {
		return false
	}
	switch name[len(prefix)] {
	case '_', '-', '.', ' ':
		return true
	}
	return false
}
