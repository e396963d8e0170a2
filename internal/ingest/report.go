package ingest

import (
	"fmt"
	"path/filepath"
	"time"

	"labordash/pkg/contracts/domain"
)

// FileReport describes the import of one file
type FileReport struct {
	Path           string
	Source         domain.Source
	Sheet          string
	Rows           int
	Skipped        int
	Duplicates     int
	DroppedColumns []string
	Warnings       []string
	Err            error
}

func (f *FileReport) warnf(format string, args ...interface{}) {
	f.Warnings = append(f.Warnings, fmt.Sprintf(format, args...))
}

// Failed reports whether the file was rejected
func (f *FileReport) Failed() bool {
	return f.Err != nil
}

// Report summarizes a load of one file or a whole directory
type Report struct {
	Files        []FileReport
	Warnings     []string
	Observations int
	LoadedAt     time.Time
	Duration     time.Duration
}

func (r *Report) warnf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Rows returns the number of observations produced before cross-file deduplication
func (r *Report) Rows() int {
	total := 0
	for _, f := range r.Files {
		total += f.Rows
	}
	return total
}

// Skipped returns the number of rows skipped for missing values
func (r *Report) Skipped() int {
	total := 0
	for _, f := range r.Files {
		total += f.Skipped
	}
	return total
}

// Failed returns the files that were rejected
func (r *Report) Failed() []FileReport {
	var failed []FileReport
	for _, f := range r.Files {
		if f.Failed() {
			failed = append(failed, f)
		}
	}
	return failed
}

// Messages flattens all warnings and file errors into user-visible lines
func (r *Report) Messages() []string {
	messages := make([]string, 0, len(r.Warnings))
	messages = append(messages, r.Warnings...)
	for _, f := range r.Files {
		name := filepath.Base(f.Path)
		if f.Err != nil {
			messages = append(messages, fmt.Sprintf("%s: skipped: %v", name, f.Err))
		}
		for _, w := range f.Warnings {
			messages = append(messages, fmt.Sprintf("%s: %s", name, w))
		}
	}
	return messages
}
