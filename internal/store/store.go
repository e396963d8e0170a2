package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"labordash/internal/infrastructure"
	"labordash/pkg/contracts/domain"
)

// Mode selects how Load combines a new dataset with the current one
type Mode string

const (
	// ModeReplace swaps the dataset wholesale
	ModeReplace Mode = "replace"
	// ModeMerge keeps current observations and lets new ones win on key collision
	ModeMerge Mode = "merge"
)

// Store holds the current dataset in memory. Reads run concurrently; a load
// builds the next dataset off to the side and swaps the pointer.
type Store struct {
	mu       sync.RWMutex
	data     *domain.Dataset
	loadedAt time.Time

	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
}

// New creates an empty store. Metrics may be nil.
func New(logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		data:    domain.NewDataset(nil),
		logger:  logger.With(slog.String("component", "store")),
		metrics: metrics,
	}
}

// Load replaces or merges the current dataset
func (s *Store) Load(ctx context.Context, ds *domain.Dataset, mode Mode) error {
	if ds == nil {
		ds = domain.NewDataset(nil)
	}

	s.mu.Lock()
	switch mode {
	case ModeReplace:
		s.data = ds
	case ModeMerge:
		s.data = s.data.Merge(ds)
	default:
		s.mu.Unlock()
		return fmt.Errorf("unknown load mode %q", mode)
	}
	s.loadedAt = time.Now()
	size := s.data.Len()
	s.mu.Unlock()

	infrastructure.RecordStoreLoad(ctx, s.metrics, string(mode))
	s.logger.InfoContext(ctx, "Dataset loaded",
		slog.String("mode", string(mode)),
		slog.Int("incoming", ds.Len()),
		slog.Int("observations", size))
	return nil
}

func (s *Store) snapshot() *domain.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// Len returns the number of observations held
func (s *Store) Len() int {
	return s.snapshot().Len()
}

// LoadedAt returns the time of the last load, zero before the first
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Query returns copies of the observations matching f, sorted by period,
// region and demographic. No match yields an empty, non-nil slice.
func (s *Store) Query(f domain.Filter) []domain.Observation {
	ds := s.snapshot()
	if f.IsEmpty() {
		return ds.Observations()
	}

	m := f.Compile()
	out := make([]domain.Observation, 0)
	for i := 0; i < ds.Len(); i++ {
		if o := ds.At(i); m.Match(o) {
			out = append(out, o)
		}
	}
	return out
}
