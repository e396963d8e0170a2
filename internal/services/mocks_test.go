package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"labordash/internal/ingest"
	"labordash/pkg/contracts/domain"
	"labordash/pkg/contracts/events"
)

// MockDatasetLoader is a mock for the DatasetLoader interface
type MockDatasetLoader struct {
	mock.Mock
}

func (m *MockDatasetLoader) LoadDir(ctx context.Context, dir string) (*domain.Dataset, *ingest.Report, error) {
	args := m.Called(ctx, dir)
	var ds *domain.Dataset
	if v := args.Get(0); v != nil {
		ds = v.(*domain.Dataset)
	}
	var report *ingest.Report
	if v := args.Get(1); v != nil {
		report = v.(*ingest.Report)
	}
	return ds, report, args.Error(2)
}

// MockPublisher is a mock for the Publisher interface
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, messageType events.MessageType, data interface{}) error {
	args := m.Called(ctx, messageType, data)
	return args.Error(0)
}

type stubDataset struct {
	len      int
	loadedAt time.Time
}

func (s stubDataset) Len() int            { return s.len }
func (s stubDataset) LoadedAt() time.Time { return s.loadedAt }

type stubClients int

func (s stubClients) ClientCount() int { return int(s) }
