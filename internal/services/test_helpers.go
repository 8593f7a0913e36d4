package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"bikeshare/internal/dataset"
)

// MockBroadcaster is a mock for the Broadcaster interface
type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) BroadcastContext(ctx context.Context, messageType string, data interface{}) {
	m.Called(ctx, messageType, data)
}

// MockLoader is a mock for the DatasetLoader interface
type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) Load(ctx context.Context, dayPath, hourPath string) (*dataset.Tables, error) {
	args := m.Called(ctx, dayPath, hourPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dataset.Tables), args.Error(1)
}
