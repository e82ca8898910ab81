package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ftplog/internal/domain"
)

// MockIngestService is a mock implementation of service.IngestService.
type MockIngestService struct {
	mock.Mock
}

func (m *MockIngestService) Run(ctx context.Context) (*domain.RunSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RunSummary), args.Error(1)
}
