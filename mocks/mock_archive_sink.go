package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ftplog/internal/domain"
)

// MockArchiveSink is a mock implementation of port.ArchiveSink.
type MockArchiveSink struct {
	mock.Mock
}

func (m *MockArchiveSink) Append(ctx context.Context, runID string, entries []domain.ArchiveEntry) error {
	args := m.Called(ctx, runID, entries)
	return args.Error(0)
}
