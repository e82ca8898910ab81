package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ftplog/internal/domain"
)

// MockStructuredSink is a mock implementation of port.StructuredSink.
type MockStructuredSink struct {
	mock.Mock
}

func (m *MockStructuredSink) MergeRows(ctx context.Context, rows []domain.ParsedRow) (int64, error) {
	args := m.Called(ctx, rows)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStructuredSink) CountByFile(ctx context.Context, uris []string) (map[string]int64, error) {
	args := m.Called(ctx, uris)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}
