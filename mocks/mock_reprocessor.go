package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockReprocessor is a mock implementation of port.Reprocessor.
type MockReprocessor struct {
	mock.Mock
}

func (m *MockReprocessor) Reprocess(ctx context.Context, uri string) (int64, error) {
	args := m.Called(ctx, uri)
	return args.Get(0).(int64), args.Error(1)
}
