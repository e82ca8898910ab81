package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"ftplog/internal/domain"
)

// MockBlobLister is a mock implementation of port.BlobLister.
type MockBlobLister struct {
	mock.Mock
}

func (m *MockBlobLister) List(ctx context.Context) ([]domain.InputFile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InputFile), args.Error(1)
}

func (m *MockBlobLister) Open(ctx context.Context, file domain.InputFile) (io.ReadCloser, error) {
	args := m.Called(ctx, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}
