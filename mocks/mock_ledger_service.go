package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"ftplog/internal/domain"
)

// MockLedgerService is a mock implementation of service.LedgerService.
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) List(ctx context.Context, filter domain.LedgerFilter, offset, limit int) ([]domain.LedgerEntry, int, error) {
	args := m.Called(ctx, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Int(1), args.Error(2)
}

func (m *MockLedgerService) Get(ctx context.Context, uri string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, uri)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerService) Summary(ctx context.Context, window time.Duration) (*domain.LedgerSummary, error) {
	args := m.Called(ctx, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerSummary), args.Error(1)
}

// Export hands the configured batches ([][]domain.LedgerEntry) to fn in order.
func (m *MockLedgerService) Export(ctx context.Context, filter domain.LedgerFilter, fn func(batch []domain.LedgerEntry) error) error {
	args := m.Called(ctx, filter, fn)
	if batches, ok := args.Get(0).([][]domain.LedgerEntry); ok {
		for _, b := range batches {
			if err := fn(b); err != nil {
				return err
			}
		}
	}
	return args.Error(1)
}

func (m *MockLedgerService) Reprocess(ctx context.Context, uri string) (int64, error) {
	args := m.Called(ctx, uri)
	return args.Get(0).(int64), args.Error(1)
}
