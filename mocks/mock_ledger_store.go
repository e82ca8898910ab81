package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"ftplog/internal/domain"
)

// MockLedgerStore is a mock implementation of port.LedgerStore.
type MockLedgerStore struct {
	mock.Mock
}

func (m *MockLedgerStore) RecordedURIs(ctx context.Context, uris []string) (map[string]struct{}, error) {
	args := m.Called(ctx, uris)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

func (m *MockLedgerStore) RecordBatch(ctx context.Context, entries []domain.LedgerEntry) ([]string, error) {
	args := m.Called(ctx, entries)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockLedgerStore) GetByURI(ctx context.Context, uri string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, uri)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerStore) List(ctx context.Context, filter domain.LedgerFilter, offset, limit int) ([]domain.LedgerEntry, int, error) {
	args := m.Called(ctx, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Int(1), args.Error(2)
}

func (m *MockLedgerStore) Summary(ctx context.Context, since, until time.Time) (*domain.LedgerSummary, error) {
	args := m.Called(ctx, since, until)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerSummary), args.Error(1)
}
