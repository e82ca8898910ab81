package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ftplog/internal/domain"
	"ftplog/internal/service"
	"ftplog/mocks"
)

func TestLedgerService_List_ClampsPaging(t *testing.T) {
	store := new(mocks.MockLedgerStore)
	svc := service.NewLedgerService(store, new(mocks.MockReprocessor), nil)

	filter := domain.LedgerFilter{Status: domain.LedgerStatusFailed}
	store.On("List", mock.Anything, filter, 0, service.DefaultPageSize).Return([]domain.LedgerEntry{}, 0, nil).Once()
	store.On("List", mock.Anything, filter, 10, service.MaxPageSize).Return([]domain.LedgerEntry{{GCSURI: "u"}}, 11, nil).Once()

	_, _, err := svc.List(context.Background(), filter, -5, 0)
	require.NoError(t, err)

	entries, total, err := svc.List(context.Background(), filter, 10, 10000)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, 11, total)
	store.AssertExpectations(t)
}

func TestLedgerService_List_InvalidFilter(t *testing.T) {
	store := new(mocks.MockLedgerStore)
	svc := service.NewLedgerService(store, new(mocks.MockReprocessor), nil)

	_, _, err := svc.List(context.Background(), domain.LedgerFilter{Status: "DONE"}, 0, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidFilter)

	since := time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)
	until := since.Add(-time.Hour)
	_, _, err = svc.List(context.Background(), domain.LedgerFilter{Since: &since, Until: &until}, 0, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidFilter)

	store.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLedgerService_Get(t *testing.T) {
	store := new(mocks.MockLedgerStore)
	svc := service.NewLedgerService(store, new(mocks.MockReprocessor), nil)

	entry := &domain.LedgerEntry{GCSURI: "s3://b/logs/a.json", Status: domain.LedgerStatusSuccess}
	store.On("GetByURI", mock.Anything, "s3://b/logs/a.json").Return(entry, nil)
	store.On("GetByURI", mock.Anything, "s3://b/logs/missing.json").Return(nil, domain.ErrNotFound)

	got, err := svc.Get(context.Background(), "  s3://b/logs/a.json ")
	require.NoError(t, err)
	assert.Equal(t, entry, got)

	_, err = svc.Get(context.Background(), "s3://b/logs/missing.json")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Get(context.Background(), " ")
	assert.ErrorIs(t, err, domain.ErrInvalidFilter)
}

func TestLedgerService_Summary(t *testing.T) {
	store := new(mocks.MockLedgerStore)
	svc := service.NewLedgerService(store, new(mocks.MockReprocessor), nil)

	store.On("Summary", mock.Anything, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) {
			since := args.Get(1).(time.Time)
			until := args.Get(2).(time.Time)
			assert.Equal(t, 24*time.Hour, until.Sub(since))
		}).
		Return(&domain.LedgerSummary{FilesProcessed: 3}, nil)

	summary, err := svc.Summary(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.FilesProcessed)

	_, err = svc.Summary(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidFilter)
}

func TestLedgerService_Export_WalksAllPages(t *testing.T) {
	store := newMemStore()
	for _, uri := range []string{"c", "a", "b"} {
		_, err := store.RecordBatch(context.Background(), []domain.LedgerEntry{{GCSURI: uri}})
		require.NoError(t, err)
	}
	svc := service.NewLedgerService(store, new(mocks.MockReprocessor), nil)

	var seen []string
	err := svc.Export(context.Background(), domain.LedgerFilter{}, func(batch []domain.LedgerEntry) error {
		for _, e := range batch {
			seen = append(seen, e.GCSURI)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, seen)
}

func TestLedgerService_Export_PropagatesErrors(t *testing.T) {
	store := new(mocks.MockLedgerStore)
	store.On("List", mock.Anything, domain.LedgerFilter{}, 0, mock.AnythingOfType("int")).
		Return(nil, 0, errors.New("db down"))
	svc := service.NewLedgerService(store, new(mocks.MockReprocessor), nil)

	err := svc.Export(context.Background(), domain.LedgerFilter{}, func([]domain.LedgerEntry) error { return nil })
	assert.Error(t, err)
}

func TestLedgerService_Reprocess(t *testing.T) {
	rp := new(mocks.MockReprocessor)
	svc := service.NewLedgerService(new(mocks.MockLedgerStore), rp, nil)

	rp.On("Reprocess", mock.Anything, "s3://b/logs/a.json").Return(int64(7), nil)
	rp.On("Reprocess", mock.Anything, "s3://b/logs/none.json").Return(int64(0), domain.ErrNotFound)

	n, err := svc.Reprocess(context.Background(), "s3://b/logs/a.json")
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	_, err = svc.Reprocess(context.Background(), "s3://b/logs/none.json")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Reprocess(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidFilter)
	rp.AssertNumberOfCalls(t, "Reprocess", 2)
}
