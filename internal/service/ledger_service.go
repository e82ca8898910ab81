package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ftplog/internal/domain"
	"ftplog/internal/port"
)

const (
	// DefaultPageSize applies when a listing does not ask for a size.
	DefaultPageSize = 50
	// MaxPageSize caps listing page sizes.
	MaxPageSize = 500
	// exportPageSize is the batch size used to walk the ledger for exports.
	exportPageSize = 1000
)

// LedgerService serves read access to processed_files and the reprocess
// operation.
type LedgerService interface {
	List(ctx context.Context, filter domain.LedgerFilter, offset, limit int) ([]domain.LedgerEntry, int, error)
	Get(ctx context.Context, uri string) (*domain.LedgerEntry, error)
	Summary(ctx context.Context, window time.Duration) (*domain.LedgerSummary, error)
	// Export walks every entry matching filter in listing order.
	Export(ctx context.Context, filter domain.LedgerFilter, fn func(batch []domain.LedgerEntry) error) error
	// Reprocess forgets uri so that the next run ingests it again.
	Reprocess(ctx context.Context, uri string) (int64, error)
}

type ledgerService struct {
	store       port.LedgerStore
	reprocessor port.Reprocessor
	logger      *zap.Logger
	now         func() time.Time
}

// NewLedgerService creates a new LedgerService implementation.
func NewLedgerService(store port.LedgerStore, reprocessor port.Reprocessor, logger *zap.Logger) LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ledgerService{
		store:       store,
		reprocessor: reprocessor,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ValidateFilter rejects unknown statuses and inverted time windows.
func ValidateFilter(filter domain.LedgerFilter) error {
	if filter.Status != "" && !filter.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidFilter, filter.Status)
	}
	if filter.Since != nil && filter.Until != nil && !filter.Since.Before(*filter.Until) {
		return fmt.Errorf("%w: since must be before until", domain.ErrInvalidFilter)
	}
	return nil
}

func (s *ledgerService) List(ctx context.Context, filter domain.LedgerFilter, offset, limit int) ([]domain.LedgerEntry, int, error) {
	if err := ValidateFilter(filter); err != nil {
		return nil, 0, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return s.store.List(ctx, filter, offset, limit)
}

func (s *ledgerService) Get(ctx context.Context, uri string) (*domain.LedgerEntry, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, fmt.Errorf("%w: uri is required", domain.ErrInvalidFilter)
	}
	return s.store.GetByURI(ctx, uri)
}

func (s *ledgerService) Summary(ctx context.Context, window time.Duration) (*domain.LedgerSummary, error) {
	if window <= 0 {
		return nil, fmt.Errorf("%w: window must be positive", domain.ErrInvalidFilter)
	}
	until := s.now()
	return s.store.Summary(ctx, until.Add(-window), until)
}

func (s *ledgerService) Export(ctx context.Context, filter domain.LedgerFilter, fn func(batch []domain.LedgerEntry) error) error {
	if err := ValidateFilter(filter); err != nil {
		return err
	}
	for offset := 0; ; offset += exportPageSize {
		batch, total, err := s.store.List(ctx, filter, offset, exportPageSize)
		if err != nil {
			return fmt.Errorf("ledgerService.Export: %w", err)
		}
		if len(batch) > 0 {
			if err := fn(batch); err != nil {
				return err
			}
		}
		if len(batch) < exportPageSize || offset+len(batch) >= total {
			return nil
		}
	}
}

func (s *ledgerService) Reprocess(ctx context.Context, uri string) (int64, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return 0, fmt.Errorf("%w: uri is required", domain.ErrInvalidFilter)
	}
	deleted, err := s.reprocessor.Reprocess(ctx, uri)
	if err != nil {
		return 0, err
	}
	s.logger.Info("file queued for reprocessing",
		zap.String("uri", uri),
		zap.Int64("rows_deleted", deleted),
	)
	return deleted, nil
}
