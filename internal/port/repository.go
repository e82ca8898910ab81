package port

import (
	"context"
	"time"

	"ftplog/internal/domain"
)

// StructuredSink defines the contract for the deduplicated base_ftplog table.
type StructuredSink interface {
	// MergeRows inserts rows whose fingerprint is not yet present, as one atomic
	// conditional bulk insert. It returns the number of rows actually inserted.
	MergeRows(ctx context.Context, rows []domain.ParsedRow) (int64, error)
	// CountByFile returns the number of stored rows attributable to each URI.
	CountByFile(ctx context.Context, uris []string) (map[string]int64, error)
}

// LedgerStore defines the contract for the processed_files idempotency ledger.
type LedgerStore interface {
	// RecordedURIs returns the subset of uris that already have a ledger entry.
	RecordedURIs(ctx context.Context, uris []string) (map[string]struct{}, error)
	// RecordBatch inserts entries if absent, all-or-nothing. It returns the URIs
	// that were newly recorded; collisions are silently skipped.
	RecordBatch(ctx context.Context, entries []domain.LedgerEntry) ([]string, error)
	GetByURI(ctx context.Context, uri string) (*domain.LedgerEntry, error)
	List(ctx context.Context, filter domain.LedgerFilter, offset, limit int) ([]domain.LedgerEntry, int, error)
	Summary(ctx context.Context, since, until time.Time) (*domain.LedgerSummary, error)
}

// Reprocessor removes a file's ledger entry together with its structured rows
// so that the next run rediscovers it. Archive entries are retained.
type Reprocessor interface {
	Reprocess(ctx context.Context, uri string) (rowsDeleted int64, err error)
}
