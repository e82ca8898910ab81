package port

import (
	"context"
	"io"

	"ftplog/internal/domain"
)

// BlobLister abstracts the object store holding NDJSON input files.
// List returns every visible candidate object; filtering by ledger state is
// the caller's job.
type BlobLister interface {
	List(ctx context.Context) ([]domain.InputFile, error)
	Open(ctx context.Context, file domain.InputFile) (io.ReadCloser, error)
}

// ArchiveSink is the append-only destination for raw input lines.
// Append performs no deduplication.
type ArchiveSink interface {
	Append(ctx context.Context, runID string, entries []domain.ArchiveEntry) error
}
