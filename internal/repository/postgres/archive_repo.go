package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"ftplog/internal/domain"
	"ftplog/internal/port"
)

type archiveRepo struct {
	db        *sqlx.DB
	chunkSize int
}

// NewArchiveRepo creates a new PostgreSQL-backed ArchiveSink over archive_ftplog.
func NewArchiveRepo(db *sqlx.DB, chunkSize int) port.ArchiveSink {
	return &archiveRepo{db: db, chunkSize: chunkSize}
}

type archiveRow struct {
	domain.ArchiveEntry
	RunID string `db:"run_id"`
}

const appendArchiveQuery = `INSERT INTO archive_ftplog (
		raw_json, archived_timestamp, process_dt, originating_filename, gcs_uri, run_id
	) VALUES (
		:raw_json, :archived_timestamp, :process_dt, :originating_filename, :gcs_uri, :run_id
	)`

// Append writes entries verbatim with no deduplication. All chunks share one
// transaction.
func (r *archiveRepo) Append(ctx context.Context, runID string, entries []domain.ArchiveEntry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([]archiveRow, len(entries))
	for i := range entries {
		rows[i] = archiveRow{ArchiveEntry: entries[i], RunID: runID}
	}

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, chunk := range chunks(rows, r.chunkSize) {
			if _, err := tx.NamedExecContext(ctx, appendArchiveQuery, chunk); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("archiveRepo.Append: %w", err)
	}
	return nil
}
