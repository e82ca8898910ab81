package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"ftplog/internal/domain"
	"ftplog/internal/port"
)

type processedFileRepo struct {
	db *sqlx.DB
}

// NewProcessedFileRepo creates a new PostgreSQL-backed LedgerStore over processed_files.
func NewProcessedFileRepo(db *sqlx.DB) port.LedgerStore {
	return &processedFileRepo{db: db}
}

const ledgerColumns = `gcs_uri, originating_filename, processed_timestamp,
	rows_expected, rows_loaded, parse_errors, status, error_message,
	processing_duration_seconds, run_id`

func (r *processedFileRepo) RecordedURIs(ctx context.Context, uris []string) (map[string]struct{}, error) {
	recorded := make(map[string]struct{})
	if len(uris) == 0 {
		return recorded, nil
	}

	query, args, err := sqlx.In("SELECT gcs_uri FROM processed_files WHERE gcs_uri IN (?)", uris)
	if err != nil {
		return nil, fmt.Errorf("processedFileRepo.RecordedURIs: %w", err)
	}

	var found []string
	if err := r.db.SelectContext(ctx, &found, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("processedFileRepo.RecordedURIs: %w", err)
	}
	for _, uri := range found {
		recorded[uri] = struct{}{}
	}
	return recorded, nil
}

const recordEntryQuery = `INSERT INTO processed_files (` + ledgerColumns + `)
	VALUES (
		:gcs_uri, :originating_filename, :processed_timestamp,
		:rows_expected, :rows_loaded, :parse_errors, :status, :error_message,
		:processing_duration_seconds, :run_id
	) ON CONFLICT (gcs_uri) DO NOTHING`

// RecordBatch is the commit point of a run: every entry is inserted if absent
// in a single transaction. URIs recorded by a concurrent run are skipped.
func (r *processedFileRepo) RecordBatch(ctx context.Context, entries []domain.LedgerEntry) ([]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	var recorded []string
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for i := range entries {
			result, err := tx.NamedExecContext(ctx, recordEntryQuery, &entries[i])
			if err != nil {
				return fmt.Errorf("%s: %w", entries[i].GCSURI, err)
			}
			n, err := result.RowsAffected()
			if err != nil {
				return err
			}
			if n == 1 {
				recorded = append(recorded, entries[i].GCSURI)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("processedFileRepo.RecordBatch: %w", err)
	}
	return recorded, nil
}

func (r *processedFileRepo) GetByURI(ctx context.Context, uri string) (*domain.LedgerEntry, error) {
	var entry domain.LedgerEntry
	err := r.db.GetContext(ctx, &entry,
		"SELECT "+ledgerColumns+" FROM processed_files WHERE gcs_uri = $1", uri)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("processedFileRepo.GetByURI: %w", err)
	}
	return &entry, nil
}

// ledgerWhere renders filter as a WHERE clause with positional placeholders.
func ledgerWhere(filter domain.LedgerFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Since != nil {
		args = append(args, filter.Since.UTC())
		conds = append(conds, fmt.Sprintf("processed_timestamp >= $%d", len(args)))
	}
	if filter.Until != nil {
		args = append(args, filter.Until.UTC())
		conds = append(conds, fmt.Sprintf("processed_timestamp < $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *processedFileRepo) List(ctx context.Context, filter domain.LedgerFilter, offset, limit int) ([]domain.LedgerEntry, int, error) {
	where, args := ledgerWhere(filter)

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM processed_files"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("processedFileRepo.List count: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM processed_files%s ORDER BY processed_timestamp DESC, gcs_uri LIMIT $%d OFFSET $%d",
		ledgerColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	entries := []domain.LedgerEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("processedFileRepo.List: %w", err)
	}
	return entries, total, nil
}

type statusTotals struct {
	Status       domain.LedgerStatus `db:"status"`
	Files        int64               `db:"files"`
	RowsExpected int64               `db:"rows_expected"`
	RowsLoaded   int64               `db:"rows_loaded"`
	ParseErrors  int64               `db:"parse_errors"`
}

const summaryQuery = `SELECT status,
		COUNT(*) AS files,
		COALESCE(SUM(rows_expected), 0) AS rows_expected,
		COALESCE(SUM(rows_loaded), 0) AS rows_loaded,
		COALESCE(SUM(parse_errors), 0) AS parse_errors
	FROM processed_files
	WHERE processed_timestamp >= $1 AND processed_timestamp < $2
	GROUP BY status`

func (r *processedFileRepo) Summary(ctx context.Context, since, until time.Time) (*domain.LedgerSummary, error) {
	var totals []statusTotals
	if err := r.db.SelectContext(ctx, &totals, summaryQuery, since.UTC(), until.UTC()); err != nil {
		return nil, fmt.Errorf("processedFileRepo.Summary: %w", err)
	}

	summary := &domain.LedgerSummary{
		Since:    since.UTC(),
		Until:    until.UTC(),
		ByStatus: make(map[domain.LedgerStatus]int64, len(totals)),
	}
	for _, t := range totals {
		summary.FilesProcessed += t.Files
		summary.RowsExpected += t.RowsExpected
		summary.RowsLoaded += t.RowsLoaded
		summary.ParseErrors += t.ParseErrors
		summary.ByStatus[t.Status] = t.Files
	}
	return summary, nil
}
