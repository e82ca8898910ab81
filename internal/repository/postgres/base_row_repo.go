package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"ftplog/internal/config"
	"ftplog/internal/domain"
	"ftplog/internal/port"
)

type baseRowRepo struct {
	db        *sqlx.DB
	chunkSize int
}

// NewBaseRowRepo creates a new PostgreSQL-backed StructuredSink over base_ftplog.
// chunkSize is capped at config.MaxChunkSize.
func NewBaseRowRepo(db *sqlx.DB, chunkSize int) port.StructuredSink {
	if chunkSize > config.MaxChunkSize {
		chunkSize = config.MaxChunkSize
	}
	return &baseRowRepo{db: db, chunkSize: chunkSize}
}

const mergeRowsQuery = `INSERT INTO base_ftplog (
		load_time_dt, source_file_dt, originating_filename, gcs_uri,
		action, bytes, cust_id, event_dt, filename, hash_code, hash_fingerprint,
		ip_address, partner_name, session_id, source, user_name,
		server_response, raw_data
	) VALUES (
		:load_time_dt, :source_file_dt, :originating_filename, :gcs_uri,
		:action, :bytes, :cust_id, :event_dt, :filename, :hash_code, :hash_fingerprint,
		:ip_address, :partner_name, :session_id, :source, :user_name,
		:server_response, :raw_data
	) ON CONFLICT (hash_fingerprint) DO NOTHING`

// MergeRows inserts every chunk inside one transaction, so a failure leaves
// base_ftplog untouched. Rows whose fingerprint already exists are skipped by
// the unique index, which also arbitrates between concurrent runs.
func (r *baseRowRepo) MergeRows(ctx context.Context, rows []domain.ParsedRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	var inserted int64
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, chunk := range chunks(rows, r.chunkSize) {
			result, err := tx.NamedExecContext(ctx, mergeRowsQuery, chunk)
			if err != nil {
				return err
			}
			n, err := result.RowsAffected()
			if err != nil {
				return err
			}
			inserted += n
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("baseRowRepo.MergeRows: %w", err)
	}
	return inserted, nil
}

type fileCount struct {
	GCSURI string `db:"gcs_uri"`
	Rows   int64  `db:"row_count"`
}

func (r *baseRowRepo) CountByFile(ctx context.Context, uris []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(uris))
	if len(uris) == 0 {
		return counts, nil
	}

	query, args, err := sqlx.In(
		`SELECT gcs_uri, COUNT(*) AS row_count FROM base_ftplog
		 WHERE gcs_uri IN (?) GROUP BY gcs_uri`, uris)
	if err != nil {
		return nil, fmt.Errorf("baseRowRepo.CountByFile: %w", err)
	}

	var rows []fileCount
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("baseRowRepo.CountByFile: %w", err)
	}
	for _, uri := range uris {
		counts[uri] = 0
	}
	for _, row := range rows {
		counts[row.GCSURI] = row.Rows
	}
	return counts, nil
}
