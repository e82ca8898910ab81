package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"ftplog/internal/domain"
	"ftplog/internal/port"
)

type reprocessRepo struct {
	db *sqlx.DB
}

// NewReprocessRepo creates a new PostgreSQL-backed Reprocessor.
func NewReprocessRepo(db *sqlx.DB) port.Reprocessor {
	return &reprocessRepo{db: db}
}

// Reprocess deletes the ledger entry and the structured rows of uri together.
// archive_ftplog is append-only and is left alone.
func (r *reprocessRepo) Reprocess(ctx context.Context, uri string) (int64, error) {
	var deleted int64
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, "DELETE FROM processed_files WHERE gcs_uri = $1", uri)
		if err != nil {
			return err
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return domain.ErrNotFound
		}

		result, err = tx.ExecContext(ctx, "DELETE FROM base_ftplog WHERE gcs_uri = $1", uri)
		if err != nil {
			return err
		}
		deleted, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("reprocessRepo.Reprocess: %w", err)
	}
	return deleted, nil
}
