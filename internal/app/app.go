// Package app wires configuration into the ingestion engine's collaborators.
package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"ftplog/internal/config"
	"ftplog/internal/discovery"
	"ftplog/internal/domain"
	"ftplog/internal/metrics"
	"ftplog/internal/port"
	"ftplog/internal/repository/postgres"
	"ftplog/internal/service"
	s3storage "ftplog/internal/storage/s3"
)

// Ingest holds the engine and the stores it was built from.
type Ingest struct {
	Service service.IngestService
	Ledger  port.LedgerStore
}

// NewIngest builds the IngestService for cfg. The archive backend is chosen by
// cfg.Ingest.ArchiveBackend.
func NewIngest(ctx context.Context, cfg *config.Config, db *sqlx.DB, collector *metrics.Collector, logger *zap.Logger) (*Ingest, error) {
	client, err := s3storage.NewClient(ctx, &cfg.S3)
	if err != nil {
		return nil, fmt.Errorf("initializing S3 client: %w", err)
	}
	lister := s3storage.NewBlobLister(client, cfg.S3.Bucket, cfg.S3.LogsPrefix)

	var archive port.ArchiveSink
	switch cfg.Ingest.ArchiveBackend {
	case domain.ArchiveBackendS3:
		archive = s3storage.NewArchiveWriter(client, cfg.S3.ArchiveBucket, cfg.S3.ArchivePrefix)
	default:
		archive = postgres.NewArchiveRepo(db, cfg.Ingest.ChunkSize)
	}

	sink := postgres.NewBaseRowRepo(db, cfg.Ingest.ChunkSize)
	ledgerStore := postgres.NewProcessedFileRepo(db)

	svc := service.NewIngestService(lister, archive, sink, ledgerStore, collector, logger, service.IngestConfig{
		Matcher:      discovery.Matcher{Prefix: cfg.S3.LogsPrefix, Suffix: cfg.S3.FileSuffix},
		ListTimeout:  cfg.Ingest.ListTimeout,
		ReadTimeout:  cfg.Ingest.ReadTimeout,
		WriteTimeout: cfg.Ingest.WriteTimeout,
		MaxFiles:     cfg.Ingest.MaxFiles,
	})

	logger.Info("ingest engine configured",
		zap.String("bucket", cfg.S3.Bucket),
		zap.String("logs_prefix", cfg.S3.LogsPrefix),
		zap.String("archive_backend", string(cfg.Ingest.ArchiveBackend)),
		zap.Int("max_files", cfg.Ingest.MaxFiles),
	)
	return &Ingest{Service: svc, Ledger: ledgerStore}, nil
}

// NewLedgerService builds the read and reprocess service over db.
func NewLedgerService(db *sqlx.DB, logger *zap.Logger) service.LedgerService {
	return service.NewLedgerService(postgres.NewProcessedFileRepo(db), postgres.NewReprocessRepo(db), logger)
}
