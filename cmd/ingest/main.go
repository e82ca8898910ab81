// Command ingest performs one ingestion run and exits.
// It exits non-zero when the run fails; nothing is recorded in that case.
// Usage: go run ./cmd/ingest
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"ftplog/internal/app"
	"ftplog/internal/config"
	"ftplog/internal/logger"
	"ftplog/internal/metrics"
	"ftplog/internal/repository/postgres"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Ingest.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Ingest.RunTimeout)
		defer cancel()
	}

	ingest, err := app.NewIngest(ctx, cfg, db, metrics.NewCollector(cfg.Metrics.Namespace), zl)
	if err != nil {
		return err
	}

	summary, err := ingest.Service.Run(ctx)
	if err != nil {
		return fmt.Errorf("ingest run: %w", err)
	}

	fmt.Printf("run %s: %d discovered, %d recorded, %d skipped, %d/%d rows\n",
		summary.RunID, summary.FilesDiscovered, summary.FilesRecorded, summary.FilesSkipped,
		summary.RowsLoaded, summary.RowsExpected)
	for status, n := range summary.StatusCounts {
		zl.Info("status count", zap.String("status", string(status)), zap.Int("files", n))
	}
	return nil
}
