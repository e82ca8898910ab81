package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"ftplog/internal/domain"
)

// IngestWorkerConfig holds settings for the periodic ingest worker.
type IngestWorkerConfig struct {
	Interval   time.Duration
	RunTimeout time.Duration
	RunOnStart bool
}

// IngestWorker triggers an ingestion run on every tick.
type IngestWorker struct {
	ingest IngestService
	cfg    IngestWorkerConfig
	logger *zap.Logger
}

// NewIngestWorker creates a new IngestWorker.
func NewIngestWorker(ingest IngestService, cfg IngestWorkerConfig, logger *zap.Logger) *IngestWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestWorker{ingest: ingest, cfg: cfg, logger: logger}
}

// Start runs the ticker loop until ctx is canceled. Runs are sequential, and
// a run in flight at shutdown is allowed to finish.
func (w *IngestWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	w.logger.Info("ingestWorker: started",
		zap.Duration("interval", w.cfg.Interval),
		zap.Bool("run_on_start", w.cfg.RunOnStart),
	)

	if w.cfg.RunOnStart {
		w.runOnce(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("ingestWorker: shutdown complete")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *IngestWorker) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	// Shutdown does not cancel a started run; RunTimeout still bounds it.
	runCtx, cancel := withTimeout(context.WithoutCancel(ctx), w.cfg.RunTimeout)
	defer cancel()

	if _, err := w.ingest.Run(runCtx); err != nil {
		if errors.Is(err, domain.ErrRunInProgress) {
			w.logger.Info("ingestWorker: previous run still in progress, skipping tick")
			return
		}
		w.logger.Error("ingestWorker: run failed", zap.Error(err))
	}
}
