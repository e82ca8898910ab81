package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ftplog/internal/app"
	"ftplog/internal/config"
	"ftplog/internal/handler"
	"ftplog/internal/logger"
	"ftplog/internal/metrics"
	"ftplog/internal/repository/postgres"
	"ftplog/internal/router"
	"ftplog/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector(cfg.Metrics.Namespace)

	// Initialize services
	ingest, err := app.NewIngest(ctx, cfg, db, collector, zl)
	if err != nil {
		return err
	}
	ledgerSvc := app.NewLedgerService(db, zl)

	// Initialize handlers
	healthH := handler.NewHealthHandler(db, ingest.Ledger, collector)
	ledgerH := handler.NewLedgerHandler(ledgerSvc)
	runH := handler.NewRunHandler(ingest.Service)

	r := router.Setup(zl, collector, cfg.Server.CORSOrigins, healthH, ledgerH, runH)
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	worker := service.NewIngestWorker(ingest.Service, service.IngestWorkerConfig{
		Interval:   cfg.Ingest.Interval,
		RunTimeout: cfg.Ingest.RunTimeout,
		RunOnStart: cfg.Ingest.RunOnStart,
	}, zl)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		zl.Info("shutdown signal received")
	case err := <-errCh:
		stop()
		wg.Wait()
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("server shutdown", zap.Error(err))
	}
	wg.Wait()
	zl.Info("server stopped")
	return nil
}

