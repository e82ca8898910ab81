// Command reprocess forgets ledger entries so the next run ingests those files
// again. Structured rows loaded from each file are deleted; the archive is kept.
//
// Usage:
//
//	go run ./cmd/reprocess s3://bucket/logs/a.json [more URIs...]
//	go run ./cmd/reprocess -status FAILED [-since 2026-01-01T00:00:00Z]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"ftplog/internal/app"
	"ftplog/internal/config"
	"ftplog/internal/domain"
	"ftplog/internal/logger"
	"ftplog/internal/repository/postgres"
	"ftplog/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	status := flag.String("status", "", "reprocess every entry with this status")
	since := flag.String("since", "", "with -status, only entries processed at or after this RFC3339 time")
	dryRun := flag.Bool("dry-run", false, "print the URIs without changing anything")
	flag.Parse()

	if *status == "" && flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

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

	ctx := context.Background()
	ledgerSvc := app.NewLedgerService(db, zl)

	uris := flag.Args()
	if *status != "" {
		filter := domain.LedgerFilter{Status: domain.LedgerStatus(*status)}
		if *since != "" {
			t, err := time.Parse(time.RFC3339, *since)
			if err != nil {
				return fmt.Errorf("parsing -since: %w", err)
			}
			filter.Since = &t
		}
		matched, err := collectURIs(ctx, ledgerSvc, filter)
		if err != nil {
			return err
		}
		uris = append(uris, matched...)
	}

	var total int64
	for _, uri := range uris {
		if *dryRun {
			fmt.Println(uri)
			continue
		}
		deleted, err := ledgerSvc.Reprocess(ctx, uri)
		if errors.Is(err, domain.ErrNotFound) {
			fmt.Printf("%s: not in ledger, skipped\n", uri)
			continue
		}
		if err != nil {
			return fmt.Errorf("reprocessing %s: %w", uri, err)
		}
		total += deleted
		fmt.Printf("%s: %d rows deleted\n", uri, deleted)
	}

	fmt.Printf("done: %d files, %d rows deleted\n", len(uris), total)
	return nil
}

// collectURIs gathers every URI matching filter before anything is deleted,
// so the walk is not disturbed by its own deletions.
func collectURIs(ctx context.Context, ledgerSvc service.LedgerService, filter domain.LedgerFilter) ([]string, error) {
	var uris []string
	err := ledgerSvc.Export(ctx, filter, func(batch []domain.LedgerEntry) error {
		for i := range batch {
			uris = append(uris, batch[i].GCSURI)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing ledger: %w", err)
	}
	return uris, nil
}
