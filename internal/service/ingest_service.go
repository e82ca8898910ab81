package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ftplog/internal/discovery"
	"ftplog/internal/domain"
	"ftplog/internal/ledger"
	"ftplog/internal/metrics"
	"ftplog/internal/parser"
	"ftplog/internal/port"
)

// IngestConfig holds settings for ingestion runs.
type IngestConfig struct {
	Matcher      discovery.Matcher
	ListTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// MaxFiles caps the files handled by one run. Zero means no cap.
	MaxFiles int
}

// IngestService runs the discovery, parse, write and record pipeline.
type IngestService interface {
	// Run processes every pending input file once. On a fatal error nothing is
	// recorded in the ledger, so the affected files are retried by a later run.
	Run(ctx context.Context) (*domain.RunSummary, error)
}

type ingestService struct {
	discoverer *discovery.Discoverer
	lister     port.BlobLister
	archive    port.ArchiveSink
	sink       port.StructuredSink
	ledger     port.LedgerStore
	collector  *metrics.Collector
	logger     *zap.Logger
	cfg        IngestConfig

	// running rejects overlapping runs in this process only. Correctness across
	// processes comes from the unique fingerprint and ledger keys.
	running sync.Mutex
	now     func() time.Time
	newID   func() string
}

// NewIngestService creates a new IngestService implementation.
func NewIngestService(
	lister port.BlobLister,
	archive port.ArchiveSink,
	sink port.StructuredSink,
	ledgerStore port.LedgerStore,
	collector *metrics.Collector,
	logger *zap.Logger,
	cfg IngestConfig,
) IngestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ingestService{
		discoverer: discovery.NewDiscoverer(lister, ledgerStore, cfg.Matcher),
		lister:     lister,
		archive:    archive,
		sink:       sink,
		ledger:     ledgerStore,
		collector:  collector,
		logger:     logger,
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

func (s *ingestService) Run(ctx context.Context) (*domain.RunSummary, error) {
	if !s.running.TryLock() {
		s.collector.RunBusy()
		return nil, domain.ErrRunInProgress
	}
	defer s.running.Unlock()

	summary := &domain.RunSummary{
		RunID:        s.newID(),
		StartedAt:    s.now(),
		StatusCounts: map[domain.LedgerStatus]int{},
	}
	log := s.logger.With(zap.String("run_id", summary.RunID))
	log.Info("ingest run started")

	if err := s.run(ctx, summary, log); err != nil {
		s.collector.RunFailed()
		log.Error("ingest run failed, nothing recorded",
			zap.Error(err),
			zap.Int("files_discovered", summary.FilesDiscovered),
		)
		return nil, err
	}

	summary.FinishedAt = s.now()
	s.collector.ObserveRun(summary)
	log.Info("ingest run finished",
		zap.Int("files_listed", summary.FilesListed),
		zap.Int("files_discovered", summary.FilesDiscovered),
		zap.Int("files_recorded", summary.FilesRecorded),
		zap.Int("files_skipped", summary.FilesSkipped),
		zap.Int64("rows_expected", summary.RowsExpected),
		zap.Int64("rows_inserted", summary.RowsInserted),
		zap.Int("archive_entries", summary.ArchiveEntries),
		zap.Duration("duration", summary.FinishedAt.Sub(summary.StartedAt)),
	)
	return summary, nil
}

// fileWork is the in-memory result for one file until the ledger commit.
type fileWork struct {
	parsed  *parser.FileResult
	elapsed time.Duration
}

func (s *ingestService) run(ctx context.Context, summary *domain.RunSummary, log *zap.Logger) error {
	listCtx, cancel := withTimeout(ctx, s.cfg.ListTimeout)
	found, err := s.discoverer.Discover(listCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("ingestService.Run: %w", err)
	}
	summary.FilesListed = found.Listed

	pending := found.Pending
	if s.cfg.MaxFiles > 0 && len(pending) > s.cfg.MaxFiles {
		log.Info("capping files for this run",
			zap.Int("pending", len(pending)),
			zap.Int("max_files", s.cfg.MaxFiles),
		)
		pending = pending[:s.cfg.MaxFiles]
	}
	summary.FilesDiscovered = len(pending)
	if len(pending) == 0 {
		log.Debug("no pending files")
		return nil
	}

	work := make([]fileWork, 0, len(pending))
	var rows []domain.ParsedRow
	var entries []domain.ArchiveEntry
	for i := range pending {
		w, err := s.parseFile(ctx, pending[i], summary.StartedAt, log)
		if err != nil {
			return err
		}
		work = append(work, w)
		rows = append(rows, w.parsed.Rows...)
		entries = append(entries, w.parsed.Archive...)
		summary.RowsExpected += int64(w.parsed.Stats.Expected)
	}
	summary.ArchiveEntries = len(entries)

	writeStart := s.now()
	writeCtx, cancel := withTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()

	if len(entries) > 0 {
		if err := s.archive.Append(writeCtx, summary.RunID, entries); err != nil {
			return fmt.Errorf("ingestService.Run: %w: %w", domain.ErrArchiveUnavailable, err)
		}
	}

	unique := DedupByFingerprint(rows)
	if len(unique) > 0 {
		inserted, err := s.sink.MergeRows(writeCtx, unique)
		if err != nil {
			return fmt.Errorf("ingestService.Run: %w: %w", domain.ErrSinkUnavailable, err)
		}
		summary.RowsInserted = inserted
	}

	uris := make([]string, len(work))
	for i := range work {
		uris[i] = work[i].parsed.File.URI
	}
	loaded, err := s.sink.CountByFile(writeCtx, uris)
	if err != nil {
		return fmt.Errorf("ingestService.Run: %w: %w", domain.ErrSinkUnavailable, err)
	}
	writeElapsed := s.now().Sub(writeStart)

	processedAt := s.now()
	ledgerEntries := make([]domain.LedgerEntry, len(work))
	for i := range work {
		f := work[i].parsed.File
		ledgerEntries[i] = ledger.Derive(ledger.Outcome{
			URI:          f.URI,
			LogicalName:  f.LogicalName,
			RunID:        summary.RunID,
			RowsExpected: int64(work[i].parsed.Stats.Expected),
			RowsLoaded:   loaded[f.URI],
			ProcessedAt:  processedAt,
			Duration:     work[i].elapsed + writeElapsed,
		})
	}

	recorded, err := s.ledger.RecordBatch(writeCtx, ledgerEntries)
	if err != nil {
		return fmt.Errorf("ingestService.Run: %w: %w", domain.ErrLedgerUnavailable, err)
	}

	isRecorded := make(map[string]struct{}, len(recorded))
	for _, uri := range recorded {
		isRecorded[uri] = struct{}{}
	}
	for i := range ledgerEntries {
		e := ledgerEntries[i]
		if _, ok := isRecorded[e.GCSURI]; !ok {
			summary.FilesSkipped++
			log.Info("ledger entry already present, recorded by another run", zap.String("uri", e.GCSURI))
			continue
		}
		summary.FilesRecorded++
		summary.RowsLoaded += e.RowsLoaded
		summary.StatusCounts[e.Status]++
		summary.Entries = append(summary.Entries, e)
		logEntry(log, &e)
	}
	return nil
}

func (s *ingestService) parseFile(ctx context.Context, file domain.InputFile, processTime time.Time, log *zap.Logger) (fileWork, error) {
	start := s.now()
	readCtx, cancel := withTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	body, err := s.lister.Open(readCtx, file)
	if err != nil {
		return fileWork{}, fmt.Errorf("ingestService.Run: %w: %w", domain.ErrReadFailed, err)
	}
	defer body.Close()

	parsed, err := parser.ParseFile(file, body, parser.LoadMeta{
		URI:                 file.URI,
		OriginatingFilename: file.LogicalName,
		LoadTime:            s.now(),
		ProcessTime:         processTime,
	})
	if err != nil {
		return fileWork{}, fmt.Errorf("ingestService.Run: %w: %w", domain.ErrReadFailed, err)
	}

	if parsed.Stats.RowErrors > 0 || parsed.Stats.FieldErrors > 0 {
		log.Warn("file has unparseable content",
			zap.String("uri", file.URI),
			zap.Int("row_errors", parsed.Stats.RowErrors),
			zap.Int("field_errors", parsed.Stats.FieldErrors),
			zap.Strings("samples", parsed.Samples),
		)
	}
	return fileWork{parsed: parsed, elapsed: s.now().Sub(start)}, nil
}

func logEntry(log *zap.Logger, e *domain.LedgerEntry) {
	fields := []zap.Field{
		zap.String("uri", e.GCSURI),
		zap.String("status", string(e.Status)),
		zap.Int64("rows_expected", e.RowsExpected),
		zap.Int64("rows_loaded", e.RowsLoaded),
	}
	if e.ErrorMessage != nil {
		fields = append(fields, zap.String("message", *e.ErrorMessage))
	}
	if e.Status == domain.LedgerStatusSuccess {
		log.Info("file recorded", fields...)
		return
	}
	log.Warn("file recorded", fields...)
}

// DedupByFingerprint keeps the first row for every fingerprint, preserving
// input order.
func DedupByFingerprint(rows []domain.ParsedRow) []domain.ParsedRow {
	seen := make(map[string]struct{}, len(rows))
	out := make([]domain.ParsedRow, 0, len(rows))
	for i := range rows {
		fp := rows[i].HashFingerprint
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, rows[i])
	}
	return out
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
