package service_test

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"ftplog/internal/domain"
)

// memLister serves input files from memory.
type memLister struct {
	mu    sync.Mutex
	files map[string]string // key -> body
	// gate, when set, blocks Open until closed.
	gate chan struct{}
	// opened is closed by the first Open call.
	opened   chan struct{}
	openOnce sync.Once
}

func newMemLister() *memLister {
	return &memLister{files: map[string]string{}, opened: make(chan struct{})}
}

func readCloser(body string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(body))
}

func (l *memLister) put(key, body string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.files[key] = body
}

func (l *memLister) List(_ context.Context) ([]domain.InputFile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.InputFile, 0, len(l.files))
	for key, body := range l.files {
		out = append(out, domain.InputFile{
			URI:    "s3://ftplog/" + key,
			Bucket: "ftplog",
			Key:    key,
			Size:   int64(len(body)),
		})
	}
	return out, nil
}

func (l *memLister) Open(ctx context.Context, file domain.InputFile) (io.ReadCloser, error) {
	l.openOnce.Do(func() { close(l.opened) })
	if l.gate != nil {
		select {
		case <-l.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	body, ok := l.files[file.Key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return readCloser(body), nil
}

// checkText rejects values a PostgreSQL TEXT column refuses.
func checkText(v string) error {
	if strings.IndexByte(v, 0) >= 0 {
		return errors.New("invalid byte sequence for encoding \"UTF8\": 0x00")
	}
	if !utf8.ValidString(v) {
		return errors.New("invalid byte sequence for encoding \"UTF8\"")
	}
	return nil
}

// memStore is an in-memory archive, structured sink and ledger with the same
// uniqueness guarantees as the PostgreSQL tables.
type memStore struct {
	mu      sync.Mutex
	archive []domain.ArchiveEntry
	rows    map[string]domain.ParsedRow // fingerprint -> row
	ledger  map[string]domain.LedgerEntry

	// failures injected per operation
	archiveErr error
	mergeErr   error
	recordErr  error
}

func newMemStore() *memStore {
	return &memStore{
		rows:   map[string]domain.ParsedRow{},
		ledger: map[string]domain.LedgerEntry{},
	}
}

func (s *memStore) Append(_ context.Context, _ string, entries []domain.ArchiveEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.archiveErr != nil {
		return s.archiveErr
	}
	for i := range entries {
		if err := checkText(entries[i].RawJSON); err != nil {
			return err
		}
	}
	s.archive = append(s.archive, entries...)
	return nil
}

func (s *memStore) MergeRows(_ context.Context, rows []domain.ParsedRow) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mergeErr != nil {
		return 0, s.mergeErr
	}
	for i := range rows {
		r := &rows[i]
		for _, v := range []*string{r.Action, r.Filename, r.IPAddress, r.PartnerName, r.SessionID,
			r.Source, r.UserName, r.ServerResponse, r.RawData} {
			if v == nil {
				continue
			}
			if err := checkText(*v); err != nil {
				return 0, err
			}
		}
	}
	var n int64
	for i := range rows {
		if _, ok := s.rows[rows[i].HashFingerprint]; ok {
			continue
		}
		s.rows[rows[i].HashFingerprint] = rows[i]
		n++
	}
	return n, nil
}

func (s *memStore) CountByFile(_ context.Context, uris []string) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int64, len(uris))
	for _, uri := range uris {
		counts[uri] = 0
	}
	for _, row := range s.rows {
		if _, ok := counts[row.GCSURI]; ok {
			counts[row.GCSURI]++
		}
	}
	return counts, nil
}

func (s *memStore) RecordedURIs(_ context.Context, uris []string) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]struct{}{}
	for _, uri := range uris {
		if _, ok := s.ledger[uri]; ok {
			out[uri] = struct{}{}
		}
	}
	return out, nil
}

func (s *memStore) RecordBatch(_ context.Context, entries []domain.LedgerEntry) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordErr != nil {
		return nil, s.recordErr
	}
	var recorded []string
	for i := range entries {
		if _, ok := s.ledger[entries[i].GCSURI]; ok {
			continue
		}
		s.ledger[entries[i].GCSURI] = entries[i]
		recorded = append(recorded, entries[i].GCSURI)
	}
	return recorded, nil
}

func (s *memStore) GetByURI(_ context.Context, uri string) (*domain.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.ledger[uri]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

func (s *memStore) List(_ context.Context, _ domain.LedgerFilter, offset, limit int) ([]domain.LedgerEntry, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]domain.LedgerEntry, 0, len(s.ledger))
	for _, e := range s.ledger {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].GCSURI < all[j].GCSURI })
	if offset >= len(all) {
		return []domain.LedgerEntry{}, len(all), nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], len(all), nil
}

func (s *memStore) Summary(_ context.Context, since, until time.Time) (*domain.LedgerSummary, error) {
	return &domain.LedgerSummary{Since: since, Until: until}, nil
}

func (s *memStore) rowCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func (s *memStore) archiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.archive)
}

func (s *memStore) ledgerEntry(uri string) (domain.LedgerEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.ledger[uri]
	return e, ok
}

func (s *memStore) ledgerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ledger)
}
