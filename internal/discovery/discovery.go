// Package discovery decides which input files still need processing.
package discovery

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"ftplog/internal/domain"
	"ftplog/internal/port"
)

// UnknownName is the logical name used when none can be derived from a URI.
const UnknownName = "unknown"

const placeholderSuffix = ".placeholder"

// Matcher selects candidate object keys: keys under Prefix ending in Suffix.
type Matcher struct {
	Prefix string
	Suffix string
}

// Match reports whether key is an input file candidate.
func (m Matcher) Match(key string) bool {
	if strings.HasSuffix(key, placeholderSuffix) {
		return false
	}
	prefix := strings.Trim(m.Prefix, "/")
	if prefix != "" && !strings.HasPrefix(key, prefix+"/") {
		return false
	}
	if m.Suffix != "" && !strings.HasSuffix(key, m.Suffix) {
		return false
	}
	return true
}

// LogicalName derives the file's logical name: its basename without the
// .json extension. Malformed URIs degrade to the basename without any
// extension, then to UnknownName. It never fails.
func LogicalName(uri string) string {
	trimmed := strings.TrimSpace(uri)
	if i := strings.Index(trimmed, "://"); i >= 0 {
		trimmed = trimmed[i+3:]
	}
	trimmed = strings.TrimRight(trimmed, "/")
	if trimmed == "" {
		return UnknownName
	}

	base := path.Base(trimmed)
	if base == "." || base == "/" || base == "" {
		return UnknownName
	}
	if name, ok := strings.CutSuffix(base, ".json"); ok {
		if name == "" {
			return UnknownName
		}
		return name
	}
	if ext := path.Ext(base); ext != "" && ext != base {
		return strings.TrimSuffix(base, ext)
	}
	return base
}

// Filter returns the files whose URI has no ledger entry, sorted by URI.
// It has no side effects.
func Filter(files []domain.InputFile, recorded map[string]struct{}) []domain.InputFile {
	pending := make([]domain.InputFile, 0, len(files))
	seen := make(map[string]struct{}, len(files))
	for i := range files {
		uri := files[i].URI
		if _, ok := recorded[uri]; ok {
			continue
		}
		if _, dup := seen[uri]; dup {
			continue
		}
		seen[uri] = struct{}{}
		pending = append(pending, files[i])
	}
	sort.Slice(pending, func(a, b int) bool { return pending[a].URI < pending[b].URI })
	return pending
}

// Result is the outcome of a discovery pass.
type Result struct {
	// Listed counts every object returned by the lister, before matching.
	Listed int
	// Matched counts the objects that look like input files.
	Matched int
	Pending []domain.InputFile
}

// Discoverer lists candidate files and removes those already in the ledger.
// It only reads, so concurrent runs may share one.
type Discoverer struct {
	lister  port.BlobLister
	ledger  port.LedgerStore
	matcher Matcher
	now     func() time.Time
}

// NewDiscoverer creates a new Discoverer.
func NewDiscoverer(lister port.BlobLister, ledger port.LedgerStore, matcher Matcher) *Discoverer {
	return &Discoverer{
		lister:  lister,
		ledger:  ledger,
		matcher: matcher,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Discover returns the input files that have not been recorded yet.
func (d *Discoverer) Discover(ctx context.Context) (*Result, error) {
	listed, err := d.lister.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("discovery.Discover: %w: %w", domain.ErrListingFailed, err)
	}

	now := d.now()
	candidates := make([]domain.InputFile, 0, len(listed))
	uris := make([]string, 0, len(listed))
	for i := range listed {
		f := listed[i]
		if !d.matcher.Match(f.Key) {
			continue
		}
		if f.LogicalName == "" {
			f.LogicalName = LogicalName(f.URI)
		}
		f.DiscoveredAt = now
		candidates = append(candidates, f)
		uris = append(uris, f.URI)
	}

	recorded := map[string]struct{}{}
	if len(uris) > 0 {
		recorded, err = d.ledger.RecordedURIs(ctx, uris)
		if err != nil {
			return nil, fmt.Errorf("discovery.Discover: %w: %w", domain.ErrLedgerUnavailable, err)
		}
	}

	return &Result{
		Listed:  len(listed),
		Matched: len(candidates),
		Pending: Filter(candidates, recorded),
	}, nil
}
