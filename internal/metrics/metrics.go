// Package metrics exposes Prometheus instrumentation for ingestion runs.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ftplog/internal/domain"
)

// Collector holds the ingestion metrics and their registry.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	runs           *prometheus.CounterVec
	runDuration    prometheus.Histogram
	filesRecorded  *prometheus.CounterVec
	filesSkipped   prometheus.Counter
	rowsExpected   prometheus.Counter
	rowsInserted   prometheus.Counter
	archiveEntries prometheus.Counter
	pendingFiles   prometheus.Gauge
	lastSuccess    prometheus.Gauge

	mu   sync.Mutex
	last RunState
	now  func() time.Time
}

// RunState describes the most recent run that finished or failed.
type RunState struct {
	Result        string     `json:"result,omitempty"`
	RunID         string     `json:"run_id,omitempty"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	LastSuccessAt *time.Time `json:"last_success_at,omitempty"`
}

// NewCollector creates a Collector with its own registry.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		now:      func() time.Time { return time.Now().UTC() },
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_runs_total",
			Help:      "Ingestion runs by result (ok, failed, busy)",
		}, []string{"result"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_run_duration_seconds",
			Help:      "Wall time of ingestion runs",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14),
		}),
		filesRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_recorded_total",
			Help:      "Files written to the ledger by status",
		}, []string{"status"}),
		filesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_skipped_total",
			Help:      "Files whose ledger insert collided with a concurrent run",
		}),
		rowsExpected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_expected_total",
			Help:      "Non-empty input lines seen",
		}),
		rowsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_inserted_total",
			Help:      "Structured rows inserted after fingerprint deduplication",
		}),
		archiveEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_entries_total",
			Help:      "Raw lines appended to the archive",
		}),
		pendingFiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_files",
			Help:      "Files discovered without a ledger entry in the last run",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that completed without a fatal error",
		}),
	}

	registry.MustRegister(
		c.runs,
		c.runDuration,
		c.filesRecorded,
		c.filesSkipped,
		c.rowsExpected,
		c.rowsInserted,
		c.archiveEntries,
		c.pendingFiles,
		c.lastSuccess,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveRun records a completed run.
func (c *Collector) ObserveRun(s *domain.RunSummary) {
	if c == nil || s == nil {
		return
	}
	c.runs.WithLabelValues("ok").Inc()
	c.runDuration.Observe(s.FinishedAt.Sub(s.StartedAt).Seconds())
	for status, n := range s.StatusCounts {
		c.filesRecorded.WithLabelValues(string(status)).Add(float64(n))
	}
	c.filesSkipped.Add(float64(s.FilesSkipped))
	c.rowsExpected.Add(float64(s.RowsExpected))
	c.rowsInserted.Add(float64(s.RowsInserted))
	c.archiveEntries.Add(float64(s.ArchiveEntries))
	c.pendingFiles.Set(float64(s.FilesDiscovered))
	c.lastSuccess.Set(float64(s.FinishedAt.Unix()))

	finished := s.FinishedAt
	c.mu.Lock()
	c.last = RunState{Result: "ok", RunID: s.RunID, FinishedAt: &finished, LastSuccessAt: &finished}
	c.mu.Unlock()
}

// RunFailed records a run aborted by a fatal error.
func (c *Collector) RunFailed() {
	if c == nil {
		return
	}
	c.runs.WithLabelValues("failed").Inc()

	at := c.now()
	c.mu.Lock()
	c.last.Result = "failed"
	c.last.RunID = ""
	c.last.FinishedAt = &at
	c.mu.Unlock()
}

// LastRun returns the state of the most recent run. Busy triggers do not
// change it.
func (c *Collector) LastRun() RunState {
	if c == nil {
		return RunState{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// RunBusy records a trigger rejected because a run was already in progress.
func (c *Collector) RunBusy() {
	if c == nil {
		return
	}
	c.runs.WithLabelValues("busy").Inc()
}
