package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ftplog/internal/domain"
	"ftplog/internal/metrics"
)

// Pinger reports whether a backing store is reachable. *sqlx.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// LedgerReader is the part of the ledger store readiness depends on.
// port.LedgerStore satisfies it.
type LedgerReader interface {
	Summary(ctx context.Context, since, until time.Time) (*domain.LedgerSummary, error)
}

// RunReporter reports the latest ingest outcome. *metrics.Collector satisfies it.
type RunReporter interface {
	LastRun() metrics.RunState
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	db     Pinger
	ledger LedgerReader
	runs   RunReporter
}

// NewHealthHandler creates a new HealthHandler. ledger and runs may be nil.
func NewHealthHandler(db Pinger, ledger LedgerReader, runs RunReporter) *HealthHandler {
	return &HealthHandler{db: db, ledger: ledger, runs: runs}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz. The service is ready when the database
// answers and processed_files can be queried. The last run is informational.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.db.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "database not reachable"})
		return
	}

	body := gin.H{"status": "ok", "database": "ok"}
	if h.ledger != nil {
		now := time.Now().UTC()
		if _, err := h.ledger.Summary(ctx, now.Add(-time.Minute), now); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "ok", "error": "ledger not reachable"})
			return
		}
		body["ledger"] = "ok"
	}
	if h.runs != nil {
		body["last_run"] = h.runs.LastRun()
	}
	c.JSON(http.StatusOK, body)
}
