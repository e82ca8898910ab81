package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"ftplog/internal/domain"
	"ftplog/internal/export"
	"ftplog/internal/service"
)

// LedgerHandler handles processed-file ledger endpoints.
type LedgerHandler struct {
	ledgerService service.LedgerService
	now           func() time.Time
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerService service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService, now: time.Now}
}

// ReprocessRequest is the body of POST /api/v1/ledger/reprocess.
type ReprocessRequest struct {
	URI string `json:"uri" binding:"required"`
}

// List handles GET /api/v1/ledger
func (h *LedgerHandler) List(c *gin.Context) {
	filter, ok := parseLedgerFilter(c)
	if !ok {
		return
	}
	offset, limit := parsePagination(c)

	entries, total, err := h.ledgerService.List(c.Request.Context(), filter, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, entries, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Get handles GET /api/v1/ledger/entry?uri=
func (h *LedgerHandler) Get(c *gin.Context) {
	uri := c.Query("uri")
	if strings.TrimSpace(uri) == "" {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "uri query parameter is required")
		return
	}

	entry, err := h.ledgerService.Get(c.Request.Context(), uri)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, entry)
}

// Summary handles GET /api/v1/summary?window=24h
func (h *LedgerHandler) Summary(c *gin.Context) {
	window, err := time.ParseDuration(c.DefaultQuery("window", "24h"))
	if err != nil || window <= 0 {
		RespondError(c, http.StatusBadRequest, "INVALID_WINDOW", "window must be a positive duration such as 24h")
		return
	}

	summary, err := h.ledgerService.Summary(c.Request.Context(), window)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, summary)
}

// Export handles GET /api/v1/ledger/export?format=csv|xlsx
// The report is rendered in full before any byte is sent, so failures still
// produce a JSON error response.
func (h *LedgerHandler) Export(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be csv or xlsx")
		return
	}
	filter, ok := parseLedgerFilter(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	w, err := export.NewWriter(format, &buf)
	if err != nil {
		HandleError(c, err)
		return
	}
	if err := w.WriteHeader(); err != nil {
		HandleError(c, err)
		return
	}
	err = h.ledgerService.Export(c.Request.Context(), filter, func(batch []domain.LedgerEntry) error {
		return w.WriteEntries(batch)
	})
	if err != nil {
		_ = w.Close()
		HandleError(c, err)
		return
	}
	if err := w.Close(); err != nil {
		HandleError(c, err)
		return
	}

	name := "ftplog_ledger"
	if filter.Status != "" {
		name += "_" + string(filter.Status)
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.BuildFilename(name, format, h.now())))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// Reprocess handles POST /api/v1/ledger/reprocess
func (h *LedgerHandler) Reprocess(c *gin.Context) {
	var req ReprocessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "body must be {\"uri\": \"...\"}")
		return
	}

	deleted, err := h.ledgerService.Reprocess(c.Request.Context(), req.URI)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"uri": req.URI, "rows_deleted": deleted})
}

// parseLedgerFilter reads status, since and until query parameters. On
// failure the error response is already written.
func parseLedgerFilter(c *gin.Context) (domain.LedgerFilter, bool) {
	var filter domain.LedgerFilter
	if s := c.Query("status"); s != "" {
		filter.Status = domain.LedgerStatus(strings.ToUpper(s))
		if !filter.Status.Valid() {
			RespondError(c, http.StatusBadRequest, "INVALID_FILTER", "status must be SUCCESS, PARTIAL or FAILED")
			return filter, false
		}
	}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"since", &filter.Since}, {"until", &filter.Until}} {
		v := c.Query(p.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_FILTER", p.name+" must be an RFC 3339 timestamp")
			return filter, false
		}
		*p.dst = &t
	}
	return filter, true
}

func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(service.DefaultPageSize)))
	if limit <= 0 || limit > service.MaxPageSize {
		limit = service.DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}
