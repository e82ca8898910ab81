package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ftplog/internal/domain"
	"ftplog/internal/handler"
	"ftplog/internal/metrics"
	"ftplog/mocks"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

type runReporter metrics.RunState

func (r runReporter) LastRun() metrics.RunState { return metrics.RunState(r) }

var (
	pingOK   = pingFunc(func(context.Context) error { return nil })
	pingDown = pingFunc(func(context.Context) error { return errors.New("refused") })
)

func serveReadiness(h *handler.HealthHandler) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody)
	h.Readiness(c)
	return w
}

func TestHealthHandler_Liveness(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	handler.NewHealthHandler(pingDown, nil, nil).Liveness(c)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthHandler_Readiness(t *testing.T) {
	store := new(mocks.MockLedgerStore)
	store.On("Summary", mock.Anything, mock.Anything, mock.Anything).Return(&domain.LedgerSummary{}, nil)
	finished := time.Date(2026, 1, 28, 11, 0, 0, 0, time.UTC)
	runs := runReporter{Result: "ok", RunID: "run-1", FinishedAt: &finished, LastSuccessAt: &finished}

	w := serveReadiness(handler.NewHealthHandler(pingOK, store, runs))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status  string           `json:"status"`
		Ledger  string           `json:"ledger"`
		LastRun metrics.RunState `json:"last_run"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "ok", body.Ledger)
	assert.Equal(t, "run-1", body.LastRun.RunID)
	store.AssertExpectations(t)
}

func TestHealthHandler_Readiness_DatabaseDown(t *testing.T) {
	store := new(mocks.MockLedgerStore)
	w := serveReadiness(handler.NewHealthHandler(pingDown, store, nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	store.AssertNotCalled(t, "Summary", mock.Anything, mock.Anything, mock.Anything)
}

func TestHealthHandler_Readiness_LedgerUnreachable(t *testing.T) {
	store := new(mocks.MockLedgerStore)
	store.On("Summary", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New(`relation "processed_files" does not exist`))

	w := serveReadiness(handler.NewHealthHandler(pingOK, store, nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "ledger not reachable")
}
