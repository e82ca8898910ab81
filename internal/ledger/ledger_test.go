package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ftplog/internal/domain"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name        string
		expected    int64
		loaded      int64
		status      domain.LedgerStatus
		msg         string
		parseErrors int64
	}{
		{"all loaded", 10, 10, domain.LedgerStatusSuccess, "", 0},
		{"some lost", 10, 7, domain.LedgerStatusPartial, "parsed 7 of 10 rows", 3},
		{"empty file", 0, 0, domain.LedgerStatusFailed, MsgNoRows, 0},
		{"nothing loaded", 5, 0, domain.LedgerStatusFailed, MsgNoRowsLoaded, 5},
		{"more loaded than expected", 3, 5, domain.LedgerStatusSuccess, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := Status(tt.expected, tt.loaded)
			assert.Equal(t, tt.status, status)
			if tt.msg == "" {
				assert.Nil(t, msg)
			} else {
				require.NotNil(t, msg)
				assert.Equal(t, tt.msg, *msg)
			}
			assert.Equal(t, tt.parseErrors, ParseErrors(tt.expected, tt.loaded))
		})
	}
}

func TestDerive(t *testing.T) {
	at := time.Date(2026, 1, 28, 11, 0, 0, 0, time.UTC)
	entry := Derive(Outcome{
		URI:          "s3://ftplog-bucket/logs/a.json",
		LogicalName:  "a",
		RunID:        "run-1",
		RowsExpected: 10,
		RowsLoaded:   7,
		ProcessedAt:  at,
		Duration:     1500 * time.Millisecond,
	})

	assert.Equal(t, "s3://ftplog-bucket/logs/a.json", entry.GCSURI)
	assert.Equal(t, "a", entry.OriginatingFilename)
	assert.Equal(t, at, entry.ProcessedTimestamp)
	assert.Equal(t, int64(10), entry.RowsExpected)
	assert.Equal(t, int64(7), entry.RowsLoaded)
	assert.Equal(t, int64(3), entry.ParseErrors)
	assert.Equal(t, domain.LedgerStatusPartial, entry.Status)
	require.NotNil(t, entry.ErrorMessage)
	assert.Equal(t, "parsed 7 of 10 rows", *entry.ErrorMessage)
	assert.InDelta(t, 1.5, entry.ProcessingDurationSeconds, 1e-9)
	assert.Equal(t, "run-1", entry.RunID)
}

func TestDerive_FullyDeduplicatedFileFails(t *testing.T) {
	entry := Derive(Outcome{URI: "s3://b/logs/resubmit.json", RowsExpected: 5, RowsLoaded: 0})

	assert.Equal(t, domain.LedgerStatusFailed, entry.Status)
	require.NotNil(t, entry.ErrorMessage)
	assert.Equal(t, MsgNoRowsLoaded, *entry.ErrorMessage)
	assert.Equal(t, int64(5), entry.ParseErrors)
}
