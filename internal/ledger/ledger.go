// Package ledger derives the per-file outcome recorded in processed_files.
package ledger

import (
	"fmt"
	"time"

	"ftplog/internal/domain"
)

// Error messages stored alongside FAILED and PARTIAL entries.
const (
	MsgNoRows       = "no non-empty rows found"
	MsgNoRowsLoaded = "no rows loaded from file"
)

// Outcome is the input of Derive for one file.
type Outcome struct {
	URI          string
	LogicalName  string
	RunID        string
	RowsExpected int64
	RowsLoaded   int64
	ProcessedAt  time.Time
	Duration     time.Duration
}

// ParseErrors is max(expected - loaded, 0).
func ParseErrors(expected, loaded int64) int64 {
	if d := expected - loaded; d > 0 {
		return d
	}
	return 0
}

// Status returns the ledger status and error message for the given counts.
//
// A file whose rows were all fingerprint duplicates of earlier rows has
// loaded == 0 and is therefore FAILED, even though every line parsed.
func Status(expected, loaded int64) (domain.LedgerStatus, *string) {
	var msg string
	switch {
	case expected == 0:
		msg = MsgNoRows
	case loaded == 0:
		msg = MsgNoRowsLoaded
	case ParseErrors(expected, loaded) > 0:
		msg = fmt.Sprintf("parsed %d of %d rows", loaded, expected)
		return domain.LedgerStatusPartial, &msg
	default:
		return domain.LedgerStatusSuccess, nil
	}
	return domain.LedgerStatusFailed, &msg
}

// Derive builds the ledger entry for a completed processing attempt.
func Derive(o Outcome) domain.LedgerEntry {
	status, msg := Status(o.RowsExpected, o.RowsLoaded)
	return domain.LedgerEntry{
		GCSURI:                    o.URI,
		OriginatingFilename:       o.LogicalName,
		ProcessedTimestamp:        o.ProcessedAt,
		RowsExpected:              o.RowsExpected,
		RowsLoaded:                o.RowsLoaded,
		ParseErrors:               ParseErrors(o.RowsExpected, o.RowsLoaded),
		Status:                    status,
		ErrorMessage:              msg,
		ProcessingDurationSeconds: o.Duration.Seconds(),
		RunID:                     o.RunID,
	}
}
