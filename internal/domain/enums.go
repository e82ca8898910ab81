package domain

// LedgerStatus is the outcome recorded for a processed file.
type LedgerStatus string

const (
	LedgerStatusSuccess LedgerStatus = "SUCCESS"
	LedgerStatusPartial LedgerStatus = "PARTIAL"
	LedgerStatusFailed  LedgerStatus = "FAILED"
)

// Valid reports whether s is one of the known ledger statuses.
func (s LedgerStatus) Valid() bool {
	switch s {
	case LedgerStatusSuccess, LedgerStatusPartial, LedgerStatusFailed:
		return true
	}
	return false
}

// ArchiveBackend selects where raw lines are archived.
type ArchiveBackend string

const (
	ArchiveBackendPostgres ArchiveBackend = "postgres"
	ArchiveBackendS3       ArchiveBackend = "s3"
)
