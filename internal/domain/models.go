package domain

import "time"

// InputFile is an NDJSON log object visible in the source bucket.
type InputFile struct {
	URI          string    `json:"uri"`
	Bucket       string    `json:"bucket"`
	Key          string    `json:"key"`
	LogicalName  string    `json:"logical_name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

// RawRecord is one line of an InputFile. It only lives for a single pass.
type RawRecord struct {
	FileURI  string
	Text     string
	Position int
}

// ParsedRow is the structured projection of a RawRecord written to base_ftplog.
// The producer's StatusCode is intentionally absent; it is kept only in the archive.
type ParsedRow struct {
	LoadTimeDt          time.Time  `db:"load_time_dt" json:"load_time_dt"`
	SourceFileDt        time.Time  `db:"source_file_dt" json:"source_file_dt"`
	OriginatingFilename string     `db:"originating_filename" json:"originating_filename"`
	GCSURI              string     `db:"gcs_uri" json:"gcs_uri"`
	Action              *string    `db:"action" json:"action"`
	Bytes               *int64     `db:"bytes" json:"bytes"`
	CustID              *int64     `db:"cust_id" json:"cust_id"`
	EventDt             *time.Time `db:"event_dt" json:"event_dt"`
	Filename            *string    `db:"filename" json:"filename"`
	HashCode            *int64     `db:"hash_code" json:"hash_code"`
	HashFingerprint     string     `db:"hash_fingerprint" json:"hash_fingerprint"`
	IPAddress           *string    `db:"ip_address" json:"ip_address"`
	PartnerName         *string    `db:"partner_name" json:"partner_name"`
	SessionID           *string    `db:"session_id" json:"session_id"`
	Source              *string    `db:"source" json:"source"`
	UserName            *string    `db:"user_name" json:"user_name"`
	ServerResponse      *string    `db:"server_response" json:"server_response"`
	RawData             *string    `db:"raw_data" json:"raw_data"`

	// Position is the line index inside the originating file; used for ordering only.
	Position int `db:"-" json:"-"`
}

// ArchiveEntry is the verbatim copy of a non-empty input line.
type ArchiveEntry struct {
	RawJSON             string    `db:"raw_json" json:"raw_json"`
	ArchivedTimestamp   time.Time `db:"archived_timestamp" json:"archived_timestamp"`
	ProcessDt           time.Time `db:"process_dt" json:"process_dt"`
	OriginatingFilename string    `db:"originating_filename" json:"originating_filename"`
	GCSURI              string    `db:"gcs_uri" json:"gcs_uri"`
}

// LedgerEntry is the per-file processing outcome stored in processed_files.
type LedgerEntry struct {
	GCSURI                    string       `db:"gcs_uri" json:"gcs_uri"`
	OriginatingFilename       string       `db:"originating_filename" json:"originating_filename"`
	ProcessedTimestamp        time.Time    `db:"processed_timestamp" json:"processed_timestamp"`
	RowsExpected              int64        `db:"rows_expected" json:"rows_expected"`
	RowsLoaded                int64        `db:"rows_loaded" json:"rows_loaded"`
	ParseErrors               int64        `db:"parse_errors" json:"parse_errors"`
	Status                    LedgerStatus `db:"status" json:"status"`
	ErrorMessage              *string      `db:"error_message" json:"error_message"`
	ProcessingDurationSeconds float64      `db:"processing_duration_seconds" json:"processing_duration_seconds"`
	RunID                     string       `db:"run_id" json:"run_id"`
}

// LedgerFilter narrows ledger listings. Zero values mean "no constraint".
type LedgerFilter struct {
	Status LedgerStatus
	Since  *time.Time
	Until  *time.Time
}

// LedgerSummary aggregates ledger rows processed inside a time window.
type LedgerSummary struct {
	Since          time.Time              `json:"since"`
	Until          time.Time              `json:"until"`
	FilesProcessed int64                  `json:"files_processed"`
	RowsExpected   int64                  `json:"rows_expected"`
	RowsLoaded     int64                  `json:"rows_loaded"`
	ParseErrors    int64                  `json:"parse_errors"`
	ByStatus       map[LedgerStatus]int64 `json:"by_status"`
}

// RunSummary describes a single invocation of the ingestion engine.
type RunSummary struct {
	RunID           string               `json:"run_id"`
	StartedAt       time.Time            `json:"started_at"`
	FinishedAt      time.Time            `json:"finished_at"`
	FilesListed     int                  `json:"files_listed"`
	FilesDiscovered int                  `json:"files_discovered"`
	FilesRecorded   int                  `json:"files_recorded"`
	FilesSkipped    int                  `json:"files_skipped"`
	RowsExpected    int64                `json:"rows_expected"`
	RowsInserted    int64                `json:"rows_inserted"`
	RowsLoaded      int64                `json:"rows_loaded"`
	ArchiveEntries  int                  `json:"archive_entries"`
	StatusCounts    map[LedgerStatus]int `json:"status_counts"`
	Entries         []LedgerEntry        `json:"entries,omitempty"`
}
