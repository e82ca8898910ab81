// Package parser turns NDJSON FTP log lines into structured rows and archive
// entries. Parsing never fails: malformed fields become nulls and unrecognised
// lines are only archived.
package parser

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"ftplog/internal/domain"
	"ftplog/internal/fingerprint"
)

// record is the wire schema of one log line. StatusCode is deliberately not
// part of it; it is only ever preserved in the archived raw text.
type record struct {
	UserName       json.RawMessage `json:"UserName"`
	CustID         json.RawMessage `json:"CustId"`
	PartnerName    json.RawMessage `json:"PartnerName"`
	EventDt        json.RawMessage `json:"EventDt"`
	Action         json.RawMessage `json:"Action"`
	Filename       json.RawMessage `json:"Filename"`
	SessionID      json.RawMessage `json:"SessionId"`
	IPAddress      json.RawMessage `json:"IpAddress"`
	Source         json.RawMessage `json:"Source"`
	Bytes          json.RawMessage `json:"Bytes"`
	HashCode       json.RawMessage `json:"HashCode"`
	ServerResponse json.RawMessage `json:"ServerResponse"`
	RawData        json.RawMessage `json:"RawData"`
}

// Outcome classifies a single line.
type Outcome int

const (
	// OutcomeSkipped is an empty or whitespace-only line. It is neither counted nor archived.
	OutcomeSkipped Outcome = iota
	// OutcomeRowError is a non-empty line that is not a JSON object. It is archived only.
	OutcomeRowError
	// OutcomeParsed produced a structured row and an archive entry.
	OutcomeParsed
)

// LoadMeta carries the per-file context stamped onto rows and archive entries.
type LoadMeta struct {
	URI                 string
	OriginatingFilename string
	LoadTime            time.Time
	ProcessTime         time.Time
}

// FieldError names a field that was present but could not be converted.
type FieldError struct {
	Field  string
	Reason string
}

// Result is the outcome of parsing one RawRecord.
type Result struct {
	Outcome     Outcome
	Row         *domain.ParsedRow
	Archive     *domain.ArchiveEntry
	Reason      string
	FieldErrors []FieldError
}

// ParseLine converts a RawRecord into a row and an archive entry.
func ParseLine(rec domain.RawRecord, meta LoadMeta) Result {
	text := strings.TrimRight(rec.Text, "\r\n")
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Result{Outcome: OutcomeSkipped}
	}

	archive := &domain.ArchiveEntry{
		RawJSON:             ArchiveText(text),
		ArchivedTimestamp:   meta.LoadTime,
		ProcessDt:           meta.ProcessTime,
		OriginatingFilename: meta.OriginatingFilename,
		GCSURI:              meta.URI,
	}

	if trimmed[0] != '{' || !json.Valid([]byte(trimmed)) {
		return Result{Outcome: OutcomeRowError, Archive: archive, Reason: "line is not a JSON object"}
	}

	var payload record
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return Result{Outcome: OutcomeRowError, Archive: archive, Reason: err.Error()}
	}

	row, fieldErrs := project(&payload, meta)
	row.Position = rec.Position
	return Result{
		Outcome:     OutcomeParsed,
		Row:         row,
		Archive:     archive,
		FieldErrors: fieldErrs,
	}
}

func project(r *record, meta LoadMeta) (*domain.ParsedRow, []FieldError) {
	var errs []FieldError
	str := func(name string, raw json.RawMessage) *string {
		f := String(raw)
		if f.Failed() {
			errs = append(errs, FieldError{Field: name, Reason: f.Reason})
		}
		return f.Ptr()
	}
	num := func(name string, raw json.RawMessage) *int64 {
		f := Int(raw)
		if f.Failed() {
			errs = append(errs, FieldError{Field: name, Reason: f.Reason})
		}
		return f.Ptr()
	}

	eventDt := Timestamp(r.EventDt)
	if eventDt.Failed() {
		errs = append(errs, FieldError{Field: "EventDt", Reason: eventDt.Reason})
	}
	sourceFileDt := meta.LoadTime
	if eventDt.Valid {
		sourceFileDt = eventDt.Value
	}

	fp := fingerprint.Compute(
		CanonicalText(r.EventDt),
		CanonicalText(r.Source),
		CanonicalText(r.Filename),
		CanonicalText(r.Bytes),
		CanonicalText(r.UserName),
	)

	row := &domain.ParsedRow{
		LoadTimeDt:          meta.LoadTime,
		SourceFileDt:        sourceFileDt,
		OriginatingFilename: meta.OriginatingFilename,
		GCSURI:              meta.URI,
		Action:              str("Action", r.Action),
		Bytes:               num("Bytes", r.Bytes),
		CustID:              num("CustId", r.CustID),
		EventDt:             eventDt.Ptr(),
		Filename:            str("Filename", r.Filename),
		HashCode:            num("HashCode", r.HashCode),
		IPAddress:           str("IpAddress", r.IPAddress),
		PartnerName:         str("PartnerName", r.PartnerName),
		SessionID:           str("SessionId", r.SessionID),
		Source:              str("Source", r.Source),
		UserName:            str("UserName", r.UserName),
		ServerResponse:      str("ServerResponse", r.ServerResponse),
		RawData:             str("RawData", r.RawData),
		HashFingerprint:     fp,
	}
	return row, errs
}

// Stats are the per-file parse counters.
type Stats struct {
	// Expected is the number of non-empty lines.
	Expected int
	// Parsed is the number of lines that produced a structured row.
	Parsed int
	// RowErrors is the number of non-empty lines that are not records.
	RowErrors int
	// FieldErrors counts individual fields nulled during projection.
	FieldErrors int
}

// FileResult collects everything produced from one input file.
type FileResult struct {
	File    domain.InputFile
	Rows    []domain.ParsedRow
	Archive []domain.ArchiveEntry
	Stats   Stats
	// Samples keeps the first few row-level failure reasons for logging.
	Samples []string
}

const maxSamples = 5

// ParseFile reads r line by line and parses every line. Only read errors are
// returned; content problems are reflected in Stats.
func ParseFile(file domain.InputFile, r io.Reader, meta LoadMeta) (*FileResult, error) {
	res := &FileResult{File: file}
	br := bufio.NewReaderSize(r, 64*1024)

	for pos := 0; ; pos++ {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			res.add(ParseLine(domain.RawRecord{FileURI: file.URI, Text: line, Position: pos}, meta))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parser.ParseFile %s: %w", file.URI, err)
		}
	}
	return res, nil
}

func (fr *FileResult) add(res Result) {
	switch res.Outcome {
	case OutcomeSkipped:
		return
	case OutcomeRowError:
		fr.Stats.RowErrors++
		if len(fr.Samples) < maxSamples {
			fr.Samples = append(fr.Samples, res.Reason)
		}
	case OutcomeParsed:
		fr.Stats.Parsed++
		fr.Stats.FieldErrors += len(res.FieldErrors)
		fr.Rows = append(fr.Rows, *res.Row)
	}
	fr.Stats.Expected++
	fr.Archive = append(fr.Archive, *res.Archive)
}

// ParseBytes is ParseFile over an in-memory payload.
func ParseBytes(file domain.InputFile, payload []byte, meta LoadMeta) *FileResult {
	res, _ := ParseFile(file, bytes.NewReader(payload), meta)
	return res
}
