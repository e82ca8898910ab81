// Package export renders ledger entries as CSV or XLSX reports.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"ftplog/internal/domain"
)

// Format is a report file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" or "xlsx", case-insensitively. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the header row (10 columns).
var columns = []string{
	"File URI",
	"File Name",
	"Status",
	"Rows Expected",
	"Rows Loaded",
	"Parse Errors",
	"Error Message",
	"Duration (s)",
	"Processed At",
	"Run ID",
}

// Writer streams ledger entries into a report.
type Writer interface {
	WriteHeader() error
	WriteEntries(entries []domain.LedgerEntry) error
	// Close flushes buffered output. The report is incomplete until it returns.
	Close() error
}

// NewWriter creates a Writer for format that writes to w.
func NewWriter(format Format, w io.Writer) (Writer, error) {
	switch format {
	case FormatCSV:
		return &csvWriter{out: w, csv: csv.NewWriter(w)}, nil
	case FormatXLSX:
		return newXLSXWriter(w)
	}
	return nil, fmt.Errorf("unsupported export format %q", format)
}

type csvWriter struct {
	out io.Writer
	csv *csv.Writer
}

func (w *csvWriter) WriteHeader() error {
	if _, err := w.out.Write(BOM); err != nil {
		return err
	}
	return w.csv.Write(columns)
}

func (w *csvWriter) WriteEntries(entries []domain.LedgerEntry) error {
	for i := range entries {
		if err := w.csv.Write(entryToRow(&entries[i])); err != nil {
			return err
		}
	}
	return nil
}

func (w *csvWriter) Close() error {
	w.csv.Flush()
	return w.csv.Error()
}

const sheetName = "Ledger"

type xlsxWriter struct {
	out    io.Writer
	file   *excelize.File
	stream *excelize.StreamWriter
	row    int
}

func newXLSXWriter(w io.Writer) (*xlsxWriter, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return nil, fmt.Errorf("xlsx stream: %w", err)
	}
	return &xlsxWriter{out: w, file: f, stream: sw, row: 1}, nil
}

func (w *xlsxWriter) setRow(values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		return err
	}
	if err := w.stream.SetRow(cell, values); err != nil {
		return err
	}
	w.row++
	return nil
}

func (w *xlsxWriter) WriteHeader() error {
	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	return w.setRow(header)
}

func (w *xlsxWriter) WriteEntries(entries []domain.LedgerEntry) error {
	for i := range entries {
		e := &entries[i]
		values := []interface{}{
			e.GCSURI,
			e.OriginatingFilename,
			string(e.Status),
			e.RowsExpected,
			e.RowsLoaded,
			e.ParseErrors,
			formatMessage(e.ErrorMessage),
			e.ProcessingDurationSeconds,
			e.ProcessedTimestamp.UTC().Format(time.RFC3339),
			e.RunID,
		}
		if err := w.setRow(values); err != nil {
			return err
		}
	}
	return nil
}

func (w *xlsxWriter) Close() error {
	defer w.file.Close()
	if err := w.stream.Flush(); err != nil {
		return fmt.Errorf("xlsx flush: %w", err)
	}
	if err := w.file.Write(w.out); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

// entryToRow converts a single ledger entry to a 10-element string slice.
func entryToRow(e *domain.LedgerEntry) []string {
	return []string{
		e.GCSURI,
		e.OriginatingFilename,
		string(e.Status),
		strconv.FormatInt(e.RowsExpected, 10),
		strconv.FormatInt(e.RowsLoaded, 10),
		strconv.FormatInt(e.ParseErrors, 10),
		formatMessage(e.ErrorMessage),
		strconv.FormatFloat(e.ProcessingDurationSeconds, 'f', 3, 64),
		e.ProcessedTimestamp.UTC().Format(time.RFC3339),
		e.RunID,
	}
}

func formatMessage(msg *string) string {
	if msg == nil {
		return ""
	}
	return *msg
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename replaces characters outside [A-Za-z0-9_-] with _, collapses
// runs of underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns {sanitized_name}_{YYYY-MM-DD}.{format} for the
// Content-Disposition header.
func BuildFilename(name string, format Format, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", SanitizeFilename(name), now.Format("2006-01-02"), format)
}
