package parser

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Reasons attached to a Field that could not be extracted.
const (
	ReasonMissing    = "missing"
	ReasonNotScalar  = "not a scalar value"
	ReasonNotInteger = "not an integer"
	ReasonBadTime    = "timestamp does not match canonical format"
	ReasonNotText    = "contains NUL or invalid UTF-8"
)

// timestampLayouts are the accepted event timestamp shapes. Fractional seconds
// are optional in both because time.Parse accepts them after the seconds field.
var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z",
}

// Field is the result of extracting one value from a record: either a valid
// value, or the zero value with the reason extraction failed.
type Field[T any] struct {
	Value  T
	Valid  bool
	Reason string
}

// Ptr returns a pointer to the value, or nil if the field is not valid.
func (f Field[T]) Ptr() *T {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// Failed reports whether the field was present but could not be converted.
// Absent fields are not failures.
func (f Field[T]) Failed() bool {
	return !f.Valid && f.Reason != ReasonMissing
}

func ok[T any](v T) Field[T] {
	return Field[T]{Value: v, Valid: true}
}

func fail[T any](reason string) Field[T] {
	return Field[T]{Reason: reason}
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// String extracts a textual value. Numbers and booleans are rendered as their
// JSON text; objects and arrays are rejected, as is text a PostgreSQL TEXT
// column cannot hold.
func String(raw json.RawMessage) Field[string] {
	if isAbsent(raw) {
		return fail[string](ReasonMissing)
	}
	trimmed := bytes.TrimSpace(raw)
	var s string
	switch trimmed[0] {
	case '"':
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fail[string](ReasonNotScalar)
		}
	case '{', '[':
		return fail[string](ReasonNotScalar)
	default:
		s = string(trimmed)
	}
	if !storable(s) {
		return fail[string](ReasonNotText)
	}
	return ok(s)
}

// storable reports whether s is valid UTF-8 without NUL bytes.
func storable(s string) bool {
	return utf8.ValidString(s) && strings.IndexByte(s, 0) < 0
}

// ArchiveText makes a raw line storable: invalid UTF-8 sequences become
// U+FFFD and NUL bytes are dropped. Storable lines are returned unchanged.
func ArchiveText(s string) string {
	if storable(s) {
		return s
	}
	return strings.ReplaceAll(strings.ToValidUTF8(s, "\uFFFD"), "\x00", "")
}

// Int extracts an integer from a JSON number or a numeric string. Integral
// floats such as 1024.0 are accepted; anything else yields an invalid field.
func Int(raw json.RawMessage) Field[int64] {
	if isAbsent(raw) {
		return fail[int64](ReasonMissing)
	}
	trimmed := bytes.TrimSpace(raw)

	text := string(trimmed)
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fail[int64](ReasonNotInteger)
		}
		text = strings.TrimSpace(s)
	}
	if text == "" {
		return fail[int64](ReasonNotInteger)
	}

	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return ok(n)
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) ||
		f > math.MaxInt64 || f < math.MinInt64 {
		return fail[int64](ReasonNotInteger)
	}
	return ok(int64(f))
}

// Timestamp parses the canonical event timestamp format. The result is UTC.
func Timestamp(raw json.RawMessage) Field[time.Time] {
	s := String(raw)
	if !s.Valid {
		if s.Reason == ReasonMissing {
			return fail[time.Time](ReasonMissing)
		}
		return fail[time.Time](ReasonBadTime)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s.Value); err == nil {
			return ok(t.UTC())
		}
	}
	return fail[time.Time](ReasonBadTime)
}

// CanonicalText renders a raw value the way fingerprints expect it: the string
// content for JSON strings, the literal text for numbers, and "" for absent or
// falsy values (null, false, 0, ""), matching the predecessor pipeline.
func CanonicalText(raw json.RawMessage) string {
	if isAbsent(raw) {
		return ""
	}
	trimmed := bytes.TrimSpace(raw)
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return ""
		}
		return s
	case 't':
		return "True"
	case 'f':
		return ""
	case '{', '[':
		return string(trimmed)
	}
	if f, err := strconv.ParseFloat(string(trimmed), 64); err == nil && f == 0 {
		return ""
	}
	return string(trimmed)
}
