// Package parsers reads activity log exports in JSON, JSONL and CSV form.
package parsers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// RawActivity is one activity as it appears in an export, before validation.
type RawActivity struct {
	ID           string     `json:"activity_id,omitempty"`
	Name         string     `json:"name"`
	Type         string     `json:"type,omitempty"`
	Summary      string     `json:"summary,omitempty"`
	Content      RawContent `json:"content"`
	Actor        RawActor   `json:"actor"`
	Status       string     `json:"status,omitempty"`
	RewindID     string     `json:"rewind_id,omitempty"`
	IsRewindable bool       `json:"is_rewindable,omitempty"`
	Published    string     `json:"published"`
	Object       RawObject  `json:"object"`
	LineNum      int        `json:"-"` // Line or array position in the source (set by parser)
}

// RawContent holds the long-form text of an activity.
type RawContent struct {
	Text string `json:"text,omitempty"`
}

// RawActor names who performed the activity.
type RawActor struct {
	Name string `json:"name,omitempty"`
}

// RawObject is the activity's object. Rewind completions carry target_ts.
type RawObject struct {
	Type     string     `json:"type,omitempty"`
	TargetTS FlexString `json:"target_ts,omitempty"`
}

// FlexString accepts a JSON string or number.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = FlexString(n.String())
	return nil
}

// Parser parses activities from a reader.
type Parser interface {
	Parse(r io.Reader) ([]RawActivity, error)
}

// ForFormat returns the parser for format: "json", "jsonl" or "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "jsonl", "ndjson":
		return &JSONLParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the parser matching the file extension.
func ForFile(filename string) Parser {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return &JSONParser{}
	case ".jsonl", ".ndjson":
		return &JSONLParser{}
	case ".csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// Supported reports whether filename has an importable extension.
func Supported(filename string) bool {
	return ForFile(filename) != nil
}

// maxUnixSeconds keeps numeric timestamps inside int64 nanoseconds.
const maxUnixSeconds = math.MaxInt64 / 1e9

// ParseTimestamp parses RFC 3339 text or Unix seconds (optionally fractional).
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
	}
	if math.Abs(secs) > maxUnixSeconds {
		return time.Time{}, fmt.Errorf("timestamp %q out of range", s)
	}
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC(), nil
}
