// Package export writes merged log records as CSV or NDJSON downloads.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"carbon-admin-console/internal/model"
)

type Format string

const (
	FormatCSV    Format = "csv"
	FormatNDJSON Format = "ndjson"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "ndjson", "jsonl":
		return FormatNDJSON, nil
	}
	return "", fmt.Errorf("unsupported export format: %q", s)
}

func (f Format) ContentType() string {
	if f == FormatNDJSON {
		return "application/x-ndjson"
	}
	return "text/csv; charset=utf-8"
}

// Filename builds a download name such as logs-20240501-101500.csv.
func (f Format) Filename(now time.Time) string {
	return fmt.Sprintf("logs-%s.%s", now.UTC().Format("20060102-150405"), f)
}

var defaultColumns = map[model.LogKind][]string{
	model.KindSystem: {"timestamp", "kind", "request_id", "user_id", "method", "path", "status_code", "duration_ms", "message"},
	model.KindAudit:  {"timestamp", "kind", "request_id", "user_id", "action", "audit_status", "entity", "entity_id"},
	model.KindError:  {"timestamp", "kind", "request_id", "user_id", "error_type", "message", "path", "status_code"},
	model.KindLLM:    {"timestamp", "kind", "request_id", "user_id", "model", "provider", "prompt_tokens", "completion_tokens", "cost_usd", "duration_ms"},
}

// ColumnsFor returns the default visible columns of a stream.
func ColumnsFor(kind model.LogKind) []string {
	return append([]string(nil), defaultColumns[kind]...)
}

// ColumnsForKinds unions the default columns of several streams keeping the
// first-seen order.
func ColumnsForKinds(kinds []model.LogKind) []string {
	seen := map[string]bool{}
	var cols []string
	for _, k := range kinds {
		for _, c := range defaultColumns[k] {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}
	return cols
}

// AllColumns lists every field present in records: timestamp and kind first,
// the rest sorted.
func AllColumns(records []model.LogRecord) []string {
	seen := map[string]bool{}
	for _, r := range records {
		for k := range r.Fields {
			seen[k] = true
		}
	}
	delete(seen, "timestamp")
	delete(seen, "kind")
	rest := make([]string, 0, len(seen))
	for k := range seen {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	return append([]string{"timestamp", "kind"}, rest...)
}

// Write encodes records in format. CSV uses columns (AllColumns when empty);
// NDJSON always carries every field.
func Write(w io.Writer, format Format, records []model.LogRecord, columns []string) error {
	switch format {
	case FormatNDJSON:
		return writeNDJSON(w, records)
	case FormatCSV:
		if len(columns) == 0 {
			columns = AllColumns(records)
		}
		return writeCSV(w, records, columns)
	}
	return fmt.Errorf("unsupported export format: %q", format)
}

func writeCSV(w io.Writer, records []model.LogRecord, columns []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	row := make([]string, len(columns))
	for _, r := range records {
		for i, c := range columns {
			row[i] = r.String(c)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeNDJSON(w io.Writer, records []model.LogRecord) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("write ndjson line: %w", err)
		}
	}
	return nil
}

// ReadNDJSON decodes records written by Write, skipping blank lines.
func ReadNDJSON(r io.Reader) ([]model.LogRecord, error) {
	dec := json.NewDecoder(r)
	var out []model.LogRecord
	for {
		var rec model.LogRecord
		err := dec.Decode(&rec)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("read ndjson record %d: %w", len(out)+1, err)
		}
		out = append(out, rec)
	}
}
