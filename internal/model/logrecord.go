package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// LogKind names one of the admin log streams.
type LogKind string

const (
	KindSystem LogKind = "system"
	KindAudit  LogKind = "audit"
	KindError  LogKind = "error"
	KindLLM    LogKind = "llm"
)

// AllKinds lists the searchable streams in display order.
var AllKinds = []LogKind{KindSystem, KindAudit, KindError, KindLLM}

// ParseKind accepts a stream name, case-insensitive.
func ParseKind(s string) (LogKind, error) {
	k := LogKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown log kind: %q", s)
}

// ParseKinds splits a comma-separated list; an empty list means every kind.
func ParseKinds(s string) ([]LogKind, error) {
	if strings.TrimSpace(s) == "" {
		return append([]LogKind(nil), AllKinds...), nil
	}
	var kinds []LogKind
	seen := map[LogKind]bool{}
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		k, err := ParseKind(part)
		if err != nil {
			return nil, err
		}
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	return kinds, nil
}

// timestampFields are checked in order when decoding a record.
var timestampFields = []string{"timestamp", "@timestamp", "created_at", "time"}

// LogRecord is a loosely typed log line from one of the streams. On the wire
// it is a flat JSON object: Fields plus "kind" and "timestamp".
//
// ID is not part of the document. When set it names the stored document, so
// writing the same record twice replaces it.
type LogRecord struct {
	ID        string
	Kind      LogKind
	Timestamp string
	Fields    map[string]any
}

// Get returns a field, with "kind" and "timestamp" resolving to the typed
// members.
func (r LogRecord) Get(key string) (any, bool) {
	switch key {
	case "kind":
		return string(r.Kind), true
	case "timestamp":
		return r.Timestamp, r.Timestamp != ""
	}
	v, ok := r.Fields[key]
	return v, ok
}

// String returns a field rendered as text, empty when absent.
func (r LogRecord) String(key string) string {
	v, ok := r.Get(key)
	if !ok || v == nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// Flatten merges Kind and Timestamp into a copy of Fields.
func (r LogRecord) Flatten() map[string]any {
	out := make(map[string]any, len(r.Fields)+2)
	for k, v := range r.Fields {
		out[k] = v
	}
	out["kind"] = string(r.Kind)
	out["timestamp"] = r.Timestamp
	return out
}

func (r LogRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Flatten())
}

func (r *LogRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = FromMap(raw)
	return nil
}

// FromMap builds a record from a flat document.
func FromMap(raw map[string]any) LogRecord {
	rec := LogRecord{Fields: map[string]any{}}
	for k, v := range raw {
		rec.Fields[k] = v
	}
	if k, ok := rec.Fields["kind"].(string); ok {
		rec.Kind = LogKind(k)
		delete(rec.Fields, "kind")
	}
	for _, f := range timestampFields {
		if ts, ok := timestampString(rec.Fields[f]); ok {
			rec.Timestamp = ts
			delete(rec.Fields, f)
			break
		}
	}
	return rec
}

// timestampString accepts a non-empty string or a number of epoch
// milliseconds, rendered as an integer.
func timestampString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, x != ""
	case float64:
		return strconv.FormatInt(int64(x), 10), true
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return strconv.FormatInt(n, 10), true
		}
		if f, err := x.Float64(); err == nil {
			return strconv.FormatInt(int64(f), 10), true
		}
	case int64:
		return strconv.FormatInt(x, 10), true
	case int:
		return strconv.Itoa(x), true
	}
	return "", false
}
