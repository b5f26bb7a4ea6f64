package parser

import (
	"encoding/json"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"carbon-admin-console/internal/model"
)

// Header is the first line of a plain text log entry.
type Header struct {
	Timestamp time.Time
	Level     string
	Component string
	Message   string
}

// Groups: 1:Date, 2:Time, 3:Level, 4:Component, 5:Message
var headerRegex = regexp.MustCompile(`^(\d{2}(?:\d{2})?[/-]\d{2}[/-]\d{2})[ T](\d{2}:\d{2}:\d{2})(?:[.,]\d+)?\s+(\w+)\s+([\w.\-]+)\s*:\s*(.*)$`)

// ParseHeader recognizes "YY/MM/DD HH:MM:SS LEVEL component: message".
// Four digit years and dashes are accepted too.
func ParseHeader(line string) (Header, bool) {
	m := headerRegex.FindStringSubmatch(line)
	if m == nil {
		return Header{}, false
	}
	date := strings.ReplaceAll(m[1], "-", "/")
	layout := "06/01/02 15:04:05"
	if len(date) == len("2006/01/02") {
		layout = "2006/01/02 15:04:05"
	}
	ts, err := time.Parse(layout, date+" "+m[2])
	if err != nil {
		log.Debug().Err(err).Str("line", line).Msg("Header timestamp did not parse")
		return Header{}, false
	}
	return Header{
		Timestamp: ts.UTC(),
		Level:     strings.ToUpper(m[3]),
		Component: m[4],
		Message:   strings.TrimSpace(m[5]),
	}, true
}

// ApplicationID names the application a file belongs to by its directory,
// e.g. logs/application_12345_0001/container.log.
func ApplicationID(filePath string) string {
	base := filepath.Base(filepath.Dir(filePath))
	if strings.HasPrefix(base, "application") {
		return base
	}
	return "unknown_application"
}

// Assembler groups the lines of one file into records. A JSON object line
// is a record of its own. A text header starts a record and the lines after
// it, up to the next header, are appended to its message.
type Assembler struct {
	source string
	kind   model.LogKind
	now    func() time.Time

	current *model.LogRecord
	message strings.Builder
	raw     strings.Builder
	out     []model.LogRecord
}

// NewAssembler builds records of kind for lines read from source. Records
// that carry their own kind keep it.
func NewAssembler(source string, kind model.LogKind) *Assembler {
	if kind == "" {
		kind = model.KindSystem
	}
	return &Assembler{source: source, kind: kind, now: time.Now}
}

func (a *Assembler) Add(line string) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return
	}

	if strings.HasPrefix(strings.TrimSpace(line), "{") {
		var rec model.LogRecord
		if err := json.Unmarshal([]byte(line), &rec); err == nil {
			a.finalize()
			if rec.Kind == "" {
				rec.Kind = a.kind
			}
			if _, ok := rec.Fields["source_file"]; !ok {
				rec.Fields["source_file"] = a.source
			}
			a.out = append(a.out, rec)
			return
		}
	}

	if h, ok := ParseHeader(line); ok {
		a.finalize()
		a.start(h.Timestamp, h.Level, h.Component)
		a.message.WriteString(h.Message)
		a.raw.WriteString(line)
		return
	}

	if a.current == nil {
		log.Warn().Str("file", a.source).Str("line", line).Msg("Orphan continuation line detected")
		a.start(a.now().UTC(), "UNKNOWN", "ORPHAN")
		a.message.WriteString(line)
		a.raw.WriteString(line)
		a.finalize()
		return
	}
	a.message.WriteString("\n")
	a.message.WriteString(line)
	a.raw.WriteString("\n")
	a.raw.WriteString(line)
}

func (a *Assembler) start(ts time.Time, level, component string) {
	kind := a.kind
	if level == "ERROR" || level == "FATAL" {
		kind = model.KindError
	}
	a.current = &model.LogRecord{
		Kind:      kind,
		Timestamp: ts.Format(time.RFC3339),
		Fields: map[string]any{
			"level":       level,
			"component":   component,
			"application": ApplicationID(a.source),
			"source_file": a.source,
		},
	}
}

func (a *Assembler) finalize() {
	if a.current == nil {
		return
	}
	a.current.Fields["message"] = a.message.String()
	a.current.Fields["raw"] = a.raw.String()
	a.out = append(a.out, *a.current)
	a.current = nil
	a.message.Reset()
	a.raw.Reset()
}

// Flush closes the pending entry and returns every record assembled since
// the last Flush.
func (a *Assembler) Flush() []model.LogRecord {
	a.finalize()
	out := a.out
	a.out = nil
	return out
}
