package parser_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbon-admin-console/internal/model"
	"carbon-admin-console/internal/parser"
)

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected parser.Header
		ok       bool
	}{
		{
			name: "Valid Log Entry",
			line: "22/01/24 14:30:45 INFO logger.component: This is a log message",
			expected: parser.Header{
				Timestamp: time.Date(2022, 1, 24, 14, 30, 45, 0, time.UTC),
				Level:     "INFO",
				Component: "logger.component",
				Message:   "This is a log message",
			},
			ok: true,
		},
		{
			name: "Four Digit Year With Millis",
			line: "2024-05-01 08:00:00,123 warn app-name:   spaced out",
			expected: parser.Header{
				Timestamp: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
				Level:     "WARN",
				Component: "app-name",
				Message:   "spaced out",
			},
			ok: true,
		},
		{name: "Missing Component", line: "22/01/24 14:30:45 INFO no colon here"},
		{name: "Invalid Date", line: "22/13/45 14:30:45 INFO c: m"},
		{name: "Plain Text", line: "at java.lang.Thread.run(Thread.java:750)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, ok := parser.ParseHeader(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, h)
		})
	}
}

func TestApplicationID(t *testing.T) {
	assert.Equal(t, "application_12345_0001", parser.ApplicationID("/tmp/application_12345_0001/container.log"))
	assert.Equal(t, "unknown_application", parser.ApplicationID("/var/log/app.log"))
}

func TestAssembler_Multiline(t *testing.T) {
	a := parser.NewAssembler("/logs/application_1/c.log", "")
	a.Add("22/01/24 14:30:45 ERROR db.pool: connection refused")
	a.Add("  at pool.go:10")
	a.Add("")
	a.Add("22/01/24 14:30:46 INFO http: recovered")

	records := a.Flush()
	require.Len(t, records, 2)

	assert.Equal(t, model.KindError, records[0].Kind)
	assert.Equal(t, "2022-01-24T14:30:45Z", records[0].Timestamp)
	assert.Equal(t, "connection refused\n  at pool.go:10", records[0].String("message"))
	assert.Equal(t, "application_1", records[0].String("application"))

	assert.Equal(t, model.KindSystem, records[1].Kind)
	assert.Equal(t, "recovered", records[1].String("message"))
	assert.Empty(t, a.Flush())
}

func TestAssembler_JSONLines(t *testing.T) {
	a := parser.NewAssembler("x.ndjson", model.KindAudit)
	a.Add(`{"timestamp":"2024-05-01T00:00:00Z","action":"login"}`)
	a.Add(`{"kind":"llm","model":"gpt-4o","source_file":"upstream"}`)

	records := a.Flush()
	require.Len(t, records, 2)
	assert.Equal(t, model.KindAudit, records[0].Kind)
	assert.Equal(t, "x.ndjson", records[0].String("source_file"))
	assert.Equal(t, model.KindLLM, records[1].Kind)
	assert.Equal(t, "upstream", records[1].String("source_file"))
}

func TestAssembler_OrphanLine(t *testing.T) {
	a := parser.NewAssembler("c.log", model.KindSystem)
	a.Add("dangling continuation")
	records := a.Flush()
	require.Len(t, records, 1)
	assert.Equal(t, "UNKNOWN", records[0].String("level"))
	assert.Equal(t, "dangling continuation", records[0].String("message"))
}
