package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbon-admin-console/internal/model"
)

func TestExtract(t *testing.T) {
	e := NewUsageExtractor()
	ev, ok := e.Extract(model.LogRecord{
		Kind:      model.KindLLM,
		Timestamp: "2024-05-01T10:00:00Z",
		Fields: map[string]any{
			"model":             "gpt-4o",
			"provider":          "openai",
			"user_id":           float64(42),
			"prompt_tokens":     float64(120),
			"completion_tokens": "30",
			"cost_usd":          0.0042,
			"duration_ms":       float64(850),
		},
	})
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), ev.Time)
	assert.Equal(t, "gpt-4o", ev.Model)
	assert.Equal(t, "openai", ev.Provider)
	assert.Equal(t, "42", ev.UserID)
	assert.Equal(t, int64(120), ev.PromptTokens)
	assert.Equal(t, int64(30), ev.CompletionTokens)
	assert.InDelta(t, 0.0042, ev.CostUSD, 1e-9)
	assert.Equal(t, int64(850), ev.DurationMs)
	assert.True(t, ev.Success)
}

func TestExtractSkipsOtherKinds(t *testing.T) {
	e := NewUsageExtractor()
	_, ok := e.Extract(model.LogRecord{Kind: model.KindAudit, Fields: map[string]any{"model": "x"}})
	assert.False(t, ok)
	_, ok = e.Extract(model.LogRecord{Kind: model.KindLLM, Fields: map[string]any{}})
	assert.False(t, ok)
}

func TestExtractFailureAndClockFallback(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	e := &usageExtractor{now: func() time.Time { return now }}

	ev, ok := e.Extract(model.LogRecord{Kind: model.KindLLM, Timestamp: "nope", Fields: map[string]any{"model": "m", "status": "timeout"}})
	require.True(t, ok)
	assert.Equal(t, now, ev.Time)
	assert.False(t, ev.Success)

	ev, _ = e.Extract(model.LogRecord{Kind: model.KindLLM, Fields: map[string]any{"model": "m", "success": false}})
	assert.False(t, ev.Success)
	ev, _ = e.Extract(model.LogRecord{Kind: model.KindLLM, Fields: map[string]any{"model": "m", "error": "rate limited"}})
	assert.False(t, ev.Success)
}
