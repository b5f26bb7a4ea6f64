package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"carbon-admin-console/internal/model"
	"carbon-admin-console/internal/util"
)

// Extractor turns llm log records into usage events.
type Extractor interface {
	Extract(rec model.LogRecord) (*model.LLMUsageEvent, bool)
}

type usageExtractor struct {
	now func() time.Time
}

func NewUsageExtractor() Extractor {
	return &usageExtractor{now: time.Now}
}

func (e *usageExtractor) Extract(rec model.LogRecord) (*model.LLMUsageEvent, bool) {
	if rec.Kind != model.KindLLM {
		return nil, false
	}
	modelName := rec.String("model")
	if modelName == "" {
		log.Trace().Str("request_id", rec.String("request_id")).Msg("llm record without model, no usage event")
		return nil, false
	}

	ts, err := util.ParseTimeFlexible(rec.Timestamp)
	if err != nil {
		ts = e.now()
	}
	ev := &model.LLMUsageEvent{
		Time:             ts.UTC(),
		Model:            modelName,
		Provider:         rec.String("provider"),
		UserID:           rec.String("user_id"),
		Feature:          rec.String("feature"),
		PromptTokens:     int64(number(rec, "prompt_tokens")),
		CompletionTokens: int64(number(rec, "completion_tokens")),
		CostUSD:          number(rec, "cost_usd"),
		DurationMs:       int64(number(rec, "duration_ms")),
		Success:          success(rec),
	}
	return ev, true
}

func number(rec model.LogRecord, key string) float64 {
	v, ok := rec.Get(key)
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err == nil {
			return f
		}
	}
	return 0
}

// success reads an explicit "success" flag, then falls back to "status".
func success(rec model.LogRecord) bool {
	if v, ok := rec.Get("success"); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	switch strings.ToLower(rec.String("status")) {
	case "error", "failed", "failure", "timeout":
		return false
	}
	return rec.String("error") == ""
}
