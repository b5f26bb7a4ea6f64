package model

import "time"

// LLMUsageEvent is one model call extracted from an llm log record.
type LLMUsageEvent struct {
	Time             time.Time `json:"time"`
	Model            string    `json:"model"`
	Provider         string    `json:"provider"`
	UserID           string    `json:"user_id"`
	Feature          string    `json:"feature"`
	PromptTokens     int64     `json:"prompt_tokens"`
	CompletionTokens int64     `json:"completion_tokens"`
	CostUSD          float64   `json:"cost_usd"`
	DurationMs       int64     `json:"duration_ms"`
	Success          bool      `json:"success"`
}
