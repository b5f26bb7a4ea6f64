package dto

import "time"

type LLMUsageSummaryRequest struct {
	StartTime time.Time
	EndTime   time.Time
	Models    []string
}

type LLMUsageTimeseriesRequest struct {
	StartTime time.Time
	EndTime   time.Time
	Models    []string
	Metric    string // calls, tokens, cost or duration
	Interval  string // e.g. "5 minute", "1 hour"
	GroupBy   string // model, provider, feature, user_id or total
}
