package dto

type LLMUsageSummaryResponse struct {
	TotalCalls       int64   `json:"totalCalls"`
	FailedCalls      int64   `json:"failedCalls"`
	PromptTokens     int64   `json:"promptTokens"`
	CompletionTokens int64   `json:"completionTokens"`
	CostUSD          float64 `json:"costUsd"`
	AvgDurationMs    float64 `json:"avgDurationMs"`
}

// TimeseriesDataPoint
type TimeseriesDataPoint struct {
	Timestamp int64   `json:"timestamp"` // Epoch Milliseconds
	Value     float64 `json:"value"`
}

// TimeseriesSeries is one group of the breakdown, e.g. a model name.
type TimeseriesSeries struct {
	Name string                `json:"name"`
	Data []TimeseriesDataPoint `json:"data"`
}

type LLMUsageTimeseriesResponse struct {
	Series []TimeseriesSeries `json:"series"`
}
