package timescaledb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbon-admin-console/internal/dto"
	"carbon-admin-console/internal/model"
	"carbon-admin-console/internal/repository"
)

var (
	start = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end   = time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
)

func TestBuildTimeseriesSQL(t *testing.T) {
	query, args, err := buildTimeseriesSQL("llm_usage_events", dto.LLMUsageTimeseriesRequest{
		StartTime: start,
		EndTime:   end,
		Models:    []string{"gpt-4o", "claude"},
		Metric:    "cost",
		Interval:  "1 hour",
		GroupBy:   "model",
	})
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT time_bucket($1::interval, time) AS bucket, model AS group_key, COALESCE(SUM(cost_usd), 0)::double precision AS value "+
			"FROM llm_usage_events WHERE time >= $2 AND time < $3 AND model IN ($4,$5) GROUP BY bucket, group_key ORDER BY bucket ASC",
		query)
	assert.Equal(t, []interface{}{"1 hour", start, end, "gpt-4o", "claude"}, args)
}

func TestBuildTimeseriesSQL_Defaults(t *testing.T) {
	query, args, err := buildTimeseriesSQL("t", dto.LLMUsageTimeseriesRequest{StartTime: start, EndTime: end, Interval: "1 day"})
	require.NoError(t, err)
	assert.Contains(t, query, "'total'::text AS group_key")
	assert.Contains(t, query, "GROUP BY bucket ORDER BY")
	assert.Contains(t, query, "COALESCE(COUNT(*), 0)")
	assert.Len(t, args, 3)
}

func TestBuildTimeseriesSQL_Invalid(t *testing.T) {
	tests := []dto.LLMUsageTimeseriesRequest{
		{Interval: "2 hour"},
		{Interval: "1 hour", Metric: "latency; DROP TABLE x"},
		{Interval: "1 hour", GroupBy: "tags"},
	}
	for _, req := range tests {
		_, _, err := buildTimeseriesSQL("t", req)
		assert.ErrorIs(t, err, repository.ErrInvalidQuery)
	}
}

func TestBuildSummarySQL(t *testing.T) {
	query, args := buildSummarySQL("llm_usage_events", dto.LLMUsageSummaryRequest{StartTime: start, EndTime: end})
	assert.Contains(t, query, "FROM llm_usage_events WHERE time >= $1 AND time < $2")
	assert.Equal(t, []interface{}{start, end}, args)
}

func TestSeriesResponseIsSorted(t *testing.T) {
	resp := seriesResponse(map[string][]dto.TimeseriesDataPoint{
		"b": {{Timestamp: 1, Value: 2}},
		"a": {{Timestamp: 1, Value: 1}},
	})
	require.Len(t, resp.Series, 2)
	assert.Equal(t, "a", resp.Series[0].Name)
	assert.Equal(t, "b", resp.Series[1].Name)
}

func TestUsageRowMatchesColumns(t *testing.T) {
	row := usageRow(model.LLMUsageEvent{Time: start, Model: "m", PromptTokens: 3, Success: true})
	assert.Len(t, row, len(usageColumns))
	assert.Equal(t, "m", row[1])
	assert.Equal(t, true, row[len(row)-1])
}
