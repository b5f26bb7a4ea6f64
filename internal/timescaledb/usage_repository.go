package timescaledb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"carbon-admin-console/internal/dto"
	"carbon-admin-console/internal/repository"
)

// Allowed breakdowns and aggregates of the usage timeseries.
var (
	groupByColumns = map[string]string{
		"model":    colModel,
		"provider": colProvider,
		"feature":  colFeature,
		"user_id":  colUserID,
	}
	metricExprs = map[string]string{
		"calls":    "COUNT(*)",
		"tokens":   "SUM(prompt_tokens + completion_tokens)",
		"cost":     "SUM(cost_usd)",
		"duration": "AVG(duration_ms)",
	}
	validIntervals = map[string]bool{
		"1 minute": true, "5 minute": true, "10 minute": true,
		"30 minute": true, "1 hour": true, "1 day": true,
	}
)

type timescaleUsageRepository struct {
	pool       *pgxpool.Pool
	eventTable string
}

func NewTimescaleUsageRepository(pool *pgxpool.Pool) (repository.UsageRepository, error) {
	if pool == nil {
		return nil, errors.New("TimescaleDB connection pool is required for UsageRepository")
	}
	return &timescaleUsageRepository{
		pool:       pool,
		eventTable: usageEventsTableName,
	}, nil
}

// whereClause filters on the time window and optional models, numbering
// placeholders from first.
func whereClause(start, end time.Time, models []string, first int) (string, []interface{}) {
	clauses := []string{fmt.Sprintf("time >= $%d", first), fmt.Sprintf("time < $%d", first+1)}
	args := []interface{}{start, end}
	n := first + 2
	if len(models) > 0 {
		placeholders := make([]string, len(models))
		for i, m := range models {
			placeholders[i] = fmt.Sprintf("$%d", n)
			args = append(args, m)
			n++
		}
		clauses = append(clauses, fmt.Sprintf("model IN (%s)", strings.Join(placeholders, ",")))
	}
	return strings.Join(clauses, " AND "), args
}

func buildSummarySQL(table string, req dto.LLMUsageSummaryRequest) (string, []interface{}) {
	where, args := whereClause(req.StartTime, req.EndTime, req.Models, 1)
	query := fmt.Sprintf(`SELECT COUNT(*),
		COUNT(*) FILTER (WHERE NOT success),
		COALESCE(SUM(prompt_tokens), 0)::bigint,
		COALESCE(SUM(completion_tokens), 0)::bigint,
		COALESCE(SUM(cost_usd), 0),
		COALESCE(AVG(duration_ms), 0)::double precision
		FROM %s WHERE %s`, table, where)
	return query, args
}

func buildTimeseriesSQL(table string, req dto.LLMUsageTimeseriesRequest) (string, []interface{}, error) {
	if !validIntervals[req.Interval] {
		return "", nil, fmt.Errorf("%w: interval %q", repository.ErrInvalidQuery, req.Interval)
	}
	metric := req.Metric
	if metric == "" {
		metric = "calls"
	}
	expr, ok := metricExprs[metric]
	if !ok {
		return "", nil, fmt.Errorf("%w: metric %q", repository.ErrInvalidQuery, req.Metric)
	}
	groupExpr := "'total'::text"
	groupBy := "bucket"
	if req.GroupBy != "" && req.GroupBy != "total" {
		col, ok := groupByColumns[req.GroupBy]
		if !ok {
			return "", nil, fmt.Errorf("%w: groupBy %q", repository.ErrInvalidQuery, req.GroupBy)
		}
		groupExpr = col
		groupBy = "bucket, group_key"
	}

	where, args := whereClause(req.StartTime, req.EndTime, req.Models, 2)
	args = append([]interface{}{req.Interval}, args...)

	var b strings.Builder
	b.WriteString("SELECT time_bucket($1::interval, time) AS bucket, ")
	fmt.Fprintf(&b, "%s AS group_key, ", groupExpr)
	fmt.Fprintf(&b, "COALESCE(%s, 0)::double precision AS value ", expr)
	fmt.Fprintf(&b, "FROM %s WHERE %s ", table, where)
	fmt.Fprintf(&b, "GROUP BY %s ORDER BY bucket ASC", groupBy)
	return b.String(), args, nil
}

func (r *timescaleUsageRepository) GetSummary(ctx context.Context, req dto.LLMUsageSummaryRequest) (*dto.LLMUsageSummaryResponse, error) {
	query, args := buildSummarySQL(r.eventTable, req)
	resp := &dto.LLMUsageSummaryResponse{}
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&resp.TotalCalls,
		&resp.FailedCalls,
		&resp.PromptTokens,
		&resp.CompletionTokens,
		&resp.CostUSD,
		&resp.AvgDurationMs,
	)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("Failed to summarize llm usage")
		return nil, fmt.Errorf("failed to get usage summary: %w", err)
	}
	return resp, nil
}

func (r *timescaleUsageRepository) GetTimeseries(ctx context.Context, req dto.LLMUsageTimeseriesRequest) (*dto.LLMUsageTimeseriesResponse, error) {
	querySQL, args, err := buildTimeseriesSQL(r.eventTable, req)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("query", querySQL).Interface("args", args).Msg("Executing TimescaleDB usage timeseries query")

	rows, err := r.pool.Query(ctx, querySQL, args...)
	if err != nil {
		log.Error().Err(err).Str("query", querySQL).Msg("Failed to execute usage timeseries query")
		return nil, fmt.Errorf("timeseries query failed: %w", err)
	}
	defer rows.Close()

	seriesMap := make(map[string][]dto.TimeseriesDataPoint)
	for rows.Next() {
		var bucket time.Time
		var groupKey *string
		var value float64
		if err := rows.Scan(&bucket, &groupKey, &value); err != nil {
			log.Error().Err(err).Msg("Failed to scan timeseries row")
			continue
		}
		key := "unknown"
		if groupKey != nil && *groupKey != "" {
			key = *groupKey
		}
		seriesMap[key] = append(seriesMap[key], dto.TimeseriesDataPoint{
			Timestamp: bucket.UnixMilli(),
			Value:     value,
		})
	}
	if err := rows.Err(); err != nil {
		log.Error().Err(err).Msg("Error iterating timeseries rows")
		return nil, fmt.Errorf("failed iterating query results: %w", err)
	}

	return seriesResponse(seriesMap), nil
}

// seriesResponse orders series by name for stable output.
func seriesResponse(seriesMap map[string][]dto.TimeseriesDataPoint) *dto.LLMUsageTimeseriesResponse {
	names := make([]string, 0, len(seriesMap))
	for name := range seriesMap {
		names = append(names, name)
	}
	sort.Strings(names)
	response := &dto.LLMUsageTimeseriesResponse{
		Series: make([]dto.TimeseriesSeries, 0, len(names)),
	}
	for _, name := range names {
		response.Series = append(response.Series, dto.TimeseriesSeries{Name: name, Data: seriesMap[name]})
	}
	return response
}
