package repository

import (
	"context"
	"errors"

	"carbon-admin-console/internal/dto"
)

// ErrInvalidQuery marks a request the store refuses to translate.
var ErrInvalidQuery = errors.New("invalid query")

type UsageRepository interface {
	GetSummary(ctx context.Context, req dto.LLMUsageSummaryRequest) (*dto.LLMUsageSummaryResponse, error)
	GetTimeseries(ctx context.Context, req dto.LLMUsageTimeseriesRequest) (*dto.LLMUsageTimeseriesResponse, error)
}
