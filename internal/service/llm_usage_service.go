package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"carbon-admin-console/internal/dto"
	"carbon-admin-console/internal/repository"
)

type LLMUsageService interface {
	GetSummary(ctx context.Context, req dto.LLMUsageSummaryRequest) (*dto.LLMUsageSummaryResponse, error)
	GetTimeseries(ctx context.Context, req dto.LLMUsageTimeseriesRequest) (*dto.LLMUsageTimeseriesResponse, error)
}

type llmUsageService struct {
	usageRepo repository.UsageRepository
}

func NewLLMUsageService(usageRepo repository.UsageRepository) LLMUsageService {
	return &llmUsageService{
		usageRepo: usageRepo,
	}
}

func (s *llmUsageService) GetSummary(ctx context.Context, req dto.LLMUsageSummaryRequest) (*dto.LLMUsageSummaryResponse, error) {
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return nil, fmt.Errorf("%w: startTime and endTime are required", ErrInvalidRequest)
	}
	if req.EndTime.Before(req.StartTime) {
		return nil, fmt.Errorf("%w: endTime cannot be before startTime", ErrInvalidRequest)
	}
	log.Info().Time("start", req.StartTime).Time("end", req.EndTime).Strs("models", req.Models).Msg("Getting llm usage summary")
	return s.usageRepo.GetSummary(ctx, req)
}

func (s *llmUsageService) GetTimeseries(ctx context.Context, req dto.LLMUsageTimeseriesRequest) (*dto.LLMUsageTimeseriesResponse, error) {
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return nil, fmt.Errorf("%w: startTime and endTime are required", ErrInvalidRequest)
	}
	if req.EndTime.Before(req.StartTime) {
		return nil, fmt.Errorf("%w: endTime cannot be before startTime", ErrInvalidRequest)
	}
	if req.Interval == "" {
		req.Interval = "1 hour"
	}
	if req.Metric == "" {
		req.Metric = "calls"
	}
	if req.GroupBy == "" {
		req.GroupBy = "total"
	}

	log.Info().
		Time("start", req.StartTime).
		Time("end", req.EndTime).
		Strs("models", req.Models).
		Str("metric", req.Metric).
		Str("interval", req.Interval).
		Str("group_by", req.GroupBy).
		Msg("Getting llm usage timeseries")

	resp, err := s.usageRepo.GetTimeseries(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
