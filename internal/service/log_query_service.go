package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"carbon-admin-console/internal/dto"
	"carbon-admin-console/internal/logquery"
	"carbon-admin-console/internal/model"
	"carbon-admin-console/internal/repository"
	"carbon-admin-console/internal/timeline"
)

const (
	DefaultPerPage = 50
	MaxPerPage     = 200
)

var ErrInvalidRequest = errors.New("invalid request")

type LogQueryService interface {
	Parse(raw string) dto.ParseResponse
	Search(ctx context.Context, req dto.MergedSearchRequest) (*dto.MergedSearchResponse, error)
	Related(ctx context.Context, requestID string) ([]model.LogRecord, error)
	Export(ctx context.Context, kinds []model.LogKind, filter logquery.Filter) ([]model.LogRecord, error)
}

type logQueryService struct {
	logRepo repository.LogRepository
}

func NewLogQueryService(logRepo repository.LogRepository) LogQueryService {
	return &logQueryService{
		logRepo: logRepo,
	}
}

func (s *logQueryService) Parse(raw string) dto.ParseResponse {
	pq := logquery.Parse(raw)
	params := map[string]string{}
	for k, v := range logquery.BuildQueryParams(pq) {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	return dto.ParseResponse{Query: pq, Chips: logquery.Chips(pq), Params: params}
}

// Search fetches the newest page*perPage records of every kind, merges them
// and cuts the requested page. The merged window never exceeds the raw view
// limit, so pages past it come back empty.
func (s *logQueryService) Search(ctx context.Context, req dto.MergedSearchRequest) (*dto.MergedSearchResponse, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PerPage <= 0 {
		req.PerPage = DefaultPerPage
	}
	if req.PerPage > MaxPerPage {
		req.PerPage = MaxPerPage
	}
	if len(req.Kinds) == 0 {
		req.Kinds = append([]model.LogKind(nil), model.AllKinds...)
	}
	window := min(req.Page*req.PerPage, timeline.RawViewLimit)

	log.Info().
		Strs("kinds", kindNames(req.Kinds)).
		Interface("terms", req.Filter.Terms()).
		Str("text", req.Filter.Text).
		Int("page", req.Page).
		Int("per_page", req.PerPage).
		Msg("Searching logs")

	groups, total, err := s.fetch(ctx, req.Kinds, req.Filter, window)
	if err != nil {
		return nil, err
	}
	merged := timeline.Merge(window, groups...)
	records, p := timeline.Page(merged, req.Page, req.PerPage)
	p = model.NewPagination(p.CurrentPage, p.PerPage, total)
	return &dto.MergedSearchResponse{Records: records, Pagination: p}, nil
}

func (s *logQueryService) Related(ctx context.Context, requestID string) ([]model.LogRecord, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return nil, fmt.Errorf("%w: request id is required", ErrInvalidRequest)
	}
	groups, _, err := s.fetch(ctx, model.AllKinds, logquery.Filter{RequestID: requestID}, timeline.RawViewLimit)
	if err != nil {
		return nil, err
	}
	return timeline.Merge(timeline.RawViewLimit, groups...), nil
}

func (s *logQueryService) Export(ctx context.Context, kinds []model.LogKind, filter logquery.Filter) ([]model.LogRecord, error) {
	if len(kinds) == 0 {
		kinds = model.AllKinds
	}
	groups, _, err := s.fetch(ctx, kinds, filter, timeline.RawViewLimit)
	if err != nil {
		return nil, err
	}
	return timeline.Merge(timeline.RawViewLimit, groups...), nil
}

// fetch queries every kind concurrently. The first error wins.
func (s *logQueryService) fetch(ctx context.Context, kinds []model.LogKind, filter logquery.Filter, size int) ([][]model.LogRecord, int64, error) {
	groups := make([][]model.LogRecord, len(kinds))
	totals := make([]int64, len(kinds))
	errs := make([]error, len(kinds))

	var wg sync.WaitGroup
	for i, kind := range kinds {
		wg.Add(1)
		go func(i int, kind model.LogKind) {
			defer wg.Done()
			resp, err := s.logRepo.Search(ctx, dto.LogSearchRequest{Kind: kind, Filter: filter, From: 0, Size: size})
			if err != nil {
				errs[i] = fmt.Errorf("search %s logs: %w", kind, err)
				return
			}
			groups[i] = resp.Records
			totals[i] = resp.TotalCount
		}(i, kind)
	}
	wg.Wait()

	var total int64
	for i := range kinds {
		if errs[i] != nil {
			return nil, 0, errs[i]
		}
		total += totals[i]
	}
	return groups, total, nil
}

func kindNames(kinds []model.LogKind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
