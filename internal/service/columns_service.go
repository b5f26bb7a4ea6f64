package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"carbon-admin-console/internal/dto"
	"carbon-admin-console/internal/export"
	"carbon-admin-console/internal/model"
	"carbon-admin-console/internal/repository"
)

const maxColumns = 50

// ColumnsService keeps each admin's visible column selection per stream.
type ColumnsService interface {
	Get(ctx context.Context, userID string, kind model.LogKind) (*dto.ColumnsResponse, error)
	Save(ctx context.Context, userID string, kind model.LogKind, cols []string) (*dto.ColumnsResponse, error)
}

type columnsService struct {
	repo repository.ColumnRepository
}

func NewColumnsService(repo repository.ColumnRepository) ColumnsService {
	return &columnsService{repo: repo}
}

func (s *columnsService) Get(ctx context.Context, userID string, kind model.LogKind) (*dto.ColumnsResponse, error) {
	cols, found, err := s.repo.Get(ctx, userID, kind)
	if err != nil {
		return nil, err
	}
	if !found || len(cols) == 0 {
		return &dto.ColumnsResponse{Kind: kind, Columns: export.ColumnsFor(kind), Default: true}, nil
	}
	return &dto.ColumnsResponse{Kind: kind, Columns: cols}, nil
}

// Save trims and dedupes cols. An empty selection resets to the defaults.
func (s *columnsService) Save(ctx context.Context, userID string, kind model.LogKind, cols []string) (*dto.ColumnsResponse, error) {
	clean := NormalizeColumns(cols)
	if len(clean) > maxColumns {
		return nil, fmt.Errorf("%w: at most %d columns", ErrInvalidRequest, maxColumns)
	}
	if err := s.repo.Save(ctx, userID, kind, clean); err != nil {
		return nil, err
	}
	log.Info().Str("user_id", userID).Str("kind", string(kind)).Strs("columns", clean).Msg("Saved column preference")
	if len(clean) == 0 {
		return &dto.ColumnsResponse{Kind: kind, Columns: export.ColumnsFor(kind), Default: true}, nil
	}
	return &dto.ColumnsResponse{Kind: kind, Columns: clean}, nil
}

func NormalizeColumns(cols []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, c := range cols {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
