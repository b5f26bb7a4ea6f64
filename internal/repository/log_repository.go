package repository

import (
	"context"

	"carbon-admin-console/internal/dto"
)

type LogRepository interface {
	Search(ctx context.Context, req dto.LogSearchRequest) (*dto.LogSearchResponse, error)
}
