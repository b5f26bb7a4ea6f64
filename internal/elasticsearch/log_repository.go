package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/typedapi/core/search"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/fieldtype"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/sortorder"
	"github.com/rs/zerolog/log"

	"carbon-admin-console/config"
	"carbon-admin-console/internal/dto"
	"carbon-admin-console/internal/model"
	"carbon-admin-console/internal/repository"
)

type elasticsearchLogRepository struct {
	esTypedClient *elasticsearch.TypedClient
	indexPrefix   string
}

func NewElasticsearchLogRepository(typedClient *elasticsearch.TypedClient, cfg *config.Config) repository.LogRepository {
	return &elasticsearchLogRepository{
		esTypedClient: typedClient,
		indexPrefix:   cfg.Elasticsearch.IndexPrefix,
	}
}

func buildSearchRequest(req dto.LogSearchRequest) *search.Request {
	order := sortorder.Desc
	from, size := req.From, req.Size
	return &search.Request{
		Query:          buildQuery(req.Filter),
		Size:           &size,
		From:           &from,
		TrackTotalHits: true,
		Sort: []types.SortCombinations{
			types.SortOptions{
				SortOptions: map[string]types.FieldSort{
					fieldTimestamp: {Order: &order, UnmappedType: &fieldtype.Date},
				},
			},
		},
	}
}

func (r *elasticsearchLogRepository) Search(ctx context.Context, req dto.LogSearchRequest) (*dto.LogSearchResponse, error) {
	indexPattern := IndexPattern(r.indexPrefix, string(req.Kind))

	res, err := r.esTypedClient.Search().
		Index(indexPattern).
		Request(buildSearchRequest(req)).
		Do(ctx)
	if err != nil {
		log.Error().Err(err).Str("index", indexPattern).Msg("Error executing Elasticsearch search via TypedClient")
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}

	records := make([]model.LogRecord, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		if hit.Source_ == nil {
			continue
		}
		var rec model.LogRecord
		if err := json.Unmarshal(hit.Source_, &rec); err != nil {
			log.Error().Err(err).Msg("Error unmarshalling Elasticsearch hit source")
			continue
		}
		if rec.Kind == "" {
			rec.Kind = req.Kind
		}
		records = append(records, rec)
	}

	var total int64
	if res.Hits.Total != nil {
		total = res.Hits.Total.Value
	}
	log.Debug().Str("kind", string(req.Kind)).Int64("total_hits", total).Int("returned_hits", len(records)).Msg("Elasticsearch search successful")
	return &dto.LogSearchResponse{Records: records, TotalCount: total}, nil
}
