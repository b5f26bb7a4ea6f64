package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"carbon-admin-console/config"
	"carbon-admin-console/internal/model"
	"carbon-admin-console/internal/util"
)

type RecordStore interface {
	StoreRecords(ctx context.Context, records []model.LogRecord) error
	Close(ctx context.Context) error
}

type elasticRecordStore struct {
	bulkIndexer     esutil.BulkIndexer
	indexPrefix     string
	now             func() time.Time
	countSuccessful atomic.Uint64
	countFailed     atomic.Uint64
}

func NewRecordStore(lc fx.Lifecycle, esClient *elasticsearch.Client, cfg *config.Config) (RecordStore, error) {
	store, err := newRecordStore(esClient, cfg.Elasticsearch)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Closing Elasticsearch BulkIndexer...")
			return store.Close(ctx)
		},
	})
	return store, nil
}

func newRecordStore(esClient *elasticsearch.Client, cfg config.ElasticsearchConfig) (*elasticRecordStore, error) {
	store := &elasticRecordStore{
		indexPrefix: cfg.IndexPrefix,
		now:         time.Now,
	}

	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:        esClient,
		NumWorkers:    cfg.BulkWorkers,   // Number of workers
		FlushBytes:    cfg.FlushBytes,    // Flush threshold
		FlushInterval: cfg.FlushInterval, // Flush interval
		OnError: func(ctx context.Context, err error) {
			log.Error().Err(err).Msg("BulkIndexer error")
		},
		OnFlushStart: func(ctx context.Context) context.Context {
			log.Debug().Msg("BulkIndexer flush starting")
			return ctx
		},
		OnFlushEnd: func(ctx context.Context) {
			log.Debug().Msg("BulkIndexer flush ended")
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("Error creating the BulkIndexer")
		return nil, err
	}
	store.bulkIndexer = bi
	log.Info().Str("index_prefix", store.indexPrefix).Msg("Elasticsearch BulkIndexer initialized")
	return store, nil
}

// indexFor routes a record to the daily index of its kind and timestamp.
// Records without a readable timestamp land in today's index.
func (s *elasticRecordStore) indexFor(rec model.LogRecord) string {
	day := s.now()
	if t, err := util.ParseTimeFlexible(rec.Timestamp); err == nil {
		day = t
	}
	kind := rec.Kind
	if kind == "" {
		kind = model.KindSystem
	}
	return IndexName(s.indexPrefix, strings.ToLower(string(kind)), day)
}

// StoreRecords queues records on the bulk indexer and blocks until
// Elasticsearch has answered for every one of them. It fails when any record
// was not indexed, so the caller must not treat the batch as durable.
//
// Records carrying an ID are indexed under it and a retried batch overwrites
// rather than duplicates.
func (s *elasticRecordStore) StoreRecords(ctx context.Context, records []model.LogRecord) error {
	if len(records) == 0 {
		return nil
	}

	var (
		pending sync.WaitGroup
		failed  atomic.Int64
	)
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal log record for Elasticsearch")
			s.countFailed.Add(1)
			failed.Add(1)
			continue
		}

		pending.Add(1)
		err = s.bulkIndexer.Add(
			ctx,
			esutil.BulkIndexerItem{
				Action:     "index",
				Index:      s.indexFor(rec),
				DocumentID: rec.ID,
				Body:       bytes.NewReader(data),
				OnSuccess: func(context.Context, esutil.BulkIndexerItem, esutil.BulkIndexerResponseItem) {
					s.countSuccessful.Add(1)
					pending.Done()
				},
				OnFailure: func(_ context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
					defer pending.Done()
					s.countFailed.Add(1)
					failed.Add(1)
					if err != nil {
						log.Error().Err(err).Str("index", item.Index).Msg("Bulk item failed")
						return
					}
					log.Error().Str("index", item.Index).Str("type", res.Error.Type).Str("reason", res.Error.Reason).Msg("Bulk item rejected")
				},
			},
		)
		if err != nil {
			log.Error().Err(err).Msg("Failed to add item to BulkIndexer")
			s.countFailed.Add(1)
			failed.Add(1)
			pending.Done()
		}
	}
	log.Debug().Int("count", len(records)).Msg("Added log records to Elasticsearch BulkIndexer queue")

	done := make(chan struct{})
	go func() {
		pending.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d records were not indexed", n, len(records))
	}
	return nil
}

func (s *elasticRecordStore) Close(ctx context.Context) error {
	log.Info().Msg("Attempting to close BulkIndexer...")
	err := s.bulkIndexer.Close(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Error closing BulkIndexer")
	} else {
		log.Info().Msg("BulkIndexer closed.")
	}

	stats := s.bulkIndexer.Stats()
	log.Info().
		Uint64("indexed", stats.NumIndexed).
		Uint64("added", stats.NumAdded).
		Uint64("flushed", stats.NumFlushed).
		Uint64("failed", stats.NumFailed).
		Uint64("requests", stats.NumRequests).
		Msg("Elasticsearch BulkIndexer final stats")

	log.Info().
		Uint64("callback_successful", s.countSuccessful.Load()).
		Uint64("callback_failed", s.countFailed.Load()).
		Msg("Elasticsearch BulkIndexer final callback stats")

	return err
}
