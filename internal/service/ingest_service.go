package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	kafkaGo "github.com/segmentio/kafka-go"

	"carbon-admin-console/config"
	"carbon-admin-console/internal/elasticsearch"
	"carbon-admin-console/internal/kafka"
	"carbon-admin-console/internal/metrics"
	"carbon-admin-console/internal/model"
	"carbon-admin-console/internal/timescaledb"
)

type IngestService interface {
	Run(ctx context.Context, wg *sync.WaitGroup)
}

type ingestService struct {
	consumer    kafka.LogConsumer
	recordStore elasticsearch.RecordStore
	usageStore  timescaledb.UsageStore
	extractor   metrics.Extractor
	batchSize   int           // How many Kafka messages to process at once
	maxWaitTime time.Duration // Max time to wait for batchSize messages
	retryDelay  time.Duration
}

func NewIngestService(
	consumer kafka.LogConsumer,
	recordStore elasticsearch.RecordStore,
	usageStore timescaledb.UsageStore,
	extractor metrics.Extractor,
	cfg *config.Config,
) IngestService {
	batchSize := cfg.Ingest.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	maxWaitTime := cfg.Ingest.MaxBatchWait
	if maxWaitTime <= 0 {
		maxWaitTime = 5 * time.Second
	}
	return &ingestService{
		consumer:    consumer,
		recordStore: recordStore,
		usageStore:  usageStore,
		extractor:   extractor,
		batchSize:   batchSize,
		maxWaitTime: maxWaitTime,
		retryDelay:  time.Second,
	}
}

func (s *ingestService) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	log.Info().Msg("Starting ingest loop...")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Ingest loop stopping due to context cancellation.")
			return
		default:
		}

		if err := s.processBatch(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info().Msg("Context cancelled during batch processing.")
				return
			}
			log.Error().Err(err).Msg("Error processing ingest batch")
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.retryDelay):
			}
		}
	}
}

// processBatch collects up to batchSize messages or until maxWaitTime passes,
// stores them and commits. Nothing is committed when a store fails, so the
// batch is redelivered.
func (s *ingestService) processBatch(ctx context.Context) error {
	records := make([]model.LogRecord, 0, s.batchSize)
	messages := make([]kafkaGo.Message, 0, s.batchSize)
	deadline := time.Now().Add(s.maxWaitTime)

	for len(messages) < s.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		fetchCtx, cancel := context.WithDeadline(ctx, deadline)
		rec, msg, err := s.consumer.FetchMessage(fetchCtx)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				log.Trace().Int("batch_size", len(messages)).Msg("Max wait time reached, processing partial batch.")
				break
			}
			if errors.Is(err, kafka.ErrInvalidRecord) {
				// commit past it
				log.Warn().Err(err).Int64("offset", msg.Offset).Msg("Skipping invalid message")
				messages = append(messages, msg)
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to fetch kafka message: %w", err)
		}
		records = append(records, *rec)
		messages = append(messages, msg)
	}

	if len(messages) == 0 {
		return nil
	}

	if err := s.recordStore.StoreRecords(ctx, records); err != nil {
		return fmt.Errorf("failed storing records: %w", err)
	}

	var events []model.LLMUsageEvent
	for _, rec := range records {
		if ev, ok := s.extractor.Extract(rec); ok {
			events = append(events, *ev)
		}
	}
	if err := s.usageStore.StoreUsageEvents(ctx, events); err != nil {
		return fmt.Errorf("failed storing usage events: %w", err)
	}

	if err := s.consumer.CommitMessages(ctx, messages...); err != nil {
		return fmt.Errorf("failed committing kafka messages: %w", err)
	}
	log.Info().
		Int("messages", len(messages)).
		Int("records", len(records)).
		Int("usage_events", len(events)).
		Msg("Successfully processed and committed batch.")
	return nil
}
