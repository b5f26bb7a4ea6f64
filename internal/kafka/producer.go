package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"carbon-admin-console/internal/model"
)

type LogProducer interface {
	Produce(ctx context.Context, records []model.LogRecord) (int, error)
	Close() error
}

type kafkaLogProducer struct {
	writer *kafka.Writer
	topic  string
}

// NewLogProducer writes synchronously so Produce reports delivery errors.
func NewLogProducer(brokers []string, topic string, batchSize int, batchWait time.Duration) (LogProducer, error) {
	if len(brokers) == 0 || topic == "" {
		log.Error().Msg("Kafka brokers or log topic is not configured.")
		return nil, errors.New("kafka configuration missing")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    batchSize,
		BatchTimeout: batchWait,
		RequiredAcks: kafka.RequireOne,
	}
	log.Debug().Strs("brokers", brokers).Str("topic", topic).Msg("Kafka producer initialized")
	return &kafkaLogProducer{writer: writer, topic: topic}, nil
}

// MessageKey keeps records of one request on one partition.
func MessageKey(rec model.LogRecord) []byte {
	if id := rec.String("request_id"); id != "" {
		return []byte(id)
	}
	return []byte(rec.Kind)
}

// Produce returns how many records were written. Records that fail to
// encode are skipped.
func (p *kafkaLogProducer) Produce(ctx context.Context, records []model.LogRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	messages := make([]kafka.Message, 0, len(records))
	for _, rec := range records {
		value, err := json.Marshal(rec)
		if err != nil {
			log.Error().Err(err).Str("kind", string(rec.Kind)).Msg("Failed to marshal log record for Kafka")
			continue
		}
		messages = append(messages, kafka.Message{
			Key:   MessageKey(rec),
			Value: value,
		})
	}
	if len(messages) == 0 {
		log.Warn().Msg("No valid messages to produce.")
		return 0, nil
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		log.Error().Err(err).Int("message_count", len(messages)).Msg("Failed to write messages to Kafka")
		return 0, err
	}
	log.Debug().Int("message_count", len(messages)).Str("topic", p.topic).Msg("Successfully produced messages to Kafka")
	return len(messages), nil
}

func (p *kafkaLogProducer) Close() error {
	return p.writer.Close()
}
