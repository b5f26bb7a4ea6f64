package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"go.uber.org/fx"

	"carbon-admin-console/config"
	"carbon-admin-console/internal/model"
)

type LogConsumer interface {
	FetchMessage(ctx context.Context) (*model.LogRecord, kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaLogConsumer struct {
	reader *kafka.Reader
}

func NewKafkaLogConsumer(lc fx.Lifecycle, cfg *config.Config) (LogConsumer, error) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.Kafka.ConsumerGroup,
		Topic:          cfg.Kafka.LogTopic,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        time.Second,
		CommitInterval: 0,
		StartOffset:    kafka.FirstOffset,
	})
	c := &kafkaLogConsumer{
		reader: reader,
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info().Str("group", cfg.Kafka.ConsumerGroup).Msg("Closing Kafka consumer")
			return c.Close()
		},
	})
	log.Info().
		Strs("brokers", cfg.Kafka.Brokers).
		Str("topic", cfg.Kafka.LogTopic).
		Str("group", cfg.Kafka.ConsumerGroup).
		Msg("Kafka consumer initialized")
	return c, nil
}

// ErrInvalidRecord marks a message whose value is not a log record. The
// message is still returned so the caller can commit past it.
var ErrInvalidRecord = errors.New("invalid log record")

// FetchMessage reads the next message and decodes it. A decoded record is
// named after its topic, partition and offset so that storing a redelivered
// message is idempotent.
func (c *kafkaLogConsumer) FetchMessage(ctx context.Context) (*model.LogRecord, kafka.Message, error) {
	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return nil, kafka.Message{}, err
	}
	log.Trace().
		Str("topic", msg.Topic).
		Int("partition", msg.Partition).
		Int64("offset", msg.Offset).
		Msg("Fetched message from Kafka")
	rec, err := DecodeRecord(msg.Value)
	if err != nil {
		log.Error().Err(err).Int("partition", msg.Partition).Int64("offset", msg.Offset).Msg("Failed to decode Kafka message value")
		return nil, msg, err
	}
	rec.ID = RecordID(msg)
	return rec, msg, nil
}

// RecordID names the record carried by msg.
func RecordID(msg kafka.Message) string {
	return fmt.Sprintf("%s-%d-%d", msg.Topic, msg.Partition, msg.Offset)
}

// DecodeRecord parses one message value into a record. The kind is
// normalized to one of the known streams; a record without one is a system
// record. Values that are not JSON objects or name an unknown kind fail
// with ErrInvalidRecord.
func DecodeRecord(value []byte) (*model.LogRecord, error) {
	var rec model.LogRecord
	if err := json.Unmarshal(value, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if strings.TrimSpace(string(rec.Kind)) == "" {
		rec.Kind = model.KindSystem
		return &rec, nil
	}
	kind, err := model.ParseKind(string(rec.Kind))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	rec.Kind = kind
	return &rec, nil
}

func (c *kafkaLogConsumer) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	err := c.reader.CommitMessages(ctx, msgs...)
	if err != nil {
		log.Error().Err(err).Int("count", len(msgs)).Msg("Failed to commit Kafka messages")
		return err
	}
	log.Debug().Int("count", len(msgs)).Int64("last_offset", msgs[len(msgs)-1].Offset).Msg("Committed Kafka messages")
	return nil
}

func (c *kafkaLogConsumer) Close() error {
	return c.reader.Close()
}
