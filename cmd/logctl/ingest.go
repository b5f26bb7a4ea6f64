package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"carbon-admin-console/internal/export"
	"carbon-admin-console/internal/kafka"
)

func newIngestCmd(a *app) *cobra.Command {
	var topic string
	cmd := &cobra.Command{
		Use:   "ingest <file.ndjson|->",
		Short: "Publish NDJSON log records to the ingest topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			records, err := export.ReadNDJSON(in)
			if err != nil {
				return err
			}
			if topic == "" {
				topic = a.cfg.Kafka.LogTopic
			}

			producer, err := kafka.NewLogProducer(a.cfg.Kafka.Brokers, topic, a.cfg.Ingest.BatchSize, a.cfg.Ingest.MaxBatchWait)
			if err != nil {
				return err
			}
			defer func() {
				if err := producer.Close(); err != nil {
					log.Warn().Err(err).Msg("Failed to close producer")
				}
			}()

			ctx, cancel := context.WithTimeout(cmd.Context(), 4*a.cfg.Timeout)
			defer cancel()
			n, err := producer.Produce(ctx, records)
			if err != nil {
				return fmt.Errorf("published %d of %d records: %w", n, len(records), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %d records to %s\n", n, topic)
			return nil
		},
	}
	cmd.Flags().StringVar(&topic, "topic", "", "topic (default $KAFKA_LOG_TOPIC)")
	return cmd
}
