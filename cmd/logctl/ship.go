package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"carbon-admin-console/internal/kafka"
	"carbon-admin-console/internal/model"
	"carbon-admin-console/internal/poller"
	"carbon-admin-console/internal/shipper"
)

func newShipCmd(a *app) *cobra.Command {
	var (
		dir      string
		kind     string
		follow   bool
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "ship",
		Short: "Publish new lines of local log files to the ingest topic",
		Long: `Ship walks a directory for *.log, *.ndjson and *.jsonl files and publishes
every line written since the previous run. JSON lines are sent as they are;
text lines in the "YY/MM/DD HH:MM:SS LEVEL component: message" format are
grouped with their continuation lines. Offsets are kept in the state file.

With --follow, writes to log files under the directory trigger a run as they
happen; the directory is also rescanned every --interval.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			k := model.KindSystem
			if kind != "" {
				parsed, err := model.ParseKind(kind)
				if err != nil {
					return err
				}
				k = parsed
			}
			producer, err := kafka.NewLogProducer(a.cfg.Kafka.Brokers, a.cfg.Kafka.LogTopic, a.cfg.Ingest.BatchSize, a.cfg.Ingest.MaxBatchWait)
			if err != nil {
				return err
			}
			defer func() {
				if err := producer.Close(); err != nil {
					log.Warn().Err(err).Msg("Failed to close producer")
				}
			}()
			s := shipper.New(dir, k, a.cfg.Ingest.BatchSize, producer, a.store)
			out := cmd.OutOrStdout()

			if !follow {
				stats, err := s.Run(cmd.Context())
				fmt.Fprintf(out, "shipped %d records from %d files\n", stats.Records, stats.Files)
				return err
			}

			if interval <= 0 {
				return fmt.Errorf("--interval must be positive")
			}
			watcher, err := shipper.NewWatcher(dir)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			p := poller.New("ship", interval, func(ctx context.Context) error {
				_, err := s.Run(ctx)
				return err
			})
			go watcher.Run(ctx, func(string) { p.Trigger() })
			p.Run(ctx)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "directory to scan")
	cmd.Flags().StringVar(&kind, "kind", "system", "stream of text lines and of JSON lines without a kind")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep shipping until interrupted")
	cmd.Flags().DurationVar(&interval, "interval", 10*time.Second, "fallback rescan interval with --follow")
	return cmd
}
