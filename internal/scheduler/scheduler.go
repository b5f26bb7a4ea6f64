package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"carbon-admin-console/config"
)

// RetentionJob deletes expired data and reports what it removed.
type RetentionJob interface {
	Run(ctx context.Context) ([]string, error)
}

const jobTimeout = 10 * time.Minute

// New builds a cron with a seconds field that runs job on schedule. A run
// still in progress makes the next tick a no-op.
func New(schedule string, job RetentionJob) (*cron.Cron, error) {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.DowOptional | cron.Descriptor)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		deleted, err := job.Run(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Error during scheduled retention cleanup")
			return
		}
		if len(deleted) > 0 {
			log.Info().Int("deleted", len(deleted)).Msg("Scheduled retention cleanup finished")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("add cron job %q: %w", schedule, err)
	}
	return c, nil
}

func NewScheduler(lc fx.Lifecycle, cfg *config.Config, job RetentionJob) (*cron.Cron, error) {
	schedule := cfg.Retention.Schedule
	c, err := New(schedule, job)
	if err != nil {
		log.Error().Err(err).Str("schedule", schedule).Msg("Failed to add cron job")
		return nil, err
	}
	log.Info().Str("schedule", schedule).Int("retention_days", cfg.Retention.Days).Msg("Scheduled retention cleanup job")

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msg("Starting cron scheduler")
			c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Stopping cron scheduler...")
			stopCtx := c.Stop()
			select {
			case <-stopCtx.Done():
				log.Info().Msg("Cron scheduler stopped gracefully.")
				return nil
			case <-ctx.Done():
				log.Error().Msg("Context cancelled while waiting for cron scheduler to stop.")
				return ctx.Err()
			}
		},
	})

	return c, nil
}
