package session

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const (
	DefaultRefreshInterval  = 30 * time.Minute
	DefaultRefreshThreshold = 10 * time.Minute
)

// UserFetcher re-reads the signed-in profile from the API, which also
// proves the session is still accepted server-side.
type UserFetcher interface {
	CurrentUser(ctx context.Context) (*User, error)
}

// Refresher periodically revalidates a session that is about to expire.
type Refresher struct {
	session   *Session
	fetcher   UserFetcher
	interval  time.Duration
	threshold time.Duration
	cron      *cron.Cron
}

func NewRefresher(s *Session, f UserFetcher) *Refresher {
	return &Refresher{
		session:   s,
		fetcher:   f,
		interval:  DefaultRefreshInterval,
		threshold: DefaultRefreshThreshold,
	}
}

// Check runs one refresh decision. A session with more than the threshold
// left is untouched; otherwise the profile is refetched and a failure logs
// the session out.
func (r *Refresher) Check(ctx context.Context) error {
	if r.session.Token() == "" {
		return nil
	}
	remaining := r.session.Remaining()
	if remaining >= r.threshold {
		log.Debug().Dur("remaining", remaining).Msg("Session lifetime is fine, no refresh needed")
		return nil
	}

	log.Info().Dur("remaining", remaining).Msg("Session close to expiry, refreshing user")
	u, err := r.fetcher.CurrentUser(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Session refresh failed, logging out")
		if errLogout := r.session.Logout(); errLogout != nil {
			log.Error().Err(errLogout).Msg("Failed to clear session after refresh failure")
		}
		return fmt.Errorf("refresh session: %w", err)
	}
	if u != nil {
		if err := r.session.SetUser(*u); err != nil {
			return err
		}
	}
	return nil
}

// Start schedules Check on the refresh interval.
func (r *Refresher) Start() error {
	c := cron.New()
	schedule := fmt.Sprintf("@every %s", r.interval)
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := r.Check(ctx); err != nil {
			log.Error().Err(err).Msg("Scheduled session refresh failed")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule session refresh: %w", err)
	}
	r.cron = c
	c.Start()
	log.Debug().Str("schedule", schedule).Msg("Session refresher started")
	return nil
}

// Stop halts the schedule and waits for a running check within ctx.
func (r *Refresher) Stop(ctx context.Context) error {
	if r.cron == nil {
		return nil
	}
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
