// Package poller refetches on a fixed interval and on demand.
package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	UnreadCountInterval = 60 * time.Second
	AutoRefreshInterval = 8 * time.Second
)

// Poller runs Fn immediately, then on every tick and every Trigger. A run
// that would overlap one still in flight is skipped.
type Poller struct {
	Name     string
	Interval time.Duration
	Fn       func(ctx context.Context) error

	trigger chan struct{}
	once    sync.Once
	running atomic.Bool
	wg      sync.WaitGroup

	runs    atomic.Int64
	skipped atomic.Int64
}

func New(name string, interval time.Duration, fn func(ctx context.Context) error) *Poller {
	return &Poller{Name: name, Interval: interval, Fn: fn}
}

func (p *Poller) init() {
	p.once.Do(func() { p.trigger = make(chan struct{}, 1) })
}

// Trigger asks for an extra run, e.g. when the terminal regains focus.
func (p *Poller) Trigger() {
	p.init()
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is canceled, then waits for the run in flight.
func (p *Poller) Run(ctx context.Context) {
	p.init()
	log.Debug().Str("poller", p.Name).Dur("interval", p.Interval).Msg("Poller starting")

	p.fire(ctx)

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.fire(ctx)
		case <-p.trigger:
			p.fire(ctx)
		case <-ctx.Done():
			p.wg.Wait()
			log.Debug().Str("poller", p.Name).Msg("Poller stopping")
			return
		}
	}
}

func (p *Poller) fire(ctx context.Context) {
	if !p.running.CompareAndSwap(false, true) {
		p.skipped.Add(1)
		log.Debug().Str("poller", p.Name).Msg("Previous run still in flight, skipping")
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.running.Store(false)
		p.runs.Add(1)
		if err := p.Fn(ctx); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Str("poller", p.Name).Msg("Poll failed")
		}
	}()
}

// Runs is the number of started runs.
func (p *Poller) Runs() int64 { return p.runs.Load() }

// Skipped is the number of runs dropped because one was in flight.
func (p *Poller) Skipped() int64 { return p.skipped.Load() }
