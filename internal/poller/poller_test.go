package poller_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"carbon-admin-console/internal/poller"
)

func TestRun_ImmediateAndTicks(t *testing.T) {
	var calls atomic.Int32
	p := poller.New("test", 20*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestTrigger(t *testing.T) {
	var calls atomic.Int32
	p := poller.New("test", time.Hour, func(context.Context) error {
		calls.Add(1)
		return errors.New("ignored")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	p.Trigger()
	assert.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestOverlappingRunsAreSkipped(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	p := poller.New("slow", 5*time.Millisecond, func(ctx context.Context) error {
		calls.Add(1)
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return p.Skipped() >= 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	close(release)
	cancel()
	<-done
}
