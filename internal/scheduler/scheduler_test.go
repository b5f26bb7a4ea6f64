package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs atomic.Int32
	err  error
}

func (j *countingJob) Run(context.Context) ([]string, error) {
	j.runs.Add(1)
	return []string{"adminlogs-system-2024-01-01"}, j.err
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New("not a schedule", &countingJob{})
	assert.Error(t, err)
}

func TestNewAcceptsSecondsAndDescriptors(t *testing.T) {
	for _, schedule := range []string{"0 0 3 * * *", "@daily", "@every 1h"} {
		c, err := New(schedule, &countingJob{})
		require.NoError(t, err, schedule)
		assert.Len(t, c.Entries(), 1)
	}
}

func TestJobRuns(t *testing.T) {
	job := &countingJob{err: errors.New("es unavailable")}
	c, err := New("@every 1s", job)
	require.NoError(t, err)
	c.Start()
	defer c.Stop()

	assert.Eventually(t, func() bool { return job.runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}
