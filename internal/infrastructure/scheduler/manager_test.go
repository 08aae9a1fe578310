package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiclens/civiclens/internal/shared/logger"
)

type countingJob struct {
	runs atomic.Int32
	err  error
}

func (j *countingJob) Execute(_ context.Context) (int, error) {
	j.runs.Add(1)
	return 2, j.err
}

func TestSchedulerManager_TriageSweepRunsImmediately(t *testing.T) {
	m, err := NewSchedulerManager(logger.NewNopLogger())
	require.NoError(t, err)

	job := &countingJob{}
	require.NoError(t, m.RegisterTriageSweep(job, time.Hour))
	require.Len(t, m.Jobs(), 1)
	assert.Equal(t, "triage-stale-sweep", m.Jobs()[0].Name())

	m.Start()
	assert.True(t, m.IsStarted())

	require.Eventually(t, func() bool { return job.runs.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, m.Stop())
	assert.False(t, m.IsStarted())
	require.NoError(t, m.Stop())
}

func TestSchedulerManager_FailingJobKeepsScheduling(t *testing.T) {
	m, err := NewSchedulerManager(logger.NewNopLogger())
	require.NoError(t, err)

	job := &countingJob{err: errors.New("db down")}
	require.NoError(t, m.RegisterTriageSweep(job, 50*time.Millisecond))

	m.Start()
	require.Eventually(t, func() bool { return job.runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, m.Stop())
}
