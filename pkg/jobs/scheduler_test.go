package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mo-amir99/coursehub-server-go/pkg/logger"
)

type countingJob struct {
	runs  atomic.Int32
	panic bool
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Execute(context.Context) error {
	j.runs.Add(1)
	if j.panic {
		panic("boom")
	}
	return nil
}

func TestSchedulerRunsOnInterval(t *testing.T) {
	job := &countingJob{}
	s := NewScheduler(logger.Discard(), time.Second)
	s.AddJob(job, 10*time.Millisecond)

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return job.runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()

	after := job.runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, job.runs.Load())
}

func TestRunOnceRecoversPanics(t *testing.T) {
	job := &countingJob{panic: true}
	s := NewScheduler(logger.Discard(), time.Second)
	s.AddJob(job, time.Hour)

	err := s.RunOnce(context.Background(), "counting")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")

	assert.Error(t, s.RunOnce(context.Background(), "missing"))
}
