package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/niftyjobs/pkg/logger"
)

type countingJob struct {
	name     string
	schedule string
	err      error
	runs     atomic.Int32
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }
func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestAddJob(t *testing.T) {
	s := New(logger.Nop())

	require.NoError(t, s.AddJob(&countingJob{name: "yearly", schedule: "0 0 2 1 1 *"}))
	assert.Error(t, s.AddJob(&countingJob{name: "yearly", schedule: "0 0 2 1 1 *"}), "duplicate name")
	assert.Error(t, s.AddJob(&countingJob{name: "bad", schedule: "not a cron"}))

	assert.Equal(t, []string{"yearly"}, s.GetAllJobs())
}

func TestRunJobDoesNotRetry(t *testing.T) {
	s := New(logger.Nop())
	failing := &countingJob{name: "monthly", schedule: "0 0 2 1 * *", err: errors.New("no price data")}
	require.NoError(t, s.AddJob(failing))

	err := s.RunJob(context.Background(), "monthly")
	require.Error(t, err)
	assert.Equal(t, int32(1), failing.runs.Load())

	history, err := s.GetJobHistory("monthly")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
	assert.False(t, history.Results[0].Success)
	assert.Equal(t, "no price data", history.Results[0].Error)
}

func TestGetJobStats(t *testing.T) {
	s := New(logger.Nop())
	job := &countingJob{name: "refresh", schedule: "0 30 16 * * 1-5"}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob(context.Background(), "refresh"))
	job.err = errors.New("boom")
	require.Error(t, s.RunJob(context.Background(), "refresh"))

	stats := s.GetJobStats()["refresh"]
	assert.Equal(t, 2, stats.TotalRuns)
	assert.Equal(t, 1, stats.SuccessCount)
	assert.Equal(t, 1, stats.FailureCount)
	assert.InDelta(t, 0.5, stats.SuccessRate, 1e-9)
	assert.NotNil(t, stats.LastFailure)
	assert.Equal(t, "0 30 16 * * 1-5", stats.Schedule)
}

func TestRunJobUnknown(t *testing.T) {
	s := New(logger.Nop())
	assert.Error(t, s.RunJob(context.Background(), "nope"))

	_, err := s.GetJobHistory("nope")
	assert.Error(t, err)
}

func TestStartStop(t *testing.T) {
	s := New(logger.Nop())
	require.NoError(t, s.AddJob(&countingJob{name: "yearly", schedule: "0 0 2 1 1 *"}))

	s.Start()
	s.Stop()
	assert.Error(t, s.ctx.Err(), "stop cancels the run context")
}

func TestJobHistoryKeepsLastHundred(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < 120; i++ {
		h.AddResult(JobResult{Success: i%2 == 0})
	}

	assert.Len(t, h.Results, 100)
	assert.Len(t, h.GetLatestResults(5), 5)
	assert.Len(t, h.GetFailedResults(), 50)
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
	assert.Empty(t, (&JobHistory{}).GetLatestResults(3))
}
