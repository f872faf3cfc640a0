package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pathway/backend/internal/infrastructure/telemetry"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func countingJob(name string, calls *atomic.Int32, affected int, err error) Job {
	return JobFunc{
		JobName: name,
		Fn: func(ctx context.Context) (int, error) {
			calls.Add(1)
			return affected, err
		},
	}
}

func TestScheduler_Register(t *testing.T) {
	s := New(DefaultConfig(), zap.NewNop())
	var calls atomic.Int32

	require.NoError(t, s.Register("@every 1h", countingJob("pool_sla_sweep", &calls, 0, nil)))

	err := s.Register("@every 1h", countingJob("pool_sla_sweep", &calls, 0, nil))
	assert.ErrorIs(t, err, ErrDuplicateJob)

	err = s.Register("not a schedule", countingJob("other", &calls, 0, nil))
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	s.Start(context.Background())
	defer func() { _ = s.Stop(context.Background()) }()

	err = s.Register("@every 1h", countingJob("late", &calls, 0, nil))
	assert.ErrorIs(t, err, ErrSchedulerRunning)

	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "pool_sla_sweep", jobs[0].Name)
	assert.Equal(t, JobStatusIdle, jobs[0].Status)
	require.NotNil(t, jobs[0].NextRunAt)
}

func TestScheduler_RunNow(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	metrics := telemetry.NewMetrics()
	s := New(DefaultConfig(), zap.New(core), WithMetrics(metrics))
	var calls atomic.Int32

	require.NoError(t, s.Register("@every 1h", countingJob("application_expiry", &calls, 3, nil)))
	require.NoError(t, s.RunNow(context.Background(), "application_expiry"))

	assert.Equal(t, int32(1), calls.Load())
	state := s.Jobs()[0]
	assert.Equal(t, JobStatusSuccess, state.Status)
	assert.Equal(t, 3, state.LastAffected)
	require.NotNil(t, state.LastRunAt)

	finished := logs.FilterMessage("Job finished").All()
	require.Len(t, finished, 1)
	assert.Equal(t, int64(3), finished[0].ContextMap()["affected"])

	series, err := testutil.GatherAndCount(metrics.Registry(), "pathway_scheduler_job_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, series)
}

func TestScheduler_RunNowFailure(t *testing.T) {
	s := New(DefaultConfig(), zap.NewNop())
	var calls atomic.Int32
	boom := errors.New("db down")

	require.NoError(t, s.Register("@daily", countingJob("pool_sla_sweep", &calls, 0, boom)))

	err := s.RunNow(context.Background(), "pool_sla_sweep")
	assert.ErrorIs(t, err, boom)
	state := s.Jobs()[0]
	assert.Equal(t, JobStatusFailed, state.Status)
	assert.Equal(t, "db down", state.LastError)

	assert.ErrorIs(t, s.RunNow(context.Background(), "missing"), ErrJobNotFound)
}

func TestScheduler_RecoversPanic(t *testing.T) {
	s := New(DefaultConfig(), zap.NewNop())
	require.NoError(t, s.Register("@daily", JobFunc{
		JobName: "explodes",
		Fn: func(ctx context.Context) (int, error) {
			panic("nil map")
		},
	}))

	var err error
	assert.NotPanics(t, func() {
		err = s.RunNow(context.Background(), "explodes")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
	assert.Equal(t, JobStatusFailed, s.Jobs()[0].Status)
}

func TestScheduler_SkipsOverlappingRun(t *testing.T) {
	s := New(DefaultConfig(), zap.NewNop())
	release := make(chan struct{})
	started := make(chan struct{})
	var calls atomic.Int32

	require.NoError(t, s.Register("@daily", JobFunc{
		JobName: "slow",
		Fn: func(ctx context.Context) (int, error) {
			calls.Add(1)
			close(started)
			<-release
			return 0, nil
		},
	}))

	go func() { _ = s.RunNow(context.Background(), "slow") }()
	<-started

	assert.NoError(t, s.RunNow(context.Background(), "slow"))
	close(release)

	assert.Eventually(t, func() bool {
		return s.Jobs()[0].Status == JobStatusSuccess
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestScheduler_JobTimeout(t *testing.T) {
	s := New(Config{JobTimeout: 10 * time.Millisecond}, zap.NewNop())
	require.NoError(t, s.Register("@daily", JobFunc{
		JobName: "blocks",
		Fn: func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		},
	}))

	err := s.RunNow(context.Background(), "blocks")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScheduler_CronFires(t *testing.T) {
	s := New(DefaultConfig(), zap.NewNop())
	var calls atomic.Int32
	require.NoError(t, s.Register("@every 1s", countingJob("tick", &calls, 1, nil)))

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
	assert.NoError(t, s.Stop(context.Background()))
}
