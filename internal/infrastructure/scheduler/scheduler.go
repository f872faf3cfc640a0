// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pathway/backend/internal/infrastructure/telemetry"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobStatus represents the outcome of the last run of a job
type JobStatus string

const (
	JobStatusIdle    JobStatus = "IDLE"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job is a unit of scheduled work. Run returns the number of records it
// affected.
type Job interface {
	Name() string
	Run(ctx context.Context) (int, error)
}

// JobFunc adapts a function to the Job interface
type JobFunc struct {
	JobName string
	Fn      func(ctx context.Context) (int, error)
}

// Name implements Job
func (f JobFunc) Name() string { return f.JobName }

// Run implements Job
func (f JobFunc) Run(ctx context.Context) (int, error) { return f.Fn(ctx) }

// JobState is a snapshot of a registered job
type JobState struct {
	Name         string
	Schedule     string
	Status       JobStatus
	LastRunAt    *time.Time
	LastDuration time.Duration
	LastAffected int
	LastError    string
	NextRunAt    *time.Time
}

// Config holds scheduler configuration
type Config struct {
	JobTimeout time.Duration
	Location   *time.Location
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		JobTimeout: 5 * time.Minute,
		Location:   time.UTC,
	}
}

type registeredJob struct {
	job      Job
	schedule string
	entryID  cron.EntryID
	state    JobState
	running  sync.Mutex
}

// Scheduler wraps a cron runner. A job never overlaps with itself; a tick
// that fires while the previous run is busy is skipped.
type Scheduler struct {
	config  Config
	cron    *cron.Cron
	logger  *zap.Logger
	metrics *telemetry.Metrics

	mu      sync.RWMutex
	jobs    map[string]*registeredJob
	baseCtx context.Context
	cancel  context.CancelFunc
	started bool
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithMetrics records job runs in m
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// New creates a scheduler. Jobs are added with Register before Start.
func New(cfg Config, logger *zap.Logger, opts ...Option) *Scheduler {
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = DefaultConfig().JobTimeout
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	s := &Scheduler{
		config: cfg,
		logger: logger.Named("scheduler"),
		jobs:   make(map[string]*registeredJob),
	}
	s.cron = cron.New(
		cron.WithLocation(cfg.Location),
		cron.WithLogger(newCronLogger(s.logger)),
		cron.WithChain(cron.Recover(newCronLogger(s.logger))),
	)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register schedules job on spec, a standard five-field cron expression or
// a descriptor such as "@every 15m".
func (s *Scheduler) Register(spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrSchedulerRunning
	}
	if _, exists := s.jobs[job.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, job.Name())
	}

	rj := &registeredJob{
		job:      job,
		schedule: spec,
		state: JobState{
			Name:     job.Name(),
			Schedule: spec,
			Status:   JobStatusIdle,
		},
	}
	id, err := s.cron.AddFunc(spec, func() {
		s.execute(s.runContext(), rj, false)
	})
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSchedule, spec, err)
	}
	rj.entryID = id
	s.jobs[job.Name()] = rj

	s.logger.Info("Scheduled job registered",
		zap.String("job", job.Name()),
		zap.String("schedule", spec),
	)
	return nil
}

// Start begins running jobs on their schedules
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.baseCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.started = true
	s.cron.Start()
	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.jobs)))
}

// Stop prevents new runs and waits for in-flight jobs until ctx is done.
// In-flight jobs see their context cancelled once ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	done := s.cron.Stop()
	select {
	case <-done.Done():
		cancel()
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
}

// RunNow executes the named job immediately and synchronously. It returns
// the job's error, or nil if the job was skipped because it is already running.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.RLock()
	rj, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.execute(ctx, rj, true)
}

// Jobs returns a snapshot of all registered jobs sorted by name
func (s *Scheduler) Jobs() []JobState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	states := make([]JobState, 0, len(s.jobs))
	for _, rj := range s.jobs {
		st := rj.state
		if entry := s.cron.Entry(rj.entryID); !entry.Next.IsZero() {
			next := entry.Next
			st.NextRunAt = &next
		}
		states = append(states, st)
	}
	sort.Slice(states, func(i, j int) bool { return states[i].Name < states[j].Name })
	return states
}

func (s *Scheduler) runContext() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.baseCtx == nil {
		return context.Background()
	}
	return s.baseCtx
}

func (s *Scheduler) execute(ctx context.Context, rj *registeredJob, manual bool) (err error) {
	if !rj.running.TryLock() {
		s.logger.Warn("Skipping job run, previous run still in progress", zap.String("job", rj.job.Name()))
		return nil
	}
	defer rj.running.Unlock()

	name := rj.job.Name()
	start := time.Now()
	s.setState(rj, func(st *JobState) {
		st.Status = JobStatusRunning
		st.LastRunAt = &start
	})

	ctx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	log := s.logger.With(zap.String("job", name), zap.Bool("manual", manual))
	log.Info("Job started")

	var affected int
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", name, r)
		}
		duration := time.Since(start)
		s.setState(rj, func(st *JobState) {
			st.LastDuration = duration
			st.LastAffected = affected
			if err != nil {
				st.Status = JobStatusFailed
				st.LastError = err.Error()
			} else {
				st.Status = JobStatusSuccess
				st.LastError = ""
			}
		})
		s.metrics.JobRun(name, duration, err == nil)
		if err != nil {
			log.Error("Job failed", zap.Error(err), zap.Duration("duration", duration))
			return
		}
		log.Info("Job finished", zap.Int("affected", affected), zap.Duration("duration", duration))
	}()

	affected, err = rj.job.Run(ctx)
	return err
}

func (s *Scheduler) setState(rj *registeredJob, fn func(*JobState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&rj.state)
}
