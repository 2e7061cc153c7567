// Package scheduler runs named background jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a unit of background work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler struct {
	cron    *cron.Cron
	log     zerolog.Logger
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.RWMutex
	jobs map[string]Job
}

// New returns a scheduler whose job runs are each bounded by timeout.
func New(log zerolog.Logger, timeout time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(),
		log:     log.With().Str("component", "scheduler").Logger(),
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(map[string]Job),
	}
}

// AddJob registers job under a cron spec such as "@every 1m" or "0 * * * *".
func (s *Scheduler) AddJob(spec string, job Job) error {
	s.mu.Lock()
	if _, dup := s.jobs[job.Name()]; dup {
		s.mu.Unlock()
		return fmt.Errorf("job %q already registered", job.Name())
	}
	s.jobs[job.Name()] = job
	s.mu.Unlock()

	if _, err := s.cron.AddFunc(spec, func() { s.run(job) }); err != nil {
		s.mu.Lock()
		delete(s.jobs, job.Name())
		s.mu.Unlock()
		return fmt.Errorf("invalid schedule %q for job %s: %w", spec, job.Name(), err)
	}

	s.log.Info().Str("schedule", spec).Str("job", job.Name()).Msg("job registered")
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop waits for running jobs to finish and cancels their context.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.cancel()
	s.log.Info().Msg("scheduler stopped")
}

// RunNow executes a registered job immediately, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.RLock()
	job, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job %q: %w", name, ErrUnknownJob)
	}

	s.log.Info().Str("job", name).Msg("running job now")
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return job.Run(runCtx)
}

// Jobs lists the registered job names.
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}

func (s *Scheduler) run(job Job) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.log.Error().Err(err).Str("job", job.Name()).Msg("job failed")
		return
	}
	s.log.Debug().Str("job", job.Name()).Dur("took", time.Since(start)).Msg("job completed")
}
