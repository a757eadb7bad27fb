package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/tms-backend/pkg/logger"
	"github.com/angelmondragon/tms-backend/pkg/metrics"
)

const defaultInterval = 5 * time.Minute

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronMetrics
	Interval time.Duration
	Now      func() time.Time
}

// Service ticks every Interval. Each tick acquires the leader lock, runs the
// jobs that are due and releases the lock again, so only one worker in the
// fleet executes a given cycle.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.CronMetrics
	interval time.Duration
	now      func() time.Time

	// lastRun is process-local; a restarted worker runs Periodic jobs on its
	// first cycle.
	lastRun map[string]time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("cron service: logger required")
	case params.Lock == nil:
		return nil, errors.New("cron service: lock required")
	}
	s := &Service{
		logg:     params.Logger,
		registry: params.Registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: params.Interval,
		now:      params.Now,
		lastRun:  make(map[string]time.Time),
	}
	if s.registry == nil {
		s.registry = &Registry{names: map[string]struct{}{}}
	}
	if s.interval <= 0 {
		s.interval = defaultInterval
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Run ticks once immediately and then every interval until ctx is canceled.
// Cycle failures are logged and never stop the loop; one failing job does
// not keep the others in the cycle from running.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.tick(ctx); err != nil {
			s.logg.Error(ctx, "cron cycle failed", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Service) tick(ctx context.Context) error {
	leader, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("leader lock: %w", err)
	}
	if !leader {
		s.metrics.IncSkipped()
		s.logg.Info(ctx, "cron cycle skipped, lock held elsewhere")
		return nil
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cron lock release failed")
		}
	}()

	var (
		ran  int
		errs error
	)
	for _, job := range s.registry.Jobs() {
		if ctx.Err() != nil {
			break
		}
		if !s.due(job) {
			continue
		}
		if err := s.run(ctx, job); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", job.Name(), err))
		}
		ran++
	}
	s.logg.Info(s.logg.WithField(ctx, "jobs_run", ran), "cron cycle complete")
	return errs
}

func (s *Service) due(job Job) bool {
	every := cadence(job)
	if every <= 0 {
		return true
	}
	last, seen := s.lastRun[job.Name()]
	return !seen || s.now().Sub(last) >= every
}

func (s *Service) run(ctx context.Context, job Job) error {
	ctx = s.logg.WithFields(ctx, map[string]any{"job": job.Name(), "event": "cron.job"})
	started := s.now()
	s.lastRun[job.Name()] = started

	err := job.Run(ctx)
	elapsed := s.now().Sub(started)
	s.metrics.ObserveRun(job.Name(), elapsed, err)

	ctx = s.logg.WithField(ctx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		s.logg.Error(ctx, "cron job failed", err)
		return err
	}
	s.logg.Info(ctx, "cron job finished")
	return nil
}
